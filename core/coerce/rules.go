package coerce

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// Rules is the declarative coercion rule table.
// Field names are matched after name normalisation (snake_case).
type Rules struct {
	// StringFields are always stringified, in every table.
	StringFields []string `yaml:"string_fields" json:"string_fields"`
	// StringSuffixes marks every field ending with one of the suffixes as a string field.
	StringSuffixes []string `yaml:"string_suffixes" json:"string_suffixes"`
	// TableStringFields are string fields for a single table only (table -> fields).
	TableStringFields map[string][]string `yaml:"table_string_fields" json:"table_string_fields"`
	// ZeroAsNull lists string fields whose literal zero means "not set" (table -> fields).
	ZeroAsNull map[string][]string `yaml:"zero_as_null" json:"zero_as_null"`

	// FlagFields are integer-encoded booleans, in every table.
	FlagFields []string `yaml:"flag_fields" json:"flag_fields"`
	// FlagPrefixes marks every field starting with one of the prefixes as a flag.
	FlagPrefixes []string `yaml:"flag_prefixes" json:"flag_prefixes"`
	// TableFlagFields are flag fields for a single table only (table -> fields).
	TableFlagFields map[string][]string `yaml:"table_flag_fields" json:"table_flag_fields"`

	// DateSuffixes marks temporal fields by name suffix.
	DateSuffixes []string `yaml:"date_suffixes" json:"date_suffixes"`
	// DateExclusions are fields that carry a date suffix but hold no temporal value.
	DateExclusions []string `yaml:"date_exclusions" json:"date_exclusions"`
	// TimeZone is the zone legacy wall-clock values are written in.
	TimeZone string `yaml:"time_zone" json:"time_zone"`

	// DropFields are removed from the mapped output (table -> fields, "*" for every table).
	DropFields map[string][]string `yaml:"drop_fields" json:"drop_fields"`
}

// Kind classifies how a field is coerced.
type Kind int

const (
	// KindAuto passes values through, stringifying oversized integers.
	KindAuto Kind = iota
	// KindString always stringifies.
	KindString
	// KindFlag maps 0/1 encodings to bool.
	KindFlag
	// KindDate parses temporal values.
	KindDate
	// KindDropped removes the field from the output.
	KindDropped
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFlag:
		return "flag"
	case KindDate:
		return "date"
	case KindDropped:
		return "dropped"
	default:
		return "auto"
	}
}

type fieldSet map[string]struct{}

func newFieldSet(fields []string) fieldSet {
	s := make(fieldSet, len(fields))
	for _, f := range fields {
		s[strings.ToLower(f)] = struct{}{}
	}
	return s
}

func (s fieldSet) has(field string) bool {
	_, ok := s[field]
	return ok
}

func newTableSets(m map[string][]string) map[string]fieldSet {
	out := make(map[string]fieldSet, len(m))
	for table, fields := range m {
		out[table] = newFieldSet(fields)
	}
	return out
}

// compiled is the lookup form of Rules.
type compiled struct {
	stringFields   fieldSet
	stringSuffixes []string
	tableString    map[string]fieldSet
	zeroAsNull     map[string]fieldSet
	flagFields     fieldSet
	flagPrefixes   []string
	tableFlag      map[string]fieldSet
	dateSuffixes   []string
	dateExclusions fieldSet
	drop           map[string]fieldSet
	loc            *time.Location
}

func compile(r Rules) (*compiled, error) {
	loc := time.UTC
	if r.TimeZone != "" {
		l, err := time.LoadLocation(r.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("invalid time zone %q: %w", r.TimeZone, err)
		}
		loc = l
	}
	return &compiled{
		stringFields:   newFieldSet(r.StringFields),
		stringSuffixes: r.StringSuffixes,
		tableString:    newTableSets(r.TableStringFields),
		zeroAsNull:     newTableSets(r.ZeroAsNull),
		flagFields:     newFieldSet(r.FlagFields),
		flagPrefixes:   r.FlagPrefixes,
		tableFlag:      newTableSets(r.TableFlagFields),
		dateSuffixes:   r.DateSuffixes,
		dateExclusions: newFieldSet(r.DateExclusions),
		drop:           newTableSets(r.DropFields),
		loc:            loc,
	}, nil
}

func (c *compiled) classify(table, field string) Kind {
	if c.drop[table].has(field) || c.drop["*"].has(field) {
		return KindDropped
	}
	if c.stringFields.has(field) || c.tableString[table].has(field) || hasSuffix(field, c.stringSuffixes) {
		return KindString
	}
	if c.flagFields.has(field) || c.tableFlag[table].has(field) || hasPrefix(field, c.flagPrefixes) {
		return KindFlag
	}
	if !c.dateExclusions.has(field) && hasSuffix(field, c.dateSuffixes) {
		return KindDate
	}
	return KindAuto
}

func hasSuffix(field string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(field, s) {
			return true
		}
	}
	return false
}

func hasPrefix(field string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(field, p) {
			return true
		}
	}
	return false
}
