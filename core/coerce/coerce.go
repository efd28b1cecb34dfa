package coerce

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"legacy-mirror/core/utils"
)

// FieldError reports a raw value the rule table cannot represent.
// The coercer never panics; the caller decides what an invalid value means.
type FieldError struct {
	Table  string
	Field  string
	Value  any
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %s (got %T %v)", e.Table, e.Field, e.Reason, e.Value, e.Value)
}

// Coercer converts raw source values into target-typed values.
// It is safe for concurrent use; all state is read-only after New.
type Coercer struct {
	rules Rules
	c     *compiled
}

// New compiles the rule table.
func New(rules Rules) (*Coercer, error) {
	c, err := compile(rules)
	if err != nil {
		return nil, err
	}
	return &Coercer{rules: rules, c: c}, nil
}

// Rules returns the rule table the coercer was built from.
func (co *Coercer) Rules() Rules {
	return co.rules
}

// Classify returns the coercion kind of table.field.
func (co *Coercer) Classify(table, field string) Kind {
	return co.c.classify(table, strings.ToLower(field))
}

// Location returns the zone legacy wall-clock values are read in.
func (co *Coercer) Location() *time.Location {
	return co.c.loc
}

// Time parses a raw or already coerced temporal value in the legacy zone.
func (co *Coercer) Time(val any) (time.Time, bool) {
	return ParseTime(utils.Unwrap(val), co.c.loc)
}

// Dropped reports whether table.field is excluded from the target schema.
func (co *Coercer) Dropped(table, field string) bool {
	return co.Classify(table, field) == KindDropped
}

// Coerce converts one raw value. Rules apply in order: null, string fields,
// flag fields, date fields, oversized integers, pass-through.
// Only an unrecognised flag encoding yields an error.
func (co *Coercer) Coerce(table, field string, raw any) (any, error) {
	field = strings.ToLower(field)
	val := utils.Unwrap(raw)
	if val == nil {
		return nil, nil
	}

	switch co.c.classify(table, field) {
	case KindDropped:
		return nil, nil
	case KindString:
		if co.c.zeroAsNull[table].has(field) && utils.IsZero(val) {
			return nil, nil
		}
		return stringify(val), nil
	case KindFlag:
		b, ok := utils.ToBool(val)
		if !ok {
			return nil, &FieldError{Table: table, Field: field, Value: val, Reason: "invalid flag value"}
		}
		return b, nil
	case KindDate:
		t, ok := ParseTime(val, co.c.loc)
		if !ok {
			return nil, nil
		}
		return t, nil
	}

	return passThrough(val), nil
}

// Revert produces the source representation of a coerced value.
// Coerce(Revert(v)) == v for every value Coerce can produce.
func (co *Coercer) Revert(table, field string, value any) any {
	if value == nil {
		return nil
	}
	switch co.Classify(table, field) {
	case KindFlag:
		if b, ok := value.(bool); ok {
			if b {
				return int64(1)
			}
			return int64(0)
		}
	case KindDate:
		if t, ok := value.(time.Time); ok {
			return t.In(co.c.loc).Format(time.DateTime)
		}
	case KindAuto:
		if s, ok := value.(string); ok {
			if n, ok := new(big.Int).SetString(s, 10); ok && !utils.IsSafeInteger(n) {
				if n.IsUint64() {
					return n.Uint64()
				}
				return n
			}
		}
	}
	return value
}

func stringify(val any) string {
	if n, ok := val.(*big.Int); ok {
		return n.String()
	}
	return utils.ToString(val)
}

// passThrough keeps values as they are, except integers outside the safe
// range, which become their exact decimal string.
func passThrough(val any) any {
	switch v := val.(type) {
	case int, int64, uint, uint64:
		n, _ := utils.BigInt(v)
		if !utils.IsSafeInteger(n) {
			return n.String()
		}
		if i, ok := utils.ToInt64(v); ok {
			return i
		}
	case *big.Int:
		if !utils.IsSafeInteger(v) {
			return v.String()
		}
		return v.Int64()
	case int8, int16, int32, uint8, uint16, uint32:
		i, _ := utils.ToInt64(v)
		return i
	}
	return val
}
