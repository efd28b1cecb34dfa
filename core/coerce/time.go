package coerce

import (
	"strings"
	"time"

	"legacy-mirror/core/utils"
)

// layouts the legacy system is known to write, most specific first.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	time.DateTime,
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	time.DateOnly,
	"2006/01/02",
	"20060102",
}

// epoch values below this are treated as garbage rather than 1970 timestamps.
const minEpoch = 86400

// ParseTime normalises a raw temporal value to UTC.
// Zero dates ("0000-00-00", time.Time{}) and unparsable input report false.
func ParseTime(val any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch v := val.(type) {
	case time.Time:
		if v.IsZero() || v.Year() <= 1 {
			return time.Time{}, false
		}
		return v.UTC(), true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return ParseTime(*v, loc)
	case string:
		return parseString(v, loc)
	case []byte:
		return parseString(string(v), loc)
	}

	if secs, ok := utils.ToInt64(val); ok && secs >= minEpoch {
		return time.Unix(secs, 0).UTC(), true
	}
	return time.Time{}, false
}

func parseString(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "0000-00-00") || strings.HasPrefix(s, "0000/00/00") {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
