package utils

import (
	"database/sql/driver"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// MaxSafeInteger is the largest integer a float64-backed consumer (JSON
// dashboards, spreadsheet exports) can hold without losing precision.
const MaxSafeInteger = 1<<53 - 1

// Unwrap resolves driver.Valuer wrappers (sql.NullString, sql.NullInt64, ...)
// and raw byte slices into plain Go values.
func Unwrap(val any) any {
	if val == nil {
		return nil
	}
	if valuer, ok := val.(driver.Valuer); ok {
		v, err := valuer.Value()
		if err != nil {
			return nil
		}
		val = v
	}
	switch v := val.(type) {
	case []byte:
		if v == nil {
			return nil
		}
		return string(v)
	case *string:
		if v == nil {
			return nil
		}
		return *v
	case *int64:
		if v == nil {
			return nil
		}
		return *v
	}
	return val
}

// ToInt64 converts integer-like values to int64 using explicit type switching.
// The second return value is false when the value is not an integer or does
// not fit into an int64.
func ToInt64(val any) (int64, bool) {
	switch v := val.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint8:
		return int64(v), true
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 || v < math.MinInt64 {
			return 0, false
		}
		return int64(v), true
	case float32:
		return ToInt64(float64(v))
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	case []byte:
		return ToInt64(string(v))
	default:
		return 0, false
	}
}

// BigInt returns the exact integer value of val when it is an integer of any
// width, including decimal strings longer than 64 bits.
func BigInt(val any) (*big.Int, bool) {
	switch v := val.(type) {
	case uint64:
		return new(big.Int).SetUint64(v), true
	case uint:
		return new(big.Int).SetUint64(uint64(v)), true
	case *big.Int:
		if v == nil {
			return nil, false
		}
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, false
		}
		n, ok := new(big.Int).SetString(s, 10)
		return n, ok
	case []byte:
		return BigInt(string(v))
	}
	if i, ok := ToInt64(val); ok {
		return big.NewInt(i), true
	}
	return nil, false
}

// IsSafeInteger reports whether n fits in the float64 exact-integer range.
func IsSafeInteger(n *big.Int) bool {
	return n.IsInt64() && n.Int64() <= MaxSafeInteger && n.Int64() >= -MaxSafeInteger
}

// ToString converts various types to string.
// Floats are rendered without exponent so that large identifiers survive.
func ToString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case *big.Int:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool converts legacy flag encodings to bool.
// It accepts bool, the integers 0 and 1 and the strings "0", "1", "true" and
// "false". The second return value is false for anything else.
func ToBool(val any) (bool, bool) {
	switch v := val.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true":
			return true, true
		case "0", "false":
			return false, true
		}
		return false, false
	case []byte:
		return ToBool(string(v))
	}
	if i, ok := ToInt64(val); ok {
		switch i {
		case 0:
			return false, true
		case 1:
			return true, true
		}
	}
	return false, false
}

// IsZero reports whether val is a literal numeric zero (or its string form).
func IsZero(val any) bool {
	if i, ok := ToInt64(val); ok {
		return i == 0
	}
	if s, ok := val.(string); ok {
		s = strings.TrimSpace(s)
		return s == "0" || s == "0.0" || s == "0.00"
	}
	return false
}
