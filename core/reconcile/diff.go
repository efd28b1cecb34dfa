package reconcile

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"legacy-mirror/core/coerce"
	"legacy-mirror/core/mapper"
	"legacy-mirror/core/utils"

	"github.com/google/go-cmp/cmp"
)

// Diff returns the fields of desired whose value differs from current.
// Only fields present in desired are compared, so columns managed locally
// never cause an update. Fields in exclude are ignored. Comparison is
// field by field and independent of map order.
func Diff(current, desired mapper.TargetRecord, exclude map[string]struct{}) mapper.TargetRecord {
	changes := make(mapper.TargetRecord)
	for field, want := range desired {
		if _, skip := exclude[field]; skip {
			continue
		}
		have, ok := current[field]
		if !ok || !Equal(have, want) {
			changes[field] = want
		}
	}
	return changes
}

// Equal compares a stored value with a mapped value after normalizing the
// representations drivers use for the same content: booleans stored as
// integers, integral floats, byte slices, timestamps in another zone or with
// sub-second precision, and numbers or timestamps read back as strings.
func Equal(stored, mapped any) bool {
	a, b := normalize(stored), normalize(mapped)
	if cmp.Equal(a, b) {
		return true
	}

	switch bv := b.(type) {
	case time.Time:
		if s, ok := a.(string); ok {
			if t, ok := coerce.ParseTime(s, time.UTC); ok {
				return t.Truncate(time.Second).Equal(bv)
			}
		}
	case string:
		if at, ok := a.(time.Time); ok {
			if t, ok := coerce.ParseTime(bv, time.UTC); ok {
				return t.Truncate(time.Second).Equal(at)
			}
		}
		if isNumber(a) {
			return numericEqual(a, bv)
		}
	case int64, float64:
		if s, ok := a.(string); ok {
			return numericEqual(b, s)
		}
		return numericEqual(a, b)
	}
	return false
}

func normalize(v any) any {
	v = utils.Unwrap(v)
	switch t := v.(type) {
	case nil:
		return nil
	case bool:
		if t {
			return int64(1)
		}
		return int64(0)
	case float32:
		return normalizeFloat(float64(t))
	case float64:
		return normalizeFloat(t)
	case time.Time:
		return t.UTC().Truncate(time.Second)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Truncate(time.Second)
	case *big.Int:
		if t.IsInt64() {
			return t.Int64()
		}
		return t.String()
	case string:
		return t
	}
	if i, ok := utils.ToInt64(v); ok {
		return i
	}
	if n, ok := utils.BigInt(v); ok {
		return n.String()
	}
	return v
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) <= utils.MaxSafeInteger {
		return int64(f)
	}
	return f
}

func isNumber(v any) bool {
	switch v.(type) {
	case int64, float64:
		return true
	}
	return false
}

// numericEqual compares numbers and numeric strings exactly ("1250.50" == 1250.5).
// Integers of any width compare as big.Int so identifiers beyond 2^53 never
// collapse onto a neighbour.
func numericEqual(a, b any) bool {
	if ia, ok := exactInt(a); ok {
		if ib, ok := exactInt(b); ok {
			return ia.Cmp(ib) == 0
		}
	}
	ra, ok := toRat(a)
	if !ok {
		return false
	}
	rb, ok := toRat(b)
	if !ok {
		return false
	}
	return ra.Cmp(rb) == 0
}

func exactInt(v any) (*big.Int, bool) {
	switch t := v.(type) {
	case int64:
		return big.NewInt(t), true
	case string:
		return utils.BigInt(t)
	}
	return nil, false
}

// toRat parses the decimal form of v. Floats use their shortest decimal
// representation, so 0.1 equals "0.1" rather than its binary expansion.
func toRat(v any) (*big.Rat, bool) {
	var s string
	switch t := v.(type) {
	case int64:
		return new(big.Rat).SetInt64(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, false
		}
		s = strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		s = strings.TrimSpace(t)
		if s == "" || strings.Contains(s, "/") {
			return nil, false
		}
	default:
		return nil, false
	}
	return new(big.Rat).SetString(s)
}
