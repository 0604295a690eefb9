package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Rational is a numerator/denominator pair as stored in EXIF RATIONAL fields.
type Rational struct {
	Num int64
	Den int64
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// ToFloat converts a numeric-ish value into a float64.
//
// Accepted shapes:
//   - Rational, *big.Rat
//   - a string "a/b" or any float-parsable string
//   - a two-element slice or array of numbers (numerator, denominator)
//   - Go integer and float types, json.Number
//   - anything implementing fmt.Stringer whose text is one of the above
//
// A zero denominator yields the numerator unchanged. This is a compatibility
// fallback rather than a meaningful ratio; callers reading such values should
// treat them with suspicion.
//
// ok is false for nil, wrong shapes, non-numeric text and non-finite results.
func ToFloat(value any) (f float64, ok bool) {
	f, ok = toFloat(value)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Ptr is ToFloat returning nil on failure.
func Ptr(value any) *float64 {
	f, ok := ToFloat(value)
	if !ok {
		return nil
	}
	return &f
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case Rational:
		return ratio(float64(v.Num), float64(v.Den)), true
	case *Rational:
		if v == nil {
			return 0, false
		}
		return ratio(float64(v.Num), float64(v.Den)), true
	case *big.Rat:
		if v == nil {
			return 0, false
		}
		f, _ := v.Float64()
		return f, true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		return parseString(string(v))
	case string:
		return parseString(v)
	case []any:
		if len(v) != 2 {
			return 0, false
		}
		return pair(v[0], v[1])
	case []int64:
		if len(v) != 2 {
			return 0, false
		}
		return ratio(float64(v[0]), float64(v[1])), true
	case []float64:
		if len(v) != 2 {
			return 0, false
		}
		return ratio(v[0], v[1]), true
	case [2]int64:
		return ratio(float64(v[0]), float64(v[1])), true
	case [2]float64:
		return ratio(v[0], v[1]), true
	case fmt.Stringer:
		return parseString(v.String())
	default:
		return 0, false
	}
}

func pair(a, b any) (float64, bool) {
	num, ok := toFloat(a)
	if !ok {
		return 0, false
	}
	den, ok := toFloat(b)
	if !ok {
		return 0, false
	}
	return ratio(num, den), true
}

func parseString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if a, b, found := strings.Cut(s, "/"); found {
		num, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
		if err != nil {
			return 0, false
		}
		den, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if err != nil {
			return 0, false
		}
		return ratio(num, den), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return num
	}
	return num / den
}
