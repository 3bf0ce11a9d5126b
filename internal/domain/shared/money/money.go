package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is a non-negative amount in whole display units, matching how the car
// catalog stores prices as plain integers.
type Money int64

// Coerce converts a catalog value into Money. Catalog prices arrive as JSON or
// BSON numbers, or as strings typed into the admin console. Missing,
// non-numeric, non-finite and negative values become zero. A string must be
// a number as a whole: "300 EUR" is not read as 300.
func Coerce(v any) Money {
	switch n := v.(type) {
	case nil:
		return 0
	case Money:
		return clamp(int64(n))
	case int:
		return clamp(int64(n))
	case int32:
		return clamp(int64(n))
	case int64:
		return clamp(n)
	case uint:
		return fromUint(uint64(n))
	case uint32:
		return Money(n)
	case uint64:
		return fromUint(n)
	case float32:
		return fromFloat(float64(n))
	case float64:
		return fromFloat(n)
	case string:
		return parse(n)
	case []byte:
		return parse(string(n))
	case fmt.Stringer:
		return parse(n.String())
	default:
		return 0
	}
}

func parse(raw string) Money {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return clamp(v)
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return fromFloat(v)
	}
	return 0
}

func fromFloat(v float64) Money {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	if v >= math.MaxInt64 {
		return Money(math.MaxInt64)
	}
	return Money(int64(v))
}

func fromUint(v uint64) Money {
	if v > math.MaxInt64 {
		return Money(math.MaxInt64)
	}
	return Money(v)
}

func clamp(v int64) Money {
	if v < 0 {
		return 0
	}
	return Money(v)
}

// Multiply multiplies the amount by the provided factor. The product
// saturates at math.MaxInt64 and a non-positive factor yields zero.
func (m Money) Multiply(times int64) Money {
	if times <= 0 || m <= 0 {
		return 0
	}
	if m > Money(math.MaxInt64/times) {
		return Money(math.MaxInt64)
	}
	return m * Money(times)
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m == 0
}

func (m Money) Int64() int64 {
	return int64(m)
}

func (m Money) String() string {
	return strconv.FormatInt(int64(m), 10)
}
