package math

import (
	real_math "math"

	"golang.org/x/exp/constraints"
)

// Number is a constraint that permits any integer or floating point type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Min returns the smallest of the provided values.
func Min[T constraints.Ordered](first T, rest ...T) T {
	result := first
	for _, v := range rest {
		if v < result {
			result = v
		}
	}
	return result
}

// IsIntegral reports whether x holds a whole number. Integer types always do;
// floats must be finite and have no fractional part.
func IsIntegral[T Number](x T) bool {
	f := float64(x)
	if real_math.IsNaN(f) || real_math.IsInf(f, 0) {
		return false
	}
	return f == real_math.Trunc(f)
}
