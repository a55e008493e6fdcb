package operators

import (
	"cmp"
	"time"
)

func registerOrdered[T cmp.Ordered](reg *OperatorRegistry) {
	RegisterBinary[T, T](reg, OperatorEq, func(a, b T) (bool, error) { return a == b, nil })
	RegisterBinary[T, T](reg, OperatorNe, func(a, b T) (bool, error) { return a != b, nil })
	RegisterBinary[T, T](reg, OperatorGt, func(a, b T) (bool, error) { return a > b, nil })
	RegisterBinary[T, T](reg, OperatorGte, func(a, b T) (bool, error) { return a >= b, nil })
	RegisterBinary[T, T](reg, OperatorLt, func(a, b T) (bool, error) { return a < b, nil })
	RegisterBinary[T, T](reg, OperatorLte, func(a, b T) (bool, error) { return a <= b, nil })
}

// registerMixed compares L against R by widening both to float64.
func registerMixed[L, R int64 | float64](reg *OperatorRegistry) {
	RegisterBinary[L, R](reg, OperatorEq, func(a L, b R) (bool, error) { return float64(a) == float64(b), nil })
	RegisterBinary[L, R](reg, OperatorNe, func(a L, b R) (bool, error) { return float64(a) != float64(b), nil })
	RegisterBinary[L, R](reg, OperatorGt, func(a L, b R) (bool, error) { return float64(a) > float64(b), nil })
	RegisterBinary[L, R](reg, OperatorGte, func(a L, b R) (bool, error) { return float64(a) >= float64(b), nil })
	RegisterBinary[L, R](reg, OperatorLt, func(a L, b R) (bool, error) { return float64(a) < float64(b), nil })
	RegisterBinary[L, R](reg, OperatorLte, func(a L, b R) (bool, error) { return float64(a) <= float64(b), nil })
}

// NewDefaultRegistry creates a registry for the normalized basic kinds and
// time.Time.
func NewDefaultRegistry() *OperatorRegistry {
	reg := NewOperatorRegistry()

	RegisterBinary[bool, bool](reg, OperatorEq, func(a, b bool) (bool, error) { return a == b, nil })
	RegisterBinary[bool, bool](reg, OperatorNe, func(a, b bool) (bool, error) { return a != b, nil })

	registerOrdered[int64](reg)
	registerOrdered[float64](reg)
	registerOrdered[string](reg)
	registerMixed[int64, float64](reg)
	registerMixed[float64, int64](reg)

	RegisterBinary[time.Time, time.Time](reg, OperatorEq, func(a, b time.Time) (bool, error) { return a.Equal(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OperatorNe, func(a, b time.Time) (bool, error) { return !a.Equal(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OperatorGt, func(a, b time.Time) (bool, error) { return a.After(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OperatorGte, func(a, b time.Time) (bool, error) { return !a.Before(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OperatorLt, func(a, b time.Time) (bool, error) { return a.Before(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OperatorLte, func(a, b time.Time) (bool, error) { return !a.After(b), nil })

	return reg
}
