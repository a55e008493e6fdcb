package operators

import (
	"fmt"
	"math"
	"reflect"
	"sync"
)

type BinaryOp func(left, right any) (bool, error)

type binaryKey struct {
	left  reflect.Type
	op    Operator
	right reflect.Type
}

// OperatorRegistry resolves comparison operators by operand types. Basic kinds
// are normalized first (named integer types to int64, floats to float64, named
// strings to string), so mixed numeric operands compare numerically.
type OperatorRegistry struct {
	mu     sync.RWMutex
	binary map[binaryKey]BinaryOp
}

func NewOperatorRegistry() *OperatorRegistry {
	return &OperatorRegistry{
		binary: make(map[binaryKey]BinaryOp),
	}
}

func RegisterBinary[L, R any](reg *OperatorRegistry, op Operator, fn func(L, R) (bool, error)) {
	key := binaryKey{
		left:  reflect.TypeFor[L](),
		op:    op,
		right: reflect.TypeFor[R](),
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.binary[key] = func(left, right any) (bool, error) {
		return fn(left.(L), right.(R))
	}
}

// Compare applies op to non-null operands. Equality falls back to
// EqualOperand and then to deep equality; ordering falls back to the ordering
// operand interfaces and fails otherwise.
func (r *OperatorRegistry) Compare(left any, op Operator, right any) (bool, error) {
	l, rr := normalize(left), normalize(right)
	if fn, ok := r.lookup(l, op, rr); ok {
		return fn(l, rr)
	}
	if fn := interfaceFallback(left, op, right); fn != nil {
		return fn(left, right)
	}
	switch op {
	case OperatorEq:
		return reflect.DeepEqual(left, right), nil
	case OperatorNe:
		return !reflect.DeepEqual(left, right), nil
	}
	return false, fmt.Errorf("operator \"%s\" is not supported for %T and %T", op, left, right)
}

// Orderable reports whether values of v's type support the ordering operators.
func (r *OperatorRegistry) Orderable(v any) bool {
	v = Deref(v)
	if IsNull(v) {
		return false
	}
	n := normalize(v)
	if _, ok := r.lookup(n, OperatorGt, n); ok {
		return true
	}
	switch v.(type) {
	case GreaterThanOperand, GreaterThanEqualOperand, LessThanOperand, LessThanEqualOperand:
		return true
	}
	return false
}

func (r *OperatorRegistry) lookup(left any, op Operator, right any) (BinaryOp, bool) {
	key := binaryKey{
		left:  reflect.TypeOf(left),
		op:    op,
		right: reflect.TypeOf(right),
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.binary[key]
	return fn, ok
}

func interfaceFallback(left any, op Operator, right any) BinaryOp {
	switch op {
	case OperatorEq, OperatorNe:
		l, lok := left.(EqualOperand)
		r, rok := right.(EqualOperand)
		if lok && rok {
			return func(any, any) (bool, error) {
				return l.Equal(r) == (op == OperatorEq), nil
			}
		}
	case OperatorGt:
		l, lok := left.(GreaterThanOperand)
		r, rok := right.(GreaterThanOperand)
		if lok && rok {
			return func(any, any) (bool, error) { return l.GreaterThan(r), nil }
		}
	case OperatorGte:
		l, lok := left.(GreaterThanEqualOperand)
		r, rok := right.(GreaterThanEqualOperand)
		if lok && rok {
			return func(any, any) (bool, error) { return l.GreaterThanEqual(r), nil }
		}
	case OperatorLt:
		l, lok := left.(LessThanOperand)
		r, rok := right.(LessThanOperand)
		if lok && rok {
			return func(any, any) (bool, error) { return l.LessThan(r), nil }
		}
	case OperatorLte:
		l, lok := left.(LessThanEqualOperand)
		r, rok := right.(LessThanEqualOperand)
		if lok && rok {
			return func(any, any) (bool, error) { return l.LessThanEqual(r), nil }
		}
	}
	return nil
}

// IsNull reports whether v is nil or a nil pointer, interface, map, slice,
// channel or function.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// Deref strips pointer levels from v, so a nullable *int field compares as
// its int. A nil anywhere in the chain yields nil.
func Deref(v any) any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer {
		return v
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

// normalize maps values of basic kinds to int64, float64, string or bool, so
// time.Duration compares as int64 too. Unsigned values beyond the int64 range
// become float64.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return float64(u)
		}
		return int64(u)
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return v
}
