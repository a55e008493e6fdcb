package operators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Money struct {
	amount   int
	currency string
}

func (m Money) Equal(other EqualOperand) bool {
	o, ok := other.(Money)
	if !ok {
		return false
	}
	return m.amount == o.amount && m.currency == o.currency
}

func (m Money) GreaterThan(other GreaterThanOperand) bool {
	o, ok := other.(Money)
	return ok && m.amount > o.amount
}

func (m Money) GreaterThanEqual(other GreaterThanEqualOperand) bool {
	o, ok := other.(Money)
	return ok && m.amount >= o.amount
}

func (m Money) LessThan(other LessThanOperand) bool {
	o, ok := other.(Money)
	return ok && m.amount < o.amount
}

func (m Money) LessThanEqual(other LessThanEqualOperand) bool {
	o, ok := other.(Money)
	return ok && m.amount <= o.amount
}

type grade int

type code string

func TestCompareBasicKinds(t *testing.T) {
	reg := NewDefaultRegistry()
	now := time.Now()

	tests := []struct {
		name  string
		left  any
		op    Operator
		right any
		want  bool
	}{
		{"int equal", 5, OperatorEq, 5, true},
		{"int and int64", int32(5), OperatorEq, int64(5), true},
		{"int and float", 5, OperatorEq, 5.0, true},
		{"float greater than int", 5.5, OperatorGt, 5, true},
		{"int less than float", 5, OperatorLt, 5.5, true},
		{"uint", uint8(7), OperatorGte, 7, true},
		{"named int", grade(3), OperatorLte, 2, false},
		{"named string", code("ab"), OperatorEq, "ab", true},
		{"string ordering", "apple", OperatorLt, "banana", true},
		{"bool", true, OperatorNe, false, true},
		{"duration", 2 * time.Second, OperatorGt, time.Second, true},
		{"time after", now.Add(time.Hour), OperatorGt, now, true},
		{"time equal across zones", now, OperatorEq, now.UTC(), true},
		{"time not before", now, OperatorGte, now, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Compare(tt.left, tt.op, tt.right)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareInterfaceFallback(t *testing.T) {
	reg := NewDefaultRegistry()

	tests := []struct {
		name  string
		left  Money
		op    Operator
		right Money
		want  bool
	}{
		{"equal", Money{100, "USD"}, OperatorEq, Money{100, "USD"}, true},
		{"currency differs", Money{100, "USD"}, OperatorEq, Money{100, "EUR"}, false},
		{"not equal", Money{100, "USD"}, OperatorNe, Money{200, "USD"}, true},
		{"100 > 50", Money{100, "USD"}, OperatorGt, Money{50, "USD"}, true},
		{"50 >= 100", Money{50, "USD"}, OperatorGte, Money{100, "USD"}, false},
		{"50 < 100", Money{50, "USD"}, OperatorLt, Money{100, "USD"}, true},
		{"100 <= 100", Money{100, "USD"}, OperatorLte, Money{100, "USD"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Compare(tt.left, tt.op, tt.right)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareFallsBackToDeepEquality(t *testing.T) {
	reg := NewDefaultRegistry()
	type point struct{ X, Y int }

	got, err := reg.Compare(point{1, 2}, OperatorEq, point{1, 2})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = reg.Compare([]int{1}, OperatorNe, []int{1})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestCompareUnsupportedOrdering(t *testing.T) {
	reg := NewDefaultRegistry()
	type point struct{ X, Y int }

	_, err := reg.Compare(point{1, 2}, OperatorGt, point{0, 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "point")

	_, err = reg.Compare("a", OperatorGt, 1)
	assert.Error(t, err)
}

func TestRegisterBinary(t *testing.T) {
	reg := NewOperatorRegistry()
	RegisterBinary(reg, OperatorGt, func(a, b Money) (bool, error) {
		return a.amount*10 > b.amount, nil
	})

	got, err := reg.Compare(Money{amount: 2}, OperatorGt, Money{amount: 15})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestOrderable(t *testing.T) {
	reg := NewDefaultRegistry()

	assert.True(t, reg.Orderable(5))
	assert.True(t, reg.Orderable(grade(1)))
	assert.True(t, reg.Orderable("x"))
	assert.True(t, reg.Orderable(time.Now()))
	assert.True(t, reg.Orderable(time.Minute))
	assert.True(t, reg.Orderable(Money{}))
	assert.False(t, reg.Orderable(true))
	assert.False(t, reg.Orderable(nil))
	assert.False(t, reg.Orderable(struct{}{}))

	n := 5
	var none *int
	assert.True(t, reg.Orderable(&n))
	assert.False(t, reg.Orderable(none))
}

func TestDeref(t *testing.T) {
	n := 5
	p := &n
	var none *int
	money := &Money{amount: 3}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"value", 5, 5},
		{"nil", nil, nil},
		{"pointer", p, 5},
		{"pointer to pointer", &p, 5},
		{"nil pointer", none, nil},
		{"pointer to nil pointer", &none, nil},
		{"struct pointer", money, Money{amount: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Deref(tt.in))
		})
	}
}

func TestIsNull(t *testing.T) {
	var p *Money
	var m map[string]int
	var e EqualOperand

	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(p))
	assert.True(t, IsNull(m))
	assert.True(t, IsNull(e))
	assert.False(t, IsNull(0))
	assert.False(t, IsNull(""))
	assert.False(t, IsNull(Money{}))
}

func TestParseOperator(t *testing.T) {
	for _, s := range []string{"=", "eq", "!=", "ne", ">", "gt", ">=", "ge", "<", "lt", "<=", "le", "null", "notnull"} {
		op, ok := ParseOperator(s)
		assert.True(t, ok, s)
		assert.True(t, op.Valid(), s)
	}
	_, ok := ParseOperator("~")
	assert.False(t, ok)
	assert.True(t, OperatorGt.IsOrdering())
	assert.False(t, OperatorEq.IsOrdering())
	assert.True(t, OperatorIsNotNull.IsNullCheck())
}
