package operators

type Operator string

const (
	// Comparison

	OperatorEq        Operator = "="
	OperatorNe        Operator = "!="
	OperatorGt        Operator = ">"
	OperatorGte       Operator = ">="
	OperatorLt        Operator = "<"
	OperatorLte       Operator = "<="
	OperatorIsNull    Operator = "IS NULL"
	OperatorIsNotNull Operator = "IS NOT NULL"

	// Logical

	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
	OperatorNot Operator = "NOT"
)

// IsOrdering reports whether op needs an ordered literal.
func (op Operator) IsOrdering() bool {
	switch op {
	case OperatorGt, OperatorGte, OperatorLt, OperatorLte:
		return true
	}
	return false
}

// IsNullCheck reports whether op ignores its literal.
func (op Operator) IsNullCheck() bool {
	return op == OperatorIsNull || op == OperatorIsNotNull
}

// Valid reports whether op is a comparison operator.
func (op Operator) Valid() bool {
	switch op {
	case OperatorEq, OperatorNe, OperatorGt, OperatorGte, OperatorLt, OperatorLte, OperatorIsNull, OperatorIsNotNull:
		return true
	}
	return false
}

// ParseOperator accepts the symbolic form and the short mnemonic
// (eq, ne, gt, ge, lt, le, null, notnull).
func ParseOperator(s string) (Operator, bool) {
	switch s {
	case "=", "==", "eq":
		return OperatorEq, true
	case "!=", "<>", "ne":
		return OperatorNe, true
	case ">", "gt":
		return OperatorGt, true
	case ">=", "ge", "gte":
		return OperatorGte, true
	case "<", "lt":
		return OperatorLt, true
	case "<=", "le", "lte":
		return OperatorLte, true
	case "IS NULL", "null", "isnull":
		return OperatorIsNull, true
	case "IS NOT NULL", "notnull", "isnotnull":
		return OperatorIsNotNull, true
	}
	return "", false
}

// Value objects take part in comparisons by implementing these interfaces.

type EqualOperand interface {
	Equal(other EqualOperand) bool
}

type GreaterThanOperand interface {
	GreaterThan(other GreaterThanOperand) bool
}

type GreaterThanEqualOperand interface {
	GreaterThanEqual(other GreaterThanEqualOperand) bool
}

type LessThanOperand interface {
	LessThan(other LessThanOperand) bool
}

type LessThanEqualOperand interface {
	LessThanEqual(other LessThanEqualOperand) bool
}
