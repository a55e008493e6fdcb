package predicate

import (
	"fmt"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/predicate/operators"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/recorder"
)

// Evaluate decides whether candidate matches node. And and Or short-circuit.
func Evaluate(node Node, candidate any, reg *operators.OperatorRegistry) (bool, error) {
	v := NewEvaluateVisitor(candidate, reg)
	if err := node.Accept(v); err != nil {
		return false, err
	}
	return v.Result(), nil
}

func NewEvaluateVisitor(candidate any, registry *operators.OperatorRegistry) *EvaluateVisitor {
	return &EvaluateVisitor{
		candidate: candidate,
		registry:  registry,
	}
}

type EvaluateVisitor struct {
	candidate any
	result    bool
	registry  *operators.OperatorRegistry
}

func (v *EvaluateVisitor) Result() bool {
	return v.result
}

func (v *EvaluateVisitor) VisitCustom(n CustomNode) error {
	result, err := n.fn(v.candidate)
	if err != nil {
		return err
	}
	v.result = result
	return nil
}

func (v *EvaluateVisitor) VisitCompareLiteral(n CompareLiteralNode) error {
	result, err := Compare(v.registry, v.candidate, n.operator, n.literal)
	if err != nil {
		return err
	}
	v.result = result
	return nil
}

func (v *EvaluateVisitor) VisitCompareReplayed(n CompareReplayedNode) error {
	value, err := recorder.Replay(n.path, v.candidate)
	if err != nil {
		return err
	}
	result, err := Compare(v.registry, value, n.operator, n.literal)
	if err != nil {
		return err
	}
	v.result = result
	return nil
}

func (v *EvaluateVisitor) VisitInfix(n InfixNode) error {
	if err := n.left.Accept(v); err != nil {
		return err
	}
	switch n.operator {
	case operators.OperatorAnd:
		if !v.result {
			return nil
		}
	case operators.OperatorOr:
		if v.result {
			return nil
		}
	default:
		return fmt.Errorf("unsupported logical operator \"%s\"", n.operator)
	}
	return n.right.Accept(v)
}

func (v *EvaluateVisitor) VisitPrefix(n PrefixNode) error {
	if err := n.operand.Accept(v); err != nil {
		return err
	}
	if n.operator != operators.OperatorNot {
		return fmt.Errorf("unsupported prefix operator \"%s\"", n.operator)
	}
	v.result = !v.result
	return nil
}

// Compare applies op to value and literal after stripping pointer levels from
// both. A null value only satisfies IS NULL. Against a non-null value a nil
// literal is never equal and always not equal.
func Compare(reg *operators.OperatorRegistry, value any, op operators.Operator, literal any) (bool, error) {
	value, literal = operators.Deref(value), operators.Deref(literal)
	if operators.IsNull(value) {
		return op == operators.OperatorIsNull, nil
	}
	switch op {
	case operators.OperatorIsNull:
		return false, nil
	case operators.OperatorIsNotNull:
		return true, nil
	}
	if operators.IsNull(literal) {
		return op == operators.OperatorNe, nil
	}
	result, err := reg.Compare(value, op, literal)
	if err != nil {
		return false, &faults.ConfigurationError{
			Op:      "predicate.Evaluate",
			Subject: fmt.Sprintf("%T %s %T", value, op, literal),
			Err:     err,
		}
	}
	return result, nil
}
