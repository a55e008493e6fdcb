package query

import (
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/predicate"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/predicate/operators"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/recorder"
)

// Condition completes a Where, And or Or with a comparison.
type Condition[T any] struct {
	q       *Query[T]
	path    recorder.AccessPath
	element bool
	or      bool
}

func (c *Condition[T]) IsEqual(v any) *Query[T] {
	return c.compare(operators.OperatorEq, v)
}

func (c *Condition[T]) IsNotEqual(v any) *Query[T] {
	return c.compare(operators.OperatorNe, v)
}

func (c *Condition[T]) IsGreaterThan(v any) *Query[T] {
	return c.compare(operators.OperatorGt, v)
}

func (c *Condition[T]) IsGreaterOrEqual(v any) *Query[T] {
	return c.compare(operators.OperatorGte, v)
}

func (c *Condition[T]) IsLessThan(v any) *Query[T] {
	return c.compare(operators.OperatorLt, v)
}

func (c *Condition[T]) IsLessOrEqual(v any) *Query[T] {
	return c.compare(operators.OperatorLte, v)
}

func (c *Condition[T]) IsNull() *Query[T] {
	return c.compare(operators.OperatorIsNull, nil)
}

func (c *Condition[T]) IsNotNull() *Query[T] {
	return c.compare(operators.OperatorIsNotNull, nil)
}

// Compare applies an operator given at run time, e.g. parsed from a filter
// expression.
func (c *Condition[T]) Compare(op operators.Operator, v any) *Query[T] {
	return c.compare(op, v)
}

// Matches decides on the value read by the condition's path.
func (c *Condition[T]) Matches(fn func(value any) bool) *Query[T] {
	path, element := c.path, c.element
	node := predicate.Custom(func(candidate any) (bool, error) {
		if element {
			return fn(candidate), nil
		}
		v, err := recorder.Replay(path, candidate)
		if err != nil {
			return false, err
		}
		return fn(v), nil
	})
	return c.q.append(node, c.or)
}

func (c *Condition[T]) compare(op operators.Operator, v any) *Query[T] {
	if c.q.err != nil {
		return c.q
	}
	reg := c.q.sess.Operators()
	var (
		node predicate.Node
		err  error
	)
	if c.element {
		node, err = predicate.CompareLiteral(reg, op, v)
	} else {
		node, err = predicate.CompareReplayed(reg, c.path, op, v)
	}
	if err != nil {
		c.q.fail(err)
		return c.q
	}
	return c.q.append(node, c.or)
}
