// Package predicate holds the filter tree evaluated against each candidate of
// a query.
package predicate

import (
	"fmt"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/predicate/operators"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/recorder"
)

type Node interface {
	Accept(Visitor) error
}

type Visitor interface {
	VisitCustom(CustomNode) error
	VisitCompareLiteral(CompareLiteralNode) error
	VisitCompareReplayed(CompareReplayedNode) error
	VisitInfix(InfixNode) error
	VisitPrefix(PrefixNode) error
}

// Func decides a candidate on its own.
type Func func(candidate any) (bool, error)

func Custom(fn Func) CustomNode {
	return CustomNode{fn: fn}
}

// True matches every candidate.
func True() CustomNode {
	return CustomNode{
		fn:    func(any) (bool, error) { return true, nil },
		label: "TRUE",
	}
}

type CustomNode struct {
	fn    Func
	label string
}

func (n CustomNode) Func() Func {
	return n.fn
}

func (n CustomNode) Accept(v Visitor) error {
	return v.VisitCustom(n)
}

// CompareLiteral compares the candidate itself with literal. Ordering
// operators are rejected when literal is nil or of a type reg cannot order.
func CompareLiteral(reg *operators.OperatorRegistry, op operators.Operator, literal any) (CompareLiteralNode, error) {
	if err := validate(reg, op, literal); err != nil {
		return CompareLiteralNode{}, err
	}
	return CompareLiteralNode{operator: op, literal: literal}, nil
}

type CompareLiteralNode struct {
	operator operators.Operator
	literal  any
}

func (n CompareLiteralNode) Operator() operators.Operator {
	return n.operator
}

func (n CompareLiteralNode) Literal() any {
	return n.literal
}

func (n CompareLiteralNode) Accept(v Visitor) error {
	return v.VisitCompareLiteral(n)
}

// CompareReplayed replays path on the candidate and compares the result with
// literal.
func CompareReplayed(reg *operators.OperatorRegistry, path recorder.AccessPath, op operators.Operator, literal any) (CompareReplayedNode, error) {
	if err := validate(reg, op, literal); err != nil {
		return CompareReplayedNode{}, err
	}
	return CompareReplayedNode{path: path, operator: op, literal: literal}, nil
}

type CompareReplayedNode struct {
	path     recorder.AccessPath
	operator operators.Operator
	literal  any
}

func (n CompareReplayedNode) Path() recorder.AccessPath {
	return n.path
}

func (n CompareReplayedNode) Operator() operators.Operator {
	return n.operator
}

func (n CompareReplayedNode) Literal() any {
	return n.literal
}

func (n CompareReplayedNode) Accept(v Visitor) error {
	return v.VisitCompareReplayed(n)
}

func validate(reg *operators.OperatorRegistry, op operators.Operator, literal any) error {
	if !op.Valid() {
		return faults.NewConfigurationError("predicate.Compare", string(op), "not a comparison operator")
	}
	if !op.IsOrdering() {
		return nil
	}
	if operators.IsNull(literal) {
		return faults.NewConfigurationError("predicate.Compare", string(op), "ordering against a nil literal")
	}
	if !reg.Orderable(literal) {
		return faults.NewConfigurationError("predicate.Compare", fmt.Sprintf("%T", literal),
			"values of this type have no ordering for %q", op)
	}
	return nil
}

func And(left Node, rights ...Node) InfixNode {
	left, right := foldRights(And, left, rights...)
	return InfixNode{
		left:     left,
		operator: operators.OperatorAnd,
		right:    right,
	}
}

func Or(left Node, rights ...Node) InfixNode {
	left, right := foldRights(Or, left, rights...)
	return InfixNode{
		left:     left,
		operator: operators.OperatorOr,
		right:    right,
	}
}

func foldRights(
	aCallable func(Node, ...Node) InfixNode,
	aLeft Node,
	aRights ...Node,
) (left, right Node) {
	for len(aRights) > 1 {
		aLeft = aCallable(aLeft, aRights[0])
		aRights = aRights[1:]
	}
	return aLeft, aRights[0]
}

type InfixNode struct {
	left     Node
	operator operators.Operator
	right    Node
}

func (n InfixNode) Left() Node {
	return n.left
}

func (n InfixNode) Operator() operators.Operator {
	return n.operator
}

func (n InfixNode) Right() Node {
	return n.right
}

func (n InfixNode) Accept(v Visitor) error {
	return v.VisitInfix(n)
}

func Not(operand Node) PrefixNode {
	return PrefixNode{
		operator: operators.OperatorNot,
		operand:  operand,
	}
}

type PrefixNode struct {
	operator operators.Operator
	operand  Node
}

func (n PrefixNode) Operand() Node {
	return n.operand
}

func (n PrefixNode) Operator() operators.Operator {
	return n.operator
}

func (n PrefixNode) Accept(v Visitor) error {
	return v.VisitPrefix(n)
}
