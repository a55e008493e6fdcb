package predicate

import (
	"fmt"
	"strings"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/predicate/operators"
)

// Format renders node for logs and error messages, with explicit parentheses
// around every compound operand.
func Format(node Node) string {
	if node == nil {
		return "TRUE"
	}
	v := &formatVisitor{}
	_ = node.Accept(v)
	return v.sb.String()
}

type formatVisitor struct {
	sb strings.Builder
}

func (v *formatVisitor) VisitCustom(n CustomNode) error {
	if n.label != "" {
		v.sb.WriteString(n.label)
		return nil
	}
	v.sb.WriteString("<custom>")
	return nil
}

func (v *formatVisitor) VisitCompareLiteral(n CompareLiteralNode) error {
	v.comparison("@", n.operator, n.literal)
	return nil
}

func (v *formatVisitor) VisitCompareReplayed(n CompareReplayedNode) error {
	subject := n.path.String()
	if subject == "" {
		subject = "@"
	}
	v.comparison(subject, n.operator, n.literal)
	return nil
}

func (v *formatVisitor) comparison(subject string, op operators.Operator, literal any) {
	if op.IsNullCheck() {
		fmt.Fprintf(&v.sb, "%s %s", subject, op)
		return
	}
	fmt.Fprintf(&v.sb, "%s %s %#v", subject, op, literal)
}

func (v *formatVisitor) VisitInfix(n InfixNode) error {
	v.operand(n.left)
	fmt.Fprintf(&v.sb, " %s ", n.operator)
	v.operand(n.right)
	return nil
}

func (v *formatVisitor) VisitPrefix(n PrefixNode) error {
	fmt.Fprintf(&v.sb, "%s ", n.operator)
	v.operand(n.operand)
	return nil
}

func (v *formatVisitor) operand(n Node) {
	switch n.(type) {
	case InfixNode, PrefixNode:
		v.sb.WriteString("(")
		_ = n.Accept(v)
		v.sb.WriteString(")")
	default:
		_ = n.Accept(v)
	}
}
