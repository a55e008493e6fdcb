package recorder

import (
	"fmt"
	"strings"
)

type StepKind int

const (
	StepField StepKind = iota
	StepMethod
)

// Step is one read of an access path: a struct field or a method call.
type Step struct {
	Kind StepKind
	Name string
	Args []any
}

func (s Step) String() string {
	if s.Kind == StepField {
		return s.Name
	}
	args := make([]string, len(s.Args))
	for i, a := range s.Args {
		args[i] = fmt.Sprintf("%v", a)
	}
	return s.Name + "(" + strings.Join(args, ", ") + ")"
}

// AccessPath is an ordered chain of reads from a root object.
// The empty path denotes the root itself.
type AccessPath struct {
	steps []Step
}

// Fields builds a path of field reads by name.
func Fields(names ...string) AccessPath {
	steps := make([]Step, 0, len(names))
	for _, n := range names {
		steps = append(steps, Step{Kind: StepField, Name: n})
	}
	return AccessPath{steps: steps}
}

func (p AccessPath) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

func (p AccessPath) Len() int {
	return len(p.steps)
}

func (p AccessPath) IsEmpty() bool {
	return len(p.steps) == 0
}

// Field returns a copy of p extended by a field read.
func (p AccessPath) Field(name string) AccessPath {
	return p.with(Step{Kind: StepField, Name: name})
}

// Method returns a copy of p extended by a method call.
func (p AccessPath) Method(name string, args ...any) AccessPath {
	return p.with(Step{Kind: StepMethod, Name: name, Args: args})
}

func (p AccessPath) with(s Step) AccessPath {
	steps := make([]Step, len(p.steps), len(p.steps)+1)
	copy(steps, p.steps)
	return AccessPath{steps: append(steps, s)}
}

// Equal compares step kinds, names and argument count and values.
func (p AccessPath) Equal(o AccessPath) bool {
	if len(p.steps) != len(o.steps) {
		return false
	}
	for i, s := range p.steps {
		t := o.steps[i]
		if s.Kind != t.Kind || s.Name != t.Name || len(s.Args) != len(t.Args) {
			return false
		}
		for j := range s.Args {
			if fmt.Sprint(s.Args[j]) != fmt.Sprint(t.Args[j]) {
				return false
			}
		}
	}
	return true
}

func (p AccessPath) String() string {
	parts := make([]string, len(p.steps))
	for i, s := range p.steps {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}
