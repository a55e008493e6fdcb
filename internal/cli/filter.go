package cli

import (
	"reflect"
	"strings"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/convert"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/predicate/operators"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/query"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/recorder"
)

// filter is one --where condition: "Balance > 100", "Owner.City = 'Graz'",
// "Email null".
type filter struct {
	path    []string
	op      operators.Operator
	literal any
}

func parseFilter(expr string) (filter, error) {
	parts := strings.Fields(expr)
	if len(parts) < 2 {
		return filter{}, faults.NewConfigurationError("jaq query", expr, "filter must read <field> <operator> [<value>]")
	}
	op, ok := operators.ParseOperator(parts[1])
	if !ok {
		return filter{}, faults.NewConfigurationError("jaq query", expr, "unknown operator %q", parts[1])
	}
	f := filter{path: strings.Split(parts[0], "."), op: op}
	switch {
	case op.IsNullCheck() && len(parts) == 2:
		return f, nil
	case op.IsNullCheck():
		return filter{}, faults.NewConfigurationError("jaq query", expr, "operator %s takes no value", op)
	case len(parts) == 2:
		return filter{}, faults.NewConfigurationError("jaq query", expr, "operator %s needs a value", op)
	}
	f.literal = unquote(strings.Join(parts[2:], " "))
	return f, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// typed converts the literal to the type of the field it is compared with.
func (f filter) typed(record reflect.Type, reg *convert.Registry) (filter, error) {
	t, err := fieldType(record, f.path)
	if err != nil {
		return f, err
	}
	if f.literal == nil {
		return f, nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Struct {
		return f, faults.NewConfigurationError("jaq query", strings.Join(f.path, "."), "collections cannot be compared")
	}
	v, err := reg.Convert(f.literal, t)
	if err != nil {
		return f, err
	}
	f.literal = v
	return f, nil
}

// apply appends the filters to q, joined by AND or, with or set, by OR.
func apply(q *query.Query[any], rec *recorder.Recorder, filters []filter, or bool) *query.Query[any] {
	for i, f := range filters {
		p := rec.Named(f.path...)
		switch {
		case i == 0:
			q = q.Where(p).Compare(f.op, f.literal)
		case or:
			q = q.Or(p).Compare(f.op, f.literal)
		default:
			q = q.And(p).Compare(f.op, f.literal)
		}
	}
	return q
}
