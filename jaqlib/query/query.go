// Package query is the fluent surface over fetch, predicate and recorder:
//
//	acc, rec, err := query.StandIn[*Account](sess)
//	rich, err := query.Select[Account](sess).
//		From(src).
//		Where(rec.Field(&acc.Balance)).IsGreaterThan(5000).
//		And(rec.Field(&acc.Owner.Name)).IsNotNull().
//		AsList(ctx)
//
// Conditions are appended left-associatively: a, AND b, OR c means
// (a AND b) OR c. Building errors are kept and returned by the terminal call.
package query

import (
	"context"
	"reflect"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/cursor"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/fetch"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/materialize"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/predicate"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/recorder"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/session"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/signals"
)

// StandIn creates a recording stand-in from the session's recorder registry.
func StandIn[S any](sess *session.Session) (S, *recorder.Recorder, error) {
	if sess == nil {
		sess = session.Default()
	}
	return recorder.For[S](sess.Recorders())
}

// Select starts a query for targets of type T. A nil session selects
// session.Default().
func Select[T any](sess *session.Session) *Query[T] {
	if sess == nil {
		sess = session.Default()
	}
	return &Query[T]{
		sess:    sess,
		skipped: signals.NewSignal[materialize.FieldSkipped](),
	}
}

type Query[T any] struct {
	sess     *session.Session
	source   cursor.Source
	tree     *mapping.Tree
	cached   bool
	pred     predicate.Builder
	strategy fetch.Strategy
	skipped  *signals.SignalImp[materialize.FieldSkipped]
	err      error
}

// Skipped carries the fields this query leaves unset in lenient mode.
// Observers of the session's Skipped signal are notified as well.
func (q *Query[T]) Skipped() signals.Signal[materialize.FieldSkipped] {
	return q.skipped
}

func (q *Query[T]) From(src cursor.Source) *Query[T] {
	q.source = src
	q.strategy = nil
	return q
}

// Using replaces the convention-derived mapping tree.
func (q *Query[T]) Using(tree *mapping.Tree) *Query[T] {
	q.tree = tree
	q.strategy = nil
	return q
}

// Cached makes the query read its source once; later terminal calls filter
// the cached candidates.
func (q *Query[T]) Cached() *Query[T] {
	q.cached = true
	q.strategy = nil
	return q
}

func (q *Query[T]) Where(p recorder.Pending) *Condition[T] {
	return q.condition(p, false)
}

// WhereElement compares the candidate itself.
func (q *Query[T]) WhereElement() *Condition[T] {
	return &Condition[T]{q: q, element: true}
}

func (q *Query[T]) WhereFunc(fn func(T) bool) *Query[T] {
	return q.append(custom(fn), false)
}

func (q *Query[T]) And(p recorder.Pending) *Condition[T] {
	return q.condition(p, false)
}

func (q *Query[T]) AndElement() *Condition[T] {
	return &Condition[T]{q: q, element: true}
}

func (q *Query[T]) AndFunc(fn func(T) bool) *Query[T] {
	return q.append(custom(fn), false)
}

func (q *Query[T]) Or(p recorder.Pending) *Condition[T] {
	return q.condition(p, true)
}

func (q *Query[T]) OrElement() *Condition[T] {
	return &Condition[T]{q: q, element: true, or: true}
}

func (q *Query[T]) OrFunc(fn func(T) bool) *Query[T] {
	return q.append(custom(fn), true)
}

// Predicate returns the condition built so far.
func (q *Query[T]) Predicate() (predicate.Node, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.pred.Build(), nil
}

func (q *Query[T]) condition(p recorder.Pending, or bool) *Condition[T] {
	c := &Condition[T]{q: q, or: or}
	if p == nil {
		q.fail(faults.NewConfigurationError("query.Where", "", "no recorder given"))
		return c
	}
	path, ok, err := p.Recorder().ConsumeCurrentPath()
	switch {
	case err != nil:
		q.fail(err)
	case !ok:
		q.fail(faults.NewConfigurationError("query.Where", "", "no member read was captured"))
	}
	c.path = path
	return c
}

func (q *Query[T]) append(n predicate.Node, or bool) *Query[T] {
	if or {
		q.pred.Or(n)
	} else {
		q.pred.And(n)
	}
	return q
}

func (q *Query[T]) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

func custom[T any](fn func(T) bool) predicate.Node {
	return predicate.Custom(func(candidate any) (bool, error) {
		v, err := fetch.Adapt[T](candidate)
		if err != nil {
			return false, err
		}
		return fn(v), nil
	})
}

func (q *Query[T]) resolveStrategy() (fetch.Strategy, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.strategy != nil {
		return q.strategy, nil
	}
	if q.source == nil {
		return nil, faults.NewConfigurationError("query.From", reflect.TypeFor[T]().String(), "no source given")
	}
	tree := q.tree
	if tree == nil && isStruct(reflect.TypeFor[T]()) {
		var err error
		if tree, err = q.sess.Trees().Get(reflect.TypeFor[T]()); err != nil {
			return nil, err
		}
	}
	skipped := signals.NewCompositeSignal[materialize.FieldSkipped](q.sess.Skipped(), q.skipped)
	plain := fetch.NewPlain(q.source, tree,
		fetch.WithMaterializer(q.sess.Materializer(materialize.WithSkipped(skipped))),
		fetch.WithRegistry(q.sess.Operators()),
		fetch.WithLogger(q.sess.Logger()),
	)
	if q.cached {
		q.strategy = fetch.NewCaching(plain)
	} else {
		q.strategy = plain
	}
	return q.strategy, nil
}

func isStruct(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func (q *Query[T]) run(ctx context.Context, shape string, c fetch.Collector[T]) error {
	strategy, err := q.resolveStrategy()
	if err != nil {
		return err
	}
	node := q.pred.Build()
	err = strategy.Fetch(ctx, node, fetch.Into[T](c))
	q.sess.Logger().Debug("query finished",
		"type", reflect.TypeFor[T]().String(),
		"shape", shape,
		"predicate", predicate.Format(node),
		"error", err,
	)
	return err
}
