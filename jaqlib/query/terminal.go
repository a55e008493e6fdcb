package query

import (
	"context"
	"reflect"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/fetch"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/option"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/recorder"
)

// AsList returns every match in encounter order.
func (q *Query[T]) AsList(ctx context.Context) ([]T, error) {
	c := &fetch.List[T]{}
	if err := q.run(ctx, "list", c); err != nil {
		return nil, err
	}
	return c.Result(), nil
}

// AsSet returns the distinct matches, keeping the first of equal ones.
func (q *Query[T]) AsSet(ctx context.Context) ([]T, error) {
	c := &fetch.Set[T]{}
	if err := q.run(ctx, "set", c); err != nil {
		return nil, err
	}
	return c.Result(), nil
}

// AsMap keys every match by the value key reads from it. A later match
// replaces an earlier one with the same key.
func (q *Query[T]) AsMap(ctx context.Context, key recorder.Pending) (map[any]T, error) {
	path, err := q.keyPath(key)
	if err != nil {
		return nil, err
	}
	c := fetch.NewMap[T](path)
	if err := q.run(ctx, "map", c); err != nil {
		return nil, err
	}
	return c.Result(), nil
}

// MapOf is AsMap with typed keys. Keys are converted to K; a nil key becomes
// the zero K.
func MapOf[K comparable, T any](ctx context.Context, q *Query[T], key recorder.Pending) (map[K]T, error) {
	raw, err := q.AsMap(ctx, key)
	if err != nil {
		return nil, err
	}
	kt := reflect.TypeFor[K]()
	out := make(map[K]T, len(raw))
	for k, v := range raw {
		if k == nil {
			var zero K
			out[zero] = v
			continue
		}
		if typed, ok := k.(K); ok {
			out[typed] = v
			continue
		}
		converted, err := q.sess.Converters().Convert(k, kt)
		if err != nil {
			return nil, err
		}
		typed, ok := converted.(K)
		if !ok {
			return nil, faults.NewConversionError(k, kt.String(), nil)
		}
		out[typed] = v
	}
	return out, nil
}

// AsUnique returns the only match, none for no match, and a QueryResultError
// for more than one.
func (q *Query[T]) AsUnique(ctx context.Context) (option.Option[T], error) {
	c := &fetch.Unique[T]{}
	if err := q.run(ctx, "unique", c); err != nil {
		return option.None[T](), err
	}
	return c.Result()
}

// AsFirst stops reading at the first match.
func (q *Query[T]) AsFirst(ctx context.Context) (option.Option[T], error) {
	c := &fetch.First[T]{}
	if err := q.run(ctx, "first", c); err != nil {
		return option.None[T](), err
	}
	return c.Result(), nil
}

func (q *Query[T]) AsLast(ctx context.Context) (option.Option[T], error) {
	c := &fetch.Last[T]{}
	if err := q.run(ctx, "last", c); err != nil {
		return option.None[T](), err
	}
	return c.Result(), nil
}

func (q *Query[T]) Count(ctx context.Context) (int, error) {
	c := &fetch.Count[T]{}
	if err := q.run(ctx, "count", c); err != nil {
		return 0, err
	}
	return c.Result(), nil
}

func (q *Query[T]) CountDistinct(ctx context.Context) (int, error) {
	c := &fetch.CountDistinct[T]{}
	if err := q.run(ctx, "count distinct", c); err != nil {
		return 0, err
	}
	return c.Result(), nil
}

// ForEach runs task for every match in encounter order. The first task error
// stops the query and is returned.
func (q *Query[T]) ForEach(ctx context.Context, task func(T) error) error {
	return q.run(ctx, "for each", fetch.ForEach[T](task))
}

func (q *Query[T]) keyPath(key recorder.Pending) (recorder.AccessPath, error) {
	if q.err != nil {
		return recorder.AccessPath{}, q.err
	}
	if key == nil {
		return recorder.AccessPath{}, faults.NewConfigurationError("query.AsMap", "", "no recorder given")
	}
	path, ok, err := key.Recorder().ConsumeCurrentPath()
	if err != nil {
		return recorder.AccessPath{}, err
	}
	if !ok {
		return recorder.AccessPath{}, faults.NewConfigurationError("query.AsMap", "", "no key read was captured")
	}
	return path, nil
}
