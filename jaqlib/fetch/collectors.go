package fetch

import (
	"reflect"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/option"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/recorder"
)

// Collector shapes the matches of one fetch. Add returns false once the
// collector needs no further matches.
type Collector[T any] interface {
	Add(item T) (more bool, err error)
}

// CandidateCollector takes candidates before they are adapted to T. Into
// prefers it over Add.
type CandidateCollector interface {
	AddCandidate(candidate any) (more bool, err error)
}

// Into adapts every candidate to T before handing it to c.
func Into[T any](c Collector[T]) Sink {
	if raw, ok := c.(CandidateCollector); ok {
		return raw.AddCandidate
	}
	return func(candidate any) (bool, error) {
		item, err := Adapt[T](candidate)
		if err != nil {
			return false, err
		}
		return c.Add(item)
	}
}

// List keeps every match in encounter order, duplicates and nulls included.
type List[T any] struct {
	items []T
}

func (c *List[T]) Add(item T) (bool, error) {
	c.items = append(c.items, item)
	return true, nil
}

// Result returns the matches; never nil.
func (c *List[T]) Result() []T {
	if c.items == nil {
		return []T{}
	}
	return c.items
}

// Set keeps the first of each group of equal matches. Pointers are compared
// by the values they point to.
type Set[T any] struct {
	distinct distinct
	items    []T
}

func (c *Set[T]) Add(item T) (bool, error) {
	if c.distinct.add(item) {
		c.items = append(c.items, item)
	}
	return true, nil
}

func (c *Set[T]) Result() []T {
	if c.items == nil {
		return []T{}
	}
	return c.items
}

// NewMap creates a collector keyed by the value key replays on each match.
// A later match replaces an earlier one with the same key.
func NewMap[T any](key recorder.AccessPath) *Map[T] {
	return &Map[T]{key: key, items: make(map[any]T)}
}

type Map[T any] struct {
	key   recorder.AccessPath
	items map[any]T
}

func (c *Map[T]) Add(item T) (bool, error) {
	return c.AddCandidate(item)
}

// AddCandidate replays the key on the candidate before adapting it, so a null
// candidate is stored under the nil key.
func (c *Map[T]) AddCandidate(candidate any) (bool, error) {
	k, err := recorder.Replay(c.key, candidate)
	if err != nil {
		return false, err
	}
	if k != nil && !reflect.ValueOf(k).Comparable() {
		return false, faults.NewConfigurationError("fetch.Map", c.key.String(), "key of type %T is not comparable", k)
	}
	item, err := Adapt[T](candidate)
	if err != nil {
		return false, err
	}
	c.items[k] = item
	return true, nil
}

func (c *Map[T]) Result() map[any]T {
	return c.items
}

// Unique expects at most one match. It keeps counting past the second match
// so the error reports the total.
type Unique[T any] struct {
	item  T
	count int
}

func (c *Unique[T]) Add(item T) (bool, error) {
	c.count++
	if c.count == 1 {
		c.item = item
	}
	return true, nil
}

func (c *Unique[T]) Result() (option.Option[T], error) {
	switch c.count {
	case 0:
		return option.None[T](), nil
	case 1:
		return option.Some(c.item), nil
	}
	return option.None[T](), &faults.QueryResultError{Shape: "unique", Count: c.count}
}

// First stops the fetch at the first match.
type First[T any] struct {
	item  T
	found bool
}

func (c *First[T]) Add(item T) (bool, error) {
	c.item = item
	c.found = true
	return false, nil
}

func (c *First[T]) Result() option.Option[T] {
	if !c.found {
		return option.None[T]()
	}
	return option.Some(c.item)
}

type Last[T any] struct {
	item  T
	found bool
}

func (c *Last[T]) Add(item T) (bool, error) {
	c.item = item
	c.found = true
	return true, nil
}

func (c *Last[T]) Result() option.Option[T] {
	if !c.found {
		return option.None[T]()
	}
	return option.Some(c.item)
}

type Count[T any] struct {
	n int
}

func (c *Count[T]) Add(T) (bool, error) {
	c.n++
	return true, nil
}

// AddCandidate counts null candidates too, whatever T is.
func (c *Count[T]) AddCandidate(any) (bool, error) {
	c.n++
	return true, nil
}

func (c *Count[T]) Result() int {
	return c.n
}

type CountDistinct[T any] struct {
	distinct distinct
}

func (c *CountDistinct[T]) Add(item T) (bool, error) {
	c.distinct.add(item)
	return true, nil
}

func (c *CountDistinct[T]) AddCandidate(candidate any) (bool, error) {
	c.distinct.add(candidate)
	return true, nil
}

func (c *CountDistinct[T]) Result() int {
	return c.distinct.len()
}

// ForEach runs task once per match; the first error aborts the fetch.
type ForEach[T any] func(item T) error

func (f ForEach[T]) Add(item T) (bool, error) {
	if err := f(item); err != nil {
		return false, err
	}
	return true, nil
}

// distinct tracks values by equality. Comparable values are hashed, the rest
// are compared with reflect.DeepEqual.
type distinct struct {
	hashed map[any]struct{}
	others []any
}

func (d *distinct) add(item any) bool {
	v := identity(item)
	if v == nil || reflect.ValueOf(v).Comparable() {
		if d.hashed == nil {
			d.hashed = make(map[any]struct{})
		}
		if _, ok := d.hashed[v]; ok {
			return false
		}
		d.hashed[v] = struct{}{}
		return true
	}
	for _, o := range d.others {
		if reflect.DeepEqual(o, v) {
			return false
		}
	}
	d.others = append(d.others, v)
	return true
}

func (d *distinct) len() int {
	return len(d.hashed) + len(d.others)
}

// identity dereferences pointers so that two materialized objects with equal
// fields count as equal.
func identity(item any) any {
	v := reflect.ValueOf(item)
	if !v.IsValid() {
		return nil
	}
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}
