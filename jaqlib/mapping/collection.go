package mapping

import (
	"container/list"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
)

// Kind is the abstract shape of a collection field.
type Kind int

const (
	KindList Kind = iota
	KindSet
	KindQueue
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindQueue:
		return "queue"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "list", "slice":
		return KindList, nil
	case "set":
		return KindSet, nil
	case "queue", "deque":
		return KindQueue, nil
	}
	return KindList, faults.NewConfigurationError("ParseKind", s, "unknown collection kind")
}

var listType = reflect.TypeFor[*list.List]()

// KindOf infers the collection kind from a concrete field type. Slices are lists,
// maps to struct{} or bool are sets and *list.List is a queue.
func KindOf(t reflect.Type) (Kind, bool) {
	switch {
	case t == listType:
		return KindQueue, true
	case t.Kind() == reflect.Slice:
		return KindList, true
	case t.Kind() == reflect.Map && isSetValue(t.Elem()):
		return KindSet, true
	}
	return KindList, false
}

func isSetValue(t reflect.Type) bool {
	return t.Kind() == reflect.Bool || (t.Kind() == reflect.Struct && t.NumField() == 0)
}

// Collection accumulates materialized elements.
type Collection interface {
	Append(elem reflect.Value) error
	Value() reflect.Value
}

// CollectionFactory instantiates collections for fields declared as interfaces.
type CollectionFactory interface {
	NewInstance(declared reflect.Type, kind Kind, elem reflect.Type) (Collection, error)
}

// DefaultCollections creates []E for lists, map[E]struct{} for sets and
// *list.List for queues. Individual kinds may be overridden.
type DefaultCollections struct {
	mu        sync.RWMutex
	overrides map[Kind]func(elem reflect.Type) Collection
}

func NewDefaultCollections() *DefaultCollections {
	return &DefaultCollections{
		overrides: make(map[Kind]func(elem reflect.Type) Collection),
	}
}

func (f *DefaultCollections) Override(kind Kind, fn func(elem reflect.Type) Collection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[kind] = fn
}

func (f *DefaultCollections) NewInstance(declared reflect.Type, kind Kind, elem reflect.Type) (Collection, error) {
	f.mu.RLock()
	fn, ok := f.overrides[kind]
	f.mu.RUnlock()

	var c Collection
	if ok {
		c = fn(elem)
	} else {
		var err error
		switch kind {
		case KindList:
			c = NewSliceCollection(reflect.SliceOf(elem))
		case KindSet:
			c, err = NewSetCollection(reflect.MapOf(elem, reflect.TypeFor[struct{}]()))
		case KindQueue:
			c = NewQueueCollection()
		default:
			err = faults.NewMappingError(declared.String(), "", "no collection for kind %s", kind)
		}
		if err != nil {
			return nil, err
		}
	}
	if !c.Value().Type().AssignableTo(declared) {
		return nil, faults.NewMappingError(declared.String(), "",
			"collection of type %s for kind %s is not assignable", c.Value().Type(), kind)
	}
	return c, nil
}

// Instantiate creates the collection for a declared field type. Concrete slice,
// set-map and *list.List types are created directly, interfaces go through the
// factory.
func Instantiate(declared reflect.Type, kind Kind, elem reflect.Type, factory CollectionFactory) (Collection, error) {
	if declared.Kind() == reflect.Interface {
		if factory == nil {
			factory = NewDefaultCollections()
		}
		return factory.NewInstance(declared, kind, elem)
	}
	switch {
	case declared == listType:
		return NewQueueCollection(), nil
	case declared.Kind() == reflect.Slice:
		return NewSliceCollection(declared), nil
	case declared.Kind() == reflect.Map && isSetValue(declared.Elem()):
		return NewSetCollection(declared)
	}
	return nil, faults.NewMappingError(declared.String(), "", "unsupported collection type")
}

type sliceCollection struct {
	v reflect.Value
}

func NewSliceCollection(t reflect.Type) Collection {
	return &sliceCollection{v: reflect.MakeSlice(t, 0, 0)}
}

func (c *sliceCollection) Append(elem reflect.Value) error {
	elem, err := fit(elem, c.v.Type().Elem())
	if err != nil {
		return err
	}
	c.v = reflect.Append(c.v, elem)
	return nil
}

func (c *sliceCollection) Value() reflect.Value {
	return c.v
}

type setCollection struct {
	m      reflect.Value
	member reflect.Value
}

func NewSetCollection(t reflect.Type) (Collection, error) {
	if !t.Key().Comparable() {
		return nil, faults.NewMappingError(t.String(), "", "set element type %s is not comparable", t.Key())
	}
	member := reflect.New(t.Elem()).Elem()
	if t.Elem().Kind() == reflect.Bool {
		member.SetBool(true)
	}
	return &setCollection{m: reflect.MakeMap(t), member: member}, nil
}

func (c *setCollection) Append(elem reflect.Value) error {
	elem, err := fit(elem, c.m.Type().Key())
	if err != nil {
		return err
	}
	c.m.SetMapIndex(elem, c.member)
	return nil
}

func (c *setCollection) Value() reflect.Value {
	return c.m
}

type queueCollection struct {
	l *list.List
}

func NewQueueCollection() Collection {
	return &queueCollection{l: list.New()}
}

func (c *queueCollection) Append(elem reflect.Value) error {
	c.l.PushBack(elem.Interface())
	return nil
}

func (c *queueCollection) Value() reflect.Value {
	return reflect.ValueOf(c.l)
}

// fit adapts an element to the stored type, taking the address or dereferencing
// a pointer when that is the only difference.
func fit(elem reflect.Value, want reflect.Type) (reflect.Value, error) {
	switch {
	case elem.Type().AssignableTo(want):
		return elem, nil
	case elem.Kind() == reflect.Pointer && elem.Type().Elem().AssignableTo(want):
		if elem.IsNil() {
			return reflect.Zero(want), nil
		}
		return elem.Elem(), nil
	case reflect.PointerTo(elem.Type()).AssignableTo(want):
		p := reflect.New(elem.Type())
		p.Elem().Set(elem)
		return p, nil
	}
	return reflect.Value{}, faults.NewMappingError(want.String(), "", "cannot store element of type %s", elem.Type())
}
