// Package convert turns raw backend values into typed target values.
//
// A Registry maps a target reflect.Type to the ValueConverter responsible for
// it. Converters for named types with a basic underlying kind (type Status string)
// are derived from the converter registered for the underlying kind.
package convert

import (
	"reflect"
	"sync"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
)

// ValueConverter converts a raw backend value into one of its supported target types.
type ValueConverter interface {
	Convert(raw any) (any, error)
	SupportedTargetTypes() []reflect.Type
}

// Reverter is implemented by converters that also serve write paths.
type Reverter interface {
	Revert(target any) (any, error)
}

type typedConverter[T any] struct {
	convert func(any) (T, error)
	revert  func(T) (any, error)
}

func (c typedConverter[T]) Convert(raw any) (any, error) {
	return c.convert(raw)
}

func (c typedConverter[T]) SupportedTargetTypes() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[T]()}
}

func (c typedConverter[T]) Revert(target any) (any, error) {
	typed, ok := target.(T)
	if !ok {
		return nil, faults.NewConversionError(target, reflect.TypeFor[T]().String(), nil)
	}
	if c.revert == nil {
		return typed, nil
	}
	return c.revert(typed)
}

// New wraps a typed conversion function as a ValueConverter.
func New[T any](fn func(raw any) (T, error)) ValueConverter {
	return typedConverter[T]{convert: fn}
}

// NewReversible wraps a conversion function and its write-path inverse.
func NewReversible[T any](fn func(raw any) (T, error), revert func(T) (any, error)) ValueConverter {
	return typedConverter[T]{convert: fn, revert: revert}
}

type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]ValueConverter
	named  map[string]ValueConverter
}

func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]ValueConverter),
		named:  make(map[string]ValueConverter),
	}
}

// Register binds the converter to every type it reports as supported.
// A later registration for the same type replaces the earlier one.
func (r *Registry) Register(c ValueConverter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range c.SupportedTargetTypes() {
		r.byType[t] = c
	}
}

// Register binds fn as the converter for T.
func Register[T any](r *Registry, fn func(raw any) (T, error)) {
	r.Register(New(fn))
}

// RegisterNamed makes a converter addressable by name from declared mappings.
func (r *Registry) RegisterNamed(name string, c ValueConverter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.named[name] = c
}

// Named looks up a converter registered with RegisterNamed.
func (r *Registry) Named(name string) (ValueConverter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.named[name]
	return c, ok
}

// Has reports whether Lookup would find a converter for t.
func (r *Registry) Has(t reflect.Type) bool {
	_, ok := r.Lookup(t)
	return ok
}

// Lookup returns the converter for t, falling back to the converter of t's
// underlying basic kind for named types.
func (r *Registry) Lookup(t reflect.Type) (ValueConverter, bool) {
	r.mu.RLock()
	c, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return c, true
	}
	base, ok := basicTypes[t.Kind()]
	if !ok || base == t {
		return nil, false
	}
	r.mu.RLock()
	c, ok = r.byType[base]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return kindConverter{base: c, target: t}, true
}

// Convert converts raw to target using the registered converter, or returns raw
// unchanged when it is already assignable to target.
// A nil raw value converts to the zero value of target.
func (r *Registry) Convert(raw any, target reflect.Type) (any, error) {
	if raw == nil {
		return reflect.Zero(target).Interface(), nil
	}
	if c, ok := r.Lookup(target); ok {
		return c.Convert(raw)
	}
	return Identity(raw, target)
}

// Identity accepts raw only if it is assignable to target.
func Identity(raw any, target reflect.Type) (any, error) {
	if raw == nil {
		return reflect.Zero(target).Interface(), nil
	}
	if reflect.TypeOf(raw).AssignableTo(target) {
		return raw, nil
	}
	return nil, faults.NewConversionError(raw, target.String(), nil)
}

var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeFor[bool](),
	reflect.String:  reflect.TypeFor[string](),
	reflect.Int:     reflect.TypeFor[int](),
	reflect.Int8:    reflect.TypeFor[int8](),
	reflect.Int16:   reflect.TypeFor[int16](),
	reflect.Int32:   reflect.TypeFor[int32](),
	reflect.Int64:   reflect.TypeFor[int64](),
	reflect.Uint:    reflect.TypeFor[uint](),
	reflect.Uint8:   reflect.TypeFor[uint8](),
	reflect.Uint16:  reflect.TypeFor[uint16](),
	reflect.Uint32:  reflect.TypeFor[uint32](),
	reflect.Uint64:  reflect.TypeFor[uint64](),
	reflect.Float32: reflect.TypeFor[float32](),
	reflect.Float64: reflect.TypeFor[float64](),
}

// kindConverter adapts a basic-kind converter to a named type of that kind.
type kindConverter struct {
	base   ValueConverter
	target reflect.Type
}

func (c kindConverter) Convert(raw any) (any, error) {
	v, err := c.base.Convert(raw)
	if err != nil {
		return nil, err
	}
	return reflect.ValueOf(v).Convert(c.target).Interface(), nil
}

func (c kindConverter) SupportedTargetTypes() []reflect.Type {
	return []reflect.Type{c.target}
}
