package recorder

import (
	"reflect"
	"sync"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
)

// DefaultDepth bounds how many levels of nested struct pointers a struct
// stand-in allocates.
const DefaultDepth = 4

// Registry knows how to create stand-ins. Struct types need no registration;
// interface types need a registered factory.
type Registry struct {
	mu       sync.RWMutex
	standIns map[reflect.Type]func(Trail) any
	depth    int
}

func NewRegistry() *Registry {
	return &Registry{
		standIns: make(map[reflect.Type]func(Trail) any),
		depth:    DefaultDepth,
	}
}

// SetDepth changes the allocation depth of struct stand-ins.
func (reg *Registry) SetDepth(depth int) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.depth = depth
}

// RegisterStandIn registers the stand-in factory for T.
func RegisterStandIn[T any](reg *Registry, factory func(Trail) T) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.standIns[reflect.TypeFor[T]()] = func(t Trail) any { return factory(t) }
}

func (reg *Registry) lookup(t reflect.Type) (func(Trail) any, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	f, ok := reg.standIns[t]
	return f, ok
}

// New creates a stand-in of type t and the recorder capturing reads on it.
// For a struct type S or *S the stand-in is a *S.
func (reg *Registry) New(t reflect.Type) (any, *Recorder, error) {
	reg.mu.RLock()
	depth := reg.depth
	reg.mu.RUnlock()

	rec := newRecorder(depth)
	standIn, err := reg.attach(rec, t)
	if err != nil {
		return nil, nil, err
	}
	return standIn, rec, nil
}

// Attach creates another stand-in recording into rec.
func (reg *Registry) Attach(rec *Recorder, t reflect.Type) (any, error) {
	return reg.attach(rec, t)
}

func (reg *Registry) attach(rec *Recorder, t reflect.Type) (any, error) {
	if factory, ok := reg.lookup(t); ok {
		return factory(Trail{rec: rec, reg: reg}), nil
	}
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return nil, faults.NewConfigurationError("recorder.New", t.String(),
			"no stand-in registered; register one with RegisterStandIn or use a struct type")
	}
	ptr := allocate(base, 0, rec.depth)
	rec.addRoot(ptr)
	return ptr.Interface(), nil
}

// For creates a stand-in of type T. Use a pointer type for structs:
// For[*Account].
func For[T any](reg *Registry) (T, *Recorder, error) {
	var zero T
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Struct {
		return zero, nil, faults.NewConfigurationError("recorder.For", t.String(),
			"struct stand-ins must be requested as pointers (For[*%s])", t.Name())
	}
	standIn, rec, err := reg.New(t)
	if err != nil {
		return zero, nil, err
	}
	return standIn.(T), rec, nil
}

func allocate(t reflect.Type, depth, maxDepth int) reflect.Value {
	ptr := reflect.New(t)
	fill(ptr.Elem(), depth, maxDepth)
	return ptr
}

func fill(v reflect.Value, depth, maxDepth int) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		fv := v.Field(i)
		ft := t.Field(i).Type
		switch {
		case ft.Kind() == reflect.Struct:
			fill(fv, depth, maxDepth)
		case !fv.CanSet():
		case ft.Kind() == reflect.Pointer && ft.Elem().Kind() == reflect.Struct && depth < maxDepth:
			fv.Set(allocate(ft.Elem(), depth+1, maxDepth))
		}
	}
}

// Trail is handed to interface stand-ins. Each recorded call extends the
// trail's path.
type Trail struct {
	rec  *Recorder
	reg  *Registry
	path AccessPath
}

func (t Trail) Path() AccessPath {
	return t.path
}

// Record captures a method call at the end of the trail and returns the
// extended trail.
func (t Trail) Record(name string, args ...any) Trail {
	next := t.path.Method(name, args...)
	t.rec.extend(t.path, next)
	return Trail{rec: t.rec, reg: t.reg, path: next}
}

// RecordField captures a field read at the end of the trail.
func (t Trail) RecordField(name string) Trail {
	next := t.path.Field(name)
	t.rec.extend(t.path, next)
	return Trail{rec: t.rec, reg: t.reg, path: next}
}

// Chain returns the registered stand-in for T continuing the trail, so calls on
// the result extend the same capture. Without a registered stand-in it returns
// the zero T.
func Chain[T any](t Trail) T {
	var zero T
	if t.reg == nil {
		return zero
	}
	factory, ok := t.reg.lookup(reflect.TypeFor[T]())
	if !ok {
		return zero
	}
	return factory(t).(T)
}
