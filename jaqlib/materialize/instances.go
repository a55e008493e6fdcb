package materialize

import (
	"reflect"
	"sync"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
)

// InstanceFactory allocates the target objects filled by the materializer.
type InstanceFactory interface {
	// NewInstance returns a new value for t: a pointer for struct types or
	// whatever the registered constructor produces.
	NewInstance(t reflect.Type) (reflect.Value, error)
}

// Instances uses registered constructors and falls back to reflect.New for
// struct types.
type Instances struct {
	mu    sync.RWMutex
	ctors map[reflect.Type]func() any
}

func NewInstances() *Instances {
	return &Instances{ctors: make(map[reflect.Type]func() any)}
}

// RegisterConstructor makes fn the constructor for T. For an interface T the
// constructor picks the concrete type.
func RegisterConstructor[T any](f *Instances, fn func() T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctors[reflect.TypeFor[T]()] = func() any { return fn() }
}

func (f *Instances) NewInstance(t reflect.Type) (reflect.Value, error) {
	f.mu.RLock()
	ctor, ok := f.ctors[t]
	if !ok && t.Kind() == reflect.Pointer {
		ctor, ok = f.ctors[t.Elem()]
	}
	f.mu.RUnlock()

	if ok {
		v := reflect.ValueOf(ctor())
		if !v.IsValid() {
			return reflect.Value{}, faults.NewMappingError(t.String(), "", "constructor returned nil")
		}
		if v.Kind() != reflect.Pointer {
			p := reflect.New(v.Type())
			p.Elem().Set(v)
			v = p
		}
		return v, nil
	}

	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return reflect.Value{}, faults.NewMappingError(t.String(), "", "type has no usable zero-argument constructor")
	}
	return reflect.New(base), nil
}
