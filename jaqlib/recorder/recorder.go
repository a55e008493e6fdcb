// Package recorder captures member access paths on stand-in objects and
// replays them on real instances.
//
// Struct stand-ins are ordinary *T values; a read is captured by passing the
// address of the field:
//
//	acc, rec, err := recorder.For[*Account](reg)
//	q.Where(rec.Field(&acc.Owner.Name)).IsEqual("Ann")
//
// Interface stand-ins are generated (see recordergen) and capture each method
// call; the call's zero result is handed over with rec.Of:
//
//	q.Where(rec.Of(acc.Balance())).IsGreaterThan(5000)
//
// A Recorder is not safe for concurrent use.
package recorder

import (
	"reflect"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
)

// Pending is a capture handed to a builder, which consumes it from the
// recorder's queue.
type Pending interface {
	Recorder() *Recorder
}

type Recorder struct {
	pending []AccessPath
	roots   []reflect.Value
	err     error
	depth   int
}

func newRecorder(depth int) *Recorder {
	return &Recorder{depth: depth}
}

func (r *Recorder) Recorder() *Recorder {
	return r
}

// Field captures the path of the stand-in field whose address is ptr.
func (r *Recorder) Field(ptr any) Pending {
	v := reflect.ValueOf(ptr)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		r.fail(faults.NewConfigurationError("Recorder.Field", typeName(ptr), "expected the address of a stand-in field"))
		return r
	}
	addr, typ := v.Pointer(), v.Type().Elem()
	for _, root := range r.roots {
		if root.Pointer() == addr && root.Type().Elem() == typ {
			r.capture(AccessPath{})
			return r
		}
		if steps, ok := find(root.Elem(), addr, typ, nil, 0, r.depth); ok {
			r.capture(AccessPath{steps: steps})
			return r
		}
	}
	r.fail(faults.NewConfigurationError("Recorder.Field", typ.String(), "address does not belong to a stand-in of this recorder"))
	return r
}

// Of hands over the capture made by a call on an interface stand-in. The
// argument is the call's (ignored) result.
func (r *Recorder) Of(any) Pending {
	return r
}

// Named captures a path of field reads given by name.
func (r *Recorder) Named(names ...string) Pending {
	r.capture(Fields(names...))
	return r
}

// Path captures an explicit path.
func (r *Recorder) Path(p AccessPath) Pending {
	r.capture(p)
	return r
}

// PendingCount returns the number of captures not yet consumed.
func (r *Recorder) PendingCount() int {
	return len(r.pending)
}

// ConsumeCurrentPath removes and returns the pending capture. ok is false when
// nothing was captured. More than one pending capture is ambiguous: the queue
// is reset and a ConfigurationError returned.
func (r *Recorder) ConsumeCurrentPath() (AccessPath, bool, error) {
	if r.err != nil {
		err := r.err
		r.reset()
		return AccessPath{}, false, err
	}
	switch len(r.pending) {
	case 0:
		return AccessPath{}, false, nil
	case 1:
		p := r.pending[0]
		r.pending = r.pending[:0]
		return p, true, nil
	}
	paths := make([]string, len(r.pending))
	for i, p := range r.pending {
		paths[i] = p.String()
	}
	r.reset()
	return AccessPath{}, false, faults.NewConfigurationError("ConsumeCurrentPath", "",
		"%d member reads captured (%v) where one was expected", len(paths), paths)
}

func (r *Recorder) capture(p AccessPath) {
	r.pending = append(r.pending, p)
}

// extend replaces the last pending capture when it is the prefix of p, so a
// chained call a.Owner().Name() yields a single capture.
func (r *Recorder) extend(prefix, p AccessPath) {
	if n := len(r.pending); n > 0 && !prefix.IsEmpty() && r.pending[n-1].Equal(prefix) {
		r.pending[n-1] = p
		return
	}
	r.capture(p)
}

func (r *Recorder) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Recorder) reset() {
	r.pending = r.pending[:0]
	r.err = nil
}

func (r *Recorder) addRoot(ptr reflect.Value) {
	r.roots = append(r.roots, ptr)
}

// find searches the struct value v for the field at addr of type typ.
// Embedded structs add no step; their fields are reached by promotion.
func find(v reflect.Value, addr uintptr, typ reflect.Type, prefix []Step, depth, maxDepth int) ([]Step, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() && !sf.Anonymous {
			continue
		}
		fv := v.Field(i)
		path := prefix
		if !sf.Anonymous || sf.IsExported() {
			path = append(append(make([]Step, 0, len(prefix)+1), prefix...), Step{Kind: StepField, Name: sf.Name})
		}
		if fv.UnsafeAddr() == addr && sf.Type == typ {
			return path, true
		}
		next := path
		if sf.Anonymous {
			next = prefix
		}
		switch {
		case sf.Type.Kind() == reflect.Struct:
			if steps, ok := find(fv, addr, typ, next, depth, maxDepth); ok {
				return steps, true
			}
		case sf.Type.Kind() == reflect.Pointer && sf.Type.Elem().Kind() == reflect.Struct && !fv.IsNil() && depth < maxDepth:
			if fv.Pointer() == addr && sf.Type.Elem() == typ {
				return path, true
			}
			if steps, ok := find(fv.Elem(), addr, typ, next, depth+1, maxDepth); ok {
				return steps, true
			}
		}
	}
	return nil, false
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
