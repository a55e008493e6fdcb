package recorder

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

var errorType = reflect.TypeFor[error]()

// Replay performs the reads of path on instance and returns the final value.
// A nil value met before the last step yields nil.
func Replay(path AccessPath, instance any) (any, error) {
	v := reflect.ValueOf(instance)
	for _, step := range path.steps {
		if isNil(v) {
			return nil, nil
		}
		var err error
		switch step.Kind {
		case StepField:
			v, err = readField(v, step.Name)
		case StepMethod:
			v, err = call(v, step.Name, step.Args)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "replay %s on %T", path, instance)
		}
	}
	if isNil(v) {
		return nil, nil
	}
	return v.Interface(), nil
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func readField(v reflect.Value, name string) (reflect.Value, error) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, nil
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String {
		return v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key())), nil
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("cannot read field %s of %s", name, v.Type())
	}
	sf, ok := v.Type().FieldByName(name)
	if !ok || !sf.IsExported() {
		return reflect.Value{}, fmt.Errorf("%s has no exported field %s", v.Type(), name)
	}
	f, err := v.FieldByIndexErr(sf.Index)
	if err != nil {
		return reflect.Value{}, nil
	}
	return f, nil
}

func call(v reflect.Value, name string, args []any) (reflect.Value, error) {
	m := v.MethodByName(name)
	if !m.IsValid() && v.Kind() != reflect.Pointer && v.CanAddr() {
		m = v.Addr().MethodByName(name)
	}
	if !m.IsValid() && v.Kind() == reflect.Interface {
		return call(v.Elem(), name, args)
	}
	if !m.IsValid() {
		return reflect.Value{}, fmt.Errorf("%s has no method %s", v.Type(), name)
	}
	mt := m.Type()
	if mt.IsVariadic() || mt.NumIn() != len(args) {
		return reflect.Value{}, fmt.Errorf("method %s expects %d arguments, recorded %d", name, mt.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		want := mt.In(i)
		if a == nil {
			in[i] = reflect.Zero(want)
			continue
		}
		av := reflect.ValueOf(a)
		switch {
		case av.Type().AssignableTo(want):
			in[i] = av
		case av.Type().ConvertibleTo(want):
			in[i] = av.Convert(want)
		default:
			return reflect.Value{}, fmt.Errorf("argument %d of %s: %s is not assignable to %s", i, name, av.Type(), want)
		}
	}

	out := m.Call(in)
	switch {
	case len(out) == 0:
		return reflect.Value{}, fmt.Errorf("method %s returns no value", name)
	case len(out) == 2 && mt.Out(1) == errorType:
		if !out[1].IsNil() {
			return reflect.Value{}, out[1].Interface().(error)
		}
	case len(out) > 1:
		return reflect.Value{}, fmt.Errorf("method %s returns %d values", name, len(out))
	}
	return out[0], nil
}
