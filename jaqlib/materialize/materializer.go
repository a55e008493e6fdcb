// Package materialize builds target objects from the current cursor record
// following a mapping tree.
package materialize

import (
	"log/slog"
	"reflect"

	"github.com/pkg/errors"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/convert"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/cursor"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/signals"
)

type Materializer struct {
	converters  *convert.Registry
	instances   InstanceFactory
	collections mapping.CollectionFactory
	strict      bool
	skipped     signals.Signal[FieldSkipped]
	logger      *slog.Logger
}

type Option func(*Materializer)

// WithStrict makes a field missing at the source fail with a DataSourceQueryError
// instead of leaving the target field unset.
func WithStrict(strict bool) Option {
	return func(m *Materializer) {
		m.strict = strict
	}
}

func WithConverters(r *convert.Registry) Option {
	return func(m *Materializer) {
		m.converters = r
	}
}

func WithInstances(f InstanceFactory) Option {
	return func(m *Materializer) {
		m.instances = f
	}
}

func WithCollections(f mapping.CollectionFactory) Option {
	return func(m *Materializer) {
		m.collections = f
	}
}

// WithSkipped publishes lenient-mode skips to s.
func WithSkipped(s signals.Signal[FieldSkipped]) Option {
	return func(m *Materializer) {
		m.skipped = s
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Materializer) {
		m.logger = l
	}
}

func New(opts ...Option) *Materializer {
	m := &Materializer{}
	for _, opt := range opts {
		opt(m)
	}
	if m.converters == nil {
		m.converters = convert.NewDefaultRegistry()
	}
	if m.instances == nil {
		m.instances = NewInstances()
	}
	if m.collections == nil {
		m.collections = mapping.NewDefaultCollections()
	}
	if m.skipped == nil {
		m.skipped = signals.NewSignal[FieldSkipped]()
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

func (m *Materializer) Strict() bool {
	return m.strict
}

// Skipped is the signal carrying lenient-mode skips.
func (m *Materializer) Skipped() signals.Signal[FieldSkipped] {
	return m.skipped
}

// Materialize builds one object of tree.Type() from the record the cursor is
// positioned on. Struct targets are returned as pointers.
func (m *Materializer) Materialize(tree *mapping.Tree, c cursor.Cursor) (reflect.Value, error) {
	obj, err := m.instances.NewInstance(tree.Type())
	if err != nil {
		return reflect.Value{}, err
	}
	target := obj
	for target.Kind() == reflect.Pointer || target.Kind() == reflect.Interface {
		target = target.Elem()
	}
	if target.Kind() != reflect.Struct {
		return reflect.Value{}, faults.NewMappingError(tree.Type().String(), "", "instance of kind %s cannot hold mapped fields", target.Kind())
	}
	p := &populator{m: m, c: c, target: target}
	if err := tree.Accept(p); err != nil {
		return reflect.Value{}, err
	}
	return obj, nil
}

// Into materializes one T, dereferencing the struct pointer unless T is a
// pointer type itself.
func Into[T any](m *Materializer, tree *mapping.Tree, c cursor.Cursor) (T, error) {
	var zero T
	v, err := m.Materialize(tree, c)
	if err != nil {
		return zero, err
	}
	return As[T](v)
}

// As adapts a materialized value to T.
func As[T any](v reflect.Value) (T, error) {
	var zero T
	want := reflect.TypeFor[T]()
	switch {
	case v.Type().AssignableTo(want):
		return v.Interface().(T), nil
	case v.Kind() == reflect.Pointer && v.Type().Elem().AssignableTo(want):
		return v.Elem().Interface().(T), nil
	}
	return zero, faults.NewMappingError(want.String(), "", "materialized value has type %s", v.Type())
}

type populator struct {
	m      *Materializer
	c      cursor.Cursor
	target reflect.Value
}

func (p *populator) VisitScalar(e mapping.ScalarMapping) error {
	raw, ok, err := p.c.ReadScalar(e.Source())
	if err != nil {
		return p.readError(e.Source(), err)
	}
	if !ok {
		return p.missing(e)
	}
	field, err := p.field(e.Target())
	if err != nil {
		return err
	}
	if raw == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	value, err := p.convert(e, raw, field.Type())
	if err != nil {
		return errors.Wrapf(err, "field %s.%s at %s", p.target.Type(), e.Target(), p.c.Position())
	}
	return assign(field, value, p.target.Type(), e.Target())
}

func (p *populator) convert(e mapping.ScalarMapping, raw any, t reflect.Type) (any, error) {
	if c := e.Converter(); c != nil {
		return c.Convert(raw)
	}
	if t.Kind() == reflect.Pointer && !p.m.converters.Has(t) {
		v, err := p.m.converters.Convert(raw, t.Elem())
		if err != nil {
			return nil, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(reflect.ValueOf(v))
		return ptr.Interface(), nil
	}
	return p.m.converters.Convert(raw, t)
}

func (p *populator) VisitNestedObject(e mapping.NestedObjectMapping) error {
	sub, err := p.c.Nested(e.Source(), mapping.FieldDescriptor{})
	if err != nil {
		return p.readError(e.Source(), err)
	}
	defer sub.Close()

	ok, err := sub.Advance()
	if err != nil {
		return p.readError(e.Source(), err)
	}
	if !ok {
		return p.missing(e)
	}
	child, err := p.m.Materialize(e.Child(), sub)
	if err != nil {
		return err
	}
	more, err := sub.Advance()
	if err != nil {
		return p.readError(e.Source(), err)
	}
	if more {
		return faults.NewMappingError(p.target.Type().String(), e.Target(),
			"ambiguous nested field %q at %s: more than one match; use a collection mapping", e.Source(), p.c.Position())
	}
	field, err := p.field(e.Target())
	if err != nil {
		return err
	}
	return assign(field, child.Interface(), p.target.Type(), e.Target())
}

func (p *populator) VisitNestedCollection(e mapping.NestedCollectionMapping) error {
	coll, err := mapping.Instantiate(e.CollectionType(), e.Kind(), e.ElementType(), p.m.collections)
	if err != nil {
		return err
	}
	sub, err := p.c.Nested(e.Source(), e.Element())
	if err != nil {
		return p.readError(e.Source(), err)
	}
	defer sub.Close()

	for {
		ok, err := sub.Advance()
		if err != nil {
			return p.readError(e.Source(), err)
		}
		if !ok {
			break
		}
		elem, err := p.m.Materialize(e.Elements(), sub)
		if err != nil {
			return err
		}
		if err := coll.Append(elem); err != nil {
			return err
		}
	}
	field, err := p.field(e.Target())
	if err != nil {
		return err
	}
	return assign(field, coll.Value().Interface(), p.target.Type(), e.Target())
}

func (p *populator) missing(e mapping.Entry) error {
	if p.m.strict {
		return &faults.DataSourceQueryError{
			Field:    e.Source().String(),
			Position: p.c.Position(),
			Err:      faults.ErrFieldMissing,
		}
	}
	ev := FieldSkipped{
		Type:     p.target.Type().String(),
		Target:   e.Target(),
		Source:   e.Source().String(),
		Position: p.c.Position(),
	}
	p.m.logger.Info("source field not found, target left unset",
		"type", ev.Type,
		"target", ev.Target,
		"source", ev.Source,
		"position", ev.Position,
	)
	p.m.skipped.Notify(ev)
	return nil
}

func (p *populator) readError(source mapping.FieldDescriptor, err error) error {
	if errors.Is(err, faults.ErrDataSourceQuery) || errors.Is(err, faults.ErrConfiguration) {
		return err
	}
	return &faults.DataSourceQueryError{Field: source.String(), Position: p.c.Position(), Err: err}
}

// field resolves a possibly promoted field, allocating nil embedded pointers.
func (p *populator) field(name string) (reflect.Value, error) {
	sf, ok := p.target.Type().FieldByName(name)
	if !ok {
		return reflect.Value{}, faults.NewMappingError(p.target.Type().String(), name, "no such field")
	}
	v := p.target
	for i, x := range sf.Index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, faults.NewMappingError(p.target.Type().String(), name, "embedded pointer is nil and not settable")
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	if !v.CanSet() {
		return reflect.Value{}, faults.NewMappingError(p.target.Type().String(), name, "field is not settable")
	}
	return v, nil
}

func assign(field reflect.Value, value any, owner reflect.Type, name string) error {
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(field.Type()):
		field.Set(v)
	case v.Kind() == reflect.Pointer && v.Type().Elem().AssignableTo(field.Type()):
		field.Set(v.Elem())
	default:
		return errors.Wrapf(faults.NewConversionError(value, field.Type().String(), nil), "field %s.%s", owner, name)
	}
	return nil
}
