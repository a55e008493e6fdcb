// Package fetch drives a cursor through the materializer and the predicate and
// hands the matches to a collector.
package fetch

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/cursor"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/materialize"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/predicate"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/predicate/operators"
)

type State int

const (
	NotStarted State = iota
	Streaming
	Exhausted
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Streaming:
		return "streaming"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// Sink receives each match in encounter order. Returning false stops the
// fetch early.
type Sink func(candidate any) (more bool, err error)

type Strategy interface {
	Fetch(ctx context.Context, pred predicate.Node, sink Sink) error
	State() State
}

type Option func(*Plain)

func WithMaterializer(m *materialize.Materializer) Option {
	return func(p *Plain) {
		p.materializer = m
	}
}

func WithRegistry(r *operators.OperatorRegistry) Option {
	return func(p *Plain) {
		p.registry = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Plain) {
		p.logger = l
	}
}

// NewPlain creates a strategy that opens a fresh cursor on every fetch. tree
// may be nil for sources whose cursors implement cursor.Direct.
func NewPlain(source cursor.Source, tree *mapping.Tree, opts ...Option) *Plain {
	p := &Plain{
		source: source,
		tree:   tree,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.materializer == nil {
		p.materializer = materialize.New()
	}
	if p.registry == nil {
		p.registry = operators.NewDefaultRegistry()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

type Plain struct {
	source       cursor.Source
	tree         *mapping.Tree
	materializer *materialize.Materializer
	registry     *operators.OperatorRegistry
	logger       *slog.Logger

	mu    sync.Mutex
	state State
}

func (p *Plain) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Plain) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

func (p *Plain) Tree() *mapping.Tree {
	return p.tree
}

func (p *Plain) Fetch(ctx context.Context, pred predicate.Node, sink Sink) error {
	return p.each(ctx, func(candidate any) (bool, error) {
		ok, err := predicate.Evaluate(pred, candidate, p.registry)
		if err != nil || !ok {
			return true, err
		}
		return sink(candidate)
	})
}

// each visits every candidate of a freshly opened cursor. The cursor is
// closed on every exit path.
func (p *Plain) each(ctx context.Context, visit Sink) (err error) {
	c, err := p.source.Open(ctx)
	if err != nil {
		p.setState(Exhausted)
		return errors.Wrap(err, "unable to open source")
	}
	p.setState(Streaming)
	p.logger.Debug("cursor opened", "type", p.typeName())

	defer func() {
		p.setState(Exhausted)
		if closeErr := c.Close(); closeErr != nil {
			if err != nil {
				err = multierror.Append(err, closeErr)
			} else {
				err = errors.Wrap(closeErr, "unable to close cursor")
			}
		}
		p.logger.Debug("cursor closed", "type", p.typeName(), "error", err)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := c.Advance()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		candidate, err := p.candidate(c)
		if err != nil {
			return err
		}
		more, err := visit(candidate)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

func (p *Plain) candidate(c cursor.Cursor) (any, error) {
	if d, ok := c.(cursor.Direct); ok {
		return d.Current(), nil
	}
	if p.tree == nil {
		return nil, faults.NewConfigurationError("fetch.Plain", c.Position(), "cursor yields raw records but no mapping tree was given")
	}
	v, err := p.materializer.Materialize(p.tree, c)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func (p *Plain) typeName() string {
	if p.tree == nil {
		return ""
	}
	return p.tree.Type().String()
}

// NewCaching wraps plain so that the backend is read only once: the first
// fetch materializes every record, later fetches filter the cached candidates
// in their original order.
func NewCaching(plain *Plain) *Caching {
	return &Caching{plain: plain}
}

type Caching struct {
	plain     *Plain
	mu        sync.Mutex
	populated bool
	cache     []any
}

func (s *Caching) State() State {
	return s.plain.State()
}

func (s *Caching) Fetch(ctx context.Context, pred predicate.Node, sink Sink) error {
	cache, err := s.populate(ctx)
	if err != nil {
		return err
	}
	for _, candidate := range cache {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := predicate.Evaluate(pred, candidate, s.plain.registry)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		more, err := sink(candidate)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// Len returns the number of cached candidates, 0 before population.
func (s *Caching) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

func (s *Caching) populate(ctx context.Context) ([]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.populated {
		return s.cache, nil
	}
	if s.plain.tree != nil {
		s.plain.tree.Freeze()
	}
	var cache []any
	err := s.plain.Fetch(ctx, predicate.True(), func(candidate any) (bool, error) {
		cache = append(cache, candidate)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.cache = cache
	s.populated = true
	s.plain.logger.Debug("cache populated", "type", s.plain.typeName(), "size", len(cache))
	return s.cache, nil
}

// Adapt converts a candidate to T. Materialized struct candidates are
// pointers and are dereferenced when T is the struct type. A null candidate
// becomes the nil T, or a MappingError when T cannot hold nil.
func Adapt[T any](candidate any) (T, error) {
	var zero T
	if operators.IsNull(candidate) {
		if t := reflect.TypeFor[T](); !nillable(t) {
			return zero, faults.NewMappingError(t.String(), "", "null candidate cannot be held by a value type")
		}
		return zero, nil
	}
	if v, ok := candidate.(T); ok {
		return v, nil
	}
	return materialize.As[T](reflect.ValueOf(candidate))
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return true
	}
	return false
}
