// Package session bundles the registries and policies a query runs with.
package session

import (
	"log/slog"
	"sync"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/convert"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/materialize"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/predicate/operators"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/recorder"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/signals"
)

type Option func(*Session)

// WithStrict switches the missing-field policy from lenient to strict.
func WithStrict(strict bool) Option {
	return func(s *Session) {
		s.strict = strict
	}
}

func WithNaming(naming mapping.NamingFunc) Option {
	return func(s *Session) {
		s.naming = naming
	}
}

func WithConverters(r *convert.Registry) Option {
	return func(s *Session) {
		s.converters = r
	}
}

func WithInstances(f materialize.InstanceFactory) Option {
	return func(s *Session) {
		s.instances = f
	}
}

func WithCollections(f mapping.CollectionFactory) Option {
	return func(s *Session) {
		s.collections = f
	}
}

func WithOperators(r *operators.OperatorRegistry) Option {
	return func(s *Session) {
		s.operators = r
	}
}

func WithRecorders(r *recorder.Registry) Option {
	return func(s *Session) {
		s.recorders = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// Session is immutable once created and safe to share between goroutines;
// the registries it holds synchronize themselves.
type Session struct {
	strict      bool
	naming      mapping.NamingFunc
	converters  *convert.Registry
	instances   materialize.InstanceFactory
	collections mapping.CollectionFactory
	operators   *operators.OperatorRegistry
	recorders   *recorder.Registry
	logger      *slog.Logger
	skipped     signals.Signal[materialize.FieldSkipped]
	trees       *mapping.Cache
}

func New(opts ...Option) *Session {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	if s.naming == nil {
		s.naming = mapping.IdentityNaming
	}
	if s.converters == nil {
		s.converters = convert.NewDefaultRegistry()
	}
	if s.instances == nil {
		s.instances = materialize.NewInstances()
	}
	if s.collections == nil {
		s.collections = mapping.NewDefaultCollections()
	}
	if s.operators == nil {
		s.operators = operators.NewDefaultRegistry()
	}
	if s.recorders == nil {
		s.recorders = recorder.NewRegistry()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.skipped = signals.NewSignal[materialize.FieldSkipped]()
	s.trees = mapping.NewCache(
		mapping.WithNaming(s.naming),
		mapping.WithConverters(s.converters),
	)
	return s
}

var (
	defaultOnce    sync.Once
	defaultSession *Session
)

// Default returns the process-wide session used when a query is built
// without one. It is lenient and uses the default registries.
func Default() *Session {
	defaultOnce.Do(func() {
		defaultSession = New()
	})
	return defaultSession
}

func (s *Session) Strict() bool {
	return s.strict
}

func (s *Session) Converters() *convert.Registry {
	return s.converters
}

func (s *Session) Operators() *operators.OperatorRegistry {
	return s.operators
}

func (s *Session) Recorders() *recorder.Registry {
	return s.recorders
}

func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// Trees is the cache of convention-derived mapping trees.
func (s *Session) Trees() *mapping.Cache {
	return s.trees
}

// Skipped carries the fields left unset in lenient mode.
func (s *Session) Skipped() signals.Signal[materialize.FieldSkipped] {
	return s.skipped
}

// Materializer creates a materializer configured by the session. Options
// given here override the session's.
func (s *Session) Materializer(opts ...materialize.Option) *materialize.Materializer {
	return materialize.New(append([]materialize.Option{
		materialize.WithStrict(s.strict),
		materialize.WithConverters(s.converters),
		materialize.WithInstances(s.instances),
		materialize.WithCollections(s.collections),
		materialize.WithSkipped(s.skipped),
		materialize.WithLogger(s.logger),
	}, opts...)...)
}
