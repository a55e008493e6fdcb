// Package signals is a small typed observer hub. The materializer publishes
// lenient-mode skips through it so callers can audit what was left unset.
package signals

type Observer[E any] func(E)

// Disposable detaches the observer it was returned for.
type Disposable interface {
	Dispose()
}

type DisposeFunc func()

func (f DisposeFunc) Dispose() {
	f()
}

type Signal[E any] interface {
	Attach(observer Observer[E], observerID ...any) Disposable
	Detach(observer Observer[E], observerID ...any)
	Notify(event E)
}
