package signals

import (
	"reflect"
	"sync"
)

type subscription[E any] struct {
	id       any
	observer Observer[E]
}

// SignalImp delivers events to observers in attach order. It is safe for
// concurrent use; observers are called outside the lock.
type SignalImp[E any] struct {
	mu        sync.RWMutex
	observers []subscription[E]
}

func NewSignal[E any]() *SignalImp[E] {
	return &SignalImp[E]{}
}

// Attach registers observer under observerID, or under the function identity
// when no ID is given. Attaching an ID twice keeps the first observer.
func (s *SignalImp[E]) Attach(observer Observer[E], observerID ...any) Disposable {
	id := resolveID(observer, observerID)
	detach := DisposeFunc(func() {
		s.Detach(observer, id)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.observers {
		if sub.id == id {
			return detach
		}
	}
	s.observers = append(s.observers, subscription[E]{id: id, observer: observer})
	return detach
}

func (s *SignalImp[E]) Detach(observer Observer[E], observerID ...any) {
	id := resolveID(observer, observerID)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.observers {
		if sub.id == id {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *SignalImp[E]) Notify(event E) {
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()
	for _, sub := range observers {
		sub.observer(event)
	}
}

// Len returns the number of attached observers.
func (s *SignalImp[E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

func resolveID[E any](observer Observer[E], observerID []any) any {
	if len(observerID) > 0 {
		return observerID[0]
	}
	return reflect.ValueOf(observer).Pointer()
}
