package signals

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type skipped struct {
	field string
}

func TestSignal_NotifiesInAttachOrder(t *testing.T) {
	s := NewSignal[skipped]()
	var got []string
	s.Attach(func(e skipped) { got = append(got, "a:"+e.field) }, "a")
	s.Attach(func(e skipped) { got = append(got, "b:"+e.field) }, "b")
	s.Notify(skipped{"balance"})
	assert.Equal(t, []string{"a:balance", "b:balance"}, got)
}

func TestSignal_DuplicateIDKeepsFirstObserver(t *testing.T) {
	s := NewSignal[skipped]()
	var which int
	s.Attach(func(skipped) { which = 1 }, "audit")
	s.Attach(func(skipped) { which = 2 }, "audit")
	s.Notify(skipped{})
	assert.Equal(t, 1, which)
	assert.Equal(t, 1, s.Len())
}

func TestSignal_DetachByIDAndByIdentity(t *testing.T) {
	tests := []struct {
		name string
		id   []any
	}{
		{"explicit id", []any{"audit"}},
		{"function identity", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSignal[skipped]()
			called := false
			observer := Observer[skipped](func(skipped) { called = true })
			s.Attach(observer, tt.id...)
			s.Detach(observer, tt.id...)
			s.Notify(skipped{})
			assert.False(t, called)
			assert.Equal(t, 0, s.Len())
		})
	}
}

func TestSignal_DetachUnknownIsSilent(t *testing.T) {
	s := NewSignal[skipped]()
	assert.NotPanics(t, func() {
		s.Detach(func(skipped) {}, "missing")
		s.Notify(skipped{})
	})
}

func TestSignal_DisposeDetaches(t *testing.T) {
	s := NewSignal[skipped]()
	count := 0
	d := s.Attach(func(skipped) { count++ })
	s.Notify(skipped{})
	d.Dispose()
	s.Notify(skipped{})
	assert.Equal(t, 1, count)
}

func TestSignal_ConcurrentNotify(t *testing.T) {
	s := NewSignal[skipped]()
	var mu sync.Mutex
	count := 0
	s.Attach(func(skipped) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Notify(skipped{})
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, count)
}

func TestCompositeSignal_FansOut(t *testing.T) {
	session := NewSignal[skipped]()
	query := NewSignal[skipped]()
	composite := NewCompositeSignal[skipped](session, query)

	count := 0
	d := composite.Attach(func(skipped) { count++ }, "audit")
	composite.Notify(skipped{})
	assert.Equal(t, 2, count)

	d.Dispose()
	session.Notify(skipped{})
	query.Notify(skipped{})
	assert.Equal(t, 2, count)
}

func TestCompositeSignal_Detach(t *testing.T) {
	a := NewSignal[skipped]()
	b := NewSignal[skipped]()
	composite := NewCompositeSignal[skipped](a, b)
	observer := Observer[skipped](func(skipped) {})
	composite.Attach(observer, "audit")
	composite.Detach(observer, "audit")
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 0, b.Len())
}
