package option

import "fmt"

// Option is the result of a fetch that may legitimately find nothing:
// it is either Some (holds a match, possibly the null element) or None.
type Option[T any] struct {
	val     T
	present bool
}

// Some wraps a found value.
func Some[T any](val T) Option[T] {
	return Option[T]{val: val, present: true}
}

// None returns the absent result.
func None[T any]() Option[T] {
	return Option[T]{}
}

// IsSome reports whether a value was found.
func (o Option[T]) IsSome() bool {
	return o.present
}

// IsNone reports whether the result is absent.
func (o Option[T]) IsNone() bool {
	return !o.present
}

// Get returns the value and whether it was present.
func (o Option[T]) Get() (T, bool) {
	return o.val, o.present
}

// MustGet returns the value.
// Panics if the Option is None.
func (o Option[T]) MustGet() T {
	if !o.present {
		panic("option: MustGet called on None")
	}
	return o.val
}

// OrElse returns the value or def when absent.
func (o Option[T]) OrElse(def T) T {
	if o.present {
		return o.val
	}
	return def
}

// OrZero returns the value or the zero value of T.
func (o Option[T]) OrZero() T {
	return o.val
}

// Map transforms a present value.
func Map[T, U any](o Option[T], f func(T) U) Option[U] {
	if o.present {
		return Some(f(o.val))
	}
	return None[U]()
}

func (o Option[T]) String() string {
	if o.present {
		return fmt.Sprintf("Some(%v)", o.val)
	}
	return "None"
}
