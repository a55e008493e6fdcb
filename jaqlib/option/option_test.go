package option

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSome(t *testing.T) {
	o := Some(42)
	assert.True(t, o.IsSome())
	assert.False(t, o.IsNone())
	v, ok := o.Get()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 42, o.MustGet())
	assert.Equal(t, "Some(42)", o.String())
}

func TestNone(t *testing.T) {
	o := None[string]()
	assert.True(t, o.IsNone())
	assert.Equal(t, "fallback", o.OrElse("fallback"))
	assert.Equal(t, "", o.OrZero())
	assert.Equal(t, "None", o.String())
	assert.Panics(t, func() { o.MustGet() })
}

func TestSomeHoldingNil(t *testing.T) {
	type account struct{}
	o := Some[*account](nil)
	assert.True(t, o.IsSome())
	assert.Nil(t, o.MustGet())
}

func TestMap(t *testing.T) {
	assert.Equal(t, Some("7"), Map(Some(7), strconv.Itoa))
	assert.True(t, Map(None[int](), strconv.Itoa).IsNone())
}
