package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_isNil(t *testing.T) {
	var nilPtr *Container
	var nilMap map[string]int
	var nilFunc func()
	var nilCloser Closer

	tests := []struct {
		name string
		val  any
		want bool
	}{
		{name: "nil", val: nil, want: true},
		{name: "nil pointer", val: nilPtr, want: true},
		{name: "nil map", val: nilMap, want: true},
		{name: "nil func", val: nilFunc, want: true},
		{name: "nil interface", val: nilCloser, want: true},
		{name: "pointer", val: &Container{}, want: false},
		{name: "struct", val: Key{}, want: false},
		{name: "int", val: 0, want: false},
		{name: "func", val: context.Background, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNil(tt.val))
		})
	}
}

func Test_flattenModules(t *testing.T) {
	a := WithService(1)
	b := WithService("b")
	c := WithDependencyValidation()

	opts := []ContainerOption{
		a,
		Module{b, Module{c}},
	}
	got := flattenModules(opts)

	assert.Len(t, got, 3)
	assert.Len(t, opts, 2)
	assert.Equal(t, orderService, got[0].order())
	assert.Equal(t, orderService, got[1].order())
	assert.Equal(t, orderValidation, got[2].order())
}

func Test_AsCloser(t *testing.T) {
	ctx := context.Background()

	t.Run("no close method", func(t *testing.T) {
		assert.Nil(t, AsCloser(&Key{}))
	})

	t.Run("close with context and error", func(t *testing.T) {
		called := false
		closer := AsCloser(closeFunc(func(context.Context) error {
			called = true
			return nil
		}))

		assert.NoError(t, closer.Close(ctx))
		assert.True(t, called)
	})

	t.Run("close no context", func(t *testing.T) {
		s := &noContextCloser{}
		closer := AsCloser(s)

		assert.NoError(t, closer.Close(ctx))
		assert.True(t, s.closed)
	})
}

type noContextCloser struct {
	closed bool
}

func (c *noContextCloser) Close() {
	c.closed = true
}
