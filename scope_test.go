package di_test

import (
	"context"
	"testing"

	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/internal/testtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MustResolve(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewInterfaceA),
		)
		require.NoError(t, err)

		ctx := context.Background()
		got := di.MustResolve[testtypes.InterfaceA](ctx, c)
		assert.Equal(t, &testtypes.StructA{}, got)
	})

	t.Run("WithTag", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewInterfaceA, di.WithTag("tag")),
			di.WithService(func() testtypes.InterfaceA {
				assert.Fail(t, "should not be called")
				return nil
			}),
		)
		require.NoError(t, err)

		ctx := context.Background()
		got := di.MustResolve[testtypes.InterfaceA](ctx, c, di.WithTag("tag"))
		assert.Equal(t, &testtypes.StructA{}, got)
	})

	t.Run("error", func(t *testing.T) {
		c, err := di.NewContainer()
		require.NoError(t, err)

		ctx := context.Background()
		assert.PanicsWithError(t,
			"di.Container.Resolve testtypes.InterfaceA: service not registered",
			func() {
				di.MustResolve[testtypes.InterfaceA](ctx, c)
			},
		)
	})
}

func Test_ScopeFunc(t *testing.T) {
	var gotKey di.Key
	scope := di.ScopeFunc(func(_ context.Context, key di.Key, unscoped func() (any, error)) (any, error) {
		gotKey = key
		return unscoped()
	})

	ctx := context.Background()
	key := di.KeyFor[testtypes.InterfaceA]()
	val, err := scope.Scope(ctx, key, func() (any, error) {
		return &testtypes.StructA{Tag: 1}, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, &testtypes.StructA{Tag: 1}, val)
	assert.Equal(t, key, gotKey)
}
