package dicontext_test

import (
	"context"
	"testing"

	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/dicontext"
	"github.com/sectrean/di-web/internal/testtypes"
	"github.com/sectrean/di-web/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Resolver(t *testing.T) {
	t.Run("with resolver", func(t *testing.T) {
		c, err := di.NewContainer()
		require.NoError(t, err)

		ctx := dicontext.WithResolver(context.Background(), c)
		r := dicontext.Resolver(ctx)

		assert.Same(t, c, r)
	})

	t.Run("no resolver", func(t *testing.T) {
		ctx := context.Background()
		r := dicontext.Resolver(ctx)
		assert.Nil(t, r)
	})
}

func Test_Resolve(t *testing.T) {
	t.Run("resolve", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewInterfaceA),
		)
		require.NoError(t, err)

		ctx := dicontext.WithResolver(context.Background(), c)

		got, err := dicontext.Resolve[testtypes.InterfaceA](ctx)
		assert.Equal(t, &testtypes.StructA{}, got)
		assert.NoError(t, err)
	})

	t.Run("resolve with tag", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewInterfaceA, di.WithTag("tag")),
			di.WithService(func() testtypes.InterfaceA {
				panic("should not be called")
			}),
		)
		require.NoError(t, err)

		ctx := dicontext.WithResolver(context.Background(), c)

		got, err := dicontext.Resolve[testtypes.InterfaceA](ctx, di.WithTag("tag"))
		assert.Equal(t, &testtypes.StructA{}, got)
		assert.NoError(t, err)
	})

	t.Run("resolve error", func(t *testing.T) {
		c, err := di.NewContainer()
		require.NoError(t, err)

		ctx := dicontext.WithResolver(context.Background(), c)

		got, err := dicontext.Resolve[testtypes.InterfaceA](ctx)
		testutils.LogError(t, err)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, di.ErrServiceNotRegistered)
		assert.EqualError(t, err,
			"resolve from context: di.Container.Resolve testtypes.InterfaceA: service not registered")
	})

	t.Run("no resolver", func(t *testing.T) {
		ctx := context.Background()

		got, err := dicontext.Resolve[testtypes.InterfaceA](ctx)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, dicontext.ErrResolverNotFound)
		assert.EqualError(t, err,
			"resolve testtypes.InterfaceA from context: resolver not found on context")
	})
}

func Test_ResolveKey(t *testing.T) {
	c, err := di.NewContainer(
		di.WithService(testtypes.NewStructAPtr, di.WithTag(1)),
	)
	require.NoError(t, err)

	ctx := dicontext.WithResolver(context.Background(), c)

	got, err := dicontext.ResolveKey(ctx, di.KeyFor[*testtypes.StructA]().Tagged(1))
	assert.Equal(t, &testtypes.StructA{}, got)
	assert.NoError(t, err)

	_, err = dicontext.ResolveKey(context.Background(), di.KeyFor[*testtypes.StructA]())
	assert.ErrorIs(t, err, dicontext.ErrResolverNotFound)
}

func Test_MustResolve(t *testing.T) {
	t.Run("resolve", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewInterfaceA),
		)
		require.NoError(t, err)

		ctx := dicontext.WithResolver(context.Background(), c)

		got := dicontext.MustResolve[testtypes.InterfaceA](ctx)
		assert.Equal(t, &testtypes.StructA{}, got)
	})

	t.Run("no resolver", func(t *testing.T) {
		ctx := context.Background()

		assert.PanicsWithError(t, "resolve testtypes.InterfaceA from context: resolver not found on context", func() {
			_ = dicontext.MustResolve[testtypes.InterfaceA](ctx)
		})
	})
}
