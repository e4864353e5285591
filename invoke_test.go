package di_test

import (
	"context"
	"testing"

	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/internal/errors"
	"github.com/sectrean/di-web/internal/testtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Invoke(t *testing.T) {
	t.Parallel()

	t.Run("not func", func(t *testing.T) {
		c, err := di.NewContainer()
		require.NoError(t, err)

		ctx := context.Background()
		err = di.Invoke(ctx, c, 1234)
		LogError(t, err)

		assert.EqualError(t, err, "di.Invoke int: fn must be a function")
	})

	t.Run("nil func", func(t *testing.T) {
		c, err := di.NewContainer()
		require.NoError(t, err)

		ctx := context.Background()
		err = di.Invoke(ctx, c, nil)
		LogError(t, err)

		assert.EqualError(t, err, "di.Invoke <nil>: fn must be a function")
	})

	t.Run("one arg", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewInterfaceA),
		)
		require.NoError(t, err)

		ctx := context.Background()
		called := false

		err = di.Invoke(ctx, c, func(a testtypes.InterfaceA) {
			assert.NotNil(t, a)
			called = true
		})

		assert.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("return error", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewInterfaceA),
		)
		require.NoError(t, err)

		ctx := context.Background()
		err = di.Invoke(ctx, c, func(testtypes.InterfaceA) error {
			return errors.New("test invoke error")
		})
		LogError(t, err)

		assert.EqualError(t, err, "test invoke error")
	})

	t.Run("return value and nil error", func(t *testing.T) {
		c, err := di.NewContainer()
		require.NoError(t, err)

		ctx := context.Background()
		err = di.Invoke(ctx, c, func() (int, error) {
			return 1, nil
		})
		assert.NoError(t, err)
	})

	t.Run("resolve error", func(t *testing.T) {
		c, err := di.NewContainer()
		require.NoError(t, err)

		ctx := context.Background()
		err = di.Invoke(ctx, c, func(testtypes.InterfaceA) {})
		LogError(t, err)

		assert.ErrorIs(t, err, di.ErrServiceNotRegistered)
		assert.EqualError(t, err, "di.Invoke func(testtypes.InterfaceA): di.Container.Resolve testtypes.InterfaceA: service not registered")
	})

	t.Run("with context", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewInterfaceA),
		)
		require.NoError(t, err)

		ctx := ContextWithTestValue(context.Background(), "value")
		err = di.Invoke(ctx, c, func(ctx2 context.Context, a testtypes.InterfaceA) {
			assert.Equal(t, ctx, ctx2)
			assert.NotNil(t, a)
		})
		assert.NoError(t, err)
	})

	t.Run("with resolver", func(t *testing.T) {
		c, err := di.NewContainer()
		require.NoError(t, err)

		ctx := context.Background()
		err = di.Invoke(ctx, c, func(r di.Resolver) {
			assert.Same(t, c, r)
		})
		assert.NoError(t, err)
	})

	t.Run("with context error", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewInterfaceA),
		)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = di.Invoke(ctx, c, func(context.Context) {
			assert.Fail(t, "should not be called")
		})
		LogError(t, err)

		assert.ErrorIs(t, err, context.Canceled)
		assert.EqualError(t, err, "di.Invoke func(context.Context): context canceled")
	})

	t.Run("variadic", func(t *testing.T) {
		f := &testtypes.Factory{}

		c, err := di.NewContainer(
			di.WithService(f.NewInterfaceA),
			di.WithService(f.NewInterfaceA),
		)
		require.NoError(t, err)

		ctx := context.Background()
		err = di.Invoke(ctx, c, func(a ...testtypes.InterfaceA) {
			assert.Equal(t, testtypes.ExpectInterfaceA(2), a)
		})
		assert.NoError(t, err)
	})

	t.Run("with tagged", func(t *testing.T) {
		a := &testtypes.StructA{}

		c, err := di.NewContainer(
			di.WithService(a,
				di.As[testtypes.InterfaceA](),
				di.WithTag("tag"),
			),
			di.WithService(testtypes.NewInterfaceA),
		)
		require.NoError(t, err)

		ctx := context.Background()
		err = di.Invoke(ctx, c,
			func(aa testtypes.InterfaceA) {
				assert.Same(t, a, aa)
			},
			di.WithTagged[testtypes.InterfaceA]("tag"),
		)
		assert.NoError(t, err)
	})

	t.Run("with tagged dep not found", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewInterfaceA),
		)
		require.NoError(t, err)

		ctx := context.Background()
		err = di.Invoke(ctx, c,
			func(testtypes.InterfaceA) {},
			di.WithTagged[testtypes.InterfaceB]("tag"),
		)
		LogError(t, err)

		assert.EqualError(t, err, "di.Invoke func(testtypes.InterfaceA): with tagged testtypes.InterfaceB: parameter not found")
	})
}
