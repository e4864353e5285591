package di_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/internal/testtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_WithProvider(t *testing.T) {
	t.Run("get scoped", func(t *testing.T) {
		calls := 0

		c, err := di.NewContainer(
			di.WithService(func() testtypes.InterfaceA {
				calls++
				return &testtypes.StructA{Tag: calls}
			}, di.InScope(TestScoped)),
			di.WithProvider[testtypes.InterfaceA](),
		)
		require.NoError(t, err)

		p, err := di.Resolve[di.Provider[testtypes.InterfaceA]](context.Background(), c)
		require.NoError(t, err)

		ctx1, _ := withTestScope(context.Background())
		ctx2, _ := withTestScope(context.Background())

		a1, err := p.Get(ctx1)
		assert.NoError(t, err)
		a1again, err := p.Get(ctx1)
		assert.NoError(t, err)
		a2, err := p.Get(ctx2)
		assert.NoError(t, err)

		assert.Same(t, a1, a1again)
		assert.Equal(t, &testtypes.StructA{Tag: 1}, a1)
		assert.Equal(t, &testtypes.StructA{Tag: 2}, a2)
	})

	t.Run("singleton with provider", func(t *testing.T) {
		type holder struct {
			a di.Provider[testtypes.InterfaceA]
		}

		c, err := di.NewContainer(
			di.WithService(testtypes.NewInterfaceA, di.InScope(TestScoped)),
			di.WithProvider[testtypes.InterfaceA](),
			di.WithService(func(p di.Provider[testtypes.InterfaceA]) *holder {
				return &holder{a: p}
			}),
		)
		require.NoError(t, err)

		h, err := di.Resolve[*holder](context.Background(), c)
		require.NoError(t, err)

		ctx, _ := withTestScope(context.Background())
		a, err := h.a.Get(ctx)
		assert.NoError(t, err)
		assert.Equal(t, &testtypes.StructA{}, a)

		// Outside a scope the error from the scope is returned
		_, err = h.a.Get(context.Background())
		LogError(t, err)
		assert.ErrorIs(t, err, errNoTestScope)
	})

	t.Run("with tag", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewInterfaceA),
			di.WithService(func() testtypes.InterfaceA { return &testtypes.StructA{Tag: "tag"} }, di.WithTag("tag")),
			di.WithProvider[testtypes.InterfaceA](di.WithTag("tag")),
		)
		require.NoError(t, err)

		ctx := context.Background()
		assert.False(t, c.Contains(reflect.TypeFor[di.Provider[testtypes.InterfaceA]]()))

		p, err := di.Resolve[di.Provider[testtypes.InterfaceA]](ctx, c, di.WithTag("tag"))
		require.NoError(t, err)

		a, err := p.Get(ctx)
		assert.NoError(t, err)
		assert.Equal(t, &testtypes.StructA{Tag: "tag"}, a)
	})

	t.Run("not registered", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithProvider[testtypes.InterfaceA](),
		)
		require.NoError(t, err)

		ctx := context.Background()
		p, err := di.Resolve[di.Provider[testtypes.InterfaceA]](ctx, c)
		require.NoError(t, err)

		a, err := p.Get(ctx)
		LogError(t, err)

		assert.Nil(t, a)
		assert.ErrorIs(t, err, di.ErrServiceNotRegistered)
		assert.EqualError(t, err, "di.Container.Resolve testtypes.InterfaceA: service not registered")
	})

	t.Run("provider is singleton", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithProvider[testtypes.InterfaceA](),
		)
		require.NoError(t, err)

		lifetime, _, err := c.Lifetime(di.KeyFor[di.Provider[testtypes.InterfaceA]]())
		assert.NoError(t, err)
		assert.Equal(t, di.Singleton, lifetime)
	})
}
