package dihttp_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/dihttp"
	"github.com/sectrean/di-web/internal/testtypes"
	"github.com/sectrean/di-web/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_RequestScoped(t *testing.T) {
	t.Run("outside of a request", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewInterfaceA, di.InScope(dihttp.RequestScoped)),
		)
		require.NoError(t, err)

		a, err := di.Resolve[testtypes.InterfaceA](context.Background(), c)
		testutils.LogError(t, err)

		assert.Nil(t, a)
		assert.ErrorIs(t, err, dihttp.ErrScopeUnavailable)
		assert.EqualError(t, err, "di.Container.Resolve testtypes.InterfaceA: "+
			"cannot access scoped [testtypes.InterfaceA]: "+
			"not inside an HTTP request handled by dihttp.Dispatcher")

		var scopeErr *dihttp.ScopeUnavailableError
		require.ErrorAs(t, err, &scopeErr)
		assert.Equal(t, di.KeyFor[testtypes.InterfaceA](), scopeErr.Key)
		assert.Equal(t, "request", scopeErr.Scope)
	})

	t.Run("binding outside of a request", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithModule(dihttp.Bindings),
		)
		require.NoError(t, err)

		_, err = di.Resolve[*http.Request](context.Background(), c)
		testutils.LogError(t, err)

		assert.ErrorIs(t, err, dihttp.ErrScopeUnavailable)
		assert.EqualError(t, err, "di.Container.Resolve *http.Request: "+
			"cannot access scoped [*http.Request]: "+
			"not inside an HTTP request handled by dihttp.Dispatcher")
	})

	t.Run("scoped request", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewStructAPtr, di.InScope(dihttp.RequestScoped)),
		)
		require.NoError(t, err)

		ctx, closeScope, err := dihttp.ScopeRequest(context.Background(), nil)
		require.NoError(t, err)

		a1, err := di.Resolve[*testtypes.StructA](ctx, c)
		assert.NoError(t, err)
		a2, err := di.Resolve[*testtypes.StructA](ctx, c)
		assert.NoError(t, err)
		assert.Same(t, a1, a2)

		assert.NoError(t, closeScope(ctx))
	})

	t.Run("nil instance remembered", func(t *testing.T) {
		calls := 0

		c, err := di.NewContainer(
			di.WithService(func() *testtypes.StructA {
				calls++
				return nil
			}, di.InScope(dihttp.RequestScoped)),
		)
		require.NoError(t, err)

		ctx, closeScope, err := dihttp.ScopeRequest(context.Background(), nil)
		require.NoError(t, err)

		a1, err := di.Resolve[*testtypes.StructA](ctx, c)
		assert.Nil(t, a1)
		assert.NoError(t, err)

		a2, err := di.Resolve[*testtypes.StructA](ctx, c)
		assert.Nil(t, a2)
		assert.NoError(t, err)

		assert.Equal(t, 1, calls)
		assert.NoError(t, closeScope(ctx))
	})

	t.Run("types with the same name", func(t *testing.T) {
		optOne, resolveOne := localService(1)
		optTwo, resolveTwo := otherLocalService(2)

		c, err := di.NewContainer(optOne, optTwo)
		require.NoError(t, err)

		ctx, closeScope, err := dihttp.ScopeRequest(context.Background(), nil)
		require.NoError(t, err)

		one, err := resolveOne(ctx, c)
		assert.NoError(t, err)
		two, err := resolveTwo(ctx, c)
		assert.NoError(t, err)

		assert.Equal(t, 1, one)
		assert.Equal(t, 2, two)
		assert.NoError(t, closeScope(ctx))
	})

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "RequestScoped", dihttp.RequestScoped.(fmt.Stringer).String())
		assert.Equal(t, "SessionScoped", dihttp.SessionScoped.(fmt.Stringer).String())
	})
}

func Test_SessionScoped(t *testing.T) {
	t.Run("outside of a request", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewCart, di.InScope(dihttp.SessionScoped)),
		)
		require.NoError(t, err)

		cart, err := di.Resolve[*testtypes.Cart](context.Background(), c)
		testutils.LogError(t, err)

		assert.Nil(t, cart)
		assert.ErrorIs(t, err, dihttp.ErrScopeUnavailable)
		assert.EqualError(t, err, "di.Container.Resolve *testtypes.Cart: "+
			"cannot access scoped [*testtypes.Cart]: no active session: "+
			"not inside an HTTP request handled by dihttp.Dispatcher")
	})

	t.Run("not seeded in scoped request", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewCart, di.InScope(dihttp.SessionScoped)),
		)
		require.NoError(t, err)

		ctx, closeScope, err := dihttp.ScopeRequest(context.Background(), nil)
		require.NoError(t, err)
		defer func() { _ = closeScope(ctx) }()

		_, err = di.Resolve[*testtypes.Cart](ctx, c)
		assert.ErrorIs(t, err, dihttp.ErrScopeUnavailable)
	})

	t.Run("seeded in scoped request", func(t *testing.T) {
		c, err := di.NewContainer(
			di.WithService(testtypes.NewCart, di.InScope(dihttp.SessionScoped)),
		)
		require.NoError(t, err)

		seeded := testtypes.NewCart()
		ctx, closeScope, err := dihttp.ScopeRequest(context.Background(), map[di.Key]any{
			di.KeyFor[*testtypes.Cart](): seeded,
		})
		require.NoError(t, err)

		cart, err := di.Resolve[*testtypes.Cart](ctx, c)
		assert.NoError(t, err)
		assert.Same(t, seeded, cart)

		// Seeded instances belong to their owner
		assert.NoError(t, closeScope(ctx))
		assert.False(t, seeded.Closed())
	})
}

func Test_IsRequestScoped(t *testing.T) {
	c, err := di.NewContainer(
		di.WithService(testtypes.NewInterfaceA, di.InScope(dihttp.RequestScoped)),
		di.WithService(testtypes.NewCart, di.InScope(dihttp.SessionScoped)),
		di.WithService(testtypes.NewInterfaceB),
	)
	require.NoError(t, err)

	keyB := di.KeyFor[testtypes.InterfaceB]()
	keyNotRegistered := di.KeyFor[testtypes.InterfaceC]()

	assert.True(t, dihttp.IsRequestScoped(c, keyA))
	assert.False(t, dihttp.IsRequestScoped(c, keyCart))
	assert.False(t, dihttp.IsRequestScoped(c, keyB))
	assert.False(t, dihttp.IsRequestScoped(c, keyNotRegistered))

	assert.True(t, dihttp.IsSessionScoped(c, keyCart))
	assert.False(t, dihttp.IsSessionScoped(c, keyA))
	assert.False(t, dihttp.IsSessionScoped(c, keyB))
	assert.False(t, dihttp.IsSessionScoped(c, keyNotRegistered))
}

// localService and otherLocalService register request scoped types that share a package
// path and a name.
func localService(n int) (di.ContainerOption, func(context.Context, di.Resolver) (int, error)) {
	type svc struct{ A int }

	opt := di.WithService(func() *svc { return &svc{A: n} }, di.InScope(dihttp.RequestScoped))
	return opt, func(ctx context.Context, r di.Resolver) (int, error) {
		s, err := di.Resolve[*svc](ctx, r)
		if err != nil {
			return 0, err
		}
		return s.A, nil
	}
}

func otherLocalService(n int) (di.ContainerOption, func(context.Context, di.Resolver) (int, error)) {
	type svc struct{ A int }

	opt := di.WithService(func() *svc { return &svc{A: n} }, di.InScope(dihttp.RequestScoped))
	return opt, func(ctx context.Context, r di.Resolver) (int, error) {
		s, err := di.Resolve[*svc](ctx, r)
		if err != nil {
			return 0, err
		}
		return s.A, nil
	}
}
