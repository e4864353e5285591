package dicontext

import (
	"context"
	"reflect"

	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/internal/errors"
)

type resolverContextKey struct{}

// WithResolver returns a new [context.Context] that carries the provided [di.Resolver].
func WithResolver(ctx context.Context, r di.Resolver) context.Context {
	return context.WithValue(ctx, resolverContextKey{}, r)
}

// Resolver returns the [di.Resolver] stored on the [context.Context], if present.
func Resolver(ctx context.Context) di.Resolver {
	if r, ok := ctx.Value(resolverContextKey{}).(di.Resolver); ok {
		return r
	}
	return nil
}

// ErrResolverNotFound is returned when there is no [di.Resolver] on the context.
var ErrResolverNotFound = errors.New("resolver not found on context")

// Resolve a service of type Service from the [di.Resolver] stored on the
// [context.Context].
//
// The context is also passed to the Resolver, so request and session scoped
// services resolve within the scope carried by ctx.
func Resolve[Service any](ctx context.Context, opts ...di.ResolveOption) (Service, error) {
	var val Service

	r := Resolver(ctx)
	if r == nil {
		return val, errors.Wrapf(ErrResolverNotFound, "resolve %s from context", reflect.TypeFor[Service]())
	}

	val, err := di.Resolve[Service](ctx, r, opts...)
	return val, errors.Wrap(err, "resolve from context")
}

// MustResolve resolves a service of the given type from the [di.Resolver] stored on the
// [context.Context].
//
// If the service cannot be resolved, this function will panic.
func MustResolve[Service any](ctx context.Context, opts ...di.ResolveOption) Service {
	val, err := Resolve[Service](ctx, opts...)
	if err != nil {
		panic(err)
	}
	return val
}

// ResolveKey resolves the service identified by key from the [di.Resolver] stored on the
// [context.Context].
func ResolveKey(ctx context.Context, key di.Key) (any, error) {
	r := Resolver(ctx)
	if r == nil {
		return nil, errors.Wrapf(ErrResolverNotFound, "resolve %s from context", key)
	}

	val, err := di.ResolveKey(ctx, r, key)
	return val, errors.Wrap(err, "resolve from context")
}
