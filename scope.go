package di

import (
	"context"
	"reflect"
	"sync/atomic"

	"github.com/sectrean/di-web/internal/errors"
)

// Scope decides when instances of a service registered with [InScope] are reused.
//
// The [Container] calls Scope every time such a service is resolved. Implementations
// look up the instance for key in their own storage and only call unscoped when it is
// missing. The context is the one passed to [Container.Resolve], so a Scope can find
// its storage on it.
//
// Scope implementations that cannot find their storage should return an error that
// names the key.
type Scope interface {
	Scope(ctx context.Context, key Key, unscoped func() (any, error)) (any, error)
}

// ScopeFunc adapts a function to the [Scope] interface.
type ScopeFunc func(ctx context.Context, key Key, unscoped func() (any, error)) (any, error)

// Scope calls f.
func (f ScopeFunc) Scope(ctx context.Context, key Key, unscoped func() (any, error)) (any, error) {
	return f(ctx, key, unscoped)
}

// Resolver allows you to resolve services.
//
// A Resolver can be injected into functions to allow them to resolve services. However,
// it cannot be used within the constructor function. It can be stored in a struct or
// used in a closure after the constructor function has returned.
//
// Resolver is implemented by *Container.
type Resolver interface {
	// Contains returns true if the Resolver has a service of the given type.
	//
	// Available options:
	// 	- [WithTag] specifies the tag associated with the service.
	Contains(t reflect.Type, opts ...ResolveOption) bool

	// Resolve returns a service of the given type.
	//
	// Available options:
	// 	- [WithTag] specifies the tag associated with the service.
	Resolve(ctx context.Context, t reflect.Type, opts ...ResolveOption) (any, error)
}

// Resolve a service of the given type from the [Resolver].
func Resolve[T any](ctx context.Context, r Resolver, opts ...ResolveOption) (T, error) {
	var val T
	anyVal, err := r.Resolve(ctx, reflect.TypeFor[T](), opts...)
	if anyVal != nil {
		val = anyVal.(T)
	}

	return val, err
}

// MustResolve resolves a service of the given type from the [Resolver].
//
// If the service cannot be resolved, this function will panic.
func MustResolve[T any](ctx context.Context, r Resolver, opts ...ResolveOption) T {
	val, err := Resolve[T](ctx, r, opts...)
	if err != nil {
		panic(err)
	}
	return val
}

// ResolveKey resolves the service identified by key from the [Resolver].
func ResolveKey(ctx context.Context, r Resolver, key Key) (any, error) {
	return r.Resolve(ctx, key.Type, WithTag(key.Tag))
}

func newInjectedResolver(r Resolver, key Key) (*injectedResolver, func()) {
	wrapper := &injectedResolver{
		key:      key,
		resolver: r,
	}

	return wrapper, wrapper.setReady
}

// injectedResolver wraps a Container to be injected as a Resolver dependency.
type injectedResolver struct {
	// key is the service the Resolver is getting injected into
	key      Key
	resolver Resolver
	ready    atomic.Bool
}

func (r *injectedResolver) setReady() {
	r.ready.Store(true)
}

func (r *injectedResolver) Contains(t reflect.Type, opts ...ResolveOption) bool {
	return r.resolver.Contains(t, opts...)
}

func (r *injectedResolver) Resolve(
	ctx context.Context,
	t reflect.Type,
	opts ...ResolveOption,
) (any, error) {
	if !r.ready.Load() {
		return nil, errors.Errorf(
			"resolve %v: "+
				"resolve not supported on di.Resolver while resolving %s: "+
				"the resolver must be stored and used later",
			t, r.key,
		)
	}

	return r.resolver.Resolve(ctx, t, opts...)
}

var _ Resolver = (*injectedResolver)(nil)
