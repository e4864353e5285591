package di

import (
	"context"
	"reflect"

	"github.com/sectrean/di-web/internal/errors"
)

// Provider resolves a service of type T each time Get is called.
//
// Inject a Provider into a long-lived service that needs a service with a shorter lifetime.
// Get resolves with the context it is given, so a [Singleton] can reach a scoped service
// of the current request:
//
//	type Handler struct {
//		user di.Provider[*User]
//	}
//
//	func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
//		u, err := h.user.Get(r.Context())
//		...
//	}
//
// Register the Provider with [WithProvider].
type Provider[T any] interface {
	Get(ctx context.Context) (T, error)
}

// WithProvider registers a [Provider] for type T when calling [NewContainer].
//
// Available options:
//   - [WithTag] specifies the tag of the service the Provider resolves.
//     The Provider is registered with the same tag.
func WithProvider[T any](opts ...ResolveOption) ContainerOption {
	return newContainerOption(orderService, func(c *Container) error {
		target := newKey(reflect.TypeFor[T](), opts)
		if err := validateServiceType(target.Type); err != nil {
			return errors.Wrapf(err, "with provider %s", target.Type)
		}

		c.register(&providerService[T]{
			key: Key{
				Type: reflect.TypeFor[Provider[T]](),
				Tag:  target.Tag,
			},
			target: target,
		})
		return nil
	})
}

type resolverProvider[T any] struct {
	resolver Resolver
	key      Key
}

func (p *resolverProvider[T]) Get(ctx context.Context) (T, error) {
	var val T
	anyVal, err := ResolveKey(ctx, p.resolver, p.key)
	if anyVal != nil {
		val = anyVal.(T)
	}

	return val, err
}

var _ Provider[any] = (*resolverProvider[any])(nil)

type providerService[T any] struct {
	key    Key
	target Key
}

var providerDeps = []Key{
	{Type: typeResolver},
}

func (s *providerService[T]) Key() Key {
	return s.key
}

func (s *providerService[T]) setTag(tag any) {
	s.key.Tag = tag
	s.target.Tag = tag
}

func (*providerService[T]) Aliases() []reflect.Type {
	return nil
}

func (*providerService[T]) addAlias(reflect.Type) error {
	return errors.New("aliases not supported for providers")
}

func (*providerService[T]) Lifetime() Lifetime {
	return Singleton
}

func (*providerService[T]) Scope() Scope {
	return nil
}

func (*providerService[T]) setLifetime(Lifetime, Scope) error {
	return errors.New("lifetime not supported for providers")
}

func (*providerService[T]) Dependencies() []Key {
	return providerDeps
}

func (*providerService[T]) IsVariadic() bool {
	return false
}

func (s *providerService[T]) New(deps []reflect.Value) (any, error) {
	return &resolverProvider[T]{
		resolver: deps[0].Interface().(Resolver),
		key:      s.target,
	}, nil
}

func (*providerService[T]) CloserFor(any) Closer {
	return nil
}

func (*providerService[T]) setCloserFactory(closerFactory) {}

func (s *providerService[T]) String() string {
	return s.key.Type.String()
}

var _ service = (*providerService[any])(nil)
