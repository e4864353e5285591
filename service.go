package di

import (
	"reflect"

	"github.com/sectrean/di-web/internal/errors"
)

// WithService registers the provided function or value with a new Container
// when calling [NewContainer].
//
// If a function is provided, it will be called to create the service when resolved.
//
// This function can take any number of arguments which will also be resolved from the Container.
// The function may also accept a [context.Context] or [di.Resolver].
// The context is the one passed to [Container.Resolve].
//
// The function must return a service, or the service and an error.
// The service will be registered as the return type of the function.
//
// If the resolved service implements [Closer], or a compatible Close method signature,
// it will be closed when the Container is closed. Scoped services are closed by their [Scope].
//
// If a value is provided, it will be returned as the service when resolved.
// (It will be registered as the actual type even if the the variable was declared as an interface.)
//
// Available options:
//   - [Lifetime] is used to specify how services are created when resolved.
//   - [InScope] puts the service in a [Scope].
//   - [As] registers an alias for a service.
//   - [WithTag] specifies a tag to differentiate between services of the same type.
//   - [WithTagged] specifies a tag for a service dependency.
//   - [WithCloseFunc] specifies a function to be called when the service is closed.
//   - [IgnoreCloser] specifies that the service should not be closed by the Container.
//   - [WithCloser] specifies that a value service should be closed by the Container.
func WithService(funcOrValue any, opts ...ServiceOption) ContainerOption {
	return newContainerOption(orderService, func(c *Container) error {
		if funcOrValue == nil {
			return errors.New("with service: funcOrValue is nil")
		}

		if _, ok := funcOrValue.(ServiceOption); ok {
			return errors.Errorf("with service %T: unexpected ServiceOption as funcOrValue", funcOrValue)
		}

		var svc service
		var err error
		if reflect.TypeOf(funcOrValue).Kind() == reflect.Func {
			svc, err = newFuncService(funcOrValue, opts...)
		} else {
			svc, err = newValueService(funcOrValue, opts...)
		}

		if err != nil {
			return errors.Wrapf(err, "with service %T", funcOrValue)
		}

		c.register(svc)
		return nil
	})
}

func validateServiceType(t reflect.Type) error {
	switch t {
	// These are the only special types used by the Container.
	case typeContext,
		typeResolver,
		typeError:
		return errors.New("invalid service type")
	}

	switch t.Kind() {
	// Slices are reserved for resolving all services of the element type.
	case reflect.Invalid,
		reflect.Slice,
		reflect.UnsafePointer:
		return errors.New("invalid service type")
	}

	return nil
}

// ServiceOption is used to configure service registration when calling [WithService].
type ServiceOption interface {
	applyService(service) error
}

type serviceOption func(service) error

func (o serviceOption) applyService(s service) error {
	return o(s)
}

// As registers an alias for a service. Use when calling [WithService].
//
// The service will be resolved as T instead of its own type.
// Use As more than once to register several aliases.
func As[T any]() ServiceOption {
	return serviceOption(func(s service) error {
		alias := reflect.TypeFor[T]()
		return errors.Wrapf(s.addAlias(alias), "as %s", alias)
	})
}

// service provides information about a service and how to resolve it.
type service interface {
	// Key returns the type and tag of the service.
	Key() Key
	setTag(any)

	// Aliases returns the types that this service can be resolved as.
	Aliases() []reflect.Type
	addAlias(reflect.Type) error

	// Lifetime returns the lifetime of the service.
	Lifetime() Lifetime
	// Scope returns the Scope of a service with the Scoped lifetime.
	Scope() Scope
	setLifetime(Lifetime, Scope) error

	// Dependencies returns the keys of the services that this service depends on.
	Dependencies() []Key
	// IsVariadic returns true if the last dependency is optional.
	IsVariadic() bool

	// New uses the dependencies to create a new instance of the service.
	New(deps []reflect.Value) (any, error)

	// CloserFor returns a Closer for a value created by the service, or nil.
	CloserFor(val any) Closer
	setCloserFactory(closerFactory)
}

type resolveResult struct {
	val any
	err error
}
