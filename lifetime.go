package di

import (
	"fmt"

	"github.com/sectrean/di-web/internal/errors"
)

// Lifetime specifies how services are created when resolved.
//
// Available lifetimes:
//   - [Singleton] specifies that a service is created once and subsequent requests return the same instance.
//   - [Transient] specifies that a service is created for each request.
//   - [Scoped] specifies that a [Scope] decides when a service is created. Use [InScope] to set it.
type Lifetime uint8

const (
	// Singleton specifies that a service is created once and subsequent requests to resolve return the same instance.
	//
	// This is the default lifetime for services.
	Singleton Lifetime = iota

	// Transient specifies that a service is created for each request.
	Transient Lifetime = iota

	// Scoped specifies that instances are cached by a [Scope].
	//
	// It cannot be used as an option directly. Use [InScope].
	Scoped Lifetime = iota
)

// WithLifetime is used to configure the lifetime of a service when calling [WithService].
//
// Example:
//
//	c, err := di.NewContainer(
//		di.WithService(NewService, di.WithLifetime(di.Transient)),
//		// Lifetime can also be used directly as an option
//		di.WithService(NewService, di.Transient),
//	)
func WithLifetime(lifetime Lifetime) ServiceOption {
	return lifetime
}

func (l Lifetime) applyService(s service) error {
	if l == Scoped {
		return errors.New("lifetime Scoped requires a scope: use di.InScope")
	}
	return s.setLifetime(l, nil)
}

var _ ServiceOption = Singleton

// InScope puts a service in the given [Scope].
//
// The Scope is asked for the instance every time the service is resolved,
// and decides whether to return a cached instance or to create a new one.
//
// Example:
//
//	c, err := di.NewContainer(
//		di.WithService(NewShoppingCart, di.InScope(dihttp.SessionScoped)),
//	)
func InScope(scope Scope) ServiceOption {
	return serviceOption(func(s service) error {
		if scope == nil {
			return errors.New("in scope: scope is nil")
		}
		return s.setLifetime(Scoped, scope)
	})
}

func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "Singleton"
	case Transient:
		return "Transient"
	case Scoped:
		return "Scoped"
	default:
		return fmt.Sprintf("Unknown Lifetime %d", l)
	}
}
