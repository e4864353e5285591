package di

import (
	"context"
	"reflect"

	"github.com/sectrean/di-web/internal/errors"
)

// Closer is used to close a service when closing the Container.
//
// If a resolved service implements Closer, or one of the other compatible function signatures,
// the Close function will be called when the Container is closed.
//
// Any of these Close method signatures are supported:
//
//	Close(context.Context) error
//	Close(context.Context)
//	Close() error
//	Close()
//
// See related options:
//   - [IgnoreCloser]
//   - [WithCloser]
//   - [WithCloseFunc]
type Closer interface {
	Close(ctx context.Context) error
}

// AsCloser returns a [Closer] for val if it has one of the supported Close method signatures.
// Otherwise it returns nil.
//
// [Scope] implementations use it to close the instances they cache.
func AsCloser(val any) Closer {
	switch c := val.(type) {
	case Closer:
		return c
	case closerWithContextNoError:
		return closeFunc(func(ctx context.Context) error {
			c.Close(ctx)
			return nil
		})
	case closerNoContextWithError:
		return closeFunc(func(context.Context) error {
			return c.Close()
		})
	case closerNoContextNoError:
		return closeFunc(func(context.Context) error {
			c.Close()
			return nil
		})
	default:
		return nil
	}
}

// WithCloser is used to close a value service when the Container is closed.
//
// Function services are closed by default. Value services are not.
func WithCloser() ServiceOption {
	return serviceOption(func(s service) error {
		s.setCloserFactory(AsCloser)
		return nil
	})
}

// IgnoreCloser is used when you do not want a service that implements Closer, or another
// supported Close function signature, to be closed when the Container is closed.
//
// This is useful when you want to manage the lifecycle of a service outside of the Container.
func IgnoreCloser() ServiceOption {
	return serviceOption(func(s service) error {
		s.setCloserFactory(nil)
		return nil
	})
}

type closerFactory func(val any) Closer

// WithCloseFunc can be used to set a custom function to call for a service when the Container is closed.
//
// Example:
//
//	di.WithCloseFunc(func(ctx context.Context, s *http.Server) error {
//		return s.Shutdown(ctx)
//	})
//
// This option will return an error if the service type is not assignable to T.
func WithCloseFunc[T any](f func(context.Context, T) error) ServiceOption {
	return serviceOption(func(s service) error {
		svcType := s.Key().Type
		closerType := reflect.TypeFor[T]()

		if !svcType.AssignableTo(closerType) {
			return errors.Errorf("with close func: service type %s is not assignable to %s",
				svcType, closerType)
		}

		s.setCloserFactory(func(val any) Closer {
			return closeFunc(func(ctx context.Context) error {
				return f(ctx, val.(T))
			})
		})
		return nil
	})
}

type closerWithContextNoError interface {
	Close(ctx context.Context)
}

type closerNoContextWithError interface {
	Close() error
}

type closerNoContextNoError interface {
	Close()
}

type closeFunc func(context.Context) error

func (f closeFunc) Close(ctx context.Context) error {
	return f(ctx)
}
