package dihttp

import (
	"github.com/sectrean/di-web/dihttp/session"
	"github.com/sectrean/di-web/internal/errors"
)

// DispatcherOption is an option used to configure a [Dispatcher] when calling [NewDispatcher].
type DispatcherOption interface {
	applyDispatcher(*Dispatcher) error
}

type dispatcherOption func(*Dispatcher) error

func (o dispatcherOption) applyDispatcher(d *Dispatcher) error {
	return o(d)
}

// WithPipeline sets the [Pipeline] requests are dispatched through.
func WithPipeline(p *Pipeline) DispatcherOption {
	return dispatcherOption(func(d *Dispatcher) error {
		if p == nil {
			return errors.New("with pipeline: p is nil")
		}
		d.pipeline = p
		return nil
	})
}

// WithSessionManager sets the [session.Manager] used by [SessionScoped] services.
func WithSessionManager(m *session.Manager) DispatcherOption {
	return dispatcherOption(func(d *Dispatcher) error {
		if m == nil {
			return errors.New("with session manager: m is nil")
		}
		d.sessions = m
		return nil
	})
}

// WithErrorHandler sets the handler for errors returned by filters and servlets
// in [Dispatcher.Middleware].
func WithErrorHandler(h ErrorHandler) DispatcherOption {
	return dispatcherOption(func(d *Dispatcher) error {
		if h == nil {
			return errors.New("with error handler: h is nil")
		}
		d.errorHandler = h
		return nil
	})
}

// WithScopeCloseErrorHandler sets the handler for errors closing the request scope.
func WithScopeCloseErrorHandler(h ScopeCloseErrorHandler) DispatcherOption {
	return dispatcherOption(func(d *Dispatcher) error {
		if h == nil {
			return errors.New("with scope close error handler: h is nil")
		}
		d.closeHandler = h
		return nil
	})
}
