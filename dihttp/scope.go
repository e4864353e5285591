package dihttp

import (
	"context"
	"fmt"

	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/internal/errors"
)

// RequestScoped is a [di.Scope] that creates an instance once per HTTP request.
//
// Use it with [di.InScope]:
//
//	di.WithService(NewCheckout, di.InScope(dihttp.RequestScoped))
//
// Instances live in the request [Store] and are closed when the request completes.
// Inside a continuation started with [Continue] they live in the continuation's own Store.
var RequestScoped di.Scope = requestScope{}

// SessionScoped is a [di.Scope] that creates an instance once per HTTP session.
//
// Instances live in a [Store] kept as an attribute of the session. They are closed when
// the session is invalidated and are encoded with it, so their types must be registered
// with [gob.Register] if sessions are persisted.
var SessionScoped di.Scope = sessionScope{}

// ErrScopeUnavailable is matched by errors returned when a scoped service is resolved
// outside of the scope it belongs to.
var ErrScopeUnavailable = errors.New("scope unavailable")

// ScopeUnavailableError is returned when a scoped service is resolved with a context that
// has no active request or session.
type ScopeUnavailableError struct {
	// Key is the service that was resolved.
	Key di.Key
	// Scope is "request" or "session".
	Scope string
}

func (e *ScopeUnavailableError) Error() string {
	if e.Scope == sessionScopeName {
		return fmt.Sprintf("cannot access scoped [%s]: no active session: "+
			"not inside an HTTP request handled by dihttp.Dispatcher", e.Key)
	}
	return fmt.Sprintf("cannot access scoped [%s]: "+
		"not inside an HTTP request handled by dihttp.Dispatcher", e.Key)
}

// Is matches [ErrScopeUnavailable].
func (e *ScopeUnavailableError) Is(target error) bool {
	return target == ErrScopeUnavailable
}

const (
	requestScopeName = "request"
	sessionScopeName = "session"

	// storeAttribute is the session attribute holding the session Store.
	storeAttribute = "github.com/sectrean/di-web/dihttp.Store"
)

type requestScope struct{}

func (requestScope) Scope(ctx context.Context, key di.Key, unscoped func() (any, error)) (any, error) {
	st := stateFrom(ctx)
	if st == nil {
		return nil, &ScopeUnavailableError{Key: key, Scope: requestScopeName}
	}

	return st.store.GetOrCreate(key, unscoped)
}

func (requestScope) String() string {
	return "RequestScoped"
}

type sessionScope struct{}

func (sessionScope) Scope(ctx context.Context, key di.Key, unscoped func() (any, error)) (any, error) {
	st := stateFrom(ctx)
	if st == nil {
		return nil, &ScopeUnavailableError{Key: key, Scope: sessionScopeName}
	}

	if !st.live {
		// Outside of a live request only seeded session instances are available
		if val, ok := st.store.Get(key); ok {
			return val, nil
		}
		return nil, &ScopeUnavailableError{Key: key, Scope: sessionScopeName}
	}

	sess, err := st.session(true)
	if err != nil {
		return nil, errors.Wrapf(err, "session scope %s", key)
	}

	attr := sess.LoadOrStoreAttribute(storeAttribute, func() any {
		return NewStore()
	})
	store, ok := attr.(*Store)
	if !ok {
		return nil, errors.Errorf("session scope %s: attribute %s is %T, not *dihttp.Store",
			key, storeAttribute, attr)
	}

	return store.GetOrCreate(key, unscoped)
}

func (sessionScope) String() string {
	return "SessionScoped"
}

// currentScope is used for the request, response, parameters and session bindings.
// It never caches. The instances are taken from the request state on each resolve,
// or from seeded instances outside of a live request.
var currentScope = di.ScopeFunc(func(ctx context.Context, key di.Key, unscoped func() (any, error)) (any, error) {
	st := stateFrom(ctx)
	if st == nil {
		return nil, &ScopeUnavailableError{Key: key, Scope: requestScopeName}
	}

	if val, ok := st.store.Get(key); ok {
		return val, nil
	}

	if !st.live {
		return nil, &ScopeUnavailableError{Key: key, Scope: requestScopeName}
	}

	return unscoped()
})

// IsRequestScoped reports whether the service registered for key is [RequestScoped].
func IsRequestScoped(c *di.Container, key di.Key) bool {
	return scopeOf(c, key) == RequestScoped
}

// IsSessionScoped reports whether the service registered for key is [SessionScoped].
func IsSessionScoped(c *di.Container, key di.Key) bool {
	return scopeOf(c, key) == SessionScoped
}

func scopeOf(c *di.Container, key di.Key) di.Scope {
	lifetime, scope, err := c.Lifetime(key)
	if err != nil || lifetime != di.Scoped {
		return nil
	}
	return scope
}
