package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sectrean/di-web/internal/errors"
)

// DefaultCookieName is the name of the session cookie.
const DefaultCookieName = "DIWEBSESSIONID"

// ErrNoSession is returned by [Manager.Session] when the request has no session and
// one should not be created.
var ErrNoSession = errors.New("no session")

// Manager keeps sessions in memory and finds the session of a request by its cookie.
type Manager struct {
	sessions   *xsync.MapOf[string, *Session]
	cookieName string
	cookiePath string
	secure     bool
	sameSite   http.SameSite
}

// NewManager creates a new [Manager].
//
// Available options:
//   - [WithCookieName]
//   - [WithCookiePath]
//   - [WithSecureCookie]
//   - [WithSameSite]
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions:   xsync.NewMapOf[string, *Session](),
		cookieName: DefaultCookieName,
		cookiePath: "/",
		sameSite:   http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns the session of r.
//
// If r has no valid session and create is true, a new session is created and its cookie
// is set on w. Otherwise [ErrNoSession] is returned.
func (m *Manager) Session(w http.ResponseWriter, r *http.Request, create bool) (*Session, error) {
	if r != nil {
		if c, err := r.Cookie(m.cookieName); err == nil {
			if s, ok := m.sessions.Load(c.Value); ok && s.IsValid() {
				return s, nil
			}
		}
	}

	if !create {
		return nil, ErrNoSession
	}
	if w == nil {
		return nil, errors.New("session.Manager.Session: cannot create a session without a response")
	}

	s := newSession(uuid.NewString(), m.remove)
	m.sessions.Store(s.id, s)

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    s.id,
		Path:     m.cookiePath,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: m.sameSite,
	})

	return s, nil
}

// Get returns the valid session with the given ID.
func (m *Manager) Get(id string) (*Session, bool) {
	s, ok := m.sessions.Load(id)
	if !ok || !s.IsValid() {
		return nil, false
	}
	return s, true
}

// Restore adds a decoded session to the Manager.
func (m *Manager) Restore(s *Session) error {
	if s == nil || s.id == "" {
		return errors.New("session.Manager.Restore: session has no ID")
	}

	s.onInvalidate = m.remove
	m.sessions.Store(s.id, s)
	return nil
}

// Invalidate invalidates the session with the given ID, if there is one.
func (m *Manager) Invalidate(ctx context.Context, id string) error {
	s, ok := m.sessions.Load(id)
	if !ok {
		return nil
	}
	return s.Invalidate(ctx)
}

// Len returns the number of sessions.
func (m *Manager) Len() int {
	return m.sessions.Size()
}

// Close invalidates all sessions.
func (m *Manager) Close(ctx context.Context) error {
	var errs errors.MultiError
	m.sessions.Range(func(_ string, s *Session) bool {
		errs = errs.Append(s.Invalidate(ctx))
		return true
	})
	return errs.Wrap("session.Manager.Close")
}

func (m *Manager) remove(id string) {
	m.sessions.Delete(id)
}

// ManagerOption configures a [Manager].
type ManagerOption func(*Manager)

// WithCookieName sets the name of the session cookie.
func WithCookieName(name string) ManagerOption {
	return func(m *Manager) {
		m.cookieName = name
	}
}

// WithCookiePath sets the path of the session cookie. The default is "/".
func WithCookiePath(path string) ManagerOption {
	return func(m *Manager) {
		m.cookiePath = path
	}
}

// WithSecureCookie sets the Secure attribute of the session cookie.
func WithSecureCookie(secure bool) ManagerOption {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithSameSite sets the SameSite attribute of the session cookie. The default is Lax.
func WithSameSite(mode http.SameSite) ManagerOption {
	return func(m *Manager) {
		m.sameSite = mode
	}
}
