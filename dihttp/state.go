package dihttp

import (
	"context"
	"net/http"
	"sync"

	"github.com/sectrean/di-web/dihttp/session"
	"github.com/sectrean/di-web/internal/errors"
)

// requestState is carried on the context of a request, a continuation or a request scope
// opened with ScopeRequest.
//
// live is only set for requests handled by a Dispatcher. The current request and response
// change as filters wrap them, so they are read on every resolve.
type requestState struct {
	store    *Store
	live     bool
	sessions *session.Manager

	mu   sync.Mutex
	req  *http.Request
	resp http.ResponseWriter
	sess *session.Session
}

type stateContextKey struct{}

func withState(ctx context.Context, st *requestState) context.Context {
	return context.WithValue(ctx, stateContextKey{}, st)
}

func stateFrom(ctx context.Context) *requestState {
	if ctx == nil {
		return nil
	}
	st, _ := ctx.Value(stateContextKey{}).(*requestState)
	return st
}

func (s *requestState) current() (http.ResponseWriter, *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resp, s.req
}

// setCurrent makes w and r the current response and request.
// The returned func restores the previous ones.
func (s *requestState) setCurrent(w http.ResponseWriter, r *http.Request) func() {
	s.mu.Lock()
	prevW, prevR := s.resp, s.req
	s.resp, s.req = w, r
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.resp, s.req = prevW, prevR
		s.mu.Unlock()
	}
}

var errNoSessionManager = errors.New("no session manager")

// session returns the session of the request, creating one if create is true.
func (s *requestState) session(create bool) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess != nil && s.sess.IsValid() {
		return s.sess, nil
	}

	if s.sessions == nil {
		return nil, errNoSessionManager
	}

	sess, err := s.sessions.Session(s.resp, s.req, create)
	if err != nil {
		return nil, err
	}

	s.sess = sess
	return sess, nil
}
