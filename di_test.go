package di_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/internal/testutils"
)

func LogError(t *testing.T, err error) {
	t.Helper()
	testutils.LogError(t, err)
}

func ContextWithTestValue(ctx context.Context, val any) context.Context {
	return testutils.ContextWithTestValue(ctx, val)
}

var errNoTestScope = stderrors.New("no test scope on context")

type testScopeKey struct{}

// testScope caches instances in a map stored on the context.
type testScope struct {
	mu        sync.Mutex
	instances map[di.Key]any
}

func withTestScope(ctx context.Context) (context.Context, *testScope) {
	s := &testScope{instances: make(map[di.Key]any)}
	return context.WithValue(ctx, testScopeKey{}, s), s
}

// TestScoped is a di.Scope backed by the testScope on the context.
var TestScoped = di.ScopeFunc(func(ctx context.Context, key di.Key, unscoped func() (any, error)) (any, error) {
	s, ok := ctx.Value(testScopeKey{}).(*testScope)
	if !ok {
		return nil, errNoTestScope
	}

	s.mu.Lock()
	val, ok := s.instances[key]
	s.mu.Unlock()
	if ok {
		return val, nil
	}

	// Scoped services may depend on each other, so don't hold the lock while creating
	val, err := unscoped()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.instances[key]; ok {
		return existing, nil
	}
	s.instances[key] = val

	return val, nil
})
