package testutils

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// LogError logs err if it is not nil, so error messages can be reviewed in verbose test output.
func LogError(t *testing.T, err error) {
	if err == nil {
		return
	}

	t.Helper()
	t.Logf("error message:\n%v", err)
}

type ctxKey struct{}

// ContextWithTestValue returns a context with the provided value.
func ContextWithTestValue(ctx context.Context, val any) context.Context {
	return context.WithValue(ctx, ctxKey{}, val)
}

// TestValue returns the value set with ContextWithTestValue.
func TestValue(ctx context.Context) any {
	return ctx.Value(ctxKey{})
}

// RunParallel calls f concurrently with each index from 0 to concurrency-1 and waits
// for all calls to return.
func RunParallel(concurrency int, f func(int)) {
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := range concurrency {
		go func() {
			defer wg.Done()
			f(i)
		}()
	}

	wg.Wait()
}

// CollectChannel collects all values from a channel and returns them in a slice.
func CollectChannel[V any](ch <-chan V) []V {
	//nolint:prealloc // No way of knowing the number of values in the channel
	var values []V
	for v := range ch {
		values = append(values, v)
	}

	return values
}

// RunRequest serves a GET request for path with h and returns the status code.
func RunRequest(t *testing.T, h http.Handler, path string, cookies ...*http.Cookie) int {
	return ServeRequest(t, h, path, cookies...).Code
}

// ServeRequest serves a GET request for path with h and returns the recorded response.
func ServeRequest(t *testing.T, h http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, path, http.NoBody)
	require.NoError(t, err)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

// DiscardLogger returns a logger that writes nothing.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
