package dihttp

import (
	"context"
	"reflect"

	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/dicontext"
	"github.com/sectrean/di-web/internal/errors"
)

// ErrIllegalContinuation is returned when a continuation is run with a context that is
// already inside a live HTTP request.
var ErrIllegalContinuation = errors.New("cannot continue a request inside a live HTTP request")

// Continue prepares target to run later with a request scope of its own, usually on
// another goroutine after the request has completed.
//
// The seeds are copied into a new request [Store] when Continue is called, so later changes
// to the request do not affect the continuation. [RequestScoped] and [SessionScoped] services
// that were seeded resolve to the seeded instances. Other request scoped services are created
// in the continuation's Store and closed when target returns. The request, response,
// parameters and session from [Bindings] fail with [ErrScopeUnavailable] unless seeded.
//
// The [di.Resolver] on ctx is carried to the continuation.
//
// The returned func fails with [ErrIllegalContinuation] if it is called with a context
// inside a live request. It should be called once.
//
// Example:
//
//	work, err := dihttp.Continue(r.Context(), sendReceipt, map[di.Key]any{
//		di.KeyFor[*Order](): order,
//	})
//	go work(context.Background())
func Continue[T any](
	ctx context.Context,
	target func(context.Context) (T, error),
	seeds map[di.Key]any,
) (func(context.Context) (T, error), error) {
	if target == nil {
		return nil, errors.New("dihttp.Continue: target is nil")
	}

	store := NewStore()
	for key, val := range seeds {
		if err := checkSeed(key, val); err != nil {
			return nil, errors.Wrap(err, "dihttp.Continue")
		}
		store.Put(key, val)
	}

	snapshot := &requestState{store: store}
	return bindScope(snapshot, dicontext.Resolver(ctx), true, target), nil
}

// Transfer prepares target to run on another goroutine with the request scope of the
// request on ctx.
//
// Unlike [Continue], the request [Store] is shared with the request, not copied.
// Request scoped instances created by either side are visible to the other.
// Once the request has completed, new instances can no longer be created in the Store.
//
// Transfer returns an error wrapping [ErrScopeUnavailable] if ctx is not inside a request.
func Transfer[T any](
	ctx context.Context,
	target func(context.Context) (T, error),
) (func(context.Context) (T, error), error) {
	if target == nil {
		return nil, errors.New("dihttp.Transfer: target is nil")
	}

	st := stateFrom(ctx)
	if st == nil {
		return nil, errors.Wrap(ErrScopeUnavailable, "dihttp.Transfer: no request scope on context")
	}

	// The request owns the store and closes it
	shared := &requestState{store: st.store}
	return bindScope(shared, dicontext.Resolver(ctx), false, target), nil
}

// ScopeRequest opens a request scope that is not backed by an HTTP request, for work such
// as background jobs.
//
// The seeds are available as in [Continue]. The returned func closes the scope's [Store].
// ScopeRequest fails with [ErrIllegalContinuation] if ctx is inside a live request.
func ScopeRequest(
	ctx context.Context,
	seeds map[di.Key]any,
) (context.Context, func(context.Context) error, error) {
	if st := stateFrom(ctx); st != nil && st.live {
		return nil, nil, errors.Wrap(ErrIllegalContinuation, "dihttp.ScopeRequest")
	}

	store := NewStore()
	for key, val := range seeds {
		if err := checkSeed(key, val); err != nil {
			return nil, nil, errors.Wrap(err, "dihttp.ScopeRequest")
		}
		store.Put(key, val)
	}

	return withState(ctx, &requestState{store: store}), store.Close, nil
}

func bindScope[T any](
	st *requestState,
	r di.Resolver,
	closeStore bool,
	target func(context.Context) (T, error),
) func(context.Context) (T, error) {
	return func(ctx context.Context) (val T, err error) {
		if cur := stateFrom(ctx); cur != nil && cur.live {
			return val, ErrIllegalContinuation
		}

		// The caller's context is left as it is, so its scope is restored when we return
		ctx = withState(ctx, st)
		if r != nil {
			ctx = dicontext.WithResolver(ctx, r)
		}

		if closeStore {
			defer func() {
				if closeErr := st.store.Close(ctx); closeErr != nil {
					err = errors.Join(err, errors.Wrap(closeErr, "close continuation scope"))
				}
			}()
		}

		return target(ctx)
	}
}

func checkSeed(key di.Key, val any) error {
	if key.Type == nil {
		return errors.New("seed has no type")
	}
	if val == nil {
		return nil
	}

	if t := reflect.TypeOf(val); !t.AssignableTo(key.Type) {
		return errors.Errorf("seed %s: value of type %s is not assignable", key, t)
	}
	return nil
}
