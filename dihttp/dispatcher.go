package dihttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/dicontext"
	"github.com/sectrean/di-web/dihttp/session"
	"github.com/sectrean/di-web/internal/errors"
)

// Dispatcher is the entry point for HTTP requests.
//
// For each request it opens a request scope, puts the [di.Container] on the request context
// and sends the request through its [Pipeline]. The request [Store] is closed when the
// request completes.
//
// The request scope makes [RequestScoped] and [SessionScoped] services and [Bindings]
// available. They can be resolved with [dicontext.Resolve].
type Dispatcher struct {
	container    *di.Container
	pipeline     *Pipeline
	sessions     *session.Manager
	errorHandler ErrorHandler
	closeHandler ScopeCloseErrorHandler
	logger       *slog.Logger
}

// NewDispatcher creates a new [Dispatcher].
//
// Available options:
//   - [WithPipeline] sets the filters and servlets. Without it, the Dispatcher only opens
//     request scopes and calls the next handler.
//   - [WithSessionManager] sets the session manager. The default keeps sessions in memory.
//   - [WithErrorHandler] handles errors in [Dispatcher.Middleware].
//   - [WithScopeCloseErrorHandler] handles errors closing the request scope.
//   - [WithLogger] sets the logger used by the default handlers.
func NewDispatcher(c *di.Container, opts ...DispatcherOption) (*Dispatcher, error) {
	if c == nil {
		return nil, errors.New("dihttp.NewDispatcher: container is nil")
	}

	d := &Dispatcher{
		container: c,
		logger:    slog.Default(),
	}

	var errs errors.MultiError
	for _, opt := range opts {
		errs = errs.Append(opt.applyDispatcher(d))
	}
	if err := errs.Wrap("dihttp.NewDispatcher"); err != nil {
		return nil, err
	}

	if d.sessions == nil {
		d.sessions = session.NewManager()
	}
	if d.errorHandler == nil {
		d.errorHandler = d.defaultErrorHandler
	}
	if d.closeHandler == nil {
		d.closeHandler = d.defaultScopeCloseErrorHandler
	}

	return d, nil
}

// Pipeline returns the Pipeline of the Dispatcher, or nil.
func (d *Dispatcher) Pipeline() *Pipeline {
	return d.pipeline
}

// Sessions returns the session manager of the Dispatcher.
func (d *Dispatcher) Sessions() *session.Manager {
	return d.sessions
}

// Init initializes the [Pipeline].
func (d *Dispatcher) Init(ctx context.Context) error {
	if d.pipeline == nil {
		return nil
	}
	return d.pipeline.Init(ctx)
}

// Destroy destroys the [Pipeline] after running requests have completed.
func (d *Dispatcher) Destroy(ctx context.Context) error {
	if d.pipeline == nil {
		return nil
	}
	return d.pipeline.Destroy(ctx)
}

// Dispatch handles a request inside a request scope.
//
// If ctx is already inside a request handled by a Dispatcher, that request scope is used.
// next is called for requests that no servlet handles, and may be nil.
// Errors are returned as is.
func (d *Dispatcher) Dispatch(w http.ResponseWriter, r *http.Request, next FilterChain) error {
	if st := stateFrom(r.Context()); st != nil && st.live {
		return d.dispatch(st, w, r, next)
	}

	st := &requestState{
		store:    NewStore(),
		live:     true,
		sessions: d.sessions,
		req:      r,
		resp:     w,
	}

	ctx := dicontext.WithResolver(r.Context(), d.container)
	ctx = withState(ctx, st)
	r = r.WithContext(ctx)
	st.req = r

	defer func() {
		if err := st.store.Close(ctx); err != nil && d.closeHandler != nil {
			d.closeHandler(r, errors.Wrap(err, "close request scope"))
		}
	}()

	return d.dispatch(st, w, r, next)
}

func (d *Dispatcher) dispatch(st *requestState, w http.ResponseWriter, r *http.Request, next FilterChain) error {
	if d.pipeline != nil {
		return d.pipeline.Dispatch(w, r, next)
	}

	if next == nil {
		return nil
	}

	restore := st.setCurrent(w, r)
	defer restore()

	return next.DoFilter(w, r)
}

// Middleware returns net/http middleware that dispatches requests.
//
// Requests that no servlet handles go to next. Errors are passed to the error handler.
func (d *Dispatcher) Middleware(next http.Handler) http.Handler {
	var chain FilterChain
	if next != nil {
		chain = Handler(next)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &trackingWriter{ResponseWriter: w}
		err := d.Dispatch(tw, r, chain)
		if err != nil && d.errorHandler != nil {
			d.errorHandler(tw, r, err)
		}
	})
}

// trackingWriter records whether the response has been started.
type trackingWriter struct {
	http.ResponseWriter
	started bool
}

func (w *trackingWriter) WriteHeader(code int) {
	// Informational responses are followed by the real one
	if code >= 200 {
		w.started = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.started = true
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Flush() {
	w.started = true
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets [http.ResponseController] reach the underlying writer.
func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// ResponseStarted reports whether a status or body has been written to w.
// It only knows about writers passed on by [Dispatcher.Middleware], and is false for others.
func ResponseStarted(w http.ResponseWriter) bool {
	tw, ok := w.(*trackingWriter)
	return ok && tw.started
}

// ServeHTTP dispatches the request. Requests that no servlet handles get a 404 response.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.Middleware(http.NotFoundHandler()).ServeHTTP(w, r)
}

// ErrorHandler writes an error response to the client.
// This is called by [Dispatcher.Middleware] when a filter or servlet returns an error.
//
// The default handler logs the error and writes a 500 Internal Server Error response,
// unless the response has already been started.
type ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error)

func (d *Dispatcher) defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	d.logger.ErrorContext(r.Context(), "error dispatching HTTP request",
		"error", err,
		"path", r.URL.Path,
	)
	if ResponseStarted(w) {
		return
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// ScopeCloseErrorHandler handles errors closing the request scope after the request
// has completed.
//
// The default handler logs the error.
type ScopeCloseErrorHandler = func(r *http.Request, err error)

func (d *Dispatcher) defaultScopeCloseErrorHandler(r *http.Request, err error) {
	d.logger.ErrorContext(r.Context(), "error closing HTTP request scope", "error", err)
}

var _ http.Handler = (*Dispatcher)(nil)
