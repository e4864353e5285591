package dihttp

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/dicontext"
	"github.com/sectrean/di-web/internal/errors"
	"github.com/sectrean/di-web/urlpattern"
)

type entryKind uint8

const (
	kindFilter entryKind = iota
	kindServlet
)

func (k entryKind) String() string {
	if k == kindServlet {
		return "servlet"
	}
	return "filter"
}

// entry maps one pattern to a filter or servlet.
type entry struct {
	kind    entryKind
	matcher urlpattern.Matcher
	target  any
	name    string
	params  map[string]string

	// instance is set by Init
	instance any
}

// PipelineState is the lifecycle state of a [Pipeline].
type PipelineState uint8

const (
	// Uninitialized is the state of a new Pipeline.
	Uninitialized PipelineState = iota
	// Initialized is the state after a successful Init.
	Initialized
	// Destroyed is the state after Destroy. It is final.
	Destroyed
)

func (s PipelineState) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Initialized:
		return "Initialized"
	default:
		return "Destroyed"
	}
}

// ErrPipelineDestroyed is returned when a destroyed [Pipeline] is used.
var ErrPipelineDestroyed = errors.New("pipeline destroyed")

// Pipeline dispatches requests through the filters and servlets mapped to their paths.
//
// For each request, every filter whose pattern matches the path is called, in the order the
// filters were mapped. When the filters have passed the request on, the first servlet whose
// pattern matches is called. If no servlet matches, the request goes to the next
// [FilterChain] given to [Pipeline.Dispatch].
type Pipeline struct {
	resolver    di.Resolver
	entries     []*entry
	filters     []*entry
	servlets    []*entry
	contextPath string
	logger      *slog.Logger

	mu       sync.Mutex
	state    PipelineState
	initErr  error
	inFlight sync.WaitGroup

	// initialized holds the distinct entries whose Init completed, in mapping order.
	// Destroy takes them.
	initialized []*entry
}

// NewPipeline creates a new [Pipeline].
//
// Targets given as a [di.Key] are resolved from resolver when the Pipeline is initialized.
// An error is returned if a pattern cannot be compiled.
func NewPipeline(resolver di.Resolver, opts ...PipelineOption) (*Pipeline, error) {
	p := &Pipeline{
		resolver: resolver,
		logger:   slog.Default(),
	}

	var errs errors.MultiError
	for _, opt := range opts {
		errs = errs.Append(opt.applyPipeline(p))
	}
	if err := errs.Wrap("dihttp.NewPipeline"); err != nil {
		return nil, err
	}

	if p.resolver == nil {
		for _, e := range p.entries {
			if _, ok := e.target.(di.Key); ok {
				return nil, errors.Errorf("dihttp.NewPipeline: %s %s: resolver is nil", e.kind, e.name)
			}
		}
	}

	return p, nil
}

func (p *Pipeline) addEntry(e *entry) {
	p.entries = append(p.entries, e)
	if e.kind == kindFilter {
		p.filters = append(p.filters, e)
	} else {
		p.servlets = append(p.servlets, e)
	}
}

// State returns the lifecycle state of the Pipeline.
func (p *Pipeline) State() PipelineState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Init resolves the filters and servlets and calls [Initializer.Init] once on each
// distinct instance, in the order they were mapped.
//
// Init is called by the first [Pipeline.Dispatch] if it has not been called.
// Calling it again does nothing. If it fails, the Pipeline is never initialized and
// the same error is returned by later calls. Instances initialized before the failure
// are still destroyed by [Pipeline.Destroy].
func (p *Pipeline) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.initLocked(ctx)
}

func (p *Pipeline) initLocked(ctx context.Context) error {
	switch {
	case p.state == Initialized:
		return nil
	case p.state == Destroyed:
		return errors.Wrap(ErrPipelineDestroyed, "dihttp.Pipeline.Init")
	case p.initErr != nil:
		return p.initErr
	}

	p.initErr = p.initEntries(ctx)
	if p.initErr != nil {
		return p.initErr
	}

	p.state = Initialized
	p.logger.DebugContext(ctx, "filter pipeline initialized",
		"filters", len(p.filters),
		"servlets", len(p.servlets),
	)
	return nil
}

func (p *Pipeline) initEntries(ctx context.Context) error {
	for _, e := range p.entries {
		inst, err := p.resolveTarget(ctx, e)
		if err != nil {
			return errors.Wrapf(err, "dihttp.Pipeline.Init %s %s", e.kind, e.name)
		}
		e.instance = inst
	}

	for _, e := range p.distinctEntries() {
		initializer, ok := e.instance.(Initializer)
		if !ok {
			p.initialized = append(p.initialized, e)
			continue
		}

		config := Config{
			Name:        e.name,
			InitParams:  e.params,
			ContextPath: p.contextPath,
		}
		if err := initializer.Init(ctx, config); err != nil {
			return errors.Wrapf(err, "dihttp.Pipeline.Init %s %s", e.kind, e.name)
		}
		p.initialized = append(p.initialized, e)
	}

	return nil
}

func (p *Pipeline) resolveTarget(ctx context.Context, e *entry) (any, error) {
	key, ok := e.target.(di.Key)
	if !ok {
		return e.target, nil
	}

	inst, err := di.ResolveKey(ctx, p.resolver, key)
	if err != nil {
		return nil, err
	}

	if e.kind == kindFilter {
		if _, ok := inst.(Filter); !ok {
			return nil, errors.Errorf("%T does not implement dihttp.Filter", inst)
		}
	} else if _, ok := inst.(Servlet); !ok {
		return nil, errors.Errorf("%T does not implement dihttp.Servlet", inst)
	}

	return inst, nil
}

// distinctEntries returns the first entry of each distinct instance, in mapping order.
// Only pointers are compared. Other instances are always distinct.
func (p *Pipeline) distinctEntries() []*entry {
	seen := make(map[any]struct{})
	distinct := make([]*entry, 0, len(p.entries))

	for _, e := range p.entries {
		if reflect.ValueOf(e.instance).Kind() == reflect.Ptr {
			if _, dup := seen[e.instance]; dup {
				continue
			}
			seen[e.instance] = struct{}{}
		}
		distinct = append(distinct, e)
	}

	return distinct
}

// ErrDestroyInDispatch is returned when a [Pipeline] is destroyed from one of its own dispatches.
var ErrDestroyInDispatch = errors.New("pipeline destroyed from its own dispatch")

// Destroy waits for running dispatches, then calls [Destroyer.Destroy] once on each
// initialized instance, in reverse mapping order.
//
// If ctx is done before the running dispatches return, Destroy returns the context's error
// without destroying any instance. Calling Destroy again waits again and finishes the job.
// Called with the context of a request the Pipeline is dispatching, Destroy returns
// [ErrDestroyInDispatch].
//
// After Destroy, dispatching fails with [ErrPipelineDestroyed].
func (p *Pipeline) Destroy(ctx context.Context) error {
	if ctx.Value(dispatchContextKey{p}) != nil {
		return errors.Wrap(ErrDestroyInDispatch, "dihttp.Pipeline.Destroy")
	}

	// No dispatch can start once the state is Destroyed
	p.mu.Lock()
	p.state = Destroyed
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "dihttp.Pipeline.Destroy")
	}

	p.mu.Lock()
	initialized := p.initialized
	p.initialized = nil
	p.mu.Unlock()

	if len(initialized) == 0 {
		return nil
	}

	var errs errors.MultiError
	for i := len(initialized) - 1; i >= 0; i-- {
		e := initialized[i]
		if d, ok := e.instance.(Destroyer); ok {
			errs = errs.Append(errors.Wrapf(d.Destroy(ctx), "%s %s", e.kind, e.name))
		}
	}

	p.logger.DebugContext(ctx, "filter pipeline destroyed")
	return errs.Wrap("dihttp.Pipeline.Destroy")
}

// dispatchContextKey marks the context of a request dispatched by p.
type dispatchContextKey struct {
	p *Pipeline
}

// Dispatch sends the request through the filters and servlets that match its path.
//
// If no servlet matches, next is called with the request as passed on by the filters.
// next may be nil. Errors from filters, servlets and next are returned as is.
func (p *Pipeline) Dispatch(w http.ResponseWriter, r *http.Request, next FilterChain) error {
	if err := p.enter(r.Context()); err != nil {
		return err
	}
	defer p.inFlight.Done()

	r = r.WithContext(context.WithValue(r.Context(), dispatchContextKey{p}, true))

	c := chain{
		p:    p,
		st:   stateFrom(r.Context()),
		next: next,
	}
	return c.DoFilter(w, r)
}

func (p *Pipeline) enter(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Destroyed {
		return errors.Wrap(ErrPipelineDestroyed, "dihttp.Pipeline.Dispatch")
	}
	if err := p.initLocked(ctx); err != nil {
		return err
	}

	p.inFlight.Add(1)
	return nil
}

// path returns the path of r used for matching.
func (p *Pipeline) path(r *http.Request) (string, bool) {
	return urlpattern.ContextRelativePath(p.contextPath, r.URL.EscapedPath())
}

// chain is the rest of the pipeline from filter index.
type chain struct {
	p     *Pipeline
	st    *requestState
	next  FilterChain
	index int
}

func (c chain) DoFilter(w http.ResponseWriter, r *http.Request) error {
	r = c.attachScope(r)

	// Filters may change the request, so the path is found again at every step
	path, ok := c.p.path(r)

	if ok {
		for i := c.index; i < len(c.p.filters); i++ {
			e := c.p.filters[i]
			if !e.matcher.Matches(path) {
				continue
			}

			rest := c
			rest.index = i + 1
			filter := e.instance.(Filter)
			return c.invoke(w, r, func(w http.ResponseWriter, r *http.Request) error {
				return filter.DoFilter(w, r, rest)
			})
		}

		// The first servlet mapped wins when several patterns match
		for _, e := range c.p.servlets {
			if !e.matcher.Matches(path) {
				continue
			}

			r = withServletPath(r, e.matcher, path)
			servlet := e.instance.(Servlet)
			return c.invoke(w, r, servlet.Service)
		}
	}

	if c.next == nil {
		return nil
	}
	return c.invoke(w, r, c.next.DoFilter)
}

// invoke makes w and r the current response and request while fn runs.
func (c chain) invoke(
	w http.ResponseWriter,
	r *http.Request,
	fn func(http.ResponseWriter, *http.Request) error,
) error {
	if c.st == nil {
		return fn(w, r)
	}

	restore := c.st.setCurrent(w, r)
	defer restore()

	return fn(w, r)
}

// attachScope puts the request scope back on a request that a filter created
// with a new context.
func (c chain) attachScope(r *http.Request) *http.Request {
	if c.st == nil || stateFrom(r.Context()) == c.st {
		return r
	}

	ctx := withState(r.Context(), c.st)
	if dicontext.Resolver(ctx) == nil && c.p.resolver != nil {
		ctx = dicontext.WithResolver(ctx, c.p.resolver)
	}
	return r.WithContext(ctx)
}

type servletPathContextKey struct{}

type servletPath struct {
	servletPath string
	pathInfo    string
}

func withServletPath(r *http.Request, m urlpattern.Matcher, path string) *http.Request {
	sp := m.ExtractPath(path)

	var info string
	if sp != path && strings.HasPrefix(path, sp) {
		info = path[len(sp):]
	}

	ctx := context.WithValue(r.Context(), servletPathContextKey{}, servletPath{
		servletPath: sp,
		pathInfo:    info,
	})
	return r.WithContext(ctx)
}

// ServletPath returns the part of the request path matched by the servlet's pattern.
//
// For the pattern /api/* and the path /api/users it is /api.
// It is "" for requests that were not dispatched to a servlet.
func ServletPath(r *http.Request) string {
	sp, _ := r.Context().Value(servletPathContextKey{}).(servletPath)
	return sp.servletPath
}

// PathInfo returns the part of the request path after [ServletPath].
//
// For the pattern /api/* and the path /api/users it is /users.
func PathInfo(r *http.Request) string {
	sp, _ := r.Context().Value(servletPathContextKey{}).(servletPath)
	return sp.pathInfo
}
