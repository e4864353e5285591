package dihttp

import (
	"context"
	"net/http"
)

// Filter intercepts requests before they reach a [Servlet].
//
// DoFilter calls chain.DoFilter to pass the request on, possibly with a wrapped request or
// response. It can also write a response and return without calling the chain.
// An error stops the request and is returned to the caller of [Dispatcher.Dispatch] as is.
type Filter interface {
	DoFilter(w http.ResponseWriter, r *http.Request, chain FilterChain) error
}

// FilterChain is the rest of the pipeline after a [Filter].
type FilterChain interface {
	DoFilter(w http.ResponseWriter, r *http.Request) error
}

// Servlet handles a request at the end of the pipeline.
type Servlet interface {
	Service(w http.ResponseWriter, r *http.Request) error
}

// Initializer is implemented by filters and servlets that need to be set up before they
// handle requests. Init is called once per instance by [Pipeline.Init].
type Initializer interface {
	Init(ctx context.Context, config Config) error
}

// Destroyer is implemented by filters and servlets that need to release resources.
// Destroy is called once per instance by [Pipeline.Destroy].
type Destroyer interface {
	Destroy(ctx context.Context) error
}

// Config is passed to [Initializer.Init].
type Config struct {
	// Name is the name of the filter or servlet.
	Name string
	// InitParams are the parameters set with [WithInitParams].
	InitParams map[string]string
	// ContextPath is the context path of the pipeline.
	ContextPath string
}

// InitParam returns the init parameter with the given name.
func (c Config) InitParam(name string) string {
	return c.InitParams[name]
}

// FilterFunc adapts a function to the [Filter] interface.
type FilterFunc func(w http.ResponseWriter, r *http.Request, chain FilterChain) error

// DoFilter calls f.
func (f FilterFunc) DoFilter(w http.ResponseWriter, r *http.Request, chain FilterChain) error {
	return f(w, r, chain)
}

// ServletFunc adapts a function to the [Servlet] interface.
type ServletFunc func(w http.ResponseWriter, r *http.Request) error

// Service calls f.
func (f ServletFunc) Service(w http.ResponseWriter, r *http.Request) error {
	return f(w, r)
}

// ChainFunc adapts a function to the [FilterChain] interface.
type ChainFunc func(w http.ResponseWriter, r *http.Request) error

// DoFilter calls f.
func (f ChainFunc) DoFilter(w http.ResponseWriter, r *http.Request) error {
	return f(w, r)
}

// Handler adapts an [http.Handler] so it can be used as a [Servlet] or as the
// [FilterChain] passed to [Dispatcher.Dispatch].
func Handler(h http.Handler) HandlerAdapter {
	return HandlerAdapter{h: h}
}

// HandlerAdapter is returned by [Handler].
type HandlerAdapter struct {
	h http.Handler
}

// Service calls ServeHTTP.
func (a HandlerAdapter) Service(w http.ResponseWriter, r *http.Request) error {
	a.h.ServeHTTP(w, r)
	return nil
}

// DoFilter calls ServeHTTP.
func (a HandlerAdapter) DoFilter(w http.ResponseWriter, r *http.Request) error {
	a.h.ServeHTTP(w, r)
	return nil
}

// Middleware adapts net/http middleware to the [Filter] interface.
//
// The handler passed to mw continues the chain. The error returned by the rest of the chain
// is returned by DoFilter.
func Middleware(mw func(http.Handler) http.Handler) Filter {
	return FilterFunc(func(w http.ResponseWriter, r *http.Request, chain FilterChain) error {
		var err error
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err = chain.DoFilter(w, r)
		})

		mw(next).ServeHTTP(w, r)
		return err
	})
}

var (
	_ Filter      = FilterFunc(nil)
	_ Servlet     = ServletFunc(nil)
	_ FilterChain = ChainFunc(nil)
	_ Servlet     = HandlerAdapter{}
	_ FilterChain = HandlerAdapter{}
)
