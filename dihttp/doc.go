/*
Package dihttp adds request and session scopes to a [di.Container] and dispatches HTTP
requests through filters and servlets resolved from it.

Services are put in a scope when they are registered:

	c, err := di.NewContainer(
		di.WithModule(dihttp.Bindings),
		di.WithService(NewCart, di.InScope(dihttp.SessionScoped)),
		di.WithService(NewCheckout, di.InScope(dihttp.RequestScoped)),
		di.WithService(NewAuthFilter),
		di.WithService(NewCartServlet),
	)

Filters and servlets are mapped to URL patterns. They are called in the order they are mapped:

	p, err := dihttp.NewPipeline(c,
		dihttp.FilterURL("/*").Through(di.KeyFor[*AuthFilter]()),
		dihttp.Serve("/cart/*").With(di.KeyFor[*CartServlet]()),
	)

The [Dispatcher] opens a request scope for each request and sends it through the pipeline.
Requests that no servlet handles go to the next handler:

	d, err := dihttp.NewDispatcher(c, dihttp.WithPipeline(p))
	http.ListenAndServe(":8080", d.Middleware(http.FileServer(http.Dir("static"))))

Inside a request, scoped services are resolved with the request context:

	func (s *CartServlet) Service(w http.ResponseWriter, r *http.Request) error {
		cart, err := dicontext.Resolve[*Cart](r.Context())
		...
	}

Work that continues after the request has completed is started with [Continue].
*/
package dihttp
