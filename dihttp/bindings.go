package dihttp

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/dihttp/session"
)

type bindingTag string

// RequestParameters is the tag of the [url.Values] binding in [Bindings].
// The values are the parsed form of the current request.
const RequestParameters bindingTag = "dihttp.RequestParameters"

// Bindings registers the services of the current request with a [di.Container]:
//   - *http.Request is the request passed to the running filter or servlet.
//   - http.ResponseWriter is the response passed to the running filter or servlet.
//   - url.Values tagged [RequestParameters] is the parsed form of the request.
//   - *session.Session is the session of the request, created on first use.
//
// A filter that wraps the request or response before calling the rest of the chain makes
// the wrapped values visible downstream. They can only be resolved during a request handled
// by a [Dispatcher], or inside a continuation that was seeded with them.
//
// Example:
//
//	c, err := di.NewContainer(
//		di.WithModule(dihttp.Bindings),
//		di.WithService(NewCheckout, di.InScope(dihttp.RequestScoped)), // NewCheckout(*http.Request) *Checkout
//	)
var Bindings = di.Module{
	di.WithService(currentRequest, di.InScope(currentScope)),
	di.WithService(currentResponse, di.InScope(currentScope)),
	di.WithService(requestParameters,
		di.WithTag(RequestParameters),
		di.InScope(currentScope),
	),
	di.WithService(currentSession, di.InScope(currentScope)),
}

func currentRequest(ctx context.Context) *http.Request {
	_, r := stateFrom(ctx).current()
	return r
}

func currentResponse(ctx context.Context) http.ResponseWriter {
	w, _ := stateFrom(ctx).current()
	return w
}

func requestParameters(r *http.Request) (url.Values, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return r.Form, nil
}

func currentSession(ctx context.Context) (*session.Session, error) {
	return stateFrom(ctx).session(true)
}
