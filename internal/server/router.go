package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ChiRouter implements [Router] on top of a [chi.Mux].
//
// Middleware must be added with [ChiRouter.Use] before any route is registered.
type ChiRouter struct {
	mux *chi.Mux
}

// NewRouter creates a new [ChiRouter] instance.
func NewRouter() *ChiRouter {
	return &ChiRouter{mux: chi.NewRouter()}
}

// Use adds [Middleware] to the stack, applied in the order it's added.
func (r *ChiRouter) Use(middleware ...Middleware) {
	for _, m := range middleware {
		r.mux.Use(m)
	}
}

// Handle registers a handler for the specified HTTP method and path.
//
// Requests with any other method receive 405 Method Not Allowed.
func (r *ChiRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Method(method, path, handler)
}

// Handler registers every route of a [Handler].
func (r *ChiRouter) Handler(handler Handler) {
	handler.Routes(r.mux)
}

// Group registers routes that share an extra middleware stack.
func (r *ChiRouter) Group(fn func(chi.Router)) {
	r.mux.Group(fn)
}

// NotFound sets the handler for unmatched paths.
func (r *ChiRouter) NotFound(h http.HandlerFunc) {
	r.mux.NotFound(h)
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *ChiRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
