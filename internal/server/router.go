package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// BasicRouter implements the [Router] interface on top of a chi mux.
type BasicRouter struct {
	mux chi.Router
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: chi.NewRouter()}
}

// Use adds [Middleware] to the router's stack, applied in the order it's added.
//
// chi requires middleware to be registered before any route on the same router.
func (r *BasicRouter) Use(middleware ...Middleware) {
	for _, m := range middleware {
		r.mux.Use(m)
	}
}

// Handle registers a handler for the specified HTTP method and path.
//
// Requests to a registered path with any other method get 405 Method Not Allowed.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Method(method, path, handler)
}

// HandleFunc is [BasicRouter.Handle] for plain functions.
func (r *BasicRouter) HandleFunc(method, path string, fn http.HandlerFunc) {
	r.mux.Method(method, path, fn)
}

// Group registers routes on a child router that shares the parent's path space.
// Middleware added inside fn applies only to the group's routes.
func (r *BasicRouter) Group(fn func(Router)) {
	r.mux.Group(func(child chi.Router) {
		fn(&BasicRouter{mux: child})
	})
}

// Route mounts a child router under pattern.
func (r *BasicRouter) Route(pattern string, fn func(Router)) {
	r.mux.Route(pattern, func(child chi.Router) {
		fn(&BasicRouter{mux: child})
	})
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// URLParam returns the value of a {name} path segment.
func URLParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
