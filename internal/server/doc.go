// Package server provides HTTP routing, middleware, sessions and handlers for the lecture catalog.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in the order added (first added executes first).
//
// The [BasicRouter] implementation wraps a chi mux; [BasicRouter.Group] scopes middleware to a set of routes.
//
// # Authentication
//
// Admin routes run behind [RequireAuth]. [LoadPrincipal] reads the signed session cookie, loads the user and
// stores a [Principal] in the request context; handlers read it back with [PrincipalFrom].
//
// Login attempts are throttled per client IP by [IPLimiter].
//
// # Routes
//
//	GET  /                          recent lectures
//	GET  /search                    search page
//	GET  /api/search                JSON search
//	GET  /healthz                   liveness
//	GET  /login, POST /login        admin sign-in
//	GET  /logout
//	GET  /admin/lectures/new        add lecture (POST to submit)
//	GET  /admin/lectures/{id}/edit  edit lecture (POST to submit)
//	GET  /admin/metadata            topics, tags and ranks (POST to add one)
//	GET  /admin/data                export, import and reset controls
//	GET  /admin/data/export         snapshot download
//	POST /admin/data/import         multipart "file" snapshot upload
//	POST /admin/data/reset          wipes the catalog, responds with the prior snapshot
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
