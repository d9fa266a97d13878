// Package server provides HTTP routing, middleware, and OAuth sign-in handling for the web app.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [ChiRouter] implements it on a chi mux. [Middleware] is applied in the order it is added,
// and must be added before routes are registered.
//
// # Middleware
//
// [Standard] returns the stack every request passes through. [Sessions] runs last and resolves the
// session cookie into a request identity.
//
// [RequireUser] and [RequireUserPage] guard the JSON write API and the signed-in pages. [CORS] and
// [RateLimit] are mounted on route groups.
//
// # OAuth Sign-In
//
// [OAuthHandler] runs the authorization code flow for each configured identity provider.
// The state parameter is bound to a short-lived signed cookie that also carries the relative
// path to return to. The callback exchanges the code, signs the account in, and sets the session cookie.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
