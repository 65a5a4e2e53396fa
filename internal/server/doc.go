// Package server provides HTTP routing, middleware, and the REST endpoints for the analytics service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally; method
// restrictions are expressed as ServeMux method patterns.
//
// # OAuth Endpoints
//
// [AuthHandler] implements the authorization-code flow over HTTP: GET /login
// redirects to the provider authorization URL and GET /callback completes the
// exchange through the [session.Manager]. The state parameter is single use,
// so replayed callbacks fail with 403.
//
// # Data Endpoints
//
// [AnalyticsHandler] serves the JSON endpoints consumed by notebooks:
// profile, top tracks/artists, stats, recently played, audio features and
// single-track lookups. Every call is routed through the service facade,
// which ensures a valid bearer token before the outbound request.
//
// # Error Mapping
//
// The three error classes map to distinct statuses: no session yet is 401,
// authorization failures (state mismatch, rejected code or refresh token) are
// 403, and provider failures are 502 with the provider's status carried in
// the response body.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
