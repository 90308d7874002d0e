// Package server provides HTTP routing, middleware, and the admin API for the generation platform.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Admin API
//
// [AdminAPI] implements the [Handler] interface and exposes read and control
// endpoints over the local database and cache:
//
//   - GET  /api/usage      current and historical external API usage
//   - GET  /api/tracks     generated tracks, filterable by batch and deploy state
//   - GET  /api/schedules  recurring generation schedules
//   - POST /api/schedules  create a schedule
//   - POST /api/deploy     promote undeployed tracks to the catalog
//
// The server binds to localhost by default; it is an operator tool, not a
// public surface.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
