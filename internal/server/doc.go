// Package server provides the HTTP API over the song vault.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Handlers
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// [SongsHandler] and [PlaylistsHandler] expose CRUD over the two record
// types, scoped to the caller identified by the X-User-ID header.
// [PublicHandler] serves shared playlists by token with no caller identity.
//
// Creating a song also submits its enrichment jobs to the background queue,
// so new records pick up artwork and catalog ids without blocking the
// request.
package server
