// Package server exposes the ecosystem map editor over HTTP.
//
// Every browser tab works on its own session. A session holds a live
// [store.Store]; each mutating request runs under the session's lock and
// writes the store snapshot back to the configured [session.Store], so
// sessions survive restarts with the file or Redis backends.
//
// # Routes
//
// All routes live under /api/v1:
//
//	GET    /health
//	POST   /sessions
//	GET    /sessions/{id}
//	DELETE /sessions/{id}
//	POST   /sessions/{id}/upload                         multipart "file"
//	POST   /sessions/{id}/mapping
//	POST   /sessions/{id}/logos                          multipart "files"
//	DELETE /sessions/{id}/logos/{filename}
//	POST   /sessions/{id}/logos/{filename}/associate
//	PATCH  /sessions/{id}/chart
//	PATCH  /sessions/{id}/categories/{name}
//	POST   /sessions/{id}/categories/{name}/move
//	POST   /sessions/{id}/categories/{name}/resize
//	POST   /sessions/{id}/categories/{name}/nudge
//	POST   /sessions/{id}/categories/{name}/columns
//	POST   /sessions/{id}/categories/{name}/columns/cycle
//	POST   /sessions/{id}/layout
//	GET    /sessions/{id}/snapshot
//	PUT    /sessions/{id}/snapshot
//	GET    /sessions/{id}/export.{format}
//
// Errors are returned as {"error": {"code": ..., "message": ...}} with the
// HTTP status derived from the [errors.Code].
//
// [store.Store]: github.com/matzehuels/ecomap/pkg/store.Store
// [session.Store]: github.com/matzehuels/ecomap/pkg/session.Store
// [errors.Code]: github.com/matzehuels/ecomap/pkg/errors.Code
package server
