// Package middleware contains HTTP middleware for the Fiber application.
//
// It provides cross-cutting concerns that sit between the request and the handler.
//
// # Components
//
//   - auth: API key validation (X-API-Key header or Bearer token) protecting the admin endpoints.
//   - rayid: a unique Request ID (RayID) for every incoming request, injected into the
//     context and response headers for tracing.
//
// These components are registered globally in the start command.
package middleware
