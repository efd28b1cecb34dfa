// Package server holds the HTTP server configuration.
//
// The start command owns the Fiber application; this package only defines the
// listen port and the API key protecting the admin endpoints.
package server
