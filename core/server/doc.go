// Package server holds the HTTP plan server configuration.
//
// While the serve command handles the server startup, this package defines
// the configuration structure for server settings.
//
// # Configuration
//
// The Config struct defines the HTTP port and the API key required to
// access the plan endpoints.
//
// # Usage
//
// This package is primarily used by the core/config package to embed server
// settings and by the serve command when wiring middleware.
package server
