// Package logger builds the zap logger used across the application.
//
// # Configuration
//
// The logger is configured through [Config], which is loaded from the
// "log" section of the application configuration. Two formats are
// supported: "console" for human-readable output and "json" for
// structured output suitable for log aggregation.
//
// # Request scoping
//
// [WithRequestID] derives a child logger carrying the request id set by
// the requestid middleware, so every line emitted while serving a
// request can be correlated.
package logger
