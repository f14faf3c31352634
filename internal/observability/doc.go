// Package observability provides structured logging and metrics for the
// estimate API.
//
// This package implements:
//   - zap loggers writing to stderr in dev mode and to a size-rotated file otherwise
//   - Prometheus collectors for HTTP traffic and authorization decisions
package observability
