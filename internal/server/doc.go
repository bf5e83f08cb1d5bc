// Package server runs the stub push backend over HTTP.
//
// It handles startup, signal handling, and graceful shutdown of the
// listener created from the handlers of internal/handler.
package server
