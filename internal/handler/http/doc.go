// Package http implements the HTTP surface of the stub push backend.
//
// It exposes the /mobile/3 routes the engine adapter talks to. Request
// tracing, access logging, response compression and authorization are
// handled by middleware before requests reach the [stub.Backend].
package http
