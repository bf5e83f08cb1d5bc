package server

// Server serves the stub push backend.
//
// RunServer blocks until the process receives a termination signal or
// Shutdown is called. Shutdown is safe to call from any goroutine, more
// than once, and before RunServer.
type Server interface {
	RunServer()
	Shutdown()
}
