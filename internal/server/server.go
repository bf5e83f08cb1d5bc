package server

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"github.com/MKhiriev/go-push-sync/internal/config"
	"github.com/MKhiriev/go-push-sync/internal/handler"
	"github.com/MKhiriev/go-push-sync/internal/logger"
)

type server struct {
	httpServer *httpServer
	logger     *logger.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewServer creates the stub backend server listening on cfg.Address.
func NewServer(handlers *handler.Handlers, cfg config.EngineStub, logger *logger.Logger) (Server, error) {
	switch {
	case !cfg.Enabled:
		return nil, ErrStubDisabled
	case cfg.Address == "":
		return nil, ErrEmptyAddress
	case handlers == nil || handlers.HTTP == nil:
		return nil, ErrNoHandlers
	}

	logger.Info().Str("address", cfg.Address).Msg("creating new server...")
	return &server{
		httpServer: newHTTPServer(handlers.HTTP.Init(), cfg.Address, logger),
		logger:     logger,
		stop:       make(chan struct{}),
	}, nil
}

func (s *server) RunServer() {
	s.run()
}

// Shutdown stops the server. It may be called more than once.
func (s *server) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *server) run() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	s.logger.Info().Msg("Launching HTTP server")
	go s.httpServer.RunServer()

	// wait for a stop signal or an explicit Shutdown
	select {
	case <-ctx.Done():
	case <-s.stop:
	}

	s.httpServer.Shutdown()
	s.logger.Info().Msg("server Shutdown gracefully")
}
