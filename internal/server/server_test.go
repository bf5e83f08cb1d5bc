package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-push-sync/internal/config"
	"github.com/MKhiriev/go-push-sync/internal/handler"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/stub"
)

func newTestHandlers(t *testing.T, cfg config.EngineStub) *handler.Handlers {
	t.Helper()
	h, err := handler.NewHandlers(stub.New(logger.Nop()), cfg, logger.Nop())
	require.NoError(t, err)
	return h
}

func TestNewServer_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handlers *handler.Handlers
		cfg      config.EngineStub
		want     error
	}{
		{name: "stub disabled", handlers: &handler.Handlers{}, cfg: config.EngineStub{}, want: ErrStubDisabled},
		{name: "no address", handlers: &handler.Handlers{}, cfg: config.EngineStub{Enabled: true}, want: ErrEmptyAddress},
		{name: "no handlers", cfg: config.EngineStub{Enabled: true, Address: "127.0.0.1:0"}, want: ErrNoHandlers},
		{name: "empty handlers", handlers: &handler.Handlers{}, cfg: config.EngineStub{Enabled: true, Address: "127.0.0.1:0"}, want: ErrNoHandlers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewServer(tt.handlers, tt.cfg, logger.Nop())
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, s)
		})
	}
}

func TestServer_RunAndShutdown(t *testing.T) {
	cfg := config.EngineStub{Enabled: true, Address: "127.0.0.1:0"}
	s, err := NewServer(newTestHandlers(t, cfg), cfg, logger.Nop())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.RunServer()
		close(done)
	}()

	s.Shutdown()
	s.Shutdown()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
