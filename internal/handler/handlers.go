package handler

import (
	"github.com/MKhiriev/go-push-sync/internal/config"
	"github.com/MKhiriev/go-push-sync/internal/handler/http"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/stub"
)

type Handlers struct {
	HTTP *http.Handler
}

// NewHandlers builds the transport handlers of the stub backend.
func NewHandlers(backend *stub.Backend, cfg config.EngineStub, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	if !cfg.Enabled || backend == nil {
		return nil, errNoHandlersAreCreated
	}

	return &Handlers{HTTP: http.NewHandler(backend, logger)}, nil
}
