package http

import (
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/stub"
	"github.com/MKhiriev/go-push-sync/internal/utils"
)

// Handler serves the push backend API on top of a [stub.Backend].
type Handler struct {
	backend *stub.Backend
	ids     *utils.UUIDGenerator

	logger *logger.Logger
}

func NewHandler(backend *stub.Backend, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		backend: backend,
		ids:     utils.NewUUIDGenerator(),
		logger:  logger,
	}
}
