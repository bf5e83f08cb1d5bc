package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/stub"
	"github.com/MKhiriev/go-push-sync/internal/utils"
	"github.com/MKhiriev/go-push-sync/models"
)

const (
	errorCodeConflict    = "USER_MERGE_NOT_ALLOWED"
	errorCodeUnavailable = "SERVICE_UNAVAILABLE"
	errorCodeInternal    = "INTERNAL_ERROR"
)

type errorStatus struct {
	status int
	code   string
}

var errorStatusMap = map[error]errorStatus{
	stub.ErrNoRegistration:      {http.StatusNotFound, models.ErrorCodeNoRegistration},
	stub.ErrMissingPushToken:    {http.StatusBadRequest, models.ErrorCodeBadRequest},
	stub.ErrEmptyIdentity:       {http.StatusBadRequest, models.ErrorCodeBadRequest},
	stub.ErrAlreadyPersonalized: {http.StatusConflict, errorCodeConflict},
	stub.ErrUnauthorized:        {http.StatusUnauthorized, models.ErrorCodeUnauthorized},
	stub.ErrUnavailable:         {http.StatusServiceUnavailable, errorCodeUnavailable},

	ErrEmptyRegistrationID: {http.StatusBadRequest, models.ErrorCodeBadRequest},
	ErrInvalidJSON:         {http.StatusBadRequest, models.ErrorCodeBadRequest},
}

func statusFromError(err error) errorStatus {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return errorStatus{http.StatusInternalServerError, errorCodeInternal}
}

// writeError answers with the backend error envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s := statusFromError(err)
	if _, writeErr := utils.WriteJSON(w, models.NewErrorResponse(s.code, err.Error()), s.status); writeErr != nil {
		logger.FromRequest(r).Err(writeErr).Str("func", "*Handler.writeError").Msg("error writing error response")
	}
}
