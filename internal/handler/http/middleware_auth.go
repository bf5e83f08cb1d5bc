package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/stub"
	"github.com/MKhiriev/go-push-sync/internal/utils"
)

const (
	authorizationHeader      = "Authorization"
	pushRegistrationIDHeader = "pushregistrationid"
)

type ctxKey string

const (
	callerCtxKey ctxKey = "caller"
	regIDCtxKey  ctxKey = "pushRegistrationId"
)

// auth resolves the "Authorization" header into a [stub.Caller] and stores
// it in the request context together with the pushregistrationid header.
//
// Requests are rejected with HTTP 401 when the header is absent, malformed
// or refused by [stub.Backend.Authorize].
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		header := r.Header.Get(authorizationHeader)
		if header == "" {
			log.Err(ErrEmptyAuthorizationHeader).Send()
			h.writeError(w, r, fmt.Errorf("%w: %w", stub.ErrUnauthorized, ErrEmptyAuthorizationHeader))
			return
		}

		scheme, credential, err := utils.ParseAuthorization(header)
		if err != nil {
			log.Err(err).Send()
			h.writeError(w, r, fmt.Errorf("%w: %w", stub.ErrUnauthorized, ErrInvalidAuthorizationHeader))
			return
		}

		caller, err := h.backend.Authorize(scheme, credential)
		if err != nil {
			log.Err(err).Str("scheme", scheme).Msg("authorization refused")
			h.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), callerCtxKey, caller)
		ctx = context.WithValue(ctx, regIDCtxKey, r.Header.Get(pushRegistrationIDHeader))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerFromContext(ctx context.Context) stub.Caller {
	caller, _ := ctx.Value(callerCtxKey).(stub.Caller)
	return caller
}

// registrationID returns the pushregistrationid header stored by auth.
func registrationID(ctx context.Context) (string, error) {
	id, _ := ctx.Value(regIDCtxKey).(string)
	if id == "" {
		return "", ErrEmptyRegistrationID
	}
	return id, nil
}

