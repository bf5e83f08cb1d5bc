package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-push-sync/internal/delta"
	"github.com/MKhiriev/go-push-sync/internal/logger"
)

// personalizeRequest mirrors models.PersonalizeRequest with delta values.
type personalizeRequest struct {
	UserIdentity   delta.Map `json:"userIdentity"`
	UserAttributes delta.Map `json:"userAttributes"`
}

func (h *Handler) fetchUser(w http.ResponseWriter, r *http.Request) {
	regID, err := registrationID(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.backend.FetchUser(r.Context(), callerFromContext(r.Context()), regID)
	if err != nil {
		logger.FromRequest(r).Err(err).Str("func", "*Handler.fetchUser").Msg("error fetching user")
		h.writeError(w, r, err)
		return
	}

	h.writeMap(w, r, user, http.StatusOK)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	regID, err := registrationID(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	patch, err := decodeMap(r)
	if err != nil {
		log.Err(err).Str("func", "*Handler.updateUser").Msg("Invalid JSON was passed")
		h.writeError(w, r, err)
		return
	}

	if err = h.backend.UpdateUser(r.Context(), callerFromContext(r.Context()), regID, patch); err != nil {
		log.Err(err).Str("func", "*Handler.updateUser").Msg("error updating user")
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) personalize(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	regID, err := registrationID(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req personalizeRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.personalize").Msg("Invalid JSON was passed")
		h.writeError(w, r, ErrInvalidJSON)
		return
	}
	// a missing flag means no forced depersonalization
	force, _ := strconv.ParseBool(r.URL.Query().Get("forceDepersonalize"))

	user, err := h.backend.Personalize(r.Context(), callerFromContext(r.Context()), regID, req.UserIdentity, req.UserAttributes, force)
	if err != nil {
		log.Err(err).Str("func", "*Handler.personalize").Msg("error personalizing installation")
		h.writeError(w, r, err)
		return
	}

	h.writeMap(w, r, user, http.StatusOK)
}

func (h *Handler) depersonalize(w http.ResponseWriter, r *http.Request) {
	regID, err := registrationID(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err = h.backend.Depersonalize(r.Context(), callerFromContext(r.Context()), regID); err != nil {
		logger.FromRequest(r).Err(err).Str("func", "*Handler.depersonalize").Msg("error depersonalizing installation")
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
