package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-push-sync/internal/delta"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/utils"
)

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.Ping(); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) createInstance(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	body, err := decodeMap(r)
	if err != nil {
		log.Err(err).Str("func", "*Handler.createInstance").Msg("Invalid JSON was passed")
		h.writeError(w, r, err)
		return
	}

	instance, err := h.backend.CreateInstance(r.Context(), callerFromContext(r.Context()), body)
	if err != nil {
		log.Err(err).Str("func", "*Handler.createInstance").Msg("error creating instance")
		h.writeError(w, r, err)
		return
	}

	h.writeMap(w, r, instance, http.StatusCreated)
}

func (h *Handler) updateInstance(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	regID, err := registrationID(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	patch, err := decodeMap(r)
	if err != nil {
		log.Err(err).Str("func", "*Handler.updateInstance").Msg("Invalid JSON was passed")
		h.writeError(w, r, err)
		return
	}

	if err = h.backend.UpdateInstance(r.Context(), callerFromContext(r.Context()), regID, patch); err != nil {
		log.Err(err).Str("func", "*Handler.updateInstance").Msg("error updating instance")
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) fetchInstance(w http.ResponseWriter, r *http.Request) {
	regID, err := registrationID(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	instance, err := h.backend.FetchInstance(r.Context(), callerFromContext(r.Context()), regID)
	if err != nil {
		logger.FromRequest(r).Err(err).Str("func", "*Handler.fetchInstance").Msg("error fetching instance")
		h.writeError(w, r, err)
		return
	}

	h.writeMap(w, r, instance, http.StatusOK)
}

func (h *Handler) deleteInstance(w http.ResponseWriter, r *http.Request) {
	regID, err := registrationID(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	expired := chi.URLParam(r, "expired")
	if err = h.backend.DeleteInstance(r.Context(), callerFromContext(r.Context()), regID, expired); err != nil {
		logger.FromRequest(r).Err(err).Str("func", "*Handler.deleteInstance").Str("expired", expired).Msg("error deleting instance")
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// decodeMap reads a JSON object from the request body.
func decodeMap(r *http.Request) (delta.Map, error) {
	var m delta.Map
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		return nil, ErrInvalidJSON
	}
	if m == nil {
		m = delta.Map{}
	}
	return m, nil
}

func (h *Handler) writeMap(w http.ResponseWriter, r *http.Request, m delta.Map, status int) {
	if _, err := utils.WriteJSON(w, m, status); err != nil {
		logger.FromRequest(r).Err(err).Str("func", "*Handler.writeMap").Msg("error writing response")
	}
}
