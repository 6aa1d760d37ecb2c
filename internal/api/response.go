package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sandwormmr-eng/spun/internal/chain"
	"github.com/sandwormmr-eng/spun/internal/models"
	"github.com/sandwormmr-eng/spun/internal/oracle"
	"github.com/sandwormmr-eng/spun/internal/referral"
	"github.com/sandwormmr-eng/spun/internal/store"

	"go.uber.org/zap"
)

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("Failed to encode response", zap.Error(err))
	}
}

// writeError maps service failures onto the wire. Collaborator failures are
// retryable 500s for the caller; nothing here ever panics the handler.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var message string

	switch {
	case errors.Is(err, referral.ErrInvalidInput):
		status, message = http.StatusBadRequest, "Invalid input"
	case errors.Is(err, referral.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, store.ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	case errors.Is(err, oracle.ErrUnavailable):
		status, message = http.StatusInternalServerError, "Pricing unavailable"
	case errors.Is(err, chain.ErrUnavailable):
		status, message = http.StatusInternalServerError, "Chain RPC unavailable"
	case errors.Is(err, store.ErrUnavailable):
		status, message = http.StatusInternalServerError, "Store unavailable"
	default:
		status, message = http.StatusInternalServerError, "Internal server error"
	}

	if status >= http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}

	a.writeJSON(w, status, models.ErrorResponse{Error: message})
}
