package api

import (
	"encoding/json"
	"net/http"

	"github.com/sandwormmr-eng/spun/internal/models"
)

func (a *API) handleCreateReferral(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	created, err := a.referrals.Create(r.Context(), req.Secret, req.Code, req.Name, req.ContactHandle)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, created)
}

func (a *API) handleReferralClick(w http.ResponseWriter, r *http.Request) {
	var req models.ReferralClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := a.referrals.RecordClick(r.Context(), req.Code); err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) handleReferralStats(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	secret := r.URL.Query().Get("secret")

	stats, err := a.referrals.Stats(r.Context(), secret, code)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, stats)
}
