package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sandwormmr-eng/spun/internal/models"

	"github.com/gorilla/mux"
)

func (a *API) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	// The body is optional: a session without a referral code is valid.
	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := a.sessions.CreateSession(r.Context(), req.ReferralCode)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["sessionId"]
	if sessionId == "" {
		a.writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Missing sessionId"})
		return
	}

	confirmed, err := a.sessions.CheckConfirmation(r.Context(), sessionId)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	resp := models.SessionStatusResponse{Confirmed: confirmed}
	if confirmed {
		resp.InstallCommand = a.installCommand
	}
	a.writeJSON(w, http.StatusOK, resp)
}
