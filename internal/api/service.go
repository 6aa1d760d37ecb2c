package api

import (
	"context"
	"net/http"

	"github.com/sandwormmr-eng/spun/internal/models"
	"github.com/sandwormmr-eng/spun/internal/referral"
	"github.com/sandwormmr-eng/spun/internal/session"
	"github.com/sandwormmr-eng/spun/internal/store"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// API is the HTTP surface in front of the session and referral services.
type API struct {
	router         *mux.Router
	sessions       *session.Service
	referrals      *referral.Service
	store          store.Store
	installCommand string
	server         *http.Server
}

func New(cfg models.ServerConfig, installCommand string, sessions *session.Service, referrals *referral.Service, st store.Store) *API {
	a := &API{
		router:         mux.NewRouter(),
		sessions:       sessions,
		referrals:      referrals,
		store:          st,
		installCommand: installCommand,
	}

	a.setupRoutes()

	// The checkout page runs in a browser on another origin, so CORS stays
	// permissive. No credentials are ever carried in these requests.
	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}).Handler(a.router)

	a.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return a
}

func (a *API) setupRoutes() {
	a.router.HandleFunc("/session", a.handleCreateSession).Methods("POST")
	a.router.HandleFunc("/session/{sessionId}/status", a.handleSessionStatus).Methods("GET")

	a.router.HandleFunc("/referral", a.handleCreateReferral).Methods("POST")
	a.router.HandleFunc("/referral/click", a.handleReferralClick).Methods("POST")
	a.router.HandleFunc("/referral/stats", a.handleReferralStats).Methods("GET")

	a.router.HandleFunc("/health", a.handleHealth).Methods("GET")
}

// Handler exposes the fully wired handler chain, mainly for tests.
func (a *API) Handler() http.Handler {
	return a.server.Handler
}

func (a *API) Start() error {
	zap.L().Info("HTTP server listening", zap.String("addr", a.server.Addr))
	return a.server.ListenAndServe()
}

func (a *API) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"storeDegraded": a.store.Degraded(),
	})
}
