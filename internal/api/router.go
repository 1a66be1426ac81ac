// Package api is the HTTP boundary: the route table, the API-key guard,
// and the thin handlers that translate between HTTP and the unlock core.
package api

import (
	"log/slog"

	"github.com/gorilla/mux"

	"ringlock/internal/auth"
	"ringlock/internal/config"
	"ringlock/internal/token"
	"ringlock/internal/unlock"
)

// Server bundles the collaborators the handlers need.
type Server struct {
	cfg          *config.Config
	store        *token.Store
	machine      *auth.Machine
	orchestrator *unlock.Orchestrator
	log          *slog.Logger
}

// NewServer wires the HTTP layer to the unlock core.
func NewServer(cfg *config.Config, store *token.Store, machine *auth.Machine, orchestrator *unlock.Orchestrator, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{cfg: cfg, store: store, machine: machine, orchestrator: orchestrator, log: log}
}

// NewRouter builds the route table.
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleHome).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/unlock", s.requireAPIKey(s.handleUnlock)).Methods("GET", "POST")
	r.HandleFunc("/get-token", s.requireAPIKey(s.handleGetToken)).Methods("GET")
	r.HandleFunc("/setup", s.handleSetupPage).Methods("GET")
	r.HandleFunc("/setup/authenticate", s.handleAuthenticate).Methods("POST")
	r.HandleFunc("/setup/verify-2fa", s.handleVerify2FA).Methods("POST")
	return r
}
