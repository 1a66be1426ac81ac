package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"ringlock/internal/auth"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// wantsJSON reports whether the caller is an API client rather than a
// browser form post.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func (s *Server) authenticated() bool {
	tok, _ := s.store.Load()
	return tok != nil
}

// handleUnlock is the main endpoint, built for one-tap callers like an iOS
// Shortcut. One request performs at most one actuation attempt.
func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	result := s.orchestrator.Unlock(r.Context())
	if result.Success {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": result.Message,
		})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"success": false,
		"error":   result.Message,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	authenticated := s.authenticated()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"authenticated": authenticated,
		"token_source":  s.store.ActiveSource().String(),
	})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "home", map[string]any{
		"Authenticated": s.authenticated(),
	})
}

// handleGetToken shows the encoded token so the operator can copy it into
// the RING_TOKEN secret when the durable path does not survive redeploys.
func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	tok, _ := s.store.Load()
	if tok == nil {
		s.renderPage(w, "notoken", nil)
		return
	}
	encoded, err := tok.Encode()
	if err != nil {
		http.Error(w, "token not serializable", http.StatusInternalServerError)
		return
	}
	s.renderPage(w, "token", map[string]any{"Encoded": encoded})
}

func (s *Server) handleSetupPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "setup", map[string]any{
		"Authenticated": s.authenticated(),
		"Username":      s.cfg.Username,
	})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code"`
	Attempt  string `json:"attempt_id"`
}

// decodeCredentials accepts either a JSON body or a browser form post.
func decodeCredentials(r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Username = r.PostFormValue("username")
	req.Password = r.PostFormValue("password")
	req.Code = r.PostFormValue("code")
	req.Attempt = r.PostFormValue("attempt_id")
	return req, nil
}

// handleAuthenticate drives stage one of the login state machine.
func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	result := s.machine.SubmitCredentials(r.Context(), req.Username, req.Password)
	s.respondLogin(w, r, result)
}

// handleVerify2FA drives stage two. The attempt handle from stage one
// resolves the parked credentials server-side; raw credentials are also
// accepted for API callers that keep their own state.
func (s *Server) handleVerify2FA(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	result := s.machine.SubmitCode(r.Context(), req.Attempt, req.Username, req.Password, req.Code)
	s.respondLogin(w, r, result)
}

// respondLogin renders a state machine result as JSON or as the matching
// HTML page.
func (s *Server) respondLogin(w http.ResponseWriter, r *http.Request, result auth.Result) {
	if wantsJSON(r) {
		payload := map[string]any{"stage": result.Stage.String()}
		if result.AttemptID != "" {
			payload["attempt_id"] = result.AttemptID
		}
		status := http.StatusOK
		if result.Stage == auth.StageFailed {
			payload["error"] = result.Reason
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, payload)
		return
	}

	switch result.Stage {
	case auth.StageComplete:
		encoded, _ := s.store.LatestEncoded()
		s.renderPage(w, "complete", map[string]any{"Encoded": encoded})
	case auth.StageAwaitingSecondFactor:
		s.renderPage(w, "twofactor", map[string]any{
			"AttemptID": result.AttemptID,
			"Notice":    result.Reason,
		})
	default:
		s.renderPage(w, "failed", map[string]any{"Error": result.Reason})
	}
}
