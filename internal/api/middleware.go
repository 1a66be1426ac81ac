package api

import (
	"crypto/subtle"
	"net/http"
)

// requireAPIKey guards an endpoint with the static access key, accepted as
// the X-API-Key header or the api_key query parameter. A server with no
// key configured refuses the request outright.
func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey == "" {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error": "Server not configured - API_KEY not set",
			})
			return
		}
		provided := r.Header.Get("X-API-Key")
		if provided == "" {
			provided = r.URL.Query().Get("api_key")
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.cfg.APIKey)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": "Invalid or missing API key",
			})
			return
		}
		next(w, r)
	}
}
