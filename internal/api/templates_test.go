package api

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"ringlock/internal/config"
)

func TestAllPagesRender(t *testing.T) {
	s := NewServer(&config.Config{}, nil, nil, nil, nil)
	data := map[string]map[string]any{
		"home":      {"Authenticated": true},
		"setup":     {"Authenticated": false, "Username": "me@example.com"},
		"twofactor": {"AttemptID": "abc", "Notice": "code sent"},
		"complete":  {"Encoded": "dG9rZW4="},
		"failed":    {"Error": "bad code"},
		"token":     {"Encoded": "dG9rZW4="},
		"notoken":   nil,
	}
	for name, d := range data {
		rec := httptest.NewRecorder()
		s.renderPage(rec, name, d)
		require.NotEmpty(t, rec.Body.String(), "page %q must render", name)
		require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	}
}
