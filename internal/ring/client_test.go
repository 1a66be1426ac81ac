package ring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeProvider emulates the subset of the cloud API the client talks to.
type fakeProvider struct {
	otp          string
	accessToken  string
	refreshToken string
	// devicesStatus, when nonzero, fails authorized device listings with
	// that status.
	devicesStatus int
}

func (p *fakeProvider) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		switch r.PostFormValue("grant_type") {
		case "password":
			if r.PostFormValue("password") != "hunter2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if p.otp != "" && r.Header.Get("2fa-code") != p.otp {
				w.WriteHeader(http.StatusPreconditionFailed)
				return
			}
		case "refresh_token":
			if r.PostFormValue("refresh_token") != p.refreshToken {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		default:
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  p.accessToken,
			"refresh_token": p.refreshToken,
			"token_type":    "Bearer",
		})
	})
	mux.HandleFunc("/clients_api/ring_devices", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+p.accessToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if p.devicesStatus != 0 {
			w.WriteHeader(p.devicesStatus)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"other": []map[string]any{
				{"id": 42, "description": "Front Door", "kind": "intercom_handset_audio"},
			},
			"chimes": []map[string]any{},
		})
	})
	return mux
}

func TestAuthenticateRequires2FA(t *testing.T) {
	p := &fakeProvider{otp: "123456", accessToken: "tok"}
	srv := httptest.NewServer(p.handler())
	defer srv.Close()
	c := NewHTTPClient("test-agent", WithAPIBase(srv.URL))

	_, err := c.Authenticate(context.Background(), "me@example.com", "hunter2", "")
	require.ErrorIs(t, err, ErrRequires2FA)

	tok, err := c.Authenticate(context.Background(), "me@example.com", "hunter2", "123456")
	require.NoError(t, err)
	require.Equal(t, "tok", tok["access_token"])
}

func TestAuthenticateRejected(t *testing.T) {
	p := &fakeProvider{accessToken: "tok"}
	srv := httptest.NewServer(p.handler())
	defer srv.Close()
	c := NewHTTPClient("test-agent", WithAPIBase(srv.URL))

	_, err := c.Authenticate(context.Background(), "me@example.com", "wrong", "")
	require.ErrorIs(t, err, ErrAuthRejected)
}

func TestOpenSessionListsDevices(t *testing.T) {
	p := &fakeProvider{accessToken: "tok"}
	srv := httptest.NewServer(p.handler())
	defer srv.Close()
	c := NewHTTPClient("test-agent", WithAPIBase(srv.URL))

	sess, err := c.OpenSession(context.Background(), Token{"access_token": "tok"})
	require.NoError(t, err)
	defer sess.Close(context.Background())

	devices := sess.Devices()
	require.Len(t, devices, 1)
	require.Equal(t, "Front Door", devices[0].Name)
	require.Equal(t, CategoryOther, devices[0].Category)
	require.True(t, devices[0].IntercomLike())

	_, refreshed := sess.RefreshedToken()
	require.False(t, refreshed)
}

func TestOpenSessionRefreshesExpiredToken(t *testing.T) {
	p := &fakeProvider{accessToken: "new-access", refreshToken: "refresh-me"}
	srv := httptest.NewServer(p.handler())
	defer srv.Close()
	c := NewHTTPClient("test-agent", WithAPIBase(srv.URL))

	stale := Token{"access_token": "stale", "refresh_token": "refresh-me"}
	sess, err := c.OpenSession(context.Background(), stale)
	require.NoError(t, err)
	defer sess.Close(context.Background())

	refreshed, ok := sess.RefreshedToken()
	require.True(t, ok, "replacement token must surface for persistence")
	require.Equal(t, "new-access", refreshed["access_token"])
}

func TestRefreshedTokenReachesCallbackOnFailedRetry(t *testing.T) {
	// The provider rotates refresh tokens, so a rotated token must reach
	// the callback even when the device listing after the refresh fails
	// and no session is ever returned.
	p := &fakeProvider{accessToken: "new-access", refreshToken: "refresh-me", devicesStatus: http.StatusInternalServerError}
	srv := httptest.NewServer(p.handler())
	defer srv.Close()

	var persisted Token
	c := NewHTTPClient("test-agent", WithAPIBase(srv.URL), WithTokenCallback(func(tok Token) {
		persisted = tok
	}))

	stale := Token{"access_token": "stale", "refresh_token": "refresh-me"}
	_, err := c.OpenSession(context.Background(), stale)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAuthRequired)

	require.NotNil(t, persisted, "rotated token must not be dropped")
	require.Equal(t, "new-access", persisted["access_token"])
}

func TestOpenSessionAuthRequired(t *testing.T) {
	p := &fakeProvider{accessToken: "tok"}
	srv := httptest.NewServer(p.handler())
	defer srv.Close()
	c := NewHTTPClient("test-agent", WithAPIBase(srv.URL))

	// No refresh_token to fall back on: the caller must re-authenticate.
	_, err := c.OpenSession(context.Background(), Token{"access_token": "stale"})
	require.ErrorIs(t, err, ErrAuthRequired)
}
