package ring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	defaultOAuthURL = "https://oauth.ring.com/oauth/token"
	defaultAPIBase  = "https://api.ring.com"

	// oauthClientID is the public client identifier the provider expects
	// for password-grant logins from non-official apps.
	oauthClientID = "ring_official_android"
)

// HTTPClient is the real provider client. All knowledge of the vendor wire
// protocol is confined to this file.
type HTTPClient struct {
	http      *http.Client
	oauthURL  string
	apiBase   string
	userAgent string
	onToken   func(Token)
	log       *slog.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithAPIBase overrides the API and OAuth endpoints, primarily for tests
// and self-hosted gateways. base is used for both, with the oauth token
// path appended.
func WithAPIBase(base string) Option {
	return func(c *HTTPClient) {
		c.apiBase = strings.TrimRight(base, "/")
		c.oauthURL = c.apiBase + "/oauth/token"
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// WithTokenCallback registers fn to be invoked whenever the client obtains
// a rotated token. The provider rotates refresh tokens, so the replacement
// must reach persistence even when the operation that triggered the
// refresh subsequently fails.
func WithTokenCallback(fn func(Token)) Option {
	return func(c *HTTPClient) { c.onToken = fn }
}

// NewHTTPClient builds a provider client with the given User-Agent, which
// the provider uses to label the authorized device on the account.
func NewHTTPClient(userAgent string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		http:      &http.Client{Timeout: 30 * time.Second},
		oauthURL:  defaultOAuthURL,
		apiBase:   defaultAPIBase,
		userAgent: userAgent,
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Authenticate implements Client using the provider's OAuth password grant.
// A 412 response means the account wants a second factor; the code is sent
// on the retry in the 2fa-code header.
func (c *HTTPClient) Authenticate(ctx context.Context, username, password, otp string) (Token, error) {
	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {oauthClientID},
		"scope":      {"client"},
		"username":   {username},
		"password":   {password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("2fa-support", "true")
	if otp != "" {
		req.Header.Set("2fa-code", otp)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusPreconditionFailed:
		return nil, ErrRequires2FA
	case http.StatusUnauthorized, http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrAuthRejected, readErrorBody(resp.Body))
	default:
		return nil, fmt.Errorf("authenticate: unexpected status %s", resp.Status)
	}

	var tok Token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("authenticate: decode token: %w", err)
	}
	return tok, nil
}

// OpenSession implements Client. It registers a session with the token and
// pulls the device snapshot. An expired access token is refreshed once via
// the refresh grant; the replacement surfaces through RefreshedToken.
func (c *HTTPClient) OpenSession(ctx context.Context, token Token) (Session, error) {
	s := &httpSession{client: c, token: token}

	devices, err := c.listDevices(ctx, token)
	if isAuthStatus(err) {
		c.log.Info("access token no longer accepted, attempting refresh")
		refreshed, rerr := c.refresh(ctx, token)
		if rerr != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuthRequired, rerr)
		}
		s.token = refreshed
		s.refreshed = refreshed
		if c.onToken != nil {
			c.onToken(refreshed)
		}
		devices, err = c.listDevices(ctx, refreshed)
	}
	if err != nil {
		if isAuthStatus(err) {
			return nil, fmt.Errorf("%w: %v", ErrAuthRequired, err)
		}
		return nil, err
	}
	s.devices = devices
	return s, nil
}

// refresh exchanges the token's refresh_token for a fresh credential.
func (c *HTTPClient) refresh(ctx context.Context, token Token) (Token, error) {
	rt, _ := token["refresh_token"].(string)
	if rt == "" {
		return nil, fmt.Errorf("token has no refresh_token")
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {oauthClientID},
		"refresh_token": {rt},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refresh token: status %s", resp.Status)
	}
	var tok Token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("refresh token: decode: %w", err)
	}
	return tok, nil
}

func (c *HTTPClient) listDevices(ctx context.Context, token Token) ([]DeviceDescriptor, error) {
	req, err := c.apiRequest(ctx, token, http.MethodGet, "/clients_api/ring_devices", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("list devices", resp)
	}

	var groups map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&groups); err != nil {
		return nil, fmt.Errorf("list devices: decode: %w", err)
	}
	return buildDescriptors(groups)
}

// deviceRecord is the subset of a provider device record the server needs.
type deviceRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"description"`
	Kind string `json:"kind"`
}

// buildDescriptors flattens the provider's device groupings into one
// candidate set. A combined listing, when present, replaces the
// per-category union outright so a device listed in several groups is not
// counted twice; its records are categorized by their kind string, since
// the combined form carries no grouping.
func buildDescriptors(groups map[string]json.RawMessage) ([]DeviceDescriptor, error) {
	decode := func(raw json.RawMessage, group string, categorize func(deviceRecord) string) ([]DeviceDescriptor, error) {
		var recs []deviceRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			return nil, fmt.Errorf("decode device group %q: %w", group, err)
		}
		out := make([]DeviceDescriptor, 0, len(recs))
		for _, r := range recs {
			out = append(out, DeviceDescriptor{
				ID:       r.ID,
				Name:     r.Name,
				Category: categorize(r),
				Kind:     r.Kind,
			})
		}
		return out, nil
	}

	if raw, ok := groups["devices_combined"]; ok {
		return decode(raw, "devices_combined", func(r deviceRecord) string {
			return kindCategory(r.Kind)
		})
	}

	// Stable group order so resolution is deterministic across calls.
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var all []DeviceDescriptor
	for _, name := range names {
		category := normalizeCategory(name)
		ds, err := decode(groups[name], name, func(deviceRecord) string {
			return category
		})
		if err != nil {
			return nil, err
		}
		all = append(all, ds...)
	}
	return all, nil
}

func (c *HTTPClient) apiRequest(ctx context.Context, token Token, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, body)
	if err != nil {
		return nil, err
	}
	access, _ := token["access_token"].(string)
	req.Header.Set("Authorization", "Bearer "+access)
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

type httpSession struct {
	client    *HTTPClient
	token     Token
	refreshed Token
	devices   []DeviceDescriptor
}

func (s *httpSession) Devices() []DeviceDescriptor { return s.devices }

func (s *httpSession) RefreshedToken() (Token, bool) {
	return s.refreshed, s.refreshed != nil
}

// OpenDoor issues the intercom unlock RPC for the device.
func (s *httpSession) OpenDoor(ctx context.Context, d DeviceDescriptor) error {
	payload, err := json.Marshal(map[string]any{
		"command_name": "device_rpc",
		"request": map[string]any{
			"jsonrpc": "2.0",
			"method":  "unlock_door",
			"params": map[string]any{
				"door_id":    0,
				"issue_time": time.Now().Unix(),
			},
		},
	})
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/commands/v1/devices/%d/device_rpc", d.ID)
	req, err := s.client.apiRequest(ctx, s.token, http.MethodPut, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.http.Do(req)
	if err != nil {
		return fmt.Errorf("open door: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError("open door", resp)
	}
	return nil
}

// Close releases the session. The provider keeps no server-side session
// object to tear down, so this only drops pooled connections.
func (s *httpSession) Close(ctx context.Context) error {
	s.client.http.CloseIdleConnections()
	return nil
}

// authStatusError marks responses whose status means the token is no
// longer honored.
type authStatusError struct{ status string }

func (e *authStatusError) Error() string { return "provider rejected token: " + e.status }

func isAuthStatus(err error) bool {
	var ae *authStatusError
	return errors.As(err, &ae)
}

func statusError(op string, resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &authStatusError{status: resp.Status}
	}
	return fmt.Errorf("%s: status %s: %s", op, resp.Status, readErrorBody(resp.Body))
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
