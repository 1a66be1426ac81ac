// Package ring is the adapter boundary to the Ring cloud. Everything the
// rest of the server knows about the provider goes through the Client and
// Session interfaces defined here; the wire protocol lives in client.go.
package ring

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrRequires2FA is returned by Authenticate when the account needs a
	// second-factor code to finish logging in.
	ErrRequires2FA = errors.New("two-factor code required")
	// ErrAuthRejected is returned when the provider refuses the supplied
	// credentials or code.
	ErrAuthRejected = errors.New("authentication rejected")
	// ErrAuthRequired is returned by OpenSession when the token is expired
	// or revoked and a fresh login is needed.
	ErrAuthRequired = errors.New("authentication required")
)

// Token is the opaque credential blob issued by the provider. The server
// never interprets its fields beyond JSON round-tripping.
type Token map[string]any

// Encode returns the token as base64 of its JSON form, the representation
// used for the RING_TOKEN environment variable.
func (t Token) Encode() (string, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeToken parses a base64-of-JSON token string.
func DecodeToken(s string) (Token, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("token base64 decode: %w", err)
	}
	var t Token
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("token json decode: %w", err)
	}
	return t, nil
}

// Client authenticates against the provider and opens device sessions.
type Client interface {
	// Authenticate exchanges credentials for a token. Pass otp == "" on the
	// first leg; ErrRequires2FA means the caller must retry with a code.
	Authenticate(ctx context.Context, username, password, otp string) (Token, error)

	// OpenSession opens an authenticated session with an existing token and
	// pulls the device snapshot. ErrAuthRequired means the token is no
	// longer usable.
	OpenSession(ctx context.Context, token Token) (Session, error)
}

// Session is one open connection to the provider, scoped to a single
// operation. Callers must Close it on every exit path.
type Session interface {
	// Devices returns the device snapshot taken when the session opened.
	Devices() []DeviceDescriptor

	// OpenDoor actuates the unlock capability of the given device.
	OpenDoor(ctx context.Context, d DeviceDescriptor) error

	// RefreshedToken reports a replacement token the provider issued while
	// opening this session, if any. The caller is responsible for
	// persisting it.
	RefreshedToken() (Token, bool)

	Close(ctx context.Context) error
}
