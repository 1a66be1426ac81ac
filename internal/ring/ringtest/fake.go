// Package ringtest provides an in-memory ring.Client for tests.
package ringtest

import (
	"context"
	"sync"

	"ringlock/internal/ring"
)

// FakeClient implements ring.Client with scripted behavior.
type FakeClient struct {
	mu sync.Mutex

	// Credentials the fake accepts.
	Username string
	Password string
	// OTP, when non-empty, makes the first authentication leg demand a
	// second factor and only accept this code on the retry.
	OTP string

	// IssueToken is handed out on successful authentication.
	IssueToken ring.Token
	// AcceptToken is the token OpenSession honors. Nil means any token.
	AcceptToken ring.Token
	// Devices returned by opened sessions.
	Devices []ring.DeviceDescriptor
	// RefreshTo, when set, is surfaced via Session.RefreshedToken.
	RefreshTo ring.Token

	// AuthenticateErr / OpenSessionErr / OpenDoorErr force failures.
	AuthenticateErr error
	OpenSessionErr  error
	OpenDoorErr     error

	AuthenticateCalls int
	OpenSessionCalls  int
	OpenDoorCalls     int
	CloseCalls        int
}

func (f *FakeClient) Authenticate(ctx context.Context, username, password, otp string) (ring.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AuthenticateCalls++
	if f.AuthenticateErr != nil {
		return nil, f.AuthenticateErr
	}
	if username != f.Username || password != f.Password {
		return nil, ring.ErrAuthRejected
	}
	if f.OTP != "" {
		if otp == "" {
			return nil, ring.ErrRequires2FA
		}
		if otp != f.OTP {
			return nil, ring.ErrAuthRejected
		}
	}
	return f.IssueToken, nil
}

func (f *FakeClient) OpenSession(ctx context.Context, token ring.Token) (ring.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.OpenSessionCalls++
	if f.OpenSessionErr != nil {
		return nil, f.OpenSessionErr
	}
	if f.AcceptToken != nil && !tokensEqual(token, f.AcceptToken) {
		return nil, ring.ErrAuthRequired
	}
	return &fakeSession{client: f}, nil
}

type fakeSession struct {
	client *FakeClient
	closed bool
}

func (s *fakeSession) Devices() []ring.DeviceDescriptor { return s.client.Devices }

func (s *fakeSession) RefreshedToken() (ring.Token, bool) {
	return s.client.RefreshTo, s.client.RefreshTo != nil
}

func (s *fakeSession) OpenDoor(ctx context.Context, d ring.DeviceDescriptor) error {
	s.client.mu.Lock()
	defer s.client.mu.Unlock()
	s.client.OpenDoorCalls++
	return s.client.OpenDoorErr
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.client.mu.Lock()
	defer s.client.mu.Unlock()
	s.closed = true
	s.client.CloseCalls++
	return nil
}

func tokensEqual(a, b ring.Token) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
