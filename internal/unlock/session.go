// Package unlock orchestrates one door-unlock attempt: acquire an
// authenticated provider session, pick the intercom, actuate it, and tear
// the session down on every exit path.
package unlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ringlock/internal/ring"
	"ringlock/internal/token"
)

// ErrNotAuthenticated means no usable token exists. The caller should
// direct the operator to the login flow; nothing here retries a login.
var ErrNotAuthenticated = errors.New("not authenticated")

// Manager produces ready-to-use provider sessions from the token store.
type Manager struct {
	client ring.Client
	store  *token.Store
	log    *slog.Logger
}

// NewManager builds a session manager.
func NewManager(client ring.Client, store *token.Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{client: client, store: store, log: log}
}

// Acquire loads the stored token and opens a session with it. An absent
// token, or a provider auth failure (expired/revoked token), yields
// ErrNotAuthenticated; the store is deliberately left untouched so
// re-authentication stays an explicit operator action. Other provider or
// transport errors come back as generic failures.
func (m *Manager) Acquire(ctx context.Context) (ring.Session, error) {
	tok, _ := m.store.Load()
	if tok == nil {
		return nil, ErrNotAuthenticated
	}
	sess, err := m.client.OpenSession(ctx, tok)
	if err != nil {
		if errors.Is(err, ring.ErrAuthRequired) {
			m.log.Info("cached token no longer accepted, re-authentication needed")
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("open session: %w", err)
	}
	if refreshed, ok := sess.RefreshedToken(); ok {
		m.store.Persist(refreshed)
	}
	return sess, nil
}

// Release closes the session. It must run on every exit path of an attempt
// that acquired one.
func (m *Manager) Release(ctx context.Context, sess ring.Session) {
	if err := sess.Close(ctx); err != nil {
		m.log.Warn("session close", "error", err)
	}
}
