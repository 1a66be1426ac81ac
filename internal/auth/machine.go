// Package auth drives the provider login through its stages: credentials,
// an optional second factor, and a verified session. Transitions are data
// (a tagged Result), never exceptions; only a Complete result means a
// usable token was produced and persisted.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ringlock/internal/ring"
	"ringlock/internal/token"
)

// Stage is the state of one login attempt.
type Stage int

const (
	StageAwaitingCredentials Stage = iota
	StageAwaitingSecondFactor
	StageComplete
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageAwaitingCredentials:
		return "awaiting_credentials"
	case StageAwaitingSecondFactor:
		return "awaiting_second_factor"
	case StageComplete:
		return "complete"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of a state machine step. Reason carries the
// human-readable failure or instruction. AttemptID is set when the machine
// parked a pending attempt awaiting a second factor.
type Result struct {
	Stage     Stage
	Reason    string
	AttemptID string
}

// Machine runs logins against the provider and persists fresh tokens.
type Machine struct {
	client  ring.Client
	store   *token.Store
	pending *PendingStore
	log     *slog.Logger
}

// NewMachine builds a login machine. pending may be shared with the HTTP
// layer for handle lookups.
func NewMachine(client ring.Client, store *token.Store, pending *PendingStore, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	return &Machine{client: client, store: store, pending: pending, log: log}
}

// SubmitCredentials is the first stage. Three outcomes: Complete when the
// provider accepts outright (token persisted), AwaitingSecondFactor with a
// pending-attempt handle, or Failed.
func (m *Machine) SubmitCredentials(ctx context.Context, username, password string) Result {
	tok, err := m.client.Authenticate(ctx, username, password, "")
	switch {
	case err == nil:
		m.store.Persist(tok)
		m.log.Info("login complete without second factor", "username", username)
		return Result{Stage: StageComplete}
	case errors.Is(err, ring.ErrRequires2FA):
		id := m.pending.Put(username, password)
		m.log.Info("second factor required", "username", username, "attempt_id", id)
		return Result{
			Stage:     StageAwaitingSecondFactor,
			Reason:    "A verification code has been sent to your phone or email.",
			AttemptID: id,
		}
	case errors.Is(err, ring.ErrAuthRejected):
		m.log.Warn("credentials rejected", "username", username)
		return Result{Stage: StageFailed, Reason: fmt.Sprintf("Authentication failed: %v", err)}
	default:
		m.log.Warn("login error", "username", username, "error", err)
		return Result{Stage: StageFailed, Reason: err.Error()}
	}
}

// SubmitCode is the second stage. attemptID resolves a parked attempt's
// credentials; when empty, username and password must be supplied directly.
// On provider acceptance the token is verified with one session open/close
// round trip before it is persisted and the attempt declared Complete.
func (m *Machine) SubmitCode(ctx context.Context, attemptID, username, password, code string) Result {
	if attemptID != "" {
		u, p, ok := m.pending.Get(attemptID)
		if !ok {
			return Result{Stage: StageFailed, Reason: "Login attempt expired. Please start again."}
		}
		username, password = u, p
	}

	tok, err := m.client.Authenticate(ctx, username, password, code)
	if err != nil {
		if errors.Is(err, ring.ErrAuthRejected) || errors.Is(err, ring.ErrRequires2FA) {
			m.log.Warn("second factor rejected", "username", username)
			return Result{Stage: StageFailed, Reason: fmt.Sprintf("Verification failed: %v", err)}
		}
		return Result{Stage: StageFailed, Reason: err.Error()}
	}

	// Mandatory verification: the token must actually open a session
	// before this attempt counts as complete.
	sess, err := m.client.OpenSession(ctx, tok)
	if err != nil {
		m.log.Warn("fresh token failed verification", "username", username, "error", err)
		return Result{Stage: StageFailed, Reason: fmt.Sprintf("Token verification failed: %v", err)}
	}
	if refreshed, ok := sess.RefreshedToken(); ok {
		tok = refreshed
	}
	if err := sess.Close(ctx); err != nil {
		m.log.Warn("session close after verification", "error", err)
	}

	m.store.Persist(tok)
	if attemptID != "" {
		m.pending.Delete(attemptID)
	}
	m.log.Info("login complete", "username", username)
	return Result{Stage: StageComplete}
}
