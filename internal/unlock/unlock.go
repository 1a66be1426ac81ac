package unlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Result is the reduced outcome of one unlock attempt.
type Result struct {
	Success bool
	Message string
}

// Orchestrator runs the full unlock sequence. One call performs at most
// one provider actuation attempt; there are no internal retries.
type Orchestrator struct {
	manager  *Manager
	resolver Resolver
	log      *slog.Logger
}

// NewOrchestrator builds an orchestrator around a session manager.
func NewOrchestrator(manager *Manager, resolver Resolver, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{manager: manager, resolver: resolver, log: log}
}

// Unlock acquires a session, resolves the intercom, actuates it, and
// releases the session regardless of outcome. Every failure is reduced to
// a Result; nothing propagates raw to the HTTP boundary.
func (o *Orchestrator) Unlock(ctx context.Context) Result {
	sess, err := o.manager.Acquire(ctx)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			return Result{Message: "Not authenticated. Please visit /setup to authenticate."}
		}
		return Result{Message: err.Error()}
	}
	defer o.manager.Release(ctx, sess)

	devices := sess.Devices()
	device, ok := o.resolver.Resolve(devices)
	if !ok {
		o.log.Warn("no intercom among devices", "candidates", Candidates(devices))
		return Result{Message: fmt.Sprintf("No intercom found. Available devices: %v", Candidates(devices))}
	}

	if err := sess.OpenDoor(ctx, device); err != nil {
		o.log.Error("door actuation failed", "device", device.Name, "error", err)
		return Result{Message: fmt.Sprintf("Error unlocking door: %v", err)}
	}

	o.log.Info("door unlocked", "device", device.Name)
	return Result{Success: true, Message: fmt.Sprintf("Door unlocked via %s!", device.Name)}
}
