package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultPendingTTL bounds how long a parked login attempt stays usable.
// The provider's verification codes expire on a similar horizon.
const DefaultPendingTTL = 10 * time.Minute

type pendingAttempt struct {
	username  string
	password  string
	createdAt time.Time
}

// PendingStore holds login attempts that are waiting for a second factor,
// keyed by an opaque handle. Credentials stay server-side; only the handle
// is ever echoed to the client.
type PendingStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]pendingAttempt
	now     func() time.Time
}

// NewPendingStore builds a store with the given TTL; ttl <= 0 selects
// DefaultPendingTTL.
func NewPendingStore(ttl time.Duration) *PendingStore {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &PendingStore{
		ttl:     ttl,
		entries: make(map[string]pendingAttempt),
		now:     time.Now,
	}
}

// Put parks credentials and returns the opaque handle.
func (p *PendingStore) Put(username, password string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweepLocked()
	id := uuid.NewString()
	p.entries[id] = pendingAttempt{username: username, password: password, createdAt: p.now()}
	return id
}

// Get resolves a handle to its credentials. Expired or unknown handles
// report !ok; expired entries are removed on lookup.
func (p *PendingStore) Get(id string) (username, password string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, found := p.entries[id]
	if !found {
		return "", "", false
	}
	if p.now().Sub(e.createdAt) > p.ttl {
		delete(p.entries, id)
		return "", "", false
	}
	return e.username, e.password, true
}

// Delete removes a handle, typically after a completed login.
func (p *PendingStore) Delete(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, id)
}

// sweepLocked drops expired entries. Caller holds p.mu.
func (p *PendingStore) sweepLocked() {
	cutoff := p.now().Add(-p.ttl)
	for id, e := range p.entries {
		if e.createdAt.Before(cutoff) {
			delete(p.entries, id)
		}
	}
}
