// Package token persists the provider session credential across restarts.
// Two backing locations exist: an externally managed encoded secret (most
// reliable when the durable path does not survive redeploys) and a JSON
// file on the durable path. The store also keeps the last-known value in
// memory so a failed file write never loses the working credential for the
// current process lifetime.
package token

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"ringlock/internal/ring"
)

// Source identifies where the active token was obtained from.
type Source int

const (
	SourceNone Source = iota
	SourceExplicitConfig
	SourceDurableFile
)

func (s Source) String() string {
	switch s {
	case SourceExplicitConfig:
		return "env"
	case SourceDurableFile:
		return "file"
	default:
		return "none"
	}
}

// Store owns token state for the process. Safe for concurrent use.
type Store struct {
	mu sync.Mutex

	path     string
	explicit string // externally supplied base64 token, takes precedence
	fileKey  []byte // non-nil enables AES-GCM at rest
	log      *slog.Logger

	latest        ring.Token
	latestEncoded string
	source        Source
}

// New builds a Store writing to path. explicit is the base64 token supplied
// out-of-band (empty when unset). masterKey, when non-nil, must be 32 bytes
// and enables encryption of the durable file.
func New(path, explicit string, masterKey []byte, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{path: path, explicit: explicit, log: log}
	if masterKey != nil {
		s.fileKey = deriveFileKey(masterKey)
	}
	return s
}

// Load resolves the current token: the explicit encoded secret first, then
// the durable file. Decode and parse failures are logged and fall through;
// a nil return means no usable token exists.
func (s *Store) Load() (ring.Token, Source) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.explicit != "" {
		tok, err := ring.DecodeToken(s.explicit)
		if err == nil {
			s.remember(tok, SourceExplicitConfig)
			return tok, SourceExplicitConfig
		}
		s.log.Warn("ignoring invalid RING_TOKEN value", "error", err)
	}

	blob, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("token file unreadable", "path", s.path, "error", err)
		}
		s.source = SourceNone
		return nil, SourceNone
	}
	if s.fileKey != nil {
		if plain, derr := openTokenBlob(s.fileKey, blob); derr == nil {
			blob = plain
		}
		// Decrypt failure falls through to plain JSON so files written
		// before a master key was configured keep working.
	}
	var tok ring.Token
	if err := json.Unmarshal(blob, &tok); err != nil {
		s.log.Warn("token file corrupt", "path", s.path, "error", err)
		s.source = SourceNone
		return nil, SourceNone
	}
	s.remember(tok, SourceDurableFile)
	return tok, SourceDurableFile
}

// Persist writes the token to the durable path and updates the in-memory
// copy. File write failures are logged, not raised: the durable path is
// best-effort and the encoded in-memory value remains the fallback of
// record. The encoded value is logged so an operator can copy it into the
// RING_TOKEN secret when storage is ephemeral.
func (s *Store) Persist(tok ring.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := json.Marshal(tok)
	if err != nil {
		s.log.Error("token not serializable", "error", err)
		return
	}
	out := blob
	if s.fileKey != nil {
		if sealed, serr := sealTokenBlob(s.fileKey, blob); serr == nil {
			out = sealed
		} else {
			s.log.Error("token encryption failed, writing plain", "error", serr)
		}
	}
	if err := writeFileAtomic(s.path, out); err != nil {
		s.log.Warn("could not save token file", "path", s.path, "error", err)
	} else {
		s.log.Info("token saved", "path", s.path)
	}

	s.remember(tok, s.source)
	s.log.Info("token updated; copy this value to the RING_TOKEN env var if storage is ephemeral",
		"encoded", s.latestEncoded)
}

// Latest returns the in-memory last-known token.
func (s *Store) Latest() (ring.Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.latest != nil
}

// LatestEncoded returns the base64 form of the last-known token for the
// operator-facing token page.
func (s *Store) LatestEncoded() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestEncoded, s.latestEncoded != ""
}

// ActiveSource reports where the most recent Load found its token.
func (s *Store) ActiveSource() Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// remember updates the in-memory copy. Caller holds s.mu.
func (s *Store) remember(tok ring.Token, src Source) {
	s.latest = tok
	s.source = src
	if enc, err := tok.Encode(); err == nil {
		s.latestEncoded = enc
	}
}

// writeFileAtomic writes via a temp file and rename so a concurrent reader
// never observes a partial token.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
