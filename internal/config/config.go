// Package config loads server configuration from the environment.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// Defaults for values the environment leaves unset.
const (
	DefaultPort = "8080"
	// UserAgent labels this server as an authorized device on the
	// provider account.
	UserAgent = "RingUnlockServer-1.0"

	durableDir       = "/data"
	durableTokenFile = "/data/ring_token.json"
	localTokenFile   = "ring_token.json"
	masterKeyFile    = "master.key"
)

// Config is the process configuration, read once at startup.
type Config struct {
	// APIKey guards the unlock and token endpoints. Empty means the
	// server is not configured and those endpoints refuse to operate.
	APIKey string
	// Username prefills the setup form; never used to log in unattended.
	Username string
	// IntercomName, when set, overrides device resolution heuristics.
	IntercomName string
	// ExplicitToken is the base64 token supplied as a deployment secret.
	ExplicitToken string
	// TokenPath is the durable location of the token file.
	TokenPath string
	// MasterKey, when non-nil, enables token-at-rest encryption.
	MasterKey []byte
	// Port for the HTTP listener.
	Port string
	// APIBase overrides the provider endpoints (tests, gateways).
	APIBase string
}

// Load reads configuration from the environment. The token path prefers
// the persistent volume when one is mounted.
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:        os.Getenv("API_KEY"),
		Username:      os.Getenv("RING_USERNAME"),
		IntercomName:  os.Getenv("INTERCOM_NAME"),
		ExplicitToken: os.Getenv("RING_TOKEN"),
		TokenPath:     os.Getenv("TOKEN_FILE"),
		Port:          os.Getenv("PORT"),
		APIBase:       os.Getenv("RING_API_BASE"),
	}
	if cfg.TokenPath == "" {
		if fi, err := os.Stat(durableDir); err == nil && fi.IsDir() {
			cfg.TokenPath = durableTokenFile
		} else {
			cfg.TokenPath = localTokenFile
		}
	}
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}

	key, err := readMasterKey()
	if err != nil {
		return nil, err
	}
	cfg.MasterKey = key
	return cfg, nil
}

// readMasterKey reads MASTER_KEY_HEX, falling back to a master.key file.
// An absent key is not an error (the token file is then stored plain); a
// malformed key is.
func readMasterKey() ([]byte, error) {
	h := os.Getenv("MASTER_KEY_HEX")
	if h == "" {
		data, err := os.ReadFile(masterKeyFile)
		if err != nil {
			return nil, nil
		}
		h = string(data)
	}
	h = strings.TrimSpace(h)
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("master key hex decode error: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("master key length must be 32 bytes (hex 64 chars)")
	}
	return b, nil
}
