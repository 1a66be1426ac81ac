package token

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ringlock/internal/ring"
)

func testToken() ring.Token {
	return ring.Token{"access_token": "abc", "refresh_token": "def", "token_type": "Bearer"}
}

func TestLoadPersistIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring_token.json")
	s := New(path, "", nil, nil)

	s.Persist(testToken())
	got, src := s.Load()
	require.Equal(t, SourceDurableFile, src)
	require.Equal(t, testToken(), got)

	s.Persist(got)
	again, _ := s.Load()
	require.Equal(t, got, again)
}

func TestExplicitTokenTakesPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring_token.json")
	fileTok := ring.Token{"access_token": "from-file"}
	blob, err := json.Marshal(fileTok)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, blob, 0600))

	envTok := ring.Token{"access_token": "from-env"}
	encoded, err := envTok.Encode()
	require.NoError(t, err)

	s := New(path, encoded, nil, nil)
	got, src := s.Load()
	require.Equal(t, SourceExplicitConfig, src)
	require.Equal(t, envTok, got)
}

func TestInvalidExplicitFallsThroughToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring_token.json")
	fileTok := ring.Token{"access_token": "from-file"}
	blob, err := json.Marshal(fileTok)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, blob, 0600))

	s := New(path, "not base64!!", nil, nil)
	got, src := s.Load()
	require.Equal(t, SourceDurableFile, src)
	require.Equal(t, fileTok, got)
}

func TestCorruptFileReturnsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring_token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s := New(path, "", nil, nil)
	got, src := s.Load()
	require.Nil(t, got)
	require.Equal(t, SourceNone, src)
}

func TestMissingFileReturnsAbsent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope.json"), "", nil, nil)
	got, src := s.Load()
	require.Nil(t, got)
	require.Equal(t, SourceNone, src)
}

func TestPersistEncryptsAtRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring_token.json")
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	s := New(path, "", key, nil)
	s.Persist(testToken())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var probe map[string]any
	require.Error(t, json.Unmarshal(raw, &probe), "file on disk should not be plain JSON")

	got, src := s.Load()
	require.Equal(t, SourceDurableFile, src)
	require.Equal(t, testToken(), got)
}

func TestLoadPlainFileWithKeyConfigured(t *testing.T) {
	// Files written before a master key was configured must keep working.
	path := filepath.Join(t.TempDir(), "ring_token.json")
	blob, err := json.Marshal(testToken())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, blob, 0600))

	key := make([]byte, 32)
	s := New(path, "", key, nil)
	got, _ := s.Load()
	require.Equal(t, testToken(), got)
}

func TestPersistSwallowsWriteFailure(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing-dir", "tok.json"), "", nil, nil)
	s.Persist(testToken())

	latest, ok := s.Latest()
	require.True(t, ok, "in-memory copy must survive a failed file write")
	require.Equal(t, testToken(), latest)

	encoded, ok := s.LatestEncoded()
	require.True(t, ok)
	decoded, err := ring.DecodeToken(encoded)
	require.NoError(t, err)
	require.Equal(t, testToken(), decoded)
}
