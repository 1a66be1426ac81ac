package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// deriveFileKey derives the token-file key from the master key so the key
// protecting this file is distinct from any other key derived from the
// same master secret.
func deriveFileKey(masterKey []byte) []byte {
	h := hkdf.New(sha256.New, masterKey, nil, []byte("token-file"))
	out := make([]byte, 32)
	if _, err := io.ReadFull(h, out); err != nil {
		panic(err)
	}
	return out
}

// sealTokenBlob encrypts plaintext with AES-GCM, nonce prepended.
func sealTokenBlob(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return append(nonce, gcm.Seal(nil, nonce, plaintext, nil)...), nil
}

// openTokenBlob decrypts a nonce-prefixed AES-GCM blob.
func openTokenBlob(key, blob []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	ns := gcm.NonceSize()
	if len(blob) < ns {
		return nil, errors.New("ciphertext too short")
	}
	return gcm.Open(nil, blob[:ns], blob[ns:], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, errors.New("file key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
