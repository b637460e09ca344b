// Package secretbox encrypts small secrets (ledger provider access credentials)
// before they are written to the database.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	prefix    = "v1:"
	kdfSalt   = "vint/ledger-access-token"
	kdfRounds = 100_000
	keyLength = 32
)

var ErrMalformed = errors.New("secretbox: malformed ciphertext")

// Box seals and opens values with AES-256-GCM. A Box built from an empty
// passphrase is a passthrough, so deployments without a key keep working.
type Box struct {
	aead cipher.AEAD
}

func New(passphrase string) (*Box, error) {
	if passphrase == "" {
		return &Box{}, nil
	}
	key := pbkdf2.Key([]byte(passphrase), []byte(kdfSalt), kdfRounds, keyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Box{aead: aead}, nil
}

// Enabled reports whether values are actually encrypted.
func (b *Box) Enabled() bool {
	return b != nil && b.aead != nil
}

// Seal returns "v1:" + base64(nonce+ciphertext), or plain unchanged when disabled.
func (b *Box) Seal(plain string) (string, error) {
	if !b.Enabled() || plain == "" {
		return plain, nil
	}
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plain), nil)
	return prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Values without the version prefix were stored before a key
// was configured and are returned as is.
func (b *Box) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, prefix) {
		return stored, nil
	}
	if !b.Enabled() {
		return "", errors.New("secretbox: value is encrypted but no key is configured")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, prefix))
	if err != nil {
		return "", ErrMalformed
	}
	ns := b.aead.NonceSize()
	if len(raw) < ns {
		return "", ErrMalformed
	}
	plain, err := b.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plain), nil
}
