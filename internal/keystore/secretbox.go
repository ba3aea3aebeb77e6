package keystore

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// SecretBox stores base58 private keys sealed with NaCl secretbox under
// a 32-byte master key. Ciphertext is base64(nonce || box).
type SecretBox struct {
	key [32]byte
}

// NewSecretBox creates a key store from a base64-encoded 32-byte key.
func NewSecretBox(encodedKey string) (*SecretBox, error) {
	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode master key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes, got %d", len(raw))
	}
	sb := &SecretBox{}
	copy(sb.key[:], raw)
	return sb, nil
}

// Seal encrypts a raw 64-byte private key.
func (s *SecretBox) Seal(privateKey []byte) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	msg := []byte(base58.Encode(privateKey))
	out := secretbox.Seal(nonce[:], msg, &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens ciphertext and decodes the base58 private key inside.
func (s *SecretBox) Decrypt(ciphertext string) (*Signer, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("%w: too short", ErrInvalidCiphertext)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, fmt.Errorf("%w: authentication failed", ErrInvalidCiphertext)
	}
	defer wipe(plain)

	key, err := base58.Decode(string(plain))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	defer wipe(key)
	return NewSigner(key)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

var _ KeyStore = (*SecretBox)(nil)
