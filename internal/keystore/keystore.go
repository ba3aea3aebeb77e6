// Package keystore decrypts wallet signing material on demand.
package keystore

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"

	"solana-mm-brain/internal/domain"
)

// ErrInvalidCiphertext is returned when signing material cannot be decrypted
// or does not decode to an ed25519 key. It classifies as WalletDisabled.
var ErrInvalidCiphertext = fmt.Errorf("%w: invalid ciphertext", domain.ErrWalletDisabled)

// ErrKeyMismatch is returned when the decrypted key does not belong to the wallet address.
var ErrKeyMismatch = fmt.Errorf("%w: key does not match wallet address", domain.ErrWalletDisabled)

// KeyStore turns stored ciphertext into signing material.
type KeyStore interface {
	Decrypt(ciphertext string) (*Signer, error)
}

// Signer holds a decrypted ed25519 private key. Callers must Zero it
// as soon as the chain call returns.
type Signer struct {
	publicKey string
	key       ed25519.PrivateKey
}

// NewSigner wraps a 64-byte ed25519 private key.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: key is %d bytes", ErrInvalidCiphertext, len(key))
	}
	k := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	copy(k, key)
	pub := k.Public().(ed25519.PublicKey)
	return &Signer{publicKey: base58.Encode(pub), key: k}, nil
}

// PublicKey returns the base58 address of the key.
func (s *Signer) PublicKey() string { return s.publicKey }

// Sign signs msg. It fails once the signer has been zeroed.
func (s *Signer) Sign(msg []byte) ([]byte, error) {
	if s.key == nil {
		return nil, errors.New("signer zeroed")
	}
	return ed25519.Sign(s.key, msg), nil
}

// Zero wipes the private key.
func (s *Signer) Zero() {
	for i := range s.key {
		s.key[i] = 0
	}
	s.key = nil
}

// Open decrypts ciphertext and checks that it belongs to address.
func Open(ks KeyStore, ciphertext, address string) (*Signer, error) {
	signer, err := ks.Decrypt(ciphertext)
	if err != nil {
		return nil, err
	}
	if address != "" && signer.PublicKey() != address {
		signer.Zero()
		return nil, ErrKeyMismatch
	}
	return signer, nil
}
