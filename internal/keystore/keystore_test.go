package keystore

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/mr-tron/base58"

	"solana-mm-brain/internal/domain"
)

func newBox(t *testing.T) *SecretBox {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	sb, err := NewSecretBox(base64.StdEncoding.EncodeToString(key))
	if err != nil {
		t.Fatalf("NewSecretBox: %v", err)
	}
	return sb
}

func TestSecretBox_RoundTrip(t *testing.T) {
	sb := newBox(t)
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	ct, err := sb.Seal(priv)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	signer, err := Open(sb, ct, base58.Encode(pub))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer signer.Zero()

	msg := []byte("tick")
	sig, err := signer.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !ed25519.Verify(pub, msg, sig) {
		t.Error("signature does not verify")
	}
}

func TestSecretBox_Errors(t *testing.T) {
	sb := newBox(t)
	_, priv, _ := ed25519.GenerateKey(rand.Reader)
	ct, _ := sb.Seal(priv)

	other := newBox(t)

	tests := []struct {
		name string
		ks   KeyStore
		ct   string
		addr string
		want error
	}{
		{"wrong master key", other, ct, "", ErrInvalidCiphertext},
		{"not base64", sb, "%%%", "", ErrInvalidCiphertext},
		{"too short", sb, base64.StdEncoding.EncodeToString([]byte("short")), "", ErrInvalidCiphertext},
		{"address mismatch", sb, ct, "11111111111111111111111111111111", ErrKeyMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.ks, tt.ct, tt.addr)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if domain.KindOf(err) != domain.KindWalletDisabled {
				t.Errorf("key failures must disable the wallet, got kind %s", domain.KindOf(err))
			}
		})
	}
}

func TestSigner_Zero(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(rand.Reader)
	signer, err := NewSigner(priv)
	if err != nil {
		t.Fatal(err)
	}

	key := signer.key
	signer.Zero()
	for _, b := range key {
		if b != 0 {
			t.Fatal("key bytes not wiped")
		}
	}
	if _, err := signer.Sign([]byte("x")); err == nil {
		t.Error("zeroed signer must not sign")
	}
}

func TestNewSecretBox_BadKey(t *testing.T) {
	if _, err := NewSecretBox(base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Error("expected length error")
	}
	if _, err := NewSecretBox("***"); err == nil {
		t.Error("expected decode error")
	}
}
