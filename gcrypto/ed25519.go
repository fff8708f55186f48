package gcrypto

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"
)

// Ed25519PubKey wraps a standard library ed25519 public key.
type Ed25519PubKey ed25519.PublicKey

// NewEd25519PubKey decodes a raw ed25519 public key.
func NewEd25519PubKey(b []byte) (PubKey, error) {
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("ed25519: expected %d bytes, got %d", ed25519.PublicKeySize, len(b))
	}
	return Ed25519PubKey(append([]byte(nil), b...)), nil
}

// Address returns the raw public key bytes as the address. Production
// deployments that want shorter addresses can hash this externally; the
// core only requires addresses to be stable and unique within a set.
func (k Ed25519PubKey) Address() []byte {
	return []byte(k)
}

func (k Ed25519PubKey) PubKeyBytes() []byte {
	return []byte(k)
}

func (k Ed25519PubKey) Equal(other PubKey) bool {
	o, ok := other.(Ed25519PubKey)
	if !ok {
		return false
	}
	return bytes.Equal([]byte(k), []byte(o))
}

func (k Ed25519PubKey) Verify(msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(k), msg, sig)
}

// Ed25519Signer wraps a standard library ed25519 private key.
type Ed25519Signer struct {
	priv ed25519.PrivateKey
}

// NewEd25519Signer wraps an existing private key. The key must be
// ed25519.PrivateKeySize bytes.
func NewEd25519Signer(priv ed25519.PrivateKey) Ed25519Signer {
	return Ed25519Signer{priv: priv}
}

// GenerateEd25519Signer derives a signer from a 32-byte seed, for
// deterministic test fixtures.
func GenerateEd25519Signer(seed []byte) Ed25519Signer {
	return Ed25519Signer{priv: ed25519.NewKeyFromSeed(seed)}
}

func (s Ed25519Signer) PubKey() PubKey {
	return Ed25519PubKey(s.priv.Public().(ed25519.PublicKey))
}

func (s Ed25519Signer) Sign(_ context.Context, msg []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, msg), nil
}
