// Package gcrypto defines the signing primitives the consensus core
// requires (PubKey, Signer) without committing to a concrete scheme, plus
// two concrete implementations: plain ed25519 and BLS12-381 (gblssig).
package gcrypto

import "context"

// PubKey is the verification half of a signing keypair. The core never
// inspects the concrete type; it only calls Verify.
type PubKey interface {
	// Address returns a stable identifier for this key, used as the
	// tmconsensus.Address for the validator that owns it.
	Address() []byte

	// PubKeyBytes returns the canonical encoded form of the key.
	PubKeyBytes() []byte

	// Equal reports whether other is the same key.
	Equal(other PubKey) bool

	// Verify reports whether sig is a valid signature of msg under this key.
	Verify(msg, sig []byte) bool
}

// Signer is the signing half of a keypair. Sign takes a context because
// some implementations (hardware signers, remote KMS) may need to block
// on I/O; none of the implementations in this module do.
type Signer interface {
	PubKey() PubKey

	Sign(ctx context.Context, msg []byte) ([]byte, error)
}
