// Package gblssig implements minimized-signature BLS12-381 signing and
// verification as an alternative gcrypto.Signer/gcrypto.PubKey pair. The
// certificate code in tmcert uses it only through those interfaces (sign
// and per-entry verify). Aggregate and AggregatePubKeys combine
// same-message signatures and keys; tmcert does not call them, and its
// certificates carry one signature per entry.
package gblssig

import (
	"context"
	"errors"
	"fmt"

	"github.com/blockweave/tmcore/gcrypto"
	blst "github.com/supranational/blst/bindings/go"
)

// DomainSeparationTag is the ciphersuite ID per the BLS signature draft
// (basic scheme, minimized-signature variant: public keys live on G2,
// signatures live on G1).
var DomainSeparationTag = []byte("BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_NUL_")

// PubKey wraps a compressed BLS12-381 G2 point.
type PubKey blst.P2Affine

// NewPubKey decodes a compressed G2 point.
func NewPubKey(b []byte) (gcrypto.PubKey, error) {
	if len(b) != blst.BLST_P2_COMPRESS_BYTES {
		return nil, fmt.Errorf("gblssig: expected %d compressed bytes, got %d", blst.BLST_P2_COMPRESS_BYTES, len(b))
	}

	p2a := new(blst.P2Affine).Uncompress(b)
	if p2a == nil {
		return nil, errors.New("gblssig: failed to decompress public key")
	}
	if !p2a.KeyValidate() {
		return nil, errors.New("gblssig: public key failed validation")
	}

	return PubKey(*p2a), nil
}

func (k PubKey) Address() []byte {
	return k.PubKeyBytes()
}

func (k PubKey) PubKeyBytes() []byte {
	p2a := blst.P2Affine(k)
	return p2a.Compress()
}

func (k PubKey) Equal(other gcrypto.PubKey) bool {
	o, ok := other.(PubKey)
	if !ok {
		return false
	}
	p2a := blst.P2Affine(k)
	p2o := blst.P2Affine(o)
	return p2a.Equals(&p2o)
}

func (k PubKey) Verify(msg, sig []byte) bool {
	p1a := new(blst.P1Affine).Uncompress(sig)
	if p1a == nil {
		return false
	}
	if !p1a.SigValidate(false) {
		return false
	}

	p2a := blst.P2Affine(k)
	return p1a.Verify(false, &p2a, false, blst.Message(msg), DomainSeparationTag)
}

// Signer holds a BLS12-381 secret scalar.
type Signer struct {
	secret blst.SecretKey
	point  blst.P2Affine
}

// NewSigner derives a signer from at least 32 bytes of key material,
// which should be cryptographically random.
func NewSigner(ikm []byte) (Signer, error) {
	if len(ikm) < blst.BLST_SCALAR_BYTES {
		return Signer{}, fmt.Errorf(
			"gblssig: ikm too short: got %d, need at least %d",
			len(ikm), blst.BLST_SCALAR_BYTES,
		)
	}

	secretKey := blst.KeyGenV5(ikm, []byte("tmcore-gblssig-salt"))

	point := new(blst.P2Affine).From(secretKey)

	return Signer{secret: *secretKey, point: *point}, nil
}

func (s Signer) PubKey() gcrypto.PubKey {
	return PubKey(s.point)
}

func (s Signer) Sign(_ context.Context, msg []byte) ([]byte, error) {
	sig := new(blst.P1Affine).Sign(&s.secret, msg, DomainSeparationTag, true)
	if sig == nil {
		return nil, errors.New("gblssig: failed to sign")
	}
	return sig.Compress(), nil
}

// Aggregate combines sigs (each a compressed G1 point, as returned by
// Signer.Sign) into a single compressed aggregate signature, for callers
// that want to carry one signature instead of N on the wire. Aggregation
// only compresses the transferred bytes; verification still requires
// every signer's public key and the message each signed.
func Aggregate(sigs [][]byte) ([]byte, error) {
	if len(sigs) == 0 {
		return nil, errors.New("gblssig: no signatures to aggregate")
	}

	agg := new(blst.P1Aggregate)
	if !agg.AggregateCompressed(sigs, true) {
		return nil, errors.New("gblssig: aggregation failed")
	}

	return agg.ToAffine().Compress(), nil
}

// AggregatePubKeys combines the given compressed public keys into a single
// compressed G2 point. Pairing AggregatePubKeys with Aggregate lets a
// verifier check one signature against one key instead of N of each, as
// long as every signer signed the exact same message: that is the shape
// a commit certificate's votes take once every entry agrees on height,
// round, and value.
func AggregatePubKeys(pubKeys [][]byte) ([]byte, error) {
	if len(pubKeys) == 0 {
		return nil, errors.New("gblssig: no public keys to aggregate")
	}

	agg := new(blst.P2Aggregate)
	if !agg.AggregateCompressed(pubKeys, true) {
		return nil, errors.New("gblssig: public key aggregation failed")
	}

	return agg.ToAffine().Compress(), nil
}
