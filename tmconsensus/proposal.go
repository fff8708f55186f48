package tmconsensus

import (
	"context"
	"fmt"

	"github.com/blockweave/tmcore/gcrypto"
)

// Proposal is a proposer's suggested value for a (height, round),
// carrying the value-id and a valid-round justification: if ValidRound is
// not NilRound, it points to an earlier round at which Value had a
// polka, justifying re-proposing a locked value.
type Proposal struct {
	Height     Height
	Round      Round
	Value      Value
	ValueID    ValueID
	ValidRound Round
	Proposer   Address
}

// SignedProposal pairs a Proposal with the proposer's signature over its
// canonical encoding.
type SignedProposal struct {
	Proposal  Proposal
	PubKey    gcrypto.PubKey
	Signature []byte
}

// VerifyProposalSignature reports whether sp's signature verifies under
// sp's public key for the canonical encoding produced by scheme.
func VerifyProposalSignature(sp SignedProposal, scheme SignatureScheme) (bool, error) {
	msg, err := scheme.ProposalSignBytes(sp.Proposal)
	if err != nil {
		return false, fmt.Errorf("building proposal sign bytes: %w", err)
	}
	return sp.PubKey.Verify(msg, sp.Signature), nil
}

// SignProposal signs p's canonical encoding with signer.
func SignProposal(ctx context.Context, p Proposal, scheme SignatureScheme, signer gcrypto.Signer) (SignedProposal, error) {
	msg, err := scheme.ProposalSignBytes(p)
	if err != nil {
		return SignedProposal{}, fmt.Errorf("building proposal sign bytes: %w", err)
	}
	sig, err := signer.Sign(ctx, msg)
	if err != nil {
		return SignedProposal{}, fmt.Errorf("signing proposal: %w", err)
	}
	return SignedProposal{Proposal: p, PubKey: signer.PubKey(), Signature: sig}, nil
}

// Validity is the application's verdict on a proposed value, reported
// back to the Proposal Keeper. The core never evaluates the application's
// validation rules itself.
type Validity uint8

const (
	Unknown Validity = iota
	Valid
	Invalid
)

func (v Validity) String() string {
	switch v {
	case Valid:
		return "Valid"
	case Invalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}
