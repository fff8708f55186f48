package tmconsensus

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/blockweave/tmcore/gcrypto"
)

// VoteType distinguishes a prevote from a precommit. The two share a
// wire encoding except for this leading tag.
type VoteType uint8

const (
	Prevote VoteType = iota + 1
	Precommit
)

func (t VoteType) String() string {
	switch t {
	case Prevote:
		return "Prevote"
	case Precommit:
		return "Precommit"
	default:
		return fmt.Sprintf("VoteType(%d)", uint8(t))
	}
}

// Vote is one validator's expressed choice for a (height, round, type).
type Vote struct {
	Type   VoteType
	Height Height
	Round  Round
	Choice ValueChoice
	Voter  Address
}

// SignedVote pairs a Vote with the voter's signature over its canonical
// encoding.
type SignedVote struct {
	Vote      Vote
	PubKey    gcrypto.PubKey
	Signature []byte
}

// SignatureScheme produces the canonical bytes that get signed for a
// vote or a proposal. It is the only place the core depends on a wire
// encoding, and it is pluggable so embedders can choose their own.
type SignatureScheme interface {
	VoteSignBytes(v Vote) ([]byte, error)
	ProposalSignBytes(p Proposal) ([]byte, error)
}

// SimpleSignatureScheme implements a canonical vote/proposal encoding: a
// fixed-width header of type tag, height, round (round -1 encoded
// explicitly for Nil), value-choice tag and optional value-id bytes,
// followed by the voter/proposer address.
type SimpleSignatureScheme struct{}

func appendUint64(b []byte, v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return append(b, buf[:]...)
}

func appendInt64(b []byte, v int64) []byte {
	return appendUint64(b, uint64(v))
}

func (SimpleSignatureScheme) VoteSignBytes(v Vote) ([]byte, error) {
	b := make([]byte, 0, 32+len(v.Choice.ID)+len(v.Voter))
	b = append(b, byte(v.Type))
	b = appendUint64(b, uint64(v.Height))
	b = appendInt64(b, int64(v.Round))

	if v.Choice.Nil {
		b = append(b, 0)
	} else {
		b = append(b, 1)
		b = append(b, []byte(v.Choice.ID)...)
	}

	b = append(b, []byte(v.Voter)...)
	return b, nil
}

func (SimpleSignatureScheme) ProposalSignBytes(p Proposal) ([]byte, error) {
	b := make([]byte, 0, 32+len(p.ValueID)+len(p.Proposer))
	b = append(b, 3) // proposal tag, distinct from vote type tags 1/2.
	b = appendUint64(b, uint64(p.Height))
	b = appendInt64(b, int64(p.Round))
	b = appendInt64(b, int64(p.ValidRound))
	b = append(b, []byte(p.ValueID)...)
	b = append(b, []byte(p.Proposer)...)
	return b, nil
}

// VerifyVoteSignature reports whether sv's signature verifies under sv's
// public key for the canonical encoding produced by scheme.
func VerifyVoteSignature(sv SignedVote, scheme SignatureScheme) (bool, error) {
	msg, err := scheme.VoteSignBytes(sv.Vote)
	if err != nil {
		return false, fmt.Errorf("building vote sign bytes: %w", err)
	}
	return sv.PubKey.Verify(msg, sv.Signature), nil
}

// SignVote signs v's canonical encoding with signer, returning the
// assembled SignedVote.
func SignVote(ctx context.Context, v Vote, scheme SignatureScheme, signer gcrypto.Signer) (SignedVote, error) {
	msg, err := scheme.VoteSignBytes(v)
	if err != nil {
		return SignedVote{}, fmt.Errorf("building vote sign bytes: %w", err)
	}
	sig, err := signer.Sign(ctx, msg)
	if err != nil {
		return SignedVote{}, fmt.Errorf("signing vote: %w", err)
	}
	return SignedVote{Vote: v, PubKey: signer.PubKey(), Signature: sig}, nil
}
