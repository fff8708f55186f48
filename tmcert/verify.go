package tmcert

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/blockweave/tmcore/tmconsensus"
)

// Verify checks c against validator set vs under parameters params and
// scheme: look up each signer, reject duplicates, reconstruct the
// canonical precommit message and verify it under the validator set's
// registered key (not the entry's own claimed key, which an attacker
// could substitute), sum voting power, and compare against quorum.
func (c CommitCertificate) Verify(vs tmconsensus.ValidatorSet, params tmconsensus.ThresholdParams, scheme tmconsensus.SignatureScheme) error {
	signed := bitset.New(uint(vs.Len()))
	var signedPower uint64

	for _, e := range c.Entries {
		val, idx, ok := lookupValidator(vs, e.Voter)
		if !ok {
			return UnknownValidator{Address: string(e.Voter)}
		}
		if signed.Test(uint(idx)) {
			return DuplicateVote{Address: string(e.Voter)}
		}
		signed.Set(uint(idx))

		vote := tmconsensus.Vote{
			Type:   tmconsensus.Precommit,
			Height: c.Height,
			Round:  c.Round,
			Choice: tmconsensus.ValChoice(c.ValueID),
			Voter:  e.Voter,
		}
		msg, err := scheme.VoteSignBytes(vote)
		if err != nil {
			return fmt.Errorf("tmcert: computing sign bytes for %s: %w", e.Voter, err)
		}
		if !val.PubKey.Verify(msg, e.Signature) {
			return InvalidCommitSignature{Address: string(e.Voter)}
		}

		signedPower += val.Power
	}

	total := vs.TotalPower()
	if !params.Quorum.IsMet(signedPower, total) {
		return NotEnoughVotingPower{Signed: signedPower, Total: total, Expected: "quorum " + params.Quorum.String()}
	}
	return nil
}

// SignerBitSet returns the set of validator indices (within vs) that
// signed c, for a compact wire-friendly encoding of "who signed" instead
// of repeating full addresses. Callers should have already verified c
// against vs; SignerBitSet does not itself check signatures.
func (c CommitCertificate) SignerBitSet(vs tmconsensus.ValidatorSet) *bitset.BitSet {
	bs := bitset.New(uint(vs.Len()))
	for _, e := range c.Entries {
		if idx, ok := vs.IndexOf(e.Voter); ok {
			bs.Set(uint(idx))
		}
	}
	return bs
}

// Verify checks c the same way as CommitCertificate.Verify, but against
// prevotes.
func (c PolkaCertificate) Verify(vs tmconsensus.ValidatorSet, params tmconsensus.ThresholdParams, scheme tmconsensus.SignatureScheme) error {
	signed := bitset.New(uint(vs.Len()))
	var signedPower uint64

	for _, e := range c.Entries {
		val, idx, ok := lookupValidator(vs, e.Voter)
		if !ok {
			return UnknownValidator{Address: string(e.Voter)}
		}
		if signed.Test(uint(idx)) {
			return DuplicateVote{Address: string(e.Voter)}
		}
		signed.Set(uint(idx))

		vote := tmconsensus.Vote{
			Type:   tmconsensus.Prevote,
			Height: c.Height,
			Round:  c.Round,
			Choice: tmconsensus.ValChoice(c.ValueID),
			Voter:  e.Voter,
		}
		msg, err := scheme.VoteSignBytes(vote)
		if err != nil {
			return fmt.Errorf("tmcert: computing sign bytes for %s: %w", e.Voter, err)
		}
		if !val.PubKey.Verify(msg, e.Signature) {
			return InvalidCommitSignature{Address: string(e.Voter)}
		}

		signedPower += val.Power
	}

	total := vs.TotalPower()
	if !params.Quorum.IsMet(signedPower, total) {
		return NotEnoughVotingPower{Signed: signedPower, Total: total, Expected: "quorum " + params.Quorum.String()}
	}
	return nil
}

// Verify checks c against vs and params. For RoundSkip, the honest (f+1)
// threshold is used and any vote type qualifies; for RoundPrecommit, the
// quorum (2f+1) threshold is used and every entry must carry a precommit.
func (c RoundCertificate) Verify(vs tmconsensus.ValidatorSet, params tmconsensus.ThresholdParams, scheme tmconsensus.SignatureScheme) error {
	signed := bitset.New(uint(vs.Len()))
	var signedPower uint64

	for _, e := range c.Entries {
		val, idx, ok := lookupValidator(vs, e.Voter)
		if !ok {
			return UnknownValidator{Address: string(e.Voter)}
		}
		if signed.Test(uint(idx)) {
			return DuplicateVote{Address: string(e.Voter)}
		}
		signed.Set(uint(idx))

		if c.Kind == RoundPrecommit && e.VoteType != tmconsensus.Precommit {
			return InvalidVoteType{Address: string(e.Voter)}
		}

		vote := tmconsensus.Vote{
			Type:   e.VoteType,
			Height: c.Height,
			Round:  e.Round,
			Choice: e.Choice,
			Voter:  e.Voter,
		}
		msg, err := scheme.VoteSignBytes(vote)
		if err != nil {
			return fmt.Errorf("tmcert: computing sign bytes for %s: %w", e.Voter, err)
		}
		if !val.PubKey.Verify(msg, e.Signature) {
			return InvalidCommitSignature{Address: string(e.Voter)}
		}

		signedPower += val.Power
	}

	total := vs.TotalPower()
	threshold := params.Quorum
	label := "quorum " + params.Quorum.String()
	if c.Kind == RoundSkip {
		threshold = params.Honest
		label = "honest " + params.Honest.String()
	}
	if !threshold.IsMet(signedPower, total) {
		return NotEnoughVotingPower{Signed: signedPower, Total: total, Expected: label}
	}
	return nil
}

func lookupValidator(vs tmconsensus.ValidatorSet, a tmconsensus.Address) (tmconsensus.Validator, int, bool) {
	idx, ok := vs.IndexOf(a)
	if !ok {
		return tmconsensus.Validator{}, 0, false
	}
	return vs.Validators[idx], idx, true
}
