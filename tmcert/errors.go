// Package tmcert builds and verifies commit, polka, and round
// certificates: signed aggregates of votes that carry a quorum event
// (decision, polka, or round-skip justification) across the wire without
// resending every individual vote.
package tmcert

import "fmt"

// UnknownValidator is returned when a certificate entry's address is not
// a member of the validator set it's verified against.
type UnknownValidator struct {
	Address string
}

func (e UnknownValidator) Error() string {
	return fmt.Sprintf("tmcert: unknown validator %s", e.Address)
}

// DuplicateVote is returned when a certificate carries two entries from
// the same address.
type DuplicateVote struct {
	Address string
}

func (e DuplicateVote) Error() string {
	return fmt.Sprintf("tmcert: duplicate vote from %s", e.Address)
}

// InvalidCommitSignature is returned when an entry's signature does not
// verify under the key the validator set registers for its address.
type InvalidCommitSignature struct {
	Address string
}

func (e InvalidCommitSignature) Error() string {
	return fmt.Sprintf("tmcert: invalid signature from %s", e.Address)
}

// InvalidVoteType is returned when a round certificate entry's vote type
// does not match what the certificate's Kind requires.
type InvalidVoteType struct {
	Address string
}

func (e InvalidVoteType) Error() string {
	return fmt.Sprintf("tmcert: invalid vote type from %s", e.Address)
}

// NotEnoughVotingPower is returned when a certificate's signed power
// falls short of the required threshold.
type NotEnoughVotingPower struct {
	Signed   uint64
	Total    uint64
	Expected string
}

func (e NotEnoughVotingPower) Error() string {
	return fmt.Sprintf("tmcert: not enough voting power: signed=%d total=%d expected=%s", e.Signed, e.Total, e.Expected)
}
