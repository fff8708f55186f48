package tmcert

import (
	"github.com/blockweave/tmcore/gcrypto"
	"github.com/blockweave/tmcore/tmconsensus"
)

// Entry is one signer's contribution to a certificate.
type Entry struct {
	Voter     tmconsensus.Address
	PubKey    gcrypto.PubKey
	Signature []byte
}

// CommitCertificate witnesses a precommit quorum on a specific value at
// (Height, Round): the portable proof a decision happened.
type CommitCertificate struct {
	Height  tmconsensus.Height
	Round   tmconsensus.Round
	ValueID tmconsensus.ValueID
	Entries []Entry
}

// PolkaCertificate witnesses a prevote quorum on a specific value at
// (Height, Round).
type PolkaCertificate struct {
	Height  tmconsensus.Height
	Round   tmconsensus.Round
	ValueID tmconsensus.ValueID
	Entries []Entry
}

// RoundCertificateKind distinguishes the two justifications a
// RoundCertificate can carry for entering a round.
type RoundCertificateKind uint8

const (
	// RoundSkip witnesses f+1 honest power across votes at or beyond a
	// round, regardless of vote type or value: enough to justify jumping
	// ahead even without a local quorum.
	RoundSkip RoundCertificateKind = iota
	// RoundPrecommit witnesses a full precommit quorum, carried as a round
	// certificate rather than a CommitCertificate when the value itself is
	// not yet known to the receiver (still 2f+1 of power, still precommits).
	RoundPrecommit
)

func (k RoundCertificateKind) String() string {
	if k == RoundPrecommit {
		return "Precommit"
	}
	return "Skip"
}

// RoundCertificateEntry is one signer's vote backing a RoundCertificate.
// Unlike CommitCertificate/PolkaCertificate entries, each entry carries
// its own vote type and choice, since a Skip certificate may mix
// prevotes and precommits across different rounds and values.
type RoundCertificateEntry struct {
	Voter     tmconsensus.Address
	PubKey    gcrypto.PubKey
	Signature []byte
	VoteType  tmconsensus.VoteType
	Round     tmconsensus.Round
	Choice    tmconsensus.ValueChoice
}

// RoundCertificate justifies entering a round: either via a full
// precommit quorum (RoundPrecommit) or via honest-power evidence that
// some correct validator is already at a later round (RoundSkip).
type RoundCertificate struct {
	Height  tmconsensus.Height
	Round   tmconsensus.Round
	Kind    RoundCertificateKind
	Entries []RoundCertificateEntry
}

