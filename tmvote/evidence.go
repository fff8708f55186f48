package tmvote

import "github.com/blockweave/tmcore/tmconsensus"

// ConflictingVotePair is a validator's two conflicting votes for the
// same (type, round) but different choices: the first one recorded, and
// the one that triggered the conflict.
type ConflictingVotePair struct {
	First      tmconsensus.SignedVote
	Conflicting tmconsensus.SignedVote
}

// EvidenceMap records equivocation evidence by voter address. It
// survives beyond the triggering round and is never pruned by the
// VoteKeeper itself; the embedder ties its lifetime to the decision of
// the height.
type EvidenceMap struct {
	byVoter map[tmconsensus.Address][]ConflictingVotePair
}

// NewEvidenceMap returns an empty EvidenceMap.
func NewEvidenceMap() *EvidenceMap {
	return &EvidenceMap{byVoter: make(map[tmconsensus.Address][]ConflictingVotePair)}
}

// Add records a conflicting vote pair for the voter of first (and
// conflicting, which must share the same voter).
func (m *EvidenceMap) Add(first, conflicting tmconsensus.SignedVote) {
	voter := first.Vote.Voter
	m.byVoter[voter] = append(m.byVoter[voter], ConflictingVotePair{First: first, Conflicting: conflicting})
}

// For returns the recorded conflicts for voter, if any.
func (m *EvidenceMap) For(voter tmconsensus.Address) []ConflictingVotePair {
	return m.byVoter[voter]
}

// Voters returns every address with at least one piece of evidence.
func (m *EvidenceMap) Voters() []tmconsensus.Address {
	out := make([]tmconsensus.Address, 0, len(m.byVoter))
	for a := range m.byVoter {
		out = append(out, a)
	}
	return out
}

// All returns the full evidence map, keyed by voter address.
func (m *EvidenceMap) All() map[tmconsensus.Address][]ConflictingVotePair {
	return m.byVoter
}
