package tmvote

import "github.com/blockweave/tmcore/tmconsensus"

// RoundWeights is the address->weight map used once per address within a
// round, regardless of vote type. Its Sum is the basis of the
// skip-round decision: skip-round only cares that this much voting power
// has shown up at a higher round, not which value or vote type it used.
type RoundWeights struct {
	weights map[tmconsensus.Address]uint64
}

// NewRoundWeights returns an empty RoundWeights.
func NewRoundWeights() *RoundWeights {
	return &RoundWeights{weights: make(map[tmconsensus.Address]uint64)}
}

// SetOnce records addr's weight the first time it is seen; subsequent
// calls for the same address are no-ops, so a validator's weight is
// never double-counted even if it voted both prevote and precommit in
// the round.
func (rw *RoundWeights) SetOnce(addr tmconsensus.Address, weight uint64) {
	if _, ok := rw.weights[addr]; ok {
		return
	}
	rw.weights[addr] = weight
}

// Sum returns the combined weight of every distinct address recorded.
func (rw *RoundWeights) Sum() uint64 {
	var sum uint64
	for _, w := range rw.weights {
		sum += w
	}
	return sum
}

// RoundVotes is the pair of VoteCounts (prevote, precommit) for a single
// round, plus the RoundWeights used for skip-round detection.
type RoundVotes struct {
	Prevotes   *VoteCount
	Precommits *VoteCount
	Weights    *RoundWeights
}

// NewRoundVotes returns an empty RoundVotes.
func NewRoundVotes() *RoundVotes {
	return &RoundVotes{
		Prevotes:   NewVoteCount(),
		Precommits: NewVoteCount(),
		Weights:    NewRoundWeights(),
	}
}

// CountFor returns the VoteCount for the given vote type.
func (rv *RoundVotes) CountFor(t tmconsensus.VoteType) *VoteCount {
	if t == tmconsensus.Prevote {
		return rv.Prevotes
	}
	return rv.Precommits
}

// IsThresholdMet reports whether the given vote type's count meets
// threshold against quorum and total.
func (rv *RoundVotes) IsThresholdMet(t tmconsensus.VoteType, threshold tmconsensus.Threshold, quorum tmconsensus.ThresholdParam, total uint64) bool {
	return rv.CountFor(t).IsThresholdMet(threshold, quorum, total)
}
