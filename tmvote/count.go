// Package tmvote tallies prevotes and precommits by round and value,
// detects the first-time crossing of quorum/honest thresholds, detects
// skip-round conditions, and records equivocation evidence. It is the
// sole point that turns individual signed votes into threshold outputs.
package tmvote

import "github.com/blockweave/tmcore/tmconsensus"

// AddOutcome reports what happened when a vote was added to a VoteCount.
type AddOutcome uint8

const (
	// AddedNew means this is the first vote seen from this voter for
	// this (round, vote-type).
	AddedNew AddOutcome = iota
	// AddedDuplicate means the voter already voted for this exact
	// choice; the weight totals are unchanged.
	AddedDuplicate
	// AddedConflict means the voter already voted for a *different*
	// choice: this is equivocation, and the weight totals are
	// unchanged. The caller is responsible for recording evidence.
	AddedConflict
)

// VoteCount keeps per-value weight sums for one (round, vote-type) and
// answers threshold queries. It is idempotent per voter: a repeated add
// for the same (voter, same choice) does not change totals.
type VoteCount struct {
	totals map[tmconsensus.ValueChoice]uint64
	voters map[tmconsensus.Address]tmconsensus.ValueChoice
}

// NewVoteCount returns an empty VoteCount.
func NewVoteCount() *VoteCount {
	return &VoteCount{
		totals: make(map[tmconsensus.ValueChoice]uint64),
		voters: make(map[tmconsensus.Address]tmconsensus.ValueChoice),
	}
}

// Add records a vote from voter for choice with the given weight.
func (vc *VoteCount) Add(voter tmconsensus.Address, choice tmconsensus.ValueChoice, weight uint64) AddOutcome {
	if existing, ok := vc.voters[voter]; ok {
		if existing.Equal(choice) {
			return AddedDuplicate
		}
		return AddedConflict
	}

	vc.voters[voter] = choice
	vc.totals[choice] += weight
	return AddedNew
}

// Get returns the current weight accumulated for choice.
func (vc *VoteCount) Get(choice tmconsensus.ValueChoice) uint64 {
	return vc.totals[choice]
}

// WeightSum returns the total weight across every choice, including Nil.
func (vc *VoteCount) WeightSum() uint64 {
	var sum uint64
	for _, w := range vc.totals {
		sum += w
	}
	return sum
}

// IsThresholdMet reports whether threshold holds given param and total
// voting power.
func (vc *VoteCount) IsThresholdMet(threshold tmconsensus.Threshold, param tmconsensus.ThresholdParam, total uint64) bool {
	switch threshold.Kind {
	case tmconsensus.ThresholdValue:
		return param.IsMet(vc.Get(tmconsensus.ValChoice(threshold.ID)), total)
	case tmconsensus.ThresholdNil:
		return param.IsMet(vc.Get(tmconsensus.NilChoice()), total)
	case tmconsensus.ThresholdAny:
		return param.IsMet(vc.WeightSum(), total)
	default:
		return false
	}
}

// Compute returns the highest threshold reached for the given choice:
// Value(id) or Nil if that specific choice meets quorum, otherwise Any if
// the combined weight across all choices meets quorum, otherwise
// Unreached.
func (vc *VoteCount) Compute(choice tmconsensus.ValueChoice, quorum tmconsensus.ThresholdParam, total uint64) tmconsensus.Threshold {
	weight := vc.Get(choice)

	if !choice.Nil && quorum.IsMet(weight, total) {
		return tmconsensus.Threshold{Kind: tmconsensus.ThresholdValue, ID: choice.ID}
	}
	if choice.Nil && quorum.IsMet(weight, total) {
		return tmconsensus.Threshold{Kind: tmconsensus.ThresholdNil}
	}

	if quorum.IsMet(vc.WeightSum(), total) {
		return tmconsensus.Threshold{Kind: tmconsensus.ThresholdAny}
	}

	return tmconsensus.Threshold{Kind: tmconsensus.ThresholdUnreached}
}
