package tmvote

import (
	"io"
	"log/slog"

	"github.com/blockweave/tmcore/tmconsensus"
)

// OutputKind enumerates the shapes of threshold output the keeper can
// emit. Precommit-for-Nil and precommit-for-any collapse onto the same
// PrecommitAny kind: there is no distinct PrecommitNil output.
type OutputKind uint8

const (
	PolkaAny OutputKind = iota
	PolkaNil
	PolkaValue
	PrecommitAny
	PrecommitValueKind
	SkipRound
)

// Output is a message emitted by the VoteKeeper when a threshold is
// crossed for the first time in a round.
type Output struct {
	Kind  OutputKind
	Value tmconsensus.ValueID // meaningful only for PolkaValue / PrecommitValueKind
	Round tmconsensus.Round   // meaningful only for SkipRound
}

func PolkaAnyOutput() Output            { return Output{Kind: PolkaAny} }
func PolkaNilOutput() Output            { return Output{Kind: PolkaNil} }
func PolkaValueOutput(id tmconsensus.ValueID) Output {
	return Output{Kind: PolkaValue, Value: id}
}
func PrecommitAnyOutput() Output { return Output{Kind: PrecommitAny} }
func PrecommitValueOutput(id tmconsensus.ValueID) Output {
	return Output{Kind: PrecommitValueKind, Value: id}
}
func SkipRoundOutput(r tmconsensus.Round) Output { return Output{Kind: SkipRound, Round: r} }

// voteKey identifies "the vote this voter cast for this vote type",
// independent of round (PerRound already scopes by round).
type voteKey struct {
	Type  tmconsensus.VoteType
	Voter tmconsensus.Address
}

// PerRound holds the votes, weights, received-vote set, and emitted
// outputs for a single round. Re-delivering the same vote is always
// safe: Add is idempotent on (voter, type, round).
type PerRound struct {
	Votes    *RoundVotes
	received map[voteKey]tmconsensus.SignedVote
	emitted  map[Output]struct{}
}

func newPerRound() *PerRound {
	return &PerRound{
		Votes:    NewRoundVotes(),
		received: make(map[voteKey]tmconsensus.SignedVote),
		emitted:  make(map[Output]struct{}),
	}
}

// GetVote returns the vote previously recorded from voter for voteType in
// this round, if any.
func (pr *PerRound) GetVote(voteType tmconsensus.VoteType, voter tmconsensus.Address) (tmconsensus.SignedVote, bool) {
	sv, ok := pr.received[voteKey{Type: voteType, Voter: voter}]
	return sv, ok
}

// VotesOfType returns every signed vote of the given type received this round,
// in no particular order. Certificates are built directly from this.
func (pr *PerRound) VotesOfType(voteType tmconsensus.VoteType) []tmconsensus.SignedVote {
	out := make([]tmconsensus.SignedVote, 0, len(pr.received))
	for k, sv := range pr.received {
		if k.Type == voteType {
			out = append(out, sv)
		}
	}
	return out
}

// add records sv with the given weight. It returns AddedConflict without
// mutating any totals if a prior vote from the same voter, same type,
// same round used a different choice.
func (pr *PerRound) add(sv tmconsensus.SignedVote, weight uint64) AddOutcome {
	v := sv.Vote
	outcome := pr.Votes.CountFor(v.Type).Add(v.Voter, v.Choice, weight)
	if outcome == AddedConflict {
		return outcome
	}

	pr.Votes.Weights.SetOnce(v.Voter, weight)
	pr.received[voteKey{Type: v.Type, Voter: v.Voter}] = sv
	return outcome
}

func (pr *PerRound) hasEmitted(o Output) bool {
	_, ok := pr.emitted[o]
	return ok
}

func (pr *PerRound) markEmitted(o Output) {
	pr.emitted[o] = struct{}{}
}

// VoteKeeper owns the round->PerRound map for one height, turning
// individual signed votes into threshold outputs exactly once each, and
// recording equivocation evidence instead of tallying conflicting votes.
type VoteKeeper struct {
	log         *slog.Logger
	totalWeight uint64
	params      tmconsensus.ThresholdParams
	perRound    map[tmconsensus.Round]*PerRound
	evidence    *EvidenceMap
}

// NewVoteKeeper returns a keeper for a height with the given total
// voting power and threshold parameters. log may be nil, in which case a
// no-op logger is used.
func NewVoteKeeper(totalWeight uint64, params tmconsensus.ThresholdParams, log *slog.Logger) *VoteKeeper {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &VoteKeeper{
		log:         log,
		totalWeight: totalWeight,
		params:      params,
		perRound:    make(map[tmconsensus.Round]*PerRound),
		evidence:    NewEvidenceMap(),
	}
}

// TotalWeight returns the keeper's configured total voting power.
func (k *VoteKeeper) TotalWeight() uint64 { return k.totalWeight }

// Evidence returns the keeper's accumulated equivocation evidence.
func (k *VoteKeeper) Evidence() *EvidenceMap { return k.evidence }

// PerRound returns the per-round record for r, creating it if absent.
// Exposed so the Driver can build certificates directly from stored
// votes.
func (k *VoteKeeper) PerRound(r tmconsensus.Round) *PerRound {
	pr, ok := k.perRound[r]
	if !ok {
		pr = newPerRound()
		k.perRound[r] = pr
	}
	return pr
}

// ApplyVote records sv with the given validator weight, against the
// driver's currently-entered round. It returns the first-crossed
// threshold output for this round, if any; conflicting votes from the
// same voter are recorded as equivocation evidence and return nil.
func (k *VoteKeeper) ApplyVote(sv tmconsensus.SignedVote, weight uint64, currentRound tmconsensus.Round) *Output {
	v := sv.Vote
	pr := k.PerRound(v.Round)

	if existing, ok := pr.GetVote(v.Type, v.Voter); ok && !existing.Vote.Choice.Equal(v.Choice) {
		k.evidence.Add(existing, sv)
		k.log.Warn("recorded conflicting vote as evidence",
			"voter", v.Voter, "type", v.Type, "round", v.Round,
			"first_choice", existing.Vote.Choice, "conflicting_choice", v.Choice)
		return nil
	}

	outcome := pr.add(sv, weight)
	if outcome == AddedDuplicate {
		return nil
	}

	if v.Round > currentRound {
		sum := pr.Votes.Weights.Sum()
		if k.params.Honest.IsMet(sum, k.totalWeight) {
			out := SkipRoundOutput(v.Round)
			if !pr.hasEmitted(out) {
				pr.markEmitted(out)
				return &out
			}
			return nil
		}
	}

	threshold := pr.Votes.CountFor(v.Type).Compute(v.Choice, k.params.Quorum, k.totalWeight)

	out, ok := thresholdToOutput(v.Type, threshold)
	if !ok {
		return nil
	}
	if pr.hasEmitted(out) {
		return nil
	}
	pr.markEmitted(out)
	return &out
}

// IsThresholdMet is a stateless query over accumulated votes, used by
// the Driver's multiplexer when checking historical polkas (e.g. at a
// proposal's valid-round).
func (k *VoteKeeper) IsThresholdMet(r tmconsensus.Round, voteType tmconsensus.VoteType, threshold tmconsensus.Threshold) bool {
	pr, ok := k.perRound[r]
	if !ok {
		return false
	}
	return pr.Votes.IsThresholdMet(voteType, threshold, k.params.Quorum, k.totalWeight)
}

func thresholdToOutput(voteType tmconsensus.VoteType, t tmconsensus.Threshold) (Output, bool) {
	switch t.Kind {
	case tmconsensus.ThresholdUnreached:
		return Output{}, false
	case tmconsensus.ThresholdAny:
		if voteType == tmconsensus.Prevote {
			return PolkaAnyOutput(), true
		}
		return PrecommitAnyOutput(), true
	case tmconsensus.ThresholdNil:
		if voteType == tmconsensus.Prevote {
			return PolkaNilOutput(), true
		}
		// Precommit-for-Nil collapses onto PrecommitAny.
		return PrecommitAnyOutput(), true
	case tmconsensus.ThresholdValue:
		if voteType == tmconsensus.Prevote {
			return PolkaValueOutput(t.ID), true
		}
		return PrecommitValueOutput(t.ID), true
	default:
		return Output{}, false
	}
}
