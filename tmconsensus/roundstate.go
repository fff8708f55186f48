package tmconsensus

// RoundRef pairs a round with a value, used for the Locked and Valid
// fields of RoundState: "locked" records the last value this validator
// precommitted to, "valid" records the highest round at which a polka on
// some value was observed. Set is false when no lock/valid value exists
// yet.
type RoundRef struct {
	Set   bool
	Round Round
	Value Value
	ID    ValueID
}

// RoundState is the per-round state the round state machine threads
// through each transition. It is a value type: the state machine takes
// one by value and returns its successor, never mutating anything in
// place, which is what makes replay and holding many concurrent
// RoundStates (one per round) trivial for the Driver.
type RoundState struct {
	Height Height
	Round  Round
	Step   Step

	Locked RoundRef
	Valid  RoundRef

	// Proposal is the proposal this round's state machine has accepted
	// for its own round (not past/future rounds); nil until one arrives.
	Proposal *Proposal

	// Decided is set once this round has produced a Decision; it is the
	// decided value. Once true, the round remains in StepCommit until the
	// height ends, and further ProposalAndPrecommitValue inputs are
	// ignored.
	Decided  bool
	Decision RoundRef

	// The following flags record which idempotent, at-most-once-per-round
	// side effects have already been emitted: re-entrancy on the same
	// trigger is a no-op. They are plain fields, not derived
	// from Step, because more than one of them can be pending within the
	// same step (e.g. PolkaAny's timeout and a later PolkaNil precommit
	// both fire while Step == Prevote).
	ScheduledProposeTimeout    bool
	ScheduledPrevoteTimeout    bool
	ScheduledPrecommitTimeout  bool

	// Advanced is set once this round has emitted a request to move to a
	// later round, via TimeoutPrecommit or SkipRound. Further such inputs
	// are ignored: a round only ever asks to move on once.
	Advanced bool
}

// NewRoundState returns the zero-value RoundState for height h, round r,
// in step Unstarted.
func NewRoundState(h Height, r Round) RoundState {
	return RoundState{
		Height: h,
		Round:  r,
		Step:   StepUnstarted,
	}
}
