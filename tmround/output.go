package tmround

import "github.com/blockweave/tmcore/tmconsensus"

// OutputKind enumerates the effects a round transition can ask the
// Driver to carry out. None of these are performed by Apply itself.
type OutputKind uint8

const (
	OutputBroadcastProposal OutputKind = iota
	OutputBroadcastVote
	OutputScheduleTimeout
	OutputDecision
	OutputEnterRound
)

func (k OutputKind) String() string {
	switch k {
	case OutputBroadcastProposal:
		return "BroadcastProposal"
	case OutputBroadcastVote:
		return "BroadcastVote"
	case OutputScheduleTimeout:
		return "ScheduleTimeout"
	case OutputDecision:
		return "Decision"
	case OutputEnterRound:
		return "EnterRound"
	default:
		return "Output(?)"
	}
}

// Output is one effect requested by a round transition. Only the fields
// relevant to Kind are meaningful.
type Output struct {
	Kind OutputKind

	// Proposal is meaningful for OutputBroadcastProposal: an unsigned
	// proposal the Driver must sign and broadcast.
	Proposal tmconsensus.Proposal

	// Vote is meaningful for OutputBroadcastVote: an unsigned vote the
	// Driver must sign and broadcast.
	Vote tmconsensus.Vote

	// TimeoutStep and Round are meaningful for OutputScheduleTimeout: the
	// step the timeout fires for, at which round.
	TimeoutStep tmconsensus.Step
	Round       tmconsensus.Round

	// DecisionValue/DecisionRound are meaningful for OutputDecision.
	DecisionValue tmconsensus.ValueID
	DecisionRound tmconsensus.Round

	// EnterRound is meaningful for OutputEnterRound: the round the Driver
	// must now create and enter, either current+1 (TimeoutPrecommit) or an
	// explicit later round (SkipRound).
	EnterRound tmconsensus.Round
}

func broadcastProposalOutput(p tmconsensus.Proposal) Output {
	return Output{Kind: OutputBroadcastProposal, Proposal: p}
}

func broadcastVoteOutput(v tmconsensus.Vote) Output {
	return Output{Kind: OutputBroadcastVote, Vote: v}
}

func scheduleTimeoutOutput(step tmconsensus.Step, round tmconsensus.Round) Output {
	return Output{Kind: OutputScheduleTimeout, TimeoutStep: step, Round: round}
}

func decisionOutput(round tmconsensus.Round, id tmconsensus.ValueID) Output {
	return Output{Kind: OutputDecision, DecisionRound: round, DecisionValue: id}
}

func enterRoundOutput(r tmconsensus.Round) Output {
	return Output{Kind: OutputEnterRound, EnterRound: r}
}
