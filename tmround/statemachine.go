package tmround

import "github.com/blockweave/tmcore/tmconsensus"

// Apply advances state by one Input, returning the successor state and
// the effects the Driver must carry out. Inputs that don't apply to
// state's current Step (a stale vote threshold recomputed after the
// round already decided, say) are accepted silently as no-ops: arriving
// out of order is a normal consequence of asynchronous delivery, not a
// bug.
//
// Votes and proposals returned in Outputs carry no Voter/Proposer or
// signature; the Driver fills in the local validator's address and signs
// before broadcasting, since Apply has no key material and performs no
// I/O.
func Apply(state tmconsensus.RoundState, in Input) (tmconsensus.RoundState, []Output) {
	switch in.Kind {
	case InputNewRound:
		return applyNewRound(state, in)
	case InputProposal:
		return applyProposal(state, in.Proposal)
	case InputInvalidProposal:
		return applyInvalidProposal(state)
	case InputProposalPolkaPrevious:
		return applyProposalPolkaPrevious(state, in.Proposal)
	case InputInvalidProposalPolkaPrevious:
		return applyInvalidProposal(state)
	case InputProposalPolkaCurrent:
		return applyProposalPolkaCurrent(state, in.Proposal)
	case InputPolkaAny:
		return applyPolkaAny(state)
	case InputPolkaNil:
		return applyPolkaNil(state)
	case InputPolkaValue:
		// A polka on a specific value without a matching proposal in hand
		// carries no actionable transition by itself. The Driver never feeds
		// this kind: it routes an unpaired value polka as InputPolkaAny, and
		// a paired one as InputProposalPolkaCurrent.
		return state, nil
	case InputPrecommitAny:
		return applyPrecommitAny(state)
	case InputPrecommitValue:
		return state, nil
	case InputProposalPrecommitValue:
		return applyProposalPrecommitValue(state, in.Proposal)
	case InputSkipRound:
		return applyAdvance(state, in.SkipTo)
	case InputTimeoutPropose:
		return applyTimeoutPropose(state)
	case InputTimeoutPrevote:
		return applyTimeoutPrevote(state)
	case InputTimeoutPrecommit:
		return applyAdvance(state, state.Round+1)
	default:
		return state, nil
	}
}

// Rule 1/2: entering a round, either as its proposer or not.
func applyNewRound(state tmconsensus.RoundState, in Input) (tmconsensus.RoundState, []Output) {
	if state.Step != tmconsensus.StepUnstarted {
		return state, nil
	}

	if !in.IsProposer {
		state.Step = tmconsensus.StepPropose
		state.ScheduledProposeTimeout = true
		return state, []Output{scheduleTimeoutOutput(tmconsensus.StepPropose, state.Round)}
	}

	var p tmconsensus.Proposal
	if state.Valid.Set {
		// Rule 1a: re-propose our locked-in valid value, justified by the
		// round at which we last saw it achieve a polka.
		p = tmconsensus.Proposal{
			Height:     state.Height,
			Round:      state.Round,
			Value:      state.Valid.Value,
			ValueID:    state.Valid.ID,
			ValidRound: state.Valid.Round,
		}
	} else {
		// Rule 1b: no prior valid value, propose a fresh one.
		p = tmconsensus.Proposal{
			Height:     state.Height,
			Round:      state.Round,
			Value:      in.FreshValue,
			ValueID:    in.FreshValueID,
			ValidRound: tmconsensus.NilRound,
		}
	}

	state.Step = tmconsensus.StepPropose
	state.ScheduledProposeTimeout = true
	return state, []Output{
		broadcastProposalOutput(p),
		scheduleTimeoutOutput(tmconsensus.StepPropose, state.Round),
	}
}

// Rule 3: valid proposal with ValidRound == Nil, received in Propose step.
func applyProposal(state tmconsensus.RoundState, p tmconsensus.Proposal) (tmconsensus.RoundState, []Output) {
	if state.Step != tmconsensus.StepPropose {
		return state, nil
	}
	state.Proposal = &p

	choice := tmconsensus.ValChoice(p.ValueID)
	if state.Locked.Set && state.Locked.ID != p.ValueID {
		choice = tmconsensus.NilChoice()
	}

	state.Step = tmconsensus.StepPrevote
	return state, []Output{broadcastVoteOutput(tmconsensus.Vote{
		Type:   tmconsensus.Prevote,
		Height: state.Height,
		Round:  state.Round,
		Choice: choice,
	})}
}

// Rule 4: valid proposal with ValidRound == vr >= 0, and the Driver has
// already confirmed a polka for this value at round vr.
func applyProposalPolkaPrevious(state tmconsensus.RoundState, p tmconsensus.Proposal) (tmconsensus.RoundState, []Output) {
	if state.Step != tmconsensus.StepPropose {
		return state, nil
	}
	state.Proposal = &p

	choice := tmconsensus.ValChoice(p.ValueID)
	if state.Locked.Set && state.Locked.Round > p.ValidRound && state.Locked.ID != p.ValueID {
		choice = tmconsensus.NilChoice()
	}

	state.Step = tmconsensus.StepPrevote
	return state, []Output{broadcastVoteOutput(tmconsensus.Vote{
		Type:   tmconsensus.Prevote,
		Height: state.Height,
		Round:  state.Round,
		Choice: choice,
	})}
}

// Rules 3/4's invalid-proposal counterparts: an application-rejected
// proposal is never a basis to prevote for its value.
func applyInvalidProposal(state tmconsensus.RoundState) (tmconsensus.RoundState, []Output) {
	if state.Step != tmconsensus.StepPropose {
		return state, nil
	}
	state.Step = tmconsensus.StepPrevote
	return state, []Output{broadcastVoteOutput(tmconsensus.Vote{
		Type:   tmconsensus.Prevote,
		Height: state.Height,
		Round:  state.Round,
		Choice: tmconsensus.NilChoice(),
	})}
}

// Rule 6: polka-for-any, first time in Prevote step: schedule a prevote
// timeout, since no single value can any longer reach quorum before one
// of the remaining voters' choices resolves it.
func applyPolkaAny(state tmconsensus.RoundState) (tmconsensus.RoundState, []Output) {
	if state.Step != tmconsensus.StepPrevote || state.ScheduledPrevoteTimeout {
		return state, nil
	}
	state.ScheduledPrevoteTimeout = true
	return state, []Output{scheduleTimeoutOutput(tmconsensus.StepPrevote, state.Round)}
}

// Rule 7: a valid proposal whose value has reached a prevote quorum at
// the current round. Locks and precommits the value the first time this
// fires in Prevote step; once already past Prevote, only the "valid"
// bookkeeping is updated so a later round's re-proposal can cite it.
func applyProposalPolkaCurrent(state tmconsensus.RoundState, p tmconsensus.Proposal) (tmconsensus.RoundState, []Output) {
	if state.Step == tmconsensus.StepUnstarted || state.Step == tmconsensus.StepCommit {
		return state, nil
	}
	state.Proposal = &p
	state.Valid = tmconsensus.RoundRef{Set: true, Round: state.Round, Value: p.Value, ID: p.ValueID}

	if state.Step != tmconsensus.StepPrevote {
		// Already precommitted (or later) this round; just remember valid.
		return state, nil
	}

	state.Locked = tmconsensus.RoundRef{Set: true, Round: state.Round, Value: p.Value, ID: p.ValueID}
	state.Step = tmconsensus.StepPrecommit
	return state, []Output{broadcastVoteOutput(tmconsensus.Vote{
		Type:   tmconsensus.Precommit,
		Height: state.Height,
		Round:  state.Round,
		Choice: tmconsensus.ValChoice(p.ValueID),
	})}
}

// Rule 8: polka-for-nil in Prevote step.
func applyPolkaNil(state tmconsensus.RoundState) (tmconsensus.RoundState, []Output) {
	if state.Step != tmconsensus.StepPrevote {
		return state, nil
	}
	state.Step = tmconsensus.StepPrecommit
	return state, []Output{broadcastVoteOutput(tmconsensus.Vote{
		Type:   tmconsensus.Precommit,
		Height: state.Height,
		Round:  state.Round,
		Choice: tmconsensus.NilChoice(),
	})}
}

// Rule 9: TimeoutPrevote fires in Prevote step.
func applyTimeoutPrevote(state tmconsensus.RoundState) (tmconsensus.RoundState, []Output) {
	if state.Step != tmconsensus.StepPrevote {
		return state, nil
	}
	state.Step = tmconsensus.StepPrecommit
	return state, []Output{broadcastVoteOutput(tmconsensus.Vote{
		Type:   tmconsensus.Precommit,
		Height: state.Height,
		Round:  state.Round,
		Choice: tmconsensus.NilChoice(),
	})}
}

// Rule 5: TimeoutPropose fires in Propose step: the proposer is either
// absent or too slow, prevote Nil and move on.
func applyTimeoutPropose(state tmconsensus.RoundState) (tmconsensus.RoundState, []Output) {
	if state.Step != tmconsensus.StepPropose {
		return state, nil
	}
	state.Step = tmconsensus.StepPrevote
	return state, []Output{broadcastVoteOutput(tmconsensus.Vote{
		Type:   tmconsensus.Prevote,
		Height: state.Height,
		Round:  state.Round,
		Choice: tmconsensus.NilChoice(),
	})}
}

// Rule 10: precommit-for-any, first time, in whatever step: nothing can
// reach a precommit quorum at this round without more votes, schedule the
// precommit timeout.
func applyPrecommitAny(state tmconsensus.RoundState) (tmconsensus.RoundState, []Output) {
	if state.ScheduledPrecommitTimeout {
		return state, nil
	}
	state.ScheduledPrecommitTimeout = true
	return state, []Output{scheduleTimeoutOutput(tmconsensus.StepPrecommit, state.Round)}
}

// Rule 11: a valid proposal whose value has reached a precommit quorum.
// Decides the height exactly once; further deliveries once Decided are
// no-ops.
func applyProposalPrecommitValue(state tmconsensus.RoundState, p tmconsensus.Proposal) (tmconsensus.RoundState, []Output) {
	if state.Decided {
		return state, nil
	}
	state.Decided = true
	state.Decision = tmconsensus.RoundRef{Set: true, Round: state.Round, Value: p.Value, ID: p.ValueID}
	state.Step = tmconsensus.StepCommit
	return state, []Output{decisionOutput(state.Round, p.ValueID)}
}

// Rules 12/13: TimeoutPrecommit or SkipRound both ask the Driver to move
// on to a later round. A round only ever asks once.
func applyAdvance(state tmconsensus.RoundState, target tmconsensus.Round) (tmconsensus.RoundState, []Output) {
	if state.Advanced || state.Decided || target <= state.Round {
		return state, nil
	}
	state.Advanced = true
	return state, []Output{enterRoundOutput(target)}
}
