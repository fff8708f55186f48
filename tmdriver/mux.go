package tmdriver

import (
	"github.com/blockweave/tmcore/tmconsensus"
	"github.com/blockweave/tmcore/tmround"
	"github.com/blockweave/tmcore/tmvote"
)

// multiplexProposal turns a just-stored proposal into the round
// machine's enriched input.
func (d *Driver) multiplexProposal(p tmconsensus.Proposal, validity tmconsensus.Validity) (tmround.Input, bool) {
	polkaForPol := d.votes.IsThresholdMet(p.ValidRound, tmconsensus.Prevote, tmconsensus.Threshold{Kind: tmconsensus.ThresholdValue, ID: p.ValueID})
	polkaPrevious := !p.ValidRound.IsNil() && polkaForPol && p.ValidRound < p.Round

	if validity == tmconsensus.Invalid {
		state, ok := d.roundStates[p.Round]
		if !ok || state.Step != tmconsensus.StepPropose {
			return tmround.Input{}, false
		}
		if p.ValidRound.IsNil() {
			return tmround.InvalidProposalInput(p), true
		}
		if polkaPrevious {
			return tmround.InvalidProposalPolkaPreviousInput(p), true
		}
		return tmround.Input{}, false
	}

	// L49 fast path: a precommit quorum for this value already exists at
	// p.Round, regardless of the currently-entered round.
	if d.votes.IsThresholdMet(p.Round, tmconsensus.Precommit, tmconsensus.Threshold{Kind: tmconsensus.ThresholdValue, ID: p.ValueID}) {
		return tmround.ProposalPrecommitValueInput(p), true
	}

	state, ok := d.roundStates[p.Round]
	if !ok {
		return tmround.Input{}, false
	}

	polkaForCurrent := d.votes.IsThresholdMet(p.Round, tmconsensus.Prevote, tmconsensus.Threshold{Kind: tmconsensus.ThresholdValue, ID: p.ValueID})
	polkaCurrent := polkaForCurrent && state.Step >= tmconsensus.StepPrevote

	if polkaCurrent {
		return tmround.ProposalPolkaCurrentInput(p), true
	}
	if state.Step == tmconsensus.StepPropose && polkaPrevious {
		return tmround.ProposalPolkaPreviousInput(p), true
	}
	return tmround.ProposalInput(p), true
}

// multiplexVoteThreshold turns a VoteKeeper output for round into the
// round machine's enriched input, pairing it with the canonical stored
// proposal if one exists.
func (d *Driver) multiplexVoteThreshold(round tmconsensus.Round, out tmvote.Output) (tmround.Input, bool) {
	sp, _, hasProposal := d.proposals.Canonical(round)

	if !hasProposal {
		switch out.Kind {
		case tmvote.PolkaAny, tmvote.PolkaValue:
			return tmround.PolkaAnyInput(), true
		case tmvote.PolkaNil:
			return tmround.PolkaNilInput(), true
		case tmvote.PrecommitAny, tmvote.PrecommitValueKind:
			return tmround.PrecommitAnyInput(), true
		case tmvote.SkipRound:
			return tmround.SkipRoundInput(out.Round), true
		default:
			return tmround.Input{}, false
		}
	}

	p := sp.Proposal
	switch out.Kind {
	case tmvote.PolkaAny:
		return tmround.PolkaAnyInput(), true
	case tmvote.PolkaNil:
		return tmround.PolkaNilInput(), true
	case tmvote.PolkaValue:
		if out.Value == p.ValueID {
			return tmround.ProposalPolkaCurrentInput(p), true
		}
		return tmround.PolkaAnyInput(), true
	case tmvote.PrecommitAny:
		return tmround.PrecommitAnyInput(), true
	case tmvote.PrecommitValueKind:
		if out.Value == p.ValueID {
			return tmround.ProposalPrecommitValueInput(p), true
		}
		return tmround.PrecommitAnyInput(), true
	case tmvote.SkipRound:
		return tmround.SkipRoundInput(out.Round), true
	default:
		return tmround.Input{}, false
	}
}

// multiplexStepChange re-checks thresholds already accumulated in the
// Vote Keeper after round just advanced to Prevote, so a polka collected
// before the round machine reached Prevote isn't lost. Priority order:
// PolkaNil, PolkaValue (if a proposal is stored), PolkaAny.
func (d *Driver) multiplexStepChange(round tmconsensus.Round) (tmround.Input, bool) {
	if d.votes.IsThresholdMet(round, tmconsensus.Prevote, tmconsensus.Threshold{Kind: tmconsensus.ThresholdNil}) {
		return tmround.PolkaNilInput(), true
	}
	if sp, _, ok := d.proposals.Canonical(round); ok {
		p := sp.Proposal
		if d.votes.IsThresholdMet(round, tmconsensus.Prevote, tmconsensus.Threshold{Kind: tmconsensus.ThresholdValue, ID: p.ValueID}) {
			return tmround.ProposalPolkaCurrentInput(p), true
		}
	}
	if d.votes.IsThresholdMet(round, tmconsensus.Prevote, tmconsensus.Threshold{Kind: tmconsensus.ThresholdAny}) {
		return tmround.PolkaAnyInput(), true
	}
	return tmround.Input{}, false
}
