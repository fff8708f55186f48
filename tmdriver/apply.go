package tmdriver

import (
	"context"
	"fmt"

	"github.com/blockweave/tmcore/tmcert"
	"github.com/blockweave/tmcore/tmconsensus"
	"github.com/blockweave/tmcore/tmround"
	"github.com/blockweave/tmcore/tmvote"
	"github.com/blockweave/tmcore/tmwal"
)

// processProposal validates sp (signature, proposer identity), buffers
// it if its round is still ahead of the one currently entered, stores it
// via the Proposal Keeper otherwise, and runs the multiplexer.
func (d *Driver) processProposal(ctx context.Context, sp tmconsensus.SignedProposal, validity tmconsensus.Validity) error {
	if validity == tmconsensus.Unknown {
		d.log.Warn("dropping proposal with unreported validity", "round", sp.Proposal.Round)
		return nil
	}

	ok, err := tmconsensus.VerifyProposalSignature(sp, d.sigScheme)
	if err != nil || !ok {
		d.log.Warn("dropping proposal with invalid signature", "proposer", sp.Proposal.Proposer, "round", sp.Proposal.Round)
		return nil
	}

	expected := d.proposerSelector(d.valSet, d.height, sp.Proposal.Round)
	if expected != sp.Proposal.Proposer {
		d.log.Warn("dropping proposal from non-proposer", "proposer", sp.Proposal.Proposer, "expected", expected, "round", sp.Proposal.Round)
		return nil
	}

	if sp.Proposal.Round > d.currentRound {
		d.bufferRoundInput(sp.Proposal.Round, ProposalInput(sp, validity))
		return nil
	}

	d.proposals.Store(sp, validity)

	in, ok := d.multiplexProposal(sp.Proposal, validity)
	if !ok {
		return nil
	}
	return d.dispatch(ctx, sp.Proposal.Round, in)
}

// storeAndMultiplexOwnProposal stores a proposal the local validator
// just signed, trusting its own signature and proposer identity.
func (d *Driver) storeAndMultiplexOwnProposal(ctx context.Context, sp tmconsensus.SignedProposal) error {
	d.proposals.Store(sp, tmconsensus.Valid)
	in, ok := d.multiplexProposal(sp.Proposal, tmconsensus.Valid)
	if !ok {
		return nil
	}
	return d.dispatch(ctx, sp.Proposal.Round, in)
}

// processVote validates sv and hands it to the Vote Keeper, then routes
// any resulting threshold output to the round machine.
func (d *Driver) processVote(ctx context.Context, sv tmconsensus.SignedVote) error {
	validator, ok := d.valSet.ByAddress(sv.Vote.Voter)
	if !ok {
		d.log.Warn("dropping vote from unknown validator", "voter", sv.Vote.Voter)
		return nil
	}

	verified, err := tmconsensus.VerifyVoteSignature(sv, d.sigScheme)
	if err != nil || !verified {
		d.log.Warn("dropping vote with invalid signature", "voter", sv.Vote.Voter, "round", sv.Vote.Round)
		return nil
	}

	return d.applyVerifiedVote(ctx, sv, validator.Power)
}

// processOwnVote hands a vote the local validator just signed to the
// Vote Keeper, trusting its own signature.
func (d *Driver) processOwnVote(ctx context.Context, sv tmconsensus.SignedVote) error {
	validator, ok := d.valSet.ByAddress(sv.Vote.Voter)
	if !ok {
		d.log.Error("our own address is not in the validator set", "address", sv.Vote.Voter)
		return nil
	}
	return d.applyVerifiedVote(ctx, sv, validator.Power)
}

func (d *Driver) applyVerifiedVote(ctx context.Context, sv tmconsensus.SignedVote, weight uint64) error {
	// During WAL replay, a round's state doesn't exist until its
	// NewRoundInput is (re-)issued after StartHeight returns. Tallying a
	// replayed vote into the Vote Keeper right away would mark its
	// threshold output emitted before the round machine exists to
	// consume it (the Vote Keeper only ever emits a given threshold
	// once), permanently losing the Locked/Valid transition that output
	// would have driven. Buffer it instead, the same way processProposal
	// buffers a not-yet-entered round's proposal, so it is re-applied
	// once the round is entered and the Vote Keeper's tally happens
	// exactly once, with the round machine present to receive it.
	if d.replaying {
		if _, ok := d.roundStates[sv.Vote.Round]; !ok {
			d.bufferRoundInput(sv.Vote.Round, VoteInput(sv))
			return nil
		}
	}

	out := d.votes.ApplyVote(sv, weight, d.currentRound)
	if out == nil {
		return nil
	}

	// Skip-round justifications always target the currently-entered
	// round, regardless of which round the triggering vote belonged to.
	if out.Kind == tmvote.SkipRound {
		in, ok := d.multiplexVoteThreshold(sv.Vote.Round, *out)
		if !ok {
			return nil
		}
		return d.dispatch(ctx, d.currentRound, in)
	}

	// Only the currently-entered round may receive vote-driven step
	// advancement; older rounds are still tallied (for certificates) but
	// cannot move their own state machine forward.
	if sv.Vote.Round != d.currentRound {
		return nil
	}

	in, ok := d.multiplexVoteThreshold(sv.Vote.Round, *out)
	if !ok {
		return nil
	}
	return d.dispatch(ctx, sv.Vote.Round, in)
}

// processCommitCertificate verifies c and, if valid, synthesizes a
// ProposalAndPrecommitValue event so the round machine can finalize a
// decision without ever having seen the original signed proposal (the
// "sync decision" path).
func (d *Driver) processCommitCertificate(ctx context.Context, c tmcert.CommitCertificate) error {
	if err := c.Verify(d.valSet, d.params, d.sigScheme); err != nil {
		return fmt.Errorf("tmdriver: verifying commit certificate: %w", err)
	}

	d.ensureRoundState(c.Round)
	p := tmconsensus.Proposal{Height: c.Height, Round: c.Round, ValueID: c.ValueID}
	return d.dispatch(ctx, c.Round, tmround.ProposalPrecommitValueInput(p))
}

// processPolkaCertificate verifies c and feeds the equivalent polka
// input to the round machine, tolerating equivocating local votes that
// alone wouldn't have reached quorum.
func (d *Driver) processPolkaCertificate(ctx context.Context, c tmcert.PolkaCertificate) error {
	if err := c.Verify(d.valSet, d.params, d.sigScheme); err != nil {
		return fmt.Errorf("tmdriver: verifying polka certificate: %w", err)
	}

	d.ensureRoundState(c.Round)
	in, ok := d.multiplexVoteThreshold(c.Round, tmvote.PolkaValueOutput(c.ValueID))
	if !ok {
		return nil
	}
	return d.dispatch(ctx, c.Round, in)
}

// processRoundCertificate verifies c and feeds each carried entry to the
// Vote Keeper as an individual vote. Any one qualifying vote justifies
// entering the round; equivocating extras are absorbed as evidence
// without blocking the rest.
func (d *Driver) processRoundCertificate(ctx context.Context, c tmcert.RoundCertificate) error {
	if err := c.Verify(d.valSet, d.params, d.sigScheme); err != nil {
		return fmt.Errorf("tmdriver: verifying round certificate: %w", err)
	}

	for _, e := range c.Entries {
		sv := tmconsensus.SignedVote{
			Vote: tmconsensus.Vote{
				Type:   e.VoteType,
				Height: c.Height,
				Round:  e.Round,
				Choice: e.Choice,
				Voter:  e.Voter,
			},
			PubKey:    e.PubKey,
			Signature: e.Signature,
		}
		if err := d.processVote(ctx, sv); err != nil {
			return err
		}
	}
	return nil
}

// dispatch applies in to round's state machine, carries out every
// resulting effect, and re-checks accumulated thresholds if the round
// just advanced to Prevote (step-change multiplexing).
func (d *Driver) dispatch(ctx context.Context, round tmconsensus.Round, in tmround.Input) error {
	state, ok := d.roundStates[round]
	if !ok {
		return nil
	}

	newState, outs := tmround.Apply(state, in)
	d.roundStates[round] = newState

	for _, out := range outs {
		if err := d.handleRoundOutput(ctx, round, out); err != nil {
			return err
		}
	}

	steppedToPrevote := state.Step != tmconsensus.StepPrevote && newState.Step == tmconsensus.StepPrevote
	if steppedToPrevote && round == d.currentRound {
		if stepIn, ok := d.multiplexStepChange(round); ok {
			return d.dispatch(ctx, round, stepIn)
		}
	}
	return nil
}

func (d *Driver) handleRoundOutput(ctx context.Context, round tmconsensus.Round, out tmround.Output) error {
	switch out.Kind {
	case tmround.OutputBroadcastProposal:
		p := out.Proposal
		p.Proposer = d.ourAddress
		sp, err := d.host.SignProposal(ctx, p)
		if err != nil {
			return fmt.Errorf("tmdriver: signing proposal: %w", err)
		}
		if !d.replaying {
			if err := d.host.WAL().Append(ctx, tmwal.ConsensusProposalEntry(d.height, sp)); err != nil {
				return fmt.Errorf("tmdriver: appending proposal to WAL: %w", err)
			}
			if err := d.host.WAL().Flush(ctx); err != nil {
				return fmt.Errorf("tmdriver: flushing WAL: %w", err)
			}
			if err := d.host.Broadcast(ctx, sp); err != nil {
				return fmt.Errorf("tmdriver: broadcasting proposal: %w", err)
			}
		}
		return d.storeAndMultiplexOwnProposal(ctx, sp)

	case tmround.OutputBroadcastVote:
		v := out.Vote
		v.Voter = d.ourAddress
		sv, err := d.host.SignVote(ctx, v)
		if err != nil {
			return fmt.Errorf("tmdriver: signing vote: %w", err)
		}
		if !d.replaying {
			if err := d.host.WAL().Append(ctx, tmwal.ConsensusVoteEntry(d.height, sv)); err != nil {
				return fmt.Errorf("tmdriver: appending vote to WAL: %w", err)
			}
			if err := d.host.WAL().Flush(ctx); err != nil {
				return fmt.Errorf("tmdriver: flushing WAL: %w", err)
			}
			if err := d.host.Broadcast(ctx, sv); err != nil {
				return fmt.Errorf("tmdriver: broadcasting vote: %w", err)
			}
		}
		return d.processOwnVote(ctx, sv)

	case tmround.OutputScheduleTimeout:
		if d.replaying {
			return nil
		}
		if err := d.host.ScheduleTimeout(ctx, out.TimeoutStep, out.Round); err != nil {
			return fmt.Errorf("tmdriver: scheduling timeout: %w", err)
		}
		return nil

	case tmround.OutputDecision:
		cert := tmcert.BuildCommitCertificate(d.height, out.DecisionRound, out.DecisionValue, d.votes.PerRound(out.DecisionRound).VotesOfType(tmconsensus.Precommit))
		if err := d.host.Decide(ctx, d.height, out.DecisionRound, out.DecisionValue, cert); err != nil {
			return fmt.Errorf("tmdriver: reporting decision: %w", err)
		}
		return nil

	case tmround.OutputEnterRound:
		return d.processNewRound(ctx, out.EnterRound)

	default:
		return nil
	}
}
