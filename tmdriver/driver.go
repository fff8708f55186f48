package tmdriver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blockweave/tmcore/tmconsensus"
	"github.com/blockweave/tmcore/tmproposal"
	"github.com/blockweave/tmcore/tmround"
	"github.com/blockweave/tmcore/tmvote"
	"github.com/blockweave/tmcore/tmwal"
)

// Driver is the per-height orchestrator: it owns the Vote Keeper,
// Proposal Keeper, and every entered round's state, and routes inbound
// messages to them, running the multiplexer to translate raw votes and
// proposals into the round machine's enriched inputs.
type Driver struct {
	log              *slog.Logger
	host             Host
	ourAddress       tmconsensus.Address
	sigScheme        tmconsensus.SignatureScheme
	hashScheme       tmconsensus.HashScheme
	proposerSelector tmconsensus.ProposerSelector
	params           tmconsensus.ThresholdParams
	bufferCap        int

	height       tmconsensus.Height
	valSet       tmconsensus.ValidatorSet
	currentRound tmconsensus.Round

	roundStates map[tmconsensus.Round]tmconsensus.RoundState
	votes       *tmvote.VoteKeeper
	proposals   *tmproposal.ProposalKeeper

	// proposedValues caches, per round, a value this validator already
	// asked the application for as that round's proposer. Populated live
	// after a real Host.GetValue call and from WAL replay, so a
	// crash-restart reuses the value it already committed to instead of
	// asking the application again and risking a second, conflicting
	// proposal for the same (height, round).
	proposedValues map[tmconsensus.Round]tmconsensus.Value

	// replaying suppresses Host.Broadcast/ScheduleTimeout/WAL-append calls
	// while re-processing entries read back from the WAL: replay must
	// re-derive the same state without re-emitting effects the crashed
	// process already emitted once.
	replaying bool

	buffer      map[tmconsensus.Height][]Input
	roundBuffer map[tmconsensus.Round][]Input
}

// New returns a Driver for ourAddress, talking to the outside world
// through host.
func New(host Host, ourAddress tmconsensus.Address, opts ...Option) (*Driver, error) {
	d := &Driver{
		host:             host,
		ourAddress:       ourAddress,
		sigScheme:        tmconsensus.SimpleSignatureScheme{},
		hashScheme:       tmconsensus.SimpleHashScheme{},
		proposerSelector: tmconsensus.RoundRobinProposerSelector,
		params:           tmconsensus.DefaultThresholdParams(),
		bufferCap:        1024,
		currentRound:     tmconsensus.NilRound,
		buffer:           make(map[tmconsensus.Height][]Input),
		roundBuffer:      make(map[tmconsensus.Round][]Input),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, fmt.Errorf("tmdriver: applying option: %w", err)
		}
	}
	if d.log == nil {
		d.log = defaultLogger()
	}
	return d, nil
}

// Height returns the height the Driver is currently processing.
func (d *Driver) Height() tmconsensus.Height { return d.height }

// CurrentRound returns the round the Driver has most recently entered.
func (d *Driver) CurrentRound() tmconsensus.Round { return d.currentRound }

// RoundState returns a snapshot of the state held for round r, if any
// has been created.
func (d *Driver) RoundState(r tmconsensus.Round) (tmconsensus.RoundState, bool) {
	rs, ok := d.roundStates[r]
	return rs, ok
}

// VoteEvidence and ProposalEvidence return the accumulated vote- and
// proposal-equivocation evidence for the current height.
func (d *Driver) VoteEvidence() *tmvote.EvidenceMap { return d.votes.Evidence() }
func (d *Driver) ProposalEvidence() map[tmconsensus.Address][]tmproposal.ConflictingProposalPair {
	return d.proposals.Evidence()
}

// StartHeight resets the Driver's internal state for height h with
// validator set vs, cancels every outstanding timeout from the previous
// height, replays the WAL for h, and drains any inputs buffered while h
// was still in the future.
func (d *Driver) StartHeight(ctx context.Context, h tmconsensus.Height, vs tmconsensus.ValidatorSet) error {
	if err := d.host.CancelAllTimeouts(ctx); err != nil {
		return fmt.Errorf("tmdriver: cancelling timeouts: %w", err)
	}

	d.height = h
	d.valSet = vs
	d.currentRound = tmconsensus.NilRound
	d.roundStates = make(map[tmconsensus.Round]tmconsensus.RoundState)
	d.votes = tmvote.NewVoteKeeper(vs.TotalPower(), d.params, d.log)
	d.proposals = tmproposal.NewProposalKeeper(d.log)
	d.roundBuffer = make(map[tmconsensus.Round][]Input)
	d.proposedValues = make(map[tmconsensus.Round]tmconsensus.Value)

	entries, err := d.host.WAL().Replay(ctx, h)
	if err != nil {
		return fmt.Errorf("tmdriver: replaying WAL for height %d: %w", h, err)
	}
	if len(entries) > 0 {
		d.replaying = true
		for _, e := range entries {
			if err := d.replayEntry(ctx, e); err != nil {
				d.replaying = false
				return fmt.Errorf("tmdriver: replaying entry: %w", err)
			}
		}
		d.replaying = false
	}

	// A height always opens at round 0; later rounds are entered either
	// internally (OutputEnterRound, from a timeout or skip-round
	// advancing the state machine) or externally via InputNewRound for
	// catch-up. Entering round 0 here, after replay has populated
	// d.proposedValues and d.roundBuffer but with d.replaying already
	// false, lets any replayed proposal/vote for round 0 drain through
	// the round machine exactly once, live.
	if err := d.processNewRound(ctx, 0); err != nil {
		return fmt.Errorf("tmdriver: entering round 0: %w", err)
	}

	buffered := d.buffer[h]
	delete(d.buffer, h)
	for _, in := range buffered {
		if err := d.Process(ctx, in); err != nil {
			return fmt.Errorf("tmdriver: draining buffered input: %w", err)
		}
	}
	return nil
}

func (d *Driver) replayEntry(ctx context.Context, e tmwal.Entry) error {
	switch e.Kind {
	case tmwal.EntryConsensusVote:
		return d.Process(ctx, VoteInput(e.SignedVote))
	case tmwal.EntryConsensusProposal:
		return d.Process(ctx, ProposalInput(e.SignedProposal, tmconsensus.Valid))
	case tmwal.EntryProposedValue:
		d.proposedValues[e.ProposedRound] = e.ProposedValue
		return nil
	case tmwal.EntryTimeout:
		return d.Process(ctx, TimeoutElapsedInput(e.TimeoutStep, e.TimeoutRound))
	default:
		return nil
	}
}

// Process routes a single inbound input. Inputs for a height strictly
// ahead of the current one are buffered (bounded, dropping the oldest);
// inputs for a past height are discarded. Of the inputs it rejects, only
// certificate-verification failures are returned as errors; every other
// drop (bad signature, unknown validator, wrong height) is logged and
// absorbed. Failures of Host calls (signing, WAL, broadcast) are also
// returned.
func (d *Driver) Process(ctx context.Context, in Input) error {
	h := in.height(d.height)
	if in.Kind != InputStartHeight {
		if h > d.height {
			d.bufferInput(h, in)
			return nil
		}
		if h < d.height {
			d.log.Warn("dropping input for past height", "input_height", h, "current_height", d.height)
			return nil
		}
	}

	switch in.Kind {
	case InputStartHeight:
		return d.StartHeight(ctx, in.Height, in.ValidatorSet)
	case InputNewRound:
		return d.processNewRound(ctx, in.Round)
	case InputProposal:
		return d.processProposal(ctx, in.Proposal, in.Validity)
	case InputVote:
		return d.processVote(ctx, in.Vote)
	case InputTimeoutElapsed:
		return d.dispatch(ctx, in.Round, tmround.Input{Kind: timeoutInputKind(in.TimeoutStep)})
	case InputCommitCertificate:
		return d.processCommitCertificate(ctx, in.CommitCert)
	case InputPolkaCertificate:
		return d.processPolkaCertificate(ctx, in.PolkaCert)
	case InputRoundCertificate:
		return d.processRoundCertificate(ctx, in.RoundCert)
	default:
		return nil
	}
}

func (d *Driver) bufferInput(h tmconsensus.Height, in Input) {
	q := d.buffer[h]
	if len(q) >= d.bufferCap {
		q = q[1:]
	}
	d.buffer[h] = append(q, in)
}

func timeoutInputKind(step tmconsensus.Step) tmround.InputKind {
	switch step {
	case tmconsensus.StepPropose:
		return tmround.InputTimeoutPropose
	case tmconsensus.StepPrevote:
		return tmround.InputTimeoutPrevote
	default:
		return tmround.InputTimeoutPrecommit
	}
}

// processNewRound creates round r's state and enters it, deriving the
// "are we proposer" bit from the configured proposer-selection function.
func (d *Driver) processNewRound(ctx context.Context, r tmconsensus.Round) error {
	if _, exists := d.roundStates[r]; exists {
		return nil
	}

	state := tmconsensus.NewRoundState(d.height, r)
	if prev, ok := d.roundStates[d.currentRound]; ok {
		state.Locked = prev.Locked
		state.Valid = prev.Valid
		state.Decided = prev.Decided
		state.Decision = prev.Decision
	}
	d.roundStates[r] = state
	if r > d.currentRound {
		d.currentRound = r
	}

	isProposer := d.proposerSelector(d.valSet, d.height, r) == d.ourAddress

	var in tmround.Input
	if isProposer && !state.Valid.Set {
		val, ok := d.proposedValues[r]
		if !ok {
			var err error
			val, err = d.host.GetValue(ctx, d.height, r)
			if err != nil {
				return fmt.Errorf("tmdriver: getting value to propose: %w", err)
			}
			d.proposedValues[r] = val
			if !d.replaying {
				if err := d.host.WAL().Append(ctx, tmwal.ProposedValueEntry(d.height, r, val, "GetValue")); err != nil {
					return fmt.Errorf("tmdriver: appending proposed value to WAL: %w", err)
				}
				if err := d.host.WAL().Flush(ctx); err != nil {
					return fmt.Errorf("tmdriver: flushing WAL: %w", err)
				}
			}
		}
		id, err := val.ID(d.hashScheme)
		if err != nil {
			return fmt.Errorf("tmdriver: hashing value to propose: %w", err)
		}
		in = tmround.NewRoundInput(true, val, id)
	} else {
		in = tmround.NewRoundInput(isProposer, tmconsensus.Value{}, "")
	}

	if err := d.dispatch(ctx, r, in); err != nil {
		return err
	}

	buffered := d.roundBuffer[r]
	delete(d.roundBuffer, r)
	for _, bin := range buffered {
		if err := d.Process(ctx, bin); err != nil {
			return fmt.Errorf("tmdriver: draining round-buffered input: %w", err)
		}
	}
	return nil
}

// ensureRoundState returns round r's state, creating it (carrying
// forward Locked/Valid/Decided from the highest round entered so far)
// without running proposer logic, for the certificate-driven sync paths
// that may jump straight to a round nobody locally proposed in.
func (d *Driver) ensureRoundState(r tmconsensus.Round) tmconsensus.RoundState {
	if state, ok := d.roundStates[r]; ok {
		return state
	}
	state := tmconsensus.NewRoundState(d.height, r)
	if prev, ok := d.roundStates[d.currentRound]; ok {
		state.Locked = prev.Locked
		state.Valid = prev.Valid
		state.Decided = prev.Decided
		state.Decision = prev.Decision
	}
	d.roundStates[r] = state
	if r > d.currentRound {
		d.currentRound = r
	}
	return state
}

func (d *Driver) bufferRoundInput(r tmconsensus.Round, in Input) {
	q := d.roundBuffer[r]
	if len(q) >= d.bufferCap {
		q = q[1:]
	}
	d.roundBuffer[r] = append(q, in)
}
