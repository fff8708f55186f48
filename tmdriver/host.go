// Package tmdriver is the per-height orchestrator: it owns the Vote
// Keeper, Proposal Keeper, and one round state machine per entered
// round, and turns raw inbound messages into the enriched inputs
// tmround.Apply understands. Signing, broadcast, and WAL access are
// expressed as ordinary blocking calls on the Host interface rather than
// suspend/resume effects for an async runtime, since a Go caller can
// already block a goroutine without a continuation protocol.
package tmdriver

import (
	"context"

	"github.com/blockweave/tmcore/tmcert"
	"github.com/blockweave/tmcore/tmconsensus"
	"github.com/blockweave/tmcore/tmwal"
)

// Host is the effect boundary: every external dependency the Driver
// needs but cannot compute on its own. Implementations are provided by
// the embedder; this package's own tests use a deterministic fake
// (fakeHost).
type Host interface {
	// GetValue asks the application for a value to propose at (height,
	// round). The Driver calls this only when it is that round's proposer
	// and carries no prior valid value to re-propose.
	GetValue(ctx context.Context, height tmconsensus.Height, round tmconsensus.Round) (tmconsensus.Value, error)

	// SignVote and SignProposal sign the given message with the local
	// validator's key.
	SignVote(ctx context.Context, v tmconsensus.Vote) (tmconsensus.SignedVote, error)
	SignProposal(ctx context.Context, p tmconsensus.Proposal) (tmconsensus.SignedProposal, error)

	// Broadcast sends a signed consensus message (a SignedVote or
	// SignedProposal) to the network. msg is always one of those two
	// concrete types.
	Broadcast(ctx context.Context, msg any) error

	// ScheduleTimeout and CancelTimeout manage a single (step, round)
	// timer. CancelAllTimeouts cancels every timeout for a height, called
	// when the Driver starts a new height.
	ScheduleTimeout(ctx context.Context, step tmconsensus.Step, round tmconsensus.Round) error
	CancelTimeout(ctx context.Context, step tmconsensus.Step, round tmconsensus.Round) error
	CancelAllTimeouts(ctx context.Context) error

	// GetValidatorSet fetches the validator set for a height. The Driver
	// itself never calls it: StartHeight always takes the validator set
	// as an argument.
	GetValidatorSet(ctx context.Context, height tmconsensus.Height) (tmconsensus.ValidatorSet, bool, error)

	// Decide reports a finalized decision, carrying the commit
	// certificate that witnesses it.
	Decide(ctx context.Context, height tmconsensus.Height, round tmconsensus.Round, value tmconsensus.ValueID, cert tmcert.CommitCertificate) error

	// WAL is the durability boundary; the Driver appends before
	// broadcasting any signed message it produces itself, and flushes
	// before returning from Process.
	WAL() tmwal.WAL
}
