// Package tmwal defines the write-ahead log contract the core depends
// on for durability and an in-memory reference implementation, covering
// the entry kinds the core needs to replay after a restart: signed
// consensus messages, application-proposed values, and the subset of
// timeouts that must survive a crash.
package tmwal

import (
	"context"
	"fmt"

	"github.com/blockweave/tmcore/tmconsensus"
)

// EntryKind enumerates what a WAL Entry carries.
type EntryKind uint8

const (
	EntryConsensusVote EntryKind = iota
	EntryConsensusProposal
	EntryProposedValue
	EntryTimeout
)

func (k EntryKind) String() string {
	switch k {
	case EntryConsensusVote:
		return "ConsensusVote"
	case EntryConsensusProposal:
		return "ConsensusProposal"
	case EntryProposedValue:
		return "ProposedValue"
	case EntryTimeout:
		return "Timeout"
	default:
		return fmt.Sprintf("EntryKind(%d)", uint8(k))
	}
}

// Entry is one durable record. Only the fields relevant to Kind are
// meaningful; see the EntryXxx constructors.
type Entry struct {
	Kind   EntryKind
	Height tmconsensus.Height

	// SignedVote/SignedProposal are meaningful for EntryConsensusVote /
	// EntryConsensusProposal: the already-signed message, appended before
	// it is published so a signature is never sent without first being
	// durable.
	SignedVote     tmconsensus.SignedVote
	SignedProposal tmconsensus.SignedProposal

	// ProposedRound/ProposedValue/ProposedOrigin are meaningful for
	// EntryProposedValue: the round the local validator was proposer for,
	// the application-produced value, and a caller-defined label for
	// where it came from (used only for diagnostics; the core never
	// interprets it). Keying by round, not just height, matters because a
	// validator can be proposer in more than one round of the same
	// height.
	ProposedRound  tmconsensus.Round
	ProposedValue  tmconsensus.Value
	ProposedOrigin string

	// TimeoutStep/TimeoutRound are meaningful for EntryTimeout.
	TimeoutStep  tmconsensus.Step
	TimeoutRound tmconsensus.Round
}

func ConsensusVoteEntry(h tmconsensus.Height, sv tmconsensus.SignedVote) Entry {
	return Entry{Kind: EntryConsensusVote, Height: h, SignedVote: sv}
}

func ConsensusProposalEntry(h tmconsensus.Height, sp tmconsensus.SignedProposal) Entry {
	return Entry{Kind: EntryConsensusProposal, Height: h, SignedProposal: sp}
}

func ProposedValueEntry(h tmconsensus.Height, r tmconsensus.Round, v tmconsensus.Value, origin string) Entry {
	return Entry{Kind: EntryProposedValue, Height: h, ProposedRound: r, ProposedValue: v, ProposedOrigin: origin}
}

func TimeoutEntry(h tmconsensus.Height, step tmconsensus.Step, round tmconsensus.Round) Entry {
	return Entry{Kind: EntryTimeout, Height: h, TimeoutStep: step, TimeoutRound: round}
}

// WAL is the durability contract the core depends on. Append and Flush
// are decoupled so a caller can batch several appends before paying the
// durability barrier's cost once.
type WAL interface {
	// Append persists e, associated with e.Height. It does not itself
	// guarantee e survives a crash; call Flush for that.
	Append(ctx context.Context, e Entry) error

	// Flush is a durability barrier: once it returns, every previously
	// appended entry is guaranteed to survive a crash.
	Flush(ctx context.Context) error

	// Replay returns the entries previously appended for h, in FIFO
	// order, when the log is already at height h. If the log is at a
	// different height, Replay resets the log to h and returns an empty
	// slice: entering a new height always starts from a clean log.
	Replay(ctx context.Context, h tmconsensus.Height) ([]Entry, error)
}
