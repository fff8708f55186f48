// Package tmround implements the propose/prevote/precommit/commit
// automaton for a single round as a pure function: Apply takes a
// RoundState and an Input and returns the successor RoundState plus
// zero or more Outputs. It holds no state of its own and performs no
// I/O; the Driver (tmdriver) is responsible for routing raw votes and
// proposals into the enriched Inputs this package understands, keeping
// multiplexing decisions out of the state machine itself.
package tmround

import "github.com/blockweave/tmcore/tmconsensus"

// InputKind enumerates the enriched events the Driver feeds to a round's
// state machine.
type InputKind uint8

const (
	InputNewRound InputKind = iota
	InputProposal
	InputInvalidProposal
	InputProposalPolkaPrevious
	InputInvalidProposalPolkaPrevious
	InputProposalPolkaCurrent
	InputPolkaAny
	InputPolkaNil
	InputPolkaValue
	InputPrecommitAny
	InputPrecommitValue
	InputProposalPrecommitValue
	InputSkipRound
	InputTimeoutPropose
	InputTimeoutPrevote
	InputTimeoutPrecommit
)

func (k InputKind) String() string {
	switch k {
	case InputNewRound:
		return "NewRound"
	case InputProposal:
		return "Proposal"
	case InputInvalidProposal:
		return "InvalidProposal"
	case InputProposalPolkaPrevious:
		return "ProposalAndPolkaPrevious"
	case InputInvalidProposalPolkaPrevious:
		return "InvalidProposalAndPolkaPrevious"
	case InputProposalPolkaCurrent:
		return "ProposalAndPolkaCurrent"
	case InputPolkaAny:
		return "PolkaAny"
	case InputPolkaNil:
		return "PolkaNil"
	case InputPolkaValue:
		return "PolkaValue"
	case InputPrecommitAny:
		return "PrecommitAny"
	case InputPrecommitValue:
		return "PrecommitValue"
	case InputProposalPrecommitValue:
		return "ProposalAndPrecommitValue"
	case InputSkipRound:
		return "SkipRound"
	case InputTimeoutPropose:
		return "TimeoutPropose"
	case InputTimeoutPrevote:
		return "TimeoutPrevote"
	case InputTimeoutPrecommit:
		return "TimeoutPrecommit"
	default:
		return "Input(?)"
	}
}

// Input is the enriched event fed to Apply. Only the fields relevant to
// Kind are meaningful; see the InputXxx constructors.
type Input struct {
	Kind InputKind

	// IsProposer is meaningful only for InputNewRound.
	IsProposer bool
	// FreshValue/FreshValueID are meaningful only for InputNewRound when
	// IsProposer is true and the round state carries no prior Valid
	// value; the Driver must fetch and hash this before calling Apply,
	// since Apply performs no I/O.
	FreshValue   tmconsensus.Value
	FreshValueID tmconsensus.ValueID

	// Proposal is meaningful for every proposal-carrying input kind.
	Proposal tmconsensus.Proposal

	// ValueID is meaningful for InputPolkaValue / InputPrecommitValue.
	ValueID tmconsensus.ValueID

	// SkipTo is meaningful only for InputSkipRound.
	SkipTo tmconsensus.Round
}

func NewRoundInput(isProposer bool, freshValue tmconsensus.Value, freshValueID tmconsensus.ValueID) Input {
	return Input{Kind: InputNewRound, IsProposer: isProposer, FreshValue: freshValue, FreshValueID: freshValueID}
}

func ProposalInput(p tmconsensus.Proposal) Input      { return Input{Kind: InputProposal, Proposal: p} }
func InvalidProposalInput(p tmconsensus.Proposal) Input {
	return Input{Kind: InputInvalidProposal, Proposal: p}
}
func ProposalPolkaPreviousInput(p tmconsensus.Proposal) Input {
	return Input{Kind: InputProposalPolkaPrevious, Proposal: p}
}
func InvalidProposalPolkaPreviousInput(p tmconsensus.Proposal) Input {
	return Input{Kind: InputInvalidProposalPolkaPrevious, Proposal: p}
}
func ProposalPolkaCurrentInput(p tmconsensus.Proposal) Input {
	return Input{Kind: InputProposalPolkaCurrent, Proposal: p}
}
func PolkaAnyInput() Input { return Input{Kind: InputPolkaAny} }
func PolkaNilInput() Input { return Input{Kind: InputPolkaNil} }
func PolkaValueInput(id tmconsensus.ValueID) Input {
	return Input{Kind: InputPolkaValue, ValueID: id}
}
func PrecommitAnyInput() Input { return Input{Kind: InputPrecommitAny} }
func PrecommitValueInput(id tmconsensus.ValueID) Input {
	return Input{Kind: InputPrecommitValue, ValueID: id}
}
func ProposalPrecommitValueInput(p tmconsensus.Proposal) Input {
	return Input{Kind: InputProposalPrecommitValue, Proposal: p}
}
func SkipRoundInput(r tmconsensus.Round) Input { return Input{Kind: InputSkipRound, SkipTo: r} }
func TimeoutProposeInput() Input               { return Input{Kind: InputTimeoutPropose} }
func TimeoutPrevoteInput() Input                { return Input{Kind: InputTimeoutPrevote} }
func TimeoutPrecommitInput() Input              { return Input{Kind: InputTimeoutPrecommit} }
