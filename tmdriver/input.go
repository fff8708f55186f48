package tmdriver

import (
	"github.com/blockweave/tmcore/tmcert"
	"github.com/blockweave/tmcore/tmconsensus"
)

// InputKind enumerates the Driver's inbound surface.
type InputKind uint8

const (
	InputStartHeight InputKind = iota
	InputNewRound
	InputProposal
	InputVote
	InputTimeoutElapsed
	InputCommitCertificate
	InputPolkaCertificate
	InputRoundCertificate
)

// Input is one message delivered to Driver.Process. Only the fields
// relevant to Kind are meaningful; see the InputXxx constructors.
type Input struct {
	Kind InputKind

	// Height/ValidatorSet are meaningful for InputStartHeight.
	Height       tmconsensus.Height
	ValidatorSet tmconsensus.ValidatorSet

	// Round is meaningful for InputNewRound and InputTimeoutElapsed.
	Round tmconsensus.Round

	// Proposal/Validity are meaningful for InputProposal. Validity is the
	// application's verdict on the proposal's value, supplied by the
	// caller: validating a value's content is outside this module's scope.
	Proposal tmconsensus.SignedProposal
	Validity tmconsensus.Validity

	// Vote is meaningful for InputVote.
	Vote tmconsensus.SignedVote

	// TimeoutStep is meaningful for InputTimeoutElapsed, alongside Round.
	TimeoutStep tmconsensus.Step

	// CommitCert/PolkaCert/RoundCert are meaningful for their matching
	// InputKind.
	CommitCert tmcert.CommitCertificate
	PolkaCert  tmcert.PolkaCertificate
	RoundCert  tmcert.RoundCertificate
}

func StartHeightInput(h tmconsensus.Height, vs tmconsensus.ValidatorSet) Input {
	return Input{Kind: InputStartHeight, Height: h, ValidatorSet: vs}
}

func NewRoundInput(r tmconsensus.Round) Input {
	return Input{Kind: InputNewRound, Round: r}
}

func ProposalInput(sp tmconsensus.SignedProposal, validity tmconsensus.Validity) Input {
	return Input{Kind: InputProposal, Proposal: sp, Validity: validity}
}

func VoteInput(sv tmconsensus.SignedVote) Input {
	return Input{Kind: InputVote, Vote: sv}
}

func TimeoutElapsedInput(step tmconsensus.Step, round tmconsensus.Round) Input {
	return Input{Kind: InputTimeoutElapsed, TimeoutStep: step, Round: round}
}

func CommitCertificateInput(c tmcert.CommitCertificate) Input {
	return Input{Kind: InputCommitCertificate, CommitCert: c}
}

func PolkaCertificateInput(c tmcert.PolkaCertificate) Input {
	return Input{Kind: InputPolkaCertificate, PolkaCert: c}
}

func RoundCertificateInput(c tmcert.RoundCertificate) Input {
	return Input{Kind: InputRoundCertificate, RoundCert: c}
}

// height returns the height in.Kind logically refers to, used for input
// buffering; InputNewRound and InputTimeoutElapsed don't carry a height
// field of their own because they're always issued against whatever
// height is currently open.
func (in Input) height(current tmconsensus.Height) tmconsensus.Height {
	switch in.Kind {
	case InputStartHeight:
		return in.Height
	case InputProposal:
		return in.Proposal.Proposal.Height
	case InputVote:
		return in.Vote.Vote.Height
	case InputCommitCertificate:
		return in.CommitCert.Height
	case InputPolkaCertificate:
		return in.PolkaCert.Height
	case InputRoundCertificate:
		return in.RoundCert.Height
	default:
		return current
	}
}
