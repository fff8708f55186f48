// Package tmproposal stores the signed proposals observed for a height,
// at most one non-equivocating proposal per (round, proposer), recording
// conflicting proposals as evidence while keeping the first as
// canonical.
package tmproposal

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/blockweave/tmcore/tmconsensus"
)

// ConflictingProposalPair is a proposer's two conflicting proposals for
// the same round: the first one recorded, and the one that triggered the
// conflict.
type ConflictingProposalPair struct {
	First       tmconsensus.SignedProposal
	Conflicting tmconsensus.SignedProposal
}

type entry struct {
	proposal tmconsensus.SignedProposal
	validity tmconsensus.Validity
}

type perRound struct {
	entries []entry
}

func (pr *perRound) findByValueID(id tmconsensus.ValueID) *entry {
	for i := range pr.entries {
		if pr.entries[i].proposal.Proposal.ValueID == id {
			return &pr.entries[i]
		}
	}
	return nil
}

// ProposalKeeper stores, per round, every signed proposal observed along
// with the application-reported validity, and records equivocation
// evidence by proposer address.
type ProposalKeeper struct {
	log      *slog.Logger
	perRound map[tmconsensus.Round]*perRound
	evidence map[tmconsensus.Address][]ConflictingProposalPair
}

// NewProposalKeeper returns an empty ProposalKeeper. log may be nil, in
// which case a no-op logger is used.
func NewProposalKeeper(log *slog.Logger) *ProposalKeeper {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ProposalKeeper{
		log:      log,
		perRound: make(map[tmconsensus.Round]*perRound),
		evidence: make(map[tmconsensus.Address][]ConflictingProposalPair),
	}
}

func (k *ProposalKeeper) round(r tmconsensus.Round) *perRound {
	pr, ok := k.perRound[r]
	if !ok {
		pr = &perRound{}
		k.perRound[r] = pr
	}
	return pr
}

// Store records sp with the application's validity verdict.
//
// Storing sp for a round that already holds a proposal from a different
// proposer is a programmer error: the Driver must verify a proposal's
// proposer identity against the height's proposer-selection function
// before routing it here, so two distinct proposers reaching the same
// round's PerRound means that check was skipped. Store panics in that
// case rather than silently corrupting the round's canonical proposal.
func (k *ProposalKeeper) Store(sp tmconsensus.SignedProposal, validity tmconsensus.Validity) {
	pr := k.round(sp.Proposal.Round)

	if len(pr.entries) > 0 && pr.entries[0].proposal.Proposal.Proposer != sp.Proposal.Proposer {
		k.log.Error("BUG: proposals from different proposers in one round",
			"round", sp.Proposal.Round,
			"first_proposer", pr.entries[0].proposal.Proposal.Proposer,
			"proposer", sp.Proposal.Proposer,
		)
		panic(fmt.Sprintf(
			"tmproposal: BUG: round %s received proposals from different proposers: %s and %s",
			sp.Proposal.Round, pr.entries[0].proposal.Proposal.Proposer, sp.Proposal.Proposer,
		))
	}

	if existing := pr.findByValueID(sp.Proposal.ValueID); existing != nil {
		k.updateValidity(sp, existing, validity)
		return
	}

	pr.entries = append(pr.entries, entry{proposal: sp, validity: validity})

	if len(pr.entries) > 1 {
		first := pr.entries[0].proposal
		k.evidence[sp.Proposal.Proposer] = append(k.evidence[sp.Proposal.Proposer], ConflictingProposalPair{
			First:       first,
			Conflicting: sp,
		})
		k.log.Warn("recorded conflicting proposal as evidence",
			"proposer", sp.Proposal.Proposer,
			"round", sp.Proposal.Round,
			"first_value_id", first.Proposal.ValueID,
			"conflicting_value_id", sp.Proposal.ValueID,
		)
	}
}

func (k *ProposalKeeper) updateValidity(sp tmconsensus.SignedProposal, existing *entry, newValidity tmconsensus.Validity) {
	switch {
	case existing.validity == newValidity:
		// Nothing to do.
	case existing.validity == tmconsensus.Invalid && newValidity == tmconsensus.Valid:
		k.log.Warn("application changed its mind on proposal validity: Invalid -> Valid (late justification)",
			"round", sp.Proposal.Round, "value_id", sp.Proposal.ValueID)
		existing.validity = newValidity
	case existing.validity == tmconsensus.Valid && newValidity == tmconsensus.Invalid:
		k.log.Error("application changed its mind on proposal validity: Valid -> Invalid; ignoring",
			"round", sp.Proposal.Round, "value_id", sp.Proposal.ValueID)
		// Valid -> Invalid is logged but does not mutate state.
	default:
		existing.validity = newValidity
	}
}

// Get returns the first entry stored for (round, valueID), if any.
func (k *ProposalKeeper) Get(round tmconsensus.Round, valueID tmconsensus.ValueID) (tmconsensus.SignedProposal, tmconsensus.Validity, bool) {
	pr, ok := k.perRound[round]
	if !ok {
		return tmconsensus.SignedProposal{}, tmconsensus.Unknown, false
	}
	e := pr.findByValueID(valueID)
	if e == nil {
		return tmconsensus.SignedProposal{}, tmconsensus.Unknown, false
	}
	return e.proposal, e.validity, true
}

// Canonical returns the canonical (first-stored) proposal for round, if
// any has been stored.
func (k *ProposalKeeper) Canonical(round tmconsensus.Round) (tmconsensus.SignedProposal, tmconsensus.Validity, bool) {
	pr, ok := k.perRound[round]
	if !ok || len(pr.entries) == 0 {
		return tmconsensus.SignedProposal{}, tmconsensus.Unknown, false
	}
	return pr.entries[0].proposal, pr.entries[0].validity, true
}

// Evidence returns the recorded proposal-equivocation evidence, by
// proposer address.
func (k *ProposalKeeper) Evidence() map[tmconsensus.Address][]ConflictingProposalPair {
	return k.evidence
}
