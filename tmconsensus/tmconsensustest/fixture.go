// Package tmconsensustest provides deterministic validator fixtures for
// tests across the consensus core.
package tmconsensustest

import (
	"fmt"

	petname "github.com/dustinkirkland/golang-petname"

	"github.com/blockweave/tmcore/gcrypto"
	"github.com/blockweave/tmcore/tmconsensus"
)

// PrivVal is the "private" view of a validator: the public Validator
// plus the Signer backing it, so tests can sign on its behalf.
type PrivVal struct {
	Val    tmconsensus.Validator
	Signer gcrypto.Signer
}

type PrivVals []PrivVal

func (vs PrivVals) Vals() []tmconsensus.Validator {
	out := make([]tmconsensus.Validator, len(vs))
	for i, v := range vs {
		out[i] = v.Val
	}
	return out
}

func (vs PrivVals) ByAddress(a tmconsensus.Address) (PrivVal, bool) {
	for _, v := range vs {
		if v.Val.Address() == a {
			return v, true
		}
	}
	return PrivVal{}, false
}

// DeterministicValidatorsEd25519 returns n validators with deterministic
// ed25519 keys (seeded by index) and descending voting power, so
// subsequent test runs produce identical addresses and the same
// proposer order. Each validator gets a deterministic petname moniker
// purely for log readability; monikers carry no consensus meaning.
func DeterministicValidatorsEd25519(n int) PrivVals {
	out := make(PrivVals, n)
	for i := range out {
		var seed [32]byte
		seed[0] = byte(i + 1)
		seed[1] = byte((i + 1) >> 8)

		signer := gcrypto.GenerateEd25519Signer(seed[:])

		out[i] = PrivVal{
			Val: tmconsensus.Validator{
				PubKey:  signer.PubKey(),
				Power:   uint64(1_000_000 - i),
				Moniker: fmt.Sprintf("%s-%d", petname.Generate(2, "-"), i),
			},
			Signer: signer,
		}
	}
	return out
}

// Fixture bundles a validator set, its signers, and the canonical
// encoding schemes, for use by tests across tmvote, tmproposal, tmround,
// tmcert, and tmdriver.
type Fixture struct {
	PrivVals PrivVals

	SignatureScheme  tmconsensus.SignatureScheme
	HashScheme       tmconsensus.HashScheme
	ProposerSelector tmconsensus.ProposerSelector
	ThresholdParams  tmconsensus.ThresholdParams
}

// NewEd25519Fixture returns a Fixture with numVals deterministic ed25519
// validators and the module's default schemes.
func NewEd25519Fixture(numVals int) *Fixture {
	return &Fixture{
		PrivVals:         DeterministicValidatorsEd25519(numVals),
		SignatureScheme:  tmconsensus.SimpleSignatureScheme{},
		HashScheme:       tmconsensus.SimpleHashScheme{},
		ProposerSelector: tmconsensus.RoundRobinProposerSelector,
		ThresholdParams:  tmconsensus.DefaultThresholdParams(),
	}
}

func (f *Fixture) ValSet() tmconsensus.ValidatorSet {
	vs, err := tmconsensus.NewValidatorSet(f.PrivVals.Vals())
	if err != nil {
		panic(fmt.Errorf("tmconsensustest: building validator set: %w", err))
	}
	return vs
}

// Addr returns the address of the validator at index idx.
func (f *Fixture) Addr(idx int) tmconsensus.Address {
	return f.PrivVals[idx].Val.Address()
}
