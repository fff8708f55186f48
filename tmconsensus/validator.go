package tmconsensus

import (
	"fmt"
	"sort"

	"github.com/blockweave/tmcore/gcrypto"
)

// Address is the stable identifier of a validator, unique within a
// ValidatorSet. It is used as the key for voting weight and for tallied
// votes.
type Address string

// Validator is a single entry in a ValidatorSet: a public key and an
// integer voting power. Zero-power validators are permitted but never
// count toward any quorum or honest threshold.
type Validator struct {
	PubKey gcrypto.PubKey
	Power  uint64

	// Moniker is a human-readable name used only in logs and tests;
	// it carries no consensus meaning.
	Moniker string
}

// Address derives this validator's Address from its public key.
func (v Validator) Address() Address {
	return Address(v.PubKey.Address())
}

// ValidatorSet is the ordered collection of validators at a given
// height. Membership and order are fixed for the height; order feeds
// the proposer-selection function.
type ValidatorSet struct {
	Validators []Validator
}

// NewValidatorSet builds a ValidatorSet from vals, rejecting entries with
// no public key or a duplicate address. The input order is preserved; callers that need a
// canonical order should sort before constructing.
func NewValidatorSet(vals []Validator) (ValidatorSet, error) {
	seen := make(map[Address]struct{}, len(vals))
	for _, v := range vals {
		if v.PubKey == nil {
			return ValidatorSet{}, fmt.Errorf("validator set: validator missing public key")
		}
		a := v.Address()
		if _, dup := seen[a]; dup {
			return ValidatorSet{}, fmt.Errorf("validator set: duplicate address %s", a)
		}
		seen[a] = struct{}{}
	}

	out := make([]Validator, len(vals))
	copy(out, vals)
	return ValidatorSet{Validators: out}, nil
}

// TotalPower returns the sum of voting power across every validator,
// including zero-power entries.
func (vs ValidatorSet) TotalPower() uint64 {
	var total uint64
	for _, v := range vs.Validators {
		total += v.Power
	}
	return total
}

// ByAddress returns the validator with the given address, and whether it
// was found.
func (vs ValidatorSet) ByAddress(a Address) (Validator, bool) {
	for _, v := range vs.Validators {
		if v.Address() == a {
			return v, true
		}
	}
	return Validator{}, false
}

// IndexOf returns a's position within vs.Validators, and whether it was
// found. Used to key a bitset.BitSet by validator rather than by address,
// for a compact "who signed" representation.
func (vs ValidatorSet) IndexOf(a Address) (int, bool) {
	for i, v := range vs.Validators {
		if v.Address() == a {
			return i, true
		}
	}
	return 0, false
}

// Len returns the number of validators in the set.
func (vs ValidatorSet) Len() int {
	return len(vs.Validators)
}

// SortByPowerDescending returns a copy of vals sorted by descending
// voting power, breaking ties by address, matching the deterministic
// ordering used by test fixtures.
func SortByPowerDescending(vals []Validator) []Validator {
	out := make([]Validator, len(vals))
	copy(out, vals)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Power != out[j].Power {
			return out[i].Power > out[j].Power
		}
		return out[i].Address() < out[j].Address()
	})
	return out
}

// ProposerSelector picks the proposer address for a given height and
// round out of a validator set. The core consumes this as a pluggable
// function; it never implements leader-election policy itself.
type ProposerSelector func(vs ValidatorSet, h Height, r Round) Address

// RoundRobinProposerSelector is a simple deterministic ProposerSelector
// suitable for tests and for chains that do not need weighted proposer
// selection: the proposer cycles through vs.Validators in order, advancing
// once per round across the whole chain.
func RoundRobinProposerSelector(vs ValidatorSet, h Height, r Round) Address {
	n := len(vs.Validators)
	if n == 0 {
		return ""
	}
	idx := (uint64(h) + uint64(r)) % uint64(n)
	return vs.Validators[idx].Address()
}
