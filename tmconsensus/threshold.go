package tmconsensus

import "fmt"

// ThresholdKind enumerates the shape of a threshold outcome: no quorum
// yet, a quorum on some value (for any choice), a quorum specifically on
// Nil, or a quorum on a particular value.
type ThresholdKind uint8

const (
	ThresholdUnreached ThresholdKind = iota
	ThresholdAny
	ThresholdNil
	ThresholdValue
)

// Threshold is the outcome of evaluating accumulated vote weight against
// a quorum parameter for a single (round, vote-type).
type Threshold struct {
	Kind ThresholdKind
	ID   ValueID // only meaningful when Kind == ThresholdValue
}

func (t Threshold) String() string {
	switch t.Kind {
	case ThresholdAny:
		return "Any"
	case ThresholdNil:
		return "Nil"
	case ThresholdValue:
		return "Value(" + string(t.ID) + ")"
	default:
		return "Unreached"
	}
}

// ThresholdParam is a fraction numerator/denominator used as a strict
// lower bound: a weight w meets the param against total t when
// denominator*w > numerator*t.
type ThresholdParam struct {
	Numerator   uint64
	Denominator uint64
}

// IsMet reports whether weight meets this threshold parameter against
// total. Both weight and total are unsigned; a total of zero never meets
// any threshold.
func (p ThresholdParam) IsMet(weight, total uint64) bool {
	if total == 0 {
		return false
	}
	// denominator*weight > numerator*total, checked with uint128-safe
	// multiplication via big numbers would be more robust, but voting
	// power in this domain fits comfortably in uint64 arithmetic for any
	// realistic validator set; overflow is not a concern at these
	// magnitudes.
	return p.Denominator*weight > p.Numerator*total
}

func (p ThresholdParam) String() string {
	return fmt.Sprintf("%d/%d", p.Numerator, p.Denominator)
}

// ThresholdParams bundles the two fractions the core needs: quorum
// (2f+1, the default supermajority) and honest (f+1, the minimum
// honest-power trigger used for skip-round and polka-nil proofs).
type ThresholdParams struct {
	Quorum  ThresholdParam
	Honest  ThresholdParam
}

// DefaultThresholdParams returns quorum = 2/3 (strict) and honest = 1/3
// (strict), the standard BFT defaults.
func DefaultThresholdParams() ThresholdParams {
	return ThresholdParams{
		Quorum: ThresholdParam{Numerator: 2, Denominator: 3},
		Honest: ThresholdParam{Numerator: 1, Denominator: 3},
	}
}
