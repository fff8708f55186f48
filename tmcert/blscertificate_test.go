package tmcert_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockweave/tmcore/gcrypto/gblssig"
	"github.com/blockweave/tmcore/tmcert"
	"github.com/blockweave/tmcore/tmconsensus"
)

// blsValidator derives a gblssig-backed Validator from deterministic key
// material, for tests that want a second SignatureScheme-compatible key
// type alongside the ed25519 fixture used everywhere else.
func blsValidator(t *testing.T, seed byte, power uint64) (tmconsensus.Validator, gblssig.Signer) {
	t.Helper()
	ikm := make([]byte, 32)
	for i := range ikm {
		ikm[i] = seed + byte(i)
	}
	signer, err := gblssig.NewSigner(ikm)
	require.NoError(t, err)
	return tmconsensus.Validator{PubKey: signer.PubKey(), Power: power}, signer
}

func signBLSPrecommit(t *testing.T, signer gblssig.Signer, scheme tmconsensus.SignatureScheme, addr tmconsensus.Address, h tmconsensus.Height, r tmconsensus.Round, id tmconsensus.ValueID) tmconsensus.SignedVote {
	t.Helper()
	v := tmconsensus.Vote{
		Type:   tmconsensus.Precommit,
		Height: h,
		Round:  r,
		Choice: tmconsensus.ValChoice(id),
		Voter:  addr,
	}
	sv, err := tmconsensus.SignVote(context.Background(), v, scheme, signer)
	require.NoError(t, err)
	return sv
}

// TestCommitCertificateWithBLSValidatorSet confirms the certificate
// builder and verifier are indifferent to the concrete key type: a
// validator set backed entirely by gblssig keys verifies exactly like
// an ed25519 one, through the same SimpleSignatureScheme.
func TestCommitCertificateWithBLSValidatorSet(t *testing.T) {
	scheme := tmconsensus.SimpleSignatureScheme{}
	params := tmconsensus.DefaultThresholdParams()

	v0, s0 := blsValidator(t, 0, 1)
	v1, s1 := blsValidator(t, 64, 1)
	v2, s2 := blsValidator(t, 128, 1)
	v3, _ := blsValidator(t, 192, 1)

	vs, err := tmconsensus.NewValidatorSet([]tmconsensus.Validator{v0, v1, v2, v3})
	require.NoError(t, err)

	id := tmconsensus.ValueID("v")
	votes := []tmconsensus.SignedVote{
		signBLSPrecommit(t, s0, scheme, v0.Address(), 10, 0, id),
		signBLSPrecommit(t, s1, scheme, v1.Address(), 10, 0, id),
		signBLSPrecommit(t, s2, scheme, v2.Address(), 10, 0, id),
	}

	cert := tmcert.BuildCommitCertificate(10, 0, id, votes)
	require.NoError(t, cert.Verify(vs, params, scheme))

	bs := cert.SignerBitSet(vs)
	require.Equal(t, uint(3), bs.Count())
	require.False(t, bs.Test(3))

	short := tmcert.BuildCommitCertificate(10, 0, id, votes[:1])
	err = short.Verify(vs, params, scheme)
	require.Error(t, err)
	require.IsType(t, tmcert.NotEnoughVotingPower{}, err)
}
