package tmconsensus_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockweave/tmcore/gcrypto"
	"github.com/blockweave/tmcore/tmconsensus"
)

func seed(b byte) []byte {
	return []byte(strings.Repeat(string(rune(b)), 32))
}

func TestThresholdParamIsMetStrictInequality(t *testing.T) {
	quorum := tmconsensus.ThresholdParam{Numerator: 2, Denominator: 3}

	assert.False(t, quorum.IsMet(2, 3), "exactly 2/3 must not meet a strict 2/3 threshold")
	assert.True(t, quorum.IsMet(3, 4))
	assert.False(t, quorum.IsMet(0, 0), "a total of zero never meets any threshold")
}

func TestNewValidatorSetRejectsDuplicateAddress(t *testing.T) {
	s := gcrypto.GenerateEd25519Signer(seed('a'))
	v := tmconsensus.Validator{PubKey: s.PubKey(), Power: 1}

	_, err := tmconsensus.NewValidatorSet([]tmconsensus.Validator{v, v})
	require.Error(t, err)
}

func TestValidatorSetIndexOfAndLen(t *testing.T) {
	s0 := gcrypto.GenerateEd25519Signer(seed('0'))
	s1 := gcrypto.GenerateEd25519Signer(seed('1'))

	vs, err := tmconsensus.NewValidatorSet([]tmconsensus.Validator{
		{PubKey: s0.PubKey(), Power: 3},
		{PubKey: s1.PubKey(), Power: 7},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, vs.Len())
	assert.Equal(t, uint64(10), vs.TotalPower())

	idx, ok := vs.IndexOf(tmconsensus.Address(s1.PubKey().Address()))
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = vs.IndexOf(tmconsensus.Address("unknown"))
	assert.False(t, ok)
}

func TestSignAndVerifyVoteRoundTrip(t *testing.T) {
	s := gcrypto.GenerateEd25519Signer(seed('a'))
	scheme := tmconsensus.SimpleSignatureScheme{}

	v := tmconsensus.Vote{
		Type:   tmconsensus.Prevote,
		Height: 10,
		Round:  0,
		Choice: tmconsensus.ValChoice("v"),
		Voter:  tmconsensus.Address(s.PubKey().Address()),
	}

	sv, err := tmconsensus.SignVote(context.Background(), v, scheme, s)
	require.NoError(t, err)

	ok, err := tmconsensus.VerifyVoteSignature(sv, scheme)
	require.NoError(t, err)
	assert.True(t, ok)

	sv.Vote.Round = 1
	ok, err = tmconsensus.VerifyVoteSignature(sv, scheme)
	require.NoError(t, err)
	assert.False(t, ok, "mutating the signed content must invalidate the signature")
}

func TestSimpleHashSchemeIsDeterministic(t *testing.T) {
	hs := tmconsensus.SimpleHashScheme{}

	id1, err := hs.Value([]byte("payload"))
	require.NoError(t, err)
	id2, err := hs.Value([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	id3, err := hs.Value([]byte("other"))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}
