package gblssig_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockweave/tmcore/gcrypto/gblssig"
)

func TestSignAndVerifySingle(t *testing.T) {
	ikm := make([]byte, 32)
	for i := range ikm {
		ikm[i] = byte(i)
	}

	s, err := gblssig.NewSigner(ikm)
	require.NoError(t, err)

	msg := []byte("commit height=10 round=0")

	sig, err := s.Sign(context.Background(), msg)
	require.NoError(t, err)
	require.True(t, s.PubKey().Verify(msg, sig))

	msg[0]++
	require.False(t, s.PubKey().Verify(msg, sig))
	msg[0]--

	sig[0]++
	require.False(t, s.PubKey().Verify(msg, sig))
}

func TestAggregateSignatureVerifiesAgainstAggregatePubKey(t *testing.T) {
	ikm1 := make([]byte, 32)
	ikm2 := make([]byte, 32)
	for i := range ikm1 {
		ikm1[i] = byte(i)
		ikm2[i] = byte(i) + 32
	}

	s1, err := gblssig.NewSigner(ikm1)
	require.NoError(t, err)
	s2, err := gblssig.NewSigner(ikm2)
	require.NoError(t, err)

	// Every signer must sign the same message for an aggregate-key
	// verification to mean anything: that's the shape a commit
	// certificate's votes take once every entry agrees on height,
	// round, and value.
	msg := []byte("commit height=10 round=0")

	sig1, err := s1.Sign(context.Background(), msg)
	require.NoError(t, err)
	sig2, err := s2.Sign(context.Background(), msg)
	require.NoError(t, err)

	aggSig, err := gblssig.Aggregate([][]byte{sig1, sig2})
	require.NoError(t, err)

	aggKeyBytes, err := gblssig.AggregatePubKeys([][]byte{
		s1.PubKey().PubKeyBytes(),
		s2.PubKey().PubKeyBytes(),
	})
	require.NoError(t, err)

	aggKey, err := gblssig.NewPubKey(aggKeyBytes)
	require.NoError(t, err)

	require.True(t, aggKey.Verify(msg, aggSig))

	msg[0]++
	require.False(t, aggKey.Verify(msg, aggSig))
	msg[0]--

	aggSig[0]++
	require.False(t, aggKey.Verify(msg, aggSig))
}

func TestAggregateRejectsEmptyInput(t *testing.T) {
	_, err := gblssig.Aggregate(nil)
	require.Error(t, err)

	_, err = gblssig.AggregatePubKeys(nil)
	require.Error(t, err)
}

func TestNewSignerRejectsShortIKM(t *testing.T) {
	_, err := gblssig.NewSigner(make([]byte, 16))
	require.Error(t, err)
}

func TestNewPubKeyRoundTrips(t *testing.T) {
	ikm := make([]byte, 32)
	for i := range ikm {
		ikm[i] = byte(i)
	}
	s, err := gblssig.NewSigner(ikm)
	require.NoError(t, err)

	pk, err := gblssig.NewPubKey(s.PubKey().PubKeyBytes())
	require.NoError(t, err)
	require.True(t, pk.Equal(s.PubKey()))
}
