package tmvote_test

import (
	"context"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockweave/tmcore/tmconsensus"
	"github.com/blockweave/tmcore/tmconsensus/tmconsensustest"
	"github.com/blockweave/tmcore/tmvote"
)

func signPrevote(t *testing.T, fix *tmconsensustest.Fixture, idx int, r tmconsensus.Round, choice tmconsensus.ValueChoice) tmconsensus.SignedVote {
	t.Helper()
	v := tmconsensus.Vote{Type: tmconsensus.Prevote, Height: 10, Round: r, Choice: choice, Voter: fix.Addr(idx)}
	sv, err := tmconsensus.SignVote(context.Background(), v, fix.SignatureScheme, fix.PrivVals[idx].Signer)
	require.NoError(t, err)
	return sv
}

func equalPowerFixture(t *testing.T, n int) *tmconsensustest.Fixture {
	t.Helper()
	fix := tmconsensustest.NewEd25519Fixture(n)
	for i := range fix.PrivVals {
		fix.PrivVals[i].Val.Power = 1
	}
	return fix
}

func TestApplyVoteEmitsPolkaValueOnce(t *testing.T) {
	fix := equalPowerFixture(t, 4)
	k := tmvote.NewVoteKeeper(4, fix.ThresholdParams, slogt.New(t))

	id := tmconsensus.ValueID("v")
	choice := tmconsensus.ValChoice(id)

	require.Nil(t, k.ApplyVote(signPrevote(t, fix, 0, 0, choice), 1, 0))
	require.Nil(t, k.ApplyVote(signPrevote(t, fix, 1, 0, choice), 1, 0))

	out := k.ApplyVote(signPrevote(t, fix, 2, 0, choice), 1, 0)
	require.NotNil(t, out)
	assert.Equal(t, tmvote.PolkaValue, out.Kind)
	assert.Equal(t, id, out.Value)

	// A fourth vote crossing the same already-emitted threshold is a
	// no-op: the output only fires the first time.
	assert.Nil(t, k.ApplyVote(signPrevote(t, fix, 3, 0, choice), 1, 0))
}

func TestApplyVoteIsIdempotentOnRedelivery(t *testing.T) {
	fix := equalPowerFixture(t, 4)
	k := tmvote.NewVoteKeeper(4, fix.ThresholdParams, slogt.New(t))

	sv := signPrevote(t, fix, 0, 0, tmconsensus.ValChoice("v"))
	require.Nil(t, k.ApplyVote(sv, 1, 0))
	require.Nil(t, k.ApplyVote(sv, 1, 0))

	assert.Empty(t, k.Evidence().Voters())
}

func TestApplyVoteRecordsEquivocationAsEvidence(t *testing.T) {
	fix := equalPowerFixture(t, 4)
	log := slogt.New(t)
	k := tmvote.NewVoteKeeper(4, fix.ThresholdParams, log)

	first := signPrevote(t, fix, 0, 0, tmconsensus.ValChoice("a"))
	conflicting := signPrevote(t, fix, 0, 0, tmconsensus.ValChoice("b"))

	require.Nil(t, k.ApplyVote(first, 1, 0))
	require.Nil(t, k.ApplyVote(conflicting, 1, 0))

	pairs := k.Evidence().For(fix.Addr(0))
	require.Len(t, pairs, 1)
	assert.Equal(t, tmconsensus.ValueID("a"), pairs[0].First.Vote.Choice.ID)
	assert.Equal(t, tmconsensus.ValueID("b"), pairs[0].Conflicting.Vote.Choice.ID)
}

func TestApplyVoteSkipRoundOnHonestThreshold(t *testing.T) {
	fix := equalPowerFixture(t, 4)
	k := tmvote.NewVoteKeeper(4, fix.ThresholdParams, slogt.New(t))

	require.Nil(t, k.ApplyVote(signPrevote(t, fix, 0, 2, tmconsensus.NilChoice()), 1, 0))
	out := k.ApplyVote(signPrevote(t, fix, 1, 2, tmconsensus.ValChoice("v")), 1, 0)
	require.NotNil(t, out)
	assert.Equal(t, tmvote.SkipRound, out.Kind)
	assert.Equal(t, tmconsensus.Round(2), out.Round)
}

func TestIsThresholdMetIsStatelessQuery(t *testing.T) {
	fix := equalPowerFixture(t, 4)
	k := tmvote.NewVoteKeeper(4, fix.ThresholdParams, slogt.New(t))

	id := tmconsensus.ValueID("v")
	choice := tmconsensus.ValChoice(id)
	for _, idx := range []int{0, 1, 2} {
		k.ApplyVote(signPrevote(t, fix, idx, 1, choice), 1, 1)
	}

	assert.True(t, k.IsThresholdMet(1, tmconsensus.Prevote, tmconsensus.Threshold{Kind: tmconsensus.ThresholdValue, ID: id}))
	assert.False(t, k.IsThresholdMet(0, tmconsensus.Prevote, tmconsensus.Threshold{Kind: tmconsensus.ThresholdValue, ID: id}))
}
