package tmdriver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockweave/tmcore/tmcert"
	"github.com/blockweave/tmcore/tmconsensus"
	"github.com/blockweave/tmcore/tmconsensus/tmconsensustest"
	"github.com/blockweave/tmcore/tmdriver"
)

func newTestDriver(t *testing.T, f *tmconsensustest.Fixture, idx int) (*tmdriver.Driver, *fakeHost) {
	t.Helper()
	host := newFakeHost(f.PrivVals[idx])
	d, err := tmdriver.New(host, f.Addr(idx),
		tmdriver.WithSignatureScheme(f.SignatureScheme),
		tmdriver.WithHashScheme(f.HashScheme),
		tmdriver.WithProposerSelector(f.ProposerSelector),
		tmdriver.WithThresholdParams(f.ThresholdParams),
	)
	require.NoError(t, err)
	return d, host
}

func signProposal(t *testing.T, f *tmconsensustest.Fixture, idx int, p tmconsensus.Proposal) tmconsensus.SignedProposal {
	t.Helper()
	sp, err := tmconsensus.SignProposal(context.Background(), p, f.SignatureScheme, f.PrivVals[idx].Signer)
	require.NoError(t, err)
	return sp
}

func signVote(t *testing.T, f *tmconsensustest.Fixture, idx int, v tmconsensus.Vote) tmconsensus.SignedVote {
	t.Helper()
	v.Voter = f.Addr(idx)
	sv, err := tmconsensus.SignVote(context.Background(), v, f.SignatureScheme, f.PrivVals[idx].Signer)
	require.NoError(t, err)
	return sv
}

// TestHappyPath covers scenario A: a valid proposal followed by a
// prevote and then a precommit quorum drives a non-proposer validator
// all the way to a decision.
func TestHappyPath(t *testing.T) {
	f := tmconsensustest.NewEd25519Fixture(4)
	vs := f.ValSet()
	ctx := context.Background()

	// height 0, round 0: proposer is validator index 0. The driver under
	// test is validator index 1.
	d, host := newTestDriver(t, f, 1)
	require.NoError(t, d.StartHeight(ctx, 0, vs))

	val := tmconsensus.Value{Data: []byte("block-1")}
	valID, err := val.ID(f.HashScheme)
	require.NoError(t, err)

	p := tmconsensus.Proposal{
		Height: 0, Round: 0, Value: val, ValueID: valID,
		ValidRound: tmconsensus.NilRound, Proposer: f.Addr(0),
	}
	sp := signProposal(t, f, 0, p)
	require.NoError(t, d.Process(ctx, tmdriver.ProposalInput(sp, tmconsensus.Valid)))

	// The driver should have broadcast its own prevote for the value.
	require.NotEmpty(t, host.Broadcasts)
	firstVote, ok := host.Broadcasts[0].(tmconsensus.SignedVote)
	require.True(t, ok)
	assert.Equal(t, tmconsensus.Prevote, firstVote.Vote.Type)
	assert.Equal(t, valID, firstVote.Vote.Choice.ID)

	// Prevotes from validators 0 and 2 join the driver's own prevote,
	// which is already tallied: three of four is a quorum.
	for _, idx := range []int{0, 2} {
		sv := signVote(t, f, idx, tmconsensus.Vote{
			Type: tmconsensus.Prevote, Height: 0, Round: 0, Choice: tmconsensus.ValChoice(valID),
		})
		require.NoError(t, d.Process(ctx, tmdriver.VoteInput(sv)))
	}

	rs, ok := d.RoundState(0)
	require.True(t, ok)
	assert.True(t, rs.Locked.Set)
	assert.Equal(t, valID, rs.Locked.ID)
	assert.Equal(t, tmconsensus.StepPrecommit, rs.Step)

	// Precommits from validators 0 and 2 join the driver's own precommit.
	for _, idx := range []int{0, 2} {
		sv := signVote(t, f, idx, tmconsensus.Vote{
			Type: tmconsensus.Precommit, Height: 0, Round: 0, Choice: tmconsensus.ValChoice(valID),
		})
		require.NoError(t, d.Process(ctx, tmdriver.VoteInput(sv)))
	}

	require.Len(t, host.Decisions, 1)
	assert.Equal(t, valID, host.Decisions[0].Value)
	assert.NoError(t, host.Decisions[0].Cert.Verify(vs, f.ThresholdParams, f.SignatureScheme))
}

// TestProposeTimeoutPrevotesNil covers scenario B: no proposal arrives
// before the propose timeout elapses, so the round prevotes Nil.
func TestProposeTimeoutPrevotesNil(t *testing.T) {
	f := tmconsensustest.NewEd25519Fixture(4)
	vs := f.ValSet()
	ctx := context.Background()

	d, host := newTestDriver(t, f, 1)
	require.NoError(t, d.StartHeight(ctx, 0, vs))

	require.NoError(t, d.Process(ctx, tmdriver.TimeoutElapsedInput(tmconsensus.StepPropose, 0)))

	require.NotEmpty(t, host.Broadcasts)
	sv, ok := host.Broadcasts[len(host.Broadcasts)-1].(tmconsensus.SignedVote)
	require.True(t, ok)
	assert.Equal(t, tmconsensus.Prevote, sv.Vote.Type)
	assert.True(t, sv.Vote.Choice.Nil)
}

// TestSkipRoundOnHonestThreshold covers scenario C: votes at a future
// round from validators whose combined power only meets the honest (not
// quorum) threshold still justify entering that round.
func TestSkipRoundOnHonestThreshold(t *testing.T) {
	f := tmconsensustest.NewEd25519Fixture(4)
	vs := f.ValSet()
	ctx := context.Background()

	d, _ := newTestDriver(t, f, 3)
	require.NoError(t, d.StartHeight(ctx, 0, vs))
	require.Equal(t, tmconsensus.Round(0), d.CurrentRound())

	for _, idx := range []int{0, 1} {
		sv := signVote(t, f, idx, tmconsensus.Vote{
			Type: tmconsensus.Precommit, Height: 0, Round: 2, Choice: tmconsensus.NilChoice(),
		})
		require.NoError(t, d.Process(ctx, tmdriver.VoteInput(sv)))
	}

	assert.Equal(t, tmconsensus.Round(2), d.CurrentRound())
}

// TestEquivocationRecordedAsEvidence covers scenario D: two conflicting
// votes from the same validator, same round and type, are recorded as
// evidence rather than tallied toward any threshold.
func TestEquivocationRecordedAsEvidence(t *testing.T) {
	f := tmconsensustest.NewEd25519Fixture(4)
	vs := f.ValSet()
	ctx := context.Background()

	d, _ := newTestDriver(t, f, 1)
	require.NoError(t, d.StartHeight(ctx, 0, vs))

	valA := tmconsensus.ValueID("value-a")
	valB := tmconsensus.ValueID("value-b")

	sv1 := signVote(t, f, 0, tmconsensus.Vote{Type: tmconsensus.Prevote, Height: 0, Round: 0, Choice: tmconsensus.ValChoice(valA)})
	sv2 := signVote(t, f, 0, tmconsensus.Vote{Type: tmconsensus.Prevote, Height: 0, Round: 0, Choice: tmconsensus.ValChoice(valB)})

	require.NoError(t, d.Process(ctx, tmdriver.VoteInput(sv1)))
	require.NoError(t, d.Process(ctx, tmdriver.VoteInput(sv2)))

	ev := d.VoteEvidence()
	require.NotNil(t, ev)
	assert.NotEmpty(t, ev.For(f.Addr(0)))
}

// TestValidRoundReProposal covers scenario E: a validator that locked on
// a value at round 0 and becomes proposer at round 1 re-proposes that
// value, carrying its valid round as justification.
func TestValidRoundReProposal(t *testing.T) {
	f := tmconsensustest.NewEd25519Fixture(4)
	vs := f.ValSet()
	ctx := context.Background()

	// Validator index 1 is the proposer at round 1 (height 0: (0+1)%4 == 1).
	d, host := newTestDriver(t, f, 1)
	require.NoError(t, d.StartHeight(ctx, 0, vs))

	val := tmconsensus.Value{Data: []byte("block-1")}
	valID, err := val.ID(f.HashScheme)
	require.NoError(t, err)

	p := tmconsensus.Proposal{
		Height: 0, Round: 0, Value: val, ValueID: valID,
		ValidRound: tmconsensus.NilRound, Proposer: f.Addr(0),
	}
	sp := signProposal(t, f, 0, p)
	require.NoError(t, d.Process(ctx, tmdriver.ProposalInput(sp, tmconsensus.Valid)))

	for _, idx := range []int{0, 2} {
		sv := signVote(t, f, idx, tmconsensus.Vote{
			Type: tmconsensus.Prevote, Height: 0, Round: 0, Choice: tmconsensus.ValChoice(valID),
		})
		require.NoError(t, d.Process(ctx, tmdriver.VoteInput(sv)))
	}

	rs, ok := d.RoundState(0)
	require.True(t, ok)
	require.True(t, rs.Locked.Set)
	require.Equal(t, valID, rs.Locked.ID)

	require.NoError(t, d.Process(ctx, tmdriver.TimeoutElapsedInput(tmconsensus.StepPrecommit, 0)))
	require.Equal(t, tmconsensus.Round(1), d.CurrentRound())

	var reproposal tmconsensus.SignedProposal
	found := false
	for _, msg := range host.Broadcasts {
		if sp, ok := msg.(tmconsensus.SignedProposal); ok && sp.Proposal.Round == 1 {
			reproposal = sp
			found = true
		}
	}
	require.True(t, found, "expected the driver to re-broadcast its locked proposal at round 1")
	assert.Equal(t, valID, reproposal.Proposal.ValueID)
	assert.Equal(t, tmconsensus.Round(0), reproposal.Proposal.ValidRound)
}

// TestSyncDecisionFromCommitCertificate covers scenario F: a verified
// commit certificate drives a decision without the driver ever having
// seen the original signed proposal or individual precommits.
func TestSyncDecisionFromCommitCertificate(t *testing.T) {
	f := tmconsensustest.NewEd25519Fixture(4)
	vs := f.ValSet()
	ctx := context.Background()

	d, host := newTestDriver(t, f, 1)
	require.NoError(t, d.StartHeight(ctx, 0, vs))

	valID := tmconsensus.ValueID("synced-value")

	var votes []tmconsensus.SignedVote
	for idx := 0; idx < 3; idx++ {
		votes = append(votes, signVote(t, f, idx, tmconsensus.Vote{
			Type: tmconsensus.Precommit, Height: 0, Round: 0, Choice: tmconsensus.ValChoice(valID),
		}))
	}
	cert := tmcert.BuildCommitCertificate(0, 0, valID, votes)
	require.NoError(t, cert.Verify(vs, f.ThresholdParams, f.SignatureScheme))

	require.NoError(t, d.Process(ctx, tmdriver.CommitCertificateInput(cert)))

	require.Len(t, host.Decisions, 1)
	assert.Equal(t, valID, host.Decisions[0].Value)
}
