package tmdriver_test

import (
	"context"
	"fmt"

	"github.com/blockweave/tmcore/gcrypto"
	"github.com/blockweave/tmcore/tmcert"
	"github.com/blockweave/tmcore/tmconsensus"
	"github.com/blockweave/tmcore/tmconsensus/tmconsensustest"
	"github.com/blockweave/tmcore/tmwal"
)

// fakeHost is a deterministic Host test double: signing is backed by a
// real signer, timeouts are recorded rather than scheduled against a
// clock, and broadcast messages are appended to an outbox the test can
// inspect or manually deliver to other Drivers in a simulated network.
type fakeHost struct {
	signer gcrypto.Signer
	addr   tmconsensus.Address
	wal    *tmwal.MemWAL

	nextValue int

	Broadcasts []any
	Timeouts   []timeoutReq
	Decisions  []decisionReq
}

type timeoutReq struct {
	Step  tmconsensus.Step
	Round tmconsensus.Round
}

type decisionReq struct {
	Height tmconsensus.Height
	Round  tmconsensus.Round
	Value  tmconsensus.ValueID
	Cert   tmcert.CommitCertificate
}

func newFakeHost(pv tmconsensustest.PrivVal) *fakeHost {
	return &fakeHost{
		signer: pv.Signer,
		addr:   pv.Val.Address(),
		wal:    tmwal.NewMemWAL(),
	}
}

func (h *fakeHost) GetValue(_ context.Context, height tmconsensus.Height, round tmconsensus.Round) (tmconsensus.Value, error) {
	h.nextValue++
	return tmconsensus.Value{Data: []byte(fmt.Sprintf("value-%d-h%d-r%d", h.nextValue, height, round))}, nil
}

func (h *fakeHost) SignVote(ctx context.Context, v tmconsensus.Vote) (tmconsensus.SignedVote, error) {
	return tmconsensus.SignVote(ctx, v, tmconsensus.SimpleSignatureScheme{}, h.signer)
}

func (h *fakeHost) SignProposal(ctx context.Context, p tmconsensus.Proposal) (tmconsensus.SignedProposal, error) {
	return tmconsensus.SignProposal(ctx, p, tmconsensus.SimpleSignatureScheme{}, h.signer)
}

func (h *fakeHost) Broadcast(_ context.Context, msg any) error {
	h.Broadcasts = append(h.Broadcasts, msg)
	return nil
}

func (h *fakeHost) ScheduleTimeout(_ context.Context, step tmconsensus.Step, round tmconsensus.Round) error {
	h.Timeouts = append(h.Timeouts, timeoutReq{Step: step, Round: round})
	return nil
}

func (h *fakeHost) CancelTimeout(_ context.Context, step tmconsensus.Step, round tmconsensus.Round) error {
	return nil
}

func (h *fakeHost) CancelAllTimeouts(_ context.Context) error {
	h.Timeouts = nil
	return nil
}

func (h *fakeHost) GetValidatorSet(_ context.Context, _ tmconsensus.Height) (tmconsensus.ValidatorSet, bool, error) {
	return tmconsensus.ValidatorSet{}, false, nil
}

func (h *fakeHost) Decide(_ context.Context, height tmconsensus.Height, round tmconsensus.Round, value tmconsensus.ValueID, cert tmcert.CommitCertificate) error {
	h.Decisions = append(h.Decisions, decisionReq{Height: height, Round: round, Value: value, Cert: cert})
	return nil
}

func (h *fakeHost) WAL() tmwal.WAL { return h.wal }
