package tmwal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockweave/tmcore/tmconsensus"
	"github.com/blockweave/tmcore/tmwal"
)

func TestReplayOnFreshHeightResetsLog(t *testing.T) {
	ctx := context.Background()
	w := tmwal.NewMemWAL()

	entries, err := w.Replay(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, w.Append(ctx, tmwal.TimeoutEntry(5, tmconsensus.StepPropose, 0)))

	// Replaying the same height again returns what was appended.
	entries, err = w.Replay(ctx, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, tmwal.EntryTimeout, entries[0].Kind)

	// Replaying a different height resets the log.
	entries, err = w.Replay(ctx, 6)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppendBeforeReplayErrors(t *testing.T) {
	ctx := context.Background()
	w := tmwal.NewMemWAL()
	err := w.Append(ctx, tmwal.TimeoutEntry(1, tmconsensus.StepPropose, 0))
	assert.Error(t, err)
}

func TestFlushIsADurabilityBarrier(t *testing.T) {
	ctx := context.Background()
	w := tmwal.NewMemWAL()
	_, err := w.Replay(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, w.Append(ctx, tmwal.TimeoutEntry(1, tmconsensus.StepPropose, 0)))
	require.NoError(t, w.Flush(ctx))
	require.NoError(t, w.Append(ctx, tmwal.TimeoutEntry(1, tmconsensus.StepPrevote, 0)))

	w.SimulateCrash()

	entries, err := w.Replay(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, tmconsensus.StepPropose, entries[0].TimeoutStep)
}

func TestFIFOOrderPreserved(t *testing.T) {
	ctx := context.Background()
	w := tmwal.NewMemWAL()
	_, err := w.Replay(ctx, 1)
	require.NoError(t, err)

	for i := tmconsensus.Round(0); i < 5; i++ {
		require.NoError(t, w.Append(ctx, tmwal.TimeoutEntry(1, tmconsensus.StepPropose, i)))
	}

	entries, err := w.Replay(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for i, e := range entries {
		assert.Equal(t, tmconsensus.Round(i), e.TimeoutRound)
	}
}
