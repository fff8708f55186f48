package tmwal

import (
	"context"
	"fmt"
	"sync"

	"github.com/blockweave/tmcore/tmconsensus"
)

// MemWAL is an in-memory WAL, suitable for tests and for embedders that
// delegate durability to something outside the process (e.g. a
// replicated state machine that separately guarantees the height won't
// be revisited). It is not itself durable: SimulateCrash exists
// precisely to let tests exercise the Flush-is-a-barrier guarantee
// without a real process restart.
type MemWAL struct {
	mu        sync.Mutex
	started   bool
	height    tmconsensus.Height
	entries   []Entry
	durableTo int
}

// NewMemWAL returns a MemWAL with no height yet started; the first call
// to Replay establishes the starting height.
func NewMemWAL() *MemWAL {
	return &MemWAL{}
}

func (w *MemWAL) Append(_ context.Context, e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return fmt.Errorf("tmwal: append before any Replay established a starting height")
	}
	if e.Height != w.height {
		return fmt.Errorf("tmwal: append for height %d, log is at height %d", e.Height, w.height)
	}
	w.entries = append(w.entries, e)
	return nil
}

func (w *MemWAL) Flush(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.durableTo = len(w.entries)
	return nil
}

func (w *MemWAL) Replay(_ context.Context, h tmconsensus.Height) ([]Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started || h != w.height {
		w.started = true
		w.height = h
		w.entries = nil
		w.durableTo = 0
		return nil, nil
	}

	out := make([]Entry, len(w.entries))
	copy(out, w.entries)
	return out, nil
}

// SimulateCrash discards every entry appended since the last Flush,
// mimicking a process restart that loses everything not yet durable.
// Tests use this to check that a caller relying on Flush as a barrier
// never loses an entry it waited on, and that entries appended after the
// last Flush are allowed to disappear.
func (w *MemWAL) SimulateCrash() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = w.entries[:w.durableTo]
}
