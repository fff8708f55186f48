package tmconsensus

import "fmt"

// RoundUnknownError is returned by a WAL or store implementation when
// asked to load a round that was never appended.
type RoundUnknownError struct {
	Height Height
	Round  Round
}

func (e RoundUnknownError) Error() string {
	return fmt.Sprintf("no entries recorded for height %d round %s", e.Height, e.Round)
}
