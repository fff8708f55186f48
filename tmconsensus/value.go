package tmconsensus

import (
	"golang.org/x/crypto/blake2b"
)

// Value is an opaque application-defined payload: the thing validators
// are trying to agree on for a height. The core never interprets Data;
// it only needs a stable identifier for it, computed via a HashScheme.
type Value struct {
	Data []byte
}

// ValueID is a collision-resistant identifier for a Value. Two values
// with equal IDs are considered equal for consensus purposes, regardless
// of byte-for-byte Data equality (the hash scheme is the source of
// truth).
type ValueID string

// HashScheme computes the content-addressed identifiers the core treats
// as opaque comparable keys: value IDs, validator-set public-key hashes,
// and validator-set voting-power hashes. Pluggable so embedders can swap
// hash functions without touching the consensus logic.
type HashScheme interface {
	Value(data []byte) ([]byte, error)
	PubKeys(keys [][]byte) ([]byte, error)
	VotePowers(powers []uint64) ([]byte, error)
}

// SimpleHashScheme hashes with blake2b-256, via golang.org/x/crypto.
type SimpleHashScheme struct{}

func (SimpleHashScheme) Value(data []byte) ([]byte, error) {
	sum := blake2b.Sum256(data)
	return sum[:], nil
}

func (SimpleHashScheme) PubKeys(keys [][]byte) ([]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		_, _ = h.Write(k)
	}
	return h.Sum(nil), nil
}

func (SimpleHashScheme) VotePowers(powers []uint64) ([]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 8)
	for _, p := range powers {
		for i := 0; i < 8; i++ {
			buf[i] = byte(p >> (8 * i))
		}
		_, _ = h.Write(buf)
	}
	return h.Sum(nil), nil
}

// ID computes v's ValueID under the given hash scheme.
func (v Value) ID(hs HashScheme) (ValueID, error) {
	b, err := hs.Value(v.Data)
	if err != nil {
		return "", err
	}
	return ValueID(b), nil
}

// ValueChoice is what a vote expresses about a value: either Nil (no
// value) or a specific value identified by its ValueID.
type ValueChoice struct {
	ID  ValueID
	Nil bool
}

// NilChoice is the ValueChoice expressing "no value" / "Nil".
func NilChoice() ValueChoice {
	return ValueChoice{Nil: true}
}

// ValChoice is the ValueChoice expressing "this specific value".
func ValChoice(id ValueID) ValueChoice {
	return ValueChoice{ID: id}
}

func (c ValueChoice) String() string {
	if c.Nil {
		return "Nil"
	}
	return "Val(" + string(c.ID) + ")"
}

func (c ValueChoice) Equal(o ValueChoice) bool {
	return c.Nil == o.Nil && (c.Nil || c.ID == o.ID)
}
