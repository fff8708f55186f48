// Package tmconsensus defines the data model shared by every component of
// the consensus core: heights, rounds, validators, values, votes,
// proposals, round state, and the threshold/quorum vocabulary used to
// reason about voting power.
//
// Nothing in this package performs I/O. Signing and verification are
// expressed as interfaces ([SignatureScheme], [gcrypto.Signer]) so that
// the core never commits to a concrete signature or wire encoding.
package tmconsensus
