package tmcert

import "github.com/blockweave/tmcore/tmconsensus"

// BuildCommitCertificate assembles a CommitCertificate for (height,
// round, valueID) out of votes, keeping only precommits choosing
// Val(valueID); votes from any other round, type, or value are ignored.
// Duplicate-address entries are dropped, keeping the first occurrence.
func BuildCommitCertificate(
	height tmconsensus.Height,
	round tmconsensus.Round,
	valueID tmconsensus.ValueID,
	votes []tmconsensus.SignedVote,
) CommitCertificate {
	seen := make(map[tmconsensus.Address]struct{}, len(votes))
	var entries []Entry
	for _, sv := range votes {
		v := sv.Vote
		if v.Type != tmconsensus.Precommit || v.Height != height || v.Round != round {
			continue
		}
		if v.Choice.Nil || v.Choice.ID != valueID {
			continue
		}
		if _, dup := seen[v.Voter]; dup {
			continue
		}
		seen[v.Voter] = struct{}{}
		entries = append(entries, Entry{Voter: v.Voter, PubKey: sv.PubKey, Signature: sv.Signature})
	}
	return CommitCertificate{Height: height, Round: round, ValueID: valueID, Entries: entries}
}

// BuildPolkaCertificate is BuildCommitCertificate's analogue for
// prevotes.
func BuildPolkaCertificate(
	height tmconsensus.Height,
	round tmconsensus.Round,
	valueID tmconsensus.ValueID,
	votes []tmconsensus.SignedVote,
) PolkaCertificate {
	seen := make(map[tmconsensus.Address]struct{}, len(votes))
	var entries []Entry
	for _, sv := range votes {
		v := sv.Vote
		if v.Type != tmconsensus.Prevote || v.Height != height || v.Round != round {
			continue
		}
		if v.Choice.Nil || v.Choice.ID != valueID {
			continue
		}
		if _, dup := seen[v.Voter]; dup {
			continue
		}
		seen[v.Voter] = struct{}{}
		entries = append(entries, Entry{Voter: v.Voter, PubKey: sv.PubKey, Signature: sv.Signature})
	}
	return PolkaCertificate{Height: height, Round: round, ValueID: valueID, Entries: entries}
}

// BuildRoundCertificate assembles a RoundCertificate of the given kind
// out of votes at round or later, dropping duplicate-address entries.
// For RoundPrecommit, non-precommit votes are excluded; for RoundSkip,
// any vote type qualifies.
func BuildRoundCertificate(
	height tmconsensus.Height,
	round tmconsensus.Round,
	kind RoundCertificateKind,
	votes []tmconsensus.SignedVote,
) RoundCertificate {
	seen := make(map[tmconsensus.Address]struct{}, len(votes))
	var entries []RoundCertificateEntry
	for _, sv := range votes {
		v := sv.Vote
		if v.Height != height || v.Round < round {
			continue
		}
		if kind == RoundPrecommit && v.Type != tmconsensus.Precommit {
			continue
		}
		if _, dup := seen[v.Voter]; dup {
			continue
		}
		seen[v.Voter] = struct{}{}
		entries = append(entries, RoundCertificateEntry{
			Voter:     v.Voter,
			PubKey:    sv.PubKey,
			Signature: sv.Signature,
			VoteType:  v.Type,
			Round:     v.Round,
			Choice:    v.Choice,
		})
	}
	return RoundCertificate{Height: height, Round: round, Kind: kind, Entries: entries}
}
