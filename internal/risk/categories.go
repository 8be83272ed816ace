package risk

import (
	"sort"

	"ballotproof/internal/election"
	"ballotproof/internal/ids"
	"ballotproof/internal/tally"
)

// OtherWriteIn is the generic write-in category of the urn prior. It stands
// for the mass of write-in votes never observed in the sample; it absorbs
// probability but is never credited toward a winner.
const OtherWriteIn = "+Other"

// Categories returns the audited-vote label space for one contest: every
// declared selection, the standard invalid outcomes, the generic write-in
// bucket when write-ins are permitted, and every distinct vote observed in
// the sample or the reported data. The list is sorted so a seeded run draws
// urn labels in a reproducible order.
func Categories(e *election.Election, cid string, s *tally.Sample) []string {
	c := e.Contests[cid]
	set := make(map[string]bool)
	for _, selid := range c.Selections {
		set[ids.Vote{selid}.Key()] = true
	}
	for _, selid := range []string{ids.SelInvalid, ids.SelOvervote, ids.SelUndervote} {
		set[selid] = true
	}
	if c.WriteIns != election.WriteInsNone {
		set[OtherWriteIn] = true
	}
	for _, byR := range s.Counts[cid] {
		for rkey, byA := range byR {
			if rkey != tally.NoCVRVote {
				set[rkey] = true
			}
			for akey := range byA {
				set[akey] = true
			}
		}
	}
	for _, pbcid := range e.Rel(cid) {
		for rkey := range e.ReportedTallies[pbcid][cid] {
			set[rkey] = true
		}
		for _, byCID := range e.ReportedVotes[pbcid] {
			if vote, ok := byCID[cid]; ok {
				set[vote.Key()] = true
			}
		}
	}

	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
