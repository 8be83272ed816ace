// Package tally cross-tabulates hand-audited votes against reported votes.
//
// The cross-tab is the only evidence the risk estimator sees: for every
// contest and collection it counts sampled ballots by (reported vote,
// audited vote) pair. Ballots from collections without cast-vote records
// have no per-ballot reported vote; they all fall in the single noCVR
// stratum. Before counting anything, Build enforces the sampling-order
// prefix rule: auditors work strictly down the published order, so a ballot
// with audited votes appearing after an unaudited one means the transcript
// skipped a ballot.
package tally

import (
	"ballotproof/internal/auditerr"
	"ballotproof/internal/election"
)

// NoCVRVote is the reported-vote stratum key for ballots of collections
// without cast-vote records.
const NoCVRVote = "noCVR"

// Sample is the per-stage cross-tab feeding the risk estimator.
type Sample struct {
	// Counts maps cid -> pbcid -> reported vote key -> audited vote key ->
	// number of sampled ballots.
	Counts map[string]map[string]map[string]map[string]int
	// Audited maps cid -> pbcid -> number of sampled ballots carrying an
	// audited vote for cid.
	Audited map[string]map[string]int
}

// Build validates the audited transcripts against the sampling orders and
// cross-tabulates them.
func Build(e *election.Election, orders map[string][]election.ManifestEntry) (*Sample, error) {
	if err := checkOrderPrefix(e, orders); err != nil {
		return nil, err
	}
	s := &Sample{
		Counts:  make(map[string]map[string]map[string]map[string]int),
		Audited: make(map[string]map[string]int),
	}
	for _, pbcid := range e.CollectionIDs {
		p := e.Collections[pbcid]
		for _, bid := range e.AuditedBIDs[pbcid] {
			for cid, avote := range e.AuditedVotes[pbcid][bid] {
				rkey := NoCVRVote
				if p.CVRType == election.TypeCVR {
					rkey = e.ReportedVote(pbcid, bid, cid).Key()
				}
				s.add(cid, pbcid, rkey, avote.Key())
			}
		}
	}
	return s, nil
}

func (s *Sample) add(cid, pbcid, rkey, akey string) {
	byPBC := s.Counts[cid]
	if byPBC == nil {
		byPBC = make(map[string]map[string]map[string]int)
		s.Counts[cid] = byPBC
	}
	byR := byPBC[pbcid]
	if byR == nil {
		byR = make(map[string]map[string]int)
		byPBC[pbcid] = byR
	}
	byA := byR[rkey]
	if byA == nil {
		byA = make(map[string]int)
		byR[rkey] = byA
	}
	byA[akey]++

	byColl := s.Audited[cid]
	if byColl == nil {
		byColl = make(map[string]int)
		s.Audited[cid] = byColl
	}
	byColl[pbcid]++
}

// Stratum returns the audited-vote counts observed for one (contest,
// collection, reported vote) stratum; the map may be nil.
func (s *Sample) Stratum(cid, pbcid, rkey string) map[string]int {
	return s.Counts[cid][pbcid][rkey]
}

// checkOrderPrefix verifies that each collection's audited ballots are
// exactly the leading entries of its sampling order.
func checkOrderPrefix(e *election.Election, orders map[string][]election.ManifestEntry) error {
	for _, pbcid := range e.CollectionIDs {
		audited := e.AuditedVotes[pbcid]
		order := orders[pbcid]
		for k := 0; k < len(e.AuditedBIDs[pbcid]); k++ {
			if _, ok := audited[order[k].BID]; !ok {
				return auditerr.New(auditerr.OutOfOrderSample,
					"collection %q: order position %d ballot %q was skipped by the audited transcript",
					pbcid, k+1, order[k].BID)
			}
		}
	}
	return nil
}

// ReportedStrata counts every manifest ballot by its reported vote, per
// carried contest. Ballots of CVR collections missing a CVR row count under
// -NoRecord; a noCVR collection's whole manifest forms the noCVR stratum.
func ReportedStrata(e *election.Election) map[string]map[string]map[string]int {
	out := make(map[string]map[string]map[string]int, len(e.ContestIDs))
	for _, pbcid := range e.CollectionIDs {
		p := e.Collections[pbcid]
		for _, cid := range p.Contests {
			counts := make(map[string]int)
			if p.CVRType == election.TypeNoCVR {
				counts[NoCVRVote] = e.Size(pbcid)
			} else {
				for _, entry := range e.Manifests[pbcid] {
					counts[e.ReportedVote(pbcid, entry.BID, cid).Key()]++
				}
			}
			byPBC := out[cid]
			if byPBC == nil {
				byPBC = make(map[string]map[string]int)
				out[cid] = byPBC
			}
			byPBC[pbcid] = counts
		}
	}
	return out
}
