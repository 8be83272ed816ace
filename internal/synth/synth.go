// Package synth generates complete synthetic elections for tests and demos.
//
// A Spec lists contests, collections, and blocks. Each block pins down a run
// of ballots: how many, which collection they sit in, what the scanner
// reported for one contest, and what a hand examination would actually find.
// Block counts are exact, so a scenario controls margins and discrepancy
// rates to the ballot. Build assembles the in-memory model plus the ground
// truth; WriteInputs lays the model down as a real election directory, and
// SimulateAudit plays the part of the human audit board between stages.
package synth

import (
	"fmt"
	"sort"
	"strings"

	"ballotproof/internal/election"
	"ballotproof/internal/ids"
)

// Block describes Count ballots of one collection: their reported vote for
// one contest and the vote a hand examination would find. For tally-only
// (noCVR) collections the reported vote feeds the tally table instead of
// per-ballot records.
type Block struct {
	Contest    string
	Collection string
	Reported   ids.Vote
	Actual     ids.Vote
	Count      int
}

// Contest declares one contest of a Spec. Zero fields take defaults:
// plurality, one winner, no write-ins, Bayes at a 5% risk limit and a 0.98
// upset threshold, active sampling, open status, pseudocount 0.5.
type Contest struct {
	ID             string
	Selections     []string
	WriteIns       election.WriteInPolicy
	Winners        int
	RiskLimit      float64
	UpsetThreshold float64
	Mode           election.SamplingMode
	Status         election.Status
	Pseudocount    float64
}

// Collection declares one paper ballot collection. Zero fields take
// defaults: CVR records, audit rate 40, ballot ids counting on from "bid1".
type Collection struct {
	ID       string
	Manager  string
	Type     election.CVRType
	Rate     int
	Ballots  int
	FirstBID string
}

// Spec is a complete synthetic election description.
type Spec struct {
	Name        string
	Date        string
	Seed        string
	Trials      int
	MaxStages   int
	TallyWeight float64
	Contests    []Contest
	Collections []Collection
	// Outcomes overrides the reported winners per contest. Contests left
	// out get the plurality outcome of their own reported data, so a
	// misreported outcome must be stated here explicitly.
	Outcomes map[string]ids.Vote
	Blocks   []Block
}

// Election is a generated election: the audit model plus the ground truth
// the generator knows but the audit has to discover.
type Election struct {
	Model *election.Election
	// Rows holds the compact manifest rows per collection.
	Rows map[string][]election.ManifestRow
	// Actual maps pbcid -> bid -> cid -> the vote a hand examination finds.
	Actual map[string]map[string]map[string]ids.Vote
}

// Build assembles the election a Spec describes. Per contest and collection,
// block counts must add up to the collection size exactly.
func Build(spec Spec) (*Election, error) {
	if strings.TrimSpace(spec.Seed) == "" {
		return nil, fmt.Errorf("synth: spec has no audit seed")
	}
	if err := election.CheckSeed(strings.TrimSpace(spec.Seed)); err != nil {
		return nil, err
	}

	e := election.New()
	e.Name = spec.Name
	if e.Name == "" {
		e.Name = "Synthetic election"
	}
	e.Dirname = ids.FileSafe(ids.Reduce(e.Name))
	e.Date = spec.Date
	if e.Date == "" {
		e.Date = "2026-11-03"
	}
	e.Seed = strings.TrimSpace(spec.Seed)
	e.Trials = spec.Trials
	if e.Trials <= 0 {
		e.Trials = 100000
	}
	e.MaxAuditStages = spec.MaxStages
	if e.MaxAuditStages <= 0 {
		e.MaxAuditStages = 16
	}
	if spec.TallyWeight > 0 {
		e.TallyWeight = spec.TallyWeight
	}

	if err := buildContests(e, spec); err != nil {
		return nil, err
	}
	if err := buildCollections(e, spec); err != nil {
		return nil, err
	}

	s := &Election{
		Model:  e,
		Rows:   make(map[string][]election.ManifestRow, len(spec.Collections)),
		Actual: make(map[string]map[string]map[string]ids.Vote, len(spec.Collections)),
	}
	if err := s.assignVotes(spec); err != nil {
		return nil, err
	}
	if err := deriveOutcomes(e, spec); err != nil {
		return nil, err
	}
	return s, nil
}

func buildContests(e *election.Election, spec Spec) error {
	for _, c := range spec.Contests {
		cid := ids.Reduce(c.ID)
		if cid == "" {
			return fmt.Errorf("synth: contest with empty id")
		}
		if _, dup := e.Contests[cid]; dup {
			return fmt.Errorf("synth: contest %q declared twice", cid)
		}
		built := &election.Contest{
			ID:       cid,
			Type:     "Plurality",
			Winners:  c.Winners,
			WriteIns: c.WriteIns,
			Audit: election.ContestAudit{
				Method:         election.MethodBayes,
				RiskLimit:      c.RiskLimit,
				UpsetThreshold: c.UpsetThreshold,
				Mode:           c.Mode,
				Status:         c.Status,
				Pseudocount:    c.Pseudocount,
			},
		}
		if built.Winners <= 0 {
			built.Winners = 1
		}
		if built.Audit.RiskLimit <= 0 {
			built.Audit.RiskLimit = 0.05
		}
		if built.Audit.UpsetThreshold <= 0 {
			built.Audit.UpsetThreshold = 0.98
		}
		if built.Audit.Mode == "" {
			built.Audit.Mode = election.ModeActive
		}
		if built.Audit.Status == "" {
			built.Audit.Status = election.StatusOpen
		}
		if built.Audit.Pseudocount <= 0 {
			built.Audit.Pseudocount = 0.5
		}
		for _, selid := range c.Selections {
			addSelection(built, selid)
		}
		e.Contests[cid] = built
		e.ContestIDs = append(e.ContestIDs, cid)
	}

	// Block votes introduce selections the way the reported files would:
	// any id seen in a reported or actual vote is declared, except specials
	// and write-ins outside a qualified-write-in contest.
	for _, b := range spec.Blocks {
		c, ok := e.Contests[ids.Reduce(b.Contest)]
		if !ok {
			return fmt.Errorf("synth: block names undeclared contest %q", b.Contest)
		}
		for _, v := range []ids.Vote{b.Reported, b.Actual} {
			for _, selid := range v {
				addSelection(c, selid)
			}
		}
	}
	return nil
}

func addSelection(c *election.Contest, selid string) {
	selid = ids.Reduce(selid)
	if selid == "" || ids.IsSpecial(selid) {
		return
	}
	if ids.IsWriteIn(selid) && c.WriteIns != election.WriteInsQualified {
		return
	}
	if !c.HasSelection(selid) {
		c.Selections = append(c.Selections, selid)
	}
}

func buildCollections(e *election.Election, spec Spec) error {
	for _, p := range spec.Collections {
		pbcid := ids.Reduce(p.ID)
		if pbcid == "" {
			return fmt.Errorf("synth: collection with empty id")
		}
		if _, dup := e.Collections[pbcid]; dup {
			return fmt.Errorf("synth: collection %q declared twice", pbcid)
		}
		if p.Ballots <= 0 {
			return fmt.Errorf("synth: collection %q declares no ballots", pbcid)
		}
		built := &election.Collection{
			ID:           pbcid,
			Manager:      p.Manager,
			CVRType:      p.Type,
			MaxAuditRate: p.Rate,
		}
		if built.Manager == "" {
			built.Manager = "Nobody"
		}
		if built.CVRType == "" {
			built.CVRType = election.TypeCVR
		}
		if built.MaxAuditRate <= 0 {
			built.MaxAuditRate = 40
		}
		e.Collections[pbcid] = built
		e.CollectionIDs = append(e.CollectionIDs, pbcid)
	}

	// Relevance follows the blocks: a collection carries exactly the
	// contests its ballots vote on, in declaration order.
	seen := make(map[string]map[string]bool, len(e.CollectionIDs))
	for _, b := range spec.Blocks {
		pbcid := ids.Reduce(b.Collection)
		p, ok := e.Collections[pbcid]
		if !ok {
			return fmt.Errorf("synth: block names undeclared collection %q", b.Collection)
		}
		cid := ids.Reduce(b.Contest)
		set := seen[pbcid]
		if set == nil {
			set = make(map[string]bool)
			seen[pbcid] = set
		}
		if !set[cid] {
			set[cid] = true
			p.ContestRefs = append(p.ContestRefs, cid)
		}
	}
	for _, pbcid := range e.CollectionIDs {
		p := e.Collections[pbcid]
		ordered := make([]string, 0, len(p.ContestRefs))
		for _, cid := range e.ContestIDs {
			for _, ref := range p.ContestRefs {
				if ref == cid {
					ordered = append(ordered, cid)
				}
			}
		}
		p.ContestRefs = ordered
		expanded, err := e.ExpandContestRefs(ordered)
		if err != nil {
			return err
		}
		p.Contests = expanded
	}
	return nil
}

// assignVotes expands each collection's manifest and overlays the blocks of
// every contest onto the same ballot sequence, so multi-contest ballots
// fall out naturally while per-contest tallies stay exact.
func (s *Election) assignVotes(spec Spec) error {
	e := s.Model
	for _, decl := range spec.Collections {
		pbcid := ids.Reduce(decl.ID)
		first := decl.FirstBID
		if first == "" {
			first = "bid1"
		}
		rows := []election.ManifestRow{{
			Box:      "box1",
			Position: "1",
			BID:      first,
			Number:   decl.Ballots,
			Line:     2,
		}}
		entries, err := election.ExpandManifest("synthetic manifest", pbcid, rows)
		if err != nil {
			return err
		}
		s.Rows[pbcid] = rows
		e.Manifests[pbcid] = entries
		s.Actual[pbcid] = make(map[string]map[string]ids.Vote, len(entries))

		p := e.Collections[pbcid]
		if p.CVRType == election.TypeCVR {
			e.ReportedVotes[pbcid] = make(map[string]map[string]ids.Vote, len(entries))
		} else {
			e.ReportedTallies[pbcid] = make(map[string]map[string]int)
		}

		for _, cid := range p.Contests {
			cursor := 0
			for _, b := range spec.Blocks {
				if ids.Reduce(b.Contest) != cid || ids.Reduce(b.Collection) != pbcid {
					continue
				}
				if b.Count < 0 {
					return fmt.Errorf("synth: negative block count for contest %q in %q", cid, pbcid)
				}
				if cursor+b.Count > len(entries) {
					return fmt.Errorf("synth: blocks for contest %q overfill collection %q (%d ballots)",
						cid, pbcid, len(entries))
				}
				reported := canonical(b.Reported)
				actual := canonical(b.Actual)
				for i := cursor; i < cursor+b.Count; i++ {
					bid := entries[i].BID
					if p.CVRType == election.TypeCVR {
						byCID := e.ReportedVotes[pbcid][bid]
						if byCID == nil {
							byCID = make(map[string]ids.Vote)
							e.ReportedVotes[pbcid][bid] = byCID
						}
						byCID[cid] = reported
					}
					truth := s.Actual[pbcid][bid]
					if truth == nil {
						truth = make(map[string]ids.Vote)
						s.Actual[pbcid][bid] = truth
					}
					truth[cid] = actual
				}
				if p.CVRType == election.TypeNoCVR && b.Count > 0 {
					byCID := e.ReportedTallies[pbcid][cid]
					if byCID == nil {
						byCID = make(map[string]int)
						e.ReportedTallies[pbcid][cid] = byCID
					}
					byCID[reported.Key()] += b.Count
				}
				cursor += b.Count
			}
			if cursor != len(entries) {
				return fmt.Errorf("synth: blocks for contest %q cover %d of %d ballots in %q",
					cid, cursor, len(entries), pbcid)
			}
		}
	}
	return nil
}

func canonical(v ids.Vote) ids.Vote {
	return ids.NewVote(v...)
}

// deriveOutcomes fills reported winners: explicit overrides first, then the
// plurality outcome of each contest's own reported data.
func deriveOutcomes(e *election.Election, spec Spec) error {
	for cid, winners := range spec.Outcomes {
		cid = ids.Reduce(cid)
		if _, ok := e.Contests[cid]; !ok {
			return fmt.Errorf("synth: outcome for undeclared contest %q", cid)
		}
		e.Outcomes[cid] = canonical(winners)
	}
	for _, cid := range e.ContestIDs {
		if _, done := e.Outcomes[cid]; done {
			continue
		}
		c := e.Contests[cid]
		credit := make(map[string]int)
		for _, pbcid := range e.Rel(cid) {
			p := e.Collections[pbcid]
			if p.CVRType == election.TypeNoCVR {
				for key, n := range e.ReportedTallies[pbcid][cid] {
					selids, err := c.CreditVote(ids.VoteFromKey(key))
					if err != nil {
						return err
					}
					for _, selid := range selids {
						credit[selid] += n
					}
				}
				continue
			}
			for _, entry := range e.Manifests[pbcid] {
				selids, err := c.CreditVote(e.ReportedVote(pbcid, entry.BID, cid))
				if err != nil {
					return err
				}
				for _, selid := range selids {
					credit[selid]++
				}
			}
		}
		e.Outcomes[cid] = c.PluralityWinners(credit)
	}
	return nil
}

// Collections returns the generated collection ids in declaration order.
func (s *Election) Collections() []string {
	return append([]string(nil), s.Model.CollectionIDs...)
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
