package election

import (
	"sort"
	"strconv"
	"strings"

	"ballotproof/internal/auditerr"
	"ballotproof/internal/ids"
)

// ValidateStructure checks the election-spec tables on their own: election
// attributes, contest declarations, group resolvability, and collection
// contest lists.
func (e *Election) ValidateStructure() error {
	if e.Name == "" || e.Dirname == "" || e.Date == "" {
		return auditerr.New(auditerr.ModelConsistency,
			"election attributes incomplete: name %q, dirname %q, date %q", e.Name, e.Dirname, e.Date)
	}
	if len(e.ContestIDs) == 0 {
		return auditerr.New(auditerr.ModelConsistency, "no contests declared")
	}
	if len(e.CollectionIDs) == 0 {
		return auditerr.New(auditerr.ModelConsistency, "no collections declared")
	}

	for _, cid := range e.ContestIDs {
		c := e.Contests[cid]
		if !isPlurality(c.Type) {
			return auditerr.New(auditerr.ModelConsistency,
				"contest %q: unsupported contest type %q", cid, c.Type)
		}
		if c.Winners < 1 {
			return auditerr.New(auditerr.ModelConsistency,
				"contest %q: winners must be at least 1, got %d", cid, c.Winners)
		}
		if len(c.Selections) == 0 {
			return auditerr.New(auditerr.ModelConsistency,
				"contest %q declares no selections", cid)
		}
		seen := make(map[string]bool, len(c.Selections))
		for _, selid := range c.Selections {
			if err := ids.CheckID(selid); err != nil {
				return auditerr.Wrap(auditerr.ModelConsistency, "", "contest "+cid, err)
			}
			if ids.IsSpecial(selid) {
				return auditerr.New(auditerr.ModelConsistency,
					"contest %q: selection %q collides with the reserved special prefix", cid, selid)
			}
			if ids.IsWriteIn(selid) && c.WriteIns == WriteInsNone {
				return auditerr.New(auditerr.ModelConsistency,
					"contest %q declares write-in %q but permits no write-ins", cid, selid)
			}
			if seen[selid] {
				return auditerr.New(auditerr.ModelConsistency,
					"contest %q declares selection %q twice", cid, selid)
			}
			seen[selid] = true
		}
	}

	for _, gid := range e.GroupIDs {
		if _, clash := e.Contests[gid]; clash {
			return auditerr.New(auditerr.ModelConsistency,
				"id %q is both a contest and a contest group", gid)
		}
		if _, err := e.ExpandContestRefs(e.Groups[gid]); err != nil {
			return err
		}
	}

	for _, pbcid := range e.CollectionIDs {
		p := e.Collections[pbcid]
		if len(p.Contests) == 0 {
			return auditerr.New(auditerr.ModelConsistency,
				"collection %q lists no contests", pbcid)
		}
		for _, cid := range p.Contests {
			if _, ok := e.Contests[cid]; !ok {
				return auditerr.New(auditerr.ModelConsistency,
					"collection %q references undeclared contest %q", pbcid, cid)
			}
		}
	}
	return nil
}

// ValidateReported cross-checks manifests, reported votes, tallies, and
// outcomes against the structure.
func (e *Election) ValidateReported() error {
	for _, pbcid := range e.CollectionIDs {
		p := e.Collections[pbcid]
		if e.Size(pbcid) == 0 {
			return auditerr.New(auditerr.ModelConsistency,
				"collection %q has an empty ballot manifest", pbcid)
		}
		if err := e.checkManifestLocators(pbcid); err != nil {
			return err
		}
		switch p.CVRType {
		case TypeCVR:
			if err := e.checkReportedVotes(pbcid); err != nil {
				return err
			}
		case TypeNoCVR:
			if err := e.checkReportedTallies(pbcid); err != nil {
				return err
			}
		}
	}

	for _, cid := range e.ContestIDs {
		c := e.Contests[cid]
		ro, ok := e.Outcomes[cid]
		if !ok {
			return auditerr.New(auditerr.ModelConsistency,
				"contest %q has no reported outcome", cid)
		}
		if len(ro) != c.Winners {
			return auditerr.New(auditerr.ModelConsistency,
				"contest %q reports %d winners, expects %d", cid, len(ro), c.Winners)
		}
		for _, selid := range ro {
			if c.HasSelection(selid) {
				continue
			}
			if ids.IsWriteIn(selid) && c.WriteIns == WriteInsArbitrary {
				continue
			}
			return auditerr.New(auditerr.ModelConsistency,
				"contest %q reported winner %q is not a valid selection", cid, selid)
		}
	}
	return nil
}

func (e *Election) checkManifestLocators(pbcid string) error {
	type boxKey struct{ box, stamp string }
	stamps := make(map[boxKey]bool)
	positions := make(map[string][]int)
	nonNumeric := make(map[string]bool)
	for _, entry := range e.Manifests[pbcid] {
		if entry.Stamp != "" {
			key := boxKey{entry.Box, entry.Stamp}
			if stamps[key] {
				return auditerr.New(auditerr.ModelConsistency,
					"collection %q: stamp %q repeats within box %q", pbcid, entry.Stamp, entry.Box)
			}
			stamps[key] = true
		}
		if n, err := strconv.Atoi(entry.Position); err == nil {
			positions[entry.Box] = append(positions[entry.Box], n)
		} else {
			nonNumeric[entry.Box] = true
		}
	}
	// Density is only checkable when a box uses integer positions
	// throughout.
	for box, ps := range positions {
		if nonNumeric[box] {
			continue
		}
		sort.Ints(ps)
		for i, p := range ps {
			if p != i+1 {
				return auditerr.New(auditerr.ModelConsistency,
					"collection %q: box %q positions are not dense from 1 (saw %d at rank %d)", pbcid, box, p, i+1)
			}
		}
	}
	return nil
}

func (e *Election) checkReportedVotes(pbcid string) error {
	for bid, byCID := range e.ReportedVotes[pbcid] {
		if !e.HasBallot(pbcid, bid) {
			return auditerr.New(auditerr.ModelConsistency,
				"collection %q: reported vote for ballot %q absent from the manifest", pbcid, bid)
		}
		for cid, vote := range byCID {
			c, ok := e.Contests[cid]
			if !ok {
				return auditerr.New(auditerr.ModelConsistency,
					"collection %q: reported vote names undeclared contest %q", pbcid, cid)
			}
			if !e.Collections[pbcid].HasContest(cid) {
				return auditerr.New(auditerr.ModelConsistency,
					"collection %q does not carry contest %q but reports a vote for it", pbcid, cid)
			}
			if _, err := c.ClassifyVote(vote); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Election) checkReportedTallies(pbcid string) error {
	for cid, byVote := range e.ReportedTallies[pbcid] {
		c, ok := e.Contests[cid]
		if !ok {
			return auditerr.New(auditerr.ModelConsistency,
				"collection %q: tally names undeclared contest %q", pbcid, cid)
		}
		if !e.Collections[pbcid].HasContest(cid) {
			return auditerr.New(auditerr.ModelConsistency,
				"collection %q does not carry contest %q but tallies it", pbcid, cid)
		}
		total := 0
		for key, n := range byVote {
			if _, err := c.ClassifyVote(ids.VoteFromKey(key)); err != nil {
				return err
			}
			total += n
		}
		if total != e.Size(pbcid) {
			return auditerr.New(auditerr.ManifestArithmetic,
				"collection %q contest %q: tallies sum to %d, manifest holds %d ballots", pbcid, cid, total, e.Size(pbcid))
		}
	}
	return nil
}

// ValidateAuditSpec checks the seed and every audit parameter range.
func (e *Election) ValidateAuditSpec() error {
	if err := CheckSeed(e.Seed); err != nil {
		return err
	}
	if e.MaxAuditStages < 1 {
		return auditerr.New(auditerr.ParameterOutOfRange,
			"max audit stages must be at least 1, got %d", e.MaxAuditStages)
	}
	if e.Trials < 1 {
		return auditerr.New(auditerr.ParameterOutOfRange,
			"number of trials must be at least 1, got %d", e.Trials)
	}
	if e.TallyWeight < 0 {
		return auditerr.New(auditerr.ParameterOutOfRange,
			"tally weight must not be negative, got %v", e.TallyWeight)
	}
	for _, cid := range e.ContestIDs {
		a := e.Contests[cid].Audit
		if a.RiskLimit < 0 || a.RiskLimit > 1 {
			return auditerr.New(auditerr.ParameterOutOfRange,
				"contest %q: risk limit %v outside [0,1]", cid, a.RiskLimit)
		}
		if a.UpsetThreshold < 0 || a.UpsetThreshold > 1 {
			return auditerr.New(auditerr.ParameterOutOfRange,
				"contest %q: upset threshold %v outside [0,1]", cid, a.UpsetThreshold)
		}
		if a.UpsetThreshold < a.RiskLimit {
			return auditerr.New(auditerr.ParameterOutOfRange,
				"contest %q: upset threshold %v below risk limit %v", cid, a.UpsetThreshold, a.RiskLimit)
		}
		if a.Pseudocount <= 0 {
			return auditerr.New(auditerr.ParameterOutOfRange,
				"contest %q: pseudocount must be positive, got %v", cid, a.Pseudocount)
		}
	}
	for _, pbcid := range e.CollectionIDs {
		if rate := e.Collections[pbcid].MaxAuditRate; rate < 1 {
			return auditerr.New(auditerr.ParameterOutOfRange,
				"collection %q: max audit rate must be positive, got %d", pbcid, rate)
		}
	}
	return nil
}

// CheckSeed enforces the public-seed format: a decimal string of at least
// twenty digits.
func CheckSeed(seed string) error {
	if len(seed) < 20 {
		return auditerr.New(auditerr.SeedInvalid,
			"seed has %d digits, need at least 20", len(seed))
	}
	for _, r := range seed {
		if r < '0' || r > '9' {
			return auditerr.New(auditerr.SeedInvalid,
				"seed must be decimal digits only, found %q", r)
		}
	}
	return nil
}

func isPlurality(contestType string) bool {
	return strings.EqualFold(contestType, "plurality")
}
