package synth

import (
	"fmt"
	"sort"

	"ballotproof/internal/election"
	"ballotproof/internal/emit"
	"ballotproof/internal/ids"
	"ballotproof/internal/prng"
	"ballotproof/internal/sampler"
)

// errDenom is the resolution of the misread coin.
const errDenom = 1 << 20

// WriteInputs lays the generated election down as a complete input
// directory: spec tables, manifests, reported votes or tallies, outcomes,
// seed, and audit parameters. Sampling orders and audited votes are the
// audit's own business and are not written here.
func (s *Election) WriteInputs(dir string) error {
	w := emit.New(dir, nil)
	if err := w.Structure(s.Model); err != nil {
		return err
	}
	for _, pbcid := range s.Model.CollectionIDs {
		if err := w.Manifest(pbcid, s.Rows[pbcid]); err != nil {
			return err
		}
		if err := w.Reported(s.Model, pbcid, "scanner-1"); err != nil {
			return err
		}
	}
	if err := w.Outcomes(s.Model); err != nil {
		return err
	}
	if err := w.Seed(s.Model.Seed); err != nil {
		return err
	}
	return w.AuditSpec(s.Model)
}

// SimulateAudit plays the audit board: for every collection in counts it
// rebuilds the transcript covering the first counts[pbcid] ballots of the
// sampling order, reading each ballot's ground truth. With a positive
// errRate each interpretation is misread with that probability, drawn from
// the election seed so repeated simulations agree on shared prefixes.
func (s *Election) SimulateAudit(counts map[string]int, errRate float64) error {
	if errRate < 0 || errRate > 1 {
		return fmt.Errorf("synth: error rate %v outside [0,1]", errRate)
	}
	orders := sampler.Orders(s.Model)
	for _, pbcid := range sortedKeys(counts) {
		order, ok := orders[pbcid]
		if !ok {
			return fmt.Errorf("synth: no such collection %q", pbcid)
		}
		n := counts[pbcid]
		if n > len(order) {
			n = len(order)
		}
		bids, votes := s.transcribe(pbcid, order, n, errRate)
		s.Model.AuditedBIDs[pbcid] = bids
		s.Model.AuditedVotes[pbcid] = votes
	}
	return nil
}

// transcribe reads the first n sampled ballots of one collection from
// scratch. Restarting from the top keeps the transcript cumulative: a later
// stage with a larger n reproduces every earlier interpretation byte for
// byte before extending it.
func (s *Election) transcribe(pbcid string, order []election.ManifestEntry, n int, errRate float64) ([]string, map[string]map[string]ids.Vote) {
	g := prng.New(s.Model.Seed, "synth:audit:"+pbcid)
	threshold := int64(errRate * errDenom)

	bids := make([]string, 0, n)
	votes := make(map[string]map[string]ids.Vote, n)
	for i := 0; i < n; i++ {
		bid := order[i].BID
		truth := s.Actual[pbcid][bid]
		cids := make([]string, 0, len(truth))
		for cid := range truth {
			cids = append(cids, cid)
		}
		sort.Strings(cids)

		byCID := make(map[string]ids.Vote, len(cids))
		for _, cid := range cids {
			v := truth[cid]
			if threshold > 0 && g.UniformInt(0, errDenom-1) < threshold {
				v = s.misread(g, cid, v)
			}
			byCID[cid] = v
		}
		bids = append(bids, bid)
		votes[bid] = byCID
	}
	return bids, votes
}

// misread replaces a vote with a uniformly chosen different declared
// selection, or an undervote when the contest offers no alternative.
func (s *Election) misread(g *prng.Generator, cid string, truth ids.Vote) ids.Vote {
	var candidates []string
	key := truth.Key()
	for _, selid := range s.Model.Contests[cid].Selections {
		if ids.IsWriteIn(selid) || selid == key {
			continue
		}
		candidates = append(candidates, selid)
	}
	if len(candidates) == 0 {
		return ids.Vote{}
	}
	pick := g.UniformInt(0, int64(len(candidates)-1))
	return ids.NewVote(candidates[pick])
}

// WriteAudited simulates the audit board and writes one versioned
// audited-votes file per collection in counts under the given label.
func (s *Election) WriteAudited(dir, label string, counts map[string]int, errRate float64) error {
	if err := s.SimulateAudit(counts, errRate); err != nil {
		return err
	}
	w := emit.New(dir, nil)
	for _, pbcid := range sortedKeys(counts) {
		if err := w.AuditedVotes(s.Model, pbcid, label); err != nil {
			return err
		}
	}
	return nil
}
