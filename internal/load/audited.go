package load

import (
	"errors"
	"fmt"
	"io/fs"

	"ballotproof/internal/auditerr"
	"ballotproof/internal/csvio"
	"ballotproof/internal/election"
	"ballotproof/internal/ids"
	"ballotproof/internal/layout"
)

// Audited loads the cumulative audited-vote transcripts. Collections with no
// transcript yet simply contribute nothing; each operative file replaces any
// previously loaded state for its collection because every upload repeats
// the full history. Votes are checked for manifest membership and against
// the contest declarations; the sampling-order prefix rule is enforced later
// when the sample tallies are built.
func (l *Loader) Audited(e *election.Election) error {
	dir := layout.AuditedDir(l.dir)
	files, err := l.operativeByCollection(dir, layout.AuditedBase, e.CollectionIDs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	spec := csvio.Spec{
		Fixed: []string{"Collection id", "Ballot id", "Contest id"},
		Tail:  "Selections",
	}
	total := 0
	for _, pbcid := range e.CollectionIDs {
		v, ok := files[pbcid]
		if !ok {
			continue
		}
		table, err := csvio.ReadTable(v.Path, spec, l.retry)
		if err != nil {
			return err
		}
		p := e.Collections[pbcid]
		byBID := make(map[string]map[string]ids.Vote)
		var order []string
		for _, row := range table.Rows {
			if got := ids.Reduce(row.Get("Collection id")); got != pbcid {
				return auditerr.At(auditerr.ModelConsistency, v.Path, row.Line,
					"row names collection %q, file belongs to %q", got, pbcid)
			}
			bid := ids.Reduce(row.Get("Ballot id"))
			cid := ids.Reduce(row.Get("Contest id"))
			if !e.HasBallot(pbcid, bid) {
				return auditerr.At(auditerr.ModelConsistency, v.Path, row.Line,
					"audited ballot %q is not in the manifest for %q", bid, pbcid)
			}
			c, declared := e.Contests[cid]
			if !declared || !p.HasContest(cid) {
				return auditerr.At(auditerr.ModelConsistency, v.Path, row.Line,
					"audited vote names contest %q not carried by %q", cid, pbcid)
			}
			vote := ids.ParseVote(row.Tail)
			if _, err := c.ClassifyVote(vote); err != nil {
				return fmt.Errorf("%s row %d: %w", v.Path, row.Line, err)
			}
			if byBID[bid] == nil {
				byBID[bid] = make(map[string]ids.Vote)
				order = append(order, bid)
			}
			byBID[bid][cid] = vote
		}
		e.AuditedVotes[pbcid] = byBID
		e.AuditedBIDs[pbcid] = order
		total += len(order)
	}
	l.log.Info("audited votes loaded", "ballots", total)
	return nil
}
