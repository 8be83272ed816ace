package load

import (
	"errors"
	"io/fs"

	"ballotproof/internal/auditerr"
	"ballotproof/internal/csvio"
	"ballotproof/internal/election"
	"ballotproof/internal/ids"
	"ballotproof/internal/layout"
	"ballotproof/internal/versionfs"
)

// Reported loads ballot manifests, reported CVRs or tallies, and reported
// outcomes into an election whose structure has already been loaded.
func (l *Loader) Reported(e *election.Election) error {
	if err := l.readManifests(e); err != nil {
		return err
	}
	if err := l.readCVRs(e); err != nil {
		return err
	}
	if err := l.readOutcomes(e); err != nil {
		return err
	}
	if err := e.ValidateReported(); err != nil {
		return err
	}
	ballots := 0
	for _, pbcid := range e.CollectionIDs {
		ballots += e.Size(pbcid)
	}
	l.log.Info("reported results loaded", "ballots", ballots, "outcomes", len(e.Outcomes))
	return nil
}

func (l *Loader) readManifests(e *election.Election) error {
	dir := layout.ManifestsDir(l.dir)
	files, err := l.operativeByCollection(dir, layout.ManifestBase, e.CollectionIDs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return auditerr.Wrap(auditerr.MissingInput, dir, "manifest directory absent", err)
		}
		return err
	}
	spec := csvio.Spec{Fixed: []string{
		"Collection id", "Box", "Position", "Stamp", "Ballot id", "Number of ballots", "Comments",
	}}
	for _, pbcid := range e.CollectionIDs {
		v, ok := files[pbcid]
		if !ok {
			return auditerr.New(auditerr.MissingInput,
				"no ballot manifest for collection %q under %s", pbcid, dir)
		}
		table, err := csvio.ReadTable(v.Path, spec, l.retry)
		if err != nil {
			return err
		}
		rows := make([]election.ManifestRow, 0, len(table.Rows))
		for _, row := range table.Rows {
			if got := ids.Reduce(row.Get("Collection id")); got != pbcid {
				return auditerr.At(auditerr.ModelConsistency, v.Path, row.Line,
					"row names collection %q, file belongs to %q", got, pbcid)
			}
			number, err := parseInt(auditerr.ManifestArithmetic, v.Path, row, "Number of ballots")
			if err != nil {
				return err
			}
			if number < 1 {
				return auditerr.At(auditerr.ManifestArithmetic, v.Path, row.Line,
					"number of ballots must be at least 1, got %d", number)
			}
			rows = append(rows, election.ManifestRow{
				Box:      ids.Reduce(row.Get("Box")),
				Position: ids.Reduce(row.Get("Position")),
				Stamp:    ids.Reduce(row.Get("Stamp")),
				BID:      ids.Reduce(row.Get("Ballot id")),
				Number:   number,
				Comments: row.Get("Comments"),
				Line:     row.Line,
			})
		}
		entries, err := election.ExpandManifest(v.Path, pbcid, rows)
		if err != nil {
			return err
		}
		e.Manifests[pbcid] = entries
	}
	return nil
}

func (l *Loader) readCVRs(e *election.Election) error {
	dir := layout.CVRsDir(l.dir)
	files, err := l.operativeByCollection(dir, layout.CVRBase, e.CollectionIDs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return auditerr.Wrap(auditerr.MissingInput, dir, "reported-cvrs directory absent", err)
		}
		return err
	}
	for _, pbcid := range e.CollectionIDs {
		v, ok := files[pbcid]
		if !ok {
			return auditerr.New(auditerr.MissingInput,
				"no reported votes for collection %q under %s", pbcid, dir)
		}
		p := e.Collections[pbcid]
		if p.CVRType == election.TypeCVR {
			if err := l.readCVRFile(e, pbcid, v); err != nil {
				return err
			}
		} else {
			if err := l.readTallyFile(e, pbcid, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Loader) readCVRFile(e *election.Election, pbcid string, v versionfs.Version) error {
	spec := csvio.Spec{
		Fixed: []string{"Collection id", "Scanner", "Ballot id", "Contest id"},
		Tail:  "Selections",
	}
	table, err := csvio.ReadTable(v.Path, spec, l.retry)
	if err != nil {
		return err
	}
	byBID := e.ReportedVotes[pbcid]
	if byBID == nil {
		byBID = make(map[string]map[string]ids.Vote)
		e.ReportedVotes[pbcid] = byBID
	}
	for _, row := range table.Rows {
		if got := ids.Reduce(row.Get("Collection id")); got != pbcid {
			return auditerr.At(auditerr.ModelConsistency, v.Path, row.Line,
				"row names collection %q, file belongs to %q", got, pbcid)
		}
		bid := ids.Reduce(row.Get("Ballot id"))
		cid := ids.Reduce(row.Get("Contest id"))
		if byBID[bid] == nil {
			byBID[bid] = make(map[string]ids.Vote)
		}
		byBID[bid][cid] = ids.ParseVote(row.Tail)
	}
	return nil
}

func (l *Loader) readTallyFile(e *election.Election, pbcid string, v versionfs.Version) error {
	spec := csvio.Spec{
		Fixed: []string{"Collection id", "Scanner", "Tally", "Contest id"},
		Tail:  "Selections",
	}
	table, err := csvio.ReadTable(v.Path, spec, l.retry)
	if err != nil {
		return err
	}
	byCID := e.ReportedTallies[pbcid]
	if byCID == nil {
		byCID = make(map[string]map[string]int)
		e.ReportedTallies[pbcid] = byCID
	}
	for _, row := range table.Rows {
		if got := ids.Reduce(row.Get("Collection id")); got != pbcid {
			return auditerr.At(auditerr.ModelConsistency, v.Path, row.Line,
				"row names collection %q, file belongs to %q", got, pbcid)
		}
		tally, err := parseInt(auditerr.ManifestArithmetic, v.Path, row, "Tally")
		if err != nil {
			return err
		}
		if tally < 0 {
			return auditerr.At(auditerr.ManifestArithmetic, v.Path, row.Line,
				"tally must not be negative, got %d", tally)
		}
		cid := ids.Reduce(row.Get("Contest id"))
		if byCID[cid] == nil {
			byCID[cid] = make(map[string]int)
		}
		byCID[cid][ids.ParseVote(row.Tail).Key()] += tally
	}
	return nil
}

func (l *Loader) readOutcomes(e *election.Election) error {
	path, err := l.operative(layout.ReportedDir(l.dir), layout.OutcomesFamily)
	if err != nil {
		return err
	}
	spec := csvio.Spec{
		Fixed: []string{"Contest id"},
		Tail:  "Winner(s)",
	}
	table, err := csvio.ReadTable(path, spec, l.retry)
	if err != nil {
		return err
	}
	for _, row := range table.Rows {
		cid := ids.Reduce(row.Get("Contest id"))
		if _, ok := e.Contests[cid]; !ok {
			return auditerr.At(auditerr.ModelConsistency, path, row.Line,
				"outcome names undeclared contest %q", cid)
		}
		e.Outcomes[cid] = ids.ParseVote(row.Tail)
	}
	return nil
}
