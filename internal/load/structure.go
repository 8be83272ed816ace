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
	"ballotproof/internal/logging"
	"ballotproof/internal/versionfs"
)

// Structure loads and validates the election-spec tables: election
// attributes, contests, optional contest groups, and collections.
func (l *Loader) Structure() (*election.Election, error) {
	e := election.New()
	if err := l.readElection(e); err != nil {
		return nil, err
	}
	if err := l.readContests(e); err != nil {
		return nil, err
	}
	if err := l.readGroups(e); err != nil {
		return nil, err
	}
	if err := l.readCollections(e); err != nil {
		return nil, err
	}
	if err := e.ValidateStructure(); err != nil {
		return nil, err
	}
	l.log.Info("election structure loaded",
		logging.FieldElection, e.Name,
		"contests", len(e.ContestIDs),
		"collections", len(e.CollectionIDs))
	return e, nil
}

func (l *Loader) readElection(e *election.Election) error {
	path, err := l.operative(layout.SpecDir(l.dir), layout.ElectionFamily)
	if err != nil {
		return err
	}
	table, err := csvio.ReadTable(path, csvio.Spec{Fixed: []string{"Attribute", "Value"}}, l.retry)
	if err != nil {
		return err
	}
	for _, row := range table.Rows {
		value := row.Get("Value")
		switch ids.Reduce(row.Get("Attribute")) {
		case "Election name":
			e.Name = value
		case "Election dirname":
			e.Dirname = value
		case "Election date":
			e.Date = value
		case "Election URL":
			e.URL = value
		}
	}
	return nil
}

func (l *Loader) readContests(e *election.Election) error {
	path, err := l.operative(layout.SpecDir(l.dir), layout.ContestsFamily)
	if err != nil {
		return err
	}
	spec := csvio.Spec{
		Fixed: []string{"Contest id", "Contest type", "Winners", "Write-ins"},
		Tail:  "Selections",
	}
	table, err := csvio.ReadTable(path, spec, l.retry)
	if err != nil {
		return err
	}
	for _, row := range table.Rows {
		cid := ids.Reduce(row.Get("Contest id"))
		if err := ids.CheckID(cid); err != nil {
			return auditerr.Wrap(auditerr.ModelConsistency, path, "contest id", err)
		}
		if _, dup := e.Contests[cid]; dup {
			return auditerr.At(auditerr.ModelConsistency, path, row.Line,
				"contest %q declared twice", cid)
		}
		winners, err := parseInt(auditerr.ModelConsistency, path, row, "Winners")
		if err != nil {
			return err
		}
		policy, err := election.ParseWriteInPolicy(row.Get("Write-ins"))
		if err != nil {
			return auditerr.Wrap(auditerr.ModelConsistency, path, "contest "+cid, err)
		}
		var selections []string
		for _, raw := range row.Tail {
			selid := ids.Reduce(raw)
			if selid == "" {
				continue
			}
			selections = append(selections, selid)
		}
		e.Contests[cid] = &election.Contest{
			ID:         cid,
			Type:       ids.Reduce(row.Get("Contest type")),
			Winners:    winners,
			WriteIns:   policy,
			Selections: selections,
		}
		e.ContestIDs = append(e.ContestIDs, cid)
	}
	return nil
}

// readGroups loads the optional contest-groups table. A missing family is
// fine; elections without grouped collections simply do not ship one.
func (l *Loader) readGroups(e *election.Election) error {
	v, err := versionfs.Operative(layout.SpecDir(l.dir), layout.GroupsFamily, layout.Suffix)
	if err != nil {
		if errors.Is(err, versionfs.ErrNoVersion) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	spec := csvio.Spec{
		Fixed: []string{"Contest group"},
		Tail:  "Contest(s) or group(s)",
	}
	table, err := csvio.ReadTable(v.Path, spec, l.retry)
	if err != nil {
		return err
	}
	for _, row := range table.Rows {
		gid := ids.Reduce(row.Get("Contest group"))
		if err := ids.CheckID(gid); err != nil {
			return auditerr.Wrap(auditerr.ModelConsistency, v.Path, "contest group id", err)
		}
		if _, dup := e.Groups[gid]; dup {
			return auditerr.At(auditerr.ModelConsistency, v.Path, row.Line,
				"contest group %q declared twice", gid)
		}
		var members []string
		for _, raw := range row.Tail {
			if member := ids.Reduce(raw); member != "" {
				members = append(members, member)
			}
		}
		e.Groups[gid] = members
		e.GroupIDs = append(e.GroupIDs, gid)
	}
	return nil
}

func (l *Loader) readCollections(e *election.Election) error {
	path, err := l.operative(layout.SpecDir(l.dir), layout.CollectionsFamily)
	if err != nil {
		return err
	}
	spec := csvio.Spec{
		Fixed: []string{"Collection id", "Manager", "CVR type"},
		Tail:  "Contests",
	}
	table, err := csvio.ReadTable(path, spec, l.retry)
	if err != nil {
		return err
	}
	for _, row := range table.Rows {
		pbcid := ids.Reduce(row.Get("Collection id"))
		if err := ids.CheckID(pbcid); err != nil {
			return auditerr.Wrap(auditerr.ModelConsistency, path, "collection id", err)
		}
		if _, dup := e.Collections[pbcid]; dup {
			return auditerr.At(auditerr.ModelConsistency, path, row.Line,
				"collection %q declared twice", pbcid)
		}
		cvrType, err := election.ParseCVRType(row.Get("CVR type"))
		if err != nil {
			return auditerr.Wrap(auditerr.ModelConsistency, path, "collection "+pbcid, err)
		}
		var refs []string
		for _, raw := range row.Tail {
			if ref := ids.Reduce(raw); ref != "" {
				refs = append(refs, ref)
			}
		}
		contests, err := e.ExpandContestRefs(refs)
		if err != nil {
			return fmt.Errorf("%s: collection %q: %w", path, pbcid, err)
		}
		e.Collections[pbcid] = &election.Collection{
			ID:          pbcid,
			Manager:     row.Get("Manager"),
			CVRType:     cvrType,
			ContestRefs: refs,
			Contests:    contests,
		}
		e.CollectionIDs = append(e.CollectionIDs, pbcid)
	}
	return nil
}
