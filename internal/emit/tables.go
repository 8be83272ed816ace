package emit

import (
	"path/filepath"
	"sort"
	"strconv"

	"ballotproof/internal/election"
	"ballotproof/internal/ids"
	"ballotproof/internal/layout"
)

// Structure writes the election-spec tables: election attributes, contests,
// collections, and contest groups when any are declared.
func (w *Writer) Structure(e *election.Election) error {
	if err := w.electionTable(e); err != nil {
		return err
	}
	if err := w.contestsTable(e); err != nil {
		return err
	}
	if err := w.collectionsTable(e); err != nil {
		return err
	}
	if len(e.GroupIDs) > 0 {
		return w.groupsTable(e)
	}
	return nil
}

func (w *Writer) electionTable(e *election.Election) error {
	rows := [][]string{
		{"Election name", e.Name},
		{"Election dirname", e.Dirname},
		{"Election date", e.Date},
		{"Election URL", e.URL},
	}
	path := filepath.Join(layout.SpecDir(w.dir), layout.ElectionFamily+layout.Suffix)
	return w.write(path, []string{"Attribute", "Value"}, rows)
}

func (w *Writer) contestsTable(e *election.Election) error {
	rows := make([][]string, 0, len(e.ContestIDs))
	for _, cid := range e.ContestIDs {
		c := e.Contests[cid]
		row := []string{cid, c.Type, strconv.Itoa(c.Winners), c.WriteIns.String()}
		rows = append(rows, append(row, c.Selections...))
	}
	header := []string{"Contest id", "Contest type", "Winners", "Write-ins", "Selections"}
	path := filepath.Join(layout.SpecDir(w.dir), layout.ContestsFamily+layout.Suffix)
	return w.write(path, header, rows)
}

func (w *Writer) collectionsTable(e *election.Election) error {
	rows := make([][]string, 0, len(e.CollectionIDs))
	for _, pbcid := range e.CollectionIDs {
		p := e.Collections[pbcid]
		refs := p.ContestRefs
		if len(refs) == 0 {
			refs = p.Contests
		}
		row := []string{pbcid, p.Manager, string(p.CVRType)}
		rows = append(rows, append(row, refs...))
	}
	header := []string{"Collection id", "Manager", "CVR type", "Contests"}
	path := filepath.Join(layout.SpecDir(w.dir), layout.CollectionsFamily+layout.Suffix)
	return w.write(path, header, rows)
}

func (w *Writer) groupsTable(e *election.Election) error {
	rows := make([][]string, 0, len(e.GroupIDs))
	for _, gid := range e.GroupIDs {
		rows = append(rows, append([]string{gid}, e.Groups[gid]...))
	}
	header := []string{"Contest group", "Contest(s) or group(s)"}
	path := filepath.Join(layout.SpecDir(w.dir), layout.GroupsFamily+layout.Suffix)
	return w.write(path, header, rows)
}

// Manifest writes one collection's ballot manifest from compact rows.
func (w *Writer) Manifest(pbcid string, rows []election.ManifestRow) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			pbcid, r.Box, r.Position, r.Stamp, r.BID, strconv.Itoa(r.Number), r.Comments,
		})
	}
	header := []string{"Collection id", "Box", "Position", "Stamp", "Ballot id", "Number of ballots", "Comments"}
	path := filepath.Join(layout.ManifestsDir(w.dir),
		layout.CollectionPrefix(layout.ManifestBase, pbcid)+layout.Suffix)
	return w.write(path, header, out)
}

// Reported writes one collection's reported votes: per-ballot rows for CVR
// collections, tally rows for noCVR collections.
func (w *Writer) Reported(e *election.Election, pbcid, scanner string) error {
	p := e.Collections[pbcid]
	if p.CVRType == election.TypeNoCVR {
		return w.tallyTable(e, pbcid, scanner)
	}
	return w.cvrTable(e, pbcid, scanner)
}

func (w *Writer) cvrTable(e *election.Election, pbcid, scanner string) error {
	var rows [][]string
	for _, entry := range e.Manifests[pbcid] {
		byCID := e.ReportedVotes[pbcid][entry.BID]
		for _, cid := range e.Collections[pbcid].Contests {
			vote, ok := byCID[cid]
			if !ok {
				continue
			}
			row := []string{pbcid, scanner, entry.BID, cid}
			rows = append(rows, append(row, vote...))
		}
	}
	header := []string{"Collection id", "Scanner", "Ballot id", "Contest id", "Selections"}
	path := filepath.Join(layout.CVRsDir(w.dir),
		layout.CollectionPrefix(layout.CVRBase, pbcid)+layout.Suffix)
	return w.write(path, header, rows)
}

func (w *Writer) tallyTable(e *election.Election, pbcid, scanner string) error {
	var rows [][]string
	for _, cid := range e.Collections[pbcid].Contests {
		tallies := e.ReportedTallies[pbcid][cid]
		keys := make([]string, 0, len(tallies))
		for key := range tallies {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			row := []string{pbcid, scanner, strconv.Itoa(tallies[key]), cid}
			rows = append(rows, append(row, ids.VoteFromKey(key)...))
		}
	}
	header := []string{"Collection id", "Scanner", "Tally", "Contest id", "Selections"}
	path := filepath.Join(layout.CVRsDir(w.dir),
		layout.CollectionPrefix(layout.CVRBase, pbcid)+layout.Suffix)
	return w.write(path, header, rows)
}

// Outcomes writes the reported winners table.
func (w *Writer) Outcomes(e *election.Election) error {
	rows := make([][]string, 0, len(e.ContestIDs))
	for _, cid := range e.ContestIDs {
		winners, ok := e.Outcomes[cid]
		if !ok {
			continue
		}
		rows = append(rows, append([]string{cid}, winners...))
	}
	path := filepath.Join(layout.ReportedDir(w.dir), layout.OutcomesFamily+layout.Suffix)
	return w.write(path, []string{"Contest id", "Winner(s)"}, rows)
}

// Seed writes the audit seed.
func (w *Writer) Seed(seed string) error {
	path := filepath.Join(layout.AuditSpecDir(w.dir), layout.SeedFamily+layout.Suffix)
	return w.write(path, []string{"Audit seed"}, [][]string{{seed}})
}

// AuditSpec writes the three audit-parameter tables.
func (w *Writer) AuditSpec(e *election.Election) error {
	if err := w.globalParamsTable(e); err != nil {
		return err
	}
	if err := w.contestParamsTable(e); err != nil {
		return err
	}
	return w.collectionParamsTable(e)
}

func (w *Writer) globalParamsTable(e *election.Election) error {
	rows := [][]string{{
		strconv.Itoa(e.MaxAuditStages), strconv.Itoa(e.Trials), formatFloat(e.TallyWeight),
	}}
	header := []string{"Max audit stages", "Number of trials", "Tally weight"}
	path := filepath.Join(layout.AuditSpecDir(w.dir), layout.GlobalParamsFamily+layout.Suffix)
	return w.write(path, header, rows)
}

func (w *Writer) contestParamsTable(e *election.Election) error {
	rows := make([][]string, 0, len(e.ContestIDs))
	for _, cid := range e.ContestIDs {
		a := e.Contests[cid].Audit
		rows = append(rows, []string{
			cid, string(a.Method),
			formatFloat(a.RiskLimit), formatFloat(a.UpsetThreshold),
			string(a.Mode), string(a.Status), formatFloat(a.Pseudocount),
		})
	}
	header := []string{
		"Contest id", "Risk Measurement Method", "Risk Limit",
		"Risk Upset Threshold", "Sampling Mode", "Initial Status", "Params",
	}
	path := filepath.Join(layout.AuditSpecDir(w.dir), layout.ContestParamsFamily+layout.Suffix)
	return w.write(path, header, rows)
}

func (w *Writer) collectionParamsTable(e *election.Election) error {
	rows := make([][]string, 0, len(e.CollectionIDs))
	for _, pbcid := range e.CollectionIDs {
		rows = append(rows, []string{pbcid, strconv.Itoa(e.Collections[pbcid].MaxAuditRate)})
	}
	header := []string{"Collection id", "Max audit rate"}
	path := filepath.Join(layout.AuditSpecDir(w.dir), layout.CollectionParamsFamily+layout.Suffix)
	return w.write(path, header, rows)
}

// AuditedVotes writes one collection's cumulative transcript under the given
// version label. Ballots keep their first-audited order; contests within a
// ballot are sorted.
func (w *Writer) AuditedVotes(e *election.Election, pbcid, label string) error {
	var rows [][]string
	for _, bid := range e.AuditedBIDs[pbcid] {
		byCID := e.AuditedVotes[pbcid][bid]
		cids := make([]string, 0, len(byCID))
		for cid := range byCID {
			cids = append(cids, cid)
		}
		sort.Strings(cids)
		for _, cid := range cids {
			row := []string{pbcid, bid, cid}
			rows = append(rows, append(row, byCID[cid]...))
		}
	}
	header := []string{"Collection id", "Ballot id", "Contest id", "Selections"}
	path := filepath.Join(layout.AuditedDir(w.dir),
		layout.CollectionPrefix(layout.AuditedBase, pbcid)+label+layout.Suffix)
	return w.write(path, header, rows)
}
