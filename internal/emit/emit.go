// Package emit writes the versioned CSV artifacts of an election directory.
//
// Every writer renders rows in a fixed order derived from declared ids and
// sorted keys, so a re-run over the same inputs produces byte-identical
// files. Writes go through the versioned-file discipline: atomic create,
// never overwrite.
package emit

import (
	"log/slog"
	"path/filepath"
	"strconv"

	"ballotproof/internal/csvio"
	"ballotproof/internal/election"
	"ballotproof/internal/layout"
	"ballotproof/internal/logging"
	"ballotproof/internal/risk"
	"ballotproof/internal/snapshot"
	"ballotproof/internal/versionfs"
)

// Writer emits artifacts under one election directory.
type Writer struct {
	dir string
	log *slog.Logger
}

// New returns a Writer rooted at dir. A nil logger disables logging.
func New(dir string, log *slog.Logger) *Writer {
	return &Writer{dir: dir, log: logging.WithComponent(log, "emit")}
}

func (w *Writer) write(path string, header []string, rows [][]string) error {
	data, err := csvio.EncodeTable(header, rows)
	if err != nil {
		return err
	}
	if err := versionfs.WriteNew(path, data); err != nil {
		return err
	}
	w.log.Info("artifact written", "path", path, "rows", len(rows))
	return nil
}

// Orders writes the per-collection sampling-order files. The order column
// is dense and 1-based.
func (w *Writer) Orders(e *election.Election, orders map[string][]election.ManifestEntry) error {
	header := []string{"Ballot order", "Collection id", "Box", "Position", "Stamp", "Ballot id", "Comments"}
	for _, pbcid := range e.CollectionIDs {
		rows := make([][]string, 0, len(orders[pbcid]))
		for i, entry := range orders[pbcid] {
			rows = append(rows, []string{
				strconv.Itoa(i + 1), pbcid,
				entry.Box, entry.Position, entry.Stamp, entry.BID, entry.Comments,
			})
		}
		path := filepath.Join(layout.OrdersDir(w.dir),
			layout.CollectionPrefix(layout.OrderBase, pbcid)+layout.Suffix)
		if err := w.write(path, header, rows); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot writes the stage's input hash list.
func (w *Writer) Snapshot(stage string, files []snapshot.File) error {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{f.Path, f.Hash})
	}
	path := filepath.Join(layout.OutputDir(w.dir), layout.SnapshotBase+stage+layout.Suffix)
	return w.write(path, []string{"File path", "SHA256 hash"}, rows)
}

// Output writes the per-contest risks and statuses of one stage. Every
// declared contest gets a row; the risk and sample cells are filled only
// for contests measured this stage.
func (w *Writer) Output(stage string, e *election.Election, ms []risk.Measurement) error {
	measured := make(map[string]risk.Measurement, len(ms))
	for _, m := range ms {
		measured[m.Contest] = m
	}
	rows := make([][]string, 0, len(e.ContestIDs))
	for _, cid := range e.ContestIDs {
		a := e.Contests[cid].Audit
		riskCell, sampleCell := "", ""
		if m, ok := measured[cid]; ok {
			riskCell = FormatRisk(m.Risk)
			sampleCell = strconv.Itoa(m.SampleSize)
		}
		rows = append(rows, []string{
			cid, string(a.Method), riskCell,
			formatFloat(a.RiskLimit), formatFloat(a.UpsetThreshold),
			string(a.Status), sampleCell,
		})
	}
	header := []string{
		"Contest id", "Risk Measurement Method", "Measured risk",
		"Risk Limit", "Risk Upset Threshold", "Status", "Sample size",
	}
	path := filepath.Join(layout.OutputDir(w.dir), layout.OutputBase+stage+layout.Suffix)
	return w.write(path, header, rows)
}

// PlanRow is one collection's workload line of an audit plan.
type PlanRow struct {
	Collection     string
	AuditedSoFar   int
	NextIncrement  int
	EstimatedTotal int
}

// Plan writes the next-stage workload per collection.
func (w *Writer) Plan(stage string, rows []PlanRow) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Collection, strconv.Itoa(r.AuditedSoFar),
			strconv.Itoa(r.NextIncrement), strconv.Itoa(r.EstimatedTotal),
		})
	}
	header := []string{"Collection id", "Audited so far", "Next stage increment", "Estimated total needed"}
	path := filepath.Join(layout.OutputDir(w.dir), layout.PlanBase+stage+layout.Suffix)
	return w.write(path, header, out)
}

// FormatRisk renders a measured risk with six significant digits.
func FormatRisk(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// formatFloat renders a configured parameter exactly as short as possible.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
