package load

import (
	"strconv"
	"strings"

	"ballotproof/internal/auditerr"
	"ballotproof/internal/csvio"
	"ballotproof/internal/election"
	"ballotproof/internal/ids"
	"ballotproof/internal/layout"
)

// Seed loads the public audit seed and checks its format. The first data
// row wins; later rows are ignored so an accidental duplicate cannot
// silently change the audit.
func (l *Loader) Seed(e *election.Election) error {
	path, err := l.operative(layout.AuditSpecDir(l.dir), layout.SeedFamily)
	if err != nil {
		return err
	}
	table, err := csvio.ReadTable(path, csvio.Spec{Fixed: []string{"Audit seed"}}, l.retry)
	if err != nil {
		return err
	}
	if len(table.Rows) == 0 {
		return auditerr.At(auditerr.SeedInvalid, path, 0, "seed file has no data row")
	}
	seed := table.Rows[0].Get("Audit seed")
	if err := election.CheckSeed(seed); err != nil {
		return err
	}
	e.Seed = seed
	l.log.Info("audit seed loaded", "digits", len(seed))
	return nil
}

// AuditSpec loads the global, per-contest, and per-collection audit
// parameters and validates them together with the seed, which must have
// been loaded already.
func (l *Loader) AuditSpec(e *election.Election) error {
	if err := l.readGlobalParams(e); err != nil {
		return err
	}
	if err := l.readContestParams(e); err != nil {
		return err
	}
	if err := l.readCollectionParams(e); err != nil {
		return err
	}
	if err := e.ValidateAuditSpec(); err != nil {
		return err
	}
	l.log.Info("audit parameters loaded",
		"max_stages", e.MaxAuditStages, "trials", e.Trials)
	return nil
}

func (l *Loader) readGlobalParams(e *election.Election) error {
	path, err := l.operative(layout.AuditSpecDir(l.dir), layout.GlobalParamsFamily)
	if err != nil {
		return err
	}
	spec := csvio.Spec{
		Fixed: []string{"Max audit stages", "Number of trials"},
		Tail:  "Tally weight",
	}
	table, err := csvio.ReadTable(path, spec, l.retry)
	if err != nil {
		return err
	}
	if len(table.Rows) == 0 {
		return auditerr.At(auditerr.ParameterOutOfRange, path, 0, "no global parameters row")
	}
	row := table.Rows[0]
	if e.MaxAuditStages, err = parseInt(auditerr.ParameterOutOfRange, path, row, "Max audit stages"); err != nil {
		return err
	}
	if e.Trials, err = parseInt(auditerr.ParameterOutOfRange, path, row, "Number of trials"); err != nil {
		return err
	}
	if len(row.Tail) > 0 && strings.TrimSpace(row.Tail[0]) != "" {
		weight, err := strconv.ParseFloat(strings.TrimSpace(row.Tail[0]), 64)
		if err != nil {
			return auditerr.At(auditerr.ParameterOutOfRange, path, row.Line,
				"tally weight %q is not a number", row.Tail[0])
		}
		e.TallyWeight = weight
	}
	return nil
}

func (l *Loader) readContestParams(e *election.Election) error {
	path, err := l.operative(layout.AuditSpecDir(l.dir), layout.ContestParamsFamily)
	if err != nil {
		return err
	}
	spec := csvio.Spec{
		Fixed: []string{
			"Contest id", "Risk Measurement Method", "Risk Limit",
			"Risk Upset Threshold", "Sampling Mode", "Initial Status",
		},
		Tail: "Params",
	}
	table, err := csvio.ReadTable(path, spec, l.retry)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(table.Rows))
	for _, row := range table.Rows {
		cid := ids.Reduce(row.Get("Contest id"))
		c, ok := e.Contests[cid]
		if !ok {
			return auditerr.At(auditerr.ModelConsistency, path, row.Line,
				"audit parameters name undeclared contest %q", cid)
		}
		if seen[cid] {
			return auditerr.At(auditerr.ModelConsistency, path, row.Line,
				"contest %q has two audit parameter rows", cid)
		}
		seen[cid] = true

		method, err := election.ParseMethod(row.Get("Risk Measurement Method"))
		if err != nil {
			return auditerr.Wrap(auditerr.ModelConsistency, path, "contest "+cid, err)
		}
		mode, err := election.ParseSamplingMode(row.Get("Sampling Mode"))
		if err != nil {
			return auditerr.Wrap(auditerr.ModelConsistency, path, "contest "+cid, err)
		}
		status, err := election.ParseStatus(row.Get("Initial Status"))
		if err != nil {
			return auditerr.Wrap(auditerr.ModelConsistency, path, "contest "+cid, err)
		}
		limit, err := parseFloat(auditerr.ParameterOutOfRange, path, row, "Risk Limit")
		if err != nil {
			return err
		}
		upset, err := parseFloat(auditerr.ParameterOutOfRange, path, row, "Risk Upset Threshold")
		if err != nil {
			return err
		}
		pseudocount := 0.5
		if len(row.Tail) > 0 && strings.TrimSpace(row.Tail[0]) != "" {
			pseudocount, err = strconv.ParseFloat(strings.TrimSpace(row.Tail[0]), 64)
			if err != nil {
				return auditerr.At(auditerr.ParameterOutOfRange, path, row.Line,
					"pseudocount %q is not a number", row.Tail[0])
			}
		}
		c.Audit = election.ContestAudit{
			Method:         method,
			RiskLimit:      limit,
			UpsetThreshold: upset,
			Mode:           mode,
			Status:         status,
			Pseudocount:    pseudocount,
		}
	}
	for _, cid := range e.ContestIDs {
		if !seen[cid] {
			return auditerr.New(auditerr.ModelConsistency,
				"%s: contest %q has no audit parameters row", path, cid)
		}
	}
	return nil
}

func (l *Loader) readCollectionParams(e *election.Election) error {
	path, err := l.operative(layout.AuditSpecDir(l.dir), layout.CollectionParamsFamily)
	if err != nil {
		return err
	}
	spec := csvio.Spec{Fixed: []string{"Collection id", "Max audit rate"}}
	table, err := csvio.ReadTable(path, spec, l.retry)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(table.Rows))
	for _, row := range table.Rows {
		pbcid := ids.Reduce(row.Get("Collection id"))
		p, ok := e.Collections[pbcid]
		if !ok {
			return auditerr.At(auditerr.ModelConsistency, path, row.Line,
				"audit parameters name undeclared collection %q", pbcid)
		}
		if seen[pbcid] {
			return auditerr.At(auditerr.ModelConsistency, path, row.Line,
				"collection %q has two audit parameter rows", pbcid)
		}
		seen[pbcid] = true
		rate, err := parseInt(auditerr.ParameterOutOfRange, path, row, "Max audit rate")
		if err != nil {
			return err
		}
		p.MaxAuditRate = rate
	}
	for _, pbcid := range e.CollectionIDs {
		if !seen[pbcid] {
			return auditerr.New(auditerr.ModelConsistency,
				"%s: collection %q has no max audit rate row", path, pbcid)
		}
	}
	return nil
}
