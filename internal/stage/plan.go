package stage

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"sort"
	"strconv"

	"ballotproof/internal/auditerr"
	"ballotproof/internal/csvio"
	"ballotproof/internal/election"
	"ballotproof/internal/emit"
	"ballotproof/internal/layout"
	"ballotproof/internal/versionfs"
)

// outputStage is the parsed output file of one earlier stage.
type outputStage struct {
	number int
	status map[string]election.Status
	// risks holds the measured-risk column for contests that were
	// measured at the stage.
	risks map[string]float64
}

// outputHistory is every stage output already on disk, ascending.
type outputHistory struct {
	stages []outputStage
}

func readOutputHistory(dir string, retry csvio.Retry) (*outputHistory, error) {
	versions, err := versionfs.List(layout.OutputDir(dir), layout.OutputBase, layout.Suffix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &outputHistory{}, nil
		}
		return nil, err
	}
	h := &outputHistory{}
	for _, v := range versions {
		number, err := strconv.Atoi(v.Label)
		if err != nil {
			continue
		}
		st, err := readOutputStage(v.Path, number, retry)
		if err != nil {
			return nil, err
		}
		h.stages = append(h.stages, st)
	}
	sort.Slice(h.stages, func(i, j int) bool { return h.stages[i].number < h.stages[j].number })
	return h, nil
}

func readOutputStage(path string, number int, retry csvio.Retry) (outputStage, error) {
	spec := csvio.Spec{Fixed: []string{
		"Contest id", "Risk Measurement Method", "Measured risk",
		"Risk Limit", "Risk Upset Threshold", "Status", "Sample size",
	}}
	t, err := csvio.ReadTable(path, spec, retry)
	if err != nil {
		return outputStage{}, err
	}
	st := outputStage{
		number: number,
		status: make(map[string]election.Status, len(t.Rows)),
		risks:  make(map[string]float64, len(t.Rows)),
	}
	for _, row := range t.Rows {
		cid := row.Get("Contest id")
		st.status[cid] = election.Status(row.Get("Status"))
		cell := row.Get("Measured risk")
		if cell == "" {
			continue
		}
		r, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return outputStage{}, auditerr.At(auditerr.ParameterOutOfRange, path, row.Line,
				"measured risk %q is not a number", cell)
		}
		st.risks[cid] = r
	}
	return st, nil
}

// checkSequence verifies that running stage number now keeps the output
// family consecutive.
func (h *outputHistory) checkSequence(number int) error {
	latest := 0
	if n := len(h.stages); n > 0 {
		latest = h.stages[n-1].number
	}
	switch {
	case latest >= number:
		return fmt.Errorf("stage %s already has outputs; the next stage is %s",
			layout.StageLabel(number), layout.StageLabel(latest+1))
	case latest < number-1 && latest == 0:
		return auditerr.New(auditerr.MissingInput,
			"stage %s requires the output of stage %s; no stage outputs found",
			layout.StageLabel(number), layout.StageLabel(number-1))
	case latest < number-1:
		return auditerr.New(auditerr.MissingInput,
			"stage %s requires the output of stage %s; the latest is %s",
			layout.StageLabel(number), layout.StageLabel(number-1), layout.StageLabel(latest))
	}
	return nil
}

// overlayStatuses folds the most recent stage output into the model.
// Terminal statuses stick no matter what the parameter file now says;
// non-terminal contests follow the operative parameters, so officials
// can still switch an unsettled contest off or back on.
func (h *outputHistory) overlayStatuses(e *election.Election) {
	if len(h.stages) == 0 {
		return
	}
	for cid, status := range h.stages[len(h.stages)-1].status {
		if c, ok := e.Contests[cid]; ok && status.Terminal() {
			c.Audit.Status = status
		}
	}
}

// latestRisks returns the measured risks of the most recent stage.
func (h *outputHistory) latestRisks() map[string]float64 {
	if len(h.stages) == 0 {
		return nil
	}
	return h.stages[len(h.stages)-1].risks
}

// auditFinalized reports whether the audit can make no further progress:
// every contest settled or switched off, or every remaining open contest
// merely opportunistic.
func auditFinalized(e *election.Election) bool {
	for _, cid := range e.ContestIDs {
		a := e.Contests[cid].Audit
		if a.Status == election.StatusOpen && a.Mode == election.ModeActive {
			return false
		}
	}
	return true
}

// buildPlan proposes the next stage's workload per collection. A
// collection grows by its max audit rate while an open active contest
// touches it, capped by its manifest size. current and prior carry the
// measured risks of the two most recent stages for the total estimate;
// either may be nil.
func buildPlan(e *election.Election, current, prior map[string]float64) []emit.PlanRow {
	rows := make([]emit.PlanRow, 0, len(e.CollectionIDs))
	for _, pbcid := range e.CollectionIDs {
		col := e.Collections[pbcid]
		n := e.Size(pbcid)
		audited := e.AuditedCount(pbcid)

		increment := 0
		if collectionGrows(e, col) {
			increment = min(col.MaxAuditRate, n-audited)
			if increment < 0 {
				increment = 0
			}
		}
		estimated := audited + increment
		if increment > 0 {
			estimated = estimateTotal(e, col, audited, n, current, prior)
			if estimated < audited+increment {
				estimated = audited + increment
			}
			if estimated > n {
				estimated = n
			}
		}
		rows = append(rows, emit.PlanRow{
			Collection:     pbcid,
			AuditedSoFar:   audited,
			NextIncrement:  increment,
			EstimatedTotal: estimated,
		})
	}
	return rows
}

// collectionGrows reports whether any open active contest may have
// ballots in the collection.
func collectionGrows(e *election.Election, col *election.Collection) bool {
	for _, cid := range col.Contests {
		c, ok := e.Contests[cid]
		if !ok {
			continue
		}
		if c.Audit.Status == election.StatusOpen && c.Audit.Mode == election.ModeActive {
			return true
		}
	}
	return false
}

// estimateTotal projects the total ballots the collection will need. For
// each open active contest with risks from two consecutive stages, the
// ratio of risk reduction extrapolates how many more increments reach the
// contest's limit; the collection serves its slowest contest. Without
// two stages of history the estimate is the next target.
func estimateTotal(e *election.Election, col *election.Collection, audited, n int, current, prior map[string]float64) int {
	rate := col.MaxAuditRate
	maxMore := (n - audited + rate - 1) / rate
	if maxMore < 1 {
		maxMore = 1
	}

	more := 1
	for _, cid := range col.Contests {
		c, ok := e.Contests[cid]
		if !ok || c.Audit.Status != election.StatusOpen || c.Audit.Mode != election.ModeActive {
			continue
		}
		needed := 1
		r2, ok2 := current[cid]
		r1, ok1 := prior[cid]
		if ok1 && ok2 {
			needed = stagesToLimit(c.Audit.RiskLimit, r1, r2, maxMore)
		}
		if needed > more {
			more = needed
		}
	}
	total := audited + more*rate
	if total > n {
		total = n
	}
	return total
}

// stagesToLimit projects how many more stages reach the risk limit when
// the risk keeps shrinking by the ratio of the last two measurements, r1
// then r2. A risk that is not shrinking projects to maxMore.
func stagesToLimit(limit, r1, r2 float64, maxMore int) int {
	if r2 <= limit {
		return 1
	}
	if limit <= 0 || r1 <= 0 || r2 >= r1 {
		return maxMore
	}
	need := math.Log(limit/r2) / math.Log(r2/r1)
	more := int(math.Ceil(need))
	if more < 1 {
		more = 1
	}
	if more > maxMore {
		more = maxMore
	}
	return more
}
