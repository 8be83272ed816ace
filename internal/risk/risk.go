// Package risk measures Bayesian upset risk per contest.
//
// For every open contest the estimator runs K Monte-Carlo trials. Each
// trial completes the unaudited remainder of every relevant collection by
// drawing from a Polya urn seeded with the contest pseudocount, the
// sample cross-tab, and (for collections without per-ballot records) the
// reported tallies; it then asks whether the completed election still
// elects the reported winners. The fraction of trials that do not is the
// measured risk.
//
// Trials are split into fixed-size chunks, each with its own
// deterministically derived PRNG stream, so the estimate is byte-for-byte
// reproducible regardless of how many workers run the chunks.
package risk

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"ballotproof/internal/election"
	"ballotproof/internal/ids"
	"ballotproof/internal/logging"
	"ballotproof/internal/prng"
	"ballotproof/internal/tally"
)

// ChunkTrials is the number of Monte-Carlo trials one worker unit runs.
// Every chunk draws from its own PRNG stream, offset far enough that
// streams cannot overlap, which keeps the estimate independent of worker
// scheduling.
const ChunkTrials = 2048

// domainPrefix builds the PRNG domain for one contest's estimator at one
// stage.
func domainPrefix(cid, stage string) string {
	return fmt.Sprintf("risk:%s:%s", cid, stage)
}

// Measurement is one contest's risk estimate for one stage.
type Measurement struct {
	Contest      string
	Risk         float64
	Trials       int
	Failures     int
	SampleSize   int
	StatusBefore election.Status
	StatusAfter  election.Status
}

// Estimator runs the per-contest risk measurements of one stage.
type Estimator struct {
	// Trials is the Monte-Carlo trial count K per contest.
	Trials int
	// Stage is the stage label, part of each contest's PRNG domain.
	Stage string
	// Workers caps concurrent chunks; zero means GOMAXPROCS.
	Workers int
	// ChunkSize overrides ChunkTrials when positive. Chunk boundaries
	// feed the per-chunk PRNG streams, so the estimate is reproducible
	// for a fixed chunk size at any worker count.
	ChunkSize int
	// Log may be nil.
	Log *slog.Logger
}

func (est *Estimator) chunkSize() int {
	if est.ChunkSize > 0 {
		return est.ChunkSize
	}
	return ChunkTrials
}

// Measure estimates the risk of every open Bayes contest and proposes its
// next status: passed when the risk is within the contest's limit, upset
// when it reaches the upset threshold, otherwise still open. Contest
// statuses on e are not modified; Apply folds the results back in.
func (est *Estimator) Measure(ctx context.Context, e *election.Election, s *tally.Sample) ([]Measurement, error) {
	log := est.Log
	if log == nil {
		log = logging.NewNop()
	}
	rn := tally.ReportedStrata(e)

	var out []Measurement
	for _, cid := range e.ContestIDs {
		c := e.Contests[cid]
		if c.Audit.Status != election.StatusOpen || c.Audit.Method != election.MethodBayes {
			continue
		}
		m, err := est.measureContest(ctx, e, s, rn, cid)
		if err != nil {
			return nil, err
		}
		log.Info("risk measured",
			logging.FieldContest, cid,
			logging.FieldStage, est.Stage,
			"risk", m.Risk,
			"failures", m.Failures,
			"trials", m.Trials,
			"status", string(m.StatusAfter))
		out = append(out, m)
	}
	return out, nil
}

// Apply folds measurements into the contest statuses. Statuses move only
// forward: Measure never proposes reopening a terminal contest because it
// never measures one.
func Apply(e *election.Election, ms []Measurement) {
	for _, m := range ms {
		e.Contests[m.Contest].Audit.Status = m.StatusAfter
	}
}

// stratum is one urn of a contest measurement: the unaudited remainder of
// one (collection, reported vote) slice and its posterior weights, indexed
// by category.
type stratum struct {
	unseen  int
	weights []float64
}

func (est *Estimator) measureContest(ctx context.Context, e *election.Election, s *tally.Sample, rn map[string]map[string]map[string]int, cid string) (Measurement, error) {
	c := e.Contests[cid]
	categories := Categories(e, cid, s)
	catIndex := make(map[string]int, len(categories))
	for i, key := range categories {
		catIndex[key] = i
	}

	credits := make([][]string, len(categories))
	for i, key := range categories {
		if key == OtherWriteIn {
			continue
		}
		selids, err := c.CreditVote(ids.VoteFromKey(key))
		if err != nil {
			return Measurement{}, err
		}
		credits[i] = selids
	}

	strata, baseCredit, sampleSize := est.buildStrata(e, s, rn, cid, categories, catIndex, credits)

	trials := est.Trials
	if trials < 1 {
		trials = 1
	}
	size := est.chunkSize()
	chunks := (trials + size - 1) / size
	failures := make([]int, chunks)

	workers := est.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for chunk := 0; chunk < chunks; chunk++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n := size
			if rem := trials - chunk*size; rem < n {
				n = rem
			}
			failures[chunk] = est.runChunk(e, c, chunk, n, strata, baseCredit, credits)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Measurement{}, err
	}

	total := 0
	for _, f := range failures {
		total += f
	}
	risk := float64(total) / float64(trials)

	after := election.StatusOpen
	switch {
	case risk <= c.Audit.RiskLimit:
		after = election.StatusPassed
	case risk >= c.Audit.UpsetThreshold:
		after = election.StatusUpset
	}
	return Measurement{
		Contest:      cid,
		Risk:         risk,
		Trials:       trials,
		Failures:     total,
		SampleSize:   sampleSize,
		StatusBefore: c.Audit.Status,
		StatusAfter:  after,
	}, nil
}

// buildStrata assembles the trial-independent urn weights: one stratum per
// reported vote for CVR collections, one covering stratum for noCVR
// collections, plus the credit counts already earned by observed audited
// ballots.
func (est *Estimator) buildStrata(e *election.Election, s *tally.Sample, rn map[string]map[string]map[string]int, cid string, categories []string, catIndex map[string]int, credits [][]string) ([]stratum, map[string]int, int) {
	c := e.Contests[cid]
	alpha := c.Audit.Pseudocount

	var strata []stratum
	baseCredit := make(map[string]int)
	sampleSize := 0

	for _, pbcid := range e.Rel(cid) {
		p := e.Collections[pbcid]
		observed := s.Counts[cid][pbcid]
		sampleSize += s.Audited[cid][pbcid]

		for akey, count := range flattenObserved(observed) {
			if i, ok := catIndex[akey]; ok {
				for _, selid := range credits[i] {
					baseCredit[selid] += count
				}
			}
		}

		if p.CVRType == election.TypeNoCVR {
			weights := make([]float64, len(categories))
			for i, key := range categories {
				weights[i] = alpha +
					float64(observed[tally.NoCVRVote][key]) +
					e.TallyWeight*float64(e.ReportedTallies[pbcid][cid][key])
			}
			strata = append(strata, stratum{
				unseen:  e.Size(pbcid) - s.Audited[cid][pbcid],
				weights: weights,
			})
			continue
		}

		rkeys := make([]string, 0, len(rn[cid][pbcid]))
		for rkey := range rn[cid][pbcid] {
			rkeys = append(rkeys, rkey)
		}
		sort.Strings(rkeys)
		for _, rkey := range rkeys {
			sampled := 0
			for _, n := range observed[rkey] {
				sampled += n
			}
			unseen := rn[cid][pbcid][rkey] - sampled
			if unseen <= 0 {
				continue
			}
			weights := make([]float64, len(categories))
			for i, key := range categories {
				weights[i] = alpha + float64(observed[rkey][key])
			}
			strata = append(strata, stratum{unseen: unseen, weights: weights})
		}
	}
	return strata, baseCredit, sampleSize
}

func flattenObserved(byR map[string]map[string]int) map[string]int {
	out := make(map[string]int)
	for _, byA := range byR {
		for akey, n := range byA {
			out[akey] += n
		}
	}
	return out
}

// runChunk runs n trials in the chunk's own PRNG stream and returns how
// many elected a winner set other than the reported one.
func (est *Estimator) runChunk(e *election.Election, c *election.Contest, chunk, n int, strata []stratum, baseCredit map[string]int, credits [][]string) int {
	g := prng.NewAt(e.Seed, domainPrefix(c.ID, est.Stage), uint64(chunk)<<32)
	reported := e.Outcomes[c.ID]

	failures := 0
	credit := make(map[string]int, len(baseCredit)+len(credits))
	for trial := 0; trial < n; trial++ {
		clear(credit)
		for selid, count := range baseCredit {
			credit[selid] = count
		}
		for _, st := range strata {
			counts := drawUrn(g, st.weights, st.unseen)
			for i, drawn := range counts {
				if drawn == 0 {
					continue
				}
				for _, selid := range credits[i] {
					credit[selid] += drawn
				}
			}
		}
		if !c.PluralityWinners(credit).Equal(reported) {
			failures++
		}
	}
	return failures
}
