package election

import (
	"sort"

	"ballotproof/internal/ids"
)

// CreditVote returns the selection ids a vote contributes to, or nil for
// votes that credit nothing (undervotes, overvotes, specials, invalid
// write-ins). Unknown selections surface as errors so callers never count
// ballots the model cannot explain.
func (c *Contest) CreditVote(v ids.Vote) ([]string, error) {
	class, err := c.ClassifyVote(v)
	if err != nil {
		return nil, err
	}
	if class != ClassValid {
		return nil, nil
	}
	return v, nil
}

// PluralityWinners applies the plurality outcome rule to per-selection
// credit counts: the top-w selection ids by count win, ties broken
// lexicographically by reduced selection id. Declared selections with no
// credit still compete at zero so the result is always w ids when the
// contest declares that many.
func (c *Contest) PluralityWinners(credit map[string]int) ids.Vote {
	counts := make(map[string]int, len(c.Selections)+len(credit))
	for _, selid := range c.Selections {
		if ids.IsSpecial(selid) {
			continue
		}
		counts[selid] = 0
	}
	for selid, n := range credit {
		if ids.IsSpecial(selid) {
			continue
		}
		counts[selid] += n
	}

	ranked := make([]string, 0, len(counts))
	for selid := range counts {
		ranked = append(ranked, selid)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	w := c.Winners
	if w > len(ranked) {
		w = len(ranked)
	}
	return ids.NewVote(ranked[:w]...)
}
