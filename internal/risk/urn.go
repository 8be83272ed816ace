package risk

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// drawUrn draws m labels from a Polya urn with the given category weights
// and returns the per-category counts. The urn is sampled through its exact
// equivalence: a category distribution from Dirichlet(weights) via
// normalized Gamma draws, then counts from the induced multinomial via
// conditional binomials.
func drawUrn(src rand.Source, weights []float64, m int) []int {
	counts := make([]int, len(weights))
	if m <= 0 || len(weights) == 0 {
		return counts
	}

	theta := make([]float64, len(weights))
	sum := 0.0
	for i, w := range weights {
		theta[i] = distuv.Gamma{Alpha: w, Beta: 1, Src: src}.Rand()
		sum += theta[i]
	}
	if sum <= 0 {
		// Tiny concentrations can underflow every gamma draw to zero. The
		// Dirichlet then concentrates all mass on one category, chosen with
		// probability proportional to its weight.
		counts[pickByWeight(src, weights)] = m
		return counts
	}

	remaining := m
	rest := sum
	for i := range weights {
		if remaining == 0 {
			break
		}
		if i == len(weights)-1 {
			counts[i] = remaining
			break
		}
		p := theta[i] / rest
		if p >= 1 {
			counts[i] = remaining
			break
		}
		n := 0
		if p > 0 {
			n = int(distuv.Binomial{N: float64(remaining), P: p, Src: src}.Rand())
		}
		counts[i] = n
		remaining -= n
		rest -= theta[i]
	}
	return counts
}

func pickByWeight(src rand.Source, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	u := rand.New(src).Float64() * total
	for i, w := range weights {
		u -= w
		if u < 0 {
			return i
		}
	}
	return len(weights) - 1
}
