// Package sampler derives the public ballot sampling orders.
//
// Each collection gets a full permutation of its manifest, computed once
// from the audit seed in the collection's own PRNG domain. Because the
// whole permutation is fixed up front, the ballots any stage asks for are
// always a prefix of one published order, and appending later stages can
// never reshuffle what collection managers have already pulled.
package sampler

import (
	"ballotproof/internal/election"
	"ballotproof/internal/prng"
)

// Order returns the sampling order for one collection: the manifest entries
// permuted by a Fisher-Yates shuffle driven by the seeded generator in
// domain pbcid. The result depends only on the seed, the collection id, and
// the manifest's file order.
func Order(seed, pbcid string, entries []election.ManifestEntry) []election.ManifestEntry {
	out := make([]election.ManifestEntry, len(entries))
	copy(out, entries)
	g := prng.New(seed, pbcid)
	for i := int64(len(out)) - 1; i >= 1; i-- {
		j := g.UniformInt(0, i)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Orders computes the sampling order of every declared collection.
func Orders(e *election.Election) map[string][]election.ManifestEntry {
	out := make(map[string][]election.ManifestEntry, len(e.CollectionIDs))
	for _, pbcid := range e.CollectionIDs {
		out[pbcid] = Order(e.Seed, pbcid, e.Manifests[pbcid])
	}
	return out
}
