package sampler

import (
	"testing"

	"ballotproof/internal/election"
)

const testSeed = "13456201235197891138"

func manifestOf(n int) []election.ManifestEntry {
	entries := make([]election.ManifestEntry, 0, n)
	for _, bid := range election.CountOn("B-0001", n) {
		entries = append(entries, election.ManifestEntry{Box: "1", BID: bid})
	}
	return entries
}

func TestOrderIsPermutation(t *testing.T) {
	entries := manifestOf(50)
	order := Order(testSeed, "DEN-A01", entries)
	if len(order) != len(entries) {
		t.Fatalf("order length %d, manifest %d", len(order), len(entries))
	}
	seen := make(map[string]bool, len(order))
	for _, entry := range order {
		if seen[entry.BID] {
			t.Fatalf("ballot %q appears twice", entry.BID)
		}
		seen[entry.BID] = true
	}
	for _, entry := range entries {
		if !seen[entry.BID] {
			t.Fatalf("ballot %q missing from the order", entry.BID)
		}
	}
}

func TestOrderDeterministic(t *testing.T) {
	entries := manifestOf(30)
	a := Order(testSeed, "DEN-A01", entries)
	b := Order(testSeed, "DEN-A01", entries)
	for i := range a {
		if a[i].BID != b[i].BID {
			t.Fatalf("position %d differs between identical runs", i+1)
		}
	}
}

func TestOrderSeedAndCollectionSensitivity(t *testing.T) {
	entries := manifestOf(30)
	base := Order(testSeed, "DEN-A01", entries)
	otherSeed := Order("98765432109876543210", "DEN-A01", entries)
	otherColl := Order(testSeed, "LOG-B13", entries)

	same := func(o []election.ManifestEntry) bool {
		for i := range base {
			if base[i].BID != o[i].BID {
				return false
			}
		}
		return true
	}
	if same(otherSeed) {
		t.Fatal("changing the seed left the order unchanged")
	}
	if same(otherColl) {
		t.Fatal("changing the collection domain left the order unchanged")
	}
}

func TestOrderInputUntouched(t *testing.T) {
	entries := manifestOf(10)
	before := make([]string, len(entries))
	for i, entry := range entries {
		before[i] = entry.BID
	}
	Order(testSeed, "DEN-A01", entries)
	for i, entry := range entries {
		if entry.BID != before[i] {
			t.Fatal("Order reordered the caller's manifest slice")
		}
	}
}

func TestOrdersCoverEveryCollection(t *testing.T) {
	e := election.New()
	e.Seed = testSeed
	for _, pbcid := range []string{"DEN", "LOG"} {
		e.Collections[pbcid] = &election.Collection{ID: pbcid}
		e.CollectionIDs = append(e.CollectionIDs, pbcid)
		e.Manifests[pbcid] = manifestOf(12)
	}
	orders := Orders(e)
	if len(orders) != 2 || len(orders["DEN"]) != 12 || len(orders["LOG"]) != 12 {
		t.Fatalf("orders incomplete: %d collections", len(orders))
	}
}
