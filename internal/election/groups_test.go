package election

import (
	"testing"

	"ballotproof/internal/auditerr"
)

func groupElection() *Election {
	e := New()
	for _, cid := range []string{"I", "C1", "C2", "C3", "F23"} {
		e.Contests[cid] = &Contest{ID: cid, Type: "Plurality", Winners: 1, Selections: []string{"0", "1"}}
		e.ContestIDs = append(e.ContestIDs, cid)
	}
	e.Groups["County"] = []string{"C1", "C2", "C3"}
	e.Groups["Federal"] = []string{"I", "F23"}
	e.Groups["All"] = []string{"County", "Federal"}
	e.GroupIDs = []string{"All", "County", "Federal"}
	return e
}

func TestExpandContestRefsDirectAndGrouped(t *testing.T) {
	e := groupElection()
	got, err := e.ExpandContestRefs([]string{"All"})
	if err != nil {
		t.Fatalf("ExpandContestRefs: %v", err)
	}
	want := []string{"C1", "C2", "C3", "F23", "I"}
	if len(got) != len(want) {
		t.Fatalf("expanded = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expanded = %v, want %v", got, want)
		}
	}
}

func TestExpandContestRefsMixedAndDeduplicated(t *testing.T) {
	e := groupElection()
	got, err := e.ExpandContestRefs([]string{"County", "C1", "I"})
	if err != nil {
		t.Fatalf("ExpandContestRefs: %v", err)
	}
	want := []string{"C1", "C2", "C3", "I"}
	if len(got) != len(want) {
		t.Fatalf("expanded = %v, want %v", got, want)
	}
}

func TestExpandContestRefsCycleTolerated(t *testing.T) {
	e := groupElection()
	e.Groups["Loop"] = []string{"C1", "Loop2"}
	e.Groups["Loop2"] = []string{"Loop", "C2"}
	got, err := e.ExpandContestRefs([]string{"Loop"})
	if err != nil {
		t.Fatalf("cycle should expand, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expanded = %v, want C1 and C2", got)
	}
}

func TestExpandContestRefsUnknown(t *testing.T) {
	e := groupElection()
	_, err := e.ExpandContestRefs([]string{"Municipal"})
	if !auditerr.IsKind(err, auditerr.ModelConsistency) {
		t.Fatalf("err = %v, want ModelConsistency", err)
	}
}
