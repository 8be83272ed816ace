package election

import (
	"testing"

	"ballotproof/internal/auditerr"
	"ballotproof/internal/ids"
)

func TestClassifyVote(t *testing.T) {
	c := &Contest{
		ID:         "Board",
		Type:       "Plurality",
		Winners:    2,
		WriteIns:   WriteInsQualified,
		Selections: []string{"Alice", "Bob", "Carol", "+Dan"},
	}
	cases := []struct {
		name string
		vote ids.Vote
		want VoteClass
	}{
		{"single valid", ids.NewVote("Alice"), ClassValid},
		{"full slate", ids.NewVote("Alice", "Bob"), ClassValid},
		{"qualified write-in", ids.NewVote("+Dan"), ClassValid},
		{"empty undervote", nil, ClassUndervote},
		{"overvote", ids.NewVote("Alice", "Bob", "Carol"), ClassOvervote},
		{"unqualified write-in", ids.NewVote("+Eve"), ClassInvalidWriteIn},
		{"special sentinel", ids.NewVote(ids.SelInvalid), ClassSpecial},
		{"special beats overvote", ids.NewVote("Alice", "Bob", "Carol", ids.SelNoRecord), ClassSpecial},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.ClassifyVote(tc.vote)
			if err != nil {
				t.Fatalf("ClassifyVote(%v): %v", tc.vote, err)
			}
			if got != tc.want {
				t.Fatalf("ClassifyVote(%v) = %v, want %v", tc.vote, got, tc.want)
			}
		})
	}
}

func TestClassifyVoteWriteInPolicies(t *testing.T) {
	vote := ids.NewVote("+Eve")
	for _, tc := range []struct {
		policy WriteInPolicy
		want   VoteClass
	}{
		{WriteInsNone, ClassInvalidWriteIn},
		{WriteInsQualified, ClassInvalidWriteIn},
		{WriteInsArbitrary, ClassValid},
	} {
		c := &Contest{ID: "Q", Winners: 1, WriteIns: tc.policy, Selections: []string{"Yes", "No"}}
		got, err := c.ClassifyVote(vote)
		if err != nil {
			t.Fatalf("policy %v: %v", tc.policy, err)
		}
		if got != tc.want {
			t.Fatalf("policy %v: class = %v, want %v", tc.policy, got, tc.want)
		}
	}
}

func TestClassifyVoteUnknownSelection(t *testing.T) {
	c := &Contest{ID: "Q", Winners: 1, Selections: []string{"Yes", "No"}}
	_, err := c.ClassifyVote(ids.NewVote("Maybe"))
	if !auditerr.IsKind(err, auditerr.UnknownSelection) {
		t.Fatalf("err = %v, want UnknownSelection", err)
	}
	// The same undeclared id dominates an otherwise countable overvote.
	_, err = c.ClassifyVote(ids.NewVote("Yes", "No", "Maybe"))
	if !auditerr.IsKind(err, auditerr.UnknownSelection) {
		t.Fatalf("err = %v, want UnknownSelection", err)
	}
}
