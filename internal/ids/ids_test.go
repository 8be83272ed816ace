package ids

import "testing"

func TestReduce(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  Denver  County ", "Denver County"},
		{"Mayor\tof\n Springfield", "Mayor of Springfield"},
		{"plain", "plain"},
		{"  ", ""},
		{"tab\x00null", "tabnull"},
	}
	for _, tc := range cases {
		if got := Reduce(tc.in); got != tc.want {
			t.Errorf("Reduce(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestReduceIdempotent(t *testing.T) {
	inputs := []string{"  a   b  ", "x\ty", "Denver County", ""}
	for _, in := range inputs {
		once := Reduce(in)
		if twice := Reduce(once); twice != once {
			t.Errorf("Reduce not idempotent on %q: %q then %q", in, once, twice)
		}
	}
}

func TestFileSafe(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"DEN-A01", "DEN-A01"},
		{"Box 12/3", "Box123"},
		{"+José", "+Jos"},
		{"a_b.c+d-e", "a_b.c+d-e"},
	}
	for _, tc := range cases {
		if got := FileSafe(tc.in); got != tc.want {
			t.Errorf("FileSafe(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if again := FileSafe(tc.want); again != tc.want {
			t.Errorf("FileSafe not idempotent on %q", tc.want)
		}
	}
}

func TestCheckID(t *testing.T) {
	if err := CheckID("Mayor"); err != nil {
		t.Fatalf("CheckID(Mayor): %v", err)
	}
	if err := CheckID("a,b"); err == nil {
		t.Fatal("CheckID accepted an embedded comma")
	}
}

func TestParseVoteCanonicalizes(t *testing.T) {
	a := ParseVote([]string{" Banana ", "Apple", "", ""})
	b := ParseVote([]string{"Apple", "Banana"})
	if !a.Equal(b) {
		t.Fatalf("votes differ: %v vs %v", a, b)
	}
	if a.Key() != "Apple,Banana" {
		t.Fatalf("Key = %q", a.Key())
	}
}

func TestParseVotePermutationInvariant(t *testing.T) {
	perms := [][]string{
		{"x", "y", "z"},
		{"z", "x", "y"},
		{"y", "z", " x "},
	}
	want := ParseVote(perms[0]).Key()
	for _, p := range perms[1:] {
		if got := ParseVote(p).Key(); got != want {
			t.Errorf("ParseVote(%v).Key() = %q, want %q", p, got, want)
		}
	}
}

func TestParseVoteDeduplicates(t *testing.T) {
	v := ParseVote([]string{"A", "A", "B"})
	if len(v) != 2 || v.Key() != "A,B" {
		t.Fatalf("dedup failed: %v", v)
	}
}

func TestParseVoteUndervote(t *testing.T) {
	v := ParseVote([]string{"", "  ", ""})
	if !v.IsUndervote() || v.Key() != "" {
		t.Fatalf("blank fields should make an undervote, got %v", v)
	}
}

func TestParseVoteDropsBlanksAnywhere(t *testing.T) {
	for _, fields := range [][]string{{"", "A"}, {"A", ""}, {" ", "A", ""}} {
		v := ParseVote(fields)
		if len(v) != 1 || v[0] != "A" {
			t.Fatalf("ParseVote(%q) = %v, want [A]", fields, v)
		}
	}
}

func TestSelectionPredicates(t *testing.T) {
	if !IsWriteIn("+Lizard People") || IsWriteIn("Alice") {
		t.Fatal("IsWriteIn misclassified")
	}
	if !IsSpecial(SelUndervote) || IsSpecial("Bob") {
		t.Fatal("IsSpecial misclassified")
	}
}

func TestVoteFromKeyRoundTrip(t *testing.T) {
	for _, v := range []Vote{nil, NewVote("Alice"), NewVote("Alice", "Bob")} {
		got := VoteFromKey(v.Key())
		if !got.Equal(v) {
			t.Fatalf("VoteFromKey(%q) = %v, want %v", v.Key(), got, v)
		}
	}
}
