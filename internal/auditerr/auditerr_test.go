package auditerr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestErrorMessageIncludesLocation(t *testing.T) {
	err := At(UnknownSelection, "22-reported-cvrs/reported-cvrs-DEN.csv", 14, "contest %q has no selection %q", "Mayor", "Zeb")
	got := err.Error()
	want := `UnknownSelection: 22-reported-cvrs/reported-cvrs-DEN.csv row 14: contest "Mayor" has no selection "Zeb"`
	if got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
}

func TestErrorMessageWithoutPath(t *testing.T) {
	err := New(SeedInvalid, "seed has %d digits, need at least 20", 9)
	if got := err.Error(); got != "SeedInvalid: seed has 9 digits, need at least 20" {
		t.Fatalf("message = %q", got)
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	base := At(OutOfOrderSample, "audited-votes-J.csv", 3, "ballot %q precedes unaudited order entries", "B-17")
	wrapped := fmt.Errorf("stage 002: %w", base)
	if !IsKind(wrapped, OutOfOrderSample) {
		t.Fatalf("IsKind(OutOfOrderSample) = false for wrapped error")
	}
	if IsKind(wrapped, MissingInput) {
		t.Fatalf("IsKind matched the wrong kind")
	}
	if got := KindOf(wrapped); got != OutOfOrderSample {
		t.Fatalf("KindOf = %q, want %q", got, OutOfOrderSample)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fs.ErrNotExist
	err := Wrap(MissingInput, "3-audit/31-audit-spec", "no audit seed file", cause)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("wrapped cause lost: %v", err)
	}
	if !IsKind(err, MissingInput) {
		t.Fatalf("kind lost after wrapping: %v", err)
	}
}

func TestKindOfForeignError(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != "" {
		t.Fatalf("KindOf(plain error) = %q, want empty", got)
	}
}
