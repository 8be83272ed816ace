package testsupport

import (
	"testing"

	"ballotproof/internal/synth"
)

// MustBuild assembles a synthetic election from spec and fails the test on
// any construction error.
func MustBuild(t testing.TB, spec synth.Spec) *synth.Election {
	t.Helper()

	s, err := synth.Build(spec)
	if err != nil {
		t.Fatalf("synth.Build: %v", err)
	}
	return s
}

// WriteScenario builds the election and lays its input tables down in a
// fresh temp directory, returning the built election and the directory.
func WriteScenario(t testing.TB, spec synth.Spec) (*synth.Election, string) {
	t.Helper()

	s := MustBuild(t, spec)
	dir := t.TempDir()
	if err := s.WriteInputs(dir); err != nil {
		t.Fatalf("synth.WriteInputs: %v", err)
	}
	return s, dir
}

// WriteAudited simulates the audit board over the named ballot counts and
// writes the resulting audited-votes files under the given version label.
func WriteAudited(t testing.TB, s *synth.Election, dir, label string, counts map[string]int) {
	t.Helper()

	if err := s.WriteAudited(dir, label, counts, 0); err != nil {
		t.Fatalf("synth.WriteAudited: %v", err)
	}
}
