package main

import (
	"testing"

	"ballotproof/internal/synth"
	"ballotproof/internal/testsupport"
)

func TestReadCommandsOnSyntheticDirectory(t *testing.T) {
	s, dir := testsupport.WriteScenario(t, synth.Landslide())
	cfgPath := testConfigPath(t)

	out, _, err := runCLI(t, cfgPath, "read-structure", dir)
	if err != nil {
		t.Fatalf("read-structure: %v", err)
	}
	requireContains(t, out, "Election: Landslide")
	requireContains(t, out, "Contest id")
	requireContains(t, out, "Collection id")

	out, _, err = runCLI(t, cfgPath, "read-seed", dir)
	if err != nil {
		t.Fatalf("read-seed: %v", err)
	}
	requireContains(t, out, "Seed: 13456201235197891138")

	out, _, err = runCLI(t, cfgPath, "read-reported", dir)
	if err != nil {
		t.Fatalf("read-reported: %v", err)
	}
	requireContains(t, out, "10,000")
	requireContains(t, out, "C: 1")

	out, _, err = runCLI(t, cfgPath, "read-audited", dir)
	if err != nil {
		t.Fatalf("read-audited before any auditing: %v", err)
	}
	requireContains(t, out, "Total: 0 audited ballots")

	testsupport.WriteAudited(t, s, dir, "001", map[string]int{"J": 25})
	out, _, err = runCLI(t, cfgPath, "read-audited", dir)
	if err != nil {
		t.Fatalf("read-audited: %v", err)
	}
	requireContains(t, out, "J: 25 audited ballots")
}

func TestMakeAuditOrders(t *testing.T) {
	_, dir := testsupport.WriteScenario(t, synth.TallyOnly())
	cfgPath := testConfigPath(t)

	out, _, err := runCLI(t, cfgPath, "make-audit-orders", dir)
	if err != nil {
		t.Fatalf("make-audit-orders: %v", err)
	}
	requireContains(t, out, "J: 10,000 ballots ordered")
	requireContains(t, out, "K: 2,000 ballots ordered")
	requireContains(t, out, "Sampling orders written (2 collections)")

	// Orders are frozen once written; a second run must refuse.
	if _, _, err := runCLI(t, cfgPath, "make-audit-orders", dir); err == nil {
		t.Fatal("expected rewriting frozen sampling orders to fail")
	}
}

func TestReadStructureMissingDirectory(t *testing.T) {
	cfgPath := testConfigPath(t)
	if _, _, err := runCLI(t, cfgPath, "read-structure", t.TempDir()); err == nil {
		t.Fatal("expected an error for a directory without election tables")
	}
}
