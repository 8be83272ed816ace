package main

import (
	"testing"
)

func TestSynthCommandWritesScenario(t *testing.T) {
	dir := t.TempDir()
	cfgPath := testConfigPath(t)

	out, _, err := runCLI(t, cfgPath, "synth", dir, "--scenario", "crosscounty", "--scale", "500")
	if err != nil {
		t.Fatalf("synth: %v", err)
	}
	requireContains(t, out, "5 contests, 3 collections")
	requireContains(t, out, "600 ballots")

	out, _, err = runCLI(t, cfgPath, "read-seed", dir)
	if err != nil {
		t.Fatalf("read-seed on synthetic directory: %v", err)
	}
	requireContains(t, out, "Seed: 13456201235197891138")
}

func TestSynthCommandSeedOverride(t *testing.T) {
	dir := t.TempDir()
	cfgPath := testConfigPath(t)

	if _, _, err := runCLI(t, cfgPath, "synth", dir, "--seed", "123123"); err == nil {
		t.Fatal("expected a short seed to be rejected")
	}

	if _, _, err := runCLI(t, cfgPath, "synth", dir, "--seed", "42424242424242424242"); err != nil {
		t.Fatalf("synth: %v", err)
	}
	out, _, err := runCLI(t, cfgPath, "read-seed", dir)
	if err != nil {
		t.Fatalf("read-seed: %v", err)
	}
	requireContains(t, out, "Seed: 42424242424242424242")
}

func TestSynthCommandRejectsUnknownScenario(t *testing.T) {
	cfgPath := testConfigPath(t)
	_, _, err := runCLI(t, cfgPath, "synth", t.TempDir(), "--scenario", "recount")
	if err == nil {
		t.Fatal("expected an unknown scenario to fail")
	}
	requireContains(t, err.Error(), "unknown scenario")
}
