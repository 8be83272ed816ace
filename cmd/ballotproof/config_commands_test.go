package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndShow(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected a second init without --overwrite to fail")
	}

	out, _, err = runCLI(t, target, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "Config path: "+target)
	requireContains(t, out, "trial_chunk")
}

func TestConfigShowSurfacesInvalidFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("[log]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, err := runCLI(t, target, "config", "show")
	if err == nil {
		t.Fatal("expected an invalid log level to fail validation")
	}
}
