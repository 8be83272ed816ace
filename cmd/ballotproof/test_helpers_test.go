package main

import (
	"bytes"
	"strings"
	"testing"

	"ballotproof/internal/testsupport"
)

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func testConfigPath(t *testing.T, opts ...testsupport.ConfigOption) string {
	t.Helper()
	return testsupport.WriteConfig(t, testsupport.NewConfig(t, opts...))
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
