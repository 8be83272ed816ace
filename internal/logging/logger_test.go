package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger = WithComponent(logger, "stage")
	logger.Info("risk measured", slog.String(FieldContest, "Mayor"), slog.Float64("risk", 0.0123))

	line := buf.String()
	if !strings.Contains(line, " INFO stage: risk measured") {
		t.Fatalf("line missing level/component/message: %q", line)
	}
	if !strings.Contains(line, "cid=Mayor") || !strings.Contains(line, "risk=0.0123") {
		t.Fatalf("line missing attributes: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should render as prefix, not attribute: %q", line)
	}
}

func TestConsoleHandlerQuotesAwkwardValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("loaded", slog.String("file", "manifest DEN A01.csv"))
	if !strings.Contains(buf.String(), `file="manifest DEN A01.csv"`) {
		t.Fatalf("value with spaces must be quoted: %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud")
	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info line leaked past warn level: %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("orders written", slog.Int("collections", 3))
	out := buf.String()
	if !strings.Contains(out, `"msg":"orders written"`) || !strings.Contains(out, `"collections":3`) {
		t.Fatalf("unexpected json line: %q", out)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNopLoggerIsSafe(t *testing.T) {
	logger := NewNop()
	logger.Error("ignored", slog.String("k", "v"))
	if logger.Enabled(nil, slog.LevelError) {
		t.Fatal("nop logger should report disabled")
	}
}
