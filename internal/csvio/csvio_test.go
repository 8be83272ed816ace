package csvio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadTableFixedAndTail(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "12-contests.csv",
		"Contest id,Contest type,Winners,Write-ins,selection_1,selection_2,selection_3\n"+
			"Mayor,Plurality,1,No,Alice,Bob,\n"+
			"Clerk,Plurality,1,Arbitrary,Yes,No,Maybe\n")

	spec := Spec{Fixed: []string{"Contest id", "Contest type", "Winners", "Write-ins"}, Tail: "selection"}
	table, err := ReadTable(path, spec, Retry{})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	first := table.Rows[0]
	if first.Get("Contest id") != "Mayor" || first.Get("winners") != "1" {
		t.Fatalf("fixed column lookup failed: %+v", first)
	}
	if len(first.Tail) != 3 || first.Tail[0] != "Alice" || first.Tail[2] != "" {
		t.Fatalf("tail = %v", first.Tail)
	}
	if first.Line != 2 || table.Rows[1].Line != 3 {
		t.Fatalf("line numbers = %d, %d", first.Line, table.Rows[1].Line)
	}
}

func TestReadTableHeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.csv", "Collection,Manager\nDEN,alice@example.gov\n")
	_, err := ReadTable(path, Spec{Fixed: []string{"Collection", "Contact"}}, Retry{})
	if err == nil || !strings.Contains(err.Error(), `expected "Contact"`) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadTableMissingHeader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.csv", "")
	_, err := ReadTable(path, Spec{Fixed: []string{"A"}}, Retry{})
	if err == nil || !strings.Contains(err.Error(), "missing header") {
		t.Fatalf("err = %v", err)
	}
}

func TestReadTableRejectsExtraColumnsWithoutTail(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "extra.csv", "A,B,C\n1,2,3\n")
	_, err := ReadTable(path, Spec{Fixed: []string{"A", "B"}}, Retry{})
	if err == nil || !strings.Contains(err.Error(), "extra header") {
		t.Fatalf("err = %v", err)
	}
}

func TestReadTableSkipsBlankRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "blank.csv", "A,B\n1,2\n,\n3,4\n")
	table, err := ReadTable(path, Spec{Fixed: []string{"A", "B"}}, Retry{})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want blank row skipped", len(table.Rows))
	}
}

func TestReadTableShortRow(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "short.csv", "A,B,C\nonly\n")
	table, err := ReadTable(path, Spec{Fixed: []string{"A", "B", "C"}}, Retry{})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	row := table.Rows[0]
	if row.Get("A") != "only" || row.Get("B") != "" || row.Get("C") != "" {
		t.Fatalf("short row handling: %+v", row)
	}
}

func TestReadTableMissingFile(t *testing.T) {
	_, err := ReadTable(filepath.Join(t.TempDir(), "nope.csv"), Spec{Fixed: []string{"A"}}, Retry{Attempts: 3})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEncodeTableRoundTrip(t *testing.T) {
	header := []string{"Collection", "Ballot id", "Selections"}
	data, err := EncodeTable(header, [][]string{
		{"DEN", "B-1", "Alice"},
		{"DEN", "B-2", "write, in", "+Zed"},
	})
	if err != nil {
		t.Fatalf("EncodeTable: %v", err)
	}
	dir := t.TempDir()
	path := writeFile(t, dir, "rt.csv", string(data))
	table, err := ReadTable(path, Spec{Fixed: []string{"Collection", "Ballot id"}, Tail: "selections"}, Retry{})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if table.Rows[1].Tail[0] != "write, in" || table.Rows[1].Tail[1] != "+Zed" {
		t.Fatalf("quoted field lost: %v", table.Rows[1].Tail)
	}
	if !strings.HasPrefix(string(data), "Collection,Ballot id,Selections\n") {
		t.Fatalf("header = %q", string(data))
	}
}
