// Package csvio reads and encodes the CSV tables of the audit file formats.
//
// Every table has a required header row: a fixed set of leading columns,
// optionally followed by a variable-length tail column (for example
// "Selections") whose values are collected per row in order, however many
// fields a row carries. Rows keep their 1-based line numbers so errors can
// point at the offending input. Reads retry transient failures a bounded
// number of times; a missing file is never retried.
package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"ballotproof/internal/ids"
)

// Spec describes the expected shape of a table.
type Spec struct {
	// Fixed lists the required leading header names, matched after
	// reduction, case-insensitively.
	Fixed []string
	// Tail names the variable-length column family; empty means the table
	// has exactly the fixed columns.
	Tail string
}

// Row is one data row of a table.
type Row struct {
	// Line is the 1-based line number the row started on.
	Line  int
	fixed map[string]string
	Tail  []string
}

// Get returns the trimmed value of a fixed column.
func (r Row) Get(name string) string {
	return strings.TrimSpace(r.fixed[strings.ToLower(name)])
}

// Table is a parsed CSV file.
type Table struct {
	Path string
	Rows []Row
}

// Retry bounds how transient read failures are re-attempted. The zero value
// means a single attempt.
type Retry struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetry is the policy loaders use unless configured otherwise.
var DefaultRetry = Retry{Attempts: 3, Backoff: 100 * time.Millisecond}

// ReadTable parses the file at path against spec. The header row is
// mandatory; fixed headers must match spec.Fixed in order. Data rows may
// carry fewer fields than the header (missing fixed values read as empty)
// or more (extras join the tail).
func ReadTable(path string, spec Spec, retry Retry) (*Table, error) {
	data, err := readFileRetry(path, retry)
	if err != nil {
		return nil, err
	}
	return parseTable(path, data, spec)
}

// ReadFile reads a raw file under the same retry policy table reads use.
func ReadFile(path string, retry Retry) ([]byte, error) {
	return readFileRetry(path, retry)
}

func readFileRetry(path string, retry Retry) ([]byte, error) {
	attempts := retry.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		lastErr = err
		if i+1 < attempts && retry.Backoff > 0 {
			time.Sleep(retry.Backoff)
		}
	}
	return nil, fmt.Errorf("read %s after %d attempts: %w", path, attempts, lastErr)
}

func parseTable(path string, data []byte, spec Spec) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: header: %w", path, err)
	}
	if err := checkHeader(path, header, spec); err != nil {
		return nil, err
	}

	table := &Table{Path: path}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if blankRecord(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		row := Row{Line: line, fixed: make(map[string]string, len(spec.Fixed))}
		for i, name := range spec.Fixed {
			if i < len(record) {
				row.fixed[strings.ToLower(name)] = record[i]
			}
		}
		if len(record) > len(spec.Fixed) {
			row.Tail = append(row.Tail, record[len(spec.Fixed):]...)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func checkHeader(path string, header []string, spec Spec) error {
	if len(header) < len(spec.Fixed) {
		return fmt.Errorf("%s: header has %d columns, expected at least %d (%s)",
			path, len(header), len(spec.Fixed), strings.Join(spec.Fixed, ", "))
	}
	for i, want := range spec.Fixed {
		got := ids.Reduce(header[i])
		if !strings.EqualFold(got, want) {
			return fmt.Errorf("%s: header column %d is %q, expected %q", path, i+1, got, want)
		}
	}
	if spec.Tail == "" && len(header) > len(spec.Fixed) {
		return fmt.Errorf("%s: unexpected extra header column %q", path, header[len(spec.Fixed)])
	}
	return nil
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// EncodeTable renders a header and rows as CSV bytes (LF line endings,
// minimal quoting). Rows may be ragged when the table has a tail family.
func EncodeTable(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
