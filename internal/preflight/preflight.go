package preflight

import (
	"ballotproof/internal/layout"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// DefaultMinFreeDisk is the free-space floor for stage artifacts.
const DefaultMinFreeDisk = 64 << 20

// Options selects which checks RunAll performs.
type Options struct {
	// Dir is the election directory being audited.
	Dir string
	// JournalPath enables the journal check when non-empty.
	JournalPath string
	// MinFreeDisk is in bytes; zero means DefaultMinFreeDisk.
	MinFreeDisk uint64
}

// RunAll executes every applicable check for the given election directory.
func RunAll(opts Options) []Result {
	minFree := opts.MinFreeDisk
	if minFree == 0 {
		minFree = DefaultMinFreeDisk
	}
	results := []Result{
		CheckDirectoryAccess("Election directory", opts.Dir),
		CheckReadableDir("Election spec", layout.SpecDir(opts.Dir)),
		CheckReadableDir("Reported results", layout.ReportedDir(opts.Dir)),
		CheckDiskSpace("Disk space", opts.Dir, minFree),
	}
	if opts.JournalPath != "" {
		results = append(results, CheckJournal("Journal", opts.JournalPath))
	}
	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Failures returns the subset of results that did not pass.
func Failures(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
