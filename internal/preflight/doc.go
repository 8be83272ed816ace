// Package preflight validates the runtime environment before a stage runs.
//
// Checks cover the election directory tree, free disk space for stage
// artifacts, and the journal database when journaling is enabled. Each
// check returns a Result rather than an error so callers can render the
// whole list and then decide whether to proceed.
package preflight
