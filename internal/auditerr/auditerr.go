// Package auditerr defines the error kinds the audit engine reports and the
// helpers used to build, wrap, and classify them.
//
// Every fatal condition the engine can hit maps to exactly one Kind. Errors
// carry the offending file path and row when known so operators can fix the
// input without reading code. Callers match kinds with IsKind or errors.As
// and may still wrap with fmt.Errorf("%w", ...) for extra call-site context.
package auditerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a class of fatal audit failure.
type Kind string

const (
	// ModelConsistency reports structure, contests, collections, and CVRs
	// that disagree with one another.
	ModelConsistency Kind = "ModelConsistency"
	// UnknownSelection reports a vote using a selection id that is neither
	// declared for the contest nor a permitted write-in.
	UnknownSelection Kind = "UnknownSelection"
	// ManifestArithmetic reports a ballot manifest whose expanded row counts
	// do not add up.
	ManifestArithmetic Kind = "ManifestArithmetic"
	// OutOfOrderSample reports an audited-votes transcript that skips an
	// entry of the collection's sampling order.
	OutOfOrderSample Kind = "OutOfOrderSample"
	// MissingInput reports a required versioned file that is absent.
	MissingInput Kind = "MissingInput"
	// ParameterOutOfRange reports an audit parameter outside its legal range.
	ParameterOutOfRange Kind = "ParameterOutOfRange"
	// SeedInvalid reports an audit seed that is not a decimal string of at
	// least twenty digits.
	SeedInvalid Kind = "SeedInvalid"
	// FileIntegrity reports two distinct input paths hashing to identical
	// content, which indicates a duplicated upload.
	FileIntegrity Kind = "FileIntegrity"
)

// Error is a fatal audit failure tied, when possible, to a specific input
// file and row.
type Error struct {
	Kind   Kind
	Path   string
	Row    int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Path != "" {
		b.WriteString(": ")
		b.WriteString(e.Path)
		if e.Row > 0 {
			fmt.Fprintf(&b, " row %d", e.Row)
		}
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind with a formatted detail message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// At builds an Error pinned to a file path and 1-based row number. Row 0
// means the location within the file is unknown.
func At(kind Kind, path string, row int, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Row: row, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and detail to an underlying error, preserving the
// cause for errors.Is/As chains.
func Wrap(kind Kind, path string, detail string, err error) *Error {
	return &Error{Kind: kind, Path: path, Detail: detail, Err: err}
}

// IsKind reports whether err or anything it wraps is an audit Error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// KindOf returns the audit kind carried by err, or the empty Kind when err
// is not an audit Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
