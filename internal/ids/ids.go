// Package ids canonicalizes the identifiers and votes that flow through the
// audit: contest, collection, ballot, and selection ids arrive from CSV in
// whatever shape election officials typed them, and every comparison in the
// engine happens on the reduced form.
package ids

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Special selection ids denoting non-choice outcomes. Anything starting with
// "-" is special and can never win a contest.
const (
	SelInvalid   = "-Invalid"
	SelUndervote = "-Undervote"
	SelOvervote  = "-Overvote"
	SelUnknown   = "-Unknown"
	SelAbsent    = "-Absent"
	SelNoRecord  = "-NoRecord"
)

// Reduce canonicalizes an identifier: outer whitespace stripped, internal
// whitespace runs collapsed to a single space, non-printable runes dropped.
// Reduce is idempotent.
func Reduce(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	pendingSpace := false
	for _, r := range strings.TrimSpace(id) {
		if unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		if !unicode.IsPrint(r) {
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// FileSafe strips every rune outside [A-Za-z0-9+-_.] so an identifier can be
// embedded in a filename. FileSafe is idempotent.
func FileSafe(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' || r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CheckID rejects identifiers that would break the comma-joined map keys and
// CSV row forms used throughout the engine.
func CheckID(id string) error {
	if strings.Contains(id, ",") {
		return fmt.Errorf("identifier %q contains a comma", id)
	}
	return nil
}

// IsWriteIn reports whether a selection id names a write-in candidate.
func IsWriteIn(selid string) bool { return strings.HasPrefix(selid, "+") }

// IsSpecial reports whether a selection id is a non-choice outcome such as
// -Invalid or -Undervote.
func IsSpecial(selid string) bool { return strings.HasPrefix(selid, "-") }

// Vote is a canonical vote: the sorted, deduplicated tuple of reduced
// selection ids. The empty vote is an undervote.
type Vote []string

// ParseVote canonicalizes raw CSV selection fields into a Vote. Each field
// is reduced; blank fields are discarded wherever they sit, so padded or
// ragged rows parse alike; the survivors are sorted and deduplicated. The
// result is invariant under permutation of the input fields.
func ParseVote(fields []string) Vote {
	reduced := make([]string, 0, len(fields))
	for _, f := range fields {
		if r := Reduce(f); r != "" {
			reduced = append(reduced, r)
		}
	}
	sort.Strings(reduced)
	vote := reduced[:0]
	for i, s := range reduced {
		if i > 0 && s == reduced[i-1] {
			continue
		}
		vote = append(vote, s)
	}
	return Vote(vote)
}

// NewVote builds a canonical Vote from already-clean selection ids.
func NewVote(selids ...string) Vote {
	return ParseVote(selids)
}

// Key returns the comma-joined form used as a map key and as the CSV row
// form. Identifiers may not contain commas (CheckID), so the key is unique
// per vote.
func (v Vote) Key() string { return strings.Join(v, ",") }

// VoteFromKey reverses Key. The empty key is the undervote.
func VoteFromKey(key string) Vote {
	if key == "" {
		return nil
	}
	return Vote(strings.Split(key, ","))
}

// IsUndervote reports whether the vote selects nothing.
func (v Vote) IsUndervote() bool { return len(v) == 0 }

// Equal reports value equality of two canonical votes.
func (v Vote) Equal(o Vote) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}
