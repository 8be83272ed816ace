package election

import (
	"fmt"
	"strings"
)

// ParseWriteInPolicy maps the contests-table column values No, Qualified,
// and Arbitrary.
func ParseWriteInPolicy(s string) (WriteInPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "no", "none", "":
		return WriteInsNone, nil
	case "qualified":
		return WriteInsQualified, nil
	case "arbitrary":
		return WriteInsArbitrary, nil
	default:
		return WriteInsNone, fmt.Errorf("unknown write-ins policy %q", s)
	}
}

// ParseCVRType maps the collections-table column values CVR and noCVR.
func ParseCVRType(s string) (CVRType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cvr":
		return TypeCVR, nil
	case "nocvr":
		return TypeNoCVR, nil
	default:
		return "", fmt.Errorf("unknown CVR type %q", s)
	}
}

// ParseMethod maps the risk measurement method column. Only Bayes is
// accepted; the column exists so other methods can be added without a format
// change.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bayes", "":
		return MethodBayes, nil
	default:
		return "", fmt.Errorf("unsupported risk measurement method %q", s)
	}
}

// ParseSamplingMode maps the sampling mode column values Active and
// Opportunistic.
func ParseSamplingMode(s string) (SamplingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "":
		return ModeActive, nil
	case "opportunistic":
		return ModeOpportunistic, nil
	default:
		return "", fmt.Errorf("unknown sampling mode %q", s)
	}
}

// ParseStatus maps the contest status column values.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open", "":
		return StatusOpen, nil
	case "passed":
		return StatusPassed, nil
	case "upset":
		return StatusUpset, nil
	case "off":
		return StatusOff, nil
	default:
		return "", fmt.Errorf("unknown contest status %q", s)
	}
}
