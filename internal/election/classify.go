package election

import (
	"ballotproof/internal/auditerr"
	"ballotproof/internal/ids"
)

// VoteClass is the classification of one canonical vote against a contest.
type VoteClass int

const (
	ClassValid VoteClass = iota
	ClassUndervote
	ClassOvervote
	ClassInvalidWriteIn
	ClassSpecial
)

func (v VoteClass) String() string {
	switch v {
	case ClassValid:
		return "valid"
	case ClassUndervote:
		return "undervote"
	case ClassOvervote:
		return "overvote"
	case ClassInvalidWriteIn:
		return "invalid-writein"
	case ClassSpecial:
		return "special"
	default:
		return "unknown"
	}
}

// ClassifyVote grades a canonical vote for the contest. The empty vote is an
// undervote; a vote larger than the number of winners is an overvote; any
// special selection makes the whole vote special; write-ins are graded
// against the contest policy. A regular selection the contest never
// declared is an UnknownSelection error, not a class: the input is broken,
// not merely invalid.
func (c *Contest) ClassifyVote(v ids.Vote) (VoteClass, error) {
	if len(v) == 0 {
		return ClassUndervote, nil
	}
	for _, selid := range v {
		if ids.IsSpecial(selid) {
			return ClassSpecial, nil
		}
	}
	for _, selid := range v {
		if ids.IsWriteIn(selid) {
			switch c.WriteIns {
			case WriteInsNone:
				return ClassInvalidWriteIn, nil
			case WriteInsQualified:
				if !c.HasSelection(selid) {
					return ClassInvalidWriteIn, nil
				}
			}
			continue
		}
		if !c.HasSelection(selid) {
			return 0, auditerr.New(auditerr.UnknownSelection,
				"contest %q has no selection %q", c.ID, selid)
		}
	}
	if len(v) > c.Winners {
		return ClassOvervote, nil
	}
	return ClassValid, nil
}
