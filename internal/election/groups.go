package election

import (
	"sort"

	"ballotproof/internal/auditerr"
)

// ExpandContestRefs resolves a collection's raw contest references into the
// sorted set of contest ids they reach. A reference naming a declared
// contest resolves to itself; one naming a contest group resolves to every
// contest reachable through group membership, cycles tolerated.
func (e *Election) ExpandContestRefs(refs []string) ([]string, error) {
	found := make(map[string]bool)
	for _, ref := range refs {
		if err := e.expandRef(ref, found, make(map[string]bool)); err != nil {
			return nil, err
		}
	}
	out := make([]string, 0, len(found))
	for cid := range found {
		out = append(out, cid)
	}
	sort.Strings(out)
	return out, nil
}

func (e *Election) expandRef(ref string, found, visiting map[string]bool) error {
	if _, ok := e.Contests[ref]; ok {
		found[ref] = true
		return nil
	}
	members, ok := e.Groups[ref]
	if !ok {
		return auditerr.New(auditerr.ModelConsistency,
			"reference %q names neither a contest nor a contest group", ref)
	}
	if visiting[ref] {
		return nil
	}
	visiting[ref] = true
	for _, member := range members {
		if err := e.expandRef(member, found, visiting); err != nil {
			return err
		}
	}
	return nil
}
