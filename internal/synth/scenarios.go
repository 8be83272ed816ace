package synth

import "ballotproof/internal/ids"

// scenarioSeed is the published audit seed all canned scenarios share.
const scenarioSeed = "13456201235197891138"

// Landslide is a one-contest, one-collection election with a 90/10 reported
// margin that hand examination confirms. An audit at rate 40 should pass
// the contest on the first stage.
func Landslide() Spec {
	return Spec{
		Name:   "Landslide",
		Seed:   scenarioSeed,
		Trials: 10000,
		Contests: []Contest{{
			ID:             "C",
			Selections:     []string{"0", "1"},
			RiskLimit:      0.05,
			UpsetThreshold: 0.99,
			Pseudocount:    1,
		}},
		Collections: []Collection{{
			ID:      "J",
			Rate:    40,
			Ballots: 10000,
		}},
		Blocks: []Block{
			{Contest: "C", Collection: "J", Reported: ids.NewVote("1"), Actual: ids.NewVote("1"), Count: 9000},
			{Contest: "C", Collection: "J", Reported: ids.NewVote("0"), Actual: ids.NewVote("0"), Count: 1000},
		},
	}
}

// MisreportedOutcome is the Landslide election with the reported winner
// flipped: the scanners and the paper agree that 1 won, but the certified
// outcome says 0. Measured risk climbs to the upset threshold within a few
// stages.
func MisreportedOutcome() Spec {
	spec := Landslide()
	spec.Name = "Misreported outcome"
	spec.Outcomes = map[string]ids.Vote{"C": ids.NewVote("0")}
	return spec
}

// CrossCounty is a five-contest election over three county collections: a
// statewide contest I on every ballot, one county contest per county, and a
// two-county measure F23 whose certified outcome contradicts its own
// reported tallies. F23 rides along opportunistically at a 10% risk limit;
// the rest sample actively at 5%.
//
// scale divides every count; 1 gives the full 100000 ballots per county.
// Any divisor of 500 keeps the margins exact.
func CrossCounty(scale int) Spec {
	if scale < 1 {
		scale = 1
	}
	n := func(v int) int { return v / scale }

	statewide := func(pbcid string) []Block {
		return []Block{
			{Contest: "I", Collection: pbcid, Reported: ids.NewVote("1"), Actual: ids.NewVote("1"), Count: n(50500)},
			{Contest: "I", Collection: pbcid, Reported: ids.NewVote("0"), Actual: ids.NewVote("0"), Count: n(49500)},
		}
	}
	county := func(cid, pbcid string, winning int) []Block {
		return []Block{
			{Contest: cid, Collection: pbcid, Reported: ids.NewVote("1"), Actual: ids.NewVote("1"), Count: n(winning)},
			{Contest: cid, Collection: pbcid, Reported: ids.NewVote("0"), Actual: ids.NewVote("0"), Count: n(100000 - winning)},
		}
	}
	measure := func(pbcid string) []Block {
		return []Block{
			{Contest: "F23", Collection: pbcid, Reported: ids.NewVote("1"), Actual: ids.NewVote("1"), Count: n(52500)},
			{Contest: "F23", Collection: pbcid, Reported: ids.NewVote("0"), Actual: ids.NewVote("0"), Count: n(47500)},
		}
	}

	var blocks []Block
	blocks = append(blocks, statewide("PBC1")...)
	blocks = append(blocks, county("C1", "PBC1", 65000)...)
	blocks = append(blocks, statewide("PBC2")...)
	blocks = append(blocks, county("C2", "PBC2", 60000)...)
	blocks = append(blocks, measure("PBC2")...)
	blocks = append(blocks, statewide("PBC3")...)
	blocks = append(blocks, county("C3", "PBC3", 55000)...)
	blocks = append(blocks, measure("PBC3")...)

	return Spec{
		Name:   "Cross county",
		Seed:   scenarioSeed,
		Trials: 10000,
		Contests: []Contest{
			{ID: "I", Selections: []string{"0", "1"}},
			{ID: "C1", Selections: []string{"0", "1"}},
			{ID: "C2", Selections: []string{"0", "1"}},
			{ID: "C3", Selections: []string{"0", "1"}},
			{ID: "F23", Selections: []string{"0", "1"}, RiskLimit: 0.10, Mode: "Opportunistic"},
		},
		Collections: []Collection{
			{ID: "PBC1", Rate: 40, Ballots: n(100000)},
			{ID: "PBC2", Rate: 60, Ballots: n(100000)},
			{ID: "PBC3", Rate: 80, Ballots: n(100000)},
		},
		Outcomes: map[string]ids.Vote{"F23": ids.NewVote("0")},
		Blocks:   blocks,
	}
}

// TallyOnly extends the Landslide election with a second collection that
// reports contest tallies instead of per-ballot records, exercising the
// tally-seeded urn path of the estimator.
func TallyOnly() Spec {
	spec := Landslide()
	spec.Name = "Tally only"
	spec.Collections = append(spec.Collections, Collection{
		ID:      "K",
		Type:    "noCVR",
		Rate:    20,
		Ballots: 2000,
	})
	spec.Blocks = append(spec.Blocks,
		Block{Contest: "C", Collection: "K", Reported: ids.NewVote("1"), Actual: ids.NewVote("1"), Count: 1100},
		Block{Contest: "C", Collection: "K", Reported: ids.NewVote("0"), Actual: ids.NewVote("0"), Count: 900},
	)
	return spec
}
