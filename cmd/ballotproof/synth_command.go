package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ballotproof/internal/synth"
)

func newSynthCommand() *cobra.Command {
	var scenario string
	var seed string
	var scale int

	cmd := &cobra.Command{
		Use:   "synth <dir>",
		Short: "Write a synthetic election directory for demos and tests",
		Long: "Generates a complete election directory from a built-in scenario:\n" +
			"  landslide    one contest, one collection, 90/10 margin\n" +
			"  misreported  the landslide with a certified outcome its votes contradict\n" +
			"  crosscounty  five contests across three counties, one opportunistic measure\n" +
			"  tallyonly    the landslide plus a tally-only collection",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := scenarioSpec(scenario, scale)
			if err != nil {
				return err
			}
			if s := strings.TrimSpace(seed); s != "" {
				spec.Seed = s
			}

			s, err := synth.Build(spec)
			if err != nil {
				return err
			}
			if err := s.WriteInputs(args[0]); err != nil {
				return err
			}

			e := s.Model
			fmt.Fprintf(cmd.OutOrStdout(),
				"Wrote %q: %d contests, %d collections, %s ballots\n",
				e.Name, len(e.ContestIDs), len(e.CollectionIDs), formatCount(totalBallots(s)))
			return nil
		},
	}

	cmd.Flags().StringVar(&scenario, "scenario", "landslide", "Built-in scenario to generate")
	cmd.Flags().StringVar(&seed, "seed", "", "Audit seed override (decimal digits)")
	cmd.Flags().IntVar(&scale, "scale", 100, "Ballot-count divisor for the crosscounty scenario")

	return cmd
}

func scenarioSpec(name string, scale int) (synth.Spec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "landslide":
		return synth.Landslide(), nil
	case "misreported":
		return synth.MisreportedOutcome(), nil
	case "crosscounty":
		return synth.CrossCounty(scale), nil
	case "tallyonly":
		return synth.TallyOnly(), nil
	default:
		return synth.Spec{}, fmt.Errorf("unknown scenario %q (landslide, misreported, crosscounty, tallyonly)", name)
	}
}

func totalBallots(s *synth.Election) int {
	total := 0
	for _, pbcid := range s.Model.CollectionIDs {
		total += s.Model.Size(pbcid)
	}
	return total
}
