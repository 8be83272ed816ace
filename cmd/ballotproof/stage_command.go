package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ballotproof/internal/emit"
	"ballotproof/internal/stage"
)

func newStageCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stage <number> <dir>",
		Short: "Run one audit stage against an election directory",
		Long: "Stage 000 freezes the sampling orders; stages 001 and up load the\n" +
			"cumulative audited votes, measure each contest's risk, and write the\n" +
			"snapshot, output, and plan artifacts for the stage.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseStageNumber(args[0])
			if err != nil {
				return err
			}
			opts, err := ctx.stageOptions(args[1])
			if err != nil {
				return err
			}

			res, err := stage.New(opts).Run(cmd.Context(), number)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stage %s complete (run %s)\n", res.Stage, shortRunID(res.RunID))
			for _, m := range res.Measurements {
				fmt.Fprintf(out, "  %s: risk %s, status %s\n",
					m.Contest, emit.FormatRisk(m.Risk), m.StatusAfter)
			}
			if len(res.Plan) > 0 {
				fmt.Fprintln(out, "Next stage plan:")
				for _, p := range res.Plan {
					fmt.Fprintf(out, "  %s: %s audited, +%s next, about %s total\n",
						p.Collection, formatCount(p.AuditedSoFar),
						formatCount(p.NextIncrement), formatCount(p.EstimatedTotal))
				}
			}
			if res.Finalized {
				fmt.Fprintln(out, "Audit finalized: no contest remains open.")
			}
			return nil
		},
	}
}

func parseStageNumber(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("stage number %q must be a non-negative integer", arg)
	}
	return n, nil
}
