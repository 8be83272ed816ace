package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ballotproof/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <dir>",
		Short: "List the recorded stage runs for an election directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.JournalPath(args[0])
			if path == "" {
				return errors.New("run journaling is disabled; enable [journal] in the configuration")
			}
			out := cmd.OutOrStdout()
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}

			j, err := journal.Open(path)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}

			if !isTerminal(out) {
				for _, r := range runs {
					fmt.Fprintf(out, "run %s: stage=%s started=%s duration=%s trials=%d inputs=%d finalized=%s\n",
						shortRunID(r.ID), r.Stage,
						r.StartedAt.Local().Format(time.DateTime),
						runDuration(r), r.Trials, r.Inputs, yesNo(r.Finalized))
				}
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					shortRunID(r.ID), r.Stage,
					r.StartedAt.Local().Format(time.DateTime),
					runDuration(r),
					formatCount(r.Trials), strconv.Itoa(r.Inputs),
					yesNo(r.Finalized),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Stage", "Started", "Duration", "Trials", "Inputs", "Finalized"},
				rows, 4, 5, 6))
			return nil
		},
	}
}

func runDuration(r journal.Run) string {
	if r.FinishedAt.Before(r.StartedAt) {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}
