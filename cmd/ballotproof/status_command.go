package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"ballotproof/internal/csvio"
	"ballotproof/internal/layout"
	"ballotproof/internal/versionfs"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <dir>",
		Short: "Show the latest stage's contest statuses and next-stage plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			out := cmd.OutOrStdout()
			outputDir := layout.OutputDir(dir)

			v, err := versionfs.Operative(outputDir, layout.OutputBase, layout.Suffix)
			if err != nil {
				if !errors.Is(err, versionfs.ErrNoVersion) && !errors.Is(err, fs.ErrNotExist) {
					return err
				}
				// No measurement stage yet; a plan alone means stage 000 ran.
				p, perr := versionfs.Operative(outputDir, layout.PlanBase, layout.Suffix)
				if perr != nil {
					if errors.Is(perr, versionfs.ErrNoVersion) || errors.Is(perr, fs.ErrNotExist) {
						fmt.Fprintln(out, "No audit stages have run yet.")
						return nil
					}
					return perr
				}
				fmt.Fprintf(out, "Stage %s: sampling orders frozen, no risks measured yet\n", p.Label)
				return printPlan(out, p.Path, ctx.retry())
			}

			fmt.Fprintf(out, "Stage %s\n", v.Label)
			if err := printContests(out, v.Path, ctx.retry()); err != nil {
				return err
			}
			planPath := filepath.Join(outputDir, layout.PlanBase+v.Label+layout.Suffix)
			return printPlan(out, planPath, ctx.retry())
		},
	}
}

func printContests(out io.Writer, path string, retry csvio.Retry) error {
	spec := csvio.Spec{Fixed: []string{
		"Contest id", "Risk Measurement Method", "Measured risk",
		"Risk Limit", "Risk Upset Threshold", "Status", "Sample size",
	}}
	table, err := csvio.ReadTable(path, spec, retry)
	if err != nil {
		return err
	}

	if !isTerminal(out) {
		for _, row := range table.Rows {
			fmt.Fprintf(out, "contest %s: risk=%s limit=%s status=%s sample=%s\n",
				row.Get("Contest id"), emptyDash(row.Get("Measured risk")),
				row.Get("Risk Limit"), row.Get("Status"),
				emptyDash(row.Get("Sample size")))
		}
		return nil
	}

	rows := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		rows = append(rows, []string{
			row.Get("Contest id"), emptyDash(row.Get("Measured risk")),
			row.Get("Risk Limit"), row.Get("Risk Upset Threshold"),
			row.Get("Status"), emptyDash(row.Get("Sample size")),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Contest id", "Measured risk", "Risk limit", "Upset threshold", "Status", "Sample size"},
		rows, 2, 3, 4, 6))
	return nil
}

func printPlan(out io.Writer, path string, retry csvio.Retry) error {
	spec := csvio.Spec{Fixed: []string{
		"Collection id", "Audited so far", "Next stage increment", "Estimated total needed",
	}}
	table, err := csvio.ReadTable(path, spec, retry)
	if err != nil {
		return err
	}

	if !isTerminal(out) {
		for _, row := range table.Rows {
			fmt.Fprintf(out, "collection %s: audited=%s next=%s target=%s\n",
				row.Get("Collection id"), row.Get("Audited so far"),
				row.Get("Next stage increment"), row.Get("Estimated total needed"))
		}
		return nil
	}

	rows := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		rows = append(rows, []string{
			row.Get("Collection id"), row.Get("Audited so far"),
			row.Get("Next stage increment"), row.Get("Estimated total needed"),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Collection id", "Audited so far", "Next increment", "Estimated total"},
		rows, 2, 3, 4))
	return nil
}

func emptyDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
