package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ballotproof/internal/election"
)

func newReadStructureCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "read-structure <dir>",
		Short: "Load and validate the election structure tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := ctx.loader(args[0])
			if err != nil {
				return err
			}
			e, err := l.Structure()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Election: %s (%s)\n", e.Name, e.Date)

			contestRows := make([][]string, 0, len(e.ContestIDs))
			for _, cid := range e.ContestIDs {
				c := e.Contests[cid]
				contestRows = append(contestRows, []string{
					cid, fmt.Sprintf("%d", c.Winners), c.WriteIns.String(),
					strings.Join(c.Selections, ", "),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Contest id", "Winners", "Write-ins", "Selections"},
				contestRows, 2))

			collectionRows := make([][]string, 0, len(e.CollectionIDs))
			for _, pbcid := range e.CollectionIDs {
				p := e.Collections[pbcid]
				collectionRows = append(collectionRows, []string{
					pbcid, string(p.CVRType), p.Manager,
					strings.Join(p.Contests, ", "),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Collection id", "Type", "Manager", "Contests"},
				collectionRows))

			if len(e.GroupIDs) > 0 {
				fmt.Fprintf(out, "Contest groups: %s\n", strings.Join(e.GroupIDs, ", "))
			}
			return nil
		},
	}
}

func newReadReportedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "read-reported <dir>",
		Short: "Load the ballot manifests, reported votes, and outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := ctx.loader(args[0])
			if err != nil {
				return err
			}
			e, err := l.Structure()
			if err != nil {
				return err
			}
			if err := l.Reported(e); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(e.CollectionIDs))
			for _, pbcid := range e.CollectionIDs {
				p := e.Collections[pbcid]
				records := fmt.Sprintf("%s cast vote records", formatCount(len(e.ReportedVotes[pbcid])))
				if p.CVRType == election.TypeNoCVR {
					records = fmt.Sprintf("tallies for %d contests", len(e.ReportedTallies[pbcid]))
				}
				rows = append(rows, []string{
					pbcid, string(p.CVRType), formatCount(e.Size(pbcid)), records,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Collection id", "Type", "Ballots", "Reported"},
				rows, 3))

			fmt.Fprintln(out, "Reported outcomes:")
			for _, cid := range e.ContestIDs {
				if v, ok := e.Outcomes[cid]; ok {
					fmt.Fprintf(out, "  %s: %s\n", cid, v.Key())
				}
			}
			return nil
		},
	}
}

func newReadSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "read-seed <dir>",
		Short: "Load and validate the audit seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := ctx.loader(args[0])
			if err != nil {
				return err
			}
			e, err := l.Structure()
			if err != nil {
				return err
			}
			if err := l.Seed(e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seed: %s\n", e.Seed)
			return nil
		},
	}
}

func newReadAuditedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "read-audited <dir>",
		Short: "Load the cumulative audited-vote transcripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := ctx.loader(args[0])
			if err != nil {
				return err
			}
			e, err := l.Structure()
			if err != nil {
				return err
			}
			if err := l.Reported(e); err != nil {
				return err
			}
			if err := l.Audited(e); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			total := 0
			for _, pbcid := range e.CollectionIDs {
				n := len(e.AuditedBIDs[pbcid])
				total += n
				fmt.Fprintf(out, "%s: %s audited ballots\n", pbcid, formatCount(n))
			}
			fmt.Fprintf(out, "Total: %s audited ballots\n", formatCount(total))
			return nil
		},
	}
}
