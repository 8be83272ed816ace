package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ballotproof/internal/emit"
	"ballotproof/internal/sampler"
)

func newMakeAuditOrdersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "make-audit-orders <dir>",
		Short: "Compute and write the seeded sampling order for every collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			l, err := ctx.loader(dir)
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
			if err := l.Seed(e); err != nil {
				return err
			}

			log, err := ctx.logger()
			if err != nil {
				return err
			}
			orders := sampler.Orders(e)
			if err := emit.New(dir, log).Orders(e, orders); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, pbcid := range e.CollectionIDs {
				fmt.Fprintf(out, "%s: %s ballots ordered\n", pbcid, formatCount(len(orders[pbcid])))
			}
			fmt.Fprintf(out, "Sampling orders written (%d collections)\n", len(e.CollectionIDs))
			return nil
		},
	}
}
