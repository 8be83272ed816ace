package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var levelFlag string
	var formatFlag string

	ctx := newCommandContext(&configFlag, &levelFlag, &formatFlag)

	rootCmd := &cobra.Command{
		Use:           "ballotproof",
		Short:         "Bayesian post-election ballot audits",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&levelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "log-format", "", "Log format (console, json)")

	rootCmd.AddCommand(newReadStructureCommand(ctx))
	rootCmd.AddCommand(newReadReportedCommand(ctx))
	rootCmd.AddCommand(newReadSeedCommand(ctx))
	rootCmd.AddCommand(newMakeAuditOrdersCommand(ctx))
	rootCmd.AddCommand(newReadAuditedCommand(ctx))
	rootCmd.AddCommand(newStageCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newSynthCommand())
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
