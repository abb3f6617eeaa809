package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"passlaunch/internal/config"
	"passlaunch/internal/deps"
	"passlaunch/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether the programs a pass needs are available",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if local {
				localCfg := *cfg
				localCfg.Scheduler.Backend = config.BackendLocal
				cfg = &localCfg
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Programs ("+cfg.Scheduler.Backend+" backend)", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range dependencyLines(statuses, colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cfg)
			for _, line := range renderSectionHeader("Paths", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range preflightLines(results, colorize) {
				fmt.Fprintln(out, line)
			}
			if len(deps.Missing(statuses)) > 0 || len(preflight.Failed(results)) > 0 {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Check for local execution instead of batch submission")
	return cmd
}
