package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"passlaunch/internal/passinfo"
	"passlaunch/internal/workdir"
)

func newPassesCommand(ctx *commandContext) *cobra.Command {
	var machineOutput bool
	cmd := &cobra.Command{
		Use:   "passes <workdir>",
		Short: "List the passes staged in a work directory",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			dir, err := workdir.Resolve(args[0])
			if err != nil {
				return err
			}
			passes, err := passinfo.List(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if machineOutput {
				return printMachinePasses(out, passes)
			}
			if len(passes) == 0 {
				fmt.Fprintf(out, "No passes in %s\n", dir)
				return nil
			}
			fmt.Fprintln(out, renderPassTable(passes))
			return nil
		},
	}
	cmd.Flags().BoolVar(&machineOutput, "machine-output", false, "Print one key=value line per pass")
	return cmd
}

func printMachinePasses(out io.Writer, passes []passinfo.Pass) error {
	for _, p := range passes {
		submitted := ""
		if !p.Submitted.IsZero() {
			submitted = strconv.FormatInt(p.Submitted.Unix(), 10)
		}
		if _, err := fmt.Fprintf(out, "pass=%s jobname=%s masterjobid=%s arrayjobid=%s submitted=%s\n",
			p.Name, p.JobName, p.MasterJobID, p.ArrayJobID, submitted); err != nil {
			return err
		}
	}
	return nil
}
