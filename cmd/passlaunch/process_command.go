package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"passlaunch/internal/config"
	"passlaunch/internal/launch"
)

type processFlags struct {
	maxAttempts   int
	maxTime       int
	workers       int
	mem           int
	partition     string
	identifier    string
	taskIDRegex   string
	machineOutput bool
	local         bool
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var flags processFlags

	cmd := &cobra.Command{
		Use:   "process <workdir>",
		Short: "Stage the next pass of a work directory and submit its jobs",
		Long: "Allocate the next pass directory of a seeded work directory, stage its\n" +
			"support files, then submit the master job and the worker array that\n" +
			"starts after it. Flags left unset fall back to the [defaults] section of\n" +
			"the configuration file.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if flags.local {
				localCfg := *cfg
				localCfg.Scheduler.Backend = config.BackendLocal
				cfg = &localCfg
			}

			req := buildProcessRequest(cmd.Flags(), cfg, args[0], flags)

			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}
			launcher, err := launch.New(cfg, launch.NewSubmitter(cfg, logger), logger)
			if err != nil {
				return err
			}
			if err := launcher.Preflight(); err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := launcher.Run(runCtx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.machineOutput {
				return printMachineResult(out, result)
			}
			printHumanResult(out, result, req.Workers, cfg.IsLocal(), shouldColorize(out))
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&flags.maxAttempts, "maxattempts", "N", 0, "Maximum attempts per task (task program default when unset)")
	f.IntVarP(&flags.maxTime, "maxtime", "t", 0, "Worker time limit in minutes")
	f.IntVarP(&flags.workers, "nworkers", "n", 0, "Number of array workers")
	f.IntVarP(&flags.mem, "mem", "m", 0, "Worker memory limit in MB")
	f.StringVarP(&flags.partition, "partition", "p", "", "Worker partition")
	f.StringVarP(&flags.identifier, "identifier", "i", "", "Identifier embedded in the pass id")
	f.StringVarP(&flags.taskIDRegex, "taskidregex", "r", "", "Only process task ids matching this regular expression")
	f.BoolVar(&flags.machineOutput, "machine-output", false, "Print key=value lines instead of status text")
	f.BoolVar(&flags.local, "local", false, "Run the pass as local processes instead of submitting it")
	return cmd
}

// buildProcessRequest starts from configured defaults and applies only the
// flags the caller actually set.
func buildProcessRequest(set *pflag.FlagSet, cfg *config.Config, workDir string, flags processFlags) launch.Request {
	req := launch.DefaultRequest(cfg, workDir)
	if set.Changed("maxattempts") {
		v := flags.maxAttempts
		req.MaxAttempts = &v
	}
	if set.Changed("taskidregex") {
		v := flags.taskIDRegex
		req.TaskIDRegex = &v
	}
	if set.Changed("maxtime") {
		req.MaxTimeMin = flags.maxTime
	}
	if set.Changed("nworkers") {
		req.Workers = flags.workers
	}
	if set.Changed("mem") {
		req.MemMB = flags.mem
	}
	if set.Changed("partition") {
		req.Partition = flags.partition
	}
	if set.Changed("identifier") {
		req.Identifier = flags.identifier
	}
	return req
}

func printMachineResult(out io.Writer, result launch.Result) error {
	_, err := fmt.Fprintf(out, "work=%s\nmasterjobid=%s\narrayjobid=%s\n",
		result.PassDir, result.MasterJobID, result.ArrayJobID)
	return err
}

func printHumanResult(out io.Writer, result launch.Result, workers int, local bool, colorize bool) {
	verb := "submitted"
	if local {
		verb = "finished"
	}
	for _, line := range renderSectionHeader("Pass "+result.PassID.String(), colorize) {
		fmt.Fprintln(out, line)
	}
	lines := []string{
		renderStatusLine("Work directory", statusInfo, result.WorkDir, colorize),
		renderStatusLine("Pass directory", statusInfo, result.PassDir, colorize),
		renderStatusLine("Job name", statusInfo, result.JobName, colorize),
		renderStatusLine("Bulk data", statusInfo, result.BulkData, colorize),
		renderStatusLine("Master job", statusOK, fmt.Sprintf("%s %s", result.MasterJobID, verb), colorize),
		renderStatusLine("Worker array", statusOK, fmt.Sprintf("%s %s (%d workers, after %s)", result.ArrayJobID, verb, workers, result.MasterJobID), colorize),
	}
	if result.PostProcessJobID != "" {
		lines = append(lines, renderStatusLine("Post-process job", statusOK, fmt.Sprintf("%s %s", result.PostProcessJobID, verb), colorize))
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
