// Package slurm submits jobs with sbatch.
package slurm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"passlaunch/internal/logging"
	"passlaunch/internal/scheduler"
)

// Client runs sbatch for each submission.
type Client struct {
	binary string
	logger *slog.Logger
}

var _ scheduler.Submitter = (*Client)(nil)

// New returns a Client that invokes binary (normally "sbatch").
func New(binary string, logger *slog.Logger) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = "sbatch"
	}
	return &Client{binary: binary, logger: logging.NewComponentLogger(logger, "slurm")}
}

// Args builds the sbatch command line for req. The job environment is never
// inherited from the caller: only the export file's variables are passed.
func Args(req scheduler.Request) []string {
	args := []string{
		"--parsable",
		"--job-name=" + req.Name,
		"--chdir=" + req.Dir,
		"--export=NONE",
	}
	if req.EnvFile != "" {
		args = append(args, "--export-file="+req.EnvFile)
	}
	if req.Output != "" {
		args = append(args, "--output="+req.Output)
	}
	switch req.OpenMode {
	case scheduler.OpenModeAppend:
		args = append(args, "--open-mode=append")
	default:
		args = append(args, "--open-mode=truncate")
	}
	if req.MemoryMB > 0 {
		args = append(args, "--mem="+strconv.Itoa(req.MemoryMB))
	}
	if req.TimeMin > 0 {
		args = append(args, "--time="+strconv.Itoa(req.TimeMin))
	}
	if len(req.Partitions) > 0 {
		args = append(args, "--partition="+strings.Join(req.Partitions, ","))
	}
	if req.NoRequeue {
		args = append(args, "--no-requeue")
	} else {
		args = append(args, "--requeue")
	}
	if req.Dependency != nil {
		args = append(args, "--dependency="+req.Dependency.String())
	}
	if req.Array != nil {
		args = append(args, "--array="+req.Array.String())
	}
	return append(args, req.Script)
}

// Submit runs sbatch and returns the job id it prints. On failure the error
// carries sbatch's own diagnostics unchanged.
func (c *Client) Submit(ctx context.Context, req scheduler.Request) (scheduler.JobID, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	args := Args(req)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Dir = req.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && msg != "" {
			return "", fmt.Errorf("sbatch %s: %s: %w", req.Name, msg, err)
		}
		return "", fmt.Errorf("sbatch %s: %w", req.Name, err)
	}

	id, err := parseJobID(stdout.String())
	if err != nil {
		return "", fmt.Errorf("sbatch %s: %w", req.Name, err)
	}
	c.logger.Debug("job submitted",
		logging.String(logging.FieldJobName, req.Name),
		logging.String(logging.FieldJobID, id.String()),
		logging.String("args", strings.Join(args, " ")),
	)
	return id, nil
}

// parseJobID reads --parsable output: "<id>" or "<id>;<cluster>".
func parseJobID(out string) (scheduler.JobID, error) {
	line := strings.TrimSpace(out)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	id, _, _ := strings.Cut(line, ";")
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("no job id in output %q", out)
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return "", fmt.Errorf("unexpected job id %q", id)
	}
	return scheduler.JobID(id), nil
}
