package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"passlaunch/internal/launch"
	"passlaunch/internal/pass"
	"passlaunch/internal/staging"
	"passlaunch/internal/testsupport"
	"passlaunch/internal/workdir"
)

func TestProcessMachineOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"process", "--machine-output", env.workDir}, env.configPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected exactly 3 lines, got %q", out)
	}
	work, ok := strings.CutPrefix(lines[0], "work=")
	if !ok || !strings.HasPrefix(filepath.Base(work), "00.process.") {
		t.Fatalf("unexpected work line %q", lines[0])
	}
	if lines[1] != "masterjobid=501" || lines[2] != "arrayjobid=502" {
		t.Fatalf("unexpected id lines %q", lines[1:])
	}
	if got := testsupport.ReadFile(t, filepath.Join(work, staging.FileLaunchJobID)); got != "501\n" {
		t.Fatalf("launchjobid = %q", got)
	}
}

func TestProcessHumanOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"process", env.workDir}, env.configPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	requireContains(t, out, "== Pass 00.process.")
	requireContains(t, out, "[OK] 501 submitted")
	requireContains(t, out, "[OK] 502 submitted (16 workers, after 501)")
	if strings.Contains(out, "masterjobid=") {
		t.Fatalf("human output should not contain key=value lines: %q", out)
	}
}

func TestProcessFlagsOverrideDefaults(t *testing.T) {
	env := setupCLITestEnv(t)

	args := []string{
		"process", "--machine-output",
		"-n", "3", "-m", "512", "-t", "30", "-p", "gpu", "-i", "calib",
		"-N", "4", "-r", "^t[0-9]+$",
		env.workDir,
	}
	out, _, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	work := strings.TrimPrefix(strings.SplitN(out, "\n", 2)[0], "work=")
	if !strings.HasPrefix(filepath.Base(work), "00.calib.") {
		t.Fatalf("identifier not applied: %s", work)
	}
	if got := testsupport.ReadFile(t, filepath.Join(work, staging.FileMaxAttempts)); got != "4\n" {
		t.Fatalf("maxattempts.txt = %q", got)
	}
	if got := testsupport.ReadFile(t, filepath.Join(work, staging.FileTaskIDRegex)); got != "^t[0-9]+$\n" {
		t.Fatalf("taskidregex.txt = %q", got)
	}

	sbatch := env.sbatchArgs(t)
	for _, want := range []string{
		"--array=0-2", "--mem=512", "--time=30", "--partition=gpu",
		"--dependency=after:501", "--partition=shared", "--no-requeue",
	} {
		requireContains(t, sbatch, want+"\n")
	}
}

func TestProcessWithoutOverridesWritesNoOverrideFiles(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"process", "--machine-output", env.workDir}, env.configPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	work := strings.TrimPrefix(strings.SplitN(out, "\n", 2)[0], "work=")
	for _, name := range []string{staging.FileMaxAttempts, staging.FileTaskIDRegex} {
		if _, err := os.Stat(filepath.Join(work, name)); !os.IsNotExist(err) {
			t.Fatalf("%s should not exist, stat err = %v", name, err)
		}
	}
}

func TestProcessArgumentCount(t *testing.T) {
	env := setupCLITestEnv(t)

	for _, args := range [][]string{
		{"process"},
		{"process", env.workDir, env.workDir},
	} {
		_, _, err := runCLI(t, args, env.configPath)
		if !errors.Is(err, launch.ErrUsage) {
			t.Fatalf("%v: expected ErrUsage, got %v", args, err)
		}
	}
	if dirs, _ := pass.List(env.workDir); len(dirs) != 0 {
		t.Fatal("usage errors must not allocate passes")
	}
}

func TestProcessUnknownFlagIsUsageError(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"process", "--bogus", env.workDir}, env.configPath)
	if !errors.Is(err, launch.ErrUsage) {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
}

func TestProcessUnseededWorkDir(t *testing.T) {
	env := setupCLITestEnv(t)
	empty := filepath.Join(env.baseDir, "empty")
	if err := os.Mkdir(empty, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, _, err := runCLI(t, []string{"process", empty}, env.configPath)
	if !errors.Is(err, workdir.ErrNotSeeded) {
		t.Fatalf("expected ErrNotSeeded, got %v", err)
	}
}

func TestProcessSurfacesSchedulerError(t *testing.T) {
	env := setupCLITestEnv(t)
	stub := "echo 'sbatch: error: invalid partition specified: shared' >&2\nexit 1\n"
	if err := os.WriteFile(env.cfg.Scheduler.SbatchBinary, []byte("#!/bin/sh\n"+stub), 0o755); err != nil {
		t.Fatalf("rewrite stub: %v", err)
	}

	_, _, err := runCLI(t, []string{"process", env.workDir}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "sbatch: error: invalid partition specified: shared") {
		t.Fatalf("expected verbatim scheduler error, got %v", err)
	}
}

func TestProcessLocalBackend(t *testing.T) {
	env := setupCLITestEnv(t)
	writeTaskPrograms(t, env.cfg)

	out, _, err := runCLI(t, []string{"process", "--local", "--machine-output", "-n", "2", env.workDir}, env.configPath)
	if err != nil {
		t.Fatalf("process --local: %v", err)
	}
	requireContains(t, out, "masterjobid=local-")
	requireContains(t, out, "arrayjobid=local-")

	work := strings.TrimPrefix(strings.SplitN(out, "\n", 2)[0], "work=")
	requireContains(t, testsupport.ReadFile(t, filepath.Join(work, staging.FileMasterLog)), "pass-master --workdir")
	requireContains(t, testsupport.ReadFile(t, filepath.Join(work, staging.WorkerLogsDir, "1.log")), "--worker-id 1")
	if _, err := os.Stat(env.cfg.Scheduler.SbatchBinary + ".args"); !os.IsNotExist(err) {
		t.Fatal("local mode must not call sbatch")
	}
}

func TestUnknownSubcommandFails(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"launch", env.workDir}, env.configPath); err == nil {
		t.Fatal("expected unknown subcommand to fail")
	}
}
