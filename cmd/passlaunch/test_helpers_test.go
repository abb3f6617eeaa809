package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"passlaunch/internal/config"
	"passlaunch/internal/testsupport"
)

// sbatchStub hands out job ids 501, 502, ... and appends every argument
// vector to <stub>.args.
const sbatchStub = `n=$(cat "$0.count" 2>/dev/null || echo 0)
n=$((n+1))
echo "$n" > "$0.count"
printf '%s\n' "$@" >> "$0.args"
echo "$((500+n));cluster"
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	workDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedSbatch(sbatchStub))
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("PASSLAUNCH_TOP", "")
	t.Setenv("PASSLAUNCH_BULKDATA", "")

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		workDir:    testsupport.SeedWorkDir(t, base, "myrun"),
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nproject_root = %q\nbulk_data_root = %q\n\n[scheduler]\nsbatch_binary = %q\nkill_grace_seconds = 1\n",
		cfg.Paths.ProjectRoot,
		cfg.Paths.BulkDataRoot,
		cfg.Scheduler.SbatchBinary,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) sbatchArgs(t *testing.T) string {
	t.Helper()
	return testsupport.ReadFile(t, e.cfg.Scheduler.SbatchBinary+".args")
}

func writeTaskPrograms(t *testing.T, cfg *config.Config) {
	t.Helper()
	bin := filepath.Join(cfg.Paths.ProjectRoot, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"pass-master", "pass-worker"} {
		body := "#!/bin/sh\necho \"" + name + " $*\"\n"
		if err := os.WriteFile(filepath.Join(bin, name), []byte(body), 0o755); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
