package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"passlaunch/internal/deps"
	"passlaunch/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Master job", statusOK, "501 submitted", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Master job:", "[OK] 501 submitted")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Master job", statusError, "rejected", true)
	if !strings.HasPrefix(got, ansiRed) {
		t.Fatalf("expected red prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "sbatch", Command: "sbatch", Available: false, Detail: `binary "sbatch" not found`},
		{Name: "pass-master", Command: "/opt/bin/pass-master", Available: true},
		{Name: "pass-worker", Available: false, Optional: true},
	}
	lines := dependencyLines(statuses, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "[ERROR] binary") {
		t.Fatalf("expected error for sbatch, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[OK] Ready (command: /opt/bin/pass-master)") {
		t.Fatalf("expected ready line, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[WARN] not available") {
		t.Fatalf("expected warning for optional program, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "Missing programs") || !strings.Contains(lines[3], "sbatch") {
		t.Fatalf("expected missing summary, got %q", lines[3])
	}
}

func TestPreflightLines(t *testing.T) {
	lines := preflightLines([]preflight.Result{
		{Name: "Bulk data root", Passed: true, Detail: "/scratch (will be created)"},
		{Name: "Project root", Optional: true, Detail: "/opt/top (error: does not exist)"},
		{Name: "Support directory", Detail: "/opt/support (error: does not exist)"},
	}, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, want := range []string{"[OK] /scratch", "[WARN] /opt/top", "[ERROR] /opt/support"} {
		if !strings.Contains(lines[i], want) {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want)
		}
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestCheckCommandReportsPrograms(t *testing.T) {
	env := setupCLITestEnv(t)
	writeTaskPrograms(t, env.cfg)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "slurm backend")
	requireContains(t, out, "sbatch:")
	requireContains(t, out, "[OK] Ready")
	requireContains(t, out, "== Paths ==")
	requireContains(t, out, "will be created")
}
