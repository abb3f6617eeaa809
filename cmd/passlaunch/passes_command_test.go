package main

import (
	"strings"
	"testing"
	"time"

	"passlaunch/internal/pass"
	"passlaunch/internal/passinfo"
)

func TestPassesListsSubmittedPasses(t *testing.T) {
	env := setupCLITestEnv(t)

	for i := 0; i < 2; i++ {
		if _, _, err := runCLI(t, []string{"process", "--machine-output", env.workDir}, env.configPath); err != nil {
			t.Fatalf("process %d: %v", i, err)
		}
	}

	out, _, err := runCLI(t, []string{"passes", env.workDir}, env.configPath)
	if err != nil {
		t.Fatalf("passes: %v", err)
	}
	requireContains(t, out, "myrun.00")
	requireContains(t, out, "myrun.01")
	if strings.Index(out, "myrun.00") > strings.Index(out, "myrun.01") {
		t.Fatalf("passes should be listed in sequence order: %q", out)
	}

	out, _, err = runCLI(t, []string{"passes", "--machine-output", env.workDir}, env.configPath)
	if err != nil {
		t.Fatalf("passes --machine-output: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected one line per pass, got %q", out)
	}
	requireContains(t, lines[0], "jobname=myrun.00 masterjobid=501 arrayjobid=502")
	requireContains(t, lines[1], "jobname=myrun.01 masterjobid=503 arrayjobid=504")
}

func TestPassesEmptyWorkDir(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"passes", env.workDir}, env.configPath)
	if err != nil {
		t.Fatalf("passes: %v", err)
	}
	requireContains(t, out, "No passes in")
}

func TestRenderPassTableRightAlignsIDs(t *testing.T) {
	passes := []passinfo.Pass{
		{
			Seq:         pass.Sequence(0),
			Name:        "00.process.0615_1200",
			JobName:     "myrun.00",
			MasterJobID: "501",
			ArrayJobID:  "502",
			Submitted:   time.Date(2026, 6, 15, 12, 0, 0, 0, time.Local),
			MaxAttempts: "3",
		},
		{
			Seq:         pass.Sequence(1),
			Name:        "01.process.0615_1300",
			JobName:     "myrun.01",
			MasterJobID: "99999",
		},
	}

	out := renderPassTable(passes)
	requireContains(t, out, "│    501 │")
	requireContains(t, out, "│   502 │")
	requireContains(t, out, "│     - │")
	requireContains(t, out, "2026-06-15 12:00:00")
	requireContains(t, out, "maxattempts=3")
	if !strings.HasSuffix(out, "\n2 passes, 1 incomplete") {
		t.Fatalf("expected summary line after table, got %q", out)
	}
}

func TestPassSummary(t *testing.T) {
	cases := []struct {
		total, incomplete int
		want              string
	}{
		{1, 0, "1 pass"},
		{3, 0, "3 passes"},
		{3, 2, "3 passes, 2 incomplete"},
	}
	for _, tc := range cases {
		if got := passSummary(tc.total, tc.incomplete); got != tc.want {
			t.Fatalf("passSummary(%d, %d) = %q, want %q", tc.total, tc.incomplete, got, tc.want)
		}
	}
}
