package passinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePass(t *testing.T, workDir, name string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(workDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for file, content := range files {
		if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", file, err)
		}
	}
}

func TestListReadsRecordedFiles(t *testing.T) {
	workDir := t.TempDir()
	writePass(t, workDir, "01.process.0615_1300", map[string]string{
		"passid.txt":            "01.process.0615_1300\n",
		"jobname.txt":           "myrun.01\n",
		"launchjobid":           "2001\n",
		"worker-arraymasterids": "2002\n",
		"submit.wallclock":      "1781524800\n",
		"taskidregex.txt":       "^t1$\n",
	})
	writePass(t, workDir, "00.process.0615_1200", map[string]string{
		"passid.txt":  "00.process.0615_1200\n",
		"jobname.txt": "myrun.00\n",
		"launchjobid": "1001\n",
	})
	if err := os.WriteFile(filepath.Join(workDir, "tasks"), []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write tasks: %v", err)
	}

	passes, err := List(workDir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(passes) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(passes))
	}

	first, second := passes[0], passes[1]
	if first.Seq != 0 || first.JobName != "myrun.00" || first.Complete() {
		t.Fatalf("unexpected first pass: %+v", first)
	}
	if !first.Submitted.IsZero() {
		t.Fatalf("first pass has no wallclock, got %v", first.Submitted)
	}
	if second.Seq != 1 || second.ArrayJobID != "2002" || !second.Complete() {
		t.Fatalf("unexpected second pass: %+v", second)
	}
	if !second.Submitted.Equal(time.Unix(1781524800, 0)) {
		t.Fatalf("submitted = %v", second.Submitted)
	}
	if second.TaskIDRegex != "^t1$" || second.MaxAttempts != "" {
		t.Fatalf("overrides = %q / %q", second.TaskIDRegex, second.MaxAttempts)
	}
}

func TestListRejectsCorruptWallclock(t *testing.T) {
	workDir := t.TempDir()
	writePass(t, workDir, "00.process.0615_1200", map[string]string{
		"submit.wallclock": "yesterday\n",
	})
	if _, err := List(workDir); err == nil {
		t.Fatal("expected error for corrupt wallclock")
	}
}

func TestListEmptyWorkDir(t *testing.T) {
	passes, err := List(t.TempDir())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(passes) != 0 {
		t.Fatalf("expected no passes, got %d", len(passes))
	}
}
