package submit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"passlaunch/internal/config"
	"passlaunch/internal/logging"
	"passlaunch/internal/scheduler"
	"passlaunch/internal/staging"
	"passlaunch/internal/support"
	"passlaunch/internal/testsupport"
)

func testLayout(t *testing.T) staging.Layout {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "myrun", "03.process.0615_1200")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return staging.Layout{Dir: dir}
}

func testPlanner(cfg *config.Config) *Planner {
	return NewPlanner(cfg, Identity{User: "alice", Home: "/home/alice"}, logging.NewNop())
}

func defaultOptions() Options {
	return Options{Workers: 4, MemMB: 2048, TimeMin: 90, Partition: "serial_requeue"}
}

func TestPlanMasterRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	layout := testLayout(t)

	plan, err := testPlanner(cfg).Plan(layout, "myrun.03", defaultOptions())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	m := plan.Master
	if m.Script != support.Launcher || m.Dir != layout.Dir || m.Name != "myrun.03" {
		t.Fatalf("unexpected master request: %+v", m)
	}
	if !m.NoRequeue {
		t.Fatal("master must not be requeued")
	}
	if m.OpenMode != scheduler.OpenModeAppend {
		t.Fatal("master log must be appended")
	}
	if m.Output != layout.Path(staging.FileMasterLog) {
		t.Fatalf("master output = %q", m.Output)
	}
	if m.EnvFile != layout.Path(staging.FileMasterEnv) {
		t.Fatalf("master env file = %q", m.EnvFile)
	}
	if strings.Join(m.Partitions, ",") != "shared" {
		t.Fatalf("master partitions = %v", m.Partitions)
	}
	if m.MemoryMB != cfg.Scheduler.MasterMemMB || m.TimeMin != cfg.Scheduler.MasterTimeMinutes {
		t.Fatalf("master limits = %d MB / %d min", m.MemoryMB, m.TimeMin)
	}
	if m.Array != nil || m.Dependency != nil {
		t.Fatal("master must be a single job without dependencies")
	}
}

func TestPlanWorkerRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	layout := testLayout(t)

	plan, err := testPlanner(cfg).Plan(layout, "myrun.03", defaultOptions())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	w := plan.WorkerAfter("777")
	if w.Array == nil || w.Array.String() != "0-3" {
		t.Fatalf("worker array = %+v", w.Array)
	}
	if w.Dependency == nil || w.Dependency.String() != "after:777" {
		t.Fatalf("worker dependency = %+v", w.Dependency)
	}
	if w.NoRequeue {
		t.Fatal("workers may be requeued")
	}
	if w.MemoryMB != 2048 || w.TimeMin != 90 {
		t.Fatalf("worker limits = %d MB / %d min", w.MemoryMB, w.TimeMin)
	}
	if strings.Join(w.Partitions, ",") != "serial_requeue" {
		t.Fatalf("worker partitions = %v", w.Partitions)
	}
	if w.Output != layout.WorkerLogPattern() {
		t.Fatalf("worker output = %q", w.Output)
	}
	if plan.Worker.Dependency != nil {
		t.Fatal("WorkerAfter must not mutate the plan")
	}
}

func TestPlanRejectsPreemptibleMaster(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Scheduler.MasterPartitions = []string{"shared", "serial_requeue"}

	_, err := testPlanner(cfg).Plan(testLayout(t), "myrun.03", defaultOptions())
	if !errors.Is(err, ErrPreemptibleCoordinator) {
		t.Fatalf("expected ErrPreemptibleCoordinator, got %v", err)
	}
}

func TestPlanRejectsBadOptions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cases := map[string]Options{
		"no workers": {Workers: 0, MemMB: 1, TimeMin: 1},
		"no memory":  {Workers: 1, MemMB: 0, TimeMin: 1},
		"no time":    {Workers: 1, MemMB: 1, TimeMin: -5},
	}
	for name, opts := range cases {
		if _, err := testPlanner(cfg).Plan(testLayout(t), "x.00", opts); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestPlanPostProcessDisabledByDefault(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	plan, err := testPlanner(cfg).Plan(testLayout(t), "myrun.03", defaultOptions())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.PostProcess != nil || plan.PostProcessAfter("1") != nil {
		t.Fatal("post-processing should be disabled")
	}
}

func TestSubmitRecordsJobIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	layout := testLayout(t)
	plan, err := testPlanner(cfg).Plan(layout, "myrun.03", defaultOptions())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	sub := &testsupport.RecordingSubmitter{}
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	result, err := Submit(context.Background(), sub, plan, now, logging.NewNop())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.MasterID != "1001" || result.ArrayID != "1002" {
		t.Fatalf("result = %+v", result)
	}

	reqs := sub.Submitted()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(reqs))
	}
	if reqs[1].Dependency == nil || reqs[1].Dependency.String() != "after:1001" {
		t.Fatalf("worker dependency = %+v", reqs[1].Dependency)
	}

	if got := testsupport.ReadFile(t, layout.Path(staging.FileLaunchJobID)); got != "1001\n" {
		t.Fatalf("launchjobid = %q", got)
	}
	if got := testsupport.ReadFile(t, layout.Path(staging.FileWorkerJobID)); got != "1002\n" {
		t.Fatalf("worker-arraymasterids = %q", got)
	}
	wall := testsupport.ReadFile(t, layout.Path(staging.FileSubmitWallTime))
	if wall != strconv.FormatInt(now.Unix(), 10)+"\n" {
		t.Fatalf("submit.wallclock = %q", wall)
	}
	master := testsupport.ReadFile(t, layout.Path(staging.FileMasterEnv))
	if !strings.Contains(master, "PASS_IS_MASTER=1\x00") {
		t.Fatalf("master.sbenv = %q", master)
	}
	worker := testsupport.ReadFile(t, layout.Path(staging.FileWorkerEnv))
	if !strings.Contains(worker, "PASS_IS_MASTER=0\x00") {
		t.Fatalf("worker.sbenv = %q", worker)
	}
}

func TestSubmitStopsWhenMasterFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	layout := testLayout(t)
	plan, err := testPlanner(cfg).Plan(layout, "myrun.03", defaultOptions())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	boom := errors.New("sbatch: error: invalid partition")
	sub := &testsupport.RecordingSubmitter{FailAt: 1, Err: boom}
	_, err = Submit(context.Background(), sub, plan, time.Now(), logging.NewNop())
	if !errors.Is(err, boom) {
		t.Fatalf("expected scheduler error, got %v", err)
	}
	if len(sub.Submitted()) != 1 {
		t.Fatalf("worker array should not be submitted after master failure")
	}
	if _, err := os.Stat(layout.Path(staging.FileLaunchJobID)); !os.IsNotExist(err) {
		t.Fatalf("launchjobid should not exist, stat err = %v", err)
	}
}

func TestSubmitPostProcessAfterWorkers(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPostProcess())
	layout := testLayout(t)
	plan, err := testPlanner(cfg).Plan(layout, "myrun.03", defaultOptions())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	sub := &testsupport.RecordingSubmitter{}
	result, err := Submit(context.Background(), sub, plan, time.Now(), logging.NewNop())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	reqs := sub.Submitted()
	if len(reqs) != 3 {
		t.Fatalf("expected 3 submissions, got %d", len(reqs))
	}
	post := reqs[2]
	if post.Script != support.PostProcess {
		t.Fatalf("post script = %q", post.Script)
	}
	if post.Dependency == nil || post.Dependency.String() != "afterany:1002" {
		t.Fatalf("post dependency = %+v", post.Dependency)
	}
	if result.PostProcessID != "1003" {
		t.Fatalf("post id = %q", result.PostProcessID)
	}
}
