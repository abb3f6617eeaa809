// Package submit builds and submits the master and worker jobs of a pass.
//
// The master job runs in the pass directory on a partition that never
// preempts, with requeue disabled: losing it would orphan the workers that
// depend on it. Workers form an array that may land on a preemptible
// partition and may be requeued; each starts only after the master job, via
// a declarative dependency on the master's job id.
package submit

import (
	"errors"
	"fmt"
	"log/slog"

	"passlaunch/internal/config"
	"passlaunch/internal/logging"
	"passlaunch/internal/scheduler"
	"passlaunch/internal/staging"
	"passlaunch/internal/support"
)

// ErrPreemptibleCoordinator is returned when the master job would be placed
// on a partition that can evict and requeue it.
var ErrPreemptibleCoordinator = errors.New("master job cannot run on a preemptible partition")

// Options are the per-invocation worker limits.
type Options struct {
	Workers   int
	MemMB     int
	TimeMin   int
	Partition string
}

// Plan holds the requests for one pass. Worker has no dependency until
// WorkerAfter binds it to the master's job id.
type Plan struct {
	Master      scheduler.Request
	Worker      scheduler.Request
	PostProcess *scheduler.Request
	MasterEnv   Environment
	WorkerEnv   Environment
}

// WorkerAfter returns the worker request ordered after masterID.
func (p Plan) WorkerAfter(masterID scheduler.JobID) scheduler.Request {
	req := p.Worker
	req.Dependency = &scheduler.Dependency{Kind: scheduler.DependAfter, JobID: masterID}
	return req
}

// PostProcessAfter returns the follow-up request ordered after the worker
// array has ended, or nil when post-processing is disabled.
func (p Plan) PostProcessAfter(arrayID scheduler.JobID) *scheduler.Request {
	if p.PostProcess == nil {
		return nil
	}
	req := *p.PostProcess
	req.Dependency = &scheduler.Dependency{Kind: scheduler.DependAfterAny, JobID: arrayID}
	return &req
}

// Planner turns configuration and options into submission requests.
type Planner struct {
	cfg    *config.Config
	id     Identity
	logger *slog.Logger
}

// NewPlanner constructs a Planner for the given submitting identity.
func NewPlanner(cfg *config.Config, id Identity, logger *slog.Logger) *Planner {
	return &Planner{cfg: cfg, id: id, logger: logging.NewComponentLogger(logger, "planner")}
}

// Check rejects options and coordinator placement that cannot be submitted.
// It touches nothing on disk.
func (p *Planner) Check(opts Options) error {
	if opts.Workers < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", opts.Workers)
	}
	if opts.MemMB <= 0 {
		return fmt.Errorf("worker memory must be positive, got %d MB", opts.MemMB)
	}
	if opts.TimeMin <= 0 {
		return fmt.Errorf("worker time limit must be positive, got %d minutes", opts.TimeMin)
	}
	if len(p.cfg.Scheduler.MasterPartitions) == 0 {
		return errors.New("no master partitions configured")
	}
	for _, partition := range p.cfg.Scheduler.MasterPartitions {
		if p.cfg.IsPreemptible(partition) {
			return fmt.Errorf("%w: %s", ErrPreemptibleCoordinator, partition)
		}
	}
	return nil
}

// Plan builds the requests for a staged pass.
func (p *Planner) Plan(layout staging.Layout, jobName string, opts Options) (Plan, error) {
	if err := p.Check(opts); err != nil {
		return Plan{}, err
	}

	masterEnv := BuildEnvironment(p.cfg, p.id, RoleMaster)
	workerEnv := BuildEnvironment(p.cfg, p.id, RoleWorker)

	plan := Plan{
		MasterEnv: masterEnv,
		WorkerEnv: workerEnv,
		Master: scheduler.Request{
			Name:       jobName,
			Dir:        layout.Dir,
			Script:     support.Launcher,
			EnvFile:    layout.Path(staging.FileMasterEnv),
			Env:        masterEnv.List(),
			Output:     layout.Path(staging.FileMasterLog),
			OpenMode:   scheduler.OpenModeAppend,
			MemoryMB:   p.cfg.Scheduler.MasterMemMB,
			TimeMin:    p.cfg.Scheduler.MasterTimeMinutes,
			Partitions: append([]string{}, p.cfg.Scheduler.MasterPartitions...),
			NoRequeue:  true,
		},
		Worker: scheduler.Request{
			Name:     jobName,
			Dir:      layout.Dir,
			Script:   support.Launcher,
			EnvFile:  layout.Path(staging.FileWorkerEnv),
			Env:      workerEnv.List(),
			Output:   layout.WorkerLogPattern(),
			OpenMode: scheduler.OpenModeAppend,
			MemoryMB: opts.MemMB,
			TimeMin:  opts.TimeMin,
			Array:    &scheduler.Array{Count: opts.Workers},
		},
	}
	if opts.Partition != "" {
		plan.Worker.Partitions = []string{opts.Partition}
	}

	if p.cfg.Scheduler.PostProcess {
		post := plan.Master
		post.Name = jobName + ".post"
		post.Script = support.PostProcess
		post.Output = layout.Path(staging.FilePostProcessLog)
		plan.PostProcess = &post
	}

	p.logger.Debug("submission planned",
		logging.String(logging.FieldJobName, jobName),
		logging.Int("workers", opts.Workers),
		logging.String("worker_partition", opts.Partition),
		logging.Bool("postprocess", plan.PostProcess != nil),
	)
	return plan, nil
}

// WriteEnvFiles writes master.sbenv and worker.sbenv into the pass.
func (p Plan) WriteEnvFiles() error {
	if err := WriteEnvFile(p.Master.EnvFile, p.MasterEnv); err != nil {
		return fmt.Errorf("%s: %w", staging.FileMasterEnv, err)
	}
	if err := WriteEnvFile(p.Worker.EnvFile, p.WorkerEnv); err != nil {
		return fmt.Errorf("%s: %w", staging.FileWorkerEnv, err)
	}
	return nil
}
