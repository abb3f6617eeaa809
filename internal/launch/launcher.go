package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"passlaunch/internal/config"
	"passlaunch/internal/deps"
	"passlaunch/internal/logging"
	"passlaunch/internal/pass"
	"passlaunch/internal/preflight"
	"passlaunch/internal/scheduler"
	"passlaunch/internal/scheduler/local"
	"passlaunch/internal/scheduler/slurm"
	"passlaunch/internal/staging"
	"passlaunch/internal/submit"
	"passlaunch/internal/workdir"
)

// Result describes a submitted pass.
type Result struct {
	WorkDir          string
	PassDir          string
	PassID           pass.ID
	JobName          string
	BulkData         string
	MasterJobID      scheduler.JobID
	ArrayJobID       scheduler.JobID
	PostProcessJobID scheduler.JobID
}

// Launcher runs the pass pipeline against one scheduler backend.
type Launcher struct {
	cfg       *config.Config
	submitter scheduler.Submitter
	locker    pass.Locker
	stager    *staging.Stager
	planner   *submit.Planner
	now       func() time.Time
	logger    *slog.Logger
}

// NewSubmitter returns the backend selected by cfg.
func NewSubmitter(cfg *config.Config, logger *slog.Logger) scheduler.Submitter {
	if cfg.IsLocal() {
		grace := time.Duration(cfg.Scheduler.KillGraceSeconds) * time.Second
		return local.New(grace, logger)
	}
	return slurm.New(cfg.Scheduler.SbatchBinary, logger)
}

// New constructs a Launcher submitting through submitter. The invoking user
// becomes the HOME and USER of every job.
func New(cfg *config.Config, submitter scheduler.Submitter, logger *slog.Logger) (*Launcher, error) {
	if cfg == nil {
		return nil, errors.New("launcher requires configuration")
	}
	if submitter == nil {
		return nil, errors.New("launcher requires a submitter")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	id, err := submit.CurrentIdentity()
	if err != nil {
		return nil, err
	}
	return &Launcher{
		cfg:       cfg,
		submitter: submitter,
		locker:    pass.NewLocker(cfg.Allocation.Lock),
		stager:    staging.New(cfg, logger),
		planner:   submit.NewPlanner(cfg, id, logger),
		now:       time.Now,
		logger:    logging.NewComponentLogger(logger, "launch"),
	}, nil
}

// Preflight confirms the programs required by the configured backend exist
// and the configured paths are usable. Optional failures are logged, not
// fatal.
func (l *Launcher) Preflight() error {
	var missing []string
	for _, result := range preflight.RunAll(l.cfg) {
		if result.Passed {
			continue
		}
		if result.Optional {
			logging.WarnWithContext(l.logger, "optional path unavailable", "preflight",
				logging.String("check", result.Name),
				logging.String(logging.FieldErrorHint, result.Detail),
			)
			continue
		}
		missing = append(missing, fmt.Sprintf("%s (%s)", result.Name, result.Detail))
	}
	for _, status := range deps.CheckBinaries(deps.Requirements(l.cfg)) {
		if status.Available {
			continue
		}
		if status.Optional {
			logging.WarnWithContext(l.logger, "optional program unavailable", "preflight",
				logging.String("program", status.Name),
				logging.String(logging.FieldErrorHint, status.Detail),
			)
			continue
		}
		missing = append(missing, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
	}
	if len(missing) > 0 {
		return fmt.Errorf("preflight failed: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Run stages and submits one pass. With a backend that runs jobs as child
// processes, Run returns once they have all exited.
func (l *Launcher) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if err := l.planner.Check(req.options()); err != nil {
		return Result{}, err
	}

	workDir, err := workdir.Resolve(req.WorkDir)
	if err != nil {
		return Result{}, err
	}
	req.WorkDir = workDir
	result := Result{WorkDir: workDir}

	now := l.now()
	var id pass.ID
	allocator := pass.NewAllocator(workDir, l.locker, l.logger)
	if _, err := allocator.Allocate(ctx, func(seq pass.Sequence) error {
		id = pass.NewID(seq, req.Identifier, now)
		return l.stager.CreatePassDir(staging.PassDir(workDir, id))
	}); err != nil {
		return result, err
	}
	result.PassID = id
	result.PassDir = staging.PassDir(workDir, id)

	params := req.stagingParams(id)
	result.JobName = params.JobName()
	logger := l.logger.With(
		logging.String(logging.FieldPassID, id.String()),
		logging.String(logging.FieldJobName, result.JobName),
	)

	layout, err := l.stager.Stage(ctx, result.PassDir, params)
	if err != nil {
		return result, fmt.Errorf("stage pass %s: %w", id, err)
	}
	result.BulkData = layout.BulkData

	plan, err := l.planner.Plan(layout, result.JobName, req.options())
	if err != nil {
		return result, err
	}
	submitted, err := submit.Submit(ctx, l.submitter, plan, now, logger)
	result.MasterJobID = submitted.MasterID
	result.ArrayJobID = submitted.ArrayID
	result.PostProcessJobID = submitted.PostProcessID
	if waiter, ok := l.submitter.(scheduler.Waiter); ok {
		logger.Info("waiting for local jobs")
		if waitErr := waiter.Wait(); waitErr != nil && err == nil {
			err = fmt.Errorf("pass %s: %w", id, waitErr)
		}
	}
	if err != nil {
		return result, err
	}

	logger.Info("pass submitted",
		logging.String("master_job", result.MasterJobID.String()),
		logging.String("array_job", result.ArrayJobID.String()),
	)
	return result, nil
}
