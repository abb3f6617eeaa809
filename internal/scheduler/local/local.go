// Package local runs pass jobs as child processes of the launcher, for
// development without cluster access.
//
// Submit starts a request and returns without waiting for it. An `after`
// dependency is satisfied as soon as Submit returns because the parent has
// already started; an `afterany` dependent is started once its parent has
// exited. Wait blocks until every submitted job has exited. Each process
// runs in its own process group. When the context is cancelled every group
// receives SIGTERM, then SIGKILL once the grace period lapses.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"passlaunch/internal/logging"
	"passlaunch/internal/scheduler"
)

// ArrayTaskEnv carries the array index to each local worker, matching the
// variable the batch scheduler sets.
const ArrayTaskEnv = "SLURM_ARRAY_TASK_ID"

// Runner executes requests locally.
type Runner struct {
	grace  time.Duration
	logger *slog.Logger
	seq    atomic.Int64

	mu      sync.Mutex
	jobs    map[scheduler.JobID]*job
	order   []scheduler.JobID
	running sync.WaitGroup
}

type job struct {
	done chan struct{}
	err  error
}

var (
	_ scheduler.Submitter = (*Runner)(nil)
	_ scheduler.Waiter    = (*Runner)(nil)
)

// New returns a Runner that waits grace between SIGTERM and SIGKILL.
func New(grace time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		grace:  grace,
		logger: logging.NewComponentLogger(logger, "local"),
		jobs:   make(map[scheduler.JobID]*job),
	}
}

// Submit starts req and returns its id. Failures after start are reported
// by Wait.
func (r *Runner) Submit(ctx context.Context, req scheduler.Request) (scheduler.JobID, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	var parent *job
	if req.Dependency != nil {
		r.mu.Lock()
		parent = r.jobs[req.Dependency.JobID]
		r.mu.Unlock()
		if parent == nil {
			return "", fmt.Errorf("submit %s: unknown dependency %s", req.Name, req.Dependency)
		}
	}
	id := scheduler.JobID(fmt.Sprintf("local-%d.%d", os.Getpid(), r.seq.Add(1)))
	j := &job{done: make(chan struct{})}

	if parent != nil && req.Dependency.Kind == scheduler.DependAfterAny {
		r.track(id, j)
		go func() {
			select {
			case <-parent.done:
			case <-ctx.Done():
				r.finish(j, fmt.Errorf("local job %s not started: %w", req.Name, ctx.Err()))
				return
			}
			wait, err := r.start(ctx, req)
			if err != nil {
				r.finish(j, err)
				return
			}
			r.finish(j, wait())
		}()
		return id, nil
	}

	wait, err := r.start(ctx, req)
	if err != nil {
		return "", err
	}
	r.track(id, j)
	go func() { r.finish(j, wait()) }()
	return id, nil
}

// Wait blocks until every job submitted so far has exited and returns their
// failures in submission order. The runner forgets finished jobs, so a later
// Wait reports only newer submissions.
func (r *Runner) Wait() error {
	r.running.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, id := range r.order {
		if err := r.jobs[id].err; err != nil {
			errs = append(errs, err)
		}
	}
	r.jobs = make(map[scheduler.JobID]*job)
	r.order = nil
	return errors.Join(errs...)
}

func (r *Runner) track(id scheduler.JobID, j *job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id] = j
	r.order = append(r.order, id)
	r.running.Add(1)
}

func (r *Runner) finish(j *job, err error) {
	r.mu.Lock()
	j.err = err
	r.mu.Unlock()
	close(j.done)
	r.running.Done()
}

// start launches every process of req and returns a function that waits for
// all of them.
func (r *Runner) start(ctx context.Context, req scheduler.Request) (func() error, error) {
	if req.Array == nil {
		wait, err := r.startProcess(ctx, req, req.Env, expandOutput(req.Output, 0))
		if err != nil {
			return nil, fmt.Errorf("local job %s: %w", req.Name, err)
		}
		return func() error {
			if err := wait(); err != nil {
				return fmt.Errorf("local job %s: %w", req.Name, err)
			}
			return nil
		}, nil
	}

	var g errgroup.Group
	started := 0
	var firstErr error
	for i := 0; i < req.Array.Count; i++ {
		env := append(append([]string{}, req.Env...), ArrayTaskEnv+"="+strconv.Itoa(i))
		wait, err := r.startProcess(ctx, req, env, expandOutput(req.Output, i))
		if err != nil {
			err = fmt.Errorf("local worker %d: %w", i, err)
			if firstErr == nil {
				firstErr = err
			}
			g.Go(func() error { return err })
			continue
		}
		started++
		g.Go(func() error {
			if err := wait(); err != nil {
				return fmt.Errorf("local worker %d: %w", i, err)
			}
			return nil
		})
	}
	if started == 0 {
		return nil, firstErr
	}
	return g.Wait, nil
}

func (r *Runner) startProcess(ctx context.Context, req scheduler.Request, env []string, output string) (func() error, error) {
	out, err := openOutput(output, req.OpenMode)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, filepath.Join(req.Dir, req.Script))
	cmd.Dir = req.Dir
	cmd.Env = env
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return signalGroup(cmd.Process.Pid, unix.SIGTERM)
	}
	cmd.WaitDelay = r.grace

	if err := cmd.Start(); err != nil {
		out.Close()
		return nil, fmt.Errorf("start %s: %w", req.Script, err)
	}
	pid := cmd.Process.Pid
	r.logger.Debug("local process started",
		logging.String(logging.FieldJobName, req.Name),
		logging.Int("pid", pid),
	)

	done := make(chan struct{})
	go func() {
		select {
		case <-done:
			return
		case <-ctx.Done():
		}
		timer := time.NewTimer(r.grace)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
			_ = signalGroup(pid, unix.SIGKILL)
		}
	}()

	return func() error {
		err := cmd.Wait()
		close(done)
		out.Close()
		if err != nil && ctx.Err() != nil {
			return fmt.Errorf("interrupted: %w", ctx.Err())
		}
		return err
	}, nil
}

// signalGroup signals the whole process group led by pid. A group that has
// already exited is not an error.
func signalGroup(pid int, sig syscall.Signal) error {
	if err := unix.Kill(-pid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		return err
	}
	return nil
}

func expandOutput(pattern string, index int) string {
	return strings.ReplaceAll(pattern, "%a", strconv.Itoa(index))
}

func openOutput(path string, mode scheduler.OpenMode) (*os.File, error) {
	if path == "" {
		return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	}
	flags := os.O_CREATE | os.O_WRONLY
	if mode == scheduler.OpenModeAppend {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open job output: %w", err)
	}
	return f, nil
}
