// Package scheduler defines the job submission contract shared by the batch
// scheduler backend and the local process backend.
package scheduler

import (
	"context"
	"fmt"
	"strings"
)

// JobID is the identifier a backend assigns to an accepted submission.
type JobID string

func (id JobID) String() string { return string(id) }

// OpenMode controls how job output files are opened.
type OpenMode int

const (
	OpenModeTruncate OpenMode = iota
	OpenModeAppend
)

// DependencyKind names an ordering constraint between jobs.
type DependencyKind string

const (
	// DependAfter starts the dependent once the named job has begun.
	DependAfter DependencyKind = "after"
	// DependAfterAny starts the dependent once the named job has ended in
	// any state.
	DependAfterAny DependencyKind = "afterany"
)

// Dependency orders a submission after another job.
type Dependency struct {
	Kind  DependencyKind
	JobID JobID
}

func (d Dependency) String() string {
	return string(d.Kind) + ":" + d.JobID.String()
}

// Array describes an array job of Count tasks numbered 0..Count-1.
type Array struct {
	Count int
}

func (a Array) String() string {
	return fmt.Sprintf("0-%d", a.Count-1)
}

// Request is one job submission.
type Request struct {
	Name       string
	Dir        string
	Script     string
	EnvFile    string
	Env        []string
	Output     string
	OpenMode   OpenMode
	MemoryMB   int
	TimeMin    int
	Partitions []string
	NoRequeue  bool
	Dependency *Dependency
	Array      *Array
}

// Submitter accepts job submissions.
type Submitter interface {
	Submit(ctx context.Context, req Request) (JobID, error)
}

// Waiter is implemented by backends whose jobs run as children of the
// launcher. Wait returns once all of them have exited.
type Waiter interface {
	Wait() error
}

// Validate checks fields every backend needs.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Dir) == "" {
		return fmt.Errorf("submit %s: working directory is required", r.Name)
	}
	if strings.TrimSpace(r.Script) == "" {
		return fmt.Errorf("submit %s: script is required", r.Name)
	}
	if r.Array != nil && r.Array.Count < 1 {
		return fmt.Errorf("submit %s: array needs at least one task, got %d", r.Name, r.Array.Count)
	}
	if r.Dependency != nil && r.Dependency.JobID == "" {
		return fmt.Errorf("submit %s: dependency has no job id", r.Name)
	}
	return nil
}
