package launch

import (
	"errors"
	"fmt"
	"strings"

	"passlaunch/internal/config"
	"passlaunch/internal/pass"
	"passlaunch/internal/staging"
	"passlaunch/internal/submit"
)

// ErrUsage marks invalid invocation arguments.
var ErrUsage = errors.New("usage error")

// Request holds the resolved arguments of one `process` invocation.
// MaxAttempts and TaskIDRegex are nil when the caller did not override them.
type Request struct {
	WorkDir     string
	MaxAttempts *int
	TaskIDRegex *string
	MaxTimeMin  int
	Workers     int
	MemMB       int
	Partition   string
	Identifier  string
}

// DefaultRequest returns a request for workDir populated from configured
// defaults.
func DefaultRequest(cfg *config.Config, workDir string) Request {
	return Request{
		WorkDir:    workDir,
		MaxTimeMin: cfg.Defaults.MaxTimeMinutes,
		Workers:    cfg.Defaults.Workers,
		MemMB:      cfg.Defaults.MemMB,
		Partition:  cfg.Defaults.Partition,
		Identifier: cfg.Defaults.Identifier,
	}
}

// Validate reports argument problems as ErrUsage.
func (r Request) Validate() error {
	if strings.TrimSpace(r.WorkDir) == "" {
		return fmt.Errorf("%w: work directory is required", ErrUsage)
	}
	if r.Workers < 1 {
		return fmt.Errorf("%w: --nworkers must be at least 1, got %d", ErrUsage, r.Workers)
	}
	if r.MemMB <= 0 {
		return fmt.Errorf("%w: --mem must be positive, got %d", ErrUsage, r.MemMB)
	}
	if r.MaxTimeMin <= 0 {
		return fmt.Errorf("%w: --maxtime must be positive, got %d", ErrUsage, r.MaxTimeMin)
	}
	if strings.TrimSpace(r.Identifier) == "" {
		return fmt.Errorf("%w: --identifier must not be empty", ErrUsage)
	}
	if strings.ContainsAny(r.Identifier, "/. \t\n") {
		return fmt.Errorf("%w: --identifier %q must not contain dots, slashes or whitespace", ErrUsage, r.Identifier)
	}
	if err := r.stagingParams(pass.ID{}).Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

func (r Request) stagingParams(id pass.ID) staging.Params {
	return staging.Params{
		WorkDir:     r.WorkDir,
		ID:          id,
		MaxAttempts: r.MaxAttempts,
		TaskIDRegex: r.TaskIDRegex,
	}
}

func (r Request) options() submit.Options {
	return submit.Options{
		Workers:   r.Workers,
		MemMB:     r.MemMB,
		TimeMin:   r.MaxTimeMin,
		Partition: r.Partition,
	}
}
