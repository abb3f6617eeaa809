package pass

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"passlaunch/internal/logging"
)

// Allocator hands out pass sequences for one work directory.
type Allocator struct {
	workDir string
	locker  Locker
	logger  *slog.Logger
}

// NewAllocator constructs an allocator. A nil locker defaults to MarkerLocker.
func NewAllocator(workDir string, locker Locker, logger *slog.Logger) *Allocator {
	if locker == nil {
		locker = MarkerLocker{}
	}
	return &Allocator{
		workDir: workDir,
		locker:  locker,
		logger:  logging.NewComponentLogger(logger, "allocator"),
	}
}

// Allocate computes the next sequence under the work-directory lock and
// calls reserve with it before releasing the lock. reserve must create the
// pass directory so that the next scan sees it. If reserve fails the
// sequence is not considered allocated.
func (a *Allocator) Allocate(ctx context.Context, reserve func(Sequence) error) (seq Sequence, err error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	lock, err := a.locker.TryLock(a.workDir)
	if err != nil {
		return 0, err
	}
	a.logger.Debug("allocation lock acquired", logging.String(logging.FieldWorkDir, a.workDir))
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			err = errors.Join(err, fmt.Errorf("release allocation lock: %w", releaseErr))
		}
	}()

	next, err := Next(a.workDir)
	if err != nil {
		return 0, err
	}
	if reserve != nil {
		if err := reserve(next); err != nil {
			return 0, err
		}
	}

	a.logger.Info("pass sequence allocated",
		logging.String(logging.FieldWorkDir, a.workDir),
		logging.String(logging.FieldSequence, next.String()),
	)
	return next, nil
}
