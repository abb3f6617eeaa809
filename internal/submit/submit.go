package submit

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"passlaunch/internal/fileutil"
	"passlaunch/internal/logging"
	"passlaunch/internal/scheduler"
	"passlaunch/internal/staging"
)

// Result carries the scheduler-assigned ids of a submitted pass.
type Result struct {
	PassDir       string
	MasterID      scheduler.JobID
	ArrayID       scheduler.JobID
	PostProcessID scheduler.JobID
}

// Submit writes the environment payloads, records the submission time, and
// submits the master job, then the worker array ordered after it. Each job
// id is written to the pass directory as soon as it is known.
func Submit(ctx context.Context, sub scheduler.Submitter, plan Plan, now time.Time, logger *slog.Logger) (Result, error) {
	logger = logging.NewComponentLogger(logger, "submit")
	passDir := plan.Master.Dir
	result := Result{PassDir: passDir}

	if err := plan.WriteEnvFiles(); err != nil {
		return result, err
	}
	if err := fileutil.WriteText(passDir, staging.FileSubmitWallTime, strconv.FormatInt(now.Unix(), 10)); err != nil {
		return result, err
	}

	masterID, err := sub.Submit(ctx, plan.Master)
	if err != nil {
		return result, fmt.Errorf("submit master job: %w", err)
	}
	result.MasterID = masterID
	if err := fileutil.WriteText(passDir, staging.FileLaunchJobID, masterID.String()); err != nil {
		return result, err
	}
	logger.Info("master job submitted",
		logging.String(logging.FieldJobID, masterID.String()),
		logging.String(logging.FieldRole, RoleMaster.String()),
	)

	arrayID, err := sub.Submit(ctx, plan.WorkerAfter(masterID))
	if err != nil {
		return result, fmt.Errorf("submit worker array: %w", err)
	}
	result.ArrayID = arrayID
	if err := fileutil.WriteText(passDir, staging.FileWorkerJobID, arrayID.String()); err != nil {
		return result, err
	}
	logger.Info("worker array submitted",
		logging.String(logging.FieldJobID, arrayID.String()),
		logging.String(logging.FieldRole, RoleWorker.String()),
		logging.String("after", masterID.String()),
	)

	if post := plan.PostProcessAfter(arrayID); post != nil {
		postID, err := sub.Submit(ctx, *post)
		if err != nil {
			return result, fmt.Errorf("submit postprocess job: %w", err)
		}
		result.PostProcessID = postID
		logger.Info("postprocess job submitted",
			logging.String(logging.FieldJobID, postID.String()),
			logging.String("script", filepath.Base(post.Script)),
		)
	}
	return result, nil
}
