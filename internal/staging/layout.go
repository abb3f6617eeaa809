package staging

import "path/filepath"

// Files and directories inside a pass directory.
const (
	WorkerLogsDir      = "worker-logs"
	FileMaxAttempts    = "maxattempts.txt"
	FileTaskIDRegex    = "taskidregex.txt"
	FilePassID         = "passid.txt"
	FileJobName        = "jobname.txt"
	LinkBulkData       = "bulkdata"
	FileMasterEnv      = "master.sbenv"
	FileWorkerEnv      = "worker.sbenv"
	FileSubmitWallTime = "submit.wallclock"
	FileLaunchJobID    = "launchjobid"
	FileWorkerJobID    = "worker-arraymasterids"
	FileSupportDigests = "support.blake3"
	FileMasterLog      = "master.log"
	FilePostProcessLog = "postprocess.log"
)

// Layout holds the resolved paths of a staged pass.
type Layout struct {
	Dir      string
	BulkData string
}

// Path joins name onto the pass directory.
func (l Layout) Path(name string) string {
	return filepath.Join(l.Dir, name)
}

// WorkerLogPattern is the scheduler output path for array tasks; %a expands
// to the array task id.
func (l Layout) WorkerLogPattern() string {
	return filepath.Join(l.Dir, WorkerLogsDir, "%a.log")
}
