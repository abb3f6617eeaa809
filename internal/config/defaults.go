package config

const (
	defaultConfigPath           = "~/.config/passlaunch/config.toml"
	defaultProjectRoot          = "~"
	defaultBulkDataRoot         = "~/bulkdata"
	defaultSbatchBinary         = "sbatch"
	defaultMasterMemMB          = 1024
	defaultMasterTimeMinutes    = 720
	defaultKillGraceSeconds     = 10
	defaultWorkers              = 16
	defaultWorkerMaxTimeMinutes = 720
	defaultWorkerMemMB          = 2048
	defaultWorkerPartition      = "serial_requeue"
	defaultIdentifier           = "process"
	defaultEnvironmentPath      = "/usr/local/bin:/usr/bin:/bin"
	defaultLogFormat            = "console"
	defaultLogLevel             = "warn"
	defaultMasterPartition      = "shared"
	defaultPreemptiblePartition = "serial_requeue"
)

// Scheduler backends.
const (
	BackendSlurm = "slurm"
	BackendLocal = "local"
)

// Allocation lock strategies.
const (
	LockMarker = "marker"
	LockFlock  = "flock"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectRoot:  defaultProjectRoot,
			BulkDataRoot: defaultBulkDataRoot,
		},
		Scheduler: Scheduler{
			Backend:               BackendSlurm,
			SbatchBinary:          defaultSbatchBinary,
			MasterPartitions:      []string{defaultMasterPartition},
			PreemptiblePartitions: []string{defaultPreemptiblePartition},
			MasterMemMB:           defaultMasterMemMB,
			MasterTimeMinutes:     defaultMasterTimeMinutes,
			KillGraceSeconds:      defaultKillGraceSeconds,
		},
		Defaults: Defaults{
			Workers:        defaultWorkers,
			MaxTimeMinutes: defaultWorkerMaxTimeMinutes,
			MemMB:          defaultWorkerMemMB,
			Partition:      defaultWorkerPartition,
			Identifier:     defaultIdentifier,
		},
		Environment: Environment{
			Path: defaultEnvironmentPath,
		},
		Allocation: Allocation{
			Lock: LockMarker,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
