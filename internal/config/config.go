package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains filesystem locations used when staging passes.
type Paths struct {
	ProjectRoot  string `toml:"project_root"`
	BulkDataRoot string `toml:"bulk_data_root"`
	SupportDir   string `toml:"support_dir"`
}

// Scheduler contains configuration for job submission.
type Scheduler struct {
	Backend               string   `toml:"backend"`
	SbatchBinary          string   `toml:"sbatch_binary"`
	MasterPartitions      []string `toml:"master_partitions"`
	PreemptiblePartitions []string `toml:"preemptible_partitions"`
	MasterMemMB           int      `toml:"master_mem_mb"`
	MasterTimeMinutes     int      `toml:"master_time_minutes"`
	// PostProcess enables the follow-up job submitted after the worker array
	// finishes. Disabled by default.
	PostProcess bool `toml:"postprocess"`
	// KillGraceSeconds bounds how long local workers get between SIGTERM and
	// SIGKILL when the launcher is interrupted.
	KillGraceSeconds int `toml:"kill_grace_seconds"`
}

// Defaults holds the values used when `process` flags are omitted.
type Defaults struct {
	Workers        int    `toml:"workers"`
	MaxTimeMinutes int    `toml:"max_time_minutes"`
	MemMB          int    `toml:"mem_mb"`
	Partition      string `toml:"partition"`
	Identifier     string `toml:"identifier"`
}

// Environment controls the explicit variable set handed to batch jobs.
type Environment struct {
	Path string `toml:"path"`
}

// Allocation selects how the work-directory lock is taken.
type Allocation struct {
	Lock string `toml:"lock"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for passlaunch.
//
// Configuration sections by subsystem:
//   - Paths: project root, bulk-data root, optional support-script directory
//   - Scheduler: backend selection, coordinator placement and limits
//   - Defaults: worker count, limits, partition and identifier for `process`
//   - Environment: fixed PATH exported to jobs
//   - Allocation: lock strategy for pass allocation
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Scheduler   Scheduler   `toml:"scheduler"`
	Defaults    Defaults    `toml:"defaults"`
	Environment Environment `toml:"environment"`
	Allocation  Allocation  `toml:"allocation"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("passlaunch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// IsLocal reports whether jobs run as local processes instead of being
// submitted to the batch scheduler.
func (c *Config) IsLocal() bool {
	return c.Scheduler.Backend == BackendLocal
}

// IsPreemptible reports whether the named partition may evict and requeue jobs.
func (c *Config) IsPreemptible(partition string) bool {
	partition = strings.TrimSpace(partition)
	for _, p := range c.Scheduler.PreemptiblePartitions {
		if p == partition {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
