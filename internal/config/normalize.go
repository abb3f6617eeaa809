package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScheduler()
	c.normalizeDefaults()
	c.normalizeEnvironment()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("PASSLAUNCH_TOP"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ProjectRoot = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("PASSLAUNCH_BULKDATA"); ok && strings.TrimSpace(value) != "" {
		c.Paths.BulkDataRoot = strings.TrimSpace(value)
	}

	var err error
	if strings.TrimSpace(c.Paths.ProjectRoot) == "" {
		c.Paths.ProjectRoot = defaultProjectRoot
	}
	if c.Paths.ProjectRoot, err = expandPath(strings.TrimSpace(c.Paths.ProjectRoot)); err != nil {
		return fmt.Errorf("paths.project_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.BulkDataRoot) == "" {
		c.Paths.BulkDataRoot = defaultBulkDataRoot
	}
	if c.Paths.BulkDataRoot, err = expandPath(strings.TrimSpace(c.Paths.BulkDataRoot)); err != nil {
		return fmt.Errorf("paths.bulk_data_root: %w", err)
	}
	if c.Paths.SupportDir, err = expandPath(strings.TrimSpace(c.Paths.SupportDir)); err != nil {
		return fmt.Errorf("paths.support_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScheduler() {
	c.Scheduler.Backend = strings.ToLower(strings.TrimSpace(c.Scheduler.Backend))
	if c.Scheduler.Backend == "" {
		c.Scheduler.Backend = BackendSlurm
	}
	c.Scheduler.SbatchBinary = strings.TrimSpace(c.Scheduler.SbatchBinary)
	if c.Scheduler.SbatchBinary == "" {
		c.Scheduler.SbatchBinary = defaultSbatchBinary
	}
	c.Scheduler.MasterPartitions = cleanList(c.Scheduler.MasterPartitions)
	c.Scheduler.PreemptiblePartitions = cleanList(c.Scheduler.PreemptiblePartitions)
	if c.Scheduler.MasterMemMB <= 0 {
		c.Scheduler.MasterMemMB = defaultMasterMemMB
	}
	if c.Scheduler.MasterTimeMinutes <= 0 {
		c.Scheduler.MasterTimeMinutes = defaultMasterTimeMinutes
	}
	if c.Scheduler.KillGraceSeconds < 0 {
		c.Scheduler.KillGraceSeconds = defaultKillGraceSeconds
	}
}

func (c *Config) normalizeDefaults() {
	c.Defaults.Partition = strings.TrimSpace(c.Defaults.Partition)
	c.Defaults.Identifier = strings.TrimSpace(c.Defaults.Identifier)
	if c.Defaults.Identifier == "" {
		c.Defaults.Identifier = defaultIdentifier
	}
}

func (c *Config) normalizeEnvironment() {
	c.Environment.Path = strings.TrimSpace(c.Environment.Path)
	if c.Environment.Path == "" {
		c.Environment.Path = defaultEnvironmentPath
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// cleanList trims entries and drops blanks and duplicates, preserving order.
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
