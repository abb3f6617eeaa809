package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateDefaults(); err != nil {
		return err
	}
	if err := c.validateAllocation(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScheduler() error {
	switch c.Scheduler.Backend {
	case BackendSlurm, BackendLocal:
	default:
		return fmt.Errorf("scheduler.backend: unsupported value %q (want %q or %q)", c.Scheduler.Backend, BackendSlurm, BackendLocal)
	}
	if len(c.Scheduler.MasterPartitions) == 0 {
		return errors.New("scheduler.master_partitions must list at least one partition")
	}
	for _, p := range c.Scheduler.MasterPartitions {
		if c.IsPreemptible(p) {
			return fmt.Errorf("scheduler.master_partitions: %q is listed as preemptible; the master job must not be requeued", p)
		}
	}
	return nil
}

func (c *Config) validateDefaults() error {
	if c.Defaults.Workers <= 0 {
		return errors.New("defaults.workers must be positive")
	}
	if c.Defaults.MaxTimeMinutes <= 0 {
		return errors.New("defaults.max_time_minutes must be positive")
	}
	if c.Defaults.MemMB <= 0 {
		return errors.New("defaults.mem_mb must be positive")
	}
	if strings.ContainsAny(c.Defaults.Identifier, "/. \t") {
		return fmt.Errorf("defaults.identifier %q must not contain dots, slashes or whitespace", c.Defaults.Identifier)
	}
	return nil
}

func (c *Config) validateAllocation() error {
	switch strings.ToLower(strings.TrimSpace(c.Allocation.Lock)) {
	case "", LockMarker, LockFlock:
		return nil
	default:
		return fmt.Errorf("allocation.lock: unsupported value %q (want %q or %q)", c.Allocation.Lock, LockMarker, LockFlock)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
