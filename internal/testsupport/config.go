package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"passlaunch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ProjectRoot = filepath.Join(base, "project")
	cfgVal.Paths.BulkDataRoot = filepath.Join(base, "bulk")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackend selects the scheduler backend on the test config.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scheduler.Backend = backend
	}
}

// WithPostProcess enables the post-processing job.
func WithPostProcess() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scheduler.PostProcess = true
	}
}

// WithStubbedSbatch writes an sbatch stub running body and points the
// scheduler at it. An empty body echoes a fixed job id.
func WithStubbedSbatch(body string) ConfigOption {
	return func(b *configBuilder) {
		if body == "" {
			body = "echo 4242\n"
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, "sbatch")
		if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
			b.t.Fatalf("write sbatch stub: %v", err)
		}
		b.cfg.Scheduler.SbatchBinary = target
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.BulkDataRoot)
}
