package preflight

import (
	"passlaunch/internal/config"
)

// Result reports the outcome of a single preflight check. Optional results
// are advisory: a failure is reported but does not block a launch.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes the path checks for cfg.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckCreatableDirectory("Bulk data root", cfg.Paths.BulkDataRoot),
	}

	top := CheckReadableDirectory("Project root", cfg.Paths.ProjectRoot)
	top.Optional = true
	results = append(results, top)

	if cfg.Paths.SupportDir != "" {
		results = append(results, CheckReadableDirectory("Support directory", cfg.Paths.SupportDir))
	}
	return results
}

// Failed returns the required results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}
