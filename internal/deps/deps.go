// Package deps checks the external programs a pass needs before anything
// is allocated.
package deps

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"passlaunch/internal/config"
)

// Requirement defines an external program passlaunch relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the programs needed to launch passes under cfg. The
// scheduler client is only required for the batch backend; the task
// programs under the project root are invoked by the staged wrappers.
func Requirements(cfg *config.Config) []Requirement {
	var reqs []Requirement
	if !cfg.IsLocal() {
		reqs = append(reqs, Requirement{
			Name:        "sbatch",
			Command:     cfg.Scheduler.SbatchBinary,
			Description: "Batch scheduler submission client",
		})
	}
	bin := filepath.Join(cfg.Paths.ProjectRoot, "bin")
	reqs = append(reqs,
		Requirement{
			Name:        "pass-master",
			Command:     filepath.Join(bin, "pass-master"),
			Description: "Master task program",
			Optional:    true,
		},
		Requirement{
			Name:        "pass-worker",
			Command:     filepath.Join(bin, "pass-worker"),
			Description: "Worker task program",
			Optional:    true,
		},
	)
	if cfg.Scheduler.PostProcess {
		reqs = append(reqs, Requirement{
			Name:        "pass-postprocess",
			Command:     filepath.Join(bin, "pass-postprocess"),
			Description: "Post-processing program",
			Optional:    true,
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the required entries that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}
