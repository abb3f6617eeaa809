// Package passinfo reads back what the launcher recorded in each pass
// directory of a work directory.
package passinfo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"passlaunch/internal/pass"
	"passlaunch/internal/staging"
)

// Pass summarizes one pass directory. Fields for files that were never
// written are left empty, which is how partially staged or partially
// submitted passes show up.
type Pass struct {
	Seq         pass.Sequence
	Name        string
	Dir         string
	PassID      string
	JobName     string
	MasterJobID string
	ArrayJobID  string
	Submitted   time.Time
	MaxAttempts string
	TaskIDRegex string
}

// Complete reports whether both jobs were accepted by the scheduler.
func (p Pass) Complete() bool {
	return p.MasterJobID != "" && p.ArrayJobID != ""
}

// List returns every pass in workDir in sequence order.
func List(workDir string) ([]Pass, error) {
	dirs, err := pass.List(workDir)
	if err != nil {
		return nil, err
	}
	out := make([]Pass, 0, len(dirs))
	for _, d := range dirs {
		p, err := read(filepath.Join(workDir, d.Name))
		if err != nil {
			return nil, fmt.Errorf("read pass %s: %w", d.Name, err)
		}
		p.Seq = d.Seq
		p.Name = d.Name
		out = append(out, p)
	}
	return out, nil
}

func read(dir string) (Pass, error) {
	p := Pass{Dir: dir}
	fields := []struct {
		name   string
		target *string
	}{
		{staging.FilePassID, &p.PassID},
		{staging.FileJobName, &p.JobName},
		{staging.FileLaunchJobID, &p.MasterJobID},
		{staging.FileWorkerJobID, &p.ArrayJobID},
		{staging.FileMaxAttempts, &p.MaxAttempts},
		{staging.FileTaskIDRegex, &p.TaskIDRegex},
	}
	for _, f := range fields {
		value, err := readValue(dir, f.name)
		if err != nil {
			return p, err
		}
		*f.target = value
	}

	wall, err := readValue(dir, staging.FileSubmitWallTime)
	if err != nil {
		return p, err
	}
	if wall != "" {
		secs, err := strconv.ParseInt(wall, 10, 64)
		if err != nil {
			return p, fmt.Errorf("parse %s: %w", staging.FileSubmitWallTime, err)
		}
		p.Submitted = time.Unix(secs, 0)
	}
	return p, nil
}

func readValue(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
