// Package support provides the scripts copied into every pass directory.
//
// The scripts are compiled into the binary. A configured support directory
// takes precedence so sites can ship their own wrappers without rebuilding.
package support

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed scripts/*.sh
var embedded embed.FS

// Artifact names a support file and the mode it is staged with.
type Artifact struct {
	Name string
	Mode fs.FileMode
}

// Names of the staged support scripts.
const (
	Launcher       = "launcher.sh"
	ProcessWrapper = "process-wrapper.sh"
	PostProcess    = "postprocess.sh"
)

// Artifacts lists every support file staged into a pass, in staging order.
// All three are invoked directly, so they keep the executable bits.
var Artifacts = []Artifact{
	{Name: ProcessWrapper, Mode: 0o755},
	{Name: PostProcess, Mode: 0o755},
	{Name: Launcher, Mode: 0o755},
}

// Source opens support artifacts from a directory or from the embedded set.
type Source struct {
	dir string
}

// NewSource returns a Source reading from dir, or from the embedded copies
// when dir is empty.
func NewSource(dir string) Source {
	return Source{dir: dir}
}

// Open returns a reader for the named artifact.
func (s Source) Open(name string) (io.ReadCloser, error) {
	if s.dir != "" {
		f, err := os.Open(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("open support file: %w", err)
		}
		return f, nil
	}
	f, err := embedded.Open("scripts/" + name)
	if err != nil {
		return nil, fmt.Errorf("open embedded support file %s: %w", name, err)
	}
	return f, nil
}

// Describe reports where artifacts come from.
func (s Source) Describe() string {
	if s.dir == "" {
		return "embedded"
	}
	return s.dir
}
