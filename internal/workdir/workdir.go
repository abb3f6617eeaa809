// Package workdir resolves user-supplied work-directory paths.
//
// A work directory is usable only after it has been seeded with a tasks
// file; everything downstream assumes the canonical absolute path returned
// by Resolve.
package workdir

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"passlaunch/internal/config"
)

// TasksFile is the artifact whose presence marks a work directory as seeded.
const TasksFile = "tasks"

// ErrNotSeeded is returned when the work directory lacks a tasks file.
var ErrNotSeeded = errors.New("work directory not seeded")

// Resolve expands path to an absolute, symlink-free directory and confirms it
// contains a tasks file.
func Resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrNotSeeded)
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", err
	}
	canonical, err := filepath.EvalSymlinks(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s does not exist", ErrNotSeeded, expanded)
		}
		return "", fmt.Errorf("resolve work directory %q: %w", expanded, err)
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return "", fmt.Errorf("stat work directory %q: %w", canonical, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrNotSeeded, canonical)
	}

	if _, err := os.Stat(filepath.Join(canonical, TasksFile)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: no %s file in %s", ErrNotSeeded, TasksFile, canonical)
		}
		return "", fmt.Errorf("stat tasks file: %w", err)
	}
	return canonical, nil
}
