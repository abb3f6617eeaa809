package pass

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// MaxSequence is the largest sequence representable in two digits.
const MaxSequence Sequence = 99

// TimestampLayout formats the submission timestamp code, e.g. 0615_1200.
const TimestampLayout = "0102_1504"

var (
	// ErrAllocationConflict is returned when another allocation holds the lock.
	ErrAllocationConflict = errors.New("pass allocation already in progress")
	// ErrSequenceExhausted is returned when sequence 99 is already in use.
	ErrSequenceExhausted = errors.New("pass sequence exhausted")
)

var dirNamePattern = regexp.MustCompile(`^([0-9]{2})\.`)

// Sequence is a pass number within a work directory.
type Sequence int

func (s Sequence) String() string {
	return fmt.Sprintf("%02d", int(s))
}

// ParseDirName extracts the sequence from a pass directory name. Names that
// do not start with two digits and a dot are not passes.
func ParseDirName(name string) (Sequence, bool) {
	m := dirNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	// Atoi is base 10, so "09" is nine.
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return Sequence(n), true
}

// ID is the composite identifier of a pass.
type ID struct {
	Seq        Sequence
	Identifier string
	Stamp      string
}

// NewID builds a pass ID stamped with submitted.
func NewID(seq Sequence, identifier string, submitted time.Time) ID {
	return ID{Seq: seq, Identifier: identifier, Stamp: TimestampCode(submitted)}
}

// String renders "seq.identifier.stamp"; it is also the pass directory name.
func (id ID) String() string {
	return id.Seq.String() + "." + id.Identifier + "." + id.Stamp
}

// TimestampCode renders t in TimestampLayout.
func TimestampCode(t time.Time) string {
	return t.Format(TimestampLayout)
}

// JobName derives the scheduler job name: the work-directory basename, a
// dot, and the sequence.
func JobName(workDir string, seq Sequence) string {
	return filepath.Base(workDir) + "." + seq.String()
}

// Dir is an existing pass directory.
type Dir struct {
	Seq  Sequence
	Name string
}

// List returns the pass directories directly under workDir ordered by
// sequence, then name.
func List(workDir string) ([]Dir, error) {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return nil, fmt.Errorf("read work directory: %w", err)
	}
	var dirs []Dir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		seq, ok := ParseDirName(entry.Name())
		if !ok {
			continue
		}
		dirs = append(dirs, Dir{Seq: seq, Name: entry.Name()})
	}
	sort.Slice(dirs, func(i, j int) bool {
		if dirs[i].Seq != dirs[j].Seq {
			return dirs[i].Seq < dirs[j].Seq
		}
		return dirs[i].Name < dirs[j].Name
	})
	return dirs, nil
}

// Next returns the sequence after the highest existing pass, or 00 when the
// work directory has none.
func Next(workDir string) (Sequence, error) {
	dirs, err := List(workDir)
	if err != nil {
		return 0, err
	}
	if len(dirs) == 0 {
		return 0, nil
	}
	last := dirs[len(dirs)-1].Seq
	if last >= MaxSequence {
		return 0, fmt.Errorf("%w: %s already used in %s", ErrSequenceExhausted, last, workDir)
	}
	return last + 1, nil
}
