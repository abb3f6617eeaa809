package staging

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"passlaunch/internal/config"
	"passlaunch/internal/fileutil"
	"passlaunch/internal/logging"
	"passlaunch/internal/pass"
	"passlaunch/internal/support"
)

// ErrPassCollision is returned when the pass directory already exists.
var ErrPassCollision = errors.New("pass directory already exists")

// ErrInvalidOverride is returned for override values that cannot be staged.
var ErrInvalidOverride = errors.New("invalid override")

// Params describes one pass to stage. Nil overrides mean the task programs
// use their built-in defaults, and no override file is written.
type Params struct {
	WorkDir     string
	ID          pass.ID
	MaxAttempts *int
	TaskIDRegex *string
}

// JobName returns the scheduler job name for the pass.
func (p Params) JobName() string {
	return pass.JobName(p.WorkDir, p.ID.Seq)
}

// Validate rejects overrides that would stage an unusable pass. It touches
// nothing on disk.
func (p Params) Validate() error {
	if p.MaxAttempts != nil && *p.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be positive, got %d", ErrInvalidOverride, *p.MaxAttempts)
	}
	if p.TaskIDRegex != nil {
		if _, err := regexp.Compile(*p.TaskIDRegex); err != nil {
			return fmt.Errorf("%w: task id regex: %v", ErrInvalidOverride, err)
		}
	}
	return nil
}

// Stager builds pass directories.
type Stager struct {
	source   support.Source
	bulkRoot string
	now      func() time.Time
	newName  func() string
	logger   *slog.Logger
}

// New constructs a Stager from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Stager {
	return &Stager{
		source:   support.NewSource(cfg.Paths.SupportDir),
		bulkRoot: cfg.Paths.BulkDataRoot,
		now:      time.Now,
		newName:  uuid.NewString,
		logger:   logging.NewComponentLogger(logger, "stager"),
	}
}

// PassDir returns the directory path for a pass.
func PassDir(workDir string, id pass.ID) string {
	return filepath.Join(workDir, id.String())
}

// CreatePassDir creates the pass directory. It never reuses an existing one.
func (s *Stager) CreatePassDir(dir string) error {
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrPassCollision, dir)
		}
		return fmt.Errorf("create pass directory: %w", err)
	}
	return nil
}

// Stage populates a pass directory previously created by CreatePassDir.
func (s *Stager) Stage(ctx context.Context, dir string, p Params) (Layout, error) {
	layout := Layout{Dir: dir}
	if err := p.Validate(); err != nil {
		return layout, err
	}
	if err := ctx.Err(); err != nil {
		return layout, err
	}

	if err := s.copySupport(dir); err != nil {
		return layout, err
	}
	if err := os.Mkdir(filepath.Join(dir, WorkerLogsDir), 0o755); err != nil {
		return layout, fmt.Errorf("create worker log directory: %w", err)
	}
	if err := writeOverrides(dir, p); err != nil {
		return layout, err
	}
	if err := fileutil.WriteText(dir, FilePassID, p.ID.String()); err != nil {
		return layout, err
	}
	if err := fileutil.WriteText(dir, FileJobName, p.JobName()); err != nil {
		return layout, err
	}

	bulk, err := s.provisionBulkData(dir, p.JobName())
	if err != nil {
		return layout, err
	}
	layout.BulkData = bulk

	s.logger.Info("pass staged",
		logging.String(logging.FieldPassID, p.ID.String()),
		logging.String(logging.FieldJobName, p.JobName()),
		logging.String("bulk_data", bulk),
		logging.String("support_source", s.source.Describe()),
	)
	return layout, nil
}

// copySupport copies every support artifact and records its BLAKE3 digest.
func (s *Stager) copySupport(dir string) error {
	var manifest strings.Builder
	for _, artifact := range support.Artifacts {
		digest, err := s.copyArtifact(dir, artifact)
		if err != nil {
			return err
		}
		fmt.Fprintf(&manifest, "%s  %s\n", digest, artifact.Name)
	}
	if err := os.WriteFile(filepath.Join(dir, FileSupportDigests), []byte(manifest.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", FileSupportDigests, err)
	}
	return nil
}

func (s *Stager) copyArtifact(dir string, artifact support.Artifact) (string, error) {
	src, err := s.source.Open(artifact.Name)
	if err != nil {
		return "", err
	}
	defer src.Close()

	hasher := blake3.New()
	dst := filepath.Join(dir, artifact.Name)
	if err := fileutil.CopyReaderMode(io.TeeReader(src, hasher), dst, artifact.Mode); err != nil {
		return "", fmt.Errorf("copy %s: %w", artifact.Name, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func writeOverrides(dir string, p Params) error {
	if p.MaxAttempts != nil {
		if err := fileutil.WriteText(dir, FileMaxAttempts, strconv.Itoa(*p.MaxAttempts)); err != nil {
			return err
		}
	}
	if p.TaskIDRegex != nil {
		if err := fileutil.WriteText(dir, FileTaskIDRegex, *p.TaskIDRegex); err != nil {
			return err
		}
	}
	return nil
}

// provisionBulkData creates <bulkRoot>/<YYYY-MM>/<jobName>-<uuid> with group
// rwx and links it into the pass as LinkBulkData.
func (s *Stager) provisionBulkData(dir, jobName string) (string, error) {
	monthDir := filepath.Join(s.bulkRoot, s.now().Format("2006-01"))
	if err := os.MkdirAll(monthDir, 0o775); err != nil {
		return "", fmt.Errorf("create bulk data month directory: %w", err)
	}

	target := filepath.Join(monthDir, jobName+"-"+s.newName())
	if err := os.Mkdir(target, 0o770); err != nil {
		return "", fmt.Errorf("create bulk data directory: %w", err)
	}
	// Mkdir is subject to the umask.
	if err := os.Chmod(target, 0o770); err != nil {
		return "", fmt.Errorf("set bulk data permissions: %w", err)
	}
	if err := os.Symlink(target, filepath.Join(dir, LinkBulkData)); err != nil {
		return "", fmt.Errorf("link bulk data: %w", err)
	}
	return target, nil
}
