package submit

import (
	"fmt"
	"os"
	"os/user"
	"sort"
	"strings"

	"passlaunch/internal/config"
)

// Variables exported to jobs. Nothing else from the caller's environment
// reaches a job.
const (
	EnvPath     = "PATH"
	EnvHome     = "HOME"
	EnvUser     = "USER"
	EnvTop      = "TOP"
	EnvIsMaster = "PASS_IS_MASTER"
)

// Role distinguishes the master job from array workers.
type Role int

const (
	RoleMaster Role = iota
	RoleWorker
)

func (r Role) String() string {
	if r == RoleMaster {
		return "master"
	}
	return "worker"
}

// Identity is the submitting user.
type Identity struct {
	User string
	Home string
}

// CurrentIdentity looks up the invoking user.
func CurrentIdentity() (Identity, error) {
	u, err := user.Current()
	if err != nil {
		return Identity{}, fmt.Errorf("look up current user: %w", err)
	}
	return Identity{User: u.Username, Home: u.HomeDir}, nil
}

// Environment is an explicit set of job variables.
type Environment map[string]string

// BuildEnvironment returns the allow-listed variables for role.
func BuildEnvironment(cfg *config.Config, id Identity, role Role) Environment {
	isMaster := "0"
	if role == RoleMaster {
		isMaster = "1"
	}
	return Environment{
		EnvPath:     cfg.Environment.Path,
		EnvHome:     id.Home,
		EnvUser:     id.User,
		EnvTop:      cfg.Paths.ProjectRoot,
		EnvIsMaster: isMaster,
	}
}

// List renders the variables as sorted KEY=value strings.
func (e Environment) List() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+e[k])
	}
	return out
}

// Payload renders the scheduler export-file format: every KEY=value entry
// terminated by a NUL byte.
func (e Environment) Payload() []byte {
	var b strings.Builder
	for _, entry := range e.List() {
		b.WriteString(entry)
		b.WriteByte(0)
	}
	return []byte(b.String())
}

// WriteEnvFile writes the export-file payload to path.
func WriteEnvFile(path string, env Environment) error {
	for k, v := range env {
		if strings.ContainsRune(k, '=') || strings.ContainsRune(k, 0) || strings.ContainsRune(v, 0) {
			return fmt.Errorf("environment variable %q cannot be exported", k)
		}
	}
	if err := os.WriteFile(path, env.Payload(), 0o600); err != nil {
		return fmt.Errorf("write environment file: %w", err)
	}
	return nil
}
