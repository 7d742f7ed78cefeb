// Package pyenv resolves and describes the Python interpreters a project is
// validated against. An Environment is identified by its resolved interpreter
// path; two environments are the same if and only if their executables match.
package pyenv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

var (
	binDir    = "bin"
	exeSuffix = ""
)

func init() {
	if runtime.GOOS == "windows" {
		binDir = "Scripts"
		exeSuffix = ".exe"
	}
}

// Environment wraps one Python interpreter. Satisfies ci.Environment.
type Environment struct {
	executable string

	mu      sync.Mutex
	version string
}

// New accepts either a python executable path or a virtualenv directory that
// contains a bin (linux) or Scripts (windows) folder.
func New(path string) (*Environment, error) {
	executable := path
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		executable = filepath.Join(path, binDir, "python"+exeSuffix)
	}
	if _, err := os.Stat(executable); err != nil {
		return nil, fmt.Errorf("cannot find a python executable in %s: %w", path, err)
	}
	abs, err := filepath.Abs(executable)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", executable, err)
	}
	return &Environment{executable: abs}, nil
}

// System returns the environment of the first python interpreter on PATH.
func System() (*Environment, error) {
	for _, name := range []string{"python3", "python"} {
		if path, err := exec.LookPath(name); err == nil {
			return New(path)
		}
	}
	return nil, fmt.Errorf("no python interpreter found on PATH")
}

// Executable returns the resolved interpreter path.
func (e *Environment) Executable() string { return e.executable }

// Key uniquely identifies the environment within a run.
func (e *Environment) Key() string { return e.executable }

func (e *Environment) String() string {
	if version := e.cachedVersion(); version != "" {
		return version + " (" + e.executable + ")"
	}
	return e.executable
}

// Version runs `python --version` once and caches the answer, e.g.
// "Python 3.11.4".
func (e *Environment) Version(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.version != "" {
		return e.version, nil
	}
	out, err := exec.CommandContext(ctx, e.executable, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("query python version of %s: %w", e.executable, err)
	}
	e.version = strings.TrimSpace(string(out))
	return e.version, nil
}

// PrettyVersion turns "Python 3.11.4" into "py3.11.4". Falls back to the
// executable name when the interpreter cannot be queried.
func (e *Environment) PrettyVersion(ctx context.Context) string {
	version, err := e.Version(ctx)
	if err != nil {
		return filepath.Base(e.executable)
	}
	fields := strings.Fields(version)
	if len(fields) < 2 {
		return version
	}
	return "py" + fields[1]
}

// BuildCommand builds an argv that runs a tool as a module of this
// interpreter: python -m <tool> <args...>. Running through -m keeps the tool
// bound to the environment even when a same-named binary shadows it on PATH.
func (e *Environment) BuildCommand(tool string, args ...string) []string {
	argv := make([]string, 0, len(args)+3)
	argv = append(argv, e.executable, "-m", tool)
	return append(argv, args...)
}

// ToolPath returns the expected path of a sibling tool executable (e.g. the
// mypy binary living next to the interpreter).
func (e *Environment) ToolPath(tool string) string {
	return filepath.Join(filepath.Dir(e.executable), tool+exeSuffix)
}

func (e *Environment) cachedVersion() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}
