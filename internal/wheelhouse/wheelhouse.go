// Package wheelhouse assembles an offline installation folder for a project:
// the project's own wheel plus a wheel for every locked dependency, so a
// later `pip install --no-index --find-links <target>` works without network
// access.
package wheelhouse

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"stew/internal/logging"
)

// Environment is the interpreter the wheels are built against.
// *pyenv.Environment satisfies it.
type Environment interface {
	Executable() string
	BuildCommand(tool string, args ...string) []string
}

// Options configures a wheelhouse build.
type Options struct {
	ProjectDir string
	Target     string // destination folder, created if missing
	NoHashes   bool   // export the lock without hashes (needed for some private indexes)
}

// Build exports the lock file and wheels everything into Options.Target.
func Build(ctx context.Context, env Environment, opts Options) error {
	logger := logging.New("wheelhouse")

	if err := os.MkdirAll(opts.Target, 0o755); err != nil {
		return fmt.Errorf("create wheelhouse target: %w", err)
	}

	logger.Info("building project wheel", "project", opts.ProjectDir, "target", opts.Target)
	if out, err := run(ctx, env.BuildCommand("poetry", "build", "--output", opts.Target), opts.ProjectDir); err != nil {
		return fmt.Errorf("poetry build: %w\n%s", err, out)
	}

	requirements, err := exportRequirements(ctx, env, opts)
	if err != nil {
		return err
	}
	defer os.Remove(requirements)

	logger.Info("building dependency wheels", "requirements", requirements)
	if out, err := run(ctx, env.BuildCommand(
		"pip", "wheel",
		"--requirement", requirements,
		"--wheel-dir", opts.Target,
	), opts.ProjectDir); err != nil {
		return fmt.Errorf("pip wheel: %w\n%s", err, out)
	}

	logger.Info("wheelhouse complete", "target", opts.Target)
	return nil
}

// exportRequirements writes the locked dependency set to a temporary
// requirements.txt and returns its path.
func exportRequirements(ctx context.Context, env Environment, opts Options) (string, error) {
	tmp, err := os.CreateTemp("", "stew-requirements-*.txt")
	if err != nil {
		return "", fmt.Errorf("create requirements file: %w", err)
	}
	tmp.Close()

	args := []string{
		"export",
		"--format", "requirements.txt",
		"--output", tmp.Name(),
	}
	if opts.NoHashes {
		args = append(args, "--without-hashes")
	}
	if out, err := run(ctx, env.BuildCommand("poetry", args...), opts.ProjectDir); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("poetry export: %w\n%s", err, out)
	}
	return tmp.Name(), nil
}

// VerifyInstall pip-installs the project from the wheelhouse alone, into a
// throwaway --target folder, proving the folder is self-sufficient.
func VerifyInstall(ctx context.Context, env Environment, projectName, wheelhouseDir string) ([]string, error) {
	target, err := os.MkdirTemp("", "stew-pip-install-test-*")
	if err != nil {
		return nil, fmt.Errorf("create install test folder: %w", err)
	}
	defer os.RemoveAll(target)

	out, err := run(ctx, env.BuildCommand(
		"pip", "install", projectName,
		"--no-cache",
		"--no-index",
		"--find-links", wheelhouseDir,
		"--target", target,
	), wheelhouseDir)
	if err != nil {
		return out, fmt.Errorf("offline install of %s failed: %w", projectName, err)
	}
	return out, nil
}

func run(ctx context.Context, argv []string, dir string) ([]string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if err != nil {
		return lines, err
	}
	return lines, nil
}

// WheelCount reports how many wheels a wheelhouse folder contains.
func WheelCount(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.whl"))
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}
