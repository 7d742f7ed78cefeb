package project

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"stew/internal/logging"
	"stew/internal/pyenv"
)

// Environments resolves the interpreters the project's checks run against:
// the paths declared in [tool.stew] environments, the conventional .venv
// folder, and finally the system interpreter when nothing else exists.
// Duplicates pointing at the same interpreter collapse to one entry.
func (p *Project) Environments() ([]*pyenv.Environment, error) {
	log := logging.New("environments")

	var candidates []string
	for _, pattern := range p.EnvironmentPaths {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(p.Path, pattern)
		}
		// entries may be globs, e.g. ".venv-*"
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("project %s: bad environment pattern %q: %w", p.Name, pattern, err)
		}
		if matches == nil {
			matches = []string{pattern}
		}
		candidates = append(candidates, matches...)
	}
	if venv := filepath.Join(p.Path, ".venv"); dirExists(venv) {
		candidates = append(candidates, venv)
	}

	seen := make(map[string]bool)
	var envs []*pyenv.Environment
	for _, candidate := range candidates {
		env, err := pyenv.New(candidate)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", p.Name, err)
		}
		if seen[env.Key()] {
			continue
		}
		seen[env.Key()] = true
		envs = append(envs, env)
	}

	if len(envs) == 0 {
		log.Debug("no declared environments, falling back to the system interpreter", "project", p.Name)
		env, err := pyenv.System()
		if err != nil {
			return nil, fmt.Errorf("project %s has no environments and no system python: %w", p.Name, err)
		}
		envs = append(envs, env)
	}
	return envs, nil
}

// Install runs poetry install against one environment. With sync set,
// packages absent from the lock file are removed as well.
func (p *Project) Install(ctx context.Context, env *pyenv.Environment, sync bool) error {
	args := []string{"install"}
	if sync {
		args = append(args, "--sync")
	}
	argv := env.BuildCommand("poetry", args...)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = p.Path
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("poetry install in %s: %w\n%s", p.Path, err, out)
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
