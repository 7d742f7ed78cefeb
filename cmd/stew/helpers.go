package main

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"stew/internal/project"
	"stew/internal/pyenv"
)

// Exit codes: callers script against these, keep them stable.
const (
	exitChecksFailed  = 1
	exitInternalError = 2
)

// exitError carries a specific process exit code out of a RunE.
type exitError struct {
	code    int
	message string
}

func (e *exitError) Error() string { return e.message }

// resolveProjects loads every project matching the optional name argument,
// anchored at --directory. It also returns the repository root so commands
// can pick up .stew.yaml defaults.
func resolveProjects(args []string, exact bool) ([]*project.Project, string, error) {
	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	root, err := filepath.Abs(rootFlags.directory)
	if err != nil {
		return nil, "", err
	}

	projects, err := project.Discover(root, query, exact)
	if err != nil {
		return nil, "", err
	}
	return projects, project.FindRepoRoot(root), nil
}

// firstEnvironment resolves the project's environments and returns the first
// one, for commands that operate on a single interpreter.
func firstEnvironment(p *project.Project) (*pyenv.Environment, error) {
	envs, err := p.Environments()
	if err != nil {
		return nil, err
	}
	return envs[0], nil
}

// runPoetry runs a poetry subcommand inside the project folder and returns
// the combined output.
func runPoetry(ctx context.Context, p *project.Project, env *pyenv.Environment, args ...string) (string, error) {
	argv := env.BuildCommand("poetry", args...)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = p.Path
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("poetry %s in %s: %w", args[0], p.Name, err)
	}
	return string(out), nil
}
