// Package check implements the CI check kinds the orchestrator can run:
// builtin wrappers for the common Python tools plus fully custom commands
// declared in pyproject.toml. A registry maps a kind name to its constructor.
package check

import (
	"context"
	"fmt"

	"stew/internal/ci"
)

// CommandEnvironment is what a command-based check needs from the opaque
// environment token: the interpreter path and a way to bind a tool to it.
// *pyenv.Environment satisfies it.
type CommandEnvironment interface {
	ci.Environment
	Executable() string
	BuildCommand(tool string, args ...string) []string
}

// WorkingDirectory selects where a check process runs.
type WorkingDirectory int

const (
	DirProject    WorkingDirectory = iota // the project folder (default)
	DirRepository                         // the repository root
)

// ParseWorkingDirectory maps the pyproject `working-directory` value.
func ParseWorkingDirectory(s string) (WorkingDirectory, error) {
	switch s {
	case "", "project":
		return DirProject, nil
	case "repository":
		return DirRepository, nil
	}
	return DirProject, fmt.Errorf("working directory must be \"project\" or \"repository\", got %q", s)
}

// CommandCheck runs an external tool through the task's environment. It
// covers both the simple builtins (black, ruff, pytest, poetry-check) and
// the user's custom checks.
type CommandCheck struct {
	name       string
	executable string

	checkArgs   []string
	autofixArgs []string
	hasAutofix  bool

	acceptableExitCodes []int
	workingDir          WorkingDirectory
	projectDir          string
	repoRoot            string
}

// CommandCheckSpec carries everything needed to build a CommandCheck.
// AutofixArgs presence is what makes the check autofix-capable: a tool that
// can fix is a tool that was given fix arguments, never an implicit mode.
type CommandCheckSpec struct {
	Name                string
	Executable          string // defaults to Name
	CheckArgs           []string
	AutofixArgs         []string
	HasAutofix          bool
	AcceptableExitCodes []int // defaults to {1}
	WorkingDir          WorkingDirectory
	ProjectDir          string
	RepoRoot            string
}

// NewCommandCheck validates the spec and returns the check.
func NewCommandCheck(spec CommandCheckSpec) (*CommandCheck, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("a check requires a name")
	}
	executable := spec.Executable
	if executable == "" {
		executable = spec.Name
	}
	acceptable := spec.AcceptableExitCodes
	if acceptable == nil {
		acceptable = []int{1}
	}
	return &CommandCheck{
		name:                spec.Name,
		executable:          executable,
		checkArgs:           spec.CheckArgs,
		autofixArgs:         spec.AutofixArgs,
		hasAutofix:          spec.HasAutofix || spec.AutofixArgs != nil,
		acceptableExitCodes: acceptable,
		workingDir:          spec.WorkingDir,
		projectDir:          spec.ProjectDir,
		repoRoot:            spec.RepoRoot,
	}, nil
}

func (c *CommandCheck) Name() string          { return c.name }
func (c *CommandCheck) SupportsAutoFix() bool { return c.hasAutofix }

// Launch runs the tool with its check arguments, or its autofix arguments
// when the task enables the fix pass.
func (c *CommandCheck) Launch(ctx context.Context, env ci.Environment, autoFix bool) (*ci.Result, error) {
	result := ci.NewResult(c.name, env)

	cenv, ok := env.(CommandEnvironment)
	if !ok {
		err := fmt.Errorf("check %s: environment %s cannot build commands", c.name, env.Key())
		result.Status = ci.Error
		result.Err = err
		return result, err
	}

	args := c.checkArgs
	if autoFix && c.hasAutofix {
		args = c.autofixArgs
	}

	dir := c.projectDir
	if c.workingDir == DirRepository && c.repoRoot != "" {
		dir = c.repoRoot
	}

	lines, code, err := runCommand(ctx, cenv.BuildCommand(c.executable, args...), dir)
	result.Output = lines
	result.ExitCode = code
	if err != nil {
		if ctx.Err() != nil {
			result.Status = ci.Cancelled
			return result, ctx.Err()
		}
		result.Status = ci.Error
		result.Err = err
		return result, err
	}

	result.Status = ci.ClassifyExit(code, c.acceptableExitCodes)
	if result.Status == ci.Error {
		err := fmt.Errorf("%s exited with unexpected code %d", c.name, code)
		result.Err = err
		return result, err
	}
	return result, nil
}
