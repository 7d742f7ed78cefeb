package check

import (
	"context"
	"fmt"

	"stew/internal/ci"
)

// OutdatedCheck verifies that the lock file still agrees with
// pyproject.toml. It fails (never errors) when the lock is stale, with a
// hint pointing at the fix command.
type OutdatedCheck struct {
	projectDir string
}

func NewOutdated(projectDir string) *OutdatedCheck {
	return &OutdatedCheck{projectDir: projectDir}
}

func (c *OutdatedCheck) Name() string          { return "check-outdated" }
func (c *OutdatedCheck) SupportsAutoFix() bool { return false }

func (c *OutdatedCheck) Launch(ctx context.Context, env ci.Environment, autoFix bool) (*ci.Result, error) {
	result := ci.NewResult(c.Name(), env)

	cenv, ok := env.(CommandEnvironment)
	if !ok {
		err := fmt.Errorf("check-outdated: environment %s cannot build commands", env.Key())
		result.Status = ci.Error
		result.Err = err
		return result, err
	}

	lines, code, err := runCommand(ctx, cenv.BuildCommand("poetry", "check", "--lock"), c.projectDir)
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

	result.Status = ci.ClassifyExit(code, []int{1})
	switch result.Status {
	case ci.CheckFailed:
		result.Output = append(result.Output, `The lock file is out of date: run "stew fix-outdated"`)
	case ci.Error:
		err := fmt.Errorf("poetry check --lock exited with unexpected code %d", code)
		result.Err = err
		return result, err
	}
	return result, nil
}
