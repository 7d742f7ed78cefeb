package check

import (
	"context"
	"fmt"
	"os"

	"stew/internal/ci"
	"stew/internal/wheelhouse"
)

// OfflineBuildCheck proves the project can be installed without network
// access: it builds a throwaway wheelhouse and pip-installs the project from
// it with the index disabled.
type OfflineBuildCheck struct {
	projectDir  string
	projectName string
	noHashes    bool
}

func NewOfflineBuild(projectDir, projectName string, noHashes bool) *OfflineBuildCheck {
	return &OfflineBuildCheck{projectDir: projectDir, projectName: projectName, noHashes: noHashes}
}

func (c *OfflineBuildCheck) Name() string          { return "offline-build" }
func (c *OfflineBuildCheck) SupportsAutoFix() bool { return false }

func (c *OfflineBuildCheck) Launch(ctx context.Context, env ci.Environment, autoFix bool) (*ci.Result, error) {
	result := ci.NewResult(c.Name(), env)

	cenv, ok := env.(CommandEnvironment)
	if !ok {
		err := fmt.Errorf("offline-build: environment %s cannot build commands", env.Key())
		result.Status = ci.Error
		result.Err = err
		return result, err
	}

	target, err := os.MkdirTemp("", "stew-wheelhouse-*")
	if err != nil {
		result.Status = ci.Error
		result.Err = err
		return result, err
	}
	defer os.RemoveAll(target)

	if err := wheelhouse.Build(ctx, cenv, wheelhouse.Options{
		ProjectDir: c.projectDir,
		Target:     target,
		NoHashes:   c.noHashes,
	}); err != nil {
		if ctx.Err() != nil {
			result.Status = ci.Cancelled
			return result, ctx.Err()
		}
		// A build that completes but produces a broken wheelhouse is a
		// finding about the project, not broken tooling.
		result.Output = append(result.Output, err.Error())
		result.Status = ci.CheckFailed
		return result, nil
	}

	out, err := wheelhouse.VerifyInstall(ctx, cenv, c.projectName, target)
	result.Output = append(result.Output, out...)
	if err != nil {
		if ctx.Err() != nil {
			result.Status = ci.Cancelled
			return result, ctx.Err()
		}
		result.Output = append(result.Output, err.Error())
		result.Status = ci.CheckFailed
		return result, nil
	}

	result.ExitCode = 0
	result.Status = ci.Success
	return result, nil
}
