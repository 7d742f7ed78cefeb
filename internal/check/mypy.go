package check

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"stew/internal/ci"
)

// typedPackageMarker is the PEP 561 file that opts a package into type
// checking.
const typedPackageMarker = "py.typed"

// MypyCheck runs mypy against every typed package of the project. The typed
// folders are discovered at launch time so packages added between runs are
// picked up without reconfiguration.
type MypyCheck struct {
	projectDir string
	configFile string // optional project-relative mypy config
}

func NewMypy(projectDir, configFile string) *MypyCheck {
	return &MypyCheck{projectDir: projectDir, configFile: configFile}
}

func (c *MypyCheck) Name() string          { return "mypy" }
func (c *MypyCheck) SupportsAutoFix() bool { return false }

// TypedFolders lists the project subfolders carrying a py.typed marker.
func (c *MypyCheck) TypedFolders() ([]string, error) {
	entries, err := os.ReadDir(c.projectDir)
	if err != nil {
		return nil, fmt.Errorf("scan %s for typed packages: %w", c.projectDir, err)
	}
	var folders []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		marker := filepath.Join(c.projectDir, entry.Name(), typedPackageMarker)
		if _, err := os.Stat(marker); err == nil {
			folders = append(folders, entry.Name())
		}
	}
	return folders, nil
}

func (c *MypyCheck) Launch(ctx context.Context, env ci.Environment, autoFix bool) (*ci.Result, error) {
	result := ci.NewResult(c.Name(), env)

	cenv, ok := env.(CommandEnvironment)
	if !ok {
		err := fmt.Errorf("mypy: environment %s cannot build commands", env.Key())
		result.Status = ci.Error
		result.Err = err
		return result, err
	}

	folders, err := c.TypedFolders()
	if err != nil {
		result.Status = ci.Error
		result.Err = err
		return result, err
	}
	if len(folders) == 0 {
		err := fmt.Errorf("no py.typed package found in %s (PEP 561)", c.projectDir)
		result.Output = append(result.Output,
			"Cannot find a py.typed file: https://peps.python.org/pep-0561/")
		result.Status = ci.Error
		result.Err = err
		return result, err
	}

	args := []string{
		// tell mypy in which environment the imports should be followed
		"--python-executable", cenv.Executable(),
		"--cache-dir", filepath.Join(c.projectDir, ".mypy_cache"),
		"--show-error-codes",
	}
	if c.configFile != "" {
		args = append(args, "--config-file", filepath.Join(c.projectDir, c.configFile))
	}
	args = append(args, folders...)

	lines, code, err := runCommand(ctx, cenv.BuildCommand("mypy", args...), c.projectDir)
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

	// mypy exits 1 when it finds type errors, 2 on usage/config problems.
	result.Status = ci.ClassifyExit(code, []int{1})
	if result.Status == ci.Error {
		err := fmt.Errorf("mypy exited with unexpected code %d", code)
		result.Err = err
		return result, err
	}
	return result, nil
}
