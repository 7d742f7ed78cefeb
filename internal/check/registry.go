package check

import (
	"fmt"
	"sort"

	"stew/internal/ci"
)

// Options is the per-check configuration surfaced from pyproject.toml.
// Builtin checks ignore the fields they don't support; custom checks use the
// command fields verbatim.
type Options struct {
	Executable           string
	CheckArgs            []string
	AutofixArgs          []string // non-nil makes the check autofix-capable
	CheckFailedExitCodes []int
	WorkingDirectory     string // "project" (default) or "repository"

	// mypy
	ConfigFile string
	// pytest
	MarkerExpression string
	DoctestModules   *bool
	// offline-build
	NoHashes bool
}

// Paths anchors a check to the project it validates.
type Paths struct {
	ProjectDir  string
	ProjectName string
	RepoRoot    string
}

// Factory builds a check of one kind.
type Factory func(name string, opts Options, paths Paths) (ci.Check, error)

// The registry maps configuration kind names to constructors. Builtins can
// be toggled and tuned from [tool.stew.ci]; anything under
// [tool.stew.ci.custom-checks] goes through the "custom" kind.
var registry = map[string]Factory{
	"check-outdated": newOutdatedFactory,
	"offline-build":  newOfflineBuildFactory,
	"mypy":           newMypyFactory,
	"pytest":         newPytestFactory,
	"poetry-check":   newPoetryCheckFactory,
	"black":          newBlackFactory,
	"ruff":           newRuffFactory,
	"custom":         newCustomFactory,
}

// New constructs a check by kind name.
func New(kind, name string, opts Options, paths Paths) (ci.Check, error) {
	factory, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("unknown check kind: %q (known: %v)", kind, Kinds())
	}
	return factory(name, opts, paths)
}

// Kinds lists the registered kind names, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func newBlackFactory(name string, opts Options, paths Paths) (ci.Check, error) {
	return NewCommandCheck(CommandCheckSpec{
		Name:        name,
		Executable:  "black",
		CheckArgs:   []string{".", "--check"},
		AutofixArgs: []string{"."},
		ProjectDir:  paths.ProjectDir,
		RepoRoot:    paths.RepoRoot,
	})
}

func newRuffFactory(name string, opts Options, paths Paths) (ci.Check, error) {
	return NewCommandCheck(CommandCheckSpec{
		Name:        name,
		Executable:  "ruff",
		CheckArgs:   []string{"check", "."},
		AutofixArgs: []string{"check", ".", "--fix"},
		ProjectDir:  paths.ProjectDir,
		RepoRoot:    paths.RepoRoot,
	})
}

func newPoetryCheckFactory(name string, opts Options, paths Paths) (ci.Check, error) {
	return NewCommandCheck(CommandCheckSpec{
		Name:       name,
		Executable: "poetry",
		CheckArgs:  []string{"check"},
		ProjectDir: paths.ProjectDir,
		RepoRoot:   paths.RepoRoot,
	})
}

func newPytestFactory(name string, opts Options, paths Paths) (ci.Check, error) {
	args := []string{"--color=yes", "--durations=5", "--tb=short"}
	if opts.MarkerExpression != "" {
		args = append(args, "-m", opts.MarkerExpression)
	}
	if opts.DoctestModules == nil || *opts.DoctestModules {
		args = append(args, "--doctest-modules")
	}
	return NewCommandCheck(CommandCheckSpec{
		Name:       name,
		Executable: "pytest",
		CheckArgs:  args,
		ProjectDir: paths.ProjectDir,
		RepoRoot:   paths.RepoRoot,
	})
}

func newMypyFactory(name string, opts Options, paths Paths) (ci.Check, error) {
	return NewMypy(paths.ProjectDir, opts.ConfigFile), nil
}

func newOutdatedFactory(name string, opts Options, paths Paths) (ci.Check, error) {
	return NewOutdated(paths.ProjectDir), nil
}

func newOfflineBuildFactory(name string, opts Options, paths Paths) (ci.Check, error) {
	return NewOfflineBuild(paths.ProjectDir, paths.ProjectName, opts.NoHashes), nil
}

func newCustomFactory(name string, opts Options, paths Paths) (ci.Check, error) {
	workingDir, err := ParseWorkingDirectory(opts.WorkingDirectory)
	if err != nil {
		return nil, fmt.Errorf("custom check %s: %w", name, err)
	}
	return NewCommandCheck(CommandCheckSpec{
		Name:                name,
		Executable:          opts.Executable,
		CheckArgs:           opts.CheckArgs,
		AutofixArgs:         opts.AutofixArgs,
		AcceptableExitCodes: opts.CheckFailedExitCodes,
		WorkingDir:          workingDir,
		ProjectDir:          paths.ProjectDir,
		RepoRoot:            paths.RepoRoot,
	})
}
