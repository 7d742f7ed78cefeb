// Package project locates Python projects in a repository and turns their
// pyproject.toml declarations into runnable CI checks and environments.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ErrNotAProject marks a pyproject.toml that doesn't declare a package name;
// discovery skips those silently (e.g. tool-only configuration files).
var ErrNotAProject = errors.New("pyproject.toml does not declare a package")

// pyprojectTOML mirrors the slice of pyproject.toml stew cares about.
type pyprojectTOML struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
		Stew stewTOML `toml:"stew"`
	} `toml:"tool"`
}

type stewTOML struct {
	BuildWithoutHashes bool           `toml:"build-without-hashes"`
	Environments       []string       `toml:"environments"`
	CI                 map[string]any `toml:"ci"`
}

// Project is one discovered Python package.
type Project struct {
	Name          string
	Path          string // project folder
	PyProjectPath string
	RepoRoot      string

	BuildWithoutHashes bool
	EnvironmentPaths   []string // interpreter or virtualenv paths from [tool.stew]

	ci map[string]any // raw [tool.stew.ci] table, interpreted by BuildChecks
}

// Load parses a pyproject.toml into a Project.
func Load(pyprojectPath string) (*Project, error) {
	data, err := os.ReadFile(pyprojectPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pyprojectPath, err)
	}

	var parsed pyprojectTOML
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", pyprojectPath, err)
	}

	name := parsed.Project.Name
	if name == "" {
		name = parsed.Tool.Poetry.Name
	}
	if name == "" {
		return nil, fmt.Errorf("%s: %w", pyprojectPath, ErrNotAProject)
	}

	abs, err := filepath.Abs(pyprojectPath)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(abs)

	return &Project{
		Name:               name,
		Path:               dir,
		PyProjectPath:      abs,
		RepoRoot:           FindRepoRoot(dir),
		BuildWithoutHashes: parsed.Tool.Stew.BuildWithoutHashes,
		EnvironmentPaths:   parsed.Tool.Stew.Environments,
		ci:                 parsed.Tool.Stew.CI,
	}, nil
}

// CIDisabled reports whether [tool.stew.ci] turned the whole project off.
func (p *Project) CIDisabled() bool {
	v, ok := p.ci["disabled"]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// SafeName normalizes the package name the way Python does: hyphens and
// underscores are interchangeable.
func (p *Project) SafeName() string {
	return normalizeName(p.Name)
}
