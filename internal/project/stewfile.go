package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const repoConfigFile = ".stew.yaml"

// RepoDefaults are repository-wide settings read from .stew.yaml at the
// repo root. Command-line flags override every field.
type RepoDefaults struct {
	Skip        []string `yaml:"skip"`
	Sequential  bool     `yaml:"sequential"`
	MaxParallel int      `yaml:"max-parallel"`
	LogLevel    string   `yaml:"log-level"`
}

// LoadRepoDefaults reads .stew.yaml from repoRoot. A missing file is not an
// error; it simply yields the zero defaults.
func LoadRepoDefaults(repoRoot string) (RepoDefaults, error) {
	var defaults RepoDefaults

	path := filepath.Join(repoRoot, repoConfigFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaults, nil
	}
	if err != nil {
		return defaults, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return defaults, fmt.Errorf("parse %s: %w", path, err)
	}
	if defaults.MaxParallel < 0 {
		return defaults, fmt.Errorf("%s: max-parallel must not be negative", path)
	}
	return defaults, nil
}
