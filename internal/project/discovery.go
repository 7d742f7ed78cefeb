package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"stew/internal/logging"
)

// ErrNoProjects means discovery finished without a single match.
var ErrNoProjects = errors.New("no python projects found")

// pruned directories are never descended into during discovery.
var prunedDirs = map[string]bool{
	".git":         true,
	".venv":        true,
	"node_modules": true,
	"__pycache__":  true,
	".tox":         true,
	".mypy_cache":  true,
}

func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}

// FindRepoRoot walks up from dir looking for a .git folder. When none is
// found the starting directory itself is treated as the root.
func FindRepoRoot(dir string) string {
	current := dir
	for {
		if info, err := os.Stat(filepath.Join(current, ".git")); err == nil && info.IsDir() {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir
		}
		current = parent
	}
}

// Discover walks root for pyproject.toml files and loads every project whose
// name matches query. An empty query matches everything; otherwise matching
// is case-insensitive with - and _ interchangeable, substring by default and
// whole-name when exact is set.
func Discover(root, query string, exact bool) ([]*Project, error) {
	if exact && query == "" {
		return nil, errors.New("exact matching requires a project name")
	}

	log := logging.New("discovery")
	needle := normalizeName(query)

	var projects []*Project
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if prunedDirs[name] || (strings.HasPrefix(name, ".") && path != root) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != "pyproject.toml" {
			return nil
		}

		p, err := Load(path)
		if errors.Is(err, ErrNotAProject) {
			log.Debug("skipping nameless pyproject.toml", "path", path)
			return nil
		}
		if err != nil {
			return err
		}

		safe := p.SafeName()
		switch {
		case needle == "":
		case exact && safe != needle:
			return nil
		case !exact && !strings.Contains(safe, needle):
			return nil
		}
		projects = append(projects, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover projects under %s: %w", root, err)
	}

	if len(projects) == 0 {
		if query != "" {
			return nil, fmt.Errorf("%w matching %q under %s", ErrNoProjects, query, root)
		}
		return nil, fmt.Errorf("%w under %s", ErrNoProjects, root)
	}

	sort.Slice(projects, func(i, j int) bool { return projects[i].Path < projects[j].Path })
	return projects, nil
}
