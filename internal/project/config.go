package project

import (
	"fmt"
	"sort"

	"stew/internal/check"
	"stew/internal/ci"
)

// builtinChecks lists the toggleable check kinds in declaration order and
// whether each one runs when pyproject.toml stays silent about it.
var builtinChecks = []struct {
	kind      string
	byDefault bool
}{
	{"check-outdated", true},
	{"offline-build", false},
	{"mypy", true},
	{"pytest", false},
	{"poetry-check", true},
	{"black", false},
	{"ruff", false},
}

// BuildChecks interprets [tool.stew.ci] into the project's check list.
// A builtin entry may be a bare boolean or a table of options; custom checks
// live under [tool.stew.ci.custom-checks]. The only and skip filters match
// check names with - and _ interchangeable. Autofix-capable checks are
// ordered first so formatters rewrite files before anything validates them.
func (p *Project) BuildChecks(only, skip []string) ([]ci.Check, error) {
	paths := check.Paths{
		ProjectDir:  p.Path,
		ProjectName: p.Name,
		RepoRoot:    p.RepoRoot,
	}

	var checks []ci.Check
	for _, builtin := range builtinChecks {
		enabled := builtin.byDefault
		var opts check.Options

		if raw, present := p.ci[builtin.kind]; present {
			switch value := raw.(type) {
			case bool:
				enabled = value
			case map[string]any:
				enabled = true
				decoded, err := decodeOptions(value)
				if err != nil {
					return nil, fmt.Errorf("ci.%s: %w", builtin.kind, err)
				}
				opts = decoded
			default:
				return nil, fmt.Errorf("ci.%s: expected a boolean or a table, got %T", builtin.kind, raw)
			}
		}
		if !enabled {
			continue
		}

		chk, err := check.New(builtin.kind, builtin.kind, opts, paths)
		if err != nil {
			return nil, err
		}
		checks = append(checks, chk)
	}

	custom, err := p.customChecks(paths)
	if err != nil {
		return nil, err
	}
	checks = append(checks, custom...)

	checks = filterChecks(checks, only, skip)

	// Stable: autofixers first, declaration order otherwise.
	sort.SliceStable(checks, func(i, j int) bool {
		return checks[i].SupportsAutoFix() && !checks[j].SupportsAutoFix()
	})
	return checks, nil
}

func (p *Project) customChecks(paths check.Paths) ([]ci.Check, error) {
	raw, present := p.ci["custom-checks"]
	if !present {
		return nil, nil
	}
	table, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ci.custom-checks: expected a table, got %T", raw)
	}

	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	var checks []ci.Check
	for _, name := range names {
		body, ok := table[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("ci.custom-checks.%s: expected a table, got %T", name, table[name])
		}
		opts, err := decodeOptions(body)
		if err != nil {
			return nil, fmt.Errorf("ci.custom-checks.%s: %w", name, err)
		}
		chk, err := check.New("custom", name, opts, paths)
		if err != nil {
			return nil, err
		}
		checks = append(checks, chk)
	}
	return checks, nil
}

func filterChecks(checks []ci.Check, only, skip []string) []ci.Check {
	onlySet := nameSet(only)
	skipSet := nameSet(skip)

	var kept []ci.Check
	for _, chk := range checks {
		name := normalizeName(chk.Name())
		if len(onlySet) > 0 && !onlySet[name] {
			continue
		}
		if skipSet[name] {
			continue
		}
		kept = append(kept, chk)
	}
	return kept
}

func nameSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[normalizeName(name)] = true
	}
	return set
}

// decodeOptions converts a TOML options table into check.Options. Unknown
// keys are rejected so typos surface instead of silently doing nothing.
func decodeOptions(table map[string]any) (check.Options, error) {
	var opts check.Options
	for key, value := range table {
		var err error
		switch key {
		case "executable":
			opts.Executable, err = asString(value)
		case "check-args", "args":
			opts.CheckArgs, err = asStringSlice(value)
		case "autofix-args":
			opts.AutofixArgs, err = asStringSlice(value)
		case "check-failed-exit-codes":
			opts.CheckFailedExitCodes, err = asIntSlice(value)
		case "working-directory":
			opts.WorkingDirectory, err = asString(value)
		case "config-file":
			opts.ConfigFile, err = asString(value)
		case "marker-expression":
			opts.MarkerExpression, err = asString(value)
		case "doctest-modules":
			var b bool
			if b, err = asBool(value); err == nil {
				opts.DoctestModules = &b
			}
		case "no-hashes":
			var b bool
			if b, err = asBool(value); err == nil {
				opts.NoHashes = b
			}
		default:
			return opts, fmt.Errorf("unknown option %q", key)
		}
		if err != nil {
			return opts, fmt.Errorf("option %q: %w", key, err)
		}
	}
	return opts, nil
}

func asString(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %T", value)
	}
	return s, nil
}

func asBool(value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("expected a boolean, got %T", value)
	}
	return b, nil
}

func asStringSlice(value any) ([]string, error) {
	if s, ok := value.(string); ok {
		return []string{s}, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a string or array of strings, got %T", value)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string element, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}

func asIntSlice(value any) ([]int, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected an array of integers, got %T", value)
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, ok := item.(int64)
		if !ok {
			return nil, fmt.Errorf("expected an integer element, got %T", item)
		}
		out = append(out, int(n))
	}
	return out, nil
}
