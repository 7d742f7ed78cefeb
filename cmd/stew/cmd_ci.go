package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stew/internal/ci"
	"stew/internal/logging"
	"stew/internal/project"
	"stew/internal/report"
)

var ciFlags struct {
	fix           bool
	skip          []string
	only          []string
	sequential    bool
	parallel      int
	quick         bool
	exactMatch    bool
	verbose       bool
	raise         bool
	junitDir      string
	githubSummary bool
}

var ciCmd = &cobra.Command{
	Use:   "ci [project]",
	Short: "Run the configured checks for one or all projects",
	Long: "Runs every configured check of the matching projects against every\n" +
		"declared environment. With --fix, autofix-capable checks rewrite the\n" +
		"source files first and the regular check pass re-verifies the result.",
	Args: cobra.MaximumNArgs(1),
	RunE: runCI,
}

func init() {
	f := ciCmd.Flags()
	f.BoolVar(&ciFlags.fix, "fix", false, "Let autofix-capable checks rewrite files before verifying")
	f.StringSliceVar(&ciFlags.skip, "skip", nil, "Check names to skip (repeatable)")
	f.StringSliceVar(&ciFlags.only, "check", nil, "Run only these checks (repeatable)")
	f.BoolVar(&ciFlags.sequential, "sequential", false, "Run tasks one at a time instead of concurrently")
	f.IntVar(&ciFlags.parallel, "parallel", 0, "Maximum concurrent tasks per batch (0 = unbounded)")
	f.BoolVar(&ciFlags.quick, "quick", false, "Skip the poetry install step")
	f.BoolVarP(&ciFlags.exactMatch, "exact-match", "e", false, "Match the project name exactly")
	f.BoolVarP(&ciFlags.verbose, "verbose", "v", false, "Echo the output of failing checks as they complete")
	f.BoolVar(&ciFlags.raise, "raise", false, "Abort on the first internal check error instead of recording it")
	f.StringVar(&ciFlags.junitDir, "junit-dir", "", "Write a JUnit XML report per project into this directory")
	f.BoolVar(&ciFlags.githubSummary, "github-step-summary", false, "Append a Markdown summary to $GITHUB_STEP_SUMMARY")
}

func runCI(cmd *cobra.Command, args []string) error {
	projects, repoRoot, err := resolveProjects(args, ciFlags.exactMatch)
	if err != nil {
		return err
	}
	defaults, err := project.LoadRepoDefaults(repoRoot)
	if err != nil {
		return err
	}

	skip := append(defaults.Skip, ciFlags.skip...)
	sequential := ciFlags.sequential || defaults.Sequential
	maxParallel := ciFlags.parallel
	if maxParallel == 0 {
		maxParallel = defaults.MaxParallel
	}

	log := logging.New("ci")
	console := report.NewConsole(cmd.OutOrStdout(), ciFlags.verbose)
	ctx := cmd.Context()

	overall := ci.NotRan
	for _, p := range projects {
		if p.CIDisabled() {
			log.Info("ci disabled, skipping", "project", p.Name)
			continue
		}

		checks, err := p.BuildChecks(ciFlags.only, skip)
		if err != nil {
			return err
		}
		if len(checks) == 0 {
			log.Warn("no checks selected", "project", p.Name)
			continue
		}

		envs, err := p.Environments()
		if err != nil {
			return err
		}
		if !ciFlags.quick {
			for _, env := range envs {
				log.Info("installing project", "project", p.Name, "environment", env)
				if err := p.Install(ctx, env, true); err != nil {
					return err
				}
			}
		}

		options := ci.WorkflowCheck
		if ciFlags.fix {
			options |= ci.WorkflowAutofix
		}
		if sequential {
			options |= ci.WorkflowSequential
		}

		environments := make([]ci.Environment, len(envs))
		for i, env := range envs {
			environments[i] = env
		}

		orchestrator, err := ci.NewOrchestrator(ci.Config{
			Environments: environments,
			Checks:       checks,
			Options:      options,
			RaiseErrors:  ciFlags.raise,
			MaxParallel:  maxParallel,
			Observer:     console,
		})
		if err != nil {
			return err
		}

		console.Heading(p.Name)
		started := time.Now()
		status, err := orchestrator.Orchestrate(ctx)
		if err != nil {
			return err
		}
		elapsed := time.Since(started)
		results := orchestrator.Results()

		console.Summary(results, elapsed)
		if !ciFlags.verbose {
			if details := report.FailureDetails(results); details != "" {
				fmt.Fprint(cmd.OutOrStdout(), details)
			}
		}

		if ciFlags.junitDir != "" {
			path, err := report.WriteJUnit(ciFlags.junitDir, p.Name, results, elapsed)
			if err != nil {
				return err
			}
			log.Info("junit report written", "path", path)
		}
		if ciFlags.githubSummary {
			if err := report.AppendStepSummary(p.Name, results, elapsed); err != nil {
				log.Warn("step summary not written", "error", err)
			}
		}

		if status > overall {
			overall = status
		}
	}

	switch overall {
	case ci.CheckFailed:
		return &exitError{code: exitChecksFailed, message: "one or more checks failed"}
	case ci.Error, ci.Cancelled:
		return &exitError{code: exitInternalError, message: "the run did not complete cleanly"}
	}
	return nil
}
