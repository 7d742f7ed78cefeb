package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stew/internal/check"
	"stew/internal/ci"
	"stew/internal/logging"
)

var outdatedFlags struct {
	exactMatch bool
}

var checkOutdatedCmd = &cobra.Command{
	Use:   "check-outdated [project]",
	Short: "Verify that every lock file matches its pyproject.toml",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheckOutdated,
}

var fixOutdatedCmd = &cobra.Command{
	Use:   "fix-outdated [project]",
	Short: "Regenerate every lock file that fell out of date",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFixOutdated,
}

func init() {
	checkOutdatedCmd.Flags().BoolVarP(&outdatedFlags.exactMatch, "exact-match", "e", false, "Match the project name exactly")
	fixOutdatedCmd.Flags().BoolVarP(&outdatedFlags.exactMatch, "exact-match", "e", false, "Match the project name exactly")
}

func runCheckOutdated(cmd *cobra.Command, args []string) error {
	projects, _, err := resolveProjects(args, outdatedFlags.exactMatch)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	outdated := 0
	for _, p := range projects {
		env, err := firstEnvironment(p)
		if err != nil {
			return err
		}

		result, err := check.NewOutdated(p.Path).Launch(ctx, env, false)
		if err != nil {
			return fmt.Errorf("check %s: %w", p.Name, err)
		}
		switch result.Status {
		case ci.Success:
			fmt.Fprintf(out, "%s: up to date\n", p.Name)
		case ci.CheckFailed:
			outdated++
			fmt.Fprintf(out, "%s: OUTDATED\n", p.Name)
		default:
			return &exitError{code: exitInternalError, message: fmt.Sprintf("%s: %s", p.Name, result.Status)}
		}
	}

	if outdated > 0 {
		return &exitError{
			code:    exitChecksFailed,
			message: fmt.Sprintf("%d outdated lock files, run \"stew fix-outdated\"", outdated),
		}
	}
	return nil
}

func runFixOutdated(cmd *cobra.Command, args []string) error {
	projects, _, err := resolveProjects(args, outdatedFlags.exactMatch)
	if err != nil {
		return err
	}

	log := logging.New("fix-outdated")
	ctx := cmd.Context()
	for _, p := range projects {
		env, err := firstEnvironment(p)
		if err != nil {
			return err
		}
		log.Info("regenerating lock file", "project", p.Name)
		if out, err := runPoetry(ctx, p, env, "lock"); err != nil {
			return fmt.Errorf("%w\n%s", err, out)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: lock file regenerated\n", p.Name)
	}
	return nil
}
