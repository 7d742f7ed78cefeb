package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"stew/internal/logging"
	"stew/internal/pyenv"
	"stew/internal/wheelhouse"
)

var buildFlags struct {
	target     string
	python     string
	exactMatch bool
	noHashes   bool
	verify     bool
}

var buildCmd = &cobra.Command{
	Use:   "build [project]",
	Short: "Build an offline wheelhouse for one or all projects",
	Long: "Builds the project wheel and a wheel for every locked dependency into\n" +
		"a single folder, usable later with pip install --no-index.",
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVar(&buildFlags.target, "target", ".wheels", "Wheelhouse folder, relative to the repository root")
	f.StringVar(&buildFlags.python, "python", "", "Interpreter or virtualenv to build with (default: the project's first environment)")
	f.BoolVarP(&buildFlags.exactMatch, "exact-match", "e", false, "Match the project name exactly")
	f.BoolVar(&buildFlags.noHashes, "no-hashes", false, "Export the lock file without hashes")
	f.BoolVar(&buildFlags.verify, "verify", false, "Offline-install each project from the wheelhouse afterwards")
}

func runBuild(cmd *cobra.Command, args []string) error {
	projects, repoRoot, err := resolveProjects(args, buildFlags.exactMatch)
	if err != nil {
		return err
	}

	target := buildFlags.target
	if !filepath.IsAbs(target) {
		target = filepath.Join(repoRoot, target)
	}

	log := logging.New("build")
	ctx := cmd.Context()
	for _, p := range projects {
		var env *pyenv.Environment
		if buildFlags.python != "" {
			env, err = pyenv.New(buildFlags.python)
		} else {
			env, err = firstEnvironment(p)
		}
		if err != nil {
			return err
		}

		opts := wheelhouse.Options{
			ProjectDir: p.Path,
			Target:     target,
			NoHashes:   buildFlags.noHashes || p.BuildWithoutHashes,
		}
		if err := wheelhouse.Build(ctx, env, opts); err != nil {
			return fmt.Errorf("build %s: %w", p.Name, err)
		}

		if buildFlags.verify {
			if _, err := wheelhouse.VerifyInstall(ctx, env, p.Name, target); err != nil {
				return fmt.Errorf("verify %s: %w", p.Name, err)
			}
			log.Info("offline install verified", "project", p.Name)
		}
	}

	count, err := wheelhouse.WheelCount(target)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d wheels\n", target, count)
	return nil
}
