package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stew/internal/logging"
)

var bumpFlags struct {
	exactMatch bool
}

var bumpCmd = &cobra.Command{
	Use:   "bump [project]",
	Short: "Update every dependency to the latest version the constraints allow",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBump,
}

func init() {
	bumpCmd.Flags().BoolVarP(&bumpFlags.exactMatch, "exact-match", "e", false, "Match the project name exactly")
}

func runBump(cmd *cobra.Command, args []string) error {
	projects, _, err := resolveProjects(args, bumpFlags.exactMatch)
	if err != nil {
		return err
	}

	log := logging.New("bump")
	ctx := cmd.Context()
	for _, p := range projects {
		env, err := firstEnvironment(p)
		if err != nil {
			return err
		}
		log.Info("updating dependencies", "project", p.Name)
		if out, err := runPoetry(ctx, p, env, "update"); err != nil {
			return fmt.Errorf("%w\n%s", err, out)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: dependencies updated\n", p.Name)
	}
	return nil
}
