package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var locateFlags struct {
	exactMatch bool
	pathsOnly  bool
}

var locateCmd = &cobra.Command{
	Use:   "locate [project]",
	Short: "List the Python projects of the repository",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLocate,
}

func init() {
	f := locateCmd.Flags()
	f.BoolVarP(&locateFlags.exactMatch, "exact-match", "e", false, "Match the project name exactly")
	f.BoolVarP(&locateFlags.pathsOnly, "paths", "p", false, "Print only the project paths, one per line")
}

func runLocate(cmd *cobra.Command, args []string) error {
	projects, _, err := resolveProjects(args, locateFlags.exactMatch)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range projects {
		if locateFlags.pathsOnly {
			fmt.Fprintln(out, p.Path)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", p.Name, p.Path)
	}
	return nil
}
