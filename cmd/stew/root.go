package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stew/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	directory string
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "stew",
	Short: "Continuous integration for poetry-managed Python repositories",
	Long: "Stew discovers the Python projects of a repository and runs their\n" +
		"lint, type-check and test suites against every declared environment.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, rootFlags.logFormat, cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootFlags.directory, "directory", "C", ".", "Repository or project directory to operate in")
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(ciCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(checkOutdatedCmd)
	rootCmd.AddCommand(fixOutdatedCmd)
	rootCmd.AddCommand(bumpCmd)
	rootCmd.Version = version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		code := exitInternalError
		var exit *exitError
		if errors.As(err, &exit) {
			code = exit.code
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(code)
	}
}
