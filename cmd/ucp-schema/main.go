// Package main provides the CLI entry point for ucp-schema, a tool that
// resolves and validates UCP schema annotations.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Universal-Commerce-Protocol/ucp-schema/log"
	"github.com/Universal-Commerce-Protocol/ucp-schema/profiler"
	"github.com/Universal-Commerce-Protocol/ucp-schema/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	err := newRootCmd().Execute()
	if err == nil {
		return 0
	}

	var silent *silentExit
	if errors.As(err, &silent) {
		return silent.code
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var coded *exitError
	if errors.As(err, &coded) {
		return coded.code
	}

	return exitCodeFor(err)
}

func newRootCmd() *cobra.Command {
	var (
		verbose   bool
		logFormat string
		prof      profiler.Profiler
	)

	rootCmd := &cobra.Command{
		Use:           "ucp-schema",
		Short:         "Resolve and validate UCP schema annotations",
		Version:       version.Short(),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			err := log.Setup(os.Stderr, verbose, logFormat)
			if err != nil {
				return err
			}

			return prof.Start()
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return prof.Stop()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", string(log.FormatLogfmt),
		"log output format (logfmt or json)")
	prof.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newResolveCmd(),
		newValidateCmd(),
		newComposeCmd(),
		newLintCmd(),
	)

	return rootCmd
}
