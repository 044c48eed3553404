package main

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Universal-Commerce-Protocol/ucp-schema/lint"
)

func newLintCmd() *cobra.Command {
	var (
		format string
		strict bool
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "lint <path>",
		Short: "Lint schema files for errors",
		Long: `Lint statically checks schema files for syntax errors, broken references,
and invalid UCP annotations. A directory is checked recursively.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runLint(args[0], format, strict, quiet)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")
	cmd.Flags().BoolVar(&strict, "strict", false,
		"treat warnings as errors")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress progress output, only show errors")

	return cmd
}

func runLint(path, format string, strict, quiet bool) error {
	result, err := lint.Run(path)
	if err != nil {
		return &exitError{code: exitIO, cause: err}
	}

	if format == "json" {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("serializing output: %w", err)
		}

		fmt.Println(string(out))
	} else {
		if !quiet {
			fmt.Printf("Linting %s ...\n\n", path)
		}

		result.WriteText(os.Stdout, strict, quiet)
	}

	if !result.Succeeded(strict) {
		return &silentExit{code: exitInvalid, cause: errors.New("lint failed")}
	}

	return nil
}
