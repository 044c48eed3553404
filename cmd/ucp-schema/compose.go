package main

import (
	"github.com/spf13/cobra"

	"github.com/Universal-Commerce-Protocol/ucp-schema/composer"
	"github.com/Universal-Commerce-Protocol/ucp-schema/loader"
)

func newComposeCmd() *cobra.Command {
	var (
		output string
		pretty bool
		base   loader.BaseConfig
	)

	cmd := &cobra.Command{
		Use:   "compose <payload>",
		Short: "Compose a schema from a payload's capabilities",
		Long: `Compose assembles a single schema from the capabilities a self-describing
payload advertises. This is pure composition: UCP annotations are preserved,
and no direction or operation applies.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runCompose(args[0], output, pretty, base)
		},
	}

	cmd.Flags().StringVar(&output, "output", "",
		"output file (stdout if not specified)")
	cmd.Flags().BoolVar(&pretty, "pretty", false,
		"pretty-print JSON output")
	base.RegisterFlags(cmd.Flags())

	return cmd
}

func runCompose(source, output string, pretty bool, base loader.BaseConfig) error {
	l := loader.New()
	l.Base = base

	payload, err := l.LoadAuto(source)
	if err != nil {
		return err
	}

	composed, err := composer.ComposeFromPayload(l, payload)
	if err != nil {
		return err
	}

	return writeDocument(composed, output, pretty)
}
