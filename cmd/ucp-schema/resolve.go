package main

import (
	"github.com/spf13/cobra"

	"github.com/Universal-Commerce-Protocol/ucp-schema/bundler"
	"github.com/Universal-Commerce-Protocol/ucp-schema/composer"
	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
	"github.com/Universal-Commerce-Protocol/ucp-schema/loader"
	"github.com/Universal-Commerce-Protocol/ucp-schema/resolver"
)

func newResolveCmd() *cobra.Command {
	var (
		direction directionFlags
		op        string
		output    string
		pretty    bool
		bundle    bool
		strict    bool
		base      loader.BaseConfig
	)

	cmd := &cobra.Command{
		Use:   "resolve <schema|payload>",
		Short: "Resolve a schema for a specific direction and operation",
		Long: `Resolve rewrites a UCP-annotated schema into standard JSON Schema for one
direction and operation. When the source is a self-describing payload, its
capabilities are composed into a schema first and the direction is inferred.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runResolve(args[0], direction, op, output, pretty, bundle, strict, base)
		},
	}

	cmd.Flags().BoolVar(&direction.request, "request", false,
		"resolve for the request direction")
	cmd.Flags().BoolVar(&direction.response, "response", false,
		"resolve for the response direction")
	cmd.MarkFlagsMutuallyExclusive("request", "response")
	cmd.Flags().StringVarP(&op, "op", "o", "",
		"operation to resolve for (e.g. create, update, read)")
	_ = cmd.MarkFlagRequired("op")
	cmd.Flags().StringVar(&output, "output", "",
		"output file (stdout if not specified)")
	cmd.Flags().BoolVar(&pretty, "pretty", false,
		"pretty-print JSON output")
	cmd.Flags().BoolVar(&bundle, "bundle", false,
		"dereference all $ref pointers into a single schema")
	cmd.Flags().BoolVar(&strict, "strict", false,
		"reject unknown fields in resolved schemas")
	base.RegisterFlags(cmd.Flags())

	return cmd
}

func runResolve(source string, direction directionFlags, op, output string, pretty, bundle, strict bool, base loader.BaseConfig) error {
	l := loader.New()
	l.Base = base

	doc, err := l.LoadAuto(source)
	if err != nil {
		return err
	}

	var schema jsontree.Value

	if loader.IsSelfDescribing(doc) {
		if bundle {
			return usageError("--bundle does not apply to payload input")
		}

		schema, err = composer.ComposeFromPayload(l, doc)
		if err != nil {
			return err
		}
	} else {
		if base.LocalBase != "" || base.RemoteBase != "" {
			return usageError("--schema-local-base and --schema-remote-base apply to payload input only")
		}

		if !direction.explicit() {
			return usageError("direction required: pass --request or --response")
		}

		schema = doc

		if bundle {
			schema, err = bundler.New(l).Bundle(schema, sourceBase(source))
			if err != nil {
				return err
			}
		}
	}

	inferred, ok := loader.DetectDirection(doc)
	var inferredPtr *resolver.Direction
	if ok {
		inferredPtr = &inferred
	}

	opts := resolver.NewOptions(direction.determine(inferredPtr), op).WithStrict(strict)

	resolved, err := resolver.Resolve(schema, opts)
	if err != nil {
		return err
	}

	return writeDocument(resolved, output, pretty)
}
