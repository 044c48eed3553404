package main

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Universal-Commerce-Protocol/ucp-schema/bundler"
	"github.com/Universal-Commerce-Protocol/ucp-schema/composer"
	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
	"github.com/Universal-Commerce-Protocol/ucp-schema/loader"
	"github.com/Universal-Commerce-Protocol/ucp-schema/resolver"
	"github.com/Universal-Commerce-Protocol/ucp-schema/validator"
)

type validateArgs struct {
	payloadPath string
	schema      string
	profile     string
	direction   directionFlags
	op          string
	jsonOutput  bool
	strict      bool
	base        loader.BaseConfig
}

func newValidateCmd() *cobra.Command {
	var a validateArgs

	cmd := &cobra.Command{
		Use:   "validate <payload>",
		Short: "Validate a payload against a resolved schema",
		Long: `Validate checks a payload against the schema resolved for one direction and
operation. The schema comes from --schema, from the profile document named by
--profile, or from the payload's own UCP metadata: a ucp.capabilities mapping
(response) or a meta.profile URL (JSONRPC request envelope).`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			a.payloadPath = args[0]

			return runValidate(a)
		},
	}

	cmd.Flags().StringVar(&a.schema, "schema", "",
		"explicit schema source (default: infer from the payload's UCP metadata)")
	cmd.Flags().StringVar(&a.profile, "profile", "",
		"agent profile URL (payload is validated as a raw object)")
	cmd.MarkFlagsMutuallyExclusive("schema", "profile")
	cmd.Flags().BoolVar(&a.direction.request, "request", false,
		"validate as a request (auto-inferred if omitted)")
	cmd.Flags().BoolVar(&a.direction.response, "response", false,
		"validate as a response (auto-inferred if omitted)")
	cmd.MarkFlagsMutuallyExclusive("request", "response")
	cmd.Flags().StringVarP(&a.op, "op", "o", "",
		"operation to validate for (e.g. create, update, read)")
	_ = cmd.MarkFlagRequired("op")
	cmd.Flags().BoolVar(&a.jsonOutput, "json", false,
		"output results as JSON")
	cmd.Flags().BoolVar(&a.strict, "strict", false,
		"reject unknown fields")
	a.base.RegisterFlags(cmd.Flags())

	return cmd
}

func runValidate(a validateArgs) error {
	if a.base.RemoteBase != "" && a.base.LocalBase == "" {
		return reportError(a.jsonOutput, exitUsage,
			errors.New("--schema-remote-base requires --schema-local-base"))
	}

	if a.schema != "" && (a.base.LocalBase != "" || a.base.RemoteBase != "") {
		return reportError(a.jsonOutput, exitUsage,
			errors.New("--schema-local-base and --schema-remote-base do not apply with --schema"))
	}

	l := loader.New()
	l.Base = a.base

	payload, err := l.Load(a.payloadPath)
	if err != nil {
		return reportError(a.jsonOutput, exitCodeFor(err), fmt.Errorf("loading payload: %w", err))
	}

	schema, target, direction, err := selectSchema(l, a, payload)
	if err != nil {
		return err
	}

	opts := resolver.NewOptions(direction, a.op).WithStrict(a.strict)

	issues, err := validator.Validate(schema, target, opts)

	switch {
	case err == nil:
		if a.jsonOutput {
			fmt.Println(`{"valid":true}`)
		} else {
			fmt.Println("Valid")
		}

		return nil

	case errors.Is(err, validator.ErrInvalid):
		if a.jsonOutput {
			printEnvelope(issues)
		} else {
			fmt.Fprintln(os.Stderr, "Validation failed:")

			for _, issue := range issues {
				fmt.Fprintf(os.Stderr, "  %s\n", issue)
			}
		}

		return &silentExit{code: exitInvalid, cause: err}

	default:
		return reportError(a.jsonOutput, exitCodeFor(err), err)
	}
}

// selectSchema picks the validation mode: explicit profile, explicit
// schema, or the payload's own UCP metadata. It returns the annotated
// schema, the value to validate, and the direction.
func selectSchema(l *loader.Loader, a validateArgs, payload jsontree.Value) (schema, target jsontree.Value, direction resolver.Direction, err error) {
	switch {
	case a.profile != "":
		// REST pattern: the payload is the raw domain object.
		direction = a.direction.determine(nil)

		capabilities, err := composer.ExtractCapabilitiesFromProfile(l, a.profile)
		if err != nil {
			return nil, nil, 0, reportError(a.jsonOutput, exitCodeFor(err), err)
		}

		schema, err = composer.Compose(l, capabilities)
		if err != nil {
			return nil, nil, 0, reportError(a.jsonOutput, exitCodeFor(err), err)
		}

		return schema, payload, direction, nil

	case a.schema != "":
		var inferredPtr *resolver.Direction
		if inferred, ok := loader.DetectDirection(payload); ok {
			inferredPtr = &inferred
		}

		direction = a.direction.determine(inferredPtr)

		schema, err = l.LoadAuto(a.schema)
		if err != nil {
			return nil, nil, 0, reportError(a.jsonOutput, exitCodeFor(err), fmt.Errorf("loading schema: %w", err))
		}

		schema, err = bundler.New(l).Bundle(schema, sourceBase(a.schema))
		if err != nil {
			return nil, nil, 0, reportError(a.jsonOutput, exitCodeFor(err), fmt.Errorf("bundling refs: %w", err))
		}

		return schema, payload, direction, nil
	}

	// Self-describing mode: classify by the payload's own metadata.
	if loader.IsSelfDescribing(payload) {
		inferred := resolver.Response
		direction = a.direction.determine(&inferred)

		schema, err = composer.ComposeFromPayload(l, payload)
		if err != nil {
			return nil, nil, 0, reportError(a.jsonOutput, exitCodeFor(err), err)
		}

		return schema, payload, direction, nil
	}

	if profileURL, ok := loader.ProfileURL(payload); ok {
		// JSONRPC request envelope: the domain payload is nested under the
		// root capability's short name.
		inferred := resolver.Request
		direction = a.direction.determine(&inferred)

		capabilities, err := composer.ExtractCapabilitiesFromProfile(l, profileURL)
		if err != nil {
			return nil, nil, 0, reportError(a.jsonOutput, exitCodeFor(err), err)
		}

		nested, _, err := composer.ExtractEnvelopePayload(payload, capabilities)
		if err != nil {
			return nil, nil, 0, reportError(a.jsonOutput, exitCodeFor(err), err)
		}

		schema, err = composer.Compose(l, capabilities)
		if err != nil {
			return nil, nil, 0, reportError(a.jsonOutput, exitCodeFor(err), err)
		}

		return schema, nested, direction, nil
	}

	return nil, nil, 0, reportError(a.jsonOutput, exitUsage,
		errors.New("cannot infer direction: payload has no ucp.capabilities (response) or meta.profile (request); use --schema, --profile, --request, or --response"))
}

// envelope is the JSON output shape shared by validation results and
// errors.
type envelope struct {
	Valid  bool              `json:"valid"`
	Errors []validator.Issue `json:"errors"`
}

func printEnvelope(issues []validator.Issue) {
	out, err := json.Marshal(envelope{Valid: false, Errors: issues})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: serializing output: %v\n", err)

		return
	}

	fmt.Println(string(out))
}

// reportError reports an error in the configured format and pins its exit
// code. In JSON mode the error uses the validation envelope shape on
// stdout; otherwise main prints it to stderr.
func reportError(jsonOutput bool, code int, err error) error {
	if !jsonOutput {
		return &exitError{code: code, cause: err}
	}

	printEnvelope([]validator.Issue{{Path: "", Message: err.Error()}})

	return &silentExit{code: code, cause: err}
}
