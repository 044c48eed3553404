package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
	"github.com/Universal-Commerce-Protocol/ucp-schema/loader"
	"github.com/Universal-Commerce-Protocol/ucp-schema/resolver"
)

// directionFlags holds the --request/--response pair shared by resolve and
// validate.
type directionFlags struct {
	request  bool
	response bool
}

// determine picks the direction: explicit flags override inference; with
// neither flag nor inference the fallback applies.
func (f directionFlags) determine(inferred *resolver.Direction) resolver.Direction {
	switch {
	case f.request:
		return resolver.Request
	case f.response:
		return resolver.Response
	case inferred != nil:
		return *inferred
	}

	return resolver.Request
}

// explicit reports whether either direction flag was set.
func (f directionFlags) explicit() bool {
	return f.request || f.response
}

// sourceBase returns the reference-resolution base for a schema source: the
// URL prefix up to the last slash, or the file's directory.
func sourceBase(source string) string {
	if loader.IsURL(source) {
		if i := strings.LastIndex(source, "/"); i > len("https://") {
			return source[:i]
		}

		return source
	}

	dir := filepath.Dir(source)
	if dir == "" {
		return "."
	}

	return dir
}

// writeDocument renders value and writes it to path, or stdout when path is
// empty or "-".
func writeDocument(value jsontree.Value, path string, pretty bool) error {
	var (
		out []byte
		err error
	)

	if pretty {
		out, err = jsontree.MarshalIndent(value, "", "  ")
	} else {
		out, err = jsontree.Marshal(value)
	}

	if err != nil {
		return fmt.Errorf("serializing output: %w", err)
	}

	out = append(out, '\n')

	if path == "" || path == "-" {
		_, err = os.Stdout.Write(out)
		if err != nil {
			return fmt.Errorf("writing output: %w", err)
		}

		return nil
	}

	err = os.WriteFile(path, out, 0o644) //nolint:gosec // Schema output is not sensitive.
	if err != nil {
		return &exitError{code: exitIO, cause: fmt.Errorf("writing %s: %w", path, err)}
	}

	return nil
}

// usageError is a semantic flag/input mismatch reported with exit code 2.
func usageError(format string, args ...any) error {
	return &exitError{code: exitUsage, cause: fmt.Errorf(format, args...)}
}
