// Package lint statically checks UCP schema files for defects: syntax
// errors, unknown visibility values, malformed annotations and transitions,
// and broken references.
package lint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
	"github.com/Universal-Commerce-Protocol/ucp-schema/loader"
	"github.com/Universal-Commerce-Protocol/ucp-schema/resolver"
)

// ErrPathNotFound indicates the lint target does not exist.
var ErrPathNotFound = errors.New("path not found")

// Severity classifies a diagnostic.
type Severity int

// Diagnostic severities.
const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}

	return "warning"
}

// MarshalJSON renders the severity as its name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// FileStatus summarizes a single file's diagnostics.
type FileStatus int

// Per-file statuses.
const (
	StatusOK FileStatus = iota
	StatusWarning
	StatusError
)

// String returns the lowercase status name.
func (s FileStatus) String() string {
	switch s {
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	case StatusOK:
	}

	return "ok"
}

// MarshalJSON renders the status as its name.
func (s FileStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Diagnostic is a single finding in a file.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
}

// FileResult holds the findings for one file.
type FileResult struct {
	File        string       `json:"file"`
	Status      FileStatus   `json:"status"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Result aggregates findings across all checked files.
type Result struct {
	Results      []FileResult `json:"results"`
	FilesChecked int          `json:"files_checked"`
	Passed       int          `json:"passed"`
	Failed       int          `json:"failed"`
	Errors       int          `json:"errors"`
	Warnings     int          `json:"warnings"`
}

// IsOK reports whether no file produced an error diagnostic.
func (r *Result) IsOK() bool {
	return r.Errors == 0
}

// schemaExtensions are the file extensions checked when linting a
// directory.
var schemaExtensions = []string{".json", ".yaml", ".yml"}

// Run lints a file, or every schema file under a directory.
func Run(path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}

	var files []string

	if info.IsDir() {
		walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !d.IsDir() && slices.Contains(schemaExtensions, filepath.Ext(p)) {
				files = append(files, p)
			}

			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrPathNotFound, walkErr)
		}
	} else {
		files = []string{path}
	}

	result := &Result{FilesChecked: len(files)}

	for _, file := range files {
		fr := lintFile(file)
		result.Results = append(result.Results, fr)

		switch fr.Status {
		case StatusOK, StatusWarning:
			result.Passed++
		case StatusError:
			result.Failed++
		}

		for _, d := range fr.Diagnostics {
			if d.Severity == SeverityError {
				result.Errors++
			} else {
				result.Warnings++
			}
		}
	}

	return result, nil
}

func lintFile(path string) FileResult {
	result := FileResult{File: path}

	data, err := os.ReadFile(path) //nolint:gosec // Paths come from CLI arguments.
	if err != nil {
		result.Status = StatusError
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Severity: SeverityError,
			Code:     "read-error",
			Message:  err.Error(),
		})

		return result
	}

	root, err := jsontree.Parse(data)
	if err != nil {
		result.Status = StatusError
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Severity: SeverityError,
			Code:     "parse-error",
			Message:  err.Error(),
		})

		return result
	}

	c := &checker{root: root, dir: filepath.Dir(path)}
	c.walk(root, "")
	c.checkWellFormed(root, c.externalRefs)

	result.Diagnostics = c.diagnostics

	for _, d := range result.Diagnostics {
		if d.Severity == SeverityError {
			result.Status = StatusError

			break
		}

		result.Status = StatusWarning
	}

	return result
}

// checker walks a parsed document collecting diagnostics.
type checker struct {
	root         jsontree.Value
	dir          string
	diagnostics  []Diagnostic
	externalRefs bool
}

func (c *checker) add(severity Severity, code, path, message string) {
	c.diagnostics = append(c.diagnostics, Diagnostic{
		Severity: severity,
		Code:     code,
		Path:     path,
		Message:  message,
	})
}

func (c *checker) walk(value jsontree.Value, path string) {
	switch v := value.(type) {
	case *jsontree.Object:
		for _, key := range v.Keys() {
			child, _ := v.Get(key)
			childPath := path + "/" + key

			switch {
			case resolver.IsAnnotationKey(key):
				c.checkAnnotation(child, childPath)
			case key == "$ref":
				c.checkRef(child, childPath)
			default:
				c.walk(child, childPath)
			}
		}

	case *jsontree.Array:
		for i, item := range v.Items {
			c.walk(item, fmt.Sprintf("%s/%d", path, i))
		}
	}
}

// checkAnnotation validates a UCP annotation value: a visibility string, or
// an operation map whose entries are visibility strings or transition
// descriptors.
func (c *checker) checkAnnotation(value jsontree.Value, path string) {
	switch ann := value.(type) {
	case jsontree.String:
		c.checkVisibility(string(ann), path)

	case *jsontree.Object:
		for _, op := range ann.Keys() {
			entry, _ := ann.Get(op)
			entryPath := path + "/" + op

			if op == "transition" {
				c.checkTransition(entry, path)

				continue
			}

			switch e := entry.(type) {
			case jsontree.String:
				c.checkVisibility(string(e), entryPath)
			case *jsontree.Object:
				c.checkTransition(e, entryPath)
			default:
				c.add(SeverityError, "invalid-annotation-type", entryPath,
					fmt.Sprintf("operation entry must be a visibility string or transition, got %s", entry.Kind()))
			}
		}

	default:
		c.add(SeverityError, "invalid-annotation-type", path,
			fmt.Sprintf("annotation must be a string or object, got %s", value.Kind()))
	}
}

func (c *checker) checkVisibility(s, path string) {
	if _, ok := resolver.ParseVisibility(s); !ok {
		c.add(SeverityError, "unknown-visibility", path,
			fmt.Sprintf("unknown visibility %q (want include, required, optional, or omit)", s))
	}
}

func (c *checker) checkTransition(value jsontree.Value, path string) {
	obj, ok := value.(*jsontree.Object)
	if !ok {
		c.add(SeverityError, "invalid-transition", path,
			fmt.Sprintf("transition must be an object, got %s", value.Kind()))

		return
	}

	if inner := obj.GetObject("transition"); inner != nil {
		obj = inner
	}

	from, _ := obj.GetString("from")
	to, _ := obj.GetString("to")
	description, _ := obj.GetString("description")

	if description == "" {
		c.add(SeverityError, "invalid-transition", path, "transition is missing a description")
	}

	_, fromOK := resolver.ParseVisibility(from)
	_, toOK := resolver.ParseVisibility(to)

	if !fromOK || !toOK || from == to {
		c.add(SeverityError, "invalid-transition", path,
			fmt.Sprintf("transition from %q to %q must use distinct visibility values", from, to))
	}
}

// checkRef validates a reference: intra-document pointers must resolve;
// relative file locations must exist on disk.
func (c *checker) checkRef(value jsontree.Value, path string) {
	ref, ok := value.(jsontree.String)
	if !ok {
		c.add(SeverityError, "invalid-ref", path,
			fmt.Sprintf("$ref must be a string, got %s", value.Kind()))

		return
	}

	location, fragment, _ := strings.Cut(string(ref), "#")

	switch {
	case location == "" && fragment == "":
		// Self-root reference, always valid.

	case location == "":
		if _, err := jsontree.ResolvePointer(c.root, fragment); err != nil {
			c.add(SeverityError, "broken-ref", path,
				fmt.Sprintf("pointer %q does not resolve", fragment))
		}

	case loader.IsURL(location):
		// Remote references are not fetched during lint.
		c.externalRefs = true

	default:
		c.externalRefs = true

		target := filepath.Join(c.dir, filepath.FromSlash(location))
		if _, err := os.Stat(target); err != nil {
			c.add(SeverityError, "broken-ref", path,
				fmt.Sprintf("referenced file %q not found", location))
		}
	}
}
