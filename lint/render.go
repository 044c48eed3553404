package lint

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	okGlyph   = color.New(color.FgGreen).Sprint("✓")
	warnGlyph = color.New(color.FgYellow).Sprint("⚠")
	failGlyph = color.New(color.FgRed).Sprint("✗")

	errorText   = color.New(color.FgRed).SprintfFunc()
	warningText = color.New(color.FgYellow).SprintfFunc()
	passText    = color.New(color.FgGreen).SprintfFunc()
)

// Succeeded reports whether the run succeeds: no errors, and in strict mode
// no warnings either.
func (r *Result) Succeeded(strict bool) bool {
	return r.IsOK() && (!strict || r.Warnings == 0)
}

// WriteText renders the result for terminals. With quiet set, clean files
// and warnings are suppressed.
func (r *Result) WriteText(w io.Writer, strict, quiet bool) {
	for _, fr := range r.Results {
		glyph := okGlyph

		switch fr.Status {
		case StatusWarning:
			glyph = warnGlyph
		case StatusError:
			glyph = failGlyph
		case StatusOK:
		}

		if !quiet || fr.Status != StatusOK {
			fmt.Fprintf(w, "  %s %s\n", glyph, fr.File)
		}

		for _, d := range fr.Diagnostics {
			if quiet && d.Severity != SeverityError {
				continue
			}

			line := fmt.Sprintf("%s[%s]: %s - %s", d.Severity, d.Code, d.Path, d.Message)
			if d.Severity == SeverityError {
				line = errorText("%s", line)
			} else {
				line = warningText("%s", line)
			}

			fmt.Fprintf(w, "    %s\n", line)
		}
	}

	fmt.Fprintln(w)

	if r.Succeeded(strict) {
		fmt.Fprintln(w, passText("%s %d files checked, all passed", "✓", r.FilesChecked))

		return
	}

	fmt.Fprintln(w, errorText("%s %d files checked: %d passed, %d failed (%d errors, %d warnings)",
		"✗", r.FilesChecked, r.Passed, r.Failed, r.Errors, r.Warnings))
}
