package main

import (
	"errors"

	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
	"github.com/Universal-Commerce-Protocol/ucp-schema/loader"
	"github.com/Universal-Commerce-Protocol/ucp-schema/validator"
)

// Exit codes: 0 success, 1 validation or lint failure, 2 bad usage or input
// semantics, 3 I/O failure.
const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
	exitIO      = 3
)

// exitCodeFor maps an error to its CLI exit code. Parse errors outrank the
// I/O classification: a referenced document that exists but does not parse
// is an input defect, not an I/O failure.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitOK

	case errors.Is(err, validator.ErrInvalid):
		return exitInvalid

	case errors.Is(err, jsontree.ErrParse):
		return exitUsage

	case errors.Is(err, loader.ErrRead), errors.Is(err, loader.ErrFetch):
		return exitIO
	}

	return exitUsage
}

// exitError pins an error to a specific exit code; main still prints it.
type exitError struct {
	code  int
	cause error
}

func (e *exitError) Error() string {
	return e.cause.Error()
}

func (e *exitError) Unwrap() error {
	return e.cause
}

// silentExit carries an exit code for errors that were already reported,
// e.g. as a --json envelope on stdout.
type silentExit struct {
	code  int
	cause error
}

func (e *silentExit) Error() string {
	return e.cause.Error()
}

func (e *silentExit) Unwrap() error {
	return e.cause
}
