package main

import (
	"errors"

	flag "github.com/spf13/pflag"
)

// Exit codes for the novelpub CLI.
const (
	ExitSuccess = 0
	ExitError   = 1
)

// ErrUsage marks bad command-line input.
var ErrUsage = errors.New("usage")

// exitCodeFor returns the process exit code for err. Asking for help is not
// an error.
func exitCodeFor(err error) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	return ExitError
}
