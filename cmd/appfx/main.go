package main

import (
	"fmt"
	"io"
	"os"

	apperrors "github.com/appfx/appfx/pkg/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError renders a failure by class: cancellations echo as-is, user
// errors get a plain prefix, everything else is flagged as unexpected.
func printError(w io.Writer, err error) {
	switch {
	case apperrors.IsCancelled(err):
		fmt.Fprintln(w, err)
	case apperrors.IsUser(err):
		fmt.Fprintf(w, "Error: %v\n", err)
	default:
		fmt.Fprintf(w, "Unexpected error: %v\n", err)
	}
}
