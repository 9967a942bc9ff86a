package main

import (
	"fmt"
	"os"
)

// Exit codes. A failed session is told apart from bad usage so wrappers can
// retry the former.
const (
	exitUsage   = 2
	exitFailure = 1
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
}

// fatal reports err under msg and exits. Commands call it after cobra has
// accepted their arguments.
func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "padnote: %s: %v\n", msg, err)
	os.Exit(exitFailure)
}
