package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

// Constants indicating return codes of this tool, when run from command line
const (
	exitCodeSuccess = iota
	exitCodeFailure
	exitCodeUsageError
	exitCodePartialTreeFailure
)

func handlePanic() {
	err := recover()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Program exited unexpectedly. "+
			"Please report the below error to the author:\n"+
			"%+v\n", err)
		_, _ = fmt.Fprintln(os.Stderr, string(debug.Stack()))
		os.Exit(exitCodeFailure)
	}
}

func main() {
	defer handlePanic()
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	os.Exit(a.run(os.Args[1:]))
}
