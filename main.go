package main

import (
	"fmt"
	"os"

	"github.com/temirov/pacdef/cmd/cli"
)

const (
	exitErrorTemplateConstant = "error: %v\n"
)

// main executes the pacdef command-line application.
func main() {
	executionError := cli.Execute()
	if executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
	}
	os.Exit(cli.ExitCodeForError(executionError))
}
