package execshell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"slices"
)

const environmentAssignmentSeparatorConstant = "="

// OSCommandRunner starts processes with os/exec. Interactive commands are attached to the
// runner's terminal streams; all others have their output captured.
type OSCommandRunner struct {
	terminalInput  io.Reader
	terminalOutput io.Writer
	terminalErrors io.Writer
}

// NewOSCommandRunner constructs a runner attached to the process's standard streams.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{terminalInput: os.Stdin, terminalOutput: os.Stdout, terminalErrors: os.Stderr}
}

// Run executes command and returns its result. A non-zero exit code is a result, not an error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	process := exec.CommandContext(executionContext, string(command.Name), slices.Clone(command.Details.Arguments)...)
	process.Dir = command.Details.WorkingDirectory
	if len(command.Details.EnvironmentVariables) > 0 {
		process.Env = mergeEnvironment(os.Environ(), command.Details.EnvironmentVariables)
	}

	var capturedOutput, capturedErrors bytes.Buffer
	if command.Details.Interactive {
		process.Stdin = runner.terminalInput
		process.Stdout = runner.terminalOutput
		process.Stderr = runner.terminalErrors
	} else {
		process.Stdout = &capturedOutput
		process.Stderr = &capturedErrors
		if len(command.Details.StandardInput) > 0 {
			process.Stdin = bytes.NewReader(command.Details.StandardInput)
		}
	}

	exitCode := 0
	if runError := process.Run(); runError != nil {
		var exitError *exec.ExitError
		if !errors.As(runError, &exitError) {
			return ExecutionResult{}, runError
		}
		exitCode = exitError.ExitCode()
	}

	return ExecutionResult{
		StandardOutput: capturedOutput.String(),
		StandardError:  capturedErrors.String(),
		ExitCode:       exitCode,
	}, nil
}

// mergeEnvironment appends overrides in key order so later entries win deterministically.
func mergeEnvironment(base []string, overrides map[string]string) []string {
	merged := slices.Clone(base)
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		merged = append(merged, key+environmentAssignmentSeparatorConstant+overrides[key])
	}
	return merged
}
