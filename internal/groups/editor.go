package groups

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/temirov/pacdef/internal/execshell"
)

const (
	editorEnvironmentVariableConstant          = "EDITOR"
	visualEnvironmentVariableConstant          = "VISUAL"
	editorNotConfiguredMessageConstant         = "no editor configured; set pacdef.editor, EDITOR, or VISUAL"
	editorExecutorNotConfiguredMessageConstant = "editor launcher requires an executor"
)

var (
	// ErrEditorNotConfigured indicates that neither the configuration nor the environment names an editor.
	ErrEditorNotConfigured = errors.New(editorNotConfiguredMessageConstant)

	errEditorExecutorMissing = errors.New(editorExecutorNotConfiguredMessageConstant)
)

// EnvironmentLookup resolves environment variables.
type EnvironmentLookup func(name string) (string, bool)

// EditorLauncher opens files in an editor and waits for it to exit.
type EditorLauncher interface {
	Edit(executionContext context.Context, paths []string) error
}

// CommandExecutor runs an external command.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// ShellEditorLauncher runs the resolved editor through a CommandExecutor with the terminal attached.
type ShellEditorLauncher struct {
	executor      CommandExecutor
	editorCommand []string
}

// ResolveEditor picks the configured editor, then EDITOR, then VISUAL.
func ResolveEditor(configuredEditor string, lookup EnvironmentLookup) ([]string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	candidates := []string{configuredEditor}
	for _, variableName := range []string{editorEnvironmentVariableConstant, visualEnvironmentVariableConstant} {
		if value, found := lookup(variableName); found {
			candidates = append(candidates, value)
		}
	}

	for _, candidate := range candidates {
		if fields := strings.Fields(candidate); len(fields) > 0 {
			return fields, nil
		}
	}
	return nil, ErrEditorNotConfigured
}

// NewShellEditorLauncher constructs a launcher for the given editor command line.
func NewShellEditorLauncher(executor CommandExecutor, editorCommand []string) (*ShellEditorLauncher, error) {
	if executor == nil {
		return nil, errEditorExecutorMissing
	}
	if len(editorCommand) == 0 {
		return nil, ErrEditorNotConfigured
	}
	return &ShellEditorLauncher{executor: executor, editorCommand: append([]string{}, editorCommand...)}, nil
}

// Edit opens all paths in a single editor invocation.
func (launcher *ShellEditorLauncher) Edit(executionContext context.Context, paths []string) error {
	arguments := append(append([]string{}, launcher.editorCommand[1:]...), paths...)
	_, executionError := launcher.executor.Execute(executionContext, execshell.ShellCommand{
		Name:    execshell.CommandName(launcher.editorCommand[0]),
		Details: execshell.CommandDetails{Arguments: arguments, Interactive: true},
	})
	return executionError
}
