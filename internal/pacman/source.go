package pacman

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/pacdef/internal/execshell"
	"github.com/temirov/pacdef/internal/packages"
	"github.com/temirov/pacdef/internal/ui"
)

const unknownSourceTemplateConstant = "unknown installed state source %q (expected %s or %s)"

// InstalledStateSource answers read-only questions about the package database.
type InstalledStateSource interface {
	AllInstalled(executionContext context.Context) ([]packages.Package, error)
	ExplicitlyInstalled(executionContext context.Context) ([]packages.Package, error)
}

// NewTerminalExecutor builds a ShellExecutor that reports command progress on output.
func NewTerminalExecutor(logger *zap.Logger, output io.Writer) (*execshell.ShellExecutor, error) {
	reporter := ui.NewConsoleCommandEventReporter(output, ui.NewTerminalPalette())
	return execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), execshell.WithCommandEventObserver(reporter))
}

// Toolkit bundles the adapters used by commands that read and change the installed package set.
type Toolkit struct {
	Source  InstalledStateSource
	Manager *AURHelper
}

// NewToolkit wires the AUR helper and the configured installed-state source to one terminal executor.
func NewToolkit(logger *zap.Logger, configuration Configuration, output io.Writer) (Toolkit, error) {
	executor, executorError := NewTerminalExecutor(logger, output)
	if executorError != nil {
		return Toolkit{}, executorError
	}

	source, sourceError := NewInstalledStateSource(configuration, executor)
	if sourceError != nil {
		return Toolkit{}, sourceError
	}

	manager, managerError := NewAURHelper(executor, configuration)
	if managerError != nil {
		return Toolkit{}, managerError
	}
	return Toolkit{Source: source, Manager: manager}, nil
}

// NewInstalledStateSource picks the configured installed-state source.
func NewInstalledStateSource(configuration Configuration, executor PacmanExecutor) (InstalledStateSource, error) {
	switch strings.ToLower(strings.TrimSpace(configuration.InstalledStateSource)) {
	case "", InstalledStateSourcePacman:
		return NewQuerySource(executor)
	case InstalledStateSourceDatabase:
		databasePath, resolveError := ResolveDatabasePath(configuration, nil)
		if resolveError != nil {
			return nil, resolveError
		}
		return NewDatabaseSource(databasePath), nil
	default:
		return nil, fmt.Errorf(unknownSourceTemplateConstant, configuration.InstalledStateSource, InstalledStateSourcePacman, InstalledStateSourceDatabase)
	}
}
