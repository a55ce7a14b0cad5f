package pacman

import (
	"context"
	"fmt"
	"strings"

	"github.com/temirov/pacdef/internal/execshell"
	"github.com/temirov/pacdef/internal/packages"
)

const (
	quietFlagConstant                = "--quiet"
	explicitFlagConstant             = "--explicit"
	queryOutputErrorTemplateConstant = "unable to parse pacman output line %q: %w"
	queryLineSeparatorConstant       = "\n"
	queryFieldSeparatorConstant      = " "
)

// PacmanExecutor is the subset of execshell.ShellExecutor used by QuerySource.
type PacmanExecutor interface {
	ExecutePacman(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// QuerySource lists installed packages by asking pacman.
type QuerySource struct {
	executor PacmanExecutor
}

// NewQuerySource constructs a QuerySource.
func NewQuerySource(executor PacmanExecutor) (*QuerySource, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &QuerySource{executor: executor}, nil
}

// AllInstalled runs pacman --query --quiet.
func (source *QuerySource) AllInstalled(executionContext context.Context) ([]packages.Package, error) {
	return source.query(executionContext, queryFlagConstant, quietFlagConstant)
}

// ExplicitlyInstalled runs pacman --query --quiet --explicit.
func (source *QuerySource) ExplicitlyInstalled(executionContext context.Context) ([]packages.Package, error) {
	return source.query(executionContext, queryFlagConstant, quietFlagConstant, explicitFlagConstant)
}

func (source *QuerySource) query(executionContext context.Context, arguments ...string) ([]packages.Package, error) {
	executionResult, executionError := source.executor.ExecutePacman(executionContext, execshell.CommandDetails{Arguments: arguments})
	if executionError != nil {
		return nil, executionError
	}
	return parseQueryOutput(executionResult.StandardOutput)
}

func parseQueryOutput(output string) ([]packages.Package, error) {
	var installed []packages.Package
	for _, line := range strings.Split(output, queryLineSeparatorConstant) {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) == 0 {
			continue
		}
		name, _, _ := strings.Cut(trimmedLine, queryFieldSeparatorConstant)
		pkg, parseError := packages.Parse(name)
		if parseError != nil {
			return nil, fmt.Errorf(queryOutputErrorTemplateConstant, trimmedLine, parseError)
		}
		installed = append(installed, pkg)
	}
	return installed, nil
}
