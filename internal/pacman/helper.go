package pacman

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/temirov/pacdef/internal/execshell"
	"github.com/temirov/pacdef/internal/packages"
)

const (
	helperSearchDirectoryConstant        = "/usr/bin"
	syncFlagConstant                     = "--sync"
	refreshFlagConstant                  = "--refresh"
	neededFlagConstant                   = "--needed"
	queryFlagConstant                    = "--query"
	infoFlagConstant                     = "--info"
	databaseFlagConstant                 = "--database"
	asDependencyFlagConstant             = "--asdeps"
	helperUnavailableMessageConstant     = "package manager could not be started"
	executorNotConfiguredMessageConstant = "package manager executor not configured"
	helperNotConfiguredMessageConstant   = "aur helper not configured"
	helperUnavailableTemplateConstant    = "%w: %s: %w"
	operationErrorTemplateConstant       = "%s failed: %v"
)

// OperationName identifies a package manager operation.
type OperationName string

// Supported operations.
const (
	OperationInstall          OperationName = "install"
	OperationRemove           OperationName = "remove"
	OperationShowInfo         OperationName = "show info"
	OperationMarkAsDependency OperationName = "mark as dependency"
)

var (
	// ErrHelperUnavailable indicates that the helper executable could not be started.
	ErrHelperUnavailable = errors.New(helperUnavailableMessageConstant)
	// ErrExecutorNotConfigured indicates that an adapter was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

	errHelperNotConfigured = errors.New(helperNotConfiguredMessageConstant)
)

// OperationError reports a package manager call that exited unsuccessfully.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the failed operation.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the execution failure.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// CommandExecutor is the subset of execshell.ShellExecutor used by AURHelper.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// AURHelper runs an AUR helper (paru, yay, ...) with the operator's terminal attached.
type AURHelper struct {
	executor        CommandExecutor
	executable      string
	removeArguments []string
}

// NewAURHelper constructs the adapter. Relative helper names are looked up in /usr/bin.
func NewAURHelper(executor CommandExecutor, configuration Configuration) (*AURHelper, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}

	helperName := strings.TrimSpace(configuration.AURHelper)
	if len(helperName) == 0 {
		return nil, errHelperNotConfigured
	}
	if !filepath.IsAbs(helperName) {
		helperName = filepath.Join(helperSearchDirectoryConstant, helperName)
	}

	removeArguments := configuration.AURHelperRemoveArguments
	if len(removeArguments) == 0 {
		removeArguments = defaultRemoveArguments()
	}

	return &AURHelper{
		executor:        executor,
		executable:      helperName,
		removeArguments: append([]string{}, removeArguments...),
	}, nil
}

// Executable returns the resolved helper path.
func (helper *AURHelper) Executable() string {
	return helper.executable
}

// Install installs every package in one call, skipping ones that are already present.
func (helper *AURHelper) Install(executionContext context.Context, targets []packages.Package) error {
	return helper.runBatch(executionContext, OperationInstall, []string{syncFlagConstant, refreshFlagConstant, neededFlagConstant}, packages.Strings(targets))
}

// Remove removes every package in one call using the configured removal arguments.
func (helper *AURHelper) Remove(executionContext context.Context, targets []packages.Package) error {
	return helper.runBatch(executionContext, OperationRemove, helper.removeArguments, packageNames(targets))
}

// ShowInfo prints the package manager's description of an installed package.
func (helper *AURHelper) ShowInfo(executionContext context.Context, target packages.Package) error {
	return helper.run(executionContext, OperationShowInfo, []string{queryFlagConstant, infoFlagConstant, target.Name()})
}

// MarkAsDependency flips the install reason of every package to "dependency" in one call.
func (helper *AURHelper) MarkAsDependency(executionContext context.Context, targets []packages.Package) error {
	return helper.runBatch(executionContext, OperationMarkAsDependency, []string{databaseFlagConstant, asDependencyFlagConstant}, packageNames(targets))
}

func (helper *AURHelper) runBatch(executionContext context.Context, operation OperationName, switches []string, targets []string) error {
	if len(targets) == 0 {
		return nil
	}
	return helper.run(executionContext, operation, append(append([]string{}, switches...), targets...))
}

func (helper *AURHelper) run(executionContext context.Context, operation OperationName, arguments []string) error {
	_, executionError := helper.executor.Execute(executionContext, execshell.ShellCommand{
		Name:    execshell.CommandName(helper.executable),
		Details: execshell.CommandDetails{Arguments: arguments, Interactive: true},
	})
	if executionError == nil {
		return nil
	}

	var startFailure execshell.CommandExecutionError
	if errors.As(executionError, &startFailure) {
		return fmt.Errorf(helperUnavailableTemplateConstant, ErrHelperUnavailable, helper.executable, executionError)
	}
	return OperationError{Operation: operation, Cause: executionError}
}

func packageNames(list []packages.Package) []string {
	names := make([]string, 0, len(list))
	for _, pkg := range list {
		names = append(names, pkg.Name())
	}
	return names
}
