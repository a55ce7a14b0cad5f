package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

type packageOperation int

const (
	packageOperationUnknown packageOperation = iota
	packageOperationInstall
	packageOperationRemove
	packageOperationInformation
	packageOperationMarkDependency
	packageOperationQueryInstalled
	packageOperationQueryExplicit
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	packageListSeparatorConstant            = ", "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	flagPrefixConstant                      = "-"
	noPackagesLabelConstant                 = "no packages"
)

const (
	syncFlagConstant         = "--sync"
	removeFlagConstant       = "--remove"
	removeShortFlagConstant  = "-R"
	queryFlagConstant        = "--query"
	queryShortFlagConstant   = "-Q"
	infoFlagConstant         = "--info"
	databaseFlagConstant     = "--database"
	asDependencyFlagConstant = "--asdeps"
	explicitFlagConstant     = "--explicit"
)

const (
	installStartTemplateConstant                   = "Installing %s"
	installSuccessTemplateConstant                 = "Installed %s"
	installFailureTemplateConstant                 = "Failed to install %s (exit code %d%s)"
	installExecutionFailureTemplateConstant        = "Unable to install %s: %s"
	removeStartTemplateConstant                    = "Removing %s"
	removeSuccessTemplateConstant                  = "Removed %s"
	removeFailureTemplateConstant                  = "Failed to remove %s (exit code %d%s)"
	removeExecutionFailureTemplateConstant         = "Unable to remove %s: %s"
	informationStartTemplateConstant               = "Showing information for %s"
	informationSuccessTemplateConstant             = "Showed information for %s"
	informationFailureTemplateConstant             = "Failed to show information for %s (exit code %d%s)"
	informationExecutionFailureTemplateConstant    = "Unable to show information for %s: %s"
	markDependencyStartTemplateConstant            = "Marking %s as installed as dependency"
	markDependencySuccessTemplateConstant          = "Marked %s as installed as dependency"
	markDependencyFailureTemplateConstant          = "Failed to mark %s as installed as dependency (exit code %d%s)"
	markDependencyExecutionFailureTemplateConstant = "Unable to mark %s as installed as dependency: %s"
	queryInstalledStartMessageConstant             = "Listing installed packages"
	queryInstalledSuccessMessageConstant           = "Listed installed packages"
	queryInstalledFailureTemplateConstant          = "Failed to list installed packages (exit code %d%s)"
	queryInstalledExecutionFailureTemplateConstant = "Unable to list installed packages: %s"
	queryExplicitStartMessageConstant              = "Listing explicitly installed packages"
	queryExplicitSuccessMessageConstant            = "Listed explicitly installed packages"
	queryExplicitFailureTemplateConstant           = "Failed to list explicitly installed packages (exit code %d%s)"
	queryExplicitExecutionFailureTemplateConstant  = "Unable to list explicitly installed packages: %s"
)

type operationTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var packageOperationTemplates = map[packageOperation]operationTemplates{
	packageOperationInstall: {
		start:            installStartTemplateConstant,
		success:          installSuccessTemplateConstant,
		failure:          installFailureTemplateConstant,
		executionFailure: installExecutionFailureTemplateConstant,
	},
	packageOperationRemove: {
		start:            removeStartTemplateConstant,
		success:          removeSuccessTemplateConstant,
		failure:          removeFailureTemplateConstant,
		executionFailure: removeExecutionFailureTemplateConstant,
	},
	packageOperationInformation: {
		start:            informationStartTemplateConstant,
		success:          informationSuccessTemplateConstant,
		failure:          informationFailureTemplateConstant,
		executionFailure: informationExecutionFailureTemplateConstant,
	},
	packageOperationMarkDependency: {
		start:            markDependencyStartTemplateConstant,
		success:          markDependencySuccessTemplateConstant,
		failure:          markDependencyFailureTemplateConstant,
		executionFailure: markDependencyExecutionFailureTemplateConstant,
	},
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	operation := classifyPackageOperation(command.Details.Arguments)
	switch operation {
	case packageOperationQueryInstalled:
		return formatter.describeQueryMessage(queryInstalledStartMessageConstant, queryInstalledSuccessMessageConstant, queryInstalledFailureTemplateConstant, queryInstalledExecutionFailureTemplateConstant, result, failure, stage)
	case packageOperationQueryExplicit:
		return formatter.describeQueryMessage(queryExplicitStartMessageConstant, queryExplicitSuccessMessageConstant, queryExplicitFailureTemplateConstant, queryExplicitExecutionFailureTemplateConstant, result, failure, stage)
	case packageOperationUnknown:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	templates := packageOperationTemplates[operation]
	packageLabel := formatter.describePackages(command.Details.Arguments)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, packageLabel)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, packageLabel)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, packageLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, packageLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) describeQueryMessage(startMessage string, successMessage string, failureTemplate string, executionFailureTemplate string, result ExecutionResult, failure error, stage messageStage) string {
	switch stage {
	case messageStageStart:
		return startMessage
	case messageStageSuccess:
		return successMessage
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(executionFailureTemplate, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func classifyPackageOperation(arguments []string) packageOperation {
	if len(arguments) == 0 {
		return packageOperationUnknown
	}

	primaryArgument := strings.TrimSpace(arguments[0])
	switch {
	case primaryArgument == syncFlagConstant:
		return packageOperationInstall
	case primaryArgument == removeFlagConstant || strings.HasPrefix(primaryArgument, removeShortFlagConstant):
		return packageOperationRemove
	case primaryArgument == databaseFlagConstant && containsArgument(arguments, asDependencyFlagConstant):
		return packageOperationMarkDependency
	case primaryArgument == queryFlagConstant || strings.HasPrefix(primaryArgument, queryShortFlagConstant):
		if containsArgument(arguments, infoFlagConstant) {
			return packageOperationInformation
		}
		if containsArgument(arguments, explicitFlagConstant) {
			return packageOperationQueryExplicit
		}
		return packageOperationQueryInstalled
	default:
		return packageOperationUnknown
	}
}

func (formatter CommandMessageFormatter) describePackages(arguments []string) string {
	packageNames := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		if strings.HasPrefix(argument, flagPrefixConstant) {
			continue
		}
		packageNames = append(packageNames, argument)
	}
	if len(packageNames) == 0 {
		return noPackagesLabelConstant
	}
	return strings.Join(packageNames, packageListSeparatorConstant)
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}
