package ui

import (
	"fmt"
	"io"

	"github.com/temirov/pacdef/internal/execshell"
)

const progressPrefixTemplateConstant = ":: %s"

// ConsoleCommandEventReporter prints command lifecycle events for the operator.
type ConsoleCommandEventReporter struct {
	writer    io.Writer
	palette   Palette
	formatter execshell.CommandMessageFormatter
}

// NewConsoleCommandEventReporter constructs a reporter writing to writer. A nil writer discards events.
func NewConsoleCommandEventReporter(writer io.Writer, palette Palette) *ConsoleCommandEventReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ConsoleCommandEventReporter{writer: writer, palette: palette, formatter: execshell.CommandMessageFormatter{}}
}

// CommandStarted implements execshell.CommandEventObserver.
func (reporter *ConsoleCommandEventReporter) CommandStarted(command execshell.ShellCommand) {
	if reporter == nil || !command.Details.Interactive {
		return
	}
	PrintLine(reporter.writer, reporter.palette.Progress(fmt.Sprintf(progressPrefixTemplateConstant, reporter.formatter.BuildStartedMessage(command))))
}

// CommandCompleted implements execshell.CommandEventObserver. Only failures are printed.
func (reporter *ConsoleCommandEventReporter) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if reporter == nil || result.ExitCode == 0 {
		return
	}
	PrintLine(reporter.writer, reporter.palette.Warning(reporter.formatter.BuildFailureMessage(command, result)))
}

// CommandExecutionFailed implements execshell.CommandEventObserver.
func (reporter *ConsoleCommandEventReporter) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if reporter == nil {
		return
	}
	PrintLine(reporter.writer, reporter.palette.Failure(reporter.formatter.BuildExecutionFailureMessage(command, failure)))
}
