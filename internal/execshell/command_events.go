package execshell

// CommandEventObserver is notified around every command the ShellExecutor runs.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed is called when no result could be obtained, for example a missing executable.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// CommandEventObserverFuncs adapts plain functions to CommandEventObserver. Nil fields are skipped.
type CommandEventObserverFuncs struct {
	Started         func(command ShellCommand)
	Completed       func(command ShellCommand, result ExecutionResult)
	ExecutionFailed func(command ShellCommand, failure error)
}

// CommandStarted calls Started.
func (observer CommandEventObserverFuncs) CommandStarted(command ShellCommand) {
	if observer.Started != nil {
		observer.Started(command)
	}
}

// CommandCompleted calls Completed.
func (observer CommandEventObserverFuncs) CommandCompleted(command ShellCommand, result ExecutionResult) {
	if observer.Completed != nil {
		observer.Completed(command, result)
	}
}

// CommandExecutionFailed calls ExecutionFailed.
func (observer CommandEventObserverFuncs) CommandExecutionFailed(command ShellCommand, failure error) {
	if observer.ExecutionFailed != nil {
		observer.ExecutionFailed(command, failure)
	}
}
