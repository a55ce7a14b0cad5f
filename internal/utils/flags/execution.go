// Package flags binds the confirmation and preview flags shared by mutating commands.
package flags

import (
	"github.com/spf13/cobra"
)

const (
	// DryRunFlagName names the preview flag.
	DryRunFlagName = "dry-run"
	// DryRunFlagUsage describes the preview flag.
	DryRunFlagUsage = "Print the plan without changing the system"
	// AssumeYesFlagName names the confirmation flag.
	AssumeYesFlagName = "yes"
	// AssumeYesFlagShorthand is the one-letter form of the confirmation flag.
	AssumeYesFlagShorthand = "y"
	// AssumeYesFlagUsage describes the confirmation flag.
	AssumeYesFlagUsage = "Do not ask before changing the system"
)

// ExecutionFlags holds the values of the preview and confirmation flags.
type ExecutionFlags struct {
	DryRun    bool
	AssumeYes bool
}

// BindExecutionFlags registers --dry-run and --yes on command as yes/no toggles.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionFlags) {
	if command == nil {
		return
	}

	flagSet := command.Flags()
	AddToggleFlag(flagSet, nil, DryRunFlagName, "", defaults.DryRun, DryRunFlagUsage)
	AddToggleFlag(flagSet, nil, AssumeYesFlagName, AssumeYesFlagShorthand, defaults.AssumeYes, AssumeYesFlagUsage)
}

// ReadExecutionFlags returns the parsed flag values. Flags that were never bound read as false.
func ReadExecutionFlags(command *cobra.Command) ExecutionFlags {
	if command == nil {
		return ExecutionFlags{}
	}

	dryRun, _ := command.Flags().GetBool(DryRunFlagName)
	assumeYes, _ := command.Flags().GetBool(AssumeYesFlagName)
	return ExecutionFlags{DryRun: dryRun, AssumeYes: assumeYes}
}
