package review

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/pacdef/internal/groups"
	"github.com/temirov/pacdef/internal/packages"
	"github.com/temirov/pacdef/internal/pacman"
	"github.com/temirov/pacdef/internal/prompt"
	"github.com/temirov/pacdef/internal/reconcile"
	"github.com/temirov/pacdef/internal/ui"
)

const (
	reviewCommandUseConstant              = "review"
	reviewCommandShortDescriptionConstant = "Decide interactively what happens to each unmanaged package"
	reviewCommandLongDescriptionConstant  = "review walks every explicitly installed package that no group declares and asks whether to assign it to a group, delete it, mark it as a dependency, or skip it. Decisions are applied only after a final confirmation."
)

// ExplicitSource lists explicitly installed packages.
type ExplicitSource interface {
	ExplicitlyInstalled(executionContext context.Context) ([]packages.Package, error)
}

// CommandBuilder assembles the review command.
type CommandBuilder struct {
	LoggerProvider                      groups.LoggerProvider
	GroupsConfigurationProvider         reconcile.GroupsConfigurationProvider
	PackageManagerConfigurationProvider reconcile.PackageManagerConfigurationProvider
	FileSystem                          groups.FileSystem
	Source                              ExplicitSource
	Manager                             PackageManager
	Prompter                            OperatorPrompter
	Palette                             *ui.Palette
}

// BuildCommand constructs the review command.
func (builder *CommandBuilder) BuildCommand() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   reviewCommandUseConstant,
		Short: reviewCommandShortDescriptionConstant,
		Long:  reviewCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	logger := builder.resolveLogger()

	store, loaded, openError := groups.OpenStore(logger, builder.resolveGroupsConfiguration(), builder.FileSystem)
	if openError != nil {
		return openError
	}

	source := builder.Source
	manager := builder.Manager
	if source == nil || manager == nil {
		toolkit, toolkitError := pacman.NewToolkit(logger, builder.resolvePackageManagerConfiguration(), command.ErrOrStderr())
		if toolkitError != nil {
			return toolkitError
		}
		if source == nil {
			source = toolkit.Source
		}
		if manager == nil {
			manager = toolkit.Manager
		}
	}

	prompter := builder.Prompter
	if prompter == nil {
		prompter = prompt.NewTerminalPrompter(os.Stdin, command.OutOrStdout())
	}

	palette := ui.NewTerminalPalette()
	if builder.Palette != nil {
		palette = *builder.Palette
	}

	explicitlyInstalled, queryError := source.ExplicitlyInstalled(command.Context())
	if queryError != nil {
		return queryError
	}
	unmanaged := reconcile.UnmanagedPackages(reconcile.ManagedPackages(loaded), explicitlyInstalled)

	reviewer, reviewerError := NewReviewer(ReviewerDependencies{
		Logger:   logger,
		Manager:  manager,
		Appender: store,
		Prompter: prompter,
		Output:   command.OutOrStdout(),
		Palette:  palette,
	})
	if reviewerError != nil {
		return reviewerError
	}

	_, runError := reviewer.Run(command.Context(), unmanaged, loaded)
	return runError
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	if logger := builder.LoggerProvider(); logger != nil {
		return logger
	}
	return zap.NewNop()
}

func (builder *CommandBuilder) resolveGroupsConfiguration() groups.Configuration {
	if builder.GroupsConfigurationProvider == nil {
		return groups.Configuration{WarnNotSymlink: true}
	}
	return builder.GroupsConfigurationProvider()
}

func (builder *CommandBuilder) resolvePackageManagerConfiguration() pacman.Configuration {
	if builder.PackageManagerConfigurationProvider == nil {
		return pacman.DefaultConfiguration()
	}
	return builder.PackageManagerConfigurationProvider()
}
