package reconcile

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/pacdef/internal/groups"
	"github.com/temirov/pacdef/internal/pacman"
	"github.com/temirov/pacdef/internal/prompt"
	"github.com/temirov/pacdef/internal/ui"
	"github.com/temirov/pacdef/internal/utils/flags"
)

const (
	syncCommandUseConstant                   = "sync"
	syncCommandShortDescriptionConstant      = "Install every declared package that is missing"
	syncCommandLongDescriptionConstant       = "sync lists the packages declared in groups but not installed, asks for confirmation, and installs them with the AUR helper in one call."
	cleanCommandUseConstant                  = "clean"
	cleanCommandShortDescriptionConstant     = "Remove explicitly installed packages that no group declares"
	cleanCommandLongDescriptionConstant      = "clean lists explicitly installed packages missing from every group, asks for confirmation, and removes them together with their dependencies."
	unmanagedCommandUseConstant              = "unmanaged"
	unmanagedCommandShortDescriptionConstant = "List explicitly installed packages that no group declares"
)

// GroupsConfigurationProvider returns the group settings.
type GroupsConfigurationProvider func() groups.Configuration

// PackageManagerConfigurationProvider returns the package manager settings.
type PackageManagerConfigurationProvider func() pacman.Configuration

// CommandBuilder assembles the sync, clean and unmanaged commands.
type CommandBuilder struct {
	LoggerProvider                      groups.LoggerProvider
	GroupsConfigurationProvider         GroupsConfigurationProvider
	PackageManagerConfigurationProvider PackageManagerConfigurationProvider
	FileSystem                          groups.FileSystem
	Source                              InstalledStateSource
	Manager                             PackageManager
	Confirmer                           Confirmer
	Palette                             *ui.Palette
}

// BuildCommands constructs the reconciliation commands.
func (builder *CommandBuilder) BuildCommands() ([]*cobra.Command, error) {
	syncCommand := &cobra.Command{
		Use:   syncCommandUseConstant,
		Short: syncCommandShortDescriptionConstant,
		Long:  syncCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runSync,
	}
	flags.BindExecutionFlags(syncCommand, flags.ExecutionFlags{})

	cleanCommand := &cobra.Command{
		Use:   cleanCommandUseConstant,
		Short: cleanCommandShortDescriptionConstant,
		Long:  cleanCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runClean,
	}
	flags.BindExecutionFlags(cleanCommand, flags.ExecutionFlags{})

	unmanagedCommand := &cobra.Command{
		Use:   unmanagedCommandUseConstant,
		Short: unmanagedCommandShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runUnmanaged,
	}

	return []*cobra.Command{syncCommand, cleanCommand, unmanagedCommand}, nil
}

func (builder *CommandBuilder) runSync(command *cobra.Command, arguments []string) error {
	service, loaded, prepareError := builder.prepare(command)
	if prepareError != nil {
		return prepareError
	}
	_, syncError := service.Sync(command.Context(), loaded, flags.ReadExecutionFlags(command))
	return syncError
}

func (builder *CommandBuilder) runClean(command *cobra.Command, arguments []string) error {
	service, loaded, prepareError := builder.prepare(command)
	if prepareError != nil {
		return prepareError
	}
	_, cleanError := service.Clean(command.Context(), loaded, flags.ReadExecutionFlags(command))
	return cleanError
}

func (builder *CommandBuilder) runUnmanaged(command *cobra.Command, arguments []string) error {
	service, loaded, prepareError := builder.prepare(command)
	if prepareError != nil {
		return prepareError
	}

	unmanaged, listError := service.Unmanaged(command.Context(), loaded)
	if listError != nil {
		return listError
	}
	for _, pkg := range unmanaged {
		ui.PrintLine(command.OutOrStdout(), pkg.String())
	}
	return nil
}

func (builder *CommandBuilder) prepare(command *cobra.Command) (*Service, []*groups.Group, error) {
	logger := builder.resolveLogger()

	_, loaded, openError := groups.OpenStore(logger, builder.resolveGroupsConfiguration(), builder.FileSystem)
	if openError != nil {
		return nil, nil, openError
	}

	source := builder.Source
	manager := builder.Manager
	if source == nil || manager == nil {
		toolkit, toolkitError := pacman.NewToolkit(logger, builder.resolvePackageManagerConfiguration(), command.ErrOrStderr())
		if toolkitError != nil {
			return nil, nil, toolkitError
		}
		if source == nil {
			source = toolkit.Source
		}
		if manager == nil {
			manager = toolkit.Manager
		}
	}

	confirmer := builder.Confirmer
	if confirmer == nil {
		confirmer = prompt.NewTerminalPrompter(os.Stdin, command.OutOrStdout())
	}

	palette := ui.NewTerminalPalette()
	if builder.Palette != nil {
		palette = *builder.Palette
	}

	service, serviceError := NewService(ServiceDependencies{
		Logger:    logger,
		Source:    source,
		Manager:   manager,
		Confirmer: confirmer,
		Output:    command.OutOrStdout(),
		Palette:   palette,
	})
	if serviceError != nil {
		return nil, nil, serviceError
	}
	return service, loaded, nil
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
