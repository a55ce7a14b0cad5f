package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/pacdef/internal/groups"
	"github.com/temirov/pacdef/internal/pacman"
	"github.com/temirov/pacdef/internal/prompt"
	"github.com/temirov/pacdef/internal/reconcile"
	"github.com/temirov/pacdef/internal/review"
	"github.com/temirov/pacdef/internal/utils"
	"github.com/temirov/pacdef/internal/utils/flags"
)

const (
	applicationNameConstant                 = "pacdef"
	applicationShortDescriptionConstant     = "Declarative package management for Arch Linux"
	applicationLongDescriptionConstant      = "pacdef keeps the installed packages in line with plain-text group files. Each group lists packages one per line; sync installs what is missing, clean removes what no group declares, and review lets you decide package by package."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Path to a configuration file (YAML)"
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagDescriptionConstant         = "Override the configured log level"
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagDescriptionConstant        = "Override the configured log format"
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	pacdefConfigurationKeyConstant          = "pacdef"
	environmentPrefixConstant               = "PACDEF"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	workingDirectorySearchPathConstant      = "."
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	interruptedErrorTemplateConstant        = "%w: %w"
	commandBuildErrorTemplateConstant       = "unable to build %s commands: %w"
	versionTemplateConstant                 = "pacdef version: {{.Version}}\n"
)

// Exit statuses reported by the pacdef binary.
const (
	ExitCodeSuccess     = 0
	ExitCodeFailure     = 1
	ExitCodeAborted     = 2
	ExitCodeInterrupted = 130
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Pacdef PacdefConfiguration            `mapstructure:"pacdef"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// PacdefConfiguration holds the group and package manager settings, which share one section.
type PacdefConfiguration struct {
	Groups         groups.Configuration `mapstructure:",squash"`
	PackageManager pacman.Configuration `mapstructure:",squash"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	versionResolver       func(context.Context) string
	buildError            error
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	application := &Application{
		configurationLoader: utils.NewConfigurationLoader(utils.ConfigurationSources{
			Name:              configurationNameConstant,
			Type:              configurationTypeConstant,
			EnvironmentPrefix: environmentPrefixConstant,
			SearchPaths:       configurationSearchPaths(),
			Embedded:          EmbeddedDefaultConfiguration(),
		}),
		loggerFactory:   utils.NewLoggerFactory(),
		logger:          zap.NewNop(),
		versionResolver: ResolveVersion,
	}

	rootCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	rootCommand.SetVersionTemplate(versionTemplateConstant)
	rootCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	rootCommand.PersistentFlags().StringVar(
		&application.logLevelFlagValue,
		logLevelFlagNameConstant,
		"",
		flags.FormatChoiceUsage(string(utils.LogLevelWarn), utils.LogLevelChoices, logLevelFlagDescriptionConstant),
	)
	rootCommand.PersistentFlags().StringVar(
		&application.logFormatFlagValue,
		logFormatFlagNameConstant,
		"",
		flags.FormatChoiceUsage(string(utils.LogFormatConsole), utils.LogFormatChoices, logFormatFlagDescriptionConstant),
	)

	loggerProvider := func() *zap.Logger {
		return application.logger
	}
	groupsConfigurationProvider := func() groups.Configuration {
		return application.configuration.Pacdef.Groups
	}
	packageManagerConfigurationProvider := func() pacman.Configuration {
		return application.configuration.Pacdef.PackageManager
	}

	groupsBuilder := groups.CommandBuilder{
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: groupsConfigurationProvider,
	}
	groupCommands, groupsBuildError := groupsBuilder.BuildCommands()
	if groupsBuildError != nil {
		application.recordBuildError(groupsBuildError, "group")
	}
	rootCommand.AddCommand(groupCommands...)

	reconcileBuilder := reconcile.CommandBuilder{
		LoggerProvider:                      loggerProvider,
		GroupsConfigurationProvider:         groupsConfigurationProvider,
		PackageManagerConfigurationProvider: packageManagerConfigurationProvider,
	}
	reconcileCommands, reconcileBuildError := reconcileBuilder.BuildCommands()
	if reconcileBuildError != nil {
		application.recordBuildError(reconcileBuildError, "reconcile")
	}
	rootCommand.AddCommand(reconcileCommands...)

	reviewBuilder := review.CommandBuilder{
		LoggerProvider:                      loggerProvider,
		GroupsConfigurationProvider:         groupsConfigurationProvider,
		PackageManagerConfigurationProvider: packageManagerConfigurationProvider,
	}
	reviewCommand, reviewBuildError := reviewBuilder.BuildCommand()
	if reviewBuildError != nil {
		application.recordBuildError(reviewBuildError, "review")
	} else {
		rootCommand.AddCommand(reviewCommand)
	}

	rootCommand.AddCommand(newVersionCommand(application))

	application.rootCommand = rootCommand
	return application
}

// Execute builds a fresh application instance and runs it with the process arguments.
func Execute() error {
	return NewApplication().Execute(context.Background(), os.Args[1:])
}

// Execute runs the command hierarchy until it finishes or an interrupt signal arrives, then flushes the logger.
// Work cut short by a signal is reported as prompt.ErrInterrupted.
func (application *Application) Execute(parentContext context.Context, arguments []string) error {
	if application.buildError != nil {
		return application.buildError
	}

	signalContext, stopSignals := signal.NotifyContext(parentContext, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	application.rootCommand.Version = application.versionResolver(signalContext)
	application.rootCommand.SetArgs(flags.NormalizeToggleArguments(arguments))

	executionError := application.rootCommand.ExecuteContext(signalContext)
	if executionError != nil && signalContext.Err() != nil && parentContext.Err() == nil {
		executionError = fmt.Errorf(interruptedErrorTemplateConstant, prompt.ErrInterrupted, executionError)
	}

	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// ExitCodeForError maps an execution result to the process exit status.
func ExitCodeForError(executionError error) int {
	switch {
	case executionError == nil:
		return ExitCodeSuccess
	case errors.Is(executionError, review.ErrAborted):
		return ExitCodeAborted
	case errors.Is(executionError, prompt.ErrInterrupted), errors.Is(executionError, context.Canceled):
		return ExitCodeInterrupted
	default:
		return ExitCodeFailure
	}
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelWarn),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
	}
	for configurationKey, configurationValue := range groups.DefaultConfigurationValues(pacdefConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range pacman.DefaultConfigurationValues(pacdefConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)
	return nil
}

func (application *Application) recordBuildError(buildError error, family string) {
	if application.buildError == nil {
		application.buildError = fmt.Errorf(commandBuildErrorTemplateConstant, family, buildError)
	}
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}

// configurationSearchPaths returns $XDG_CONFIG_HOME/pacdef (or its platform equivalent) and the working directory.
func configurationSearchPaths() []string {
	searchPaths := make([]string, 0, 2)
	if userConfigurationDirectory, lookupError := os.UserConfigDir(); lookupError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, applicationNameConstant))
	}
	return append(searchPaths, workingDirectorySearchPathConstant)
}
