package groups

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/pacdef/internal/execshell"
	"github.com/temirov/pacdef/internal/packages"
	"github.com/temirov/pacdef/internal/ui"
	"github.com/temirov/pacdef/internal/utils/flags"
	pathutils "github.com/temirov/pacdef/internal/utils/path"
)

const (
	groupsCommandUseConstant              = "groups"
	groupsCommandShortDescriptionConstant = "List the names of all imported groups"
	showCommandUseConstant                = "show <group>..."
	showCommandShortDescriptionConstant   = "Show the packages declared in one or more groups"
	showCommandLongDescriptionConstant    = "show prints the packages of every named group in order. All names must exist before anything is printed."
	searchCommandUseConstant              = "search <regex>"
	searchCommandShortDescriptionConstant = "Find declared packages matching a regular expression"
	searchCommandLongDescriptionConstant  = "search prints \"group: package\" for every declared package whose name matches the expression. It fails when nothing matches."
	newCommandUseConstant                 = "new <group>..."
	newCommandShortDescriptionConstant    = "Create new, empty groups"
	newCommandLongDescriptionConstant     = "new creates an empty group file for each name. No file is created when any name is already taken."
	removeCommandUseConstant              = "remove <group>..."
	removeCommandShortDescriptionConstant = "Remove groups from the group directory"
	removeCommandLongDescriptionConstant  = "remove unlinks every named group. When any name is unknown nothing is removed."
	editCommandUseConstant                = "edit <group>..."
	editCommandShortDescriptionConstant   = "Open groups in the configured editor"
	importCommandUseConstant              = "import <file>..."
	importCommandShortDescriptionConstant = "Import group files by linking them into the group directory"
	formatFlagNameConstant                = "format"
	formatFlagDescriptionConstant         = "Output format"
	editFlagNameConstant                  = "edit"
	editFlagDescriptionConstant           = "Open the new groups in the editor after creating them"
	formatTextConstant                    = "text"
	formatYAMLConstant                    = "yaml"
	searchResultTemplateConstant          = "%s: %s"
	noSearchMatchesMessageConstant        = "no declared package matches the search expression"
	searchPatternErrorTemplateConstant    = "invalid search expression: %w"
	yamlEncodeErrorTemplateConstant       = "unable to render groups as YAML: %w"
	groupsImportedInfoMessageConstant     = "groups imported"
	groupsCreatedInfoMessageConstant      = "groups created"
	editingGroupsInfoMessageConstant      = "editing group files"
	logFieldPathsConstant                 = "paths"
)

var outputFormats = []string{formatTextConstant, formatYAMLConstant}

// ErrNoSearchMatches indicates that search found no declared package.
var ErrNoSearchMatches = errors.New(noSearchMatchesMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current group configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the group-management commands.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	FileSystem            FileSystem
	Executor              CommandExecutor
	EnvironmentLookup     EnvironmentLookup
	EditorLauncher        EditorLauncher
}

type commandSession struct {
	logger        *zap.Logger
	configuration Configuration
	store         *Store
	loaded        []*Group
}

// BuildCommands constructs the groups, show, search, new, remove, edit, and import commands.
func (builder *CommandBuilder) BuildCommands() ([]*cobra.Command, error) {
	groupsCommand := &cobra.Command{
		Use:   groupsCommandUseConstant,
		Short: groupsCommandShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runListGroups,
	}

	showCommand := &cobra.Command{
		Use:   showCommandUseConstant,
		Short: showCommandShortDescriptionConstant,
		Long:  showCommandLongDescriptionConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE:  builder.runShow,
	}
	showCommand.Flags().String(formatFlagNameConstant, formatTextConstant, flags.FormatChoiceUsage(formatTextConstant, outputFormats, formatFlagDescriptionConstant))

	searchCommand := &cobra.Command{
		Use:   searchCommandUseConstant,
		Short: searchCommandShortDescriptionConstant,
		Long:  searchCommandLongDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.runSearch,
	}

	newCommand := &cobra.Command{
		Use:   newCommandUseConstant,
		Short: newCommandShortDescriptionConstant,
		Long:  newCommandLongDescriptionConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE:  builder.runNew,
	}
	newCommand.Flags().BoolP(editFlagNameConstant, "e", false, editFlagDescriptionConstant)

	removeCommand := &cobra.Command{
		Use:   removeCommandUseConstant,
		Short: removeCommandShortDescriptionConstant,
		Long:  removeCommandLongDescriptionConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE:  builder.runRemove,
	}

	editCommand := &cobra.Command{
		Use:   editCommandUseConstant,
		Short: editCommandShortDescriptionConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE:  builder.runEdit,
	}

	importCommand := &cobra.Command{
		Use:   importCommandUseConstant,
		Short: importCommandShortDescriptionConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE:  builder.runImport,
	}

	return []*cobra.Command{groupsCommand, showCommand, searchCommand, newCommand, removeCommand, editCommand, importCommand}, nil
}

func (builder *CommandBuilder) runListGroups(command *cobra.Command, arguments []string) error {
	session, sessionError := builder.openSession()
	if sessionError != nil {
		return sessionError
	}

	output := command.OutOrStdout()
	for _, group := range session.loaded {
		ui.PrintLine(output, group.Name())
	}
	return nil
}

func (builder *CommandBuilder) runShow(command *cobra.Command, arguments []string) error {
	formatValue, _ := command.Flags().GetString(formatFlagNameConstant)
	format, formatError := flags.NormalizeChoice(formatValue, outputFormats)
	if formatError != nil {
		return formatError
	}

	session, sessionError := builder.openSession()
	if sessionError != nil {
		return sessionError
	}

	resolved, resolveError := ResolveMany(session.loaded, arguments)
	if resolveError != nil {
		return resolveError
	}

	output := command.OutOrStdout()
	if format == formatYAMLConstant {
		return writeGroupsYAML(output, resolved)
	}
	for _, group := range resolved {
		ui.PrintLine(output, group.Content())
	}
	return nil
}

func writeGroupsYAML(output io.Writer, resolved []*Group) error {
	document := &yaml.Node{Kind: yaml.MappingNode}
	for _, group := range resolved {
		packageSequence := &yaml.Node{Kind: yaml.SequenceNode}
		for _, pkg := range group.Packages() {
			packageSequence.Content = append(packageSequence.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: pkg.String()})
		}
		document.Content = append(document.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: group.Name()}, packageSequence)
	}

	encoder := yaml.NewEncoder(output)
	encoder.SetIndent(2)
	if encodeError := encoder.Encode(document); encodeError != nil {
		return fmt.Errorf(yamlEncodeErrorTemplateConstant, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return fmt.Errorf(yamlEncodeErrorTemplateConstant, closeError)
	}
	return nil
}

func (builder *CommandBuilder) runSearch(command *cobra.Command, arguments []string) error {
	pattern, patternError := packages.Parse(arguments[0])
	if patternError != nil {
		return fmt.Errorf(searchPatternErrorTemplateConstant, patternError)
	}

	session, sessionError := builder.openSession()
	if sessionError != nil {
		return sessionError
	}

	output := command.OutOrStdout()
	matchCount := 0
	for _, group := range session.loaded {
		for _, pkg := range group.Packages() {
			matches, matchError := pkg.Matches(pattern)
			if matchError != nil {
				return matchError
			}
			if !matches {
				continue
			}
			matchCount++
			ui.PrintLine(output, fmt.Sprintf(searchResultTemplateConstant, group.Name(), pkg.String()))
		}
	}

	if matchCount == 0 {
		return ErrNoSearchMatches
	}
	return nil
}

func (builder *CommandBuilder) runNew(command *cobra.Command, arguments []string) error {
	session, sessionError := builder.openSession()
	if sessionError != nil {
		return sessionError
	}

	createdPaths, createError := session.store.Create(session.loaded, arguments)
	if createError != nil {
		return createError
	}
	session.logger.Info(groupsCreatedInfoMessageConstant, zap.Strings(logFieldPathsConstant, createdPaths))

	editAfterCreation, _ := command.Flags().GetBool(editFlagNameConstant)
	if !editAfterCreation {
		return nil
	}

	reloaded, reloadError := session.store.LoadAll()
	if reloadError != nil {
		return reloadError
	}
	session.loaded = reloaded
	return builder.editGroups(command, session, arguments)
}

func (builder *CommandBuilder) runRemove(command *cobra.Command, arguments []string) error {
	session, sessionError := builder.openSession()
	if sessionError != nil {
		return sessionError
	}
	return session.store.Remove(session.loaded, arguments)
}

func (builder *CommandBuilder) runEdit(command *cobra.Command, arguments []string) error {
	session, sessionError := builder.openSession()
	if sessionError != nil {
		return sessionError
	}
	return builder.editGroups(command, session, arguments)
}

func (builder *CommandBuilder) editGroups(command *cobra.Command, session commandSession, names []string) error {
	resolved, resolveError := ResolveMany(session.loaded, names)
	if resolveError != nil {
		return resolveError
	}

	launcher, launcherError := builder.resolveEditorLauncher(session)
	if launcherError != nil {
		return launcherError
	}

	paths := make([]string, 0, len(resolved))
	for _, group := range resolved {
		paths = append(paths, group.Path())
	}
	session.logger.Info(editingGroupsInfoMessageConstant, zap.Strings(logFieldPathsConstant, paths))
	return launcher.Edit(command.Context(), paths)
}

func (builder *CommandBuilder) runImport(command *cobra.Command, arguments []string) error {
	session, sessionError := builder.openSession()
	if sessionError != nil {
		return sessionError
	}

	files := pathutils.NewFilePathSanitizer(nil).Sanitize(arguments)
	importedNames, importError := session.store.Import(session.loaded, files)
	if len(importedNames) > 0 {
		session.logger.Info(groupsImportedInfoMessageConstant, zap.Strings(logFieldGroupsConstant, importedNames))
	}
	return importError
}

func (builder *CommandBuilder) openSession() (commandSession, error) {
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	store, loaded, openError := OpenStore(logger, configuration, builder.FileSystem)
	if openError != nil {
		return commandSession{}, openError
	}

	return commandSession{logger: logger, configuration: configuration, store: store, loaded: loaded}, nil
}

func (builder *CommandBuilder) resolveEditorLauncher(session commandSession) (EditorLauncher, error) {
	if builder.EditorLauncher != nil {
		return builder.EditorLauncher, nil
	}

	editorCommand, editorError := ResolveEditor(session.configuration.Editor, builder.EnvironmentLookup)
	if editorError != nil {
		return nil, editorError
	}

	executor := builder.Executor
	if executor == nil {
		shellExecutor, creationError := execshell.NewShellExecutor(session.logger, execshell.NewOSCommandRunner())
		if creationError != nil {
			return nil, creationError
		}
		executor = shellExecutor
	}

	return NewShellEditorLauncher(executor, editorCommand)
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return Configuration{WarnNotSymlink: true}
	}
	return builder.ConfigurationProvider()
}
