package groups

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	pathutils "github.com/temirov/pacdef/internal/utils/path"
)

const (
	groupsDirectoryKeySuffixConstant  = "groups_directory"
	warnNotSymlinkKeySuffixConstant   = "warn_not_symlink"
	editorKeySuffixConstant           = "editor"
	configurationKeySeparatorConstant = "."
	applicationDirectoryNameConstant  = "pacdef"
	groupsDirectoryNameConstant       = "groups"
	noGroupsLoadedWarningConstant     = "no groups loaded; import or create one"
	logFieldGroupsDirectoryConstant   = "groups_directory"
)

// Configuration captures the settings that locate and validate group files.
type Configuration struct {
	GroupsDirectory string `mapstructure:"groups_directory"`
	WarnNotSymlink  bool   `mapstructure:"warn_not_symlink"`
	Editor          string `mapstructure:"editor"`
}

// DefaultConfigurationValues returns Viper defaults for the group settings under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	return map[string]any{
		prefixedKey(prefix, groupsDirectoryKeySuffixConstant): "",
		prefixedKey(prefix, warnNotSymlinkKeySuffixConstant):  true,
		prefixedKey(prefix, editorKeySuffixConstant):          "",
	}
}

func prefixedKey(prefix string, suffix string) string {
	if len(prefix) == 0 {
		return suffix
	}
	return prefix + configurationKeySeparatorConstant + suffix
}

// ResolveGroupsDirectory expands a configured directory, falling back to the user configuration directory.
func (configuration Configuration) ResolveGroupsDirectory(expander *pathutils.HomeExpander) (string, error) {
	configuredDirectory := strings.TrimSpace(configuration.GroupsDirectory)
	if len(configuredDirectory) > 0 {
		return expander.Expand(configuredDirectory), nil
	}

	userConfigurationDirectory, lookupError := os.UserConfigDir()
	if lookupError != nil {
		return "", lookupError
	}
	return filepath.Join(userConfigurationDirectory, applicationDirectoryNameConstant, groupsDirectoryNameConstant), nil
}

// OpenStore builds a Store for the configured directory, creates the directory when needed, and loads every group.
func OpenStore(logger *zap.Logger, configuration Configuration, fileSystem FileSystem) (*Store, []*Group, error) {
	groupsDirectory, resolveError := configuration.ResolveGroupsDirectory(pathutils.NewHomeExpander())
	if resolveError != nil {
		return nil, nil, resolveError
	}

	store, storeError := NewStore(StoreDependencies{
		Logger:         logger,
		FileSystem:     fileSystem,
		Directory:      groupsDirectory,
		WarnNotSymlink: configuration.WarnNotSymlink,
	})
	if storeError != nil {
		return nil, nil, storeError
	}

	if directoryError := store.EnsureDirectory(); directoryError != nil {
		return nil, nil, directoryError
	}

	loaded, loadError := store.LoadAll()
	if loadError != nil {
		return nil, nil, loadError
	}
	if len(loaded) == 0 && logger != nil {
		logger.Warn(noGroupsLoadedWarningConstant, zap.String(logFieldGroupsDirectoryConstant, groupsDirectory))
	}
	return store, loaded, nil
}
