package pacman

const (
	aurHelperKeySuffixConstant                = "aur_helper"
	aurHelperRemoveArgumentsKeySuffixConstant = "aur_helper_remove_arguments"
	installedStateSourceKeySuffixConstant     = "installed_state_source"
	pacmanConfigurationKeySuffixConstant      = "pacman_configuration"
	databasePathKeySuffixConstant             = "database_path"
	configurationKeySeparatorConstant         = "."
	defaultAURHelperConstant                  = "paru"
	defaultPacmanConfigurationPathConstant    = "/etc/pacman.conf"
	defaultDatabasePathConstant               = "/var/lib/pacman"
	removeFlagConstant                        = "--remove"
	recursiveFlagConstant                     = "--recursive"
)

// InstalledStateSource values.
const (
	InstalledStateSourcePacman   = "pacman"
	InstalledStateSourceDatabase = "database"
)

// Configuration describes how pacdef reaches the package manager.
type Configuration struct {
	AURHelper                string   `mapstructure:"aur_helper"`
	AURHelperRemoveArguments []string `mapstructure:"aur_helper_remove_arguments"`
	InstalledStateSource     string   `mapstructure:"installed_state_source"`
	PacmanConfiguration      string   `mapstructure:"pacman_configuration"`
	DatabasePath             string   `mapstructure:"database_path"`
}

// DefaultConfiguration returns the settings used when nothing is configured.
func DefaultConfiguration() Configuration {
	return Configuration{
		AURHelper:                defaultAURHelperConstant,
		AURHelperRemoveArguments: defaultRemoveArguments(),
		InstalledStateSource:     InstalledStateSourcePacman,
		PacmanConfiguration:      defaultPacmanConfigurationPathConstant,
	}
}

// DefaultConfigurationValues returns Viper defaults for the package manager settings under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefixedKey(prefix, aurHelperKeySuffixConstant):                defaults.AURHelper,
		prefixedKey(prefix, aurHelperRemoveArgumentsKeySuffixConstant): defaults.AURHelperRemoveArguments,
		prefixedKey(prefix, installedStateSourceKeySuffixConstant):     defaults.InstalledStateSource,
		prefixedKey(prefix, pacmanConfigurationKeySuffixConstant):      defaults.PacmanConfiguration,
		prefixedKey(prefix, databasePathKeySuffixConstant):             defaults.DatabasePath,
	}
}

func defaultRemoveArguments() []string {
	return []string{removeFlagConstant, recursiveFlagConstant}
}

func prefixedKey(prefix string, suffix string) string {
	if len(prefix) == 0 {
		return suffix
	}
	return prefix + configurationKeySeparatorConstant + suffix
}
