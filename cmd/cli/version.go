package cli

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

const (
	versionCommandUseConstant              = "version"
	versionCommandShortDescriptionConstant = "Print the pacdef version"
	versionOutputTemplateConstant          = "pacdef version: %s\n"
	developmentVersionConstant             = "(devel)"
	unknownVersionConstant                 = "dev"
)

// Version is set at link time with -ldflags "-X github.com/temirov/pacdef/cmd/cli.Version=v1.2.3".
var Version string

// ResolveVersion returns the link-time version, then the module version from build info, then "dev".
func ResolveVersion(context.Context) string {
	if trimmedVersion := strings.TrimSpace(Version); len(trimmedVersion) > 0 {
		return trimmedVersion
	}
	buildInfo, available := debug.ReadBuildInfo()
	if !available {
		return unknownVersionConstant
	}
	moduleVersion := strings.TrimSpace(buildInfo.Main.Version)
	if len(moduleVersion) == 0 || moduleVersion == developmentVersionConstant {
		return unknownVersionConstant
	}
	return moduleVersion
}

func newVersionCommand(application *Application) *cobra.Command {
	return &cobra.Command{
		Use:   versionCommandUseConstant,
		Short: versionCommandShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			_, writeError := fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, application.versionResolver(command.Context()))
			return writeError
		},
	}
}
