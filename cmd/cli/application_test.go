package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/pacdef/internal/groups"
	"github.com/temirov/pacdef/internal/prompt"
	"github.com/temirov/pacdef/internal/review"
)

const (
	testVersionConstant                    = "v1.2.3"
	testGroupsDirectoryEnvironmentConstant = "PACDEF_PACDEF_GROUPS_DIRECTORY"
	testRemoveArgumentsEnvironmentConstant = "PACDEF_PACDEF_AUR_HELPER_REMOVE_ARGUMENTS"
	testConfigurationTemplateConstant      = "pacdef:\n  groups_directory: %s\n  warn_not_symlink: false\n  aur_helper: yay\n"
)

func newTestApplication(testInstance *testing.T) (*Application, *bytes.Buffer) {
	testInstance.Helper()
	testInstance.Setenv("XDG_CONFIG_HOME", testInstance.TempDir())

	application := NewApplication()
	application.versionResolver = func(context.Context) string {
		return testVersionConstant
	}

	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetErr(io.Discard)
	return application, outputBuffer
}

func writeGroupsDirectory(testInstance *testing.T) string {
	testInstance.Helper()
	directory := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(directory, "desktop"), []byte("firefox\n"), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(directory, "base"), []byte("base\n"), 0o644))
	return directory
}

func TestApplicationPrintsVersion(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "flag", arguments: []string{"--version"}},
		{name: "command", arguments: []string{"version"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			application, output := newTestApplication(subtest)

			executionError := application.Execute(context.Background(), testCase.arguments)

			require.NoError(subtest, executionError)
			require.Equal(subtest, "pacdef version: v1.2.3\n", output.String())
		})
	}
}

func TestApplicationConfigurationSources(testInstance *testing.T) {
	testInstance.Run("configuration file", func(subtest *testing.T) {
		groupsDirectory := writeGroupsDirectory(subtest)
		configurationPath := filepath.Join(subtest.TempDir(), "pacdef.yaml")
		require.NoError(subtest, os.WriteFile(configurationPath, []byte(fmt.Sprintf(testConfigurationTemplateConstant, groupsDirectory)), 0o600))
		application, output := newTestApplication(subtest)

		executionError := application.Execute(context.Background(), []string{"--config", configurationPath, "--log-level", "error", "groups"})

		require.NoError(subtest, executionError)
		require.Equal(subtest, "base\ndesktop\n", output.String())
		require.Equal(subtest, "yay", application.configuration.Pacdef.PackageManager.AURHelper)
		require.Equal(subtest, []string{"--remove", "--recursive"}, application.configuration.Pacdef.PackageManager.AURHelperRemoveArguments)
		require.False(subtest, application.configuration.Pacdef.Groups.WarnNotSymlink)
		require.Equal(subtest, "error", application.configuration.Common.LogLevel)
		require.Equal(subtest, configurationPath, application.configurationMetadata.ConfigFileUsed)
	})

	testInstance.Run("environment", func(subtest *testing.T) {
		groupsDirectory := writeGroupsDirectory(subtest)
		subtest.Setenv(testGroupsDirectoryEnvironmentConstant, groupsDirectory)
		subtest.Setenv(testRemoveArgumentsEnvironmentConstant, "-Rns")
		application, output := newTestApplication(subtest)

		executionError := application.Execute(context.Background(), []string{"--log-level", "error", "groups"})

		require.NoError(subtest, executionError)
		require.Equal(subtest, "base\ndesktop\n", output.String())
		require.Equal(subtest, groups.Configuration{GroupsDirectory: groupsDirectory, WarnNotSymlink: true}, application.configuration.Pacdef.Groups)
		require.Equal(subtest, []string{"-Rns"}, application.configuration.Pacdef.PackageManager.AURHelperRemoveArguments)
		require.Equal(subtest, "paru", application.configuration.Pacdef.PackageManager.AURHelper)
		require.Equal(subtest, "console", application.configuration.Common.LogFormat)
	})

	testInstance.Run("unsupported log level", func(subtest *testing.T) {
		application, _ := newTestApplication(subtest)

		executionError := application.Execute(context.Background(), []string{"--log-level", "verbose", "groups"})

		require.ErrorContains(subtest, executionError, "unsupported log level")
	})

	testInstance.Run("missing configuration file", func(subtest *testing.T) {
		application, _ := newTestApplication(subtest)

		executionError := application.Execute(context.Background(), []string{"--config", filepath.Join(subtest.TempDir(), "absent.yaml"), "groups"})

		require.ErrorContains(subtest, executionError, "unable to load configuration")
		require.Equal(subtest, ExitCodeFailure, ExitCodeForError(executionError))
	})
}

func TestApplicationRegistersCommands(testInstance *testing.T) {
	application, _ := newTestApplication(testInstance)

	registered := map[string]bool{}
	for _, command := range application.rootCommand.Commands() {
		registered[command.Name()] = true
	}
	for _, expected := range []string{"clean", "edit", "groups", "import", "new", "remove", "review", "search", "show", "sync", "unmanaged", "version"} {
		require.True(testInstance, registered[expected], expected)
	}
}

func TestExitCodeForError(testInstance *testing.T) {
	testCases := []struct {
		name         string
		err          error
		expectedCode int
	}{
		{name: "success", err: nil, expectedCode: ExitCodeSuccess},
		{name: "failure", err: errors.New("exit status 1"), expectedCode: ExitCodeFailure},
		{name: "review declined", err: fmt.Errorf("review: %w", review.ErrAborted), expectedCode: ExitCodeAborted},
		{name: "interrupted prompt", err: fmt.Errorf("sync: %w", prompt.ErrInterrupted), expectedCode: ExitCodeInterrupted},
		{name: "cancelled context", err: context.Canceled, expectedCode: ExitCodeInterrupted},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			require.Equal(subtest, testCase.expectedCode, ExitCodeForError(testCase.err))
		})
	}
}
