package pacman_test

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/temirov/pacdef/internal/execshell"
	"github.com/temirov/pacdef/internal/packages"
	"github.com/temirov/pacdef/internal/pacman"
)

const (
	testExplicitDescriptionConstant   = "%NAME%\nfirefox\n\n%VERSION%\n131.0-1\n\n"
	testDependencyDescriptionConstant = "%NAME%\nlibfoo\n\n%VERSION%\n1.0-1\n\n%REASON%\n1\n\n"
	testPacmanConfigurationConstant   = "# comment\n[options]\n#DBPath = /ignored\nColor\nDBPath = /srv/pacman # custom\n\n[core]\nDBPath = /wrong\n"
)

func TestQuerySourceArguments(testInstance *testing.T) {
	executor := &recordingExecutor{result: execshell.ExecutionResult{StandardOutput: "base\nlinux\n\nzsh\n"}}
	source, creationError := pacman.NewQuerySource(executor)
	require.NoError(testInstance, creationError)

	allInstalled, allError := source.AllInstalled(context.Background())
	require.NoError(testInstance, allError)
	require.Equal(testInstance, []string{"base", "linux", "zsh"}, packages.Strings(allInstalled))

	_, explicitError := source.ExplicitlyInstalled(context.Background())
	require.NoError(testInstance, explicitError)

	require.Equal(testInstance, []execshell.CommandDetails{
		{Arguments: []string{"--query", "--quiet"}},
		{Arguments: []string{"--query", "--quiet", "--explicit"}},
	}, executor.pacmanDetails)
}

func TestQuerySourcePropagatesFailures(testInstance *testing.T) {
	failure := errors.New("pacman missing")
	source, creationError := pacman.NewQuerySource(&recordingExecutor{failure: failure})
	require.NoError(testInstance, creationError)

	_, queryError := source.AllInstalled(context.Background())
	require.ErrorIs(testInstance, queryError, failure)

	_, missingExecutorError := pacman.NewQuerySource(nil)
	require.ErrorIs(testInstance, missingExecutorError, pacman.ErrExecutorNotConfigured)
}

func TestDatabaseSourceReadsInstallReason(testInstance *testing.T) {
	database := fstest.MapFS{
		"ALPM_DB_VERSION":            {Data: []byte("9\n")},
		"local/ALPM_DB_VERSION":      {Data: []byte("9\n")},
		"local/firefox-131.0-1/desc": {Data: []byte(testExplicitDescriptionConstant)},
		"local/libfoo-1.0-1/desc":    {Data: []byte(testDependencyDescriptionConstant)},
	}
	source := pacman.NewDatabaseSourceFS(database, "/var/lib/pacman")

	allInstalled, allError := source.AllInstalled(context.Background())
	require.NoError(testInstance, allError)
	require.Equal(testInstance, []string{"firefox", "libfoo"}, packages.Strings(allInstalled))

	explicitlyInstalled, explicitError := source.ExplicitlyInstalled(context.Background())
	require.NoError(testInstance, explicitError)
	require.Equal(testInstance, []string{"firefox"}, packages.Strings(explicitlyInstalled))
}

func TestDatabaseSourceFailures(testInstance *testing.T) {
	testCases := []struct {
		name     string
		database fstest.MapFS
	}{
		{name: "missing local directory", database: fstest.MapFS{}},
		{name: "missing description", database: fstest.MapFS{"local/firefox-131.0-1/files": {Data: []byte("%FILES%\n")}}},
		{name: "description without name", database: fstest.MapFS{"local/firefox-131.0-1/desc": {Data: []byte("%VERSION%\n1\n")}}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			source := pacman.NewDatabaseSourceFS(testCase.database, "/var/lib/pacman")
			_, readError := source.AllInstalled(context.Background())
			require.Error(subtest, readError)
		})
	}
}

func TestResolveDatabasePath(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration pacman.Configuration
		files         map[string]string
		expectedPath  string
	}{
		{
			name:          "explicit override",
			configuration: pacman.Configuration{DatabasePath: "/custom", PacmanConfiguration: "/etc/pacman.conf"},
			expectedPath:  "/custom",
		},
		{
			name:          "options section",
			configuration: pacman.Configuration{PacmanConfiguration: "/etc/pacman.conf"},
			files:         map[string]string{"/etc/pacman.conf": testPacmanConfigurationConstant},
			expectedPath:  "/srv/pacman",
		},
		{
			name:          "missing configuration file",
			configuration: pacman.Configuration{PacmanConfiguration: "/etc/pacman.conf"},
			expectedPath:  "/var/lib/pacman",
		},
		{
			name:          "no dbpath option",
			configuration: pacman.Configuration{PacmanConfiguration: "/etc/pacman.conf"},
			files:         map[string]string{"/etc/pacman.conf": "[options]\nColor\n"},
			expectedPath:  "/var/lib/pacman",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			readFile := func(path string) ([]byte, error) {
				content, found := testCase.files[path]
				if !found {
					return nil, fs.ErrNotExist
				}
				return []byte(content), nil
			}

			databasePath, resolveError := pacman.ResolveDatabasePath(testCase.configuration, readFile)
			require.NoError(subtest, resolveError)
			require.Equal(subtest, testCase.expectedPath, databasePath)
		})
	}
}

func TestNewInstalledStateSourceSelection(testInstance *testing.T) {
	querySource, queryError := pacman.NewInstalledStateSource(pacman.DefaultConfiguration(), &recordingExecutor{})
	require.NoError(testInstance, queryError)
	require.IsType(testInstance, &pacman.QuerySource{}, querySource)

	databaseConfiguration := pacman.Configuration{InstalledStateSource: "database", DatabasePath: filepath.Join(testInstance.TempDir(), "db")}
	databaseSource, databaseError := pacman.NewInstalledStateSource(databaseConfiguration, nil)
	require.NoError(testInstance, databaseError)
	require.IsType(testInstance, &pacman.DatabaseSource{}, databaseSource)

	_, unknownError := pacman.NewInstalledStateSource(pacman.Configuration{InstalledStateSource: "rpm"}, &recordingExecutor{})
	require.ErrorContains(testInstance, unknownError, "unknown installed state source")
}
