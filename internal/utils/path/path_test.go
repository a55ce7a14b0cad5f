package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/pacdef/internal/utils/path"
)

const testHomeDirectoryConstant = "/home/operator"

func newTestExpander() *pathutils.HomeExpander {
	environment := map[string]string{"XDG_CONFIG_HOME": "/home/operator/.config", "DOTFILES": "/srv/dotfiles"}
	return pathutils.NewHomeExpanderWithProviders(
		func() (string, error) { return testHomeDirectoryConstant, nil },
		func(name string) (string, bool) {
			value, found := environment[name]
			return value, found
		},
	)
}

func TestHomeExpanderExpand(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "bare tilde", input: "~", expected: testHomeDirectoryConstant},
		{name: "tilde prefix", input: "~/groups", expected: "/home/operator/groups"},
		{name: "other user untouched", input: "~root/groups", expected: "~root/groups"},
		{name: "absolute untouched", input: "/etc/pacman.conf", expected: "/etc/pacman.conf"},
		{name: "environment variable", input: "$XDG_CONFIG_HOME/pacdef/groups", expected: "/home/operator/.config/pacdef/groups"},
		{name: "braced variable", input: "${DOTFILES}/groups", expected: "/srv/dotfiles/groups"},
		{name: "unset variable", input: "$UNSET/groups", expected: "/groups"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			require.Equal(subtest, testCase.expected, newTestExpander().Expand(testCase.input))
		})
	}
}

func TestHomeExpanderWithoutHomeDirectory(testInstance *testing.T) {
	expander := pathutils.NewHomeExpanderWithProviders(func() (string, error) { return "", errors.New("no home") }, nil)

	require.Equal(testInstance, "~/groups", expander.Expand("~/groups"))

	var nilExpander *pathutils.HomeExpander
	require.Equal(testInstance, "~/groups", nilExpander.Expand("~/groups"))
}

func TestFilePathSanitizerSanitize(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	testInstance.Chdir(workingDirectory)

	sanitizer := pathutils.NewFilePathSanitizer(newTestExpander())

	sanitized := sanitizer.Sanitize([]string{
		"  ~/dotfiles/base\t",
		"",
		"desktop",
		"./desktop",
		filepath.Join(workingDirectory, "desktop"),
		"/home/operator/dotfiles/base",
		"$DOTFILES/gaming",
	})

	require.Equal(testInstance, []string{"/home/operator/dotfiles/base", "desktop", "/srv/dotfiles/gaming"}, sanitized)
}
