package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestAddToggleFlagParsesValues(t *testing.T) {
	testCases := []struct {
		name            string
		arguments       []string
		expectedValue   bool
		expectedChanged bool
	}{
		{name: "Default", arguments: []string{}, expectedValue: false, expectedChanged: false},
		{name: "Bare", arguments: []string{"--confirm"}, expectedValue: true, expectedChanged: true},
		{name: "SeparateYes", arguments: []string{"--confirm", "yes"}, expectedValue: true, expectedChanged: true},
		{name: "SeparateNoUppercase", arguments: []string{"--confirm", "NO"}, expectedValue: false, expectedChanged: true},
		{name: "Assigned", arguments: []string{"--confirm=off"}, expectedValue: false, expectedChanged: true},
		{name: "Shorthand", arguments: []string{"-c", "n"}, expectedValue: false, expectedChanged: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			command := &cobra.Command{}
			var confirmValue bool
			AddToggleFlag(command.Flags(), &confirmValue, "confirm", "c", false, "Confirm")

			require.NoError(t, command.ParseFlags(NormalizeToggleArguments(testCase.arguments)))
			require.Equal(t, testCase.expectedValue, confirmValue)
			require.Equal(t, testCase.expectedChanged, command.Flags().Lookup("confirm").Changed)
		})
	}
}

func TestAddToggleFlagRejectsUnknownWords(t *testing.T) {
	command := &cobra.Command{}
	var confirmValue bool
	AddToggleFlag(command.Flags(), &confirmValue, "confirm", "", false, "Confirm")

	require.Error(t, command.ParseFlags([]string{"--confirm=maybe"}))
	require.False(t, confirmValue)
}

func TestNormalizeToggleArgumentsLeavesPositionalsAlone(t *testing.T) {
	command := &cobra.Command{}
	AddToggleFlag(command.Flags(), nil, "confirm", "", false, "Confirm")

	require.Equal(t, []string{"--confirm", "desktop"}, NormalizeToggleArguments([]string{"--confirm", "desktop"}))
	require.Equal(t, []string{"--", "--confirm", "yes"}, NormalizeToggleArguments([]string{"--", "--confirm", "yes"}))
}

func TestExecutionFlagsRoundTrip(t *testing.T) {
	command := &cobra.Command{}
	BindExecutionFlags(command, ExecutionFlags{})

	require.NoError(t, command.ParseFlags(NormalizeToggleArguments([]string{"--dry-run", "-y"})))
	require.Equal(t, ExecutionFlags{DryRun: true, AssumeYes: true}, ReadExecutionFlags(command))
	require.Equal(t, ExecutionFlags{}, ReadExecutionFlags(&cobra.Command{}))
}
