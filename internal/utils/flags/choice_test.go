package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(t *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "DefaultFirstChoice",
			defaultChoice:  "text",
			choices:        []string{"text", "yaml"},
			description:    "Summary format.",
			expectedOutput: "`<TEXT|yaml>` Summary format.",
		},
		{
			name:           "DefaultSecondChoice",
			defaultChoice:  "yaml",
			choices:        []string{"text", "yaml"},
			description:    "Summary format.",
			expectedOutput: "`<text|YAML>` Summary format.",
		},
		{
			name:           "EmptyDescription",
			defaultChoice:  "info",
			choices:        []string{"debug", "info", "warn", "error"},
			description:    "",
			expectedOutput: "`<debug|INFO|warn|error>`",
		},
		{
			name:           "DuplicateChoicesIgnored",
			defaultChoice:  "console",
			choices:        []string{"console", "Console", "structured"},
			description:    "Log encoding.",
			expectedOutput: "`<CONSOLE|structured>` Log encoding.",
		},
		{
			name:           "WhitespaceTrimmed",
			defaultChoice:  "text",
			choices:        []string{" text ", " yaml ", " "},
			description:    "Summary format.",
			expectedOutput: "`<TEXT|yaml>` Summary format.",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			actual := FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description)
			require.Equal(t, testCase.expectedOutput, actual)
		})
	}
}

func TestResolveChoice(t *testing.T) {
	testCases := []struct {
		name          string
		value         string
		expectedValue string
		expectError   bool
	}{
		{name: "ExactMatch", value: "yaml", expectedValue: "yaml"},
		{name: "CaseInsensitive", value: " YAML ", expectedValue: "yaml"},
		{name: "BlankUsesDefault", value: "  ", expectedValue: "text"},
		{name: "UnknownRejected", value: "json", expectError: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			resolved, resolveError := ResolveChoice("output", testCase.value, "text", []string{"text", "yaml"})
			if testCase.expectError {
				require.Error(t, resolveError)
				require.ErrorAs(t, resolveError, &UnsupportedChoiceError{})
				require.Equal(t, `unsupported --output value "json" (choose one of text, yaml)`, resolveError.Error())
				return
			}
			require.NoError(t, resolveError)
			require.Equal(t, testCase.expectedValue, resolved)
		})
	}
}
