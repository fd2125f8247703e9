package versionfiles_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/cutrelease/internal/versionfiles"
)

const (
	testLanguageFileContentConstant = "\"\"\"Package version.\"\"\"\n\n# VERSION = '0.0.1'\nMY_VERSION = '9.9.9'\nVERSION = '2.4.0-SNAPSHOT'\n"
	testBuildFileContentConstant    = "ThisBuild / version := \"2.4.0-SNAPSHOT\"\n"
)

func TestAssignmentFileRender(testInstance *testing.T) {
	testCases := []struct {
		name            string
		file            versionfiles.AssignmentFile
		content         string
		version         string
		expectedContent string
		expectedError   any
	}{
		{
			name:            "language_declaration_ignores_lookalike_lines",
			file:            versionfiles.NewLanguageVersionFile("python/version.py"),
			content:         testLanguageFileContentConstant,
			version:         "2.4.0",
			expectedContent: "\"\"\"Package version.\"\"\"\n\n# VERSION = '0.0.1'\nMY_VERSION = '9.9.9'\nVERSION = '2.4.0'\n",
		},
		{
			name:            "language_declaration_normalizes_spacing_and_keeps_comment",
			file:            versionfiles.NewLanguageVersionFile("python/version.py"),
			content:         "VERSION='1.0.0'  # managed by release tooling\n",
			version:         "2.5.0-SNAPSHOT",
			expectedContent: "VERSION = '2.5.0-SNAPSHOT'  # managed by release tooling\n",
		},
		{
			name:            "build_declaration",
			file:            versionfiles.NewBuildVersionFile("version.sbt"),
			content:         testBuildFileContentConstant,
			version:         "2.4.0",
			expectedContent: "ThisBuild / version := \"2.4.0\"\n",
		},
		{
			name:            "crlf_line_endings_preserved",
			file:            versionfiles.NewBuildVersionFile("version.sbt"),
			content:         "// build\r\nThisBuild / version := \"1.0.0\"\r\n",
			version:         "1.1.0",
			expectedContent: "// build\r\nThisBuild / version := \"1.1.0\"\r\n",
		},
		{
			name:            "missing_trailing_newline_preserved",
			file:            versionfiles.NewBuildVersionFile("version.sbt"),
			content:         "ThisBuild / version := \"1.0.0\"",
			version:         "1.1.0",
			expectedContent: "ThisBuild / version := \"1.1.0\"",
		},
		{
			name:          "pattern_not_found",
			file:          versionfiles.NewLanguageVersionFile("python/version.py"),
			content:       "__version__ = '1.0.0'\n",
			version:       "2.4.0",
			expectedError: versionfiles.PatternNotFoundError{},
		},
		{
			name:          "ambiguous_pattern",
			file:          versionfiles.NewLanguageVersionFile("python/version.py"),
			content:       "VERSION = '1.0.0'\nVERSION = '1.0.1'\n",
			version:       "2.4.0",
			expectedError: versionfiles.AmbiguousPatternError{},
		},
		{
			name:          "quote_in_version",
			file:          versionfiles.NewLanguageVersionFile("python/version.py"),
			content:       "VERSION = '1.0.0'\n",
			version:       "2.4.0'",
			expectedError: versionfiles.InvalidVersionError{},
		},
		{
			name:          "empty_version",
			file:          versionfiles.NewBuildVersionFile("version.sbt"),
			content:       testBuildFileContentConstant,
			version:       " ",
			expectedError: versionfiles.InvalidVersionError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			renderedContent, renderError := testCase.file.Render([]byte(testCase.content), testCase.version)
			if testCase.expectedError != nil {
				require.Error(testInstance, renderError)
				require.IsType(testInstance, testCase.expectedError, renderError)
				return
			}
			require.NoError(testInstance, renderError)
			require.Equal(testInstance, testCase.expectedContent, string(renderedContent))
		})
	}
}

func TestAmbiguousPatternErrorListsLines(testInstance *testing.T) {
	file := versionfiles.NewLanguageVersionFile("python/version.py")
	_, renderError := file.Render([]byte("VERSION = '1.0.0'\n\nVERSION = '1.0.1'\n"), "2.4.0")

	var ambiguousError versionfiles.AmbiguousPatternError
	require.ErrorAs(testInstance, renderError, &ambiguousError)
	require.Equal(testInstance, []int{1, 3}, ambiguousError.LineNumbers)
	require.Equal(testInstance, "python/version.py: 2 lines match VERSION = '<value>' (lines 1, 3)", renderError.Error())
}

func TestAssignmentFileExtract(testInstance *testing.T) {
	version, extractError := versionfiles.NewLanguageVersionFile("python/version.py").Extract([]byte(testLanguageFileContentConstant))
	require.NoError(testInstance, extractError)
	require.Equal(testInstance, "2.4.0-SNAPSHOT", version)

	version, extractError = versionfiles.NewBuildVersionFile("version.sbt").Extract([]byte(testBuildFileContentConstant))
	require.NoError(testInstance, extractError)
	require.Equal(testInstance, "2.4.0-SNAPSHOT", version)
}

func TestStableVersionFileApply(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	stableFile := versionfiles.StableVersionFile{Path: "stable-version.txt"}

	missingError := stableFile.Apply(repositoryRoot, "2.4.0")
	var accessError versionfiles.FileAccessError
	require.ErrorAs(testInstance, missingError, &accessError)
	require.ErrorIs(testInstance, missingError, os.ErrNotExist)

	stablePath := filepath.Join(repositoryRoot, "stable-version.txt")
	require.NoError(testInstance, os.WriteFile(stablePath, []byte("2.3.0\nstale trailing content\n"), 0o644))
	require.NoError(testInstance, stableFile.Apply(repositoryRoot, "2.4.0"))

	content, readError := os.ReadFile(stablePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "2.4.0\n", string(content))

	require.IsType(testInstance, versionfiles.InvalidVersionError{}, stableFile.Apply(repositoryRoot, "2.4 .0"))
}

func TestStableVersionFileApplyAcceptsEmptyFile(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryRoot, "stable-version.txt"), nil, 0o644))

	stableFile := versionfiles.StableVersionFile{Path: "stable-version.txt"}
	require.NoError(testInstance, stableFile.Apply(repositoryRoot, "1.0.0"))

	version, readError := versionfiles.Read(repositoryRoot, stableFile)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "1.0.0", version)
}
