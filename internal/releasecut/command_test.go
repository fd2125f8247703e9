package releasecut_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"

	"github.com/temirov/cutrelease/internal/execshell"
	"github.com/temirov/cutrelease/internal/githubauth"
	"github.com/temirov/cutrelease/internal/releasecut"
	flagutils "github.com/temirov/cutrelease/internal/utils/flags"
)

const (
	commandTestRepositoryIdentifier = "owner/example"
	commandTestRepoViewOutput       = `{"nameWithOwner":"owner/example","description":"","defaultBranchRef":{"name":"main"}}`
	commandTestEmptyListOutput      = "[]"
	commandTestPullRequestOutput    = "Creating pull request for releases/2.4.0 into main in owner/example\n\nhttps://github.com/owner/example/pull/42\n"
)

// gitHubStubRunner runs git for real and answers gh invocations from canned output.
type gitHubStubRunner struct {
	delegate          execshell.CommandRunner
	gitHubInvocations []execshell.ShellCommand
	openPullRequests  string
	pullRequestBodies []string
}

func newGitHubStubRunner() *gitHubStubRunner {
	return &gitHubStubRunner{delegate: execshell.NewOSCommandRunner(), openPullRequests: commandTestEmptyListOutput}
}

func (runner *gitHubStubRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	if command.Name != execshell.CommandGitHub {
		return runner.delegate.Run(executionContext, command)
	}
	runner.gitHubInvocations = append(runner.gitHubInvocations, command)
	arguments := command.Details.Arguments
	switch {
	case len(arguments) > 0 && arguments[0] == "--version":
		return execshell.ExecutionResult{StandardOutput: testGitHubVersionOutput}, nil
	case len(arguments) > 1 && arguments[0] == "repo" && arguments[1] == "view":
		return execshell.ExecutionResult{StandardOutput: commandTestRepoViewOutput}, nil
	case len(arguments) > 1 && arguments[0] == "pr" && arguments[1] == "list":
		return execshell.ExecutionResult{StandardOutput: runner.openPullRequests}, nil
	case len(arguments) > 1 && arguments[0] == "pr" && arguments[1] == "create":
		runner.pullRequestBodies = append(runner.pullRequestBodies, string(command.Details.StandardInput))
		return execshell.ExecutionResult{StandardOutput: commandTestPullRequestOutput}, nil
	default:
		return execshell.ExecutionResult{ExitCode: 1, StandardError: "unexpected gh invocation"}, nil
	}
}

type releaseRepositoryFixture struct {
	remotePath   string
	checkoutPath string
}

func requireGit(testInstance *testing.T) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath("git"); lookupError != nil {
		testInstance.Skip("git executable not available")
	}
}

func runGit(testInstance *testing.T, directory string, arguments ...string) string {
	testInstance.Helper()
	gitCommand := exec.Command("git", arguments...)
	gitCommand.Dir = directory
	output, runError := gitCommand.CombinedOutput()
	require.NoError(testInstance, runError, string(output))
	return strings.TrimSpace(string(output))
}

// newReleaseRepositoryFixture seeds a bare remote with the version files and
// returns a clean checkout tracking it.
func newReleaseRepositoryFixture(testInstance *testing.T) releaseRepositoryFixture {
	testInstance.Helper()
	requireGit(testInstance)

	workspace := testInstance.TempDir()
	remotePath := filepath.Join(workspace, "remote.git")
	checkoutPath := filepath.Join(workspace, "checkout")
	runGit(testInstance, workspace, "init", "--bare", "--initial-branch=main", remotePath)
	require.NoError(testInstance, os.MkdirAll(checkoutPath, 0o755))
	runGit(testInstance, checkoutPath, "init", "--initial-branch=main")
	writeVersionFixturesAt(testInstance, checkoutPath)
	runGit(testInstance, checkoutPath, "add", "--all")
	runGit(testInstance, checkoutPath, "-c", "user.name=Seed", "-c", "user.email=seed@example.com", "-c", "commit.gpgsign=false", "commit", "-m", "Seed")
	runGit(testInstance, checkoutPath, "remote", "add", "origin", remotePath)
	runGit(testInstance, checkoutPath, "push", "origin", "main")
	return releaseRepositoryFixture{remotePath: remotePath, checkoutPath: checkoutPath}
}

func buildCutCommand(testInstance *testing.T, builder *releasecut.CommandBuilder, arguments ...string) (*bytes.Buffer, error) {
	testInstance.Helper()
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	var outputBuffer bytes.Buffer
	command.SetOut(&outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs(arguments)
	command.SilenceUsage = true
	command.SilenceErrors = true
	return &outputBuffer, command.ExecuteContext(context.Background())
}

func TestCutCommandCutsReleaseAgainstRealRepository(testInstance *testing.T) {
	fixture := newReleaseRepositoryFixture(testInstance)
	runner := newGitHubStubRunner()
	builder := &releasecut.CommandBuilder{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
		CommandRunner:  runner,
		TokenLookup:    githubauth.MapLookup(map[string]string{githubauth.EnvGitHubToken: "release-token"}),
	}

	outputBuffer, executionError := buildCutCommand(testInstance, builder,
		"--release-version", "2.4.0",
		"--next-version", "2.5.0",
		"--repository", fixture.checkoutPath,
		"--github-repository", commandTestRepositoryIdentifier,
		"--output", "yaml",
	)
	require.NoError(testInstance, executionError)

	var summary map[string]any
	require.NoError(testInstance, yaml.Unmarshal(outputBuffer.Bytes(), &summary))
	require.Equal(testInstance, "v2.4.0", summary["tag"])
	require.Equal(testInstance, true, summary["release_cut"])
	require.Equal(testInstance, "main", summary["base_branch"])
	require.Equal(testInstance, "https://github.com/owner/example/pull/42", summary["pull_request_url"])

	require.NotEmpty(testInstance, runGit(testInstance, fixture.checkoutPath, "ls-remote", "--tags", "origin", "refs/tags/v2.4.0"))
	require.NotEmpty(testInstance, runGit(testInstance, fixture.checkoutPath, "ls-remote", "--heads", "origin", "releases/2.4.0"))
	require.Equal(testInstance, "2.4.0", runGit(testInstance, fixture.checkoutPath, "show", "v2.4.0:stable-version.txt"))
	require.Contains(testInstance, runGit(testInstance, fixture.checkoutPath, "show", "v2.4.0:python/version.py"), "VERSION = '2.4.0'")
	require.Contains(testInstance, runGit(testInstance, fixture.checkoutPath, "show", "releases/2.4.0:version.sbt"), "ThisBuild / version := \"2.5.0-SNAPSHOT\"")
	require.Equal(testInstance, "2.4.0", runGit(testInstance, fixture.checkoutPath, "show", "releases/2.4.0:stable-version.txt"))
	require.Equal(testInstance, "Update development versions", runGit(testInstance, fixture.checkoutPath, "log", "-1", "--format=%s", "releases/2.4.0"))
	require.Contains(testInstance, runGit(testInstance, fixture.checkoutPath, "log", "-1", "--format=%b", "v2.4.0"), "Signed-off-by: github-actions[bot]")
	require.Equal(testInstance, "github-actions[bot]", runGit(testInstance, fixture.checkoutPath, "for-each-ref", "--format=%(taggername)", "refs/tags/v2.4.0"))

	require.Len(testInstance, runner.pullRequestBodies, 1)
	require.Equal(testInstance, releasecut.PullRequestBody("2.4.0", "2.5.0-SNAPSHOT"), runner.pullRequestBodies[0])

	for _, invocation := range runner.gitHubInvocations {
		if invocation.Details.Arguments[0] == "--version" {
			continue
		}
		require.Equal(testInstance, "release-token", invocation.Details.EnvironmentVariables[githubauth.EnvGitHubCLIToken])
	}
}

func TestCutCommandSecondRunLeavesRepositoryUntouched(testInstance *testing.T) {
	fixture := newReleaseRepositoryFixture(testInstance)
	cutArguments := []string{
		"--release-version", "2.4.0",
		"--next-version", "2.5.0",
		"--repository", fixture.checkoutPath,
		"--github-repository", commandTestRepositoryIdentifier,
	}
	newBuilder := func() *releasecut.CommandBuilder {
		return &releasecut.CommandBuilder{
			LoggerProvider: func() *zap.Logger { return zap.NewNop() },
			CommandRunner:  newGitHubStubRunner(),
		}
	}

	_, firstError := buildCutCommand(testInstance, newBuilder(), cutArguments...)
	require.NoError(testInstance, firstError)

	headAfterRelease := runGit(testInstance, fixture.checkoutPath, "rev-parse", "HEAD")
	tagAfterRelease := runGit(testInstance, fixture.checkoutPath, "rev-parse", "v2.4.0")
	remoteTagAfterRelease := runGit(testInstance, fixture.checkoutPath, "ls-remote", "--tags", "origin", "refs/tags/v2.4.0")
	commitCountAfterRelease := runGit(testInstance, fixture.checkoutPath, "rev-list", "--count", "--all")

	testCases := []struct {
		name               string
		prepare            func(testInstance *testing.T)
		expectedRemoteName string
	}{
		{
			name:    "tag_present_locally",
			prepare: func(_ *testing.T) {},
		},
		{
			name: "tag_present_only_on_remote",
			prepare: func(testInstance *testing.T) {
				runGit(testInstance, fixture.checkoutPath, "tag", "-d", "v2.4.0")
			},
			expectedRemoteName: releasecut.DefaultRemoteName,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			testCase.prepare(testInstance)

			_, repeatError := buildCutCommand(testInstance, newBuilder(), cutArguments...)
			require.Error(testInstance, repeatError)

			var tagError releasecut.TagAlreadyExistsError
			require.ErrorAs(testInstance, repeatError, &tagError)
			require.Equal(testInstance, testCase.expectedRemoteName, tagError.RemoteName)

			var stepError releasecut.StepError
			require.ErrorAs(testInstance, repeatError, &stepError)
			require.Equal(testInstance, releasecut.StepReleaseFiles, stepError.Step)

			require.Equal(testInstance, headAfterRelease, runGit(testInstance, fixture.checkoutPath, "rev-parse", "HEAD"))
			require.Equal(testInstance, commitCountAfterRelease, runGit(testInstance, fixture.checkoutPath, "rev-list", "--count", "--all"))
			require.Empty(testInstance, runGit(testInstance, fixture.checkoutPath, "status", "--porcelain"))
			require.Equal(testInstance, remoteTagAfterRelease, runGit(testInstance, fixture.checkoutPath, "ls-remote", "--tags", "origin", "refs/tags/v2.4.0"))
		})
	}

	runGit(testInstance, fixture.checkoutPath, "fetch", "origin", "tag", "v2.4.0")
	require.Equal(testInstance, tagAfterRelease, runGit(testInstance, fixture.checkoutPath, "rev-parse", "v2.4.0"))
}

func TestCutCommandDryRunLeavesRepositoryUntouched(testInstance *testing.T) {
	fixture := newReleaseRepositoryFixture(testInstance)
	headBefore := runGit(testInstance, fixture.checkoutPath, "rev-parse", "HEAD")
	observerCore, observedLogs := observer.New(zapcore.InfoLevel)
	builder := &releasecut.CommandBuilder{
		LoggerProvider:               func() *zap.Logger { return zap.NewNop() },
		ConsoleLoggerProvider:        func() *zap.Logger { return zap.New(observerCore) },
		HumanReadableLoggingProvider: func() bool { return true },
		ConfigurationProvider: func() releasecut.CommandConfiguration {
			configuration := releasecut.DefaultCommandConfiguration()
			configuration.RepositoryPath = fixture.checkoutPath
			configuration.GitHubRepository = commandTestRepositoryIdentifier
			configuration.DryRun = true
			return configuration
		},
		CommandRunner: newGitHubStubRunner(),
	}

	outputBuffer, executionError := buildCutCommand(testInstance, builder, "--release-version", "2.4.0", "--next-version", "2.5.0")
	require.NoError(testInstance, executionError)

	require.True(testInstance, strings.HasPrefix(outputBuffer.String(), "Release 2.4.0 (next 2.5.0), dry run\n"))
	require.Contains(testInstance, outputBuffer.String(), "[planned  ] push-tag          would push v2.4.0 to origin")
	require.Equal(testInstance, headBefore, runGit(testInstance, fixture.checkoutPath, "rev-parse", "HEAD"))
	require.Empty(testInstance, runGit(testInstance, fixture.checkoutPath, "tag", "--list"))
	require.Empty(testInstance, runGit(testInstance, fixture.checkoutPath, "status", "--porcelain"))
	require.Empty(testInstance, runGit(testInstance, fixture.checkoutPath, "ls-remote", "--tags", "origin"))
	require.NotEmpty(testInstance, observedLogs.All())
}

func TestCutCommandReportsDirtyWorktree(testInstance *testing.T) {
	fixture := newReleaseRepositoryFixture(testInstance)
	writeRepositoryFile(testInstance, fixture.checkoutPath, "notes.txt", "scratch\n")
	builder := &releasecut.CommandBuilder{CommandRunner: newGitHubStubRunner()}

	outputBuffer, executionError := buildCutCommand(testInstance, builder,
		"--release-version", "2.4.0",
		"--next-version", "2.5.0",
		"--repository", fixture.checkoutPath,
		"--github-repository", commandTestRepositoryIdentifier,
	)

	var worktreeError releasecut.DirtyWorktreeError
	require.ErrorAs(testInstance, executionError, &worktreeError)
	require.Contains(testInstance, outputBuffer.String(), "[failed   ] checkout")
	require.Contains(testInstance, outputBuffer.String(), "[skipped  ] push-tag")
}

func TestCutCommandRejectsInvalidInvocation(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
		verify    func(testInstance *testing.T, executionError error)
	}{
		{
			name:      "missing_versions",
			arguments: []string{"--repository", "."},
			verify: func(testInstance *testing.T, executionError error) {
				var inputError releasecut.InvalidInputError
				require.ErrorAs(testInstance, executionError, &inputError)
				require.Equal(testInstance, "release version", inputError.FieldName)
			},
		},
		{
			name:      "unsupported_output",
			arguments: []string{"--release-version", "2.4.0", "--next-version", "2.5.0", "--output", "json"},
			verify: func(testInstance *testing.T, executionError error) {
				var choiceError flagutils.UnsupportedChoiceError
				require.ErrorAs(testInstance, executionError, &choiceError)
				require.Equal(testInstance, "output", choiceError.FlagName)
			},
		},
		{
			name:      "ref_without_url",
			arguments: []string{"--release-version", "2.4.0", "--next-version", "2.5.0", "--ref", "main"},
			verify: func(testInstance *testing.T, executionError error) {
				var inputError releasecut.InvalidInputError
				require.ErrorAs(testInstance, executionError, &inputError)
				require.Equal(testInstance, "ref", inputError.FieldName)
			},
		},
		{
			name:      "invalid_toggle",
			arguments: []string{"--release-version", "2.4.0", "--next-version", "2.5.0", "--dry-run=maybe"},
			verify: func(testInstance *testing.T, executionError error) {
				require.Error(testInstance, executionError)
				require.Contains(testInstance, executionError.Error(), "maybe")
			},
		},
		{
			name:      "positional_arguments",
			arguments: []string{"2.4.0"},
			verify: func(testInstance *testing.T, executionError error) {
				require.Error(testInstance, executionError)
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			runner := newGitHubStubRunner()
			builder := &releasecut.CommandBuilder{CommandRunner: runner}

			outputBuffer, executionError := buildCutCommand(testInstance, builder, testCase.arguments...)
			testCase.verify(testInstance, executionError)
			require.Empty(testInstance, outputBuffer.String())
			require.Empty(testInstance, runner.gitHubInvocations)
		})
	}
}

func TestCutCommandRepositoryURLOverridesConfiguredPath(testInstance *testing.T) {
	fixture := newReleaseRepositoryFixture(testInstance)
	workspaceDirectory := testInstance.TempDir()
	runner := newGitHubStubRunner()
	builder := &releasecut.CommandBuilder{
		ConfigurationProvider: func() releasecut.CommandConfiguration {
			configuration := releasecut.DefaultCommandConfiguration()
			configuration.RepositoryPath = "/does/not/exist"
			configuration.GitHubRepository = commandTestRepositoryIdentifier
			return configuration
		},
		CommandRunner: runner,
	}

	outputBuffer, executionError := buildCutCommand(testInstance, builder,
		"--release-version", "2.4.0",
		"--next-version", "2.5.0",
		"--repository-url", fixture.remotePath,
		"--ref", "main",
		"--workspace", workspaceDirectory,
		"--output", "YAML",
	)
	require.NoError(testInstance, executionError)

	var summary map[string]any
	require.NoError(testInstance, yaml.Unmarshal(outputBuffer.Bytes(), &summary))
	clonePath, isString := summary["repository_path"].(string)
	require.True(testInstance, isString)
	require.True(testInstance, strings.HasPrefix(clonePath, workspaceDirectory))
	require.Equal(testInstance, "remote", filepath.Base(clonePath))

	require.NotEmpty(testInstance, runGit(testInstance, fixture.checkoutPath, "ls-remote", "--tags", "origin", "refs/tags/v2.4.0"))
	require.Empty(testInstance, runGit(testInstance, fixture.checkoutPath, "status", "--porcelain"))
}
