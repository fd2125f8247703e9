package releasecut_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/cutrelease/internal/execshell"
	"github.com/temirov/cutrelease/internal/githubcli"
	"github.com/temirov/cutrelease/internal/gitrepo"
	"github.com/temirov/cutrelease/internal/releasecut"
)

const (
	testReleaseVersionConstant      = "2.4.0"
	testNextVersionConstant         = "2.5.0"
	testRemoteURLConstant           = "git@github.com:owner/example.git"
	testRepositoryIdentifier        = "owner/example"
	testDefaultBranchConstant       = "main"
	testPullRequestURLConstant      = "https://github.com/owner/example/pull/42"
	testStableVersionPathConstant   = "stable-version.txt"
	testLanguageVersionPathConstant = "python/version.py"
	testBuildVersionPathConstant    = "version.sbt"
	testStableVersionContent        = "2.3.0\n"
	testLanguageVersionContent      = "# Generated by the build.\nVERSION = '2.4.0-SNAPSHOT'\n"
	testBuildVersionContent         = "ThisBuild / scalaVersion := \"2.13.12\"\nThisBuild / version := \"2.4.0-SNAPSHOT\"\n"
	testGitVersionOutput            = "git version 2.43.0\n"
	testGitHubVersionOutput         = "gh version 2.40.1 (2023-12-13)\nhttps://github.com/cli/cli/releases/tag/v2.40.1\n"
	testRevisionTemplate            = "%040d"
)

// writeVersionFixtures creates the three version files under a fresh directory.
func writeVersionFixtures(testInstance *testing.T) string {
	testInstance.Helper()
	return writeVersionFixturesAt(testInstance, testInstance.TempDir())
}

func writeVersionFixturesAt(testInstance *testing.T, repositoryPath string) string {
	testInstance.Helper()
	writeRepositoryFile(testInstance, repositoryPath, testStableVersionPathConstant, testStableVersionContent)
	writeRepositoryFile(testInstance, repositoryPath, testLanguageVersionPathConstant, testLanguageVersionContent)
	writeRepositoryFile(testInstance, repositoryPath, testBuildVersionPathConstant, testBuildVersionContent)
	return repositoryPath
}

func writeRepositoryFile(testInstance *testing.T, repositoryPath string, relativePath string, content string) {
	testInstance.Helper()
	absolutePath := filepath.Join(repositoryPath, filepath.FromSlash(relativePath))
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
	require.NoError(testInstance, os.WriteFile(absolutePath, []byte(content), 0o644))
}

func readRepositoryFile(testInstance *testing.T, repositoryPath string, relativePath string) string {
	testInstance.Helper()
	content, readError := os.ReadFile(filepath.Join(repositoryPath, filepath.FromSlash(relativePath)))
	require.NoError(testInstance, readError)
	return string(content)
}

func baseOptions(repositoryPath string) releasecut.Options {
	return releasecut.Options{
		ReleaseVersion: testReleaseVersionConstant,
		NextVersion:    testNextVersionConstant,
		RepositoryPath: repositoryPath,
		Identity: gitrepo.Identity{
			Name:  releasecut.DefaultIdentityName,
			Email: releasecut.DefaultIdentityEmail,
		},
	}
}

type fakeRepositoryManager struct {
	calls           []string
	commits         []gitrepo.CommitOptions
	tags            []gitrepo.TagOptions
	stagedFiles     [][]string
	clones          []gitrepo.CloneOptions
	localTags       map[string]bool
	remoteTags      map[string]bool
	notWorkTree     bool
	dirty           bool
	remoteURL       string
	currentBranch   string
	revisionCounter int
	failures        map[string]error
	onClone         func(options gitrepo.CloneOptions)
	afterCreateTag  func()
	afterPushTag    func()
}

func newFakeRepositoryManager() *fakeRepositoryManager {
	return &fakeRepositoryManager{
		localTags:     map[string]bool{},
		remoteTags:    map[string]bool{},
		remoteURL:     testRemoteURLConstant,
		currentBranch: testDefaultBranchConstant,
		failures:      map[string]error{},
	}
}

func (manager *fakeRepositoryManager) record(operation string) error {
	manager.calls = append(manager.calls, operation)
	return manager.failures[operation]
}

func (manager *fakeRepositoryManager) IsWorkTree(_ context.Context, _ string) (bool, error) {
	return !manager.notWorkTree, manager.record("IsWorkTree")
}

func (manager *fakeRepositoryManager) CheckCleanWorktree(_ context.Context, _ string) (bool, error) {
	return !manager.dirty, manager.record("CheckCleanWorktree")
}

func (manager *fakeRepositoryManager) GetCurrentBranch(_ context.Context, _ string) (string, error) {
	return manager.currentBranch, manager.record("GetCurrentBranch")
}

func (manager *fakeRepositoryManager) HeadRevision(_ context.Context, _ string) (string, error) {
	manager.revisionCounter++
	return fmt.Sprintf(testRevisionTemplate, manager.revisionCounter), manager.record("HeadRevision")
}

func (manager *fakeRepositoryManager) Clone(_ context.Context, options gitrepo.CloneOptions) error {
	manager.clones = append(manager.clones, options)
	if failure := manager.record("Clone"); failure != nil {
		return failure
	}
	if manager.onClone != nil {
		manager.onClone(options)
	}
	return nil
}

func (manager *fakeRepositoryManager) StageFiles(_ context.Context, _ string, files []string) error {
	manager.stagedFiles = append(manager.stagedFiles, append([]string(nil), files...))
	return manager.record("StageFiles")
}

func (manager *fakeRepositoryManager) Commit(_ context.Context, _ string, options gitrepo.CommitOptions) error {
	manager.commits = append(manager.commits, options)
	return manager.record("Commit")
}

func (manager *fakeRepositoryManager) CreateTag(_ context.Context, _ string, options gitrepo.TagOptions) error {
	manager.tags = append(manager.tags, options)
	if failure := manager.record("CreateTag"); failure != nil {
		return failure
	}
	manager.localTags[options.Name] = true
	if manager.afterCreateTag != nil {
		manager.afterCreateTag()
	}
	return nil
}

func (manager *fakeRepositoryManager) LocalTagExists(_ context.Context, _ string, tagName string) (bool, error) {
	return manager.localTags[tagName], manager.record("LocalTagExists")
}

func (manager *fakeRepositoryManager) RemoteTagExists(_ context.Context, _ string, _ string, tagName string) (bool, error) {
	return manager.remoteTags[tagName], manager.record("RemoteTagExists")
}

func (manager *fakeRepositoryManager) PushTag(_ context.Context, _ string, _ string, tagName string) error {
	if failure := manager.record("PushTag"); failure != nil {
		return failure
	}
	manager.remoteTags[tagName] = true
	if manager.afterPushTag != nil {
		manager.afterPushTag()
	}
	return nil
}

func (manager *fakeRepositoryManager) CreateBranch(_ context.Context, _ string, _ string) error {
	return manager.record("CreateBranch")
}

func (manager *fakeRepositoryManager) PushBranch(_ context.Context, _ string, _ string, _ string) error {
	return manager.record("PushBranch")
}

func (manager *fakeRepositoryManager) GetRemoteURL(_ context.Context, _ string, _ string) (string, error) {
	return manager.remoteURL, manager.record("GetRemoteURL")
}

func (manager *fakeRepositoryManager) called(operation string) bool {
	for _, call := range manager.calls {
		if call == operation {
			return true
		}
	}
	return false
}

type fakeGitHubClient struct {
	defaultBranch     string
	openPullRequests  []githubcli.PullRequest
	createError       error
	metadataError     error
	listQueries       []githubcli.PullRequestListOptions
	createdRequests   []githubcli.PullRequestCreateOptions
	queriedRepository []string
}

func newFakeGitHubClient() *fakeGitHubClient {
	return &fakeGitHubClient{defaultBranch: testDefaultBranchConstant}
}

func (client *fakeGitHubClient) ResolveRepoMetadata(_ context.Context, repository string) (githubcli.RepositoryMetadata, error) {
	client.queriedRepository = append(client.queriedRepository, repository)
	if client.metadataError != nil {
		return githubcli.RepositoryMetadata{}, client.metadataError
	}
	return githubcli.RepositoryMetadata{NameWithOwner: repository, DefaultBranch: client.defaultBranch}, nil
}

func (client *fakeGitHubClient) ListPullRequests(_ context.Context, repository string, options githubcli.PullRequestListOptions) ([]githubcli.PullRequest, error) {
	client.queriedRepository = append(client.queriedRepository, repository)
	client.listQueries = append(client.listQueries, options)
	return client.openPullRequests, nil
}

func (client *fakeGitHubClient) CreatePullRequest(_ context.Context, repository string, options githubcli.PullRequestCreateOptions) (string, error) {
	client.queriedRepository = append(client.queriedRepository, repository)
	client.createdRequests = append(client.createdRequests, options)
	if client.createError != nil {
		return "", client.createError
	}
	return testPullRequestURLConstant, nil
}

type fakeCommandExecutor struct {
	commands []execshell.ShellCommand
	failures map[execshell.CommandName]error
}

func newFakeCommandExecutor() *fakeCommandExecutor {
	return &fakeCommandExecutor{failures: map[execshell.CommandName]error{}}
}

func (executor *fakeCommandExecutor) Execute(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executor.commands = append(executor.commands, command)
	if failure := executor.failures[command.Name]; failure != nil {
		return execshell.ExecutionResult{}, failure
	}
	switch command.Name {
	case execshell.CommandGit:
		return execshell.ExecutionResult{StandardOutput: testGitVersionOutput}, nil
	case execshell.CommandGitHub:
		return execshell.ExecutionResult{StandardOutput: testGitHubVersionOutput}, nil
	default:
		return execshell.ExecutionResult{}, nil
	}
}

type serviceFixture struct {
	repositoryManager *fakeRepositoryManager
	gitHubClient      *fakeGitHubClient
	commandExecutor   *fakeCommandExecutor
	service           *releasecut.Service
}

func newServiceFixture(testInstance *testing.T) *serviceFixture {
	testInstance.Helper()
	fixture := &serviceFixture{
		repositoryManager: newFakeRepositoryManager(),
		gitHubClient:      newFakeGitHubClient(),
		commandExecutor:   newFakeCommandExecutor(),
	}
	service, serviceError := releasecut.NewService(releasecut.ServiceDependencies{
		RepositoryManager: fixture.repositoryManager,
		GitHubClient:      fixture.gitHubClient,
		CommandExecutor:   fixture.commandExecutor,
	})
	require.NoError(testInstance, serviceError)
	fixture.service = service
	return fixture
}

func stepStatuses(result releasecut.Result) map[releasecut.StepName]releasecut.StepStatus {
	statuses := make(map[releasecut.StepName]releasecut.StepStatus, len(result.Steps))
	for _, stepReport := range result.Steps {
		statuses[stepReport.Name] = stepReport.Status
	}
	return statuses
}

func stepNames(result releasecut.Result) []string {
	names := make([]string, 0, len(result.Steps))
	for _, stepReport := range result.Steps {
		names = append(names, string(stepReport.Name))
	}
	return names
}

func joinedCalls(manager *fakeRepositoryManager) string {
	return strings.Join(manager.calls, ",")
}
