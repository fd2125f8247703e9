package releasecut

import (
	"context"

	"go.uber.org/zap"

	"github.com/temirov/cutrelease/internal/execshell"
	"github.com/temirov/cutrelease/internal/githubcli"
	"github.com/temirov/cutrelease/internal/gitrepo"
	"github.com/temirov/cutrelease/internal/versionfiles"
)

// StepName identifies a pipeline step.
type StepName string

// Pipeline steps in execution order.
const (
	StepCheckout         StepName = StepName("checkout")
	StepToolchain        StepName = StepName("toolchain")
	StepIdentity         StepName = StepName("identity")
	StepReleaseFiles     StepName = StepName("release-files")
	StepTag              StepName = StepName("tag")
	StepPushTag          StepName = StepName("push-tag")
	StepDevelopmentFiles StepName = StepName("development-files")
	StepPullRequest      StepName = StepName("pull-request")
)

var stepFailureClasses = map[StepName]FailureClass{
	StepCheckout:         FailureClassEnvironment,
	StepToolchain:        FailureClassEnvironment,
	StepIdentity:         FailureClassEnvironment,
	StepReleaseFiles:     FailureClassVCS,
	StepTag:              FailureClassVCS,
	StepPushTag:          FailureClassVCS,
	StepDevelopmentFiles: FailureClassFilePattern,
	StepPullRequest:      FailureClassPullRequest,
}

// Step is one stage of the release cut. A step either completes or returns
// an error that stops the pipeline.
type Step interface {
	Name() StepName
	Execute(executionContext context.Context, environment *Environment, state *State) error
}

// RepositoryManager captures the git operations the pipeline performs.
type RepositoryManager interface {
	IsWorkTree(executionContext context.Context, repositoryPath string) (bool, error)
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	HeadRevision(executionContext context.Context, repositoryPath string) (string, error)
	Clone(executionContext context.Context, options gitrepo.CloneOptions) error
	StageFiles(executionContext context.Context, repositoryPath string, files []string) error
	Commit(executionContext context.Context, repositoryPath string, options gitrepo.CommitOptions) error
	CreateTag(executionContext context.Context, repositoryPath string, options gitrepo.TagOptions) error
	LocalTagExists(executionContext context.Context, repositoryPath string, tagName string) (bool, error)
	RemoteTagExists(executionContext context.Context, repositoryPath string, remoteName string, tagName string) (bool, error)
	PushTag(executionContext context.Context, repositoryPath string, remoteName string, tagName string) error
	CreateBranch(executionContext context.Context, repositoryPath string, branchName string) error
	PushBranch(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
}

// GitHubClient captures the GitHub operations the pipeline performs.
type GitHubClient interface {
	ResolveRepoMetadata(executionContext context.Context, repository string) (githubcli.RepositoryMetadata, error)
	ListPullRequests(executionContext context.Context, repository string, options githubcli.PullRequestListOptions) ([]githubcli.PullRequest, error)
	CreatePullRequest(executionContext context.Context, repository string, options githubcli.PullRequestCreateOptions) (string, error)
}

// CommandExecutor runs arbitrary supported commands; the toolchain step uses it to check executables.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// Environment exposes shared collaborators to steps.
type Environment struct {
	RepositoryManager RepositoryManager
	GitHubClient      GitHubClient
	CommandExecutor   CommandExecutor
	VersionFiles      *versionfiles.Set
	Options           Options
	Logger            *zap.Logger
}

// State carries what earlier steps established to later ones.
type State struct {
	RepositoryPath       string
	CloneWorkspace       string
	RepositoryIdentifier string
	RemoteURL            string
	StartBranch          string
	StartRevision        string
	BaseBranch           string
	Toolchain            map[execshell.CommandName]string
	ReleaseChanges       []versionfiles.Change
	DevelopmentChanges   []versionfiles.Change
	ReleaseCommit        string
	DevelopmentCommit    string
	TagName              string
	BranchName           string
	PullRequestURL       string
	ReleaseCut           bool
	stepDetails          map[StepName]string
}

func newState(options Options) *State {
	return &State{
		TagName:     TagName(options.ReleaseVersion),
		BranchName:  BranchName(options.ReleaseVersion),
		Toolchain:   make(map[execshell.CommandName]string),
		stepDetails: make(map[StepName]string),
	}
}

func (state *State) describe(stepName StepName, detail string) {
	state.stepDetails[stepName] = detail
}
