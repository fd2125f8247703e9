package releasecut

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/temirov/cutrelease/internal/execshell"
	"github.com/temirov/cutrelease/internal/githubcli"
	"github.com/temirov/cutrelease/internal/gitrepo"
	"github.com/temirov/cutrelease/internal/versionfiles"
)

const (
	cloneWorkspacePatternConstant     = "cutrelease-*"
	cloneFallbackDirectoryConstant    = "repository"
	cloneURLSuffixConstant            = ".git"
	toolVersionFlagConstant           = "--version"
	outputLineSeparatorConstant       = "\n"
	workspaceCreationErrorTemplate    = "unable to prepare clone workspace: %w"
	repositoryPathResolutionTemplate  = "unable to resolve repository path %s: %w"
	checkoutDetailTemplateConstant    = "%s at %s (%s) from %s"
	identityDetailTemplateConstant    = "%s <%s>"
	changeDetailTemplateConstant      = "%s: %s -> %s"
	changeDetailSeparatorConstant     = "; "
	releaseCommitDetailTemplate       = "committed %s as %s"
	tagDetailTemplateConstant         = "created %s"
	pushDetailTemplateConstant        = "pushed %s to %s"
	plannedTagDetailTemplate          = "would create %s"
	plannedPushDetailTemplate         = "would push %s to %s"
	pullRequestDetailTemplateConstant = "opened %s from %s into %s"
	plannedPullRequestDetailTemplate  = "would open %q from %s into %s"
	plannedChangePrefixConstant       = "would update "
	toolchainDetailSeparatorConstant  = "; "
	toolchainDetailTemplateConstant   = "%s: %s"
)

// DefaultSteps returns the release cut pipeline in its required order.
func DefaultSteps() []Step {
	return []Step{
		checkoutStep{},
		toolchainStep{},
		identityStep{},
		releaseFilesStep{},
		tagStep{},
		pushTagStep{},
		developmentFilesStep{},
		pullRequestStep{},
	}
}

type checkoutStep struct{}

func (checkoutStep) Name() StepName { return StepCheckout }

func (checkoutStep) Execute(executionContext context.Context, environment *Environment, state *State) error {
	options := environment.Options
	if options.CloneMode() {
		workspaceDirectory, workspaceError := prepareCloneWorkspace(options)
		if workspaceError != nil {
			return workspaceError
		}
		state.CloneWorkspace = workspaceDirectory
		destination := filepath.Join(workspaceDirectory, cloneDirectoryName(options.RepositoryURL))
		cloneError := environment.RepositoryManager.Clone(executionContext, gitrepo.CloneOptions{
			SourceURL:       options.RepositoryURL,
			Reference:       options.Reference,
			DestinationPath: destination,
		})
		if cloneError != nil {
			return cloneError
		}
		state.RepositoryPath = destination
	} else {
		repositoryPath, resolutionError := filepath.Abs(options.localRepositoryPath())
		if resolutionError != nil {
			return fmt.Errorf(repositoryPathResolutionTemplate, options.localRepositoryPath(), resolutionError)
		}
		isWorkTree, inspectionError := environment.RepositoryManager.IsWorkTree(executionContext, repositoryPath)
		if inspectionError != nil {
			return inspectionError
		}
		if !isWorkTree {
			return NotRepositoryError{RepositoryPath: repositoryPath}
		}
		clean, statusError := environment.RepositoryManager.CheckCleanWorktree(executionContext, repositoryPath)
		if statusError != nil {
			return statusError
		}
		if !clean {
			return DirtyWorktreeError{RepositoryPath: repositoryPath}
		}
		state.RepositoryPath = repositoryPath
	}

	currentBranch, branchError := environment.RepositoryManager.GetCurrentBranch(executionContext, state.RepositoryPath)
	if branchError != nil {
		return branchError
	}
	headRevision, revisionError := environment.RepositoryManager.HeadRevision(executionContext, state.RepositoryPath)
	if revisionError != nil {
		return revisionError
	}
	remoteURL, remoteError := environment.RepositoryManager.GetRemoteURL(executionContext, state.RepositoryPath, options.RemoteName)
	if remoteError != nil {
		return remoteError
	}

	repositoryIdentifier := options.GitHubRepository
	if len(repositoryIdentifier) == 0 {
		parsedRemote, parseError := gitrepo.ParseRemoteURL(remoteURL)
		if parseError != nil {
			return UnresolvedRepositoryError{RemoteName: options.RemoteName, RemoteURL: remoteURL, Cause: parseError}
		}
		repositoryIdentifier = parsedRemote.RepositoryIdentifier()
	}

	state.StartBranch = currentBranch
	state.StartRevision = headRevision
	state.RemoteURL = remoteURL
	state.RepositoryIdentifier = repositoryIdentifier
	state.describe(StepCheckout, fmt.Sprintf(checkoutDetailTemplateConstant, state.RepositoryPath, currentBranch, abbreviateRevision(headRevision), repositoryIdentifier))
	return nil
}

func prepareCloneWorkspace(options Options) (string, error) {
	workspaceDirectory, creationError := os.MkdirTemp(options.WorkspaceDirectory, cloneWorkspacePatternConstant)
	if creationError != nil {
		return "", fmt.Errorf(workspaceCreationErrorTemplate, creationError)
	}
	return workspaceDirectory, nil
}

func cloneDirectoryName(repositoryURL string) string {
	if parsedRemote, parseError := gitrepo.ParseRemoteURL(repositoryURL); parseError == nil {
		return parsedRemote.Repository
	}
	directoryName := strings.TrimSuffix(path.Base(filepath.ToSlash(strings.TrimRight(repositoryURL, "/"))), cloneURLSuffixConstant)
	if len(directoryName) == 0 || directoryName == "." || directoryName == "/" {
		return cloneFallbackDirectoryConstant
	}
	return directoryName
}

type toolchainStep struct{}

func (toolchainStep) Name() StepName { return StepToolchain }

func (toolchainStep) Execute(executionContext context.Context, environment *Environment, state *State) error {
	detailParts := make([]string, 0, 2)
	for _, commandName := range []execshell.CommandName{execshell.CommandGit, execshell.CommandGitHub} {
		executionResult, executionError := environment.CommandExecutor.Execute(executionContext, execshell.ShellCommand{
			Name:    commandName,
			Details: execshell.CommandDetails{Arguments: []string{toolVersionFlagConstant}, WorkingDirectory: state.RepositoryPath},
		})
		if executionError != nil {
			return executionError
		}
		firstLine, _, _ := strings.Cut(strings.TrimSpace(executionResult.StandardOutput), outputLineSeparatorConstant)
		state.Toolchain[commandName] = firstLine
		detailParts = append(detailParts, fmt.Sprintf(toolchainDetailTemplateConstant, commandName, firstLine))
	}
	state.describe(StepToolchain, strings.Join(detailParts, toolchainDetailSeparatorConstant))
	return nil
}

type identityStep struct{}

func (identityStep) Name() StepName { return StepIdentity }

func (identityStep) Execute(_ context.Context, environment *Environment, state *State) error {
	identity := environment.Options.Identity
	if validationError := identity.Validate(); validationError != nil {
		return validationError
	}
	state.describe(StepIdentity, fmt.Sprintf(identityDetailTemplateConstant, identity.Name, identity.Email))
	return nil
}

type releaseFilesStep struct{}

func (releaseFilesStep) Name() StepName { return StepReleaseFiles }

// Execute refuses an existing tag and plans both rewrites before touching the worktree.
func (releaseFilesStep) Execute(executionContext context.Context, environment *Environment, state *State) error {
	options := environment.Options
	if availabilityError := ensureTagAvailable(executionContext, environment, state); availabilityError != nil {
		return availabilityError
	}
	changes, planError := environment.VersionFiles.PlanRelease(state.RepositoryPath, options.ReleaseVersion)
	if planError != nil {
		return planError
	}
	if _, developmentPlanError := environment.VersionFiles.PlanDevelopment(state.RepositoryPath, options.NextVersion); developmentPlanError != nil {
		return developmentPlanError
	}
	state.ReleaseChanges = changes
	if options.DryRun {
		state.describe(StepReleaseFiles, plannedChangePrefixConstant+describeChanges(changes))
		return nil
	}

	writtenPaths, writeError := versionfiles.Write(state.RepositoryPath, changes)
	if writeError != nil {
		return writeError
	}
	commitMessage := ReleaseCommitMessage(options.ReleaseVersion)
	commitRevision, commitError := commitFiles(executionContext, environment, state.RepositoryPath, writtenPaths, commitMessage)
	if commitError != nil {
		return commitError
	}
	state.ReleaseCommit = commitRevision
	state.describe(StepReleaseFiles, fmt.Sprintf(releaseCommitDetailTemplate, describeChanges(changes), abbreviateRevision(commitRevision)))
	return nil
}

type tagStep struct{}

func (tagStep) Name() StepName { return StepTag }

func (tagStep) Execute(executionContext context.Context, environment *Environment, state *State) error {
	options := environment.Options
	if options.DryRun {
		state.describe(StepTag, fmt.Sprintf(plannedTagDetailTemplate, state.TagName))
		return nil
	}

	tagError := environment.RepositoryManager.CreateTag(executionContext, state.RepositoryPath, gitrepo.TagOptions{
		Identity: options.Identity,
		Name:     state.TagName,
		Message:  TagMessage(options.ReleaseVersion),
	})
	if tagError != nil {
		return tagError
	}
	state.describe(StepTag, fmt.Sprintf(tagDetailTemplateConstant, state.TagName))
	return nil
}

type pushTagStep struct{}

func (pushTagStep) Name() StepName { return StepPushTag }

func (pushTagStep) Execute(executionContext context.Context, environment *Environment, state *State) error {
	options := environment.Options
	if remoteError := ensureRemoteTagAbsent(executionContext, environment, state); remoteError != nil {
		return remoteError
	}
	if options.DryRun {
		state.describe(StepPushTag, fmt.Sprintf(plannedPushDetailTemplate, state.TagName, options.RemoteName))
		return nil
	}

	if pushError := environment.RepositoryManager.PushTag(executionContext, state.RepositoryPath, options.RemoteName, state.TagName); pushError != nil {
		return pushError
	}
	state.ReleaseCut = true
	state.describe(StepPushTag, fmt.Sprintf(pushDetailTemplateConstant, state.TagName, options.RemoteName))
	return nil
}

func ensureTagAvailable(executionContext context.Context, environment *Environment, state *State) error {
	exists, lookupError := environment.RepositoryManager.LocalTagExists(executionContext, state.RepositoryPath, state.TagName)
	if lookupError != nil {
		return lookupError
	}
	if exists {
		return TagAlreadyExistsError{TagName: state.TagName}
	}
	return ensureRemoteTagAbsent(executionContext, environment, state)
}

func ensureRemoteTagAbsent(executionContext context.Context, environment *Environment, state *State) error {
	remoteName := environment.Options.RemoteName
	exists, lookupError := environment.RepositoryManager.RemoteTagExists(executionContext, state.RepositoryPath, remoteName, state.TagName)
	if lookupError != nil {
		return lookupError
	}
	if exists {
		return TagAlreadyExistsError{TagName: state.TagName, RemoteName: remoteName}
	}
	return nil
}

type developmentFilesStep struct{}

func (developmentFilesStep) Name() StepName { return StepDevelopmentFiles }

func (developmentFilesStep) Execute(_ context.Context, environment *Environment, state *State) error {
	options := environment.Options
	changes, planError := environment.VersionFiles.PlanDevelopment(state.RepositoryPath, options.NextVersion)
	if planError != nil {
		return planError
	}
	state.DevelopmentChanges = changes
	if options.DryRun {
		state.describe(StepDevelopmentFiles, plannedChangePrefixConstant+describeChanges(changes))
		return nil
	}

	if _, writeError := versionfiles.Write(state.RepositoryPath, changes); writeError != nil {
		return writeError
	}
	state.describe(StepDevelopmentFiles, describeChanges(changes))
	return nil
}

type pullRequestStep struct{}

func (pullRequestStep) Name() StepName { return StepPullRequest }

func (pullRequestStep) Execute(executionContext context.Context, environment *Environment, state *State) error {
	options := environment.Options
	baseBranch, baseError := resolveBaseBranch(executionContext, environment, state)
	if baseError != nil {
		return baseError
	}
	state.BaseBranch = baseBranch

	openPullRequests, listError := environment.GitHubClient.ListPullRequests(executionContext, state.RepositoryIdentifier, githubcli.PullRequestListOptions{
		State:      githubcli.PullRequestStateOpen,
		HeadBranch: state.BranchName,
	})
	if listError != nil {
		return listError
	}
	if len(openPullRequests) > 0 {
		return PullRequestExistsError{BranchName: state.BranchName, PullRequestURL: openPullRequests[0].URL}
	}

	title := PullRequestTitle(options.NextVersion)
	if options.DryRun {
		state.describe(StepPullRequest, fmt.Sprintf(plannedPullRequestDetailTemplate, title, state.BranchName, baseBranch))
		return nil
	}

	if branchError := environment.RepositoryManager.CreateBranch(executionContext, state.RepositoryPath, state.BranchName); branchError != nil {
		return branchError
	}
	commitRevision, commitError := commitFiles(executionContext, environment, state.RepositoryPath, changePaths(state.DevelopmentChanges), developmentCommitMessageConstant)
	if commitError != nil {
		return commitError
	}
	state.DevelopmentCommit = commitRevision
	if pushError := environment.RepositoryManager.PushBranch(executionContext, state.RepositoryPath, options.RemoteName, state.BranchName); pushError != nil {
		return pushError
	}

	pullRequestURL, createError := environment.GitHubClient.CreatePullRequest(executionContext, state.RepositoryIdentifier, githubcli.PullRequestCreateOptions{
		BaseBranch: baseBranch,
		HeadBranch: state.BranchName,
		Title:      title,
		Body:       PullRequestBody(options.ReleaseVersion, environment.VersionFiles.DevelopmentVersion(options.NextVersion)),
	})
	if createError != nil {
		return createError
	}
	state.PullRequestURL = pullRequestURL
	state.describe(StepPullRequest, fmt.Sprintf(pullRequestDetailTemplateConstant, pullRequestURL, state.BranchName, baseBranch))
	return nil
}

// resolveBaseBranch prefers the configured base, then the repository default branch, then the starting branch.
func resolveBaseBranch(executionContext context.Context, environment *Environment, state *State) (string, error) {
	if len(environment.Options.BaseBranch) > 0 {
		return environment.Options.BaseBranch, nil
	}
	metadata, metadataError := environment.GitHubClient.ResolveRepoMetadata(executionContext, state.RepositoryIdentifier)
	if metadataError != nil {
		return "", metadataError
	}
	if len(strings.TrimSpace(metadata.DefaultBranch)) > 0 {
		return strings.TrimSpace(metadata.DefaultBranch), nil
	}
	return state.StartBranch, nil
}

func commitFiles(executionContext context.Context, environment *Environment, repositoryPath string, files []string, message string) (string, error) {
	if stageError := environment.RepositoryManager.StageFiles(executionContext, repositoryPath, files); stageError != nil {
		return "", stageError
	}
	commitError := environment.RepositoryManager.Commit(executionContext, repositoryPath, gitrepo.CommitOptions{
		Identity: environment.Options.Identity,
		Message:  message,
		SignOff:  true,
	})
	if commitError != nil {
		return "", commitError
	}
	return environment.RepositoryManager.HeadRevision(executionContext, repositoryPath)
}

func changePaths(changes []versionfiles.Change) []string {
	paths := make([]string, 0, len(changes))
	for _, change := range changes {
		paths = append(paths, change.Path)
	}
	return paths
}

func describeChanges(changes []versionfiles.Change) string {
	descriptions := make([]string, 0, len(changes))
	for _, change := range changes {
		descriptions = append(descriptions, fmt.Sprintf(changeDetailTemplateConstant, change.Path, change.PreviousVersion, change.UpdatedVersion))
	}
	return strings.Join(descriptions, changeDetailSeparatorConstant)
}

func abbreviateRevision(revision string) string {
	const abbreviatedRevisionLength = 12
	if len(revision) <= abbreviatedRevisionLength {
		return revision
	}
	return revision[:abbreviatedRevisionLength]
}
