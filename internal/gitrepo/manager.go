package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/temirov/cutrelease/internal/execshell"
)

const (
	gitConfigOverrideFlagConstant       = "-c"
	gitUserNameSettingTemplate          = "user.name=%s"
	gitUserEmailSettingTemplate         = "user.email=%s"
	gitRevParseSubcommandConstant       = "rev-parse"
	gitIsInsideWorkTreeFlagConstant     = "--is-inside-work-tree"
	gitAbbrevRefFlagConstant            = "--abbrev-ref"
	gitVerifyFlagConstant               = "--verify"
	gitQuietFlagConstant                = "--quiet"
	gitHeadReferenceConstant            = "HEAD"
	gitStatusSubcommandConstant         = "status"
	gitPorcelainFlagConstant            = "--porcelain"
	gitCloneSubcommandConstant          = "clone"
	gitNoTagsFlagConstant               = "--no-tags"
	gitBranchFlagConstant               = "--branch"
	gitAddSubcommandConstant            = "add"
	gitArgumentTerminatorConstant       = "--"
	gitCommitSubcommandConstant         = "commit"
	gitSignOffFlagConstant              = "--signoff"
	gitMessageFlagConstant              = "-m"
	gitTagSubcommandConstant            = "tag"
	gitAnnotateFlagConstant             = "-a"
	gitLSRemoteSubcommandConstant       = "ls-remote"
	gitTagsFlagConstant                 = "--tags"
	gitPushSubcommandConstant           = "push"
	gitCheckoutSubcommandConstant       = "checkout"
	gitNewBranchFlagConstant            = "-b"
	gitRemoteSubcommandConstant         = "remote"
	gitGetURLSubcommandConstant         = "get-url"
	gitTrueOutputConstant               = "true"
	gitTagReferenceTemplate             = "refs/tags/%s"
	gitBranchReferenceTemplate          = "refs/heads/%s"
	gitVerifyMissingExitCodeConstant    = 1
	gitNotRepositoryExitCodeConstant    = 128
	requiredValueMessageConstant        = "value required"
	invalidIdentityEmailMessageConstant = "email address must contain @"
	invalidInputErrorTemplateConstant   = "%s: %s"
	executorNotConfiguredMessage        = "git executor not configured"
	repositoryPathFieldNameConstant     = "repository_path"
	sourceURLFieldNameConstant          = "source_url"
	destinationPathFieldNameConstant    = "destination_path"
	filesFieldNameConstant              = "files"
	messageFieldNameConstant            = "message"
	tagNameFieldNameConstant            = "tag_name"
	branchNameFieldNameConstant         = "branch_name"
	remoteNameFieldNameConstant         = "remote_name"
	identityNameFieldNameConstant       = "identity.name"
	identityEmailFieldNameConstant      = "identity.email"
)

// GitExecutor is the subset of execshell.ShellExecutor used for git operations.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ErrExecutorNotConfigured indicates the manager was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessage)

// InvalidInputError surfaces validation issues for repository operations.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// Identity is the committer and tagger applied to a single git invocation.
type Identity struct {
	Name  string
	Email string
}

// Validate ensures both identity fields are usable.
func (identity Identity) Validate() error {
	if len(strings.TrimSpace(identity.Name)) == 0 {
		return InvalidInputError{FieldName: identityNameFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedEmail := strings.TrimSpace(identity.Email)
	if len(trimmedEmail) == 0 {
		return InvalidInputError{FieldName: identityEmailFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if !strings.Contains(trimmedEmail, sshUserDelimiterConstant) {
		return InvalidInputError{FieldName: identityEmailFieldNameConstant, Message: invalidIdentityEmailMessageConstant}
	}
	return nil
}

func (identity Identity) configurationArguments() []string {
	return []string{
		gitConfigOverrideFlagConstant, fmt.Sprintf(gitUserNameSettingTemplate, strings.TrimSpace(identity.Name)),
		gitConfigOverrideFlagConstant, fmt.Sprintf(gitUserEmailSettingTemplate, strings.TrimSpace(identity.Email)),
	}
}

// CloneOptions configures Clone.
type CloneOptions struct {
	SourceURL       string
	Reference       string
	DestinationPath string
}

// CommitOptions configures Commit.
type CommitOptions struct {
	Identity Identity
	Message  string
	SignOff  bool
}

// TagOptions configures CreateTag.
type TagOptions struct {
	Identity Identity
	Name     string
	Message  string
}

// RepositoryManager runs repository-level git operations.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// IsWorkTree reports whether the path lies inside a git working tree.
func (manager *RepositoryManager) IsWorkTree(executionContext context.Context, repositoryPath string) (bool, error) {
	if err := requireValue(repositoryPathFieldNameConstant, repositoryPath); err != nil {
		return false, err
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitIsInsideWorkTreeFlagConstant)
	if executionError != nil {
		if exitedWithCode(executionError, gitNotRepositoryExitCodeConstant) {
			return false, nil
		}
		return false, executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput) == gitTrueOutputConstant, nil
}

// CheckCleanWorktree reports whether the working tree has no staged, unstaged, or untracked changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	if err := requireValue(repositoryPathFieldNameConstant, repositoryPath); err != nil {
		return false, err
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if executionError != nil {
		return false, executionError
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) == 0, nil
}

// GetCurrentBranch returns the checked-out branch name, or HEAD when detached.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	if err := requireValue(repositoryPathFieldNameConstant, repositoryPath); err != nil {
		return "", err
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// HeadRevision returns the commit hash HEAD points at.
func (manager *RepositoryManager) HeadRevision(executionContext context.Context, repositoryPath string) (string, error) {
	if err := requireValue(repositoryPathFieldNameConstant, repositoryPath); err != nil {
		return "", err
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitHeadReferenceConstant)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// Clone creates a fresh working tree without fetching tags, mirroring a CI checkout.
func (manager *RepositoryManager) Clone(executionContext context.Context, options CloneOptions) error {
	if err := requireValue(sourceURLFieldNameConstant, options.SourceURL); err != nil {
		return err
	}
	if err := requireValue(destinationPathFieldNameConstant, options.DestinationPath); err != nil {
		return err
	}

	arguments := []string{gitCloneSubcommandConstant, gitNoTagsFlagConstant}
	if reference := strings.TrimSpace(options.Reference); len(reference) > 0 {
		arguments = append(arguments, gitBranchFlagConstant, reference)
	}
	arguments = append(arguments, strings.TrimSpace(options.SourceURL), options.DestinationPath)

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: filepath.Dir(options.DestinationPath),
	})
	return executionError
}

// StageFiles adds the repository-relative files to the index.
func (manager *RepositoryManager) StageFiles(executionContext context.Context, repositoryPath string, files []string) error {
	if err := requireValue(repositoryPathFieldNameConstant, repositoryPath); err != nil {
		return err
	}
	if len(files) == 0 {
		return InvalidInputError{FieldName: filesFieldNameConstant, Message: requiredValueMessageConstant}
	}
	arguments := append([]string{gitAddSubcommandConstant, gitArgumentTerminatorConstant}, files...)
	_, executionError := manager.run(executionContext, repositoryPath, arguments...)
	return executionError
}

// Commit records the staged changes using the provided identity.
func (manager *RepositoryManager) Commit(executionContext context.Context, repositoryPath string, options CommitOptions) error {
	if err := requireValue(repositoryPathFieldNameConstant, repositoryPath); err != nil {
		return err
	}
	if err := requireValue(messageFieldNameConstant, options.Message); err != nil {
		return err
	}
	if err := options.Identity.Validate(); err != nil {
		return err
	}

	arguments := append(options.Identity.configurationArguments(), gitCommitSubcommandConstant)
	if options.SignOff {
		arguments = append(arguments, gitSignOffFlagConstant)
	}
	arguments = append(arguments, gitMessageFlagConstant, options.Message)

	_, executionError := manager.run(executionContext, repositoryPath, arguments...)
	return executionError
}

// CreateTag creates an annotated tag at HEAD using the provided identity as tagger.
func (manager *RepositoryManager) CreateTag(executionContext context.Context, repositoryPath string, options TagOptions) error {
	if err := requireValue(repositoryPathFieldNameConstant, repositoryPath); err != nil {
		return err
	}
	if err := requireValue(tagNameFieldNameConstant, options.Name); err != nil {
		return err
	}
	if err := requireValue(messageFieldNameConstant, options.Message); err != nil {
		return err
	}
	if err := options.Identity.Validate(); err != nil {
		return err
	}

	arguments := append(options.Identity.configurationArguments(), gitTagSubcommandConstant, gitAnnotateFlagConstant, options.Name, gitMessageFlagConstant, options.Message)
	_, executionError := manager.run(executionContext, repositoryPath, arguments...)
	return executionError
}

// LocalTagExists reports whether the tag exists in the local repository.
func (manager *RepositoryManager) LocalTagExists(executionContext context.Context, repositoryPath string, tagName string) (bool, error) {
	if err := requireValue(repositoryPathFieldNameConstant, repositoryPath); err != nil {
		return false, err
	}
	if err := requireValue(tagNameFieldNameConstant, tagName); err != nil {
		return false, err
	}
	_, executionError := manager.run(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitQuietFlagConstant, gitVerifyFlagConstant, fmt.Sprintf(gitTagReferenceTemplate, tagName))
	if executionError != nil {
		if exitedWithCode(executionError, gitVerifyMissingExitCodeConstant) {
			return false, nil
		}
		return false, executionError
	}
	return true, nil
}

// RemoteTagExists reports whether the remote already advertises the tag.
func (manager *RepositoryManager) RemoteTagExists(executionContext context.Context, repositoryPath string, remoteName string, tagName string) (bool, error) {
	if err := requireValue(repositoryPathFieldNameConstant, repositoryPath); err != nil {
		return false, err
	}
	if err := requireValue(remoteNameFieldNameConstant, remoteName); err != nil {
		return false, err
	}
	if err := requireValue(tagNameFieldNameConstant, tagName); err != nil {
		return false, err
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, gitLSRemoteSubcommandConstant, gitTagsFlagConstant, remoteName, fmt.Sprintf(gitTagReferenceTemplate, tagName))
	if executionError != nil {
		return false, executionError
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) > 0, nil
}

// PushTag pushes a single tag without force; the remote rejects an existing tag.
func (manager *RepositoryManager) PushTag(executionContext context.Context, repositoryPath string, remoteName string, tagName string) error {
	if err := requireValue(repositoryPathFieldNameConstant, repositoryPath); err != nil {
		return err
	}
	if err := requireValue(remoteNameFieldNameConstant, remoteName); err != nil {
		return err
	}
	if err := requireValue(tagNameFieldNameConstant, tagName); err != nil {
		return err
	}
	_, executionError := manager.run(executionContext, repositoryPath, gitPushSubcommandConstant, remoteName, fmt.Sprintf(gitTagReferenceTemplate, tagName))
	return executionError
}

// CreateBranch creates and checks out a new branch at HEAD, carrying working tree changes along.
func (manager *RepositoryManager) CreateBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	if err := requireValue(repositoryPathFieldNameConstant, repositoryPath); err != nil {
		return err
	}
	if err := requireValue(branchNameFieldNameConstant, branchName); err != nil {
		return err
	}
	_, executionError := manager.run(executionContext, repositoryPath, gitCheckoutSubcommandConstant, gitNewBranchFlagConstant, branchName)
	return executionError
}

// PushBranch publishes the local branch under the same name on the remote.
func (manager *RepositoryManager) PushBranch(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error {
	if err := requireValue(repositoryPathFieldNameConstant, repositoryPath); err != nil {
		return err
	}
	if err := requireValue(remoteNameFieldNameConstant, remoteName); err != nil {
		return err
	}
	if err := requireValue(branchNameFieldNameConstant, branchName); err != nil {
		return err
	}
	_, executionError := manager.run(executionContext, repositoryPath, gitPushSubcommandConstant, remoteName, fmt.Sprintf(gitBranchReferenceTemplate, branchName))
	return executionError
}

// GetRemoteURL returns the configured URL of the remote.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	if err := requireValue(repositoryPathFieldNameConstant, repositoryPath); err != nil {
		return "", err
	}
	if err := requireValue(remoteNameFieldNameConstant, remoteName); err != nil {
		return "", err
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitGetURLSubcommandConstant, remoteName)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

func (manager *RepositoryManager) run(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	return manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
}

func requireValue(fieldName string, value string) error {
	if len(strings.TrimSpace(value)) == 0 {
		return InvalidInputError{FieldName: fieldName, Message: requiredValueMessageConstant}
	}
	return nil
}

func exitedWithCode(executionError error, exitCode int) bool {
	var failedError execshell.CommandFailedError
	if !errors.As(executionError, &failedError) {
		return false
	}
	return failedError.Result.ExitCode == exitCode
}
