package releasecut

import (
	"errors"
	"fmt"

	"github.com/temirov/cutrelease/internal/versionfiles"
)

const (
	invalidInputErrorTemplateConstant      = "invalid %s %q: %s"
	stepErrorTemplateConstant              = "%s step failed (%s failure): %v"
	tagAlreadyExistsErrorTemplateConstant  = "tag %s already exists %s; refusing to overwrite an existing release"
	tagLocationRemoteTemplateConstant      = "on remote %s"
	tagLocationLocalConstant               = "in the local repository"
	nextVersionErrorTemplateConstant       = "release %s was cut and tag %s pushed, but the next development version was not proposed: %v"
	dirtyWorktreeErrorTemplateConstant     = "working tree %s has uncommitted changes"
	notRepositoryErrorTemplateConstant     = "%s is not a git working tree"
	unresolvedRepositoryErrorTemplate      = "unable to derive the GitHub repository from remote %s (%s); configure github_repository explicitly"
	pullRequestExistsErrorTemplateConstant = "an open pull request already exists for branch %s: %s"
	serviceDependenciesMessageConstant     = "release cut service requires a repository manager, GitHub client, and command executor"
)

// FailureClass groups step failures by the kind of collaborator that failed.
type FailureClass string

// Failure classes.
const (
	FailureClassInput       FailureClass = FailureClass("input")
	FailureClassEnvironment FailureClass = FailureClass("environment")
	FailureClassFilePattern FailureClass = FailureClass("file_pattern")
	FailureClassVCS         FailureClass = FailureClass("vcs")
	FailureClassPullRequest FailureClass = FailureClass("pull_request")
)

// ErrServiceDependenciesMissing indicates the service was constructed without its collaborators.
var ErrServiceDependenciesMissing = errors.New(serviceDependenciesMessageConstant)

// InvalidInputError reports a rejected option before any step runs.
type InvalidInputError struct {
	FieldName string
	Value     string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Value, inputError.Message)
}

// StepError reports the step that stopped the pipeline.
type StepError struct {
	Step  StepName
	Class FailureClass
	Cause error
}

// Error describes the failed step.
func (stepError StepError) Error() string {
	return fmt.Sprintf(stepErrorTemplateConstant, stepError.Step, stepError.Class, stepError.Cause)
}

// Unwrap exposes the step failure cause.
func (stepError StepError) Unwrap() error {
	return stepError.Cause
}

// TagAlreadyExistsError reports a release tag that is already present.
type TagAlreadyExistsError struct {
	TagName    string
	RemoteName string
}

// Error describes the existing tag.
func (tagError TagAlreadyExistsError) Error() string {
	location := tagLocationLocalConstant
	if len(tagError.RemoteName) > 0 {
		location = fmt.Sprintf(tagLocationRemoteTemplateConstant, tagError.RemoteName)
	}
	return fmt.Sprintf(tagAlreadyExistsErrorTemplateConstant, tagError.TagName, location)
}

// NextVersionError reports a failure after the release tag was pushed.
// The release itself stays cut; Result describes what was published.
type NextVersionError struct {
	Result Result
	Cause  error
}

// Error describes the partial outcome.
func (nextVersionError NextVersionError) Error() string {
	return fmt.Sprintf(nextVersionErrorTemplateConstant, nextVersionError.Result.ReleaseVersion, nextVersionError.Result.TagName, nextVersionError.Cause)
}

// Unwrap exposes the failed step.
func (nextVersionError NextVersionError) Unwrap() error {
	return nextVersionError.Cause
}

// DirtyWorktreeError reports a local repository with uncommitted changes.
type DirtyWorktreeError struct {
	RepositoryPath string
}

// Error describes the dirty working tree.
func (worktreeError DirtyWorktreeError) Error() string {
	return fmt.Sprintf(dirtyWorktreeErrorTemplateConstant, worktreeError.RepositoryPath)
}

// NotRepositoryError reports a repository path outside any git working tree.
type NotRepositoryError struct {
	RepositoryPath string
}

// Error describes the missing repository.
func (repositoryError NotRepositoryError) Error() string {
	return fmt.Sprintf(notRepositoryErrorTemplateConstant, repositoryError.RepositoryPath)
}

// UnresolvedRepositoryError reports a remote whose GitHub repository cannot be derived.
type UnresolvedRepositoryError struct {
	RemoteName string
	RemoteURL  string
	Cause      error
}

// Error describes the unresolved remote.
func (repositoryError UnresolvedRepositoryError) Error() string {
	return fmt.Sprintf(unresolvedRepositoryErrorTemplate, repositoryError.RemoteName, repositoryError.RemoteURL)
}

// Unwrap exposes the parse failure.
func (repositoryError UnresolvedRepositoryError) Unwrap() error {
	return repositoryError.Cause
}

// PullRequestExistsError reports an open pull request already proposing the release branch.
type PullRequestExistsError struct {
	BranchName     string
	PullRequestURL string
}

// Error describes the duplicate pull request.
func (pullRequestError PullRequestExistsError) Error() string {
	return fmt.Sprintf(pullRequestExistsErrorTemplateConstant, pullRequestError.BranchName, pullRequestError.PullRequestURL)
}

func classifyFailure(stepName StepName, failure error) FailureClass {
	if isFilePatternFailure(failure) {
		return FailureClassFilePattern
	}
	failureClass, known := stepFailureClasses[stepName]
	if !known {
		return FailureClassEnvironment
	}
	return failureClass
}

func isFilePatternFailure(failure error) bool {
	var patternNotFoundError versionfiles.PatternNotFoundError
	var ambiguousPatternError versionfiles.AmbiguousPatternError
	var invalidVersionError versionfiles.InvalidVersionError
	var fileAccessError versionfiles.FileAccessError
	return errors.As(failure, &patternNotFoundError) ||
		errors.As(failure, &ambiguousPatternError) ||
		errors.As(failure, &invalidVersionError) ||
		errors.As(failure, &fileAccessError)
}
