package releasecut

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"

	"github.com/temirov/cutrelease/internal/gitrepo"
	"github.com/temirov/cutrelease/internal/versionfiles"
)

const (
	// DefaultRemoteName is the remote that receives the release tag.
	DefaultRemoteName = "origin"

	releaseVersionFieldNameConstant    = "release version"
	nextVersionFieldNameConstant       = "next version"
	repositoryFieldNameConstant        = "repository"
	referenceFieldNameConstant         = "ref"
	developmentMarkerFieldNameConstant = "development marker"
	requiredValueMessageConstant       = "value required"
	whitespaceMessageConstant          = "must not contain whitespace or control characters"
	forbiddenCharacterMessageTemplate  = "must not contain any of "
	forbiddenSequenceMessageTemplate   = "must not contain "
	forbiddenPrefixMessageConstant     = "must not start with '-' or '.'"
	forbiddenSuffixMessageConstant     = "must not end with '.' or '.lock'"
	exclusiveRepositoryMessageConstant = "set either a repository path or a repository url, not both"
	referenceWithoutCloneMessage       = "a ref can only be checked out when cloning from a repository url"
	strictSemanticVersionMessage       = "is not a strict semantic version"
	nextVersionOrderingMessageConstant = "must be greater than the release version"
	forbiddenReferenceCharacters       = "~^:?*[\\/"
	forbiddenDoubleDotSequence         = ".."
	forbiddenReflogSequence            = "@{"
	forbiddenLeadingCharacters         = "-."
	forbiddenTrailingDotSuffix         = "."
	forbiddenLockSuffix                = ".lock"
	defaultRepositoryPathConstant      = "."
	releaseTagPrefixConstant           = "v"
	releaseBranchPrefixConstant        = "releases/"
	releaseCommitMessagePrefixConstant = "Update version for release "
	releaseTagMessagePrefixConstant    = "Release "
	developmentCommitMessageConstant   = "Update development versions"
	pullRequestTitlePrefixConstant     = "Update development version to "
	pullRequestBodyHeaderConstant      = "Automated changes by cutrelease."
	pullRequestBodyReleaseNoteTemplate = "Release %s was tagged as %s. This pull request moves the build to %s."
	pullRequestBodyParagraphSeparator  = "\n\n"
	pullRequestBodyTrailingNewline     = "\n"
	developmentMarkerSeparatorConstant = "-"
)

// Options configures a single release cut.
type Options struct {
	ReleaseVersion         string
	NextVersion            string
	RepositoryPath         string
	RepositoryURL          string
	Reference              string
	WorkspaceDirectory     string
	RemoteName             string
	BaseBranch             string
	GitHubRepository       string
	Identity               gitrepo.Identity
	Layout                 versionfiles.Layout
	DevelopmentMarker      string
	StrictSemanticVersions bool
	DryRun                 bool
}

// Sanitize trims the options and applies defaults for the remote, repository path, layout, and marker.
func (options Options) Sanitize() Options {
	sanitized := options
	sanitized.ReleaseVersion = strings.TrimSpace(options.ReleaseVersion)
	sanitized.NextVersion = strings.TrimSpace(options.NextVersion)
	sanitized.RepositoryPath = strings.TrimSpace(options.RepositoryPath)
	sanitized.RepositoryURL = strings.TrimSpace(options.RepositoryURL)
	sanitized.Reference = strings.TrimSpace(options.Reference)
	sanitized.WorkspaceDirectory = strings.TrimSpace(options.WorkspaceDirectory)
	sanitized.RemoteName = strings.TrimSpace(options.RemoteName)
	sanitized.BaseBranch = strings.TrimSpace(options.BaseBranch)
	sanitized.GitHubRepository = strings.TrimSpace(options.GitHubRepository)
	sanitized.Identity = gitrepo.Identity{Name: strings.TrimSpace(options.Identity.Name), Email: strings.TrimSpace(options.Identity.Email)}
	sanitized.Layout = options.Layout.Sanitize()
	sanitized.DevelopmentMarker = strings.TrimSpace(options.DevelopmentMarker)

	if len(sanitized.RemoteName) == 0 {
		sanitized.RemoteName = DefaultRemoteName
	}
	if len(sanitized.RepositoryURL) > 0 {
		sanitized.RemoteName = DefaultRemoteName
	}
	if len(sanitized.DevelopmentMarker) == 0 {
		sanitized.DevelopmentMarker = versionfiles.DefaultDevelopmentMarker
	}
	return sanitized
}

// Validate checks the sanitized options. Versions must be non-empty and usable
// inside a git ref name; strict mode additionally requires semantic versions
// with the next version ordered after the release version.
func (options Options) Validate() error {
	if err := validateVersionInput(releaseVersionFieldNameConstant, options.ReleaseVersion); err != nil {
		return err
	}
	if err := validateVersionInput(nextVersionFieldNameConstant, options.NextVersion); err != nil {
		return err
	}
	if err := validateVersionInput(developmentMarkerFieldNameConstant, strings.TrimPrefix(options.DevelopmentMarker, developmentMarkerSeparatorConstant)); err != nil {
		return err
	}
	if len(options.RepositoryPath) > 0 && len(options.RepositoryURL) > 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Value: options.RepositoryURL, Message: exclusiveRepositoryMessageConstant}
	}
	if len(options.Reference) > 0 && len(options.RepositoryURL) == 0 {
		return InvalidInputError{FieldName: referenceFieldNameConstant, Value: options.Reference, Message: referenceWithoutCloneMessage}
	}

	if !options.StrictSemanticVersions {
		return nil
	}

	releaseVersion, parseError := semver.StrictNewVersion(options.ReleaseVersion)
	if parseError != nil {
		return InvalidInputError{FieldName: releaseVersionFieldNameConstant, Value: options.ReleaseVersion, Message: strictSemanticVersionMessage}
	}
	nextVersion, parseError := semver.StrictNewVersion(options.NextVersion)
	if parseError != nil {
		return InvalidInputError{FieldName: nextVersionFieldNameConstant, Value: options.NextVersion, Message: strictSemanticVersionMessage}
	}
	if !nextVersion.GreaterThan(releaseVersion) {
		return InvalidInputError{FieldName: nextVersionFieldNameConstant, Value: options.NextVersion, Message: nextVersionOrderingMessageConstant}
	}
	return nil
}

// CloneMode reports whether the release is cut from a fresh clone.
func (options Options) CloneMode() bool {
	return len(options.RepositoryURL) > 0
}

func (options Options) localRepositoryPath() string {
	if len(options.RepositoryPath) == 0 {
		return defaultRepositoryPathConstant
	}
	return options.RepositoryPath
}

func validateVersionInput(fieldName string, value string) error {
	if len(value) == 0 {
		return InvalidInputError{FieldName: fieldName, Value: value, Message: requiredValueMessageConstant}
	}
	for _, character := range value {
		if unicode.IsSpace(character) || unicode.IsControl(character) {
			return InvalidInputError{FieldName: fieldName, Value: value, Message: whitespaceMessageConstant}
		}
	}
	if strings.ContainsAny(value, forbiddenReferenceCharacters) {
		return InvalidInputError{FieldName: fieldName, Value: value, Message: forbiddenCharacterMessageTemplate + forbiddenReferenceCharacters}
	}
	for _, forbiddenSequence := range []string{forbiddenDoubleDotSequence, forbiddenReflogSequence} {
		if strings.Contains(value, forbiddenSequence) {
			return InvalidInputError{FieldName: fieldName, Value: value, Message: forbiddenSequenceMessageTemplate + forbiddenSequence}
		}
	}
	if strings.ContainsAny(value[:1], forbiddenLeadingCharacters) {
		return InvalidInputError{FieldName: fieldName, Value: value, Message: forbiddenPrefixMessageConstant}
	}
	if strings.HasSuffix(value, forbiddenTrailingDotSuffix) || strings.HasSuffix(value, forbiddenLockSuffix) {
		return InvalidInputError{FieldName: fieldName, Value: value, Message: forbiddenSuffixMessageConstant}
	}
	return nil
}

// TagName returns the release tag for a version.
func TagName(releaseVersion string) string {
	return releaseTagPrefixConstant + releaseVersion
}

// BranchName returns the branch that carries the development version change.
func BranchName(releaseVersion string) string {
	return releaseBranchPrefixConstant + releaseVersion
}

// ReleaseCommitMessage returns the message of the release commit.
func ReleaseCommitMessage(releaseVersion string) string {
	return releaseCommitMessagePrefixConstant + releaseVersion
}

// TagMessage returns the annotation of the release tag.
func TagMessage(releaseVersion string) string {
	return releaseTagMessagePrefixConstant + releaseVersion
}

// PullRequestTitle returns the title of the development version pull request.
func PullRequestTitle(nextVersion string) string {
	return pullRequestTitlePrefixConstant + nextVersion
}

// PullRequestBody returns the body of the development version pull request.
func PullRequestBody(releaseVersion string, developmentVersion string) string {
	releaseNote := fmt.Sprintf(pullRequestBodyReleaseNoteTemplate, releaseVersion, TagName(releaseVersion), developmentVersion)
	return pullRequestBodyHeaderConstant + pullRequestBodyParagraphSeparator + releaseNote + pullRequestBodyTrailingNewline
}
