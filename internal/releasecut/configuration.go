package releasecut

import (
	"strings"

	"github.com/temirov/cutrelease/internal/gitrepo"
	pathutils "github.com/temirov/cutrelease/internal/utils/path"
	"github.com/temirov/cutrelease/internal/versionfiles"
)

var releaseConfigurationHomeDirectoryExpander = pathutils.NewHomeExpander()

const (
	// DefaultIdentityName is the committer name used when none is configured.
	DefaultIdentityName = "github-actions[bot]"
	// DefaultIdentityEmail is the committer email used when none is configured.
	DefaultIdentityEmail = "41898282+github-actions[bot]@users.noreply.github.com"

	configurationKeySeparator                 = "."
	configurationRepositoryKeyConstant        = "repository"
	configurationRepositoryURLKeyConstant     = "repository_url"
	configurationReferenceKeyConstant         = "ref"
	configurationWorkspaceKeyConstant         = "workspace"
	configurationRemoteKeyConstant            = "remote"
	configurationBaseKeyConstant              = "base"
	configurationGitHubRepositoryKeyConstant  = "github_repository"
	configurationIdentityKeyConstant          = "identity"
	configurationIdentityNameKeyConstant      = "name"
	configurationIdentityEmailKeyConstant     = "email"
	configurationFilesKeyConstant             = "files"
	configurationStableVersionKeyConstant     = "stable_version"
	configurationLanguageVersionKeyConstant   = "language_version"
	configurationBuildVersionKeyConstant      = "build_version"
	configurationDevelopmentMarkerKeyConstant = "development_marker"
	configurationStrictSemanticVersionKey     = "strict_semver"
	configurationDryRunKeyConstant            = "dry_run"
	configurationOutputKeyConstant            = "output"
)

// IdentityConfiguration names the committer recorded on release commits and tags.
type IdentityConfiguration struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

// CommandConfiguration captures the persisted settings of the cut command.
type CommandConfiguration struct {
	RepositoryPath         string                `mapstructure:"repository"`
	RepositoryURL          string                `mapstructure:"repository_url"`
	Reference              string                `mapstructure:"ref"`
	WorkspaceDirectory     string                `mapstructure:"workspace"`
	RemoteName             string                `mapstructure:"remote"`
	BaseBranch             string                `mapstructure:"base"`
	GitHubRepository       string                `mapstructure:"github_repository"`
	Identity               IdentityConfiguration `mapstructure:"identity"`
	Files                  versionfiles.Layout   `mapstructure:"files"`
	DevelopmentMarker      string                `mapstructure:"development_marker"`
	StrictSemanticVersions bool                  `mapstructure:"strict_semver"`
	DryRun                 bool                  `mapstructure:"dry_run"`
	OutputFormat           string                `mapstructure:"output"`
}

// DefaultCommandConfiguration returns the baseline cut settings.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RemoteName: DefaultRemoteName,
		Identity: IdentityConfiguration{
			Name:  DefaultIdentityName,
			Email: DefaultIdentityEmail,
		},
		Files:             versionfiles.DefaultLayout(),
		DevelopmentMarker: versionfiles.DefaultDevelopmentMarker,
		OutputFormat:      string(OutputFormatText),
	}
}

// DefaultConfigurationValues produces Viper defaults for the cut command under rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	prefix := rootKey + configurationKeySeparator
	identityPrefix := prefix + configurationIdentityKeyConstant + configurationKeySeparator
	filesPrefix := prefix + configurationFilesKeyConstant + configurationKeySeparator
	return map[string]any{
		prefix + configurationRepositoryKeyConstant:            defaults.RepositoryPath,
		prefix + configurationRepositoryURLKeyConstant:         defaults.RepositoryURL,
		prefix + configurationReferenceKeyConstant:             defaults.Reference,
		prefix + configurationWorkspaceKeyConstant:             defaults.WorkspaceDirectory,
		prefix + configurationRemoteKeyConstant:                defaults.RemoteName,
		prefix + configurationBaseKeyConstant:                  defaults.BaseBranch,
		prefix + configurationGitHubRepositoryKeyConstant:      defaults.GitHubRepository,
		identityPrefix + configurationIdentityNameKeyConstant:  defaults.Identity.Name,
		identityPrefix + configurationIdentityEmailKeyConstant: defaults.Identity.Email,
		filesPrefix + configurationStableVersionKeyConstant:    defaults.Files.StableVersionPath,
		filesPrefix + configurationLanguageVersionKeyConstant:  defaults.Files.LanguageVersionPath,
		filesPrefix + configurationBuildVersionKeyConstant:     defaults.Files.BuildVersionPath,
		prefix + configurationDevelopmentMarkerKeyConstant:     defaults.DevelopmentMarker,
		prefix + configurationStrictSemanticVersionKey:         defaults.StrictSemanticVersions,
		prefix + configurationDryRunKeyConstant:                defaults.DryRun,
		prefix + configurationOutputKeyConstant:                defaults.OutputFormat,
	}
}

// Sanitize trims values, expands home-relative paths, and restores defaults for blank entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration
	sanitized.RepositoryPath = releaseConfigurationHomeDirectoryExpander.ExpandOrEmpty(configuration.RepositoryPath)
	sanitized.RepositoryURL = strings.TrimSpace(configuration.RepositoryURL)
	sanitized.Reference = strings.TrimSpace(configuration.Reference)
	sanitized.WorkspaceDirectory = releaseConfigurationHomeDirectoryExpander.ExpandOrEmpty(configuration.WorkspaceDirectory)
	sanitized.RemoteName = valueOrDefault(configuration.RemoteName, defaults.RemoteName)
	sanitized.BaseBranch = strings.TrimSpace(configuration.BaseBranch)
	sanitized.GitHubRepository = strings.TrimSpace(configuration.GitHubRepository)
	sanitized.Identity = IdentityConfiguration{
		Name:  valueOrDefault(configuration.Identity.Name, defaults.Identity.Name),
		Email: valueOrDefault(configuration.Identity.Email, defaults.Identity.Email),
	}
	sanitized.Files = configuration.Files.Sanitize()
	sanitized.DevelopmentMarker = valueOrDefault(configuration.DevelopmentMarker, defaults.DevelopmentMarker)
	sanitized.OutputFormat = strings.ToLower(valueOrDefault(configuration.OutputFormat, defaults.OutputFormat))
	return sanitized
}

// Options converts the configuration into release options for the given versions.
func (configuration CommandConfiguration) Options(releaseVersion string, nextVersion string) Options {
	return Options{
		ReleaseVersion:         releaseVersion,
		NextVersion:            nextVersion,
		RepositoryPath:         configuration.RepositoryPath,
		RepositoryURL:          configuration.RepositoryURL,
		Reference:              configuration.Reference,
		WorkspaceDirectory:     configuration.WorkspaceDirectory,
		RemoteName:             configuration.RemoteName,
		BaseBranch:             configuration.BaseBranch,
		GitHubRepository:       configuration.GitHubRepository,
		Identity:               gitrepo.Identity{Name: configuration.Identity.Name, Email: configuration.Identity.Email},
		Layout:                 configuration.Files,
		DevelopmentMarker:      configuration.DevelopmentMarker,
		StrictSemanticVersions: configuration.StrictSemanticVersions,
		DryRun:                 configuration.DryRun,
	}
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}
