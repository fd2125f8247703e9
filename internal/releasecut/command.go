package releasecut

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/cutrelease/internal/execshell"
	"github.com/temirov/cutrelease/internal/githubauth"
	"github.com/temirov/cutrelease/internal/githubcli"
	"github.com/temirov/cutrelease/internal/gitrepo"
	"github.com/temirov/cutrelease/internal/ui"
	"github.com/temirov/cutrelease/internal/utils"
	flagutils "github.com/temirov/cutrelease/internal/utils/flags"
)

const (
	commandUseNameConstant              = "cut"
	flagReadErrorTemplateConstant       = "unable to read --%s: %w"
	commandShortDescriptionConstant     = "Tag a release and propose the next development version"
	commandLongDescriptionConstant      = "cut rewrites the version files for the release version, commits and tags the result as v<release>, pushes the tag, then rewrites the build version files to <next>-SNAPSHOT on releases/<release> and opens a pull request. Once the tag is pushed the release is cut; later failures are reported but never rolled back. A --repository-url clone is removed unless its release tag was pushed."
	commandExampleConstant              = "cutrelease cut --release-version 2.4.0 --next-version 2.5.0\ncutrelease cut --release-version 2.4.0 --next-version 2.5.0 --repository-url https://github.com/owner/example.git --ref main --dry-run"
	releaseVersionFlagName              = "release-version"
	releaseVersionFlagUsage             = "Version to release, tagged as v<version>"
	nextVersionFlagName                 = "next-version"
	nextVersionFlagUsage                = "Next development version, written with the development marker"
	repositoryFlagName                  = "repository"
	repositoryFlagUsage                 = "Path of a local clean working tree (defaults to the current directory)"
	repositoryURLFlagName               = "repository-url"
	repositoryURLFlagUsage              = "Clone this repository into a fresh workspace instead of using a local working tree"
	referenceFlagName                   = "ref"
	referenceFlagUsage                  = "Branch or tag to check out when cloning"
	workspaceFlagName                   = "workspace"
	workspaceFlagUsage                  = "Directory that receives fresh clones (defaults to the system temporary directory)"
	remoteFlagName                      = "remote"
	remoteFlagUsage                     = "Remote that receives the tag and the development branch"
	baseFlagName                        = "base"
	baseFlagUsage                       = "Pull request base branch (defaults to the repository default branch)"
	gitHubRepositoryFlagName            = "github-repository"
	gitHubRepositoryFlagUsage           = "GitHub repository as owner/name when it cannot be derived from the remote"
	identityNameFlagName                = "identity-name"
	identityNameFlagUsage               = "Committer name for release commits and tags"
	identityEmailFlagName               = "identity-email"
	identityEmailFlagUsage              = "Committer email for release commits and tags"
	developmentMarkerFlagName           = "development-marker"
	developmentMarkerFlagUsage          = "Suffix appended to the next version"
	dryRunFlagName                      = "dry-run"
	dryRunFlagUsage                     = "Report the planned changes without writing, committing, tagging, or pushing"
	strictSemanticVersionFlagName       = "strict-semver"
	strictSemanticVersionFlagUsage      = "Require semantic versions with the next version after the release version"
	outputFlagName                      = "output"
	outputFlagUsage                     = "Summary format."
	logMessageConfigurationFileConstant = "release configuration resolved"
	logFieldConfigurationFileConstant   = "config_file"
	logFieldRepositoryConstant          = "repository"
	logFieldRepositoryURLConstant       = "repository_url"
	logMessageTokenSourceConstant       = "github token resolved"
	logMessageTokenMissingConstant      = "no github token in environment, relying on gh login"
	logFieldTokenSourceConstant         = "token_source"
)

// CommandBuilder assembles the cut command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConsoleLoggerProvider        LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	CommandRunner                execshell.CommandRunner
	TokenLookup                  githubauth.EnvironmentLookup
}

// Build constructs the cut command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseNameConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		Args:    cobra.NoArgs,
		RunE:    builder.run,
	}

	flagSet := command.Flags()
	flagSet.String(releaseVersionFlagName, "", releaseVersionFlagUsage)
	flagSet.String(nextVersionFlagName, "", nextVersionFlagUsage)
	flagSet.String(repositoryFlagName, "", repositoryFlagUsage)
	flagSet.String(repositoryURLFlagName, "", repositoryURLFlagUsage)
	flagSet.String(referenceFlagName, "", referenceFlagUsage)
	flagSet.String(workspaceFlagName, "", workspaceFlagUsage)
	flagSet.String(remoteFlagName, DefaultRemoteName, remoteFlagUsage)
	flagSet.String(baseFlagName, "", baseFlagUsage)
	flagSet.String(gitHubRepositoryFlagName, "", gitHubRepositoryFlagUsage)
	flagSet.String(identityNameFlagName, DefaultIdentityName, identityNameFlagUsage)
	flagSet.String(identityEmailFlagName, DefaultIdentityEmail, identityEmailFlagUsage)
	flagSet.String(developmentMarkerFlagName, "", developmentMarkerFlagUsage)
	flagutils.AddToggleFlag(flagSet, dryRunFlagName, false, dryRunFlagUsage)
	flagutils.AddToggleFlag(flagSet, strictSemanticVersionFlagName, false, strictSemanticVersionFlagUsage)
	flagSet.String(outputFlagName, string(OutputFormatText), flagutils.FormatChoiceUsage(string(OutputFormatText), outputFormatChoices(), outputFlagUsage))

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration, overrideError := builder.applyFlagOverrides(command, builder.resolveConfiguration())
	if overrideError != nil {
		return overrideError
	}

	outputChoice, outputError := flagutils.ResolveChoice(outputFlagName, configuration.OutputFormat, string(OutputFormatText), outputFormatChoices())
	if outputError != nil {
		return outputError
	}
	outputFormat := OutputFormat(outputChoice)

	logger := resolveLogger(builder.LoggerProvider)
	configurationFilePath, _ := utils.NewCommandContextAccessor().ConfigurationFilePath(command.Context())
	logger.Debug(logMessageConfigurationFileConstant,
		zap.String(logFieldConfigurationFileConstant, configurationFilePath),
		zap.String(logFieldRepositoryConstant, configuration.RepositoryPath),
		zap.String(logFieldRepositoryURLConstant, configuration.RepositoryURL),
	)

	service, serviceError := builder.buildService(logger)
	if serviceError != nil {
		return serviceError
	}

	releaseVersion, releaseFlagError := stringFlagValue(command, releaseVersionFlagName)
	if releaseFlagError != nil {
		return releaseFlagError
	}
	nextVersion, nextFlagError := stringFlagValue(command, nextVersionFlagName)
	if nextFlagError != nil {
		return nextFlagError
	}
	result, releaseError := service.CutRelease(command.Context(), configuration.Options(releaseVersion, nextVersion))

	var inputError InvalidInputError
	if errors.As(releaseError, &inputError) {
		return releaseError
	}
	if renderError := result.Render(utils.NewFlushingWriter(command.OutOrStdout()), outputFormat); renderError != nil && releaseError == nil {
		return renderError
	}
	return releaseError
}

func (builder *CommandBuilder) buildService(logger *zap.Logger) (*Service, error) {
	commandRunner := builder.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}

	executorOptions := make([]execshell.ExecutorOption, 0, 1)
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(resolveLogger(builder.ConsoleLoggerProvider))))
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner, executorOptions...)
	if executorError != nil {
		return nil, executorError
	}
	repositoryManager, managerError := gitrepo.NewRepositoryManager(shellExecutor)
	if managerError != nil {
		return nil, managerError
	}

	clientOptions := make([]githubcli.ClientOption, 0, 1)
	if token, found := githubauth.ResolveToken(builder.TokenLookup); found {
		logger.Debug(logMessageTokenSourceConstant, zap.String(logFieldTokenSourceConstant, token.Source))
		clientOptions = append(clientOptions, githubcli.WithAuthenticationToken(token.Value))
	} else {
		logger.Debug(logMessageTokenMissingConstant)
	}

	gitHubClient, clientError := githubcli.NewClient(shellExecutor, clientOptions...)
	if clientError != nil {
		return nil, clientError
	}

	return NewService(ServiceDependencies{
		RepositoryManager: repositoryManager,
		GitHubClient:      gitHubClient,
		CommandExecutor:   shellExecutor,
		Logger:            logger,
	})
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

// applyFlagOverrides replaces configured values with explicitly set flags.
// An explicit --repository-url clears a configured repository path and vice versa.
func (builder *CommandBuilder) applyFlagOverrides(command *cobra.Command, configuration CommandConfiguration) (CommandConfiguration, error) {
	overridden := configuration
	stringOverrides := map[string]*string{
		repositoryFlagName:        &overridden.RepositoryPath,
		repositoryURLFlagName:     &overridden.RepositoryURL,
		referenceFlagName:         &overridden.Reference,
		workspaceFlagName:         &overridden.WorkspaceDirectory,
		remoteFlagName:            &overridden.RemoteName,
		baseFlagName:              &overridden.BaseBranch,
		gitHubRepositoryFlagName:  &overridden.GitHubRepository,
		identityNameFlagName:      &overridden.Identity.Name,
		identityEmailFlagName:     &overridden.Identity.Email,
		developmentMarkerFlagName: &overridden.DevelopmentMarker,
		outputFlagName:            &overridden.OutputFormat,
	}
	for flagName, target := range stringOverrides {
		if !command.Flags().Changed(flagName) {
			continue
		}
		flagValue, flagError := stringFlagValue(command, flagName)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		*target = flagValue
	}

	if command.Flags().Changed(repositoryURLFlagName) && !command.Flags().Changed(repositoryFlagName) {
		overridden.RepositoryPath = ""
	}
	if command.Flags().Changed(repositoryFlagName) && !command.Flags().Changed(repositoryURLFlagName) {
		overridden.RepositoryURL = ""
		if !command.Flags().Changed(referenceFlagName) {
			overridden.Reference = ""
		}
	}

	toggleOverrides := map[string]*bool{
		dryRunFlagName:                &overridden.DryRun,
		strictSemanticVersionFlagName: &overridden.StrictSemanticVersions,
	}
	for flagName, target := range toggleOverrides {
		if !command.Flags().Changed(flagName) {
			continue
		}
		flagValue, flagError := command.Flags().GetBool(flagName)
		if flagError != nil {
			return CommandConfiguration{}, fmt.Errorf(flagReadErrorTemplateConstant, flagName, flagError)
		}
		*target = flagValue
	}
	return overridden.Sanitize(), nil
}

func stringFlagValue(command *cobra.Command, flagName string) (string, error) {
	flagValue, flagError := command.Flags().GetString(flagName)
	if flagError != nil {
		return "", fmt.Errorf(flagReadErrorTemplateConstant, flagName, flagError)
	}
	return strings.TrimSpace(flagValue), nil
}

func outputFormatChoices() []string {
	return []string{string(OutputFormatText), string(OutputFormatYAML)}
}
