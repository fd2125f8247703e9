package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	startTemplateConstant                = "%s %s in %s"
	successTemplateConstant              = "%s %s in %s"
	failureTemplateConstant              = "Failed to %s %s in %s (exit code %d%s)"
	executionFailureTemplateConstant     = "Unable to %s %s in %s: %s"
	genericStartTemplateConstant         = "Running %s"
	genericSuccessTemplateConstant       = "Completed %s"
	genericFailureTemplateConstant       = "%s failed with exit code %d%s"
	genericExecutionFailureTemplate      = "%s failed: %s"
	workingDirectorySuffixTemplate       = " (in %s)"
	standardErrorSuffixTemplateConstant  = ": %s"
	quotedValueTemplateConstant          = "%q"
	tagReferenceTemplateConstant         = "tag %s"
	branchReferenceTemplateConstant      = "branch %s"
	referenceToRemoteTemplateConstant    = "%s to %s"
	referenceOnRemoteTemplateConstant    = "%s on %s"
	cloneSourceAtReferenceTemplate       = "%s at %s"
	pullRequestHeadToBaseTemplate        = "%s into %s for %s"
	pullRequestHeadForRepositoryTemplate = "pull requests from %s for %s"
	unknownFailureMessageConstant        = "unknown error"
	defaultWorkingDirectoryLabelConstant = "current directory"
	fallbackUnknownValueLabelConstant    = "unknown"
	emptyStringConstant                  = ""
	argumentsSeparatorConstant           = " "
)

const (
	gitConfigOverrideFlagConstant     = "-c"
	gitDirectoryFlagConstant          = "-C"
	gitCloneSubcommandConstant        = "clone"
	gitAddSubcommandConstant          = "add"
	gitCommitSubcommandConstant       = "commit"
	gitTagSubcommandConstant          = "tag"
	gitPushSubcommandConstant         = "push"
	gitLSRemoteSubcommandConstant     = "ls-remote"
	gitCheckoutSubcommandConstant     = "checkout"
	gitMessageFlagConstant            = "-m"
	gitBranchFlagConstant             = "--branch"
	gitNewBranchFlagConstant          = "-b"
	gitArgumentTerminatorConstant     = "--"
	gitTagReferencePrefixConstant     = "refs/tags/"
	gitBranchReferencePrefixConstant  = "refs/heads/"
	githubPullRequestSubcommand       = "pr"
	githubRepoSubcommand              = "repo"
	githubCreateSubcommand            = "create"
	githubListSubcommand              = "list"
	githubViewSubcommand              = "view"
	githubRepoFlagConstant            = "--repo"
	githubBaseFlagConstant            = "--base"
	githubHeadFlagConstant            = "--head"
	flagPrefixConstant                = "-"
	gitSubcommandSearchStartIndex     = 0
	githubRepoViewRepositoryArgument  = 2
	gitCloneSourceMinimumArgumentSize = 2
)

// commandDescription names an action in three grammatical forms plus its object.
type commandDescription struct {
	progressive string
	completed   string
	infinitive  string
	object      string
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a command that exited with code zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that exited with a non-zero code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing a command that could not be executed.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	var description commandDescription
	var described bool
	switch command.Name {
	case CommandGit:
		description, described = formatter.describeGitCommand(command.Details.Arguments)
	case CommandGitHub:
		description, described = formatter.describeGitHubCommand(command.Details.Arguments)
	}

	if !described {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplateConstant, description.progressive, description.object, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplateConstant, description.completed, description.object, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplateConstant, description.infinitive, description.object, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(executionFailureTemplateConstant, description.infinitive, description.object, workingDirectory, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) describeGitCommand(arguments []string) (commandDescription, bool) {
	subcommandIndex := formatter.locateGitSubcommand(arguments)
	if subcommandIndex < 0 {
		return commandDescription{}, false
	}
	subcommandArguments := arguments[subcommandIndex+1:]

	switch strings.TrimSpace(arguments[subcommandIndex]) {
	case gitCloneSubcommandConstant:
		positional := formatter.positionalArguments(subcommandArguments, gitBranchFlagConstant)
		object := formatter.ensureValue(formatter.argumentAtIndex(positional, 0))
		if reference := findFlagValue(subcommandArguments, gitBranchFlagConstant); len(reference) > 0 {
			object = fmt.Sprintf(cloneSourceAtReferenceTemplate, object, reference)
		}
		if len(positional) < gitCloneSourceMinimumArgumentSize {
			return commandDescription{progressive: "Cloning", completed: "Cloned", infinitive: "clone", object: object}, true
		}
		return commandDescription{progressive: "Cloning", completed: "Cloned", infinitive: "clone", object: object + " into " + positional[1]}, true
	case gitAddSubcommandConstant:
		paths := formatter.positionalArguments(subcommandArguments)
		return commandDescription{progressive: "Staging", completed: "Staged", infinitive: "stage", object: formatter.ensureValue(strings.Join(paths, argumentsSeparatorConstant))}, true
	case gitCommitSubcommandConstant:
		message := fmt.Sprintf(quotedValueTemplateConstant, findFlagValue(subcommandArguments, gitMessageFlagConstant))
		return commandDescription{progressive: "Committing", completed: "Committed", infinitive: "commit", object: message}, true
	case gitTagSubcommandConstant:
		tagName := formatter.ensureValue(formatter.argumentAtIndex(formatter.positionalArguments(subcommandArguments, gitMessageFlagConstant), 0))
		return commandDescription{progressive: "Creating", completed: "Created", infinitive: "create", object: fmt.Sprintf(tagReferenceTemplateConstant, tagName)}, true
	case gitPushSubcommandConstant:
		positional := formatter.positionalArguments(subcommandArguments)
		remoteName := formatter.ensureValue(formatter.argumentAtIndex(positional, 0))
		reference := formatter.describeReference(formatter.argumentAtIndex(positional, 1))
		return commandDescription{progressive: "Pushing", completed: "Pushed", infinitive: "push", object: fmt.Sprintf(referenceToRemoteTemplateConstant, reference, remoteName)}, true
	case gitLSRemoteSubcommandConstant:
		positional := formatter.positionalArguments(subcommandArguments)
		remoteName := formatter.ensureValue(formatter.argumentAtIndex(positional, 0))
		reference := formatter.describeReference(formatter.argumentAtIndex(positional, 1))
		return commandDescription{progressive: "Looking up", completed: "Looked up", infinitive: "look up", object: fmt.Sprintf(referenceOnRemoteTemplateConstant, reference, remoteName)}, true
	case gitCheckoutSubcommandConstant:
		branchName := findFlagValue(subcommandArguments, gitNewBranchFlagConstant)
		if len(branchName) == 0 {
			return commandDescription{}, false
		}
		return commandDescription{progressive: "Creating", completed: "Created", infinitive: "create", object: fmt.Sprintf(branchReferenceTemplateConstant, branchName)}, true
	default:
		return commandDescription{}, false
	}
}

func (formatter CommandMessageFormatter) describeGitHubCommand(arguments []string) (commandDescription, bool) {
	if len(arguments) < 2 {
		return commandDescription{}, false
	}

	primary := strings.TrimSpace(arguments[0])
	secondary := strings.TrimSpace(arguments[1])
	repository := formatter.ensureValue(findFlagValue(arguments, githubRepoFlagConstant))

	switch {
	case primary == githubPullRequestSubcommand && secondary == githubCreateSubcommand:
		head := formatter.ensureValue(findFlagValue(arguments, githubHeadFlagConstant))
		base := formatter.ensureValue(findFlagValue(arguments, githubBaseFlagConstant))
		return commandDescription{progressive: "Opening", completed: "Opened", infinitive: "open", object: "pull request from " + fmt.Sprintf(pullRequestHeadToBaseTemplate, head, base, repository)}, true
	case primary == githubPullRequestSubcommand && secondary == githubListSubcommand:
		head := formatter.ensureValue(findFlagValue(arguments, githubHeadFlagConstant))
		return commandDescription{progressive: "Listing", completed: "Listed", infinitive: "list", object: fmt.Sprintf(pullRequestHeadForRepositoryTemplate, head, repository)}, true
	case primary == githubRepoSubcommand && secondary == githubViewSubcommand:
		repositoryIdentifier := formatter.ensureValue(formatter.argumentAtIndex(arguments, githubRepoViewRepositoryArgument))
		return commandDescription{progressive: "Retrieving", completed: "Retrieved", infinitive: "retrieve", object: "repository details for " + repositoryIdentifier}, true
	default:
		return commandDescription{}, false
	}
}

// locateGitSubcommand skips global options such as -c key=value and -C path.
func (formatter CommandMessageFormatter) locateGitSubcommand(arguments []string) int {
	for argumentIndex := gitSubcommandSearchStartIndex; argumentIndex < len(arguments); argumentIndex++ {
		trimmedArgument := strings.TrimSpace(arguments[argumentIndex])
		if trimmedArgument == gitConfigOverrideFlagConstant || trimmedArgument == gitDirectoryFlagConstant {
			argumentIndex++
			continue
		}
		if strings.HasPrefix(trimmedArgument, flagPrefixConstant) {
			return -1
		}
		return argumentIndex
	}
	return -1
}

// positionalArguments drops flags, and the values of flags listed in valueFlags.
func (formatter CommandMessageFormatter) positionalArguments(arguments []string, valueFlags ...string) []string {
	positional := make([]string, 0, len(arguments))
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		trimmedArgument := strings.TrimSpace(arguments[argumentIndex])
		if trimmedArgument == gitArgumentTerminatorConstant {
			continue
		}
		if containsArgument(valueFlags, trimmedArgument) {
			argumentIndex++
			continue
		}
		if strings.HasPrefix(trimmedArgument, flagPrefixConstant) {
			continue
		}
		positional = append(positional, trimmedArgument)
	}
	return positional
}

func (formatter CommandMessageFormatter) describeReference(reference string) string {
	trimmedReference := strings.TrimSpace(reference)
	switch {
	case strings.HasPrefix(trimmedReference, gitTagReferencePrefixConstant):
		return fmt.Sprintf(tagReferenceTemplateConstant, strings.TrimPrefix(trimmedReference, gitTagReferencePrefixConstant))
	case strings.HasPrefix(trimmedReference, gitBranchReferencePrefixConstant):
		return fmt.Sprintf(branchReferenceTemplateConstant, strings.TrimPrefix(trimmedReference, gitBranchReferencePrefixConstant))
	default:
		return formatter.ensureValue(trimmedReference)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplate, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := describeCommand(command)
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return commandLabel
	}
	return commandLabel + fmt.Sprintf(workingDirectorySuffixTemplate, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return emptyStringConstant
	}
	return strings.TrimSpace(arguments[index])
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmedValue
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flag string) string {
	for argumentIndex := 0; argumentIndex < len(arguments)-1; argumentIndex++ {
		if strings.TrimSpace(arguments[argumentIndex]) == flag {
			return strings.TrimSpace(arguments[argumentIndex+1])
		}
	}
	return emptyStringConstant
}
