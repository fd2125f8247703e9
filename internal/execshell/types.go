package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	commandGitNameConstant                  = "git"
	commandGitHubNameConstant               = "gh"
	loggerNotConfiguredMessageConstant      = "shell executor requires a logger"
	runnerNotConfiguredMessageConstant      = "shell executor requires a command runner"
	commandFailedWithoutMessageTemplate     = "%s exited with code %d"
	commandExecutionWithoutMessageTemplate  = "%s could not be executed: %v"
	commandArgumentsSeparatorConstant       = " "
	commandLabelWithArgumentsTemplateString = "%s %s"
)

// CommandName identifies an executable supported by the shell executor.
type CommandName string

// Supported executables.
const (
	CommandGit    CommandName = CommandName(commandGitNameConstant)
	CommandGitHub CommandName = CommandName(commandGitHubNameConstant)
)

// CommandDetails describes the arguments and environment of a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable output of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner runs a shell command and reports its result.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

var (
	// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
	ErrCommandRunnerNotConfigured = errors.New(runnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that ran and exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command together with its standard error output.
func (failedError CommandFailedError) Error() string {
	message := CommandMessageFormatter{}.BuildFailureMessage(failedError.Command, failedError.Result)
	if len(message) == 0 {
		return fmt.Sprintf(commandFailedWithoutMessageTemplate, describeCommand(failedError.Command), failedError.Result.ExitCode)
	}
	return message
}

// CommandExecutionError reports a command that could not be started or was interrupted.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	message := CommandMessageFormatter{}.BuildExecutionFailureMessage(executionError.Command, executionError.Cause)
	if len(message) == 0 {
		return fmt.Sprintf(commandExecutionWithoutMessageTemplate, describeCommand(executionError.Command), executionError.Cause)
	}
	return message
}

// Unwrap exposes the underlying execution failure.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

func describeCommand(command ShellCommand) string {
	if len(command.Details.Arguments) == 0 {
		return string(command.Name)
	}
	return fmt.Sprintf(commandLabelWithArgumentsTemplateString, command.Name, strings.Join(command.Details.Arguments, commandArgumentsSeparatorConstant))
}
