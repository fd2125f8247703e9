package releasecut

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/temirov/cutrelease/internal/versionfiles"
)

const (
	logMessageStepStartedConstant            = "release step started"
	logMessageStepCompletedConstant          = "release step completed"
	logMessageStepFailedConstant             = "release step failed"
	logMessageReleaseCutConstant             = "release tag published"
	logFieldStepConstant                     = "step"
	logFieldFailureClassConstant             = "failure_class"
	logFieldReleaseVersionConstant           = "release_version"
	logFieldTagConstant                      = "tag"
	logFieldRemoteConstant                   = "remote"
	logFieldDryRunConstant                   = "dry_run"
	logFieldStepDetailConstant               = "detail"
	logMessageWorkspaceRemovedConstant       = "clone workspace removed"
	logMessageWorkspaceRemovalFailedConstant = "unable to remove clone workspace"
	logFieldWorkspaceConstant                = "workspace"
)

// ServiceDependencies enumerates collaborators required by the release cut service.
type ServiceDependencies struct {
	RepositoryManager RepositoryManager
	GitHubClient      GitHubClient
	CommandExecutor   CommandExecutor
	Logger            *zap.Logger
	Steps             []Step
}

// Service runs the release cut pipeline.
type Service struct {
	repositoryManager RepositoryManager
	gitHubClient      GitHubClient
	commandExecutor   CommandExecutor
	logger            *zap.Logger
	steps             []Step
}

// NewService validates dependencies and constructs a Service. Without explicit
// steps the service runs DefaultSteps.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.RepositoryManager == nil || dependencies.GitHubClient == nil || dependencies.CommandExecutor == nil {
		return nil, ErrServiceDependenciesMissing
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	steps := dependencies.Steps
	if len(steps) == 0 {
		steps = DefaultSteps()
	}
	return &Service{
		repositoryManager: dependencies.RepositoryManager,
		gitHubClient:      dependencies.GitHubClient,
		commandExecutor:   dependencies.CommandExecutor,
		logger:            logger,
		steps:             append([]Step{}, steps...),
	}, nil
}

// CutRelease runs every step in order and stops at the first failure.
//
// A failure before the tag push returns StepError and leaves the remote
// untouched. A failure after the tag push returns NextVersionError: the
// release stays cut and nothing is rolled back.
//
// A clone workspace is removed unless the release tag was pushed.
func (service *Service) CutRelease(executionContext context.Context, options Options) (Result, error) {
	sanitizedOptions := options.Sanitize()
	if validationError := sanitizedOptions.Validate(); validationError != nil {
		return Result{}, validationError
	}

	versionSet := versionfiles.NewSet(sanitizedOptions.Layout, sanitizedOptions.DevelopmentMarker)
	environment := &Environment{
		RepositoryManager: service.repositoryManager,
		GitHubClient:      service.gitHubClient,
		CommandExecutor:   service.commandExecutor,
		VersionFiles:      versionSet,
		Options:           sanitizedOptions,
		Logger:            service.logger,
	}
	state := newState(sanitizedOptions)
	defer service.discardCloneWorkspace(state)
	reports := make([]StepReport, 0, len(service.steps))

	for stepIndex, step := range service.steps {
		stepName := step.Name()
		service.logger.Debug(logMessageStepStartedConstant, zap.String(logFieldStepConstant, string(stepName)))

		executionError := step.Execute(executionContext, environment, state)
		if executionError != nil {
			stepError := StepError{Step: stepName, Class: classifyFailure(stepName, executionError), Cause: executionError}
			service.logger.Warn(logMessageStepFailedConstant,
				zap.String(logFieldStepConstant, string(stepName)),
				zap.String(logFieldFailureClassConstant, string(stepError.Class)),
				zap.Error(executionError),
			)
			reports = append(reports, StepReport{Name: stepName, Status: StepStatusFailed, Detail: state.stepDetails[stepName], Error: executionError.Error()})
			for _, remainingStep := range service.steps[stepIndex+1:] {
				reports = append(reports, StepReport{Name: remainingStep.Name(), Status: StepStatusSkipped})
			}
			result := buildResult(sanitizedOptions, versionSet, state, reports)
			if state.ReleaseCut {
				return result, NextVersionError{Result: result, Cause: stepError}
			}
			return result, stepError
		}

		status := StepStatusCompleted
		if sanitizedOptions.DryRun {
			status = StepStatusPlanned
		}
		reports = append(reports, StepReport{Name: stepName, Status: status, Detail: state.stepDetails[stepName]})
		service.logger.Info(logMessageStepCompletedConstant,
			zap.String(logFieldStepConstant, string(stepName)),
			zap.String(logFieldStepDetailConstant, state.stepDetails[stepName]),
			zap.Bool(logFieldDryRunConstant, sanitizedOptions.DryRun),
		)
		if stepName == StepPushTag && state.ReleaseCut {
			service.logger.Info(logMessageReleaseCutConstant,
				zap.String(logFieldReleaseVersionConstant, sanitizedOptions.ReleaseVersion),
				zap.String(logFieldTagConstant, state.TagName),
				zap.String(logFieldRemoteConstant, sanitizedOptions.RemoteName),
			)
		}
	}

	return buildResult(sanitizedOptions, versionSet, state, reports), nil
}

func (service *Service) discardCloneWorkspace(state *State) {
	if state.ReleaseCut || len(state.CloneWorkspace) == 0 {
		return
	}
	if removalError := os.RemoveAll(state.CloneWorkspace); removalError != nil {
		service.logger.Warn(logMessageWorkspaceRemovalFailedConstant, zap.String(logFieldWorkspaceConstant, state.CloneWorkspace), zap.Error(removalError))
		return
	}
	service.logger.Debug(logMessageWorkspaceRemovedConstant, zap.String(logFieldWorkspaceConstant, state.CloneWorkspace))
}

func buildResult(options Options, versionSet *versionfiles.Set, state *State, reports []StepReport) Result {
	return Result{
		ReleaseVersion:     options.ReleaseVersion,
		NextVersion:        options.NextVersion,
		DevelopmentVersion: versionSet.DevelopmentVersion(options.NextVersion),
		Repository:         state.RepositoryIdentifier,
		RepositoryPath:     state.RepositoryPath,
		RemoteName:         options.RemoteName,
		TagName:            state.TagName,
		ReleaseCommit:      state.ReleaseCommit,
		BranchName:         state.BranchName,
		BaseBranch:         state.BaseBranch,
		DevelopmentCommit:  state.DevelopmentCommit,
		PullRequestURL:     state.PullRequestURL,
		ReleaseCut:         state.ReleaseCut,
		DryRun:             options.DryRun,
		Steps:              reports,
	}
}
