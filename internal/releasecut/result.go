package releasecut

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	resultIndentationConstant          = 2
	textHeaderTemplateConstant         = "Release %s (next %s)\n"
	textDryRunHeaderTemplateConstant   = "Release %s (next %s), dry run\n"
	textFieldTemplateConstant          = "  %-20s %s\n"
	textStepTemplateConstant           = "  [%-9s] %-17s %s"
	textStepsHeaderConstant            = "Steps:\n"
	textReleaseCutLabelConstant        = "release cut:"
	textRepositoryLabelConstant        = "repository:"
	textPathLabelConstant              = "path:"
	textTagLabelConstant               = "tag:"
	textReleaseCommitLabelConstant     = "release commit:"
	textBranchLabelConstant            = "branch:"
	textBaseLabelConstant              = "base:"
	textDevelopmentCommitLabelConstant = "development commit:"
	textPullRequestLabelConstant       = "pull request:"
	textDevelopmentLabelConstant       = "development version:"
	textYesConstant                    = "yes"
	textNoConstant                     = "no"
	textPaddingConstant                = " "
	textLineBreakConstant              = "\n"
)

// StepStatus describes how a step ended.
type StepStatus string

// Step statuses.
const (
	StepStatusCompleted StepStatus = StepStatus("completed")
	StepStatusPlanned   StepStatus = StepStatus("planned")
	StepStatusFailed    StepStatus = StepStatus("failed")
	StepStatusSkipped   StepStatus = StepStatus("skipped")
)

// OutputFormat selects how a Result is rendered.
type OutputFormat string

// Output formats.
const (
	OutputFormatText OutputFormat = OutputFormat("text")
	OutputFormatYAML OutputFormat = OutputFormat("yaml")
)

// StepReport records the outcome of one step.
type StepReport struct {
	Name   StepName   `yaml:"name"`
	Status StepStatus `yaml:"status"`
	Detail string     `yaml:"detail,omitempty"`
	Error  string     `yaml:"error,omitempty"`
}

// Result summarizes a release cut. ReleaseCut is true once the tag reached the remote.
type Result struct {
	ReleaseVersion     string       `yaml:"release_version"`
	NextVersion        string       `yaml:"next_version"`
	DevelopmentVersion string       `yaml:"development_version"`
	Repository         string       `yaml:"repository,omitempty"`
	RepositoryPath     string       `yaml:"repository_path,omitempty"`
	RemoteName         string       `yaml:"remote"`
	TagName            string       `yaml:"tag"`
	ReleaseCommit      string       `yaml:"release_commit,omitempty"`
	BranchName         string       `yaml:"branch"`
	BaseBranch         string       `yaml:"base_branch,omitempty"`
	DevelopmentCommit  string       `yaml:"development_commit,omitempty"`
	PullRequestURL     string       `yaml:"pull_request_url,omitempty"`
	ReleaseCut         bool         `yaml:"release_cut"`
	DryRun             bool         `yaml:"dry_run"`
	Steps              []StepReport `yaml:"steps"`
}

// Render writes the result in the requested format.
func (result Result) Render(writer io.Writer, format OutputFormat) error {
	if format == OutputFormatYAML {
		return result.WriteYAML(writer)
	}
	return result.WriteText(writer)
}

// WriteYAML encodes the result as a YAML document.
func (result Result) WriteYAML(writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(resultIndentationConstant)
	if encodeError := encoder.Encode(result); encodeError != nil {
		return encodeError
	}
	return encoder.Close()
}

// WriteText renders a human-readable summary.
func (result Result) WriteText(writer io.Writer) error {
	var builder strings.Builder
	headerTemplate := textHeaderTemplateConstant
	if result.DryRun {
		headerTemplate = textDryRunHeaderTemplateConstant
	}
	builder.WriteString(fmt.Sprintf(headerTemplate, result.ReleaseVersion, result.NextVersion))

	releaseCutLabel := textNoConstant
	if result.ReleaseCut {
		releaseCutLabel = textYesConstant
	}
	writeTextField(&builder, textReleaseCutLabelConstant, releaseCutLabel)
	writeTextField(&builder, textRepositoryLabelConstant, result.Repository)
	writeTextField(&builder, textPathLabelConstant, result.RepositoryPath)
	writeTextField(&builder, textTagLabelConstant, result.TagName)
	writeTextField(&builder, textReleaseCommitLabelConstant, result.ReleaseCommit)
	writeTextField(&builder, textDevelopmentLabelConstant, result.DevelopmentVersion)
	writeTextField(&builder, textBranchLabelConstant, result.BranchName)
	writeTextField(&builder, textBaseLabelConstant, result.BaseBranch)
	writeTextField(&builder, textDevelopmentCommitLabelConstant, result.DevelopmentCommit)
	writeTextField(&builder, textPullRequestLabelConstant, result.PullRequestURL)

	builder.WriteString(textStepsHeaderConstant)
	for _, stepReport := range result.Steps {
		detail := stepReport.Detail
		if len(stepReport.Error) > 0 {
			detail = stepReport.Error
		}
		builder.WriteString(strings.TrimRight(fmt.Sprintf(textStepTemplateConstant, stepReport.Status, stepReport.Name, detail), textPaddingConstant))
		builder.WriteString(textLineBreakConstant)
	}

	_, writeError := io.WriteString(writer, builder.String())
	return writeError
}

func writeTextField(builder *strings.Builder, label string, value string) {
	if len(value) == 0 {
		return
	}
	builder.WriteString(fmt.Sprintf(textFieldTemplateConstant, label, value))
}
