package versionfiles

import (
	"fmt"
	"strings"
)

const (
	patternNotFoundErrorTemplateConstant  = "%s: no line matches %s"
	ambiguousPatternErrorTemplateConstant = "%s: %d lines match %s (lines %s)"
	invalidVersionErrorTemplateConstant   = "invalid version %q for %s: %s"
	fileAccessErrorTemplateConstant       = "unable to %s %s: %v"
	lineNumberSeparatorConstant           = ", "
)

// PatternNotFoundError reports a file that has no line carrying the expected assignment.
type PatternNotFoundError struct {
	Path    string
	Pattern string
}

// Error describes the missing line.
func (patternError PatternNotFoundError) Error() string {
	return fmt.Sprintf(patternNotFoundErrorTemplateConstant, patternError.Path, patternError.Pattern)
}

// AmbiguousPatternError reports a file that carries the expected assignment more than once.
type AmbiguousPatternError struct {
	Path        string
	Pattern     string
	LineNumbers []int
}

// Error describes the duplicate lines.
func (patternError AmbiguousPatternError) Error() string {
	lineLabels := make([]string, 0, len(patternError.LineNumbers))
	for _, lineNumber := range patternError.LineNumbers {
		lineLabels = append(lineLabels, fmt.Sprint(lineNumber))
	}
	return fmt.Sprintf(ambiguousPatternErrorTemplateConstant, patternError.Path, len(patternError.LineNumbers), patternError.Pattern, strings.Join(lineLabels, lineNumberSeparatorConstant))
}

// InvalidVersionError reports a version string that cannot be written into a file format.
type InvalidVersionError struct {
	Path    string
	Version string
	Reason  string
}

// Error describes the rejected version.
func (versionError InvalidVersionError) Error() string {
	return fmt.Sprintf(invalidVersionErrorTemplateConstant, versionError.Version, versionError.Path, versionError.Reason)
}

// FileAccessError wraps a filesystem failure while reading or writing a version file.
type FileAccessError struct {
	Operation string
	Path      string
	Cause     error
}

// Error describes the filesystem failure.
func (accessError FileAccessError) Error() string {
	return fmt.Sprintf(fileAccessErrorTemplateConstant, accessError.Operation, accessError.Path, accessError.Cause)
}

// Unwrap exposes the underlying filesystem error.
func (accessError FileAccessError) Unwrap() error {
	return accessError.Cause
}
