package versionfiles

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	lineSeparatorConstant              = "\n"
	carriageReturnConstant             = "\r"
	assignmentNameSeparatorPattern     = `\s*`
	assignmentPatternTemplatePrefix    = "^"
	assignmentValueGroupPrefixConstant = "([^"
	assignmentValueGroupSuffixConstant = "\\r\\n]*)"
	assignmentRemainderGroupConstant   = "(.*)$"
	assignmentPartSeparatorConstant    = " "
	assignmentValuePlaceholderConstant = "<value>"
	readOperationConstant              = "read"
	writeOperationConstant             = "write"
	inspectOperationConstant           = "inspect"
	emptyVersionReasonConstant         = "version is empty"
	lineBreakVersionReasonConstant     = "version contains a line break"
	whitespaceVersionReasonConstant    = "version contains whitespace"
	quoteVersionReasonTemplate         = "version contains the quote character "
	emptyStableVersionPatternConstant  = "<version>"
	languageAssignmentNameConstant     = "VERSION"
	languageAssignmentOperatorConstant = "="
	languageAssignmentQuoteConstant    = "'"
	buildAssignmentNameConstant        = "ThisBuild / version"
	buildAssignmentOperatorConstant    = ":="
	buildAssignmentQuoteConstant       = `"`
	assignmentMatchGroupCountConstant  = 3
	assignmentValueGroupIndexConstant  = 1
	assignmentRemainderIndexConstant   = 2
)

// File is a version-bearing file inside a repository.
type File interface {
	// RelativePath returns the slash-separated path relative to the repository root.
	RelativePath() string
	// Render returns the file content with the version replaced.
	Render(content []byte, version string) ([]byte, error)
	// Extract returns the version currently recorded in the content.
	Extract(content []byte) (string, error)
}

// StableVersionFile holds nothing but the released version on a single line.
type StableVersionFile struct {
	Path string
}

// RelativePath returns the file location.
func (file StableVersionFile) RelativePath() string {
	return file.Path
}

// Render replaces the whole content with the version and a trailing newline.
func (file StableVersionFile) Render(_ []byte, version string) ([]byte, error) {
	if err := validateVersion(file.Path, version); err != nil {
		return nil, err
	}
	if strings.ContainsAny(version, " \t") {
		return nil, InvalidVersionError{Path: file.Path, Version: version, Reason: whitespaceVersionReasonConstant}
	}
	return []byte(version + lineSeparatorConstant), nil
}

// Extract returns the first line of the content.
func (file StableVersionFile) Extract(content []byte) (string, error) {
	firstLine, _, _ := strings.Cut(string(content), lineSeparatorConstant)
	version := strings.TrimSpace(firstLine)
	if len(version) == 0 {
		return "", PatternNotFoundError{Path: file.Path, Pattern: emptyStableVersionPatternConstant}
	}
	return version, nil
}

// Apply overwrites the existing file under root with the version.
func (file StableVersionFile) Apply(root string, version string) error {
	return applyFile(root, file, version)
}

// AssignmentFile owns the single line that assigns a quoted version literal,
// such as VERSION = '1.0.0'. Only lines that begin with the assignment name
// are considered, so MY_VERSION = '1' or a commented-out assignment never match.
type AssignmentFile struct {
	Path     string
	Name     string
	Operator string
	Quote    string
}

// NewLanguageVersionFile describes a VERSION = '<value>' declaration.
func NewLanguageVersionFile(path string) AssignmentFile {
	return AssignmentFile{Path: path, Name: languageAssignmentNameConstant, Operator: languageAssignmentOperatorConstant, Quote: languageAssignmentQuoteConstant}
}

// NewBuildVersionFile describes a ThisBuild / version := "<value>" declaration.
func NewBuildVersionFile(path string) AssignmentFile {
	return AssignmentFile{Path: path, Name: buildAssignmentNameConstant, Operator: buildAssignmentOperatorConstant, Quote: buildAssignmentQuoteConstant}
}

// RelativePath returns the file location.
func (file AssignmentFile) RelativePath() string {
	return file.Path
}

// Render rewrites the assignment line to its canonical form with the new
// version. Other lines, trailing text on the assignment line, and the
// original line endings are preserved.
func (file AssignmentFile) Render(content []byte, version string) ([]byte, error) {
	if err := validateVersion(file.Path, version); err != nil {
		return nil, err
	}
	if strings.Contains(version, file.Quote) {
		return nil, InvalidVersionError{Path: file.Path, Version: version, Reason: quoteVersionReasonTemplate + file.Quote}
	}

	lines := strings.Split(string(content), lineSeparatorConstant)
	lineIndex, submatches, locateError := file.locate(lines)
	if locateError != nil {
		return nil, locateError
	}

	lineEnding := ""
	if strings.HasSuffix(lines[lineIndex], carriageReturnConstant) {
		lineEnding = carriageReturnConstant
	}
	lines[lineIndex] = file.canonicalLine(version) + submatches[assignmentRemainderIndexConstant] + lineEnding
	return []byte(strings.Join(lines, lineSeparatorConstant)), nil
}

// Extract returns the quoted literal of the assignment line.
func (file AssignmentFile) Extract(content []byte) (string, error) {
	_, submatches, locateError := file.locate(strings.Split(string(content), lineSeparatorConstant))
	if locateError != nil {
		return "", locateError
	}
	return submatches[assignmentValueGroupIndexConstant], nil
}

// Apply rewrites the existing file under root with the version.
func (file AssignmentFile) Apply(root string, version string) error {
	return applyFile(root, file, version)
}

func (file AssignmentFile) locate(lines []string) (int, []string, error) {
	pattern := file.pattern()
	matchedIndex := -1
	var matchedSubmatches []string
	var matchedLineNumbers []int
	for lineIndex, line := range lines {
		submatches := pattern.FindStringSubmatch(strings.TrimSuffix(line, carriageReturnConstant))
		if len(submatches) != assignmentMatchGroupCountConstant {
			continue
		}
		matchedLineNumbers = append(matchedLineNumbers, lineIndex+1)
		matchedIndex = lineIndex
		matchedSubmatches = submatches
	}

	switch len(matchedLineNumbers) {
	case 0:
		return -1, nil, PatternNotFoundError{Path: file.Path, Pattern: file.describe()}
	case 1:
		return matchedIndex, matchedSubmatches, nil
	default:
		return -1, nil, AmbiguousPatternError{Path: file.Path, Pattern: file.describe(), LineNumbers: matchedLineNumbers}
	}
}

func (file AssignmentFile) pattern() *regexp.Regexp {
	nameParts := strings.Fields(file.Name)
	for partIndex := range nameParts {
		nameParts[partIndex] = regexp.QuoteMeta(nameParts[partIndex])
	}
	quote := regexp.QuoteMeta(file.Quote)

	var builder strings.Builder
	builder.WriteString(assignmentPatternTemplatePrefix)
	builder.WriteString(strings.Join(nameParts, assignmentNameSeparatorPattern))
	builder.WriteString(assignmentNameSeparatorPattern)
	builder.WriteString(regexp.QuoteMeta(file.Operator))
	builder.WriteString(assignmentNameSeparatorPattern)
	builder.WriteString(quote)
	builder.WriteString(assignmentValueGroupPrefixConstant)
	builder.WriteString(quote)
	builder.WriteString(assignmentValueGroupSuffixConstant)
	builder.WriteString(quote)
	builder.WriteString(assignmentRemainderGroupConstant)
	return regexp.MustCompile(builder.String())
}

func (file AssignmentFile) canonicalLine(version string) string {
	return strings.Join([]string{file.Name, file.Operator, file.Quote + version + file.Quote}, assignmentPartSeparatorConstant)
}

func (file AssignmentFile) describe() string {
	return file.canonicalLine(assignmentValuePlaceholderConstant)
}

func validateVersion(path string, version string) error {
	if len(strings.TrimSpace(version)) == 0 {
		return InvalidVersionError{Path: path, Version: version, Reason: emptyVersionReasonConstant}
	}
	if strings.ContainsAny(version, lineSeparatorConstant+carriageReturnConstant) {
		return InvalidVersionError{Path: path, Version: version, Reason: lineBreakVersionReasonConstant}
	}
	return nil
}

// Change is a rendered rewrite of one file that has not been written yet.
type Change struct {
	Path            string
	PreviousVersion string
	UpdatedVersion  string
	content         []byte
	mode            fs.FileMode
}

// Plan renders the rewrite of a file under root without writing it.
func Plan(root string, file File, version string) (Change, error) {
	absolutePath := resolvePath(root, file.RelativePath())
	fileInfo, statError := os.Stat(absolutePath)
	if statError != nil {
		return Change{}, FileAccessError{Operation: inspectOperationConstant, Path: file.RelativePath(), Cause: statError}
	}
	content, readError := os.ReadFile(absolutePath)
	if readError != nil {
		return Change{}, FileAccessError{Operation: readOperationConstant, Path: file.RelativePath(), Cause: readError}
	}

	previousVersion, extractError := file.Extract(content)
	if extractError != nil && !isMissingStableVersion(file, extractError) {
		return Change{}, extractError
	}

	updatedContent, renderError := file.Render(content, version)
	if renderError != nil {
		return Change{}, renderError
	}

	return Change{
		Path:            file.RelativePath(),
		PreviousVersion: previousVersion,
		UpdatedVersion:  version,
		content:         updatedContent,
		mode:            fileInfo.Mode().Perm(),
	}, nil
}

// Write persists planned changes under root and returns the paths it wrote.
func Write(root string, changes []Change) ([]string, error) {
	writtenPaths := make([]string, 0, len(changes))
	for _, change := range changes {
		if writeError := os.WriteFile(resolvePath(root, change.Path), change.content, change.mode); writeError != nil {
			return writtenPaths, FileAccessError{Operation: writeOperationConstant, Path: change.Path, Cause: writeError}
		}
		writtenPaths = append(writtenPaths, change.Path)
	}
	return writtenPaths, nil
}

// Read returns the version recorded in a file under root.
func Read(root string, file File) (string, error) {
	content, readError := os.ReadFile(resolvePath(root, file.RelativePath()))
	if readError != nil {
		return "", FileAccessError{Operation: readOperationConstant, Path: file.RelativePath(), Cause: readError}
	}
	return file.Extract(content)
}

func applyFile(root string, file File, version string) error {
	change, planError := Plan(root, file, version)
	if planError != nil {
		return planError
	}
	_, writeError := Write(root, []Change{change})
	return writeError
}

func resolvePath(root string, relativePath string) string {
	return filepath.Join(root, filepath.FromSlash(relativePath))
}

// An empty stable version file is still a valid rewrite target.
func isMissingStableVersion(file File, extractError error) bool {
	if _, isStable := file.(StableVersionFile); !isStable {
		return false
	}
	var patternError PatternNotFoundError
	return errors.As(extractError, &patternError)
}
