package cli

import (
	"errors"

	"github.com/temirov/cutrelease/internal/releasecut"
)

const (
	exitCodeSuccessConstant    = 0
	exitCodeFailureConstant    = 1
	exitCodeReleaseCutConstant = 2
)

// ExitCode maps an execution error to the process exit status. A release that
// was cut but whose next development version was not proposed exits with 2 so
// automation can tell it apart from a release that never happened.
func ExitCode(executionError error) int {
	if executionError == nil {
		return exitCodeSuccessConstant
	}
	var nextVersionError releasecut.NextVersionError
	if errors.As(executionError, &nextVersionError) {
		return exitCodeReleaseCutConstant
	}
	return exitCodeFailureConstant
}
