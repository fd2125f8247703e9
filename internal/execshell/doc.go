// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with zap logging and lifecycle
// observers, OSCommandRunner executes processes through os/exec, and the
// typed errors distinguish commands that ran and failed from commands that
// could not be started at all. The release pipeline runs every git and gh
// invocation through this package so it can be replaced in tests.
package execshell
