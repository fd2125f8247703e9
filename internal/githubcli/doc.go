// Package githubcli wraps the GitHub CLI for release automation.
//
// It layers typed request and response structures over gh repo view, gh pr
// list and gh pr create, and runs them through execshell so interactions with
// GitHub can be stubbed during testing.
package githubcli
