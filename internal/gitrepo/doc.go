// Package gitrepo runs the git operations a release cut needs.
//
// RepositoryManager clones, inspects, commits, tags, and pushes through an
// execshell-compatible executor. Commit-producing calls receive an explicit
// Identity that is applied with scoped -c overrides, so no git configuration
// file is ever modified. ParseRemoteURL derives the owner/repository pair
// used by the GitHub CLI from a remote URL.
package gitrepo
