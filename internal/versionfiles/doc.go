// Package versionfiles reads and rewrites the files that carry a repository's version.
//
// Each format has its own small parser and writer. StableVersionFile owns a
// single-line file. AssignmentFile owns one anchored assignment line inside a
// larger file and leaves every other line untouched. Set groups the three files
// of a release layout and applies the release and development rewrites to them
// as one unit: every file is rendered first and nothing is written unless all
// of them rendered successfully.
package versionfiles
