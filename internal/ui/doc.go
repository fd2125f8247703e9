// Package ui renders command lifecycle events for people watching a release
// cut in a terminal. Structured telemetry keeps flowing through the
// diagnostic logger; this package only adds the readable narration.
package ui
