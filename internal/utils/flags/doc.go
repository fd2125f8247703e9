// Package flags provides Cobra flag helpers for choice and toggle values.
package flags
