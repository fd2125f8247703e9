package githubauth

import (
	"os"
	"strings"
)

// Environment variables consulted for a GitHub token, in preference order.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// Token is a resolved credential and the variable it came from.
type Token struct {
	Value  string
	Source string
}

// EnvironmentLookup reads a variable the way os.LookupEnv does.
type EnvironmentLookup func(key string) (string, bool)

// ResolveToken returns the first non-blank token found through lookup.
// A nil lookup reads the process environment.
func ResolveToken(lookup EnvironmentLookup) (Token, bool) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range tokenPreference {
		value, exists := lookup(key)
		if !exists {
			continue
		}
		trimmedValue := strings.TrimSpace(value)
		if len(trimmedValue) == 0 {
			continue
		}
		return Token{Value: trimmedValue, Source: key}, true
	}
	return Token{}, false
}

// MapLookup adapts a fixed map to EnvironmentLookup.
func MapLookup(environment map[string]string) EnvironmentLookup {
	return func(key string) (string, bool) {
		value, exists := environment[key]
		return value, exists
	}
}
