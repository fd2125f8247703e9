package gitrepo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/cutrelease/internal/gitrepo"
)

func TestParseRemoteURL(testInstance *testing.T) {
	testCases := []struct {
		name               string
		input              string
		expectedProtocol   gitrepo.RemoteProtocol
		expectedHost       string
		expectedIdentifier string
		expectError        bool
	}{
		{
			name:               "scp_style_ssh",
			input:              "git@github.com:owner/example.git",
			expectedProtocol:   gitrepo.RemoteProtocolSSH,
			expectedHost:       "github.com",
			expectedIdentifier: "owner/example",
		},
		{
			name:               "ssh_scheme",
			input:              "ssh://git@github.com/owner/example.git",
			expectedProtocol:   gitrepo.RemoteProtocolSSH,
			expectedHost:       "github.com",
			expectedIdentifier: "owner/example",
		},
		{
			name:               "https_without_suffix",
			input:              "https://github.com/owner/example",
			expectedProtocol:   gitrepo.RemoteProtocolHTTPS,
			expectedHost:       "github.com",
			expectedIdentifier: "owner/example",
		},
		{
			name:               "https_with_trailing_slash",
			input:              " https://github.com/owner/example.git/ ",
			expectedProtocol:   gitrepo.RemoteProtocolHTTPS,
			expectedHost:       "github.com",
			expectedIdentifier: "owner/example",
		},
		{
			name:        "empty",
			input:       "  ",
			expectError: true,
		},
		{
			name:        "local_path",
			input:       "/tmp/remote.git",
			expectError: true,
		},
		{
			name:        "https_nested_path",
			input:       "https://github.com/owner/group/example.git",
			expectError: true,
		},
		{
			name:        "missing_repository",
			input:       "git@github.com:owner/.git",
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			remote, parseError := gitrepo.ParseRemoteURL(testCase.input)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				require.IsType(testInstance, gitrepo.RemoteURLParseError{}, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedProtocol, remote.Protocol)
			require.Equal(testInstance, testCase.expectedHost, remote.Host)
			require.Equal(testInstance, testCase.expectedIdentifier, remote.RepositoryIdentifier())
		})
	}
}
