package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testConfigurationContentConstant  = "common:\n  log_level: error\n  log_format: console\nrelease:\n  remote: upstream\n  base: develop\n  files:\n    build_version: build/version.sbt\n"
	testVersionExitSentinelConstant   = "version-exit"
)

func writeConfigurationFile(testInstance *testing.T, content string) string {
	testInstance.Helper()
	configurationPath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(content), 0o600))
	return configurationPath
}

func TestApplicationRegistersCutCommand(testInstance *testing.T) {
	application := NewApplication()

	cutCommand, _, findError := application.rootCommand.Find([]string{"cut"})
	require.NoError(testInstance, findError)
	require.Equal(testInstance, "cut", cutCommand.Name())
	require.NotNil(testInstance, cutCommand.Flags().Lookup("release-version"))
	require.NotNil(testInstance, cutCommand.InheritedFlags().Lookup(configFileFlagNameConstant))
}

func TestInitializeConfigurationLoadsReleaseSection(testInstance *testing.T) {
	application := NewApplication()
	application.configurationFilePath = writeConfigurationFile(testInstance, testConfigurationContentConstant)

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	releaseConfiguration := application.configuration.Release.Sanitize()
	require.Equal(testInstance, "upstream", releaseConfiguration.RemoteName)
	require.Equal(testInstance, "develop", releaseConfiguration.BaseBranch)
	require.Equal(testInstance, "build/version.sbt", releaseConfiguration.Files.BuildVersionPath)
	require.Equal(testInstance, "stable-version.txt", releaseConfiguration.Files.StableVersionPath)
	require.Equal(testInstance, "-SNAPSHOT", releaseConfiguration.DevelopmentMarker)
	require.True(testInstance, application.humanReadableLoggingEnabled())

	configurationFilePath, available := application.commandContextAccessor.ConfigurationFilePath(application.rootCommand.Context())
	require.True(testInstance, available)
	require.Equal(testInstance, application.configurationFilePath, configurationFilePath)
}

func TestInitializeConfigurationHonorsEnvironmentAndFlags(testInstance *testing.T) {
	testInstance.Setenv("CUTRELEASE_RELEASE_BASE", "trunk")
	testInstance.Setenv("CUTRELEASE_RELEASE_DRY_RUN", "true")
	application := NewApplication()
	application.configurationFilePath = writeConfigurationFile(testInstance, testConfigurationContentConstant)
	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(logFormatFlagNameConstant, "structured"))

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	require.Equal(testInstance, "trunk", application.configuration.Release.BaseBranch)
	require.True(testInstance, application.configuration.Release.DryRun)
	require.Equal(testInstance, "structured", application.configuration.Common.LogFormat)
	require.False(testInstance, application.humanReadableLoggingEnabled())
}

func TestInitializeConfigurationRejectsInvalidSettings(testInstance *testing.T) {
	testCases := []struct {
		name                  string
		configurationFilePath func(testInstance *testing.T) string
	}{
		{
			name: "missing_explicit_file",
			configurationFilePath: func(testInstance *testing.T) string {
				return filepath.Join(testInstance.TempDir(), "absent.yaml")
			},
		},
		{
			name: "unsupported_log_level",
			configurationFilePath: func(testInstance *testing.T) string {
				return writeConfigurationFile(testInstance, "common:\n  log_level: verbose\n")
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			application := NewApplication()
			application.configurationFilePath = testCase.configurationFilePath(testInstance)
			require.Error(testInstance, application.initializeConfiguration(application.rootCommand))
		})
	}
}

func TestApplicationVersionFlagPrintsVersionAndExits(testInstance *testing.T) {
	application := NewApplication()
	application.versionResolver = func(_ context.Context) string {
		return "v2.0.0"
	}
	exitCode := -1
	application.exitFunction = func(code int) {
		exitCode = code
		panic(testVersionExitSentinelConstant)
	}

	var outputBuffer bytes.Buffer
	application.rootCommand.SetOut(&outputBuffer)
	application.rootCommand.SetArgs([]string{"--version"})

	require.PanicsWithValue(testInstance, testVersionExitSentinelConstant, func() {
		_ = application.Execute()
	})
	require.Equal(testInstance, "cutrelease version: v2.0.0\n", outputBuffer.String())
	require.Equal(testInstance, 0, exitCode)
}

func TestResolveApplicationVersionFallsBackToDevelopment(testInstance *testing.T) {
	require.NotEmpty(testInstance, resolveApplicationVersion(context.Background()))
}
