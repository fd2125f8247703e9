// Package utils holds the ambient plumbing shared by cutrelease commands.
//
// ConfigurationLoader layers embedded defaults, configuration files, and
// CUTRELEASE_* environment variables through Viper. LoggerFactory builds the
// zap diagnostic and console loggers. CommandContextAccessor passes values from
// the root command to subcommands, and FlushingWriter keeps command output
// visible when the process exits early.
package utils
