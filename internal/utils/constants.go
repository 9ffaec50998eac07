package utils

// Configuration file constants used across the project.
const (
	// ConfigFileName is the name of the YAML configuration file.
	ConfigFileName = "config.yaml"
	// GlobalConfigDirectoryName is the directory under the home directory holding global configuration.
	GlobalConfigDirectoryName = ".arbor"
	// IgnoreFileName is the name of the optional ignore rules file in the walk root.
	IgnoreFileName = ".arborignore"
	// EnvironmentFileName is the dotenv file loaded from the working directory.
	EnvironmentFileName = ".env"
	// EnvironmentPrefix prefixes every environment variable override.
	EnvironmentPrefix = "ARBOR"
)

// Application lifecycle messages.
const (
	// LoggerInitializationFailedMessageFormat reports a logger that could not be built.
	LoggerInitializationFailedMessageFormat = "initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes a fatal command error.
	ApplicationExecutionFailedMessage = "arbor failed"
	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"
)
