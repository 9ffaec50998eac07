package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tyemirov/arbor/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes configuration into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes configuration into the global configuration directory.
	InitTargetGlobal InitTarget = "global"

	defaultConfigurationTemplate = `tree:
  format: raw
  workers: 8
  batch_size: 30
  expand: []
  expand_all: false
  clipboard: false
  watch_debounce: 100ms
  ignore:
    names: [node_modules, __pycache__]
    name_globs: ["*.pyc", "*.swp"]
    path_globs: []
log_level: info
`
)

const (
	configurationDirectoryMode = 0o755
	configurationFileMode      = 0o600

	errorWorkingDirectoryFormat  = "determine working directory for configuration: %w"
	errorHomeDirectoryFormat     = "resolve home directory for configuration: %w"
	errorCreateDirectoryFormat   = "create configuration directory %s: %w"
	errorUnsupportedTargetFormat = "unsupported init target %q"
	errorExistsFormat            = "configuration file already exists at %s"
	errorInspectFormat           = "inspect configuration path %s: %w"
	errorWriteFormat             = "write configuration to %s: %w"
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
}

// InitializeConfiguration writes the default configuration to the requested
// target and returns the written path. An existing file is replaced only with
// Force.
func InitializeConfiguration(options InitOptions) (string, error) {
	destinationPath, destinationError := initDestination(options)
	if destinationError != nil {
		return "", destinationError
	}
	if _, statError := os.Stat(destinationPath); statError == nil {
		if !options.Force {
			return "", fmt.Errorf(errorExistsFormat, destinationPath)
		}
	} else if !os.IsNotExist(statError) {
		return "", fmt.Errorf(errorInspectFormat, destinationPath, statError)
	}
	if writeError := os.WriteFile(destinationPath, []byte(defaultConfigurationTemplate), configurationFileMode); writeError != nil {
		return "", fmt.Errorf(errorWriteFormat, destinationPath, writeError)
	}
	return destinationPath, nil
}

func initDestination(options InitOptions) (string, error) {
	switch options.Target {
	case "", InitTargetLocal:
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			currentDirectory, workingDirectoryError := os.Getwd()
			if workingDirectoryError != nil {
				return "", fmt.Errorf(errorWorkingDirectoryFormat, workingDirectoryError)
			}
			workingDirectory = currentDirectory
		}
		return filepath.Join(workingDirectory, utils.ConfigFileName), nil
	case InitTargetGlobal:
		homeDirectory, homeError := os.UserHomeDir()
		if homeError != nil {
			return "", fmt.Errorf(errorHomeDirectoryFormat, homeError)
		}
		configurationDirectory := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName)
		if mkdirError := os.MkdirAll(configurationDirectory, configurationDirectoryMode); mkdirError != nil {
			return "", fmt.Errorf(errorCreateDirectoryFormat, configurationDirectory, mkdirError)
		}
		return filepath.Join(configurationDirectory, utils.ConfigFileName), nil
	default:
		return "", fmt.Errorf(errorUnsupportedTargetFormat, options.Target)
	}
}
