package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tyemirov/arbor/internal/ignore"
	"github.com/tyemirov/arbor/internal/utils"
)

const (
	formatEnvironmentKey    = "format"
	workersEnvironmentKey   = "workers"
	batchSizeEnvironmentKey = "batch_size"
	logLevelEnvironmentKey  = "log_level"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds the settings of every command.
type ApplicationConfiguration struct {
	Tree     TreeConfiguration `mapstructure:"tree"`
	LogLevel string            `mapstructure:"log_level"`
}

// TreeConfiguration defines how trees are walked and rendered.
type TreeConfiguration struct {
	Format        string        `mapstructure:"format"`
	Workers       *int          `mapstructure:"workers"`
	BatchSize     *int          `mapstructure:"batch_size"`
	Expand        []string      `mapstructure:"expand"`
	ExpandAll     *bool         `mapstructure:"expand_all"`
	Clipboard     *bool         `mapstructure:"clipboard"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
	Ignore        ignore.Rules  `mapstructure:"ignore"`
}

// LoadApplicationConfiguration loads configuration from global and local files,
// then applies ARBOR_* environment overrides, including those from a .env file
// in the working directory.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	if envErr := loadEnvironmentFile(filepath.Join(workingDirectory, utils.EnvironmentFileName)); envErr != nil {
		return ApplicationConfiguration{}, envErr
	}
	merged = merged.Merge(environmentConfiguration())

	merged.Tree.Expand = utils.DeduplicatePatterns(merged.Tree.Expand)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// loadEnvironmentFile exports variables from a dotenv file without
// overriding variables already present in the process environment.
func loadEnvironmentFile(path string) error {
	if loadErr := godotenv.Load(path); loadErr != nil {
		if errors.Is(loadErr, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load environment file %s: %w", path, loadErr)
	}
	return nil
}

// environmentConfiguration reads ARBOR_* overrides for scalar settings.
func environmentConfiguration() ApplicationConfiguration {
	reader := viper.New()
	reader.SetEnvPrefix(utils.EnvironmentPrefix)
	for _, key := range []string{formatEnvironmentKey, workersEnvironmentKey, batchSizeEnvironmentKey, logLevelEnvironmentKey} {
		_ = reader.BindEnv(key)
	}

	var config ApplicationConfiguration
	config.Tree.Format = reader.GetString(formatEnvironmentKey)
	config.LogLevel = reader.GetString(logLevelEnvironmentKey)
	if reader.IsSet(workersEnvironmentKey) {
		workers := reader.GetInt(workersEnvironmentKey)
		config.Tree.Workers = &workers
	}
	if reader.IsSet(batchSizeEnvironmentKey) {
		batchSize := reader.GetInt(batchSizeEnvironmentKey)
		config.Tree.BatchSize = &batchSize
	}
	return config
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Tree = result.Tree.merge(override.Tree)
	if override.LogLevel != "" {
		result.LogLevel = override.LogLevel
	}
	return result
}

func (config TreeConfiguration) merge(override TreeConfiguration) TreeConfiguration {
	result := config
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Workers != nil {
		result.Workers = cloneInt(override.Workers)
	}
	if override.BatchSize != nil {
		result.BatchSize = cloneInt(override.BatchSize)
	}
	if len(override.Expand) > 0 {
		result.Expand = append([]string{}, utils.DeduplicatePatterns(override.Expand)...)
	}
	if override.ExpandAll != nil {
		result.ExpandAll = cloneBool(override.ExpandAll)
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	if override.WatchDebounce > 0 {
		result.WatchDebounce = override.WatchDebounce
	}
	result.Ignore = result.Ignore.Merge(override.Ignore)
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
