package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tyemirov/arbor/internal/utils"
)

func TestInitializeConfigurationTemplateLoads(t *testing.T) {
	isolateEnvironment(t)
	t.Setenv("HOME", t.TempDir())
	workingDirectory := t.TempDir()

	path, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory})
	if err != nil {
		t.Fatalf("InitializeConfiguration error: %v", err)
	}
	if expected := filepath.Join(workingDirectory, utils.ConfigFileName); path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}

	configuration, loadError := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDirectory})
	if loadError != nil {
		t.Fatalf("template does not load: %v", loadError)
	}
	if configuration.Tree.Format != "raw" || configuration.LogLevel != "info" {
		t.Fatalf("unexpected template values %+v", configuration)
	}
	if configuration.Tree.Workers == nil || *configuration.Tree.Workers != 8 {
		t.Fatalf("expected workers 8, got %v", configuration.Tree.Workers)
	}
	if configuration.Tree.WatchDebounce != 100*time.Millisecond {
		t.Fatalf("expected 100ms debounce, got %v", configuration.Tree.WatchDebounce)
	}
	if len(configuration.Tree.Ignore.NameGlobs) != 2 {
		t.Fatalf("expected template name globs, got %v", configuration.Tree.Ignore.NameGlobs)
	}
}

func TestInitializeConfigurationTargets(t *testing.T) {
	homeDirectory := t.TempDir()
	t.Setenv("HOME", homeDirectory)
	workingDirectory := t.TempDir()

	globalPath, err := InitializeConfiguration(InitOptions{Target: InitTargetGlobal})
	if err != nil {
		t.Fatalf("global init error: %v", err)
	}
	if expected := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName); globalPath != expected {
		t.Fatalf("expected %s, got %s", expected, globalPath)
	}

	localPath := filepath.Join(workingDirectory, utils.ConfigFileName)
	if err := os.WriteFile(localPath, []byte("log_level: warn\n"), 0o600); err != nil {
		t.Fatalf("seed local config: %v", err)
	}
	if _, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory, Target: InitTargetLocal}); err == nil {
		t.Fatalf("expected an existing file to be kept without Force")
	}
	if _, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory, Target: InitTargetLocal, Force: true}); err != nil {
		t.Fatalf("forced init error: %v", err)
	}
	content, readError := os.ReadFile(localPath)
	if readError != nil || string(content) != defaultConfigurationTemplate {
		t.Fatalf("expected the template to replace the file: %v", readError)
	}

	if _, err := InitializeConfiguration(InitOptions{Target: InitTarget("remote")}); err == nil {
		t.Fatalf("expected an unsupported target to fail")
	}
}
