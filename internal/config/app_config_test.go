package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tyemirov/arbor/internal/utils"
)

type configTestCase struct {
	name            string
	globalContent   string
	localContent    string
	explicitPath    string
	expectFormat    string
	expectWorkers   *int
	expectExpandAll *bool
	expectExpand    []string
	expectNames     []string
	expectDebounce  time.Duration
}

func boolPointer(value bool) *bool {
	pointer := value
	return &pointer
}

func intPointer(value int) *int {
	pointer := value
	return &pointer
}

// isolateEnvironment clears ARBOR_* variables for the duration of the test.
func isolateEnvironment(t *testing.T) {
	t.Helper()
	for _, name := range []string{"ARBOR_FORMAT", "ARBOR_WORKERS", "ARBOR_BATCH_SIZE", "ARBOR_LOG_LEVEL"} {
		t.Setenv(name, "")
		if err := os.Unsetenv(name); err != nil {
			t.Fatalf("unset %s: %v", name, err)
		}
	}
}

func TestLoadApplicationConfigurationMergesSources(t *testing.T) {
	testCases := []configTestCase{
		{
			name:            "local_overrides_global",
			globalContent:   "tree:\n  format: json\n  workers: 2\n  ignore:\n    names: [.git]\n",
			localContent:    "tree:\n  format: xml\n  expand_all: true\n  expand: [src, src]\n  watch_debounce: 250ms\n  ignore:\n    names: [node_modules]\n",
			expectFormat:    "xml",
			expectWorkers:   intPointer(2),
			expectExpandAll: boolPointer(true),
			expectExpand:    []string{"src"},
			expectNames:     []string{".git", "node_modules"},
			expectDebounce:  250 * time.Millisecond,
		},
		{
			name:          "explicit_path_only",
			globalContent: "tree:\n  format: json\n",
			explicitPath:  "custom.yaml",
			expectFormat:  "raw",
			expectExpand:  []string{},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			isolateEnvironment(t)
			homeDirectory := t.TempDir()
			t.Setenv("HOME", homeDirectory)
			t.Setenv("USERPROFILE", homeDirectory)
			if testCase.globalContent != "" {
				globalDirectory := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName)
				if err := os.MkdirAll(globalDirectory, 0o755); err != nil {
					t.Fatalf("mkdir global: %v", err)
				}
				writeTestFile(t, filepath.Join(globalDirectory, utils.ConfigFileName), testCase.globalContent)
			}
			workingDirectory := t.TempDir()
			if testCase.localContent != "" {
				writeTestFile(t, filepath.Join(workingDirectory, utils.ConfigFileName), testCase.localContent)
			}
			if testCase.explicitPath != "" {
				writeTestFile(t, filepath.Join(workingDirectory, testCase.explicitPath), "tree:\n  format: raw\n")
			}

			configuration, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDirectory, ExplicitFilePath: testCase.explicitPath})
			if err != nil {
				t.Fatalf("LoadApplicationConfiguration error: %v", err)
			}
			tree := configuration.Tree
			if tree.Format != testCase.expectFormat {
				t.Fatalf("expected format %q, got %q", testCase.expectFormat, tree.Format)
			}
			if !reflect.DeepEqual(tree.Workers, testCase.expectWorkers) {
				t.Fatalf("expected workers %v, got %v", testCase.expectWorkers, tree.Workers)
			}
			if !reflect.DeepEqual(tree.ExpandAll, testCase.expectExpandAll) {
				t.Fatalf("expected expand_all %v, got %v", testCase.expectExpandAll, tree.ExpandAll)
			}
			if !reflect.DeepEqual(tree.Expand, testCase.expectExpand) {
				t.Fatalf("expected expand %v, got %v", testCase.expectExpand, tree.Expand)
			}
			if !reflect.DeepEqual(tree.Ignore.Names, testCase.expectNames) {
				t.Fatalf("expected ignore names %v, got %v", testCase.expectNames, tree.Ignore.Names)
			}
			if tree.WatchDebounce != testCase.expectDebounce {
				t.Fatalf("expected debounce %v, got %v", testCase.expectDebounce, tree.WatchDebounce)
			}
		})
	}
}

func TestLoadApplicationConfigurationEnvironmentOverrides(t *testing.T) {
	isolateEnvironment(t)
	homeDirectory := t.TempDir()
	t.Setenv("HOME", homeDirectory)
	workingDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(workingDirectory, utils.ConfigFileName), "tree:\n  format: json\n  batch_size: 5\nlog_level: warn\n")
	writeTestFile(t, filepath.Join(workingDirectory, utils.EnvironmentFileName), "ARBOR_BATCH_SIZE=7\nARBOR_LOG_LEVEL=debug\n")
	t.Setenv("ARBOR_FORMAT", "xml")

	configuration, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDirectory})
	if err != nil {
		t.Fatalf("LoadApplicationConfiguration error: %v", err)
	}
	if configuration.Tree.Format != "xml" {
		t.Fatalf("expected environment format, got %q", configuration.Tree.Format)
	}
	if configuration.Tree.BatchSize == nil || *configuration.Tree.BatchSize != 7 {
		t.Fatalf("expected dotenv batch size 7, got %v", configuration.Tree.BatchSize)
	}
	if configuration.LogLevel != "debug" {
		t.Fatalf("expected dotenv log level, got %q", configuration.LogLevel)
	}
	if configuration.Tree.Workers != nil {
		t.Fatalf("expected workers unset, got %v", *configuration.Tree.Workers)
	}
}

func TestLoadApplicationConfigurationRejectsDirectory(t *testing.T) {
	isolateEnvironment(t)
	t.Setenv("HOME", t.TempDir())
	workingDirectory := t.TempDir()
	if err := os.Mkdir(filepath.Join(workingDirectory, utils.ConfigFileName), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDirectory}); err == nil {
		t.Fatalf("expected error for directory configuration path")
	}
}
