package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tyemirov/arbor/internal/utils"
)

// writeTestFile creates a file with the specified content, failing the test on error.
func writeTestFile(testingHandle *testing.T, filePath string, content string) {
	testingHandle.Helper()
	if writeError := os.WriteFile(filePath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("failed to write %s: %v", filePath, writeError)
	}
}

// TestLoadIgnoreFileSections verifies that every section feeds its own criterion.
func TestLoadIgnoreFileSections(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	ignoreFilePath := filepath.Join(rootDirectory, utils.IgnoreFileName)
	writeTestFile(testingHandle, ignoreFilePath, "# leading globs\n*.log\n\n[NAMES]\nnode_modules\n.git\n[path_globs]\n/srv/cache/*\n[name_globs]\n*.tmp\n")

	rules, loadError := LoadIgnoreFile(ignoreFilePath)
	if loadError != nil {
		testingHandle.Fatalf("LoadIgnoreFile failed: %v", loadError)
	}
	if !reflect.DeepEqual(rules.Names, []string{"node_modules", ".git"}) {
		testingHandle.Errorf("unexpected names %v", rules.Names)
	}
	if !reflect.DeepEqual(rules.NameGlobs, []string{"*.log", "*.tmp"}) {
		testingHandle.Errorf("unexpected name globs %v", rules.NameGlobs)
	}
	if !reflect.DeepEqual(rules.PathGlobs, []string{"/srv/cache/*"}) {
		testingHandle.Errorf("unexpected path globs %v", rules.PathGlobs)
	}
}

// TestLoadIgnoreFileMissing verifies that a missing file is not an error.
func TestLoadIgnoreFileMissing(testingHandle *testing.T) {
	rules, loadError := LoadIgnoreFile(filepath.Join(testingHandle.TempDir(), utils.IgnoreFileName))
	if loadError != nil {
		testingHandle.Fatalf("expected no error, got %v", loadError)
	}
	if !rules.IsEmpty() {
		testingHandle.Fatalf("expected empty rules, got %+v", rules)
	}
}
