package fsops_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tyemirov/arbor/internal/fsops"
)

func TestUnify(t *testing.T) {
	testCases := []struct {
		name     string
		paths    []string
		expected []string
	}{
		{name: "drops descendants", paths: []string{"/a/b", "/a", "/a/b/c", "/d"}, expected: []string{"/a", "/d"}},
		{name: "keeps siblings with shared prefix", paths: []string{"/a", "/ab"}, expected: []string{"/a", "/ab"}},
		{name: "deduplicates", paths: []string{"/x/", "/x"}, expected: []string{"/x"}},
	}
	for _, testCase := range testCases {
		if actual := fsops.Unify(testCase.paths); !reflect.DeepEqual(actual, testCase.expected) {
			t.Errorf("%s: Unify(%v) = %v, expected %v", testCase.name, testCase.paths, actual, testCase.expected)
		}
	}
}

func TestIsParent(t *testing.T) {
	if !fsops.IsParent("/a", "/a/b") || !fsops.IsParent("/a", "/a") {
		t.Fatalf("expected /a to contain /a/b and itself")
	}
	if fsops.IsParent("/a", "/ab") {
		t.Fatalf("shared prefix is not containment")
	}
}

func TestNewCreatesFilesAndDirectories(t *testing.T) {
	root := t.TempDir()
	filePath := filepath.Join(root, "nested", "deeper", "file.txt")
	changes, err := fsops.New(filePath)
	if err != nil {
		t.Fatalf("New file error: %v", err)
	}
	if info, statErr := os.Stat(filePath); statErr != nil || !info.Mode().IsRegular() {
		t.Fatalf("expected regular file at %s: %v", filePath, statErr)
	}
	if !reflect.DeepEqual([]string(changes), []string{root}) {
		t.Fatalf("expected the existing ancestor %s, got %v", root, changes)
	}

	directoryPath := filepath.Join(root, "made") + string(filepath.Separator)
	changes, err = fsops.New(directoryPath)
	if err != nil {
		t.Fatalf("New directory error: %v", err)
	}
	if info, statErr := os.Stat(directoryPath); statErr != nil || !info.IsDir() {
		t.Fatalf("expected directory: %v", statErr)
	}
	if !reflect.DeepEqual([]string(changes), []string{root}) {
		t.Fatalf("unexpected changes %v", changes)
	}
}

func TestRenameReportsBothParents(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "left", "item.txt")
	if _, err := fsops.New(source); err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, err := fsops.New(filepath.Join(root, "right") + string(filepath.Separator)); err != nil {
		t.Fatalf("New error: %v", err)
	}
	destination := filepath.Join(root, "right", "item.txt")
	changes, err := fsops.Rename(source, destination)
	if err != nil {
		t.Fatalf("Rename error: %v", err)
	}
	expected := []string{filepath.Join(root, "left"), filepath.Join(root, "right")}
	if !reflect.DeepEqual([]string(changes), expected) {
		t.Fatalf("expected %v, got %v", expected, changes)
	}
	if _, statErr := os.Stat(destination); statErr != nil {
		t.Fatalf("expected destination to exist: %v", statErr)
	}
}

func TestRenameIntoNewDirectoriesReportsExistingAncestor(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "item.txt")
	if _, err := fsops.New(source); err != nil {
		t.Fatalf("New error: %v", err)
	}
	changes, err := fsops.Rename(source, filepath.Join(root, "fresh", "nested", "item.txt"))
	if err != nil {
		t.Fatalf("Rename error: %v", err)
	}
	if !reflect.DeepEqual([]string(changes), []string{root}) {
		t.Fatalf("expected [%s], got %v", root, changes)
	}
}

func TestCutRefusesToOverwrite(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "a.txt")
	destination := filepath.Join(root, "b.txt")
	for _, path := range []string{source, destination} {
		if _, err := fsops.New(path); err != nil {
			t.Fatalf("New error: %v", err)
		}
	}
	if _, err := fsops.Cut(source, destination); !errors.Is(err, fsops.ErrDestinationExists) {
		t.Fatalf("expected ErrDestinationExists, got %v", err)
	}
}

func TestCopyDirectoryTree(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "source")
	if _, err := fsops.New(filepath.Join(source, "inner", "data.txt")); err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(source, "inner", "data.txt"), []byte("payload"), 0o640); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Symlink("inner/data.txt", filepath.Join(source, "link")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	destination := filepath.Join(root, "copy")
	changes, err := fsops.Copy(source, destination)
	if err != nil {
		t.Fatalf("Copy error: %v", err)
	}
	if !reflect.DeepEqual([]string(changes), []string{root}) {
		t.Fatalf("unexpected changes %v", changes)
	}
	content, readErr := os.ReadFile(filepath.Join(destination, "inner", "data.txt"))
	if readErr != nil || string(content) != "payload" {
		t.Fatalf("unexpected copied content %q: %v", content, readErr)
	}
	target, linkErr := os.Readlink(filepath.Join(destination, "link"))
	if linkErr != nil || target != "inner/data.txt" {
		t.Fatalf("expected symlink to be preserved, got %q: %v", target, linkErr)
	}
	if _, err := fsops.Copy(source, filepath.Join(source, "inner", "again")); err == nil {
		t.Fatalf("expected copying into itself to fail")
	}
}

func TestRemove(t *testing.T) {
	root := t.TempDir()
	directory := filepath.Join(root, "doomed")
	if _, err := fsops.New(filepath.Join(directory, "file.txt")); err != nil {
		t.Fatalf("New error: %v", err)
	}
	changes, err := fsops.Remove(directory)
	if err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if !reflect.DeepEqual([]string(changes), []string{root}) {
		t.Fatalf("unexpected changes %v", changes)
	}
	if _, statErr := os.Lstat(directory); !os.IsNotExist(statErr) {
		t.Fatalf("expected directory to be gone")
	}
	if _, err := fsops.Remove(directory); err == nil {
		t.Fatalf("expected error removing a missing entry")
	}
}
