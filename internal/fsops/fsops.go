// Package fsops performs the file operations of the browser and reports which
// directories they changed so the tree can be updated incrementally.
package fsops

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tyemirov/arbor/internal/cartographer"
	"github.com/tyemirov/arbor/internal/utils"
)

const (
	// FolderMode is the permission used for created directories.
	FolderMode fs.FileMode = 0o755
	// FileMode is the permission used for created files.
	FileMode fs.FileMode = 0o644

	errorDestinationExistsFormat = "destination %s already exists"
	errorCopyIntoSelfFormat      = "cannot copy %s into itself"
	errorCreateParentFormat      = "create parent of %s: %w"
)

// ErrDestinationExists reports an operation that would overwrite an entry.
var ErrDestinationExists = errors.New("destination exists")

// Changes is the set of directories whose listing an operation altered.
type Changes []string

// IsParent reports whether child lies beneath parent or equals it.
func IsParent(parent string, child string) bool {
	return utils.IsWithin(parent, child)
}

// Unify drops every path that has an ancestor also present in paths and
// returns the rest sorted.
func Unify(paths []string) []string {
	present := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		present[filepath.Clean(path)] = struct{}{}
	}
	unified := make([]string, 0, len(present))
	for path := range present {
		covered := false
		for _, ancestor := range cartographer.Ancestors(path) {
			if _, found := present[ancestor]; found {
				covered = true
				break
			}
		}
		if !covered {
			unified = append(unified, path)
		}
	}
	sort.Strings(unified)
	return unified
}

// New creates dest. A destination ending in a path separator is created as a
// directory tree; otherwise missing parents are created and dest is touched.
func New(dest string) (Changes, error) {
	cleanDestination := filepath.Clean(dest)
	anchor := existingParent(cleanDestination)
	if strings.HasSuffix(dest, string(filepath.Separator)) {
		if err := os.MkdirAll(cleanDestination, FolderMode); err != nil {
			return nil, err
		}
		return Unify([]string{anchor}), nil
	}
	if err := os.MkdirAll(filepath.Dir(cleanDestination), FolderMode); err != nil {
		return nil, fmt.Errorf(errorCreateParentFormat, cleanDestination, err)
	}
	fileHandle, openError := os.OpenFile(cleanDestination, os.O_CREATE|os.O_WRONLY, FileMode)
	if openError != nil {
		return nil, openError
	}
	if closeError := fileHandle.Close(); closeError != nil {
		return nil, closeError
	}
	return Unify([]string{anchor}), nil
}

// Rename moves src to dest, creating the parent of dest when needed.
func Rename(src string, dest string) (Changes, error) {
	if err := ensureAbsent(dest); err != nil {
		return nil, err
	}
	anchor := existingParent(filepath.Clean(dest))
	if err := os.MkdirAll(filepath.Dir(dest), FolderMode); err != nil {
		return nil, fmt.Errorf(errorCreateParentFormat, dest, err)
	}
	if err := os.Rename(src, dest); err != nil {
		return nil, err
	}
	return Unify([]string{filepath.Dir(filepath.Clean(src)), anchor}), nil
}

// Remove deletes src, recursively for directories.
func Remove(src string) (Changes, error) {
	if _, err := os.Lstat(src); err != nil {
		return nil, err
	}
	if err := os.RemoveAll(src); err != nil {
		return nil, err
	}
	return changesFor(src), nil
}

// Cut moves src to dest; dest must not exist.
func Cut(src string, dest string) (Changes, error) {
	if err := ensureAbsent(dest); err != nil {
		return nil, err
	}
	if err := os.Rename(src, dest); err != nil {
		return nil, err
	}
	return changesFor(src, dest), nil
}

// Copy duplicates src at dest, recursively for directories. Permission bits
// and symlinks are preserved.
func Copy(src string, dest string) (Changes, error) {
	if err := ensureAbsent(dest); err != nil {
		return nil, err
	}
	cleanSource := filepath.Clean(src)
	cleanDestination := filepath.Clean(dest)
	if IsParent(cleanSource, cleanDestination) {
		return nil, fmt.Errorf(errorCopyIntoSelfFormat, cleanSource)
	}
	if err := copyEntry(cleanSource, cleanDestination); err != nil {
		return nil, err
	}
	return changesFor(cleanDestination), nil
}

// changesFor returns the unified parent directories of paths.
func changesFor(paths ...string) Changes {
	parents := make([]string, 0, len(paths))
	for _, path := range paths {
		parents = append(parents, filepath.Dir(filepath.Clean(path)))
	}
	return Unify(parents)
}

// existingParent returns the nearest ancestor of path that exists, which is
// the directory whose listing changes when path and its parents are created.
func existingParent(path string) string {
	current := filepath.Dir(path)
	for {
		if _, err := os.Lstat(current); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}

func ensureAbsent(path string) error {
	if _, err := os.Lstat(path); err == nil {
		return fmt.Errorf("%w: "+errorDestinationExistsFormat, ErrDestinationExists, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func copyEntry(src string, dest string) error {
	info, statError := os.Lstat(src)
	if statError != nil {
		return statError
	}
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		target, linkError := os.Readlink(src)
		if linkError != nil {
			return linkError
		}
		return os.Symlink(target, dest)
	case info.IsDir():
		if err := os.MkdirAll(dest, info.Mode().Perm()); err != nil {
			return err
		}
		entries, readError := os.ReadDir(src)
		if readError != nil {
			return readError
		}
		for _, entry := range entries {
			if err := copyEntry(filepath.Join(src, entry.Name()), filepath.Join(dest, entry.Name())); err != nil {
				return err
			}
		}
		return nil
	default:
		return copyFile(src, dest, info.Mode().Perm())
	}
}

// #nosec G304
func copyFile(src string, dest string, permissions fs.FileMode) (err error) {
	sourceHandle, openError := os.Open(src)
	if openError != nil {
		return openError
	}
	defer func() {
		if closeError := sourceHandle.Close(); closeError != nil && err == nil {
			err = closeError
		}
	}()
	destinationHandle, createError := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, permissions)
	if createError != nil {
		return createError
	}
	defer func() {
		if closeError := destinationHandle.Close(); closeError != nil && err == nil {
			err = closeError
		}
	}()
	_, err = io.Copy(destinationHandle, sourceHandle)
	return err
}
