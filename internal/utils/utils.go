// Package utils contains general helper functions used across the arbor tool.
package utils

import (
	"path/filepath"
)

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// ResolvePath returns path in clean absolute form. Relative paths are joined
// to baseDirectory rather than to the process working directory.
func ResolvePath(baseDirectory string, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(baseDirectory, path))
}

// ResolvePaths applies ResolvePath to every non-empty entry and drops duplicates.
func ResolvePaths(baseDirectory string, paths []string) []string {
	resolved := make([]string, 0, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		resolved = append(resolved, ResolvePath(baseDirectory, path))
	}
	return DeduplicatePatterns(resolved)
}

// IsWithin reports whether path equals directory or lies beneath it.
func IsWithin(directory string, path string) bool {
	relativePath, relativeError := filepath.Rel(directory, path)
	if relativeError != nil {
		return false
	}
	return relativePath == "." || (relativePath != ".." && !hasParentPrefix(relativePath))
}

func hasParentPrefix(relativePath string) bool {
	parentPrefix := ".." + string(filepath.Separator)
	return len(relativePath) >= len(parentPrefix) && relativePath[:len(parentPrefix)] == parentPrefix
}
