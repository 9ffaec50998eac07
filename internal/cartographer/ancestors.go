package cartographer

import (
	"path/filepath"
)

// Ancestors returns the directories above path, ordered from the filesystem
// root down to the immediate parent. The root itself has no ancestors.
func Ancestors(path string) []string {
	cleanPath := filepath.Clean(path)
	var reversed []string
	current := cleanPath
	for {
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		reversed = append(reversed, parent)
		current = parent
	}
	ancestors := make([]string, len(reversed))
	for index, ancestor := range reversed {
		ancestors[len(reversed)-1-index] = ancestor
	}
	return ancestors
}

// parentPath returns the filesystem parent of path; the root is its own parent.
func parentPath(path string) string {
	return filepath.Dir(path)
}

// splitExtension returns the final extension of name. Leading dots belong
// to the name, so ".bashrc" has no extension while "archive.tar.gz" has ".gz".
func splitExtension(name string) string {
	trimmed := name
	for len(trimmed) > 0 && trimmed[0] == '.' {
		trimmed = trimmed[1:]
	}
	return filepath.Ext(trimmed)
}
