// Package config loads application configuration and ignore rule files.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/tyemirov/arbor/internal/ignore"
)

const (
	// namesSectionHeader identifies the section listing exact entry names.
	namesSectionHeader = "[names]"
	// nameGlobsSectionHeader identifies the section listing name globs.
	nameGlobsSectionHeader = "[name_globs]"
	// pathGlobsSectionHeader identifies the section listing path globs.
	pathGlobsSectionHeader = "[path_globs]"
	// commentPrefix starts a comment line.
	commentPrefix = "#"
)

// LoadIgnoreFile reads ignore rules from ignoreFilePath. Lines before any
// section header are name globs. A missing file yields empty rules.
//
// #nosec G304
func LoadIgnoreFile(ignoreFilePath string) (ignore.Rules, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return ignore.Rules{}, nil
		}
		return ignore.Rules{}, openFileError
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", ignoreFilePath, closeError)
		}
	}()

	var rules ignore.Rules
	currentSectionHeader := nameGlobsSectionHeader
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		switch strings.ToLower(trimmedLine) {
		case namesSectionHeader, nameGlobsSectionHeader, pathGlobsSectionHeader:
			currentSectionHeader = strings.ToLower(trimmedLine)
			continue
		}
		switch currentSectionHeader {
		case namesSectionHeader:
			rules.Names = append(rules.Names, trimmedLine)
		case pathGlobsSectionHeader:
			rules.PathGlobs = append(rules.PathGlobs, trimmedLine)
		default:
			rules.NameGlobs = append(rules.NameGlobs, trimmedLine)
		}
	}
	if scanError := scanner.Err(); scanError != nil {
		return ignore.Rules{}, scanError
	}
	return rules, nil
}
