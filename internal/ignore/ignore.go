// Package ignore decides which filesystem entries are hidden from the tree.
package ignore

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tyemirov/arbor/internal/utils"
)

// Predicate reports whether the entry with the given base name and absolute path is hidden.
type Predicate func(name string, path string) bool

// Rules holds the three independent matching criteria. An entry is ignored
// when it matches any of them.
type Rules struct {
	Names     []string `mapstructure:"names"`
	NameGlobs []string `mapstructure:"name_globs"`
	PathGlobs []string `mapstructure:"path_globs"`
}

// Matches reports whether name exactly matches a listed name, name matches a
// name glob, or path matches a path glob. Name globs use filepath.Match syntax
// and malformed name globs never match. Path globs use fnmatch syntax: `*` and
// `?` also match the separator and an unclosed `[` is a literal.
func (rules Rules) Matches(name string, path string) bool {
	return rules.compile().matches(name, path)
}

// Predicate returns the rules as a walk predicate. Empty rules yield nil so
// callers can skip the check entirely. Path globs are compiled once.
func (rules Rules) Predicate() Predicate {
	if rules.IsEmpty() {
		return nil
	}
	return rules.compile().matches
}

// IsEmpty reports whether no criterion is configured.
func (rules Rules) IsEmpty() bool {
	return len(rules.Names) == 0 && len(rules.NameGlobs) == 0 && len(rules.PathGlobs) == 0
}

// Merge appends override criteria to the receiver, dropping duplicates.
func (rules Rules) Merge(override Rules) Rules {
	return Rules{
		Names:     appendUnique(rules.Names, override.Names),
		NameGlobs: appendUnique(rules.NameGlobs, override.NameGlobs),
		PathGlobs: appendUnique(rules.PathGlobs, override.PathGlobs),
	}
}

// IsIgnored reports whether rules hide the entry.
func IsIgnored(name string, path string, rules Rules) bool {
	return rules.Matches(name, path)
}

type compiledRules struct {
	names     []string
	nameGlobs []string
	pathGlobs []*regexp.Regexp
}

func (rules Rules) compile() compiledRules {
	compiled := compiledRules{names: rules.Names, nameGlobs: rules.NameGlobs}
	for _, pathGlob := range rules.PathGlobs {
		if expression := compilePathGlob(pathGlob); expression != nil {
			compiled.pathGlobs = append(compiled.pathGlobs, expression)
		}
	}
	return compiled
}

func (compiled compiledRules) matches(name string, path string) bool {
	for _, exactName := range compiled.names {
		if name == exactName {
			return true
		}
	}
	for _, nameGlob := range compiled.nameGlobs {
		if globMatches(nameGlob, name) {
			return true
		}
	}
	for _, pathGlob := range compiled.pathGlobs {
		if pathGlob.MatchString(path) {
			return true
		}
	}
	return false
}

func globMatches(pattern string, candidate string) bool {
	isMatched, matchError := filepath.Match(pattern, candidate)
	return matchError == nil && isMatched
}

// compilePathGlob translates an fnmatch pattern into an anchored expression.
// A pattern whose character class cannot be compiled yields nil.
func compilePathGlob(pattern string) *regexp.Regexp {
	var builder strings.Builder
	runes := []rune(pattern)
	for index := 0; index < len(runes); index++ {
		switch current := runes[index]; current {
		case '*':
			builder.WriteString(".*")
		case '?':
			builder.WriteString(".")
		case '[':
			classEnd := index + 1
			if classEnd < len(runes) && runes[classEnd] == '!' {
				classEnd++
			}
			if classEnd < len(runes) && runes[classEnd] == ']' {
				classEnd++
			}
			for classEnd < len(runes) && runes[classEnd] != ']' {
				classEnd++
			}
			if classEnd >= len(runes) {
				builder.WriteString(`\[`)
				continue
			}
			builder.WriteString(translateClass(runes[index+1 : classEnd]))
			index = classEnd
		default:
			builder.WriteString(regexp.QuoteMeta(string(current)))
		}
	}
	expression, compileError := regexp.Compile(`^(?s:` + builder.String() + `)$`)
	if compileError != nil {
		return nil
	}
	return expression
}

func translateClass(members []rune) string {
	var builder strings.Builder
	builder.WriteByte('[')
	if len(members) > 0 && members[0] == '!' {
		builder.WriteByte('^')
		members = members[1:]
	}
	for _, member := range members {
		switch member {
		case '\\', '[', ']', '^':
			builder.WriteByte('\\')
		}
		builder.WriteRune(member)
	}
	builder.WriteByte(']')
	return builder.String()
}

func appendUnique(base []string, additions []string) []string {
	if len(base) == 0 && len(additions) == 0 {
		return nil
	}
	combined := make([]string, 0, len(base)+len(additions))
	for _, values := range [][]string{base, additions} {
		for _, value := range values {
			if value != "" {
				combined = append(combined, value)
			}
		}
	}
	return utils.DeduplicatePatterns(combined)
}
