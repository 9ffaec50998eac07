package ignore_test

import (
	"reflect"
	"testing"

	"github.com/tyemirov/arbor/internal/ignore"
)

func TestIsIgnored(t *testing.T) {
	rules := ignore.Rules{
		Names:     []string{"node_modules", ".git"},
		NameGlobs: []string{"*.pyc", "~*", "[bad"},
		PathGlobs: []string{"/project/build/*", "/project/[invalid", "*/node_modules/*", "/project/log[!0-9].txt"},
	}
	testCases := []struct {
		testName string
		name     string
		path     string
		expected bool
	}{
		{testName: "exact name", name: "node_modules", path: "/project/node_modules", expected: true},
		{testName: "exact name is not a prefix match", name: "node_modules_old", path: "/project/node_modules_old", expected: false},
		{testName: "name glob", name: "module.pyc", path: "/project/module.pyc", expected: true},
		{testName: "second name glob", name: "~lock", path: "/project/~lock", expected: true},
		{testName: "path glob", name: "out.bin", path: "/project/build/out.bin", expected: true},
		{testName: "path glob star crosses separators", name: "x", path: "/project/build/nested/x", expected: true},
		{testName: "leading path glob star crosses separators", name: "lodash", path: "/home/u/project/node_modules/lodash", expected: true},
		{testName: "unclosed bracket in path glob is literal", name: "[invalid", path: "/project/[invalid", expected: true},
		{testName: "malformed name glob never matches", name: "[bad", path: "/elsewhere/[bad", expected: false},
		{testName: "negated class in path glob", name: "loga.txt", path: "/project/loga.txt", expected: true},
		{testName: "negated class excludes members", name: "log1.txt", path: "/project/log1.txt", expected: false},
		{testName: "kept", name: "main.go", path: "/project/main.go", expected: false},
	}
	for _, testCase := range testCases {
		actual := ignore.IsIgnored(testCase.name, testCase.path, rules)
		if actual != testCase.expected {
			t.Errorf("%s: IsIgnored(%q, %q) = %t, expected %t", testCase.testName, testCase.name, testCase.path, actual, testCase.expected)
		}
		if repeated := ignore.IsIgnored(testCase.name, testCase.path, rules); repeated != actual {
			t.Errorf("%s: repeated call changed result", testCase.testName)
		}
	}
}

func TestPredicateMatchesLikeRules(t *testing.T) {
	rules := ignore.Rules{PathGlobs: []string{"/src/?/gen", "/src/[(]"}}
	predicate := rules.Predicate()
	testCases := []struct {
		path     string
		expected bool
	}{
		{path: "/src/a/gen", expected: true},
		{path: "/src/ab/gen", expected: false},
		{path: "/src/(", expected: true},
		{path: "/src/x", expected: false},
	}
	for _, testCase := range testCases {
		if actual := predicate("gen", testCase.path); actual != testCase.expected {
			t.Fatalf("predicate(%q) = %t, expected %t", testCase.path, actual, testCase.expected)
		}
		if actual := rules.Matches("gen", testCase.path); actual != testCase.expected {
			t.Fatalf("Matches(%q) = %t, expected %t", testCase.path, actual, testCase.expected)
		}
	}
}

func TestEmptyRulesHaveNoPredicate(t *testing.T) {
	if predicate := (ignore.Rules{}).Predicate(); predicate != nil {
		t.Fatalf("expected nil predicate for empty rules")
	}
	predicate := ignore.Rules{Names: []string{"vendor"}}.Predicate()
	if predicate == nil || !predicate("vendor", "/x/vendor") {
		t.Fatalf("expected predicate to match vendor")
	}
}

func TestMergeDeduplicates(t *testing.T) {
	base := ignore.Rules{Names: []string{".git"}, NameGlobs: []string{"*.pyc"}}
	override := ignore.Rules{Names: []string{".git", "dist", ""}, PathGlobs: []string{"/tmp/*"}}
	merged := base.Merge(override)
	expected := ignore.Rules{
		Names:     []string{".git", "dist"},
		NameGlobs: []string{"*.pyc"},
		PathGlobs: []string{"/tmp/*"},
	}
	if !reflect.DeepEqual(merged, expected) {
		t.Fatalf("Merge = %+v, expected %+v", merged, expected)
	}
}
