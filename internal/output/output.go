// Package output renders tree snapshots as raw text, JSON or XML.
package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tyemirov/arbor/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	xmlHeader = xml.Header

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	directorySuffix  = "/"
	linkMarker       = " ->"
	orphanLinkMarker = " -> (orphan)"
	flagsFormat      = "  [%s]"
	flagsSeparator   = ", "

	summaryFormat = "Summary: %d %s, %d %s"
)

// ErrUnsupportedFormat is returned for formats other than raw, json and xml.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// hiddenFlags are implied by the raw line shape and not listed again.
var hiddenFlags = types.ModeDirectory | types.ModeFile | types.ModeLink | types.ModeOrphanLink

// Build converts a snapshot into its rendering form. Children are ordered
// directories first, then by name.
func Build(root *types.Node) *types.TreeOutputNode {
	if root == nil {
		return nil
	}
	return buildNode(root, len(root.Ancestors))
}

func buildNode(node *types.Node, rootDepth int) *types.TreeOutputNode {
	outputNode := &types.TreeOutputNode{
		Path:      node.Path,
		Name:      node.Name,
		Extension: node.Extension,
		Mode:      node.Mode.Names(),
		Depth:     len(node.Ancestors) - rootDepth,
		Expanded:  node.Children != nil,
	}
	children := make([]*types.Node, 0, len(node.Children))
	for _, child := range node.Children {
		children = append(children, child)
	}
	sort.Slice(children, func(left, right int) bool {
		leftDirectory := children[left].IsDir()
		rightDirectory := children[right].IsDir()
		if leftDirectory != rightDirectory {
			return leftDirectory
		}
		if children[left].Name != children[right].Name {
			return children[left].Name < children[right].Name
		}
		return children[left].Path < children[right].Path
	})
	for _, child := range children {
		outputNode.Children = append(outputNode.Children, buildNode(child, rootDepth))
	}
	return outputNode
}

// Render renders the snapshot in the requested format.
func Render(format string, root *types.Node, includeSummary bool) (string, error) {
	tree := Build(root)
	switch format {
	case types.FormatRaw:
		var buffer bytes.Buffer
		WriteTreeRaw(&buffer, tree, includeSummary)
		return buffer.String(), nil
	case types.FormatJSON:
		return RenderJSON(tree)
	case types.FormatXML:
		return RenderXML(tree)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// RenderJSON marshals the tree to indented JSON.
func RenderJSON(tree *types.TreeOutputNode) (string, error) {
	encoded, jsonEncodeError := json.MarshalIndent(tree, indentPrefix, indentSpacer)
	return string(encoded), jsonEncodeError
}

// RenderXML marshals the tree to an indented XML document.
func RenderXML(tree *types.TreeOutputNode) (string, error) {
	encoded, xmlMarshalError := xml.MarshalIndent(tree, indentPrefix, indentSpacer)
	if xmlMarshalError != nil {
		return "", xmlMarshalError
	}
	return xmlHeader + string(encoded), nil
}

// WriteTreeRaw renders the tree with box-drawing connectors.
func WriteTreeRaw(writer io.Writer, tree *types.TreeOutputNode, includeSummary bool) {
	if tree == nil {
		return
	}
	renderTreeNode(writer, tree, "", true, true)
	if includeSummary {
		fmt.Fprintln(writer, FormatSummaryLine(tree))
	}
}

// FormatSummaryLine counts the directories and other entries below tree.
func FormatSummaryLine(tree *types.TreeOutputNode) string {
	directories, files := summarizeTree(tree)
	directoryLabel := "directories"
	if directories == 1 {
		directoryLabel = "directory"
	}
	fileLabel := "files"
	if files == 1 {
		fileLabel = "file"
	}
	return fmt.Sprintf(summaryFormat, directories, directoryLabel, files, fileLabel)
}

func summarizeTree(tree *types.TreeOutputNode) (int, int) {
	var directories, files int
	for _, child := range tree.Children {
		if hasFlag(child, types.ModeDirectory) {
			directories++
		} else {
			files++
		}
		childDirectories, childFiles := summarizeTree(child)
		directories += childDirectories
		files += childFiles
	}
	return directories, files
}

func treeNodeLinePrefix(prefix string, isRoot bool, isLast bool) (string, string) {
	if isRoot {
		return "", ""
	}
	connector := treeBranchConnector
	childPrefix := prefix + treeBranchPadding
	if isLast {
		connector = treeLastConnector
		childPrefix = prefix + treeLastPadding
	}
	return prefix + connector, childPrefix
}

func renderTreeNode(writer io.Writer, node *types.TreeOutputNode, prefix string, isRoot bool, isLast bool) {
	linePrefix, childPrefix := treeNodeLinePrefix(prefix, isRoot, isLast)
	label := node.Name
	if isRoot {
		label = node.Path
	}
	fmt.Fprintf(writer, "%s%s\n", linePrefix, label+describe(node))
	for index, child := range node.Children {
		renderTreeNode(writer, child, childPrefix, false, index == len(node.Children)-1)
	}
}

func describe(node *types.TreeOutputNode) string {
	var builder strings.Builder
	if hasFlag(node, types.ModeDirectory) {
		builder.WriteString(directorySuffix)
	}
	switch {
	case hasFlag(node, types.ModeOrphanLink):
		builder.WriteString(orphanLinkMarker)
	case hasFlag(node, types.ModeLink):
		builder.WriteString(linkMarker)
	}
	var extra []string
	for _, name := range node.Mode {
		if !hiddenFlagNames[name] {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		fmt.Fprintf(&builder, flagsFormat, strings.Join(extra, flagsSeparator))
	}
	return builder.String()
}

var hiddenFlagNames = func() map[string]bool {
	names := make(map[string]bool)
	for _, name := range hiddenFlags.Names() {
		names[name] = true
	}
	return names
}()

func hasFlag(node *types.TreeOutputNode, flag types.Mode) bool {
	for _, name := range node.Mode {
		if name == flag.String() {
			return true
		}
	}
	return false
}
