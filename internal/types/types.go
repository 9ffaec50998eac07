// Package types defines every cross‑package data structure used by the arbor CLI.
package types

import (
	"encoding/json"
	"encoding/xml"
	"strings"
)

const (
	CommandTree   = "tree"
	CommandWatch  = "watch"
	CommandNew    = "new"
	CommandRename = "rename"
	CommandRemove = "remove"
	CommandCopy   = "copy"
	CommandCut    = "cut"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"
)

// Mode is a set of attribute flags resolved for one filesystem entry.
type Mode uint16

const (
	ModeDirectory Mode = 1 << iota
	ModeFile
	ModePipe
	ModeSocket
	ModeLink
	ModeOrphanLink
	ModeExecutable
	ModeOtherWritable
	ModeSticky
	ModeSetGID
	ModeSetUID
)

var modeNames = []struct {
	flag Mode
	name string
}{
	{ModeDirectory, "directory"},
	{ModeFile, "file"},
	{ModePipe, "pipe"},
	{ModeSocket, "socket"},
	{ModeLink, "link"},
	{ModeOrphanLink, "orphan_link"},
	{ModeExecutable, "executable"},
	{ModeOtherWritable, "other_writable"},
	{ModeSticky, "sticky"},
	{ModeSetGID, "set_gid"},
	{ModeSetUID, "set_uid"},
}

// Has reports whether every flag in other is present.
func (mode Mode) Has(other Mode) bool {
	return mode&other == other
}

// Names returns the flag names in a fixed order.
func (mode Mode) Names() []string {
	names := make([]string, 0, len(modeNames))
	for _, entry := range modeNames {
		if mode.Has(entry.flag) {
			names = append(names, entry.name)
		}
	}
	return names
}

func (mode Mode) String() string {
	return strings.Join(mode.Names(), "|")
}

// MarshalJSON encodes the mode as a list of flag names.
func (mode Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(mode.Names())
}

// Node is one filesystem entry of a tree snapshot.
// A node returned from the cartographer is never modified afterwards;
// updates build new nodes and share unchanged subtrees.
type Node struct {
	Path      string           `json:"path"`
	Name      string           `json:"name"`
	Extension string           `json:"extension,omitempty"`
	Mode      Mode             `json:"mode"`
	Ancestors []string         `json:"ancestors"`
	Children  map[string]*Node `json:"children,omitempty"`
}

// IsDir reports whether the node resolved to a directory.
func (node *Node) IsDir() bool {
	return node.Mode.Has(ModeDirectory)
}

// ExpansionIndex is the set of directory paths that a walk descends into.
type ExpansionIndex map[string]struct{}

// NewExpansionIndex builds an index from the provided paths.
func NewExpansionIndex(paths ...string) ExpansionIndex {
	index := make(ExpansionIndex, len(paths))
	for _, path := range paths {
		index[path] = struct{}{}
	}
	return index
}

// Contains reports whether path is expanded.
func (index ExpansionIndex) Contains(path string) bool {
	_, expanded := index[path]
	return expanded
}

// Clone returns an independent copy of the index.
func (index ExpansionIndex) Clone() ExpansionIndex {
	cloned := make(ExpansionIndex, len(index))
	for path := range index {
		cloned[path] = struct{}{}
	}
	return cloned
}

// TreeOutputNode is the rendering form of a Node with ordered children.
type TreeOutputNode struct {
	XMLName   xml.Name          `json:"-" xml:"node"`
	Path      string            `json:"path" xml:"path"`
	Name      string            `json:"name" xml:"name"`
	Extension string            `json:"extension,omitempty" xml:"extension,omitempty"`
	Mode      []string          `json:"mode" xml:"mode>flag"`
	Depth     int               `json:"depth" xml:"depth"`
	Expanded  bool              `json:"expanded,omitempty" xml:"expanded,omitempty"`
	Children  []*TreeOutputNode `json:"children,omitempty" xml:"children>node,omitempty"`
}
