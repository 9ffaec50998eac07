package cartographer

import (
	"errors"
	"fmt"

	"github.com/tyemirov/arbor/internal/types"
)

var (
	// ErrNoNodes reports a walk that produced nothing to assemble.
	ErrNoNodes = errors.New("walk produced no nodes")
	// ErrMultipleRoots reports more than one node without a parent in the walk output.
	ErrMultipleRoots = errors.New("walk produced more than one root")
	// ErrParentNotDirectory reports a node whose parent resolved to a non-directory.
	ErrParentNotDirectory = errors.New("parent of node is not a directory")
)

const (
	errorMultipleRootsFormat      = "%w: %s and %s"
	errorParentNotDirectoryFormat = "%w: %s"
)

// Assemble links an unordered set of walk nodes into a tree and returns its
// only root. Nodes are first indexed by path, so the result does not depend
// on the order in which the walk emitted them. When a path occurs more than
// once the first occurrence is kept.
func Assemble(nodes []*types.Node) (*types.Node, error) {
	arena := make(map[string]*types.Node, len(nodes))
	ordered := make([]*types.Node, 0, len(nodes))
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if _, duplicate := arena[node.Path]; duplicate {
			continue
		}
		arena[node.Path] = node
		ordered = append(ordered, node)
	}
	if len(ordered) == 0 {
		return nil, ErrNoNodes
	}

	var root *types.Node
	for _, node := range ordered {
		parentDirectory := parentPath(node.Path)
		parent, parentFound := arena[parentDirectory]
		if !parentFound || parentDirectory == node.Path {
			if root != nil {
				return nil, fmt.Errorf(errorMultipleRootsFormat, ErrMultipleRoots, root.Path, node.Path)
			}
			root = node
			continue
		}
		if !parent.IsDir() {
			return nil, fmt.Errorf(errorParentNotDirectoryFormat, ErrParentNotDirectory, node.Path)
		}
		if parent.Children == nil {
			parent.Children = make(map[string]*types.Node)
		}
		parent.Children[node.Path] = node
	}
	return root, nil
}
