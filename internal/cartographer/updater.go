package cartographer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/arbor/internal/types"
)

const logMessageUpdateFallback = "update root vanished, walking again"

// Update returns a new snapshot in which every subtree containing a changed
// path is rebuilt from disk. Subtrees without changes are the same *Node
// values as in root. A changed entry that no longer exists is dropped from its
// parent. If root itself is among the changes, or root turns out to be gone,
// the whole tree is walked again from root.Path.
func (cartographer *Cartographer) Update(ctx context.Context, root *types.Node, index types.ExpansionIndex, changedPaths []string) (*types.Node, error) {
	if root == nil {
		return nil, ErrNoNodes
	}
	changes := newChangeSet(changedPaths)
	if changes.isEmpty() {
		return root, nil
	}
	if changes.contains(root.Path) {
		return cartographer.Walk(ctx, root.Path, index)
	}

	updated, updateError := cartographer.update(ctx, root, index, changes)
	if updateError != nil {
		if errors.Is(updateError, fs.ErrNotExist) {
			cartographer.logger.Debug(logMessageUpdateFallback, zap.String("root", root.Path), zap.Error(updateError))
			return cartographer.Walk(ctx, root.Path, index)
		}
		return nil, updateError
	}
	return updated, nil
}

func (cartographer *Cartographer) update(ctx context.Context, node *types.Node, index types.ExpansionIndex, changes changeSet) (*types.Node, error) {
	if changes.contains(node.Path) {
		return cartographer.rewalk(ctx, node.Path, index)
	}
	if node.Children == nil || !changes.below(node.Path) {
		return node, nil
	}

	children := make(map[string]*types.Node, len(node.Children))
	for childPath, child := range node.Children {
		updatedChild, updateError := cartographer.update(ctx, child, index, changes)
		if updateError != nil {
			if errors.Is(updateError, fs.ErrNotExist) && changes.contains(childPath) {
				if _, statError := os.Lstat(node.Path); statError == nil {
					continue
				}
			}
			return nil, updateError
		}
		children[childPath] = updatedChild
	}

	for _, createdPath := range changes.directChildren(node.Path) {
		if _, known := children[createdPath]; known {
			continue
		}
		if cartographer.walker.ignores(filepath.Base(createdPath), createdPath) {
			continue
		}
		createdNode, walkError := cartographer.rewalk(ctx, createdPath, index)
		if walkError != nil {
			if errors.Is(walkError, fs.ErrNotExist) {
				continue
			}
			return nil, walkError
		}
		children[createdPath] = createdNode
	}

	return &types.Node{
		Path:      node.Path,
		Name:      node.Name,
		Extension: node.Extension,
		Mode:      node.Mode,
		Ancestors: node.Ancestors,
		Children:  children,
	}, nil
}

// rewalk walks path strictly: a missing path is reported as fs.ErrNotExist.
func (cartographer *Cartographer) rewalk(ctx context.Context, path string, index types.ExpansionIndex) (*types.Node, error) {
	nodes, walkError := cartographer.walker.walk(ctx, []string{path}, index, true)
	if walkError != nil {
		return nil, walkError
	}
	return Assemble(nodes)
}

// changeSet is the set of changed paths in clean form.
type changeSet map[string]struct{}

func newChangeSet(paths []string) changeSet {
	changes := make(changeSet, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		changes[filepath.Clean(path)] = struct{}{}
	}
	return changes
}

func (changes changeSet) isEmpty() bool {
	return len(changes) == 0
}

func (changes changeSet) contains(path string) bool {
	_, changed := changes[path]
	return changed
}

// below reports whether any changed path lies strictly beneath directory.
func (changes changeSet) below(directory string) bool {
	prefix := directoryPrefix(directory)
	for path := range changes {
		if path != directory && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// directChildren returns the changed paths whose parent is directory.
func (changes changeSet) directChildren(directory string) []string {
	var children []string
	for path := range changes {
		if path != directory && parentPath(path) == directory {
			children = append(children, path)
		}
	}
	return children
}

func directoryPrefix(directory string) string {
	if strings.HasSuffix(directory, string(filepath.Separator)) {
		return directory
	}
	return directory + string(filepath.Separator)
}
