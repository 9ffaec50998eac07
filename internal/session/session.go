// Package session keeps the browsing state of one tree: its root, the current
// snapshot and the set of expanded directories.
package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/tyemirov/arbor/internal/cartographer"
	"github.com/tyemirov/arbor/internal/types"
	"github.com/tyemirov/arbor/internal/utils"
)

const (
	logMessageSnapshotUpdated = "snapshot updated"
	logFieldRoot              = "root"
	logFieldExpanded          = "expanded"
	logFieldChanges           = "changes"
)

// ErrNotOpen is returned by transitions attempted before Open.
var ErrNotOpen = errors.New("session is not open")

// State serialises transitions of a browsing session. Every transition
// publishes a fresh expansion index, so a snapshot handed out earlier keeps
// describing the index it was walked with.
type State struct {
	mutex        sync.Mutex
	cartographer *cartographer.Cartographer
	logger       *zap.Logger
	root         string
	index        types.ExpansionIndex
	snapshot     *types.Node
}

// New constructs an empty State backed by the provided cartographer.
func New(treeCartographer *cartographer.Cartographer, logger *zap.Logger) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{cartographer: treeCartographer, logger: logger}
}

// Open walks root with root and the provided directories expanded.
func (state *State) Open(ctx context.Context, root string, expanded ...string) (*types.Node, error) {
	cleanRoot := filepath.Clean(root)
	index := types.NewExpansionIndex(cleanRoot)
	for _, path := range expanded {
		index[filepath.Clean(path)] = struct{}{}
	}

	state.mutex.Lock()
	defer state.mutex.Unlock()
	snapshot, walkError := state.cartographer.Walk(ctx, cleanRoot, index)
	if walkError != nil {
		return nil, walkError
	}
	state.root = cleanRoot
	state.publish(index, snapshot, nil)
	return snapshot, nil
}

// Expand adds paths to the expansion index and updates their subtrees.
func (state *State) Expand(ctx context.Context, paths ...string) (*types.Node, error) {
	state.mutex.Lock()
	defer state.mutex.Unlock()
	return state.expand(ctx, paths)
}

func (state *State) expand(ctx context.Context, paths []string) (*types.Node, error) {
	if state.snapshot == nil {
		return nil, ErrNotOpen
	}
	index := state.index.Clone()
	changed := make([]string, 0, len(paths))
	for _, path := range paths {
		cleanPath := filepath.Clean(path)
		if index.Contains(cleanPath) {
			continue
		}
		index[cleanPath] = struct{}{}
		changed = append(changed, cleanPath)
	}
	return state.apply(ctx, index, changed)
}

// Collapse removes paths and every expanded directory beneath them from the
// index. The root stays expanded.
func (state *State) Collapse(ctx context.Context, paths ...string) (*types.Node, error) {
	state.mutex.Lock()
	defer state.mutex.Unlock()
	return state.collapse(ctx, paths)
}

func (state *State) collapse(ctx context.Context, paths []string) (*types.Node, error) {
	if state.snapshot == nil {
		return nil, ErrNotOpen
	}
	index := state.index.Clone()
	changed := make([]string, 0, len(paths))
	for _, path := range paths {
		cleanPath := filepath.Clean(path)
		if cleanPath == state.root {
			continue
		}
		removed := false
		for expandedPath := range index {
			if utils.IsWithin(cleanPath, expandedPath) {
				delete(index, expandedPath)
				removed = true
			}
		}
		if removed {
			changed = append(changed, cleanPath)
		}
	}
	return state.apply(ctx, index, changed)
}

// Toggle collapses path when it is expanded and expands it otherwise.
func (state *State) Toggle(ctx context.Context, path string) (*types.Node, error) {
	state.mutex.Lock()
	defer state.mutex.Unlock()
	if state.index.Contains(filepath.Clean(path)) {
		return state.collapse(ctx, []string{path})
	}
	return state.expand(ctx, []string{path})
}

// Refresh re-reads the subtrees containing the changed paths.
func (state *State) Refresh(ctx context.Context, changed []string) (*types.Node, error) {
	state.mutex.Lock()
	defer state.mutex.Unlock()
	if state.snapshot == nil {
		return nil, ErrNotOpen
	}
	return state.apply(ctx, state.index, changed)
}

// Snapshot returns the current tree and a copy of its expansion index.
func (state *State) Snapshot() (*types.Node, types.ExpansionIndex) {
	state.mutex.Lock()
	defer state.mutex.Unlock()
	return state.snapshot, state.index.Clone()
}

// Root returns the opened root path.
func (state *State) Root() string {
	state.mutex.Lock()
	defer state.mutex.Unlock()
	return state.root
}

// ExpandedDirectories lists the directories of the current snapshot that were
// listed by the last walk.
func (state *State) ExpandedDirectories() []string {
	state.mutex.Lock()
	defer state.mutex.Unlock()
	var directories []string
	collectListed(state.snapshot, &directories)
	return directories
}

func (state *State) apply(ctx context.Context, index types.ExpansionIndex, changed []string) (*types.Node, error) {
	if len(changed) == 0 {
		state.index = index
		return state.snapshot, nil
	}
	snapshot, updateError := state.cartographer.Update(ctx, state.snapshot, index, changed)
	if updateError != nil {
		return nil, updateError
	}
	state.publish(index, snapshot, changed)
	return snapshot, nil
}

func (state *State) publish(index types.ExpansionIndex, snapshot *types.Node, changed []string) {
	state.index = index
	state.snapshot = snapshot
	state.logger.Debug(logMessageSnapshotUpdated,
		zap.String(logFieldRoot, state.root),
		zap.Int(logFieldExpanded, len(index)),
		zap.Strings(logFieldChanges, changed))
}

func collectListed(node *types.Node, directories *[]string) {
	if node == nil || node.Children == nil {
		return
	}
	*directories = append(*directories, node.Path)
	for _, child := range node.Children {
		collectListed(child, directories)
	}
}
