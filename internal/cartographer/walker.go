package cartographer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tyemirov/arbor/internal/ignore"
	"github.com/tyemirov/arbor/internal/types"
)

// DefaultBatchSize is the number of paths one task processes before yielding its slot.
const DefaultBatchSize = 30

const (
	// errorSeedMissingFormat reports a walk root that does not exist.
	errorSeedMissingFormat = "walk root %s: %w"

	logMessageSkipEntry     = "skipping entry"
	logMessageEntryVanished = "entry vanished before stat"
	logMessageSkipListing   = "skipping directory listing"
	logMessageRound         = "walk round"
)

// WalkerOptions configures a Walker.
type WalkerOptions struct {
	Pool      *Pool
	BatchSize int
	Ignore    ignore.Predicate
	Logger    *zap.Logger
}

// Walker performs level-synchronous breadth-first walks bounded by an expansion index.
type Walker struct {
	pool      *Pool
	batchSize int
	ignore    ignore.Predicate
	logger    *zap.Logger
}

// NewWalker constructs a Walker, filling unset options with defaults.
func NewWalker(options WalkerOptions) *Walker {
	walker := &Walker{
		pool:      options.Pool,
		batchSize: options.BatchSize,
		ignore:    options.Ignore,
		logger:    options.Logger,
	}
	if walker.pool == nil {
		walker.pool = NewPool(0)
	}
	if walker.batchSize < 1 {
		walker.batchSize = DefaultBatchSize
	}
	if walker.logger == nil {
		walker.logger = zap.NewNop()
	}
	return walker
}

// Walk discovers every node reachable from roots through expanded directories
// and returns them in no particular order. Entries that cannot be stat'ed or
// listed are skipped; a root that does not exist yields an orphan node.
// Cancelling ctx stops the walk before the next round starts.
func (walker *Walker) Walk(ctx context.Context, roots []string, index types.ExpansionIndex) ([]*types.Node, error) {
	return walker.walk(ctx, roots, index, false)
}

// walk runs the rounds. In strict mode a missing root aborts the walk with an
// error wrapping fs.ErrNotExist instead of producing an orphan node.
func (walker *Walker) walk(ctx context.Context, roots []string, index types.ExpansionIndex, strict bool) ([]*types.Node, error) {
	seeds := make(map[string]struct{}, len(roots))
	pending := make([]string, 0, len(roots))
	for _, root := range roots {
		cleanRoot := filepath.Clean(root)
		if _, duplicate := seeds[cleanRoot]; duplicate {
			continue
		}
		seeds[cleanRoot] = struct{}{}
		pending = append(pending, cleanRoot)
	}

	results := &appendQueue[*types.Node]{}
	frontier := &appendQueue[string]{}
	visited := make(map[string]struct{}, len(pending))
	round := 0

	for len(pending) > 0 {
		if contextError := ctx.Err(); contextError != nil {
			return nil, contextError
		}
		walker.logger.Debug(logMessageRound, zap.Int("round", round), zap.Int("frontier", len(pending)))

		var group errgroup.Group
		for _, batch := range chunk(pending, walker.batchSize) {
			batch := batch
			if acquireError := walker.pool.acquire(ctx); acquireError != nil {
				_ = group.Wait()
				return nil, acquireError
			}
			group.Go(func() error {
				defer walker.pool.release()
				return walker.visitBatch(batch, seeds, index, results, frontier, strict)
			})
		}
		if roundError := group.Wait(); roundError != nil {
			return nil, roundError
		}

		for _, path := range pending {
			visited[path] = struct{}{}
		}
		pending = pending[:0]
		for _, path := range frontier.drain() {
			if _, seen := visited[path]; seen {
				continue
			}
			visited[path] = struct{}{}
			pending = append(pending, path)
		}
		round++
	}

	return results.drain(), nil
}

func (walker *Walker) visitBatch(
	batch []string,
	seeds map[string]struct{},
	index types.ExpansionIndex,
	results *appendQueue[*types.Node],
	frontier *appendQueue[string],
	strict bool,
) error {
	for _, path := range batch {
		_, isSeed := seeds[path]
		node, children, visitError := walker.visit(path, isSeed, index, strict)
		if visitError != nil {
			return visitError
		}
		if node == nil {
			continue
		}
		results.push(node)
		if len(children) > 0 {
			frontier.push(children...)
		}
	}
	return nil
}

// visit builds the node for path and, for expanded directories, the child
// paths that survive the ignore predicate.
func (walker *Walker) visit(path string, isSeed bool, index types.ExpansionIndex, strict bool) (*types.Node, []string, error) {
	mode, exists, resolveError := resolveMode(path)
	if resolveError != nil {
		walker.logger.Debug(logMessageSkipEntry, zap.String("path", path), zap.Error(resolveError))
		return nil, nil, nil
	}
	if !exists {
		if !isSeed {
			walker.logger.Debug(logMessageEntryVanished, zap.String("path", path))
			return nil, nil, nil
		}
		if strict {
			return nil, nil, fmt.Errorf(errorSeedMissingFormat, path, fs.ErrNotExist)
		}
	}

	name := filepath.Base(path)
	node := &types.Node{
		Path:      path,
		Name:      name,
		Mode:      mode,
		Ancestors: Ancestors(path),
	}
	if !mode.Has(types.ModeDirectory) {
		node.Extension = splitExtension(name)
		return node, nil, nil
	}
	if !index.Contains(path) {
		return node, nil, nil
	}

	entries, readError := os.ReadDir(path)
	if readError != nil {
		walker.logger.Debug(logMessageSkipListing, zap.String("path", path), zap.Error(readError))
		return node, nil, nil
	}
	node.Children = make(map[string]*types.Node, len(entries))
	children := make([]string, 0, len(entries))
	for _, entry := range entries {
		childPath := filepath.Join(path, entry.Name())
		if walker.ignores(entry.Name(), childPath) {
			continue
		}
		children = append(children, childPath)
	}
	return node, children, nil
}

func (walker *Walker) ignores(name string, path string) bool {
	return walker.ignore != nil && walker.ignore(name, path)
}
