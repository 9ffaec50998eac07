// Package cartographer materialises directory trees for the file browser.
//
// A walk visits the filesystem breadth first, one level per round, spreading
// each level over a bounded pool of workers and descending only into
// directories present in the caller's expansion index. An update re-walks only
// the subtrees that contain changed paths and shares every other subtree with
// the previous snapshot.
package cartographer

import (
	"context"

	"go.uber.org/zap"

	"github.com/tyemirov/arbor/internal/ignore"
	"github.com/tyemirov/arbor/internal/types"
)

// Options configures a Cartographer.
type Options struct {
	// Pool is shared by every walk; when nil a pool of Workers slots is created.
	Pool      *Pool
	Workers   int
	BatchSize int
	Ignore    ignore.Predicate
	Logger    *zap.Logger
}

// Cartographer walks and incrementally updates tree snapshots.
type Cartographer struct {
	walker *Walker
	logger *zap.Logger
}

// New constructs a Cartographer.
func New(options Options) *Cartographer {
	pool := options.Pool
	if pool == nil {
		pool = NewPool(options.Workers)
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cartographer{
		walker: NewWalker(WalkerOptions{
			Pool:      pool,
			BatchSize: options.BatchSize,
			Ignore:    options.Ignore,
			Logger:    logger,
		}),
		logger: logger,
	}
}

// Walk materialises the tree rooted at root.
func (cartographer *Cartographer) Walk(ctx context.Context, root string, index types.ExpansionIndex) (*types.Node, error) {
	nodes, walkError := cartographer.walker.Walk(ctx, []string{root}, index)
	if walkError != nil {
		return nil, walkError
	}
	return Assemble(nodes)
}
