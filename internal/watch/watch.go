// Package watch turns filesystem notifications for the listed directories of a
// tree into debounced batches of changed directories.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/tyemirov/arbor/internal/fsops"
	"github.com/tyemirov/arbor/internal/ignore"
	"github.com/tyemirov/arbor/internal/session"
	"github.com/tyemirov/arbor/internal/types"
)

// DefaultDebounce is the quiet period that closes a batch.
const DefaultDebounce = 100 * time.Millisecond

const (
	relevantOperations = fsnotify.Create | fsnotify.Remove | fsnotify.Rename | fsnotify.Chmod

	logMessageWatchError   = "watcher error"
	logMessageWatchAdd     = "watch directory failed"
	logMessageBatchApplied = "change batch applied"
	logMessageRefreshError = "refresh failed"
	logFieldDirectory      = "directory"
	logFieldDirectories    = "directories"
	logFieldWatched        = "watched"
)

// ErrStarted is returned when Start is called twice.
var ErrStarted = errors.New("notifier already started")

// Options configures a Notifier.
type Options struct {
	Debounce time.Duration
	Ignore   ignore.Predicate
	Logger   *zap.Logger
}

// Notifier watches a set of directories and emits batches of the parent
// directories of changed entries.
type Notifier struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	ignore   ignore.Predicate
	logger   *zap.Logger
	batches  chan []string

	mutex   sync.Mutex
	watched map[string]struct{}
	started bool
}

// NewNotifier creates a Notifier with no watched directories.
func NewNotifier(options Options) (*Notifier, error) {
	watcher, watcherError := fsnotify.NewWatcher()
	if watcherError != nil {
		return nil, watcherError
	}
	debounce := options.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		watcher:  watcher,
		debounce: debounce,
		ignore:   options.Ignore,
		logger:   logger,
		batches:  make(chan []string),
		watched:  make(map[string]struct{}),
	}, nil
}

// Sync makes the watched set equal to directories. Directories that cannot be
// watched are logged and skipped.
func (notifier *Notifier) Sync(directories []string) {
	desired := make(map[string]struct{}, len(directories))
	for _, directory := range directories {
		desired[filepath.Clean(directory)] = struct{}{}
	}

	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	for directory := range notifier.watched {
		if _, keep := desired[directory]; keep {
			continue
		}
		_ = notifier.watcher.Remove(directory)
		delete(notifier.watched, directory)
	}
	for directory := range desired {
		if _, present := notifier.watched[directory]; present {
			continue
		}
		if addError := notifier.watcher.Add(directory); addError != nil {
			notifier.logger.Debug(logMessageWatchAdd, zap.String(logFieldDirectory, directory), zap.Error(addError))
			continue
		}
		notifier.watched[directory] = struct{}{}
	}
}

// Watched returns the watched directories in sorted order.
func (notifier *Notifier) Watched() []string {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	directories := make([]string, 0, len(notifier.watched))
	for directory := range notifier.watched {
		directories = append(directories, directory)
	}
	sort.Strings(directories)
	return directories
}

// Batches delivers the changed directories of each debounced batch. The
// channel is closed when the notifier stops.
func (notifier *Notifier) Batches() <-chan []string {
	return notifier.batches
}

// Start runs the event loop until ctx is cancelled or the notifier is closed.
func (notifier *Notifier) Start(ctx context.Context) error {
	notifier.mutex.Lock()
	if notifier.started {
		notifier.mutex.Unlock()
		return ErrStarted
	}
	notifier.started = true
	notifier.mutex.Unlock()

	go notifier.loop(ctx)
	return nil
}

// Close stops watching every directory.
func (notifier *Notifier) Close() error {
	return notifier.watcher.Close()
}

// Run keeps state in sync with the filesystem: every batch is applied with
// State.Refresh, the resulting snapshot is handed to onUpdate and the watched
// set is re-synchronised with the listed directories. Run returns when ctx is
// cancelled.
func (notifier *Notifier) Run(ctx context.Context, state *session.State, onUpdate func(*types.Node)) error {
	notifier.Sync(state.ExpandedDirectories())
	if startError := notifier.Start(ctx); startError != nil {
		return startError
	}
	for batch := range notifier.batches {
		snapshot, refreshError := state.Refresh(ctx, batch)
		if refreshError != nil {
			if ctx.Err() != nil {
				break
			}
			notifier.logger.Warn(logMessageRefreshError, zap.Strings(logFieldDirectories, batch), zap.Error(refreshError))
			continue
		}
		notifier.Sync(state.ExpandedDirectories())
		notifier.logger.Info(logMessageBatchApplied,
			zap.Strings(logFieldDirectories, batch),
			zap.Int(logFieldWatched, len(notifier.Watched())))
		if onUpdate != nil {
			onUpdate(snapshot)
		}
	}
	return ctx.Err()
}

func (notifier *Notifier) loop(ctx context.Context) {
	defer close(notifier.batches)

	pending := make(map[string]struct{})
	timer := time.NewTimer(notifier.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-notifier.watcher.Events:
			if !ok {
				return
			}
			if !notifier.relevant(event) {
				continue
			}
			pending[filepath.Dir(filepath.Clean(event.Name))] = struct{}{}
			timer.Reset(notifier.debounce)
		case watchError, ok := <-notifier.watcher.Errors:
			if !ok {
				return
			}
			notifier.logger.Warn(logMessageWatchError, zap.Error(watchError))
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			directories := make([]string, 0, len(pending))
			for directory := range pending {
				directories = append(directories, directory)
			}
			pending = make(map[string]struct{})
			select {
			case notifier.batches <- fsops.Unify(directories):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (notifier *Notifier) relevant(event fsnotify.Event) bool {
	if event.Op&relevantOperations == 0 {
		return false
	}
	if notifier.ignore == nil {
		return true
	}
	return !notifier.ignore(filepath.Base(event.Name), event.Name)
}
