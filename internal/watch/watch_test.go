package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tyemirov/arbor/internal/cartographer"
	"github.com/tyemirov/arbor/internal/session"
	"github.com/tyemirov/arbor/internal/types"
	"github.com/tyemirov/arbor/internal/watch"
)

const (
	testDebounce = 20 * time.Millisecond
	testTimeout  = 5 * time.Second
)

func newNotifier(t *testing.T) *watch.Notifier {
	t.Helper()
	notifier, err := watch.NewNotifier(watch.Options{
		Debounce: testDebounce,
		Ignore: func(name string, _ string) bool {
			return filepath.Ext(name) == ".swp"
		},
	})
	if err != nil {
		t.Fatalf("NewNotifier error: %v", err)
	}
	t.Cleanup(func() { _ = notifier.Close() })
	return notifier
}

func TestSyncTracksDirectories(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "first")
	second := filepath.Join(root, "second")
	for _, directory := range []string{first, second} {
		if err := os.Mkdir(directory, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	notifier := newNotifier(t)
	notifier.Sync([]string{first, second, filepath.Join(root, "missing")})
	if watched := notifier.Watched(); len(watched) != 2 {
		t.Fatalf("expected two watched directories, got %v", watched)
	}
	notifier.Sync([]string{second})
	if watched := notifier.Watched(); len(watched) != 1 || watched[0] != second {
		t.Fatalf("expected only %s, got %v", second, watched)
	}
}

func TestBatchesReportParentDirectories(t *testing.T) {
	root := t.TempDir()
	notifier := newNotifier(t)
	notifier.Sync([]string{root})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := notifier.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := notifier.Start(ctx); err != watch.ErrStarted {
		t.Fatalf("expected ErrStarted, got %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "ignored.swp"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, name := range []string{"a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(root, name), nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	select {
	case batch := <-notifier.Batches():
		if len(batch) != 1 || batch[0] != root {
			t.Fatalf("expected batch [%s], got %v", root, batch)
		}
	case <-time.After(testTimeout):
		t.Fatalf("timed out waiting for a batch")
	}

	cancel()
	closed := time.After(testTimeout)
	for {
		select {
		case _, open := <-notifier.Batches():
			if !open {
				return
			}
		case <-closed:
			t.Fatalf("expected batches channel to close")
		}
	}
}

func TestRunAppliesBatchesToState(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "nested")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	state := session.New(cartographer.New(cartographer.Options{Workers: 2}), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := state.Open(ctx, root, nested); err != nil {
		t.Fatalf("Open error: %v", err)
	}

	notifier := newNotifier(t)
	updates := make(chan *types.Node, 8)
	done := make(chan error, 1)
	go func() {
		done <- notifier.Run(ctx, state, func(snapshot *types.Node) { updates <- snapshot })
	}()

	created := filepath.Join(nested, "created.txt")
	deadline := time.After(testTimeout)
	for {
		_ = os.Remove(created)
		if err := os.WriteFile(created, nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		select {
		case snapshot := <-updates:
			if _, found := snapshot.Children[nested].Children[created]; found {
				cancel()
				if runError := <-done; runError != context.Canceled {
					t.Fatalf("expected context.Canceled from Run, got %v", runError)
				}
				return
			}
		case <-time.After(10 * testDebounce):
		case <-deadline:
			t.Fatalf("timed out waiting for %s to appear", created)
		}
	}
}
