package cartographer

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many walk batches run at the same time. One pool may be
// shared by every walk of a process so concurrent walks do not multiply the
// number of goroutines touching the filesystem.
type Pool struct {
	size      int
	semaphore *semaphore.Weighted
}

// NewPool returns a pool with size slots; a non-positive size uses the number of CPUs.
func NewPool(size int) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	return &Pool{size: size, semaphore: semaphore.NewWeighted(int64(size))}
}

// Size returns the number of concurrent batches the pool admits.
func (pool *Pool) Size() int {
	return pool.size
}

func (pool *Pool) acquire(ctx context.Context) error {
	return pool.semaphore.Acquire(ctx, 1)
}

func (pool *Pool) release() {
	pool.semaphore.Release(1)
}

// appendQueue is an unordered queue that many producers append to during a
// round and a single consumer drains between rounds.
type appendQueue[T any] struct {
	mutex sync.Mutex
	items []T
}

func (queue *appendQueue[T]) push(items ...T) {
	queue.mutex.Lock()
	queue.items = append(queue.items, items...)
	queue.mutex.Unlock()
}

func (queue *appendQueue[T]) drain() []T {
	queue.mutex.Lock()
	defer queue.mutex.Unlock()
	drained := queue.items
	queue.items = nil
	return drained
}

// chunk splits items into consecutive batches of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
