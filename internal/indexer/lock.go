package indexer

import (
	"sync"
	"sync/atomic"
)

// rebuildLock provides non-blocking lock semantics for the full rebuild
// path. A second rebuild arriving while one runs is rejected rather than
// queued, since it would only redo the same work.
type rebuildLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *rebuildLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *rebuildLock) Release() {
	l.state.Store(0)
}

// entryLocks serializes operations per changelog entry. Updates to
// different entries proceed concurrently; two operations on the same entry
// run in arrival order, so the store ends up reflecting the last write.
type entryLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newEntryLocks() *entryLocks {
	return &entryLocks{locks: make(map[int64]*sync.Mutex)}
}

func (e *entryLocks) lock(changelogID int64) *sync.Mutex {
	e.mu.Lock()
	m, ok := e.locks[changelogID]
	if !ok {
		m = &sync.Mutex{}
		e.locks[changelogID] = m
	}
	e.mu.Unlock()

	m.Lock()
	return m
}
