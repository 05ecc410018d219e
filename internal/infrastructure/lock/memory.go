// Package lock provides port.TripLocker implementations: an in-process
// keyed mutex for single instances and a Redis lease for shared deployments.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/entity"
)

// DefaultWait bounds how long a writer queues behind another writer of the same trip
const DefaultWait = 5 * time.Second

type memoryEntry struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker serializes writers per trip inside one process
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	wait    time.Duration
}

// NewMemoryLocker creates a locker that gives up after wait
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &MemoryLocker{
		entries: make(map[string]*memoryEntry),
		wait:    wait,
	}
}

// Lock blocks until the trip is free, the wait limit passes, or ctx ends
func (l *MemoryLocker) Lock(ctx context.Context, tripID string) (func(), error) {
	e := l.acquireEntry(tripID)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case e.ch <- struct{}{}:
	case <-timer.C:
		l.releaseEntry(tripID)
		return nil, fmt.Errorf("%w: trip %s is locked by another writer", entity.ErrConcurrentModification, tripID)
	case <-ctx.Done():
		l.releaseEntry(tripID)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.releaseEntry(tripID)
		})
	}, nil
}

func (l *MemoryLocker) acquireEntry(tripID string) *memoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[tripID]
	if !ok {
		e = &memoryEntry{ch: make(chan struct{}, 1)}
		l.entries[tripID] = e
	}
	e.refs++
	return e
}

func (l *MemoryLocker) releaseEntry(tripID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[tripID]
	e.refs--
	if e.refs == 0 {
		delete(l.entries, tripID)
	}
}

// Verify interface compliance
var _ port.TripLocker = (*MemoryLocker)(nil)
