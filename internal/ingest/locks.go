package ingest

import (
	"context"
	"sync"

	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

// collectionLocks serializes runs per collection. Waiting honours ctx.
type collectionLocks struct {
	mu    sync.Mutex
	slots map[models.Collection]chan struct{}
}

func newCollectionLocks() *collectionLocks {
	return &collectionLocks{slots: make(map[models.Collection]chan struct{})}
}

func (l *collectionLocks) slot(coll models.Collection) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[coll]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[coll] = s
	}
	return s
}

func (l *collectionLocks) acquire(ctx context.Context, coll models.Collection) (func(), error) {
	s := l.slot(coll)
	select {
	case s <- struct{}{}:
		return func() { <-s }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
