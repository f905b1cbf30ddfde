package state

import (
	"context"
	"errors"
	"sync"

	"github.com/cbodonnell/tileworld/pkg/messages"
)

// ErrNoSnapshot is returned by Get before the first snapshot is published.
var ErrNoSnapshot = errors.New("no snapshot published yet")

// InMemoryStateManager holds the latest snapshot. Snapshots are immutable once published,
// so Get hands out the shared pointer.
type InMemoryStateManager struct {
	lock     sync.RWMutex
	snapshot *messages.WorldSnapshot
}

func NewInMemoryStateManager() *InMemoryStateManager {
	return &InMemoryStateManager{}
}

func (m *InMemoryStateManager) Get(ctx context.Context) (*messages.WorldSnapshot, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return m.snapshot, nil
}

func (m *InMemoryStateManager) Set(ctx context.Context, snapshot *messages.WorldSnapshot) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if snapshot == nil {
		return errors.New("snapshot is nil")
	}

	m.snapshot = snapshot
	return nil
}
