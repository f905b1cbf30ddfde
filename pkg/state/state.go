package state

import (
	"context"

	"github.com/cbodonnell/tileworld/pkg/messages"
)

// StateManager provides shared access to the latest world snapshot.
// Implementations must be thread-safe.
type StateManager interface {
	// Get returns the current snapshot.
	Get(ctx context.Context) (*messages.WorldSnapshot, error)
	// Set replaces the current snapshot.
	Set(ctx context.Context, snapshot *messages.WorldSnapshot) error
}
