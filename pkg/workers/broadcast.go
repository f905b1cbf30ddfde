package workers

import (
	"context"
	"errors"
	"time"

	"github.com/cbodonnell/tileworld/pkg/log"
	"github.com/cbodonnell/tileworld/pkg/messages"
	"github.com/cbodonnell/tileworld/pkg/state"
)

// DefaultBroadcastInterval is how often observers receive a snapshot.
const DefaultBroadcastInterval = 50 * time.Millisecond

// Broadcaster fans a serialized message out to connected observers.
type Broadcaster interface {
	Broadcast(data []byte)
}

// BroadcastWorker pushes the latest published snapshot to observers on a fixed interval.
// Snapshots that were already sent are skipped.
type BroadcastWorker struct {
	stateManager state.StateManager
	broadcaster  Broadcaster
	interval     time.Duration

	lastTick uint64
	sent     bool
}

type NewBroadcastWorkerOptions struct {
	StateManager state.StateManager
	Broadcaster  Broadcaster
	Interval     time.Duration
}

func NewBroadcastWorker(opts NewBroadcastWorkerOptions) *BroadcastWorker {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	return &BroadcastWorker{
		stateManager: opts.StateManager,
		broadcaster:  opts.Broadcaster,
		interval:     interval,
	}
}

// Start broadcasts until ctx is done.
func (w *BroadcastWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.broadcast(ctx); err != nil {
				log.Error("Failed to broadcast snapshot: %v", err)
			}
		}
	}
}

func (w *BroadcastWorker) broadcast(ctx context.Context) error {
	snapshot, err := w.stateManager.Get(ctx)
	if err != nil {
		if errors.Is(err, state.ErrNoSnapshot) {
			return nil
		}
		return err
	}
	if w.sent && snapshot.Tick == w.lastTick {
		return nil
	}

	data, err := messages.SerializeSnapshot(snapshot)
	if err != nil {
		return err
	}
	w.broadcaster.Broadcast(data)
	w.lastTick = snapshot.Tick
	w.sent = true
	return nil
}
