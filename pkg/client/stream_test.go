package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cbodonnell/tileworld/pkg/messages"
	"github.com/cbodonnell/tileworld/pkg/network"
	"github.com/cbodonnell/tileworld/pkg/queue"
	"github.com/cbodonnell/tileworld/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream(t *testing.T) {
	clients := network.NewClientManager()
	router := network.NewRouter(network.NewServerOptions{
		Commands: queue.NewInMemoryQueue(1),
		State:    state.NewInMemoryStateManager(),
	}, clients)
	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots := queue.NewInMemoryQueue(4)
	api := NewAPIClient(NewAPIClientOptions{BaseURL: server.URL})
	stream := NewStream(NewStreamOptions{URL: api.StreamURL(), Snapshots: snapshots, PingInterval: 10 * time.Millisecond})
	require.NoError(t, stream.Connect(ctx))

	done := make(chan error, 1)
	go func() { done <- stream.HandleMessages(ctx) }()
	go stream.StartPinging(ctx)

	require.Eventually(t, func() bool { return clients.Count() == 1 }, 5*time.Second, 10*time.Millisecond)

	data, err := messages.SerializeSnapshot(&messages.WorldSnapshot{Tick: 12, ActiveScreen: "town"})
	require.NoError(t, err)
	clients.Broadcast(data)

	require.Eventually(t, func() bool { return snapshots.Size() == 1 }, 5*time.Second, 10*time.Millisecond)
	item, err := snapshots.Dequeue()
	require.NoError(t, err)
	snapshot, ok := item.(*messages.WorldSnapshot)
	require.True(t, ok)
	assert.Equal(t, uint64(12), snapshot.Tick)

	// pongs arrive and are folded into the ping estimate
	stream.pingLock.Lock()
	stream.recentRTTs = nil
	stream.pingLock.Unlock()
	require.Eventually(t, func() bool {
		stream.pingLock.Lock()
		defer stream.pingLock.Unlock()
		return len(stream.recentRTTs) > 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, stream.Ping(), 0.0)

	clients.CloseAll()
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not notice the closed connection")
	}
	assert.Eventually(t, func() bool { return clients.Count() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestStream_CloseWhileReading(t *testing.T) {
	clients := network.NewClientManager()
	router := network.NewRouter(network.NewServerOptions{
		Commands: queue.NewInMemoryQueue(1),
		State:    state.NewInMemoryStateManager(),
	}, clients)
	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := NewAPIClient(NewAPIClientOptions{BaseURL: server.URL})
	stream := NewStream(NewStreamOptions{URL: api.StreamURL(), Snapshots: queue.NewInMemoryQueue(1)})
	require.NoError(t, stream.Connect(ctx))

	done := make(chan error, 1)
	go func() { done <- stream.HandleMessages(ctx) }()
	require.Eventually(t, func() bool { return clients.Count() == 1 }, 5*time.Second, 10*time.Millisecond)

	closeErrs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { closeErrs <- stream.Close() }()
	}
	for i := 0; i < 2; i++ {
		<-closeErrs
	}

	select {
	case err := <-done:
		assert.NoError(t, err, "a locally closed stream is not a server error")
	case <-time.After(5 * time.Second):
		t.Fatal("HandleMessages did not return after Close")
	}
	assert.NoError(t, stream.HandleMessages(ctx))
	assert.ErrorIs(t, stream.sendPing(ctx), ErrNotConnected)
}

func TestStream_NotConnected(t *testing.T) {
	stream := NewStream(NewStreamOptions{Snapshots: queue.NewInMemoryQueue(1)})
	assert.ErrorIs(t, stream.HandleMessages(context.Background()), ErrNotConnected)
	assert.NoError(t, stream.Close())
}

func TestStream_DropsWhenFull(t *testing.T) {
	snapshots := queue.NewInMemoryQueue(1)
	stream := NewStream(NewStreamOptions{Snapshots: snapshots})
	for tick := uint64(1); tick <= 3; tick++ {
		data, err := messages.SerializeSnapshot(&messages.WorldSnapshot{Tick: tick})
		require.NoError(t, err)
		require.NoError(t, stream.handleMessage(data))
	}
	assert.Equal(t, 1, snapshots.Size())

	data, err := messages.SerializeMessage(&messages.Message{Type: messages.MessageTypeClientPing})
	require.NoError(t, err)
	assert.Error(t, stream.handleMessage(data))
}
