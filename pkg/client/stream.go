package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cbodonnell/tileworld/pkg/log"
	"github.com/cbodonnell/tileworld/pkg/messages"
	"github.com/cbodonnell/tileworld/pkg/queue"
	"nhooyr.io/websocket"
)

// ErrNotConnected is returned when the stream is used before Connect.
var ErrNotConnected = errors.New("stream is not connected")

const (
	// streamReadLimit bounds one snapshot envelope.
	streamReadLimit = 8 << 20
	recentRTTCount  = 10
)

// Stream receives world snapshots over the server's WebSocket and queues them for the renderer.
type Stream struct {
	url          string
	snapshots    queue.Queue
	pingInterval time.Duration

	connLock sync.Mutex
	conn     *websocket.Conn
	closed   bool

	pingLock   sync.Mutex
	ping       float64
	recentRTTs []int64
}

type NewStreamOptions struct {
	URL string
	// Snapshots receives *messages.WorldSnapshot values. Snapshots that do not fit are dropped.
	Snapshots    queue.Queue
	PingInterval time.Duration
}

func NewStream(opts NewStreamOptions) *Stream {
	interval := opts.PingInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Stream{
		url:          opts.URL,
		snapshots:    opts.Snapshots,
		pingInterval: interval,
	}
}

// Connect dials the snapshot stream.
func (s *Stream) Connect(ctx context.Context) error {
	log.Info("Connecting to snapshot stream at %s", s.url)
	conn, _, err := websocket.Dial(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	conn.SetReadLimit(streamReadLimit)

	s.connLock.Lock()
	defer s.connLock.Unlock()
	s.conn = conn
	s.closed = false
	return nil
}

func (s *Stream) connection() (*websocket.Conn, bool) {
	s.connLock.Lock()
	defer s.connLock.Unlock()
	return s.conn, s.closed
}

// HandleMessages reads until the connection closes or ctx is done. A stream closed with Close
// returns nil.
func (s *Stream) HandleMessages(ctx context.Context) error {
	conn, closed := s.connection()
	if closed {
		return nil
	}
	if conn == nil {
		return ErrNotConnected
	}
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if _, closed := s.connection(); closed {
				return nil
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return &ErrConnectionClosedByServer{}
			}
			return fmt.Errorf("failed to read from stream: %w", err)
		}

		if err := s.handleMessage(data); err != nil {
			log.Error("Failed to handle message: %v", err)
		}
	}
}

func (s *Stream) handleMessage(data []byte) error {
	msg, err := messages.DeserializeMessage(data)
	if err != nil {
		return err
	}
	log.Trace("Received message of type %s", msg.Type)

	switch msg.Type {
	case messages.MessageTypeServerSnapshot:
		snapshot, err := messages.SnapshotFromMessage(msg)
		if err != nil {
			return err
		}
		if err := s.snapshots.Enqueue(snapshot); err != nil {
			if errors.Is(err, queue.ErrQueueFull) {
				log.Trace("Dropping snapshot %d", snapshot.Tick)
				return nil
			}
			return fmt.Errorf("failed to enqueue snapshot: %w", err)
		}
	case messages.MessageTypeServerPong:
		return s.handlePong(msg)
	default:
		return fmt.Errorf("received unexpected message type: %s", msg.Type)
	}
	return nil
}

func (s *Stream) handlePong(msg *messages.Message) error {
	sentAt, err := strconv.ParseInt(string(msg.Payload), 10, 64)
	if err != nil {
		return fmt.Errorf("failed to parse pong payload: %w", err)
	}
	rtt := time.Now().UnixMilli() - sentAt

	s.pingLock.Lock()
	defer s.pingLock.Unlock()
	s.recentRTTs = append(s.recentRTTs, rtt)
	for len(s.recentRTTs) > recentRTTCount {
		s.recentRTTs = s.recentRTTs[1:]
	}
	s.ping = averagePing(s.recentRTTs)
	return nil
}

// StartPinging measures round trips until ctx is done.
func (s *Stream) StartPinging(ctx context.Context) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		if err := s.sendPing(ctx); err != nil {
			log.Debug("Failed to ping: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Stream) sendPing(ctx context.Context) error {
	payload, err := json.Marshal(time.Now().UnixMilli())
	if err != nil {
		return err
	}
	b, err := messages.SerializeMessage(&messages.Message{Type: messages.MessageTypeClientPing, Payload: payload})
	if err != nil {
		return err
	}
	conn, closed := s.connection()
	if conn == nil || closed {
		return ErrNotConnected
	}
	return conn.Write(ctx, websocket.MessageBinary, b)
}

// Ping returns the smoothed round trip time in milliseconds.
func (s *Stream) Ping() float64 {
	s.pingLock.Lock()
	defer s.pingLock.Unlock()
	return s.ping
}

// Close closes the connection. It is safe to call while HandleMessages is running.
func (s *Stream) Close() error {
	s.connLock.Lock()
	conn, closed := s.conn, s.closed
	s.closed = true
	s.connLock.Unlock()

	if conn == nil || closed {
		log.Warn("Stream is already closed")
		return nil
	}
	return conn.Close(websocket.StatusNormalClosure, "")
}
