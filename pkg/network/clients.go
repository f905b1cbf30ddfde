package network

import (
	"sync"

	"github.com/cbodonnell/tileworld/pkg/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// ClientSendBufferSize is how many outgoing messages a client may fall behind by before
	// broadcasts to it are dropped.
	ClientSendBufferSize = 16
)

// Client is a connected observer.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
}

// ClientManager tracks connected observers and fans snapshots out to them.
type ClientManager struct {
	clients     map[string]*Client
	clientsLock sync.RWMutex
}

// NewClientManager creates a new ClientManager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[string]*Client),
	}
}

// ConnectClient registers a connection and returns its client.
func (cm *ClientManager) ConnectClient(conn *websocket.Conn) *Client {
	client := &Client{
		ID:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, ClientSendBufferSize),
	}

	cm.clientsLock.Lock()
	cm.clients[client.ID] = client
	cm.clientsLock.Unlock()

	log.Debug("Client %s connected", client.ID)
	return client
}

// DisconnectClient removes a client and closes its send channel. Unknown IDs are ignored.
func (cm *ClientManager) DisconnectClient(clientID string) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	client, ok := cm.clients[clientID]
	if !ok {
		return
	}
	delete(cm.clients, clientID)
	close(client.send)
	log.Debug("Client %s disconnected", clientID)
}

func (cm *ClientManager) Exists(clientID string) bool {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	_, ok := cm.clients[clientID]
	return ok
}

// Count returns the number of connected clients.
func (cm *ClientManager) Count() int {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	return len(cm.clients)
}

// Broadcast queues a serialized message for every client. Clients whose buffer is full miss it
// rather than stalling the others.
func (cm *ClientManager) Broadcast(data []byte) {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	for _, client := range cm.clients {
		select {
		case client.send <- data:
		default:
			log.Trace("Dropping message for slow client %s", client.ID)
		}
	}
}

// sendTo queues data for one client. It reports false if the client is gone or its buffer is full.
func (cm *ClientManager) sendTo(clientID string, data []byte) bool {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	client, ok := cm.clients[clientID]
	if !ok {
		return false
	}
	select {
	case client.send <- data:
		return true
	default:
		return false
	}
}

// CloseAll closes every client connection. Their read loops then disconnect them.
func (cm *ClientManager) CloseAll() {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	for _, client := range cm.clients {
		client.conn.Close()
	}
}
