package network

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cbodonnell/tileworld/pkg/log"
	"github.com/cbodonnell/tileworld/pkg/messages"
	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the request and registers the connection as an observer.
// Snapshots reach it through ClientManager.Broadcast; pings are answered with pongs.
func HandleWebSocket(clientManager *ClientManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("Failed to upgrade to WebSocket: %v", err)
			return
		}
		log.Debug("New WebSocket connection from %s", conn.RemoteAddr().String())

		client := clientManager.ConnectClient(conn)
		go writePump(client)
		handleWSConnection(clientManager, client)
	}
}

// handleWSConnection reads from the client until the connection closes.
func handleWSConnection(clientManager *ClientManager, client *Client) {
	defer func() {
		clientManager.DisconnectClient(client.ID)
		client.conn.Close()
	}()

	for {
		message, err := ReadMessageFromWS(client.conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error("Error reading WebSocket message from %s: %v", client.ID, err)
			}
			log.Trace("Connection closed for %s", client.ID)
			return
		}

		switch message.Type {
		case messages.MessageTypeClientPing:
			pong, err := messages.SerializeMessage(&messages.Message{Type: messages.MessageTypeServerPong, Payload: message.Payload})
			if err != nil {
				log.Error("Failed to serialize pong: %v", err)
				continue
			}
			if !clientManager.sendTo(client.ID, pong) {
				log.Warn("Failed to queue pong for %s", client.ID)
			}
		default:
			log.Warn("Unexpected message type %s from %s", message.Type, client.ID)
		}
	}
}

// writePump is the only writer on the connection. It exits when the client is disconnected.
func writePump(client *Client) {
	for data := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := client.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			log.Debug("Failed to write to %s: %v", client.ID, err)
			client.conn.Close()
			return
		}
	}
	client.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	client.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// ReadMessageFromWS reads a Message from a WebSocket connection
func ReadMessageFromWS(conn *websocket.Conn) (*messages.Message, error) {
	_, message, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	msg, err := messages.DeserializeMessage(message)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	return msg, nil
}
