package messages

import "encoding/json"

const (
	// MessageBufferSize represents the maximum size of a message
	MessageBufferSize = 1 << 20
)

type MessageType string

// Message types
const (
	MessageTypeClientPing     MessageType = "ping"
	MessageTypeServerPong     MessageType = "pong"
	MessageTypeServerSnapshot MessageType = "snapshot"
)

// Message represents a generic message for serialization/deserialization
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
