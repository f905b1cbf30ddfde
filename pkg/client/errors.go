package client

import "fmt"

// ErrConnectionClosedByServer is returned when the server ends the snapshot stream.
type ErrConnectionClosedByServer struct {
	Reason string
}

func (e *ErrConnectionClosedByServer) Error() string {
	if e.Reason == "" {
		return "connection closed by server"
	}
	return fmt.Sprintf("connection closed by server: %s", e.Reason)
}

// StatusError is returned when the server rejects a request.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}
