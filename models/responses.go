package models

import "time"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps every HTTP response body.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ChatReply is the data of a successful chat turn. Title is only set when the
// turn created the session or changed its title.
type ChatReply struct {
	SessionID    string    `json:"sessionId"`
	Title        string    `json:"title,omitempty"`
	Reply        string    `json:"reply"`
	Timestamp    time.Time `json:"timestamp"`
	MessageCount int       `json:"messageCount"`
}

// SocketResponse is a frame written to the client over the chat WebSocket.
type SocketResponse struct {
	Type    string     `json:"type"` // "reply", "error", "pong"
	Message string     `json:"message,omitempty"`
	Data    *ChatReply `json:"data,omitempty"`
}
