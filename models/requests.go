package models

// ChatRequest is the body of POST /chat and POST /chat/document.
type ChatRequest struct {
	Message      string     `json:"message" binding:"required"`
	SessionID    string     `json:"sessionId,omitempty"`
	Files        []FileMeta `json:"files,omitempty"`
	DocumentText string     `json:"documentText,omitempty"`
}

// SocketRequest is a frame sent by the client over the chat WebSocket.
type SocketRequest struct {
	Type      string     `json:"type"` // "message", "ping"
	Message   string     `json:"message"`
	SessionID string     `json:"sessionId,omitempty"`
	Files     []FileMeta `json:"files,omitempty"`
}

// Socket frame types
const (
	SocketMessage = "message"
	SocketPing    = "ping"
	SocketReply   = "reply"
	SocketError   = "error"
	SocketPong    = "pong"
)
