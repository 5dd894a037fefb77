package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a role a conversation may contain.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// MessageStatusFailed marks a client-side message whose send did not complete.
// The server never persists a message with a status.
const MessageStatusFailed = "failed"

// FileMeta describes a file attached to a message. Only metadata travels with
// the conversation; file contents are handled by the upload layer.
type FileMeta struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Size  int64  `json:"size"`
	Pages *int   `json:"pages,omitempty"`
}

// Message is one entry of a conversation. Messages are append-only and ordered
// by insertion.
type Message struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Files     []FileMeta `json:"files,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Status    string     `json:"status,omitempty"`
}

// Failed reports whether the message is a client-side send failure.
func (m Message) Failed() bool {
	return m.Status == MessageStatusFailed
}

type TaskType string

const (
	TaskGeneral  TaskType = "general"
	TaskDocument TaskType = "document"
)

// UserContext is what the assistant knows about the person it is talking to.
type UserContext struct {
	UserID    string   `json:"userId"`
	UserName  string   `json:"userName"`
	UserRole  string   `json:"userRole"`
	UserBio   string   `json:"userBio"`
	TaskType  TaskType `json:"taskType"`
	SessionID string   `json:"sessionId,omitempty"`
}

// AIReply is the resolved answer of the AI collaborator.
type AIReply struct {
	Response string `json:"response"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// GenerateRequest is a single completion request handed to a provider. History
// holds the prior turns, oldest first; Message is the new user turn.
type GenerateRequest struct {
	SystemPrompt string
	History      []Message
	Message      string
}
