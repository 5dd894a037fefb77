package sessions

import (
	"context"
	"errors"
	"sync"

	"github.com/careerforge/careerforge/models"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// ErrValidation marks malformed input, rejected before any lookup.
	ErrValidation = errors.New("invalid request")
	// ErrUpstreamFailure marks a failed or timed out AI call. Nothing is
	// persisted when it is returned.
	ErrUpstreamFailure = errors.New("AI service unavailable")
)

// AIService is the AI collaborator. It owns provider selection and fallback
// and either resolves to a single reply or fails.
type AIService interface {
	ChatWithAI(ctx context.Context, message string, history []models.Message, uc models.UserContext) (models.AIReply, error)
}

// AgentError represents errors that can occur while serving a socket
type AgentError struct {
	Message string
	Fatal   bool
}

func (e *AgentError) Error() string {
	return e.Message
}

// WebSocketWriter serializes writes to a socket. gorilla/websocket allows one
// concurrent writer.
type WebSocketWriter struct {
	Conn   *websocket.Conn
	Logger *zap.Logger
	mu     sync.Mutex
}

func (w *WebSocketWriter) WriteReply(reply *models.ChatReply) error {
	return w.write(models.SocketResponse{Type: models.SocketReply, Data: reply})
}

func (w *WebSocketWriter) WriteError(message string) error {
	return w.write(models.SocketResponse{Type: models.SocketError, Message: message})
}

func (w *WebSocketWriter) write(resp models.SocketResponse) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.Conn.WriteJSON(resp); err != nil {
		if w.Logger != nil {
			w.Logger.Debug("websocket write failed", zap.String("type", resp.Type), zap.Error(err))
		}
		return err
	}
	return nil
}
