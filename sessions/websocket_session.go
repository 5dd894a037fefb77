package sessions

import (
	"context"
	"errors"

	"github.com/careerforge/careerforge/models"
	"github.com/careerforge/careerforge/stores"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ChatSocket serves one WebSocket connection. Every message frame runs the
// same append protocol as POST /chat.
type ChatSocket struct {
	Service *Service
	UserID  string
	Writer  *WebSocketWriter
	Logger  *zap.Logger

	conn *websocket.Conn
}

// NewChatSocket creates a socket session for an authenticated user
func NewChatSocket(conn *websocket.Conn, service *Service, userID string, logger *zap.Logger) *ChatSocket {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("ws").With(zap.String("user_id", userID))
	return &ChatSocket{
		Service: service,
		UserID:  userID,
		Writer:  &WebSocketWriter{Conn: conn, Logger: logger},
		Logger:  logger,
		conn:    conn,
	}
}

// Serve reads frames until the client disconnects or ctx ends
func (cs *ChatSocket) Serve(ctx context.Context) {
	defer cs.conn.Close()

	// unblock ReadJSON on shutdown
	stop := context.AfterFunc(ctx, func() { _ = cs.conn.Close() })
	defer stop()

	for {
		var req models.SocketRequest
		if err := cs.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cs.Logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		if err := cs.HandleFrame(ctx, req); err != nil {
			var agentErr *AgentError
			if errors.As(err, &agentErr) && agentErr.Fatal {
				cs.Logger.Error("closing socket", zap.Error(err))
				return
			}
			cs.Logger.Debug("frame failed", zap.Error(err))
		}
	}
}

// HandleFrame processes a single client frame
func (cs *ChatSocket) HandleFrame(ctx context.Context, req models.SocketRequest) error {
	switch req.Type {
	case models.SocketPing:
		return cs.writeOrFatal(cs.Writer.write(models.SocketResponse{Type: models.SocketPong}))
	case models.SocketMessage, "":
	default:
		return cs.writeOrFatal(cs.Writer.WriteError("unsupported frame type: " + req.Type))
	}

	result, err := cs.Service.SendMessage(ctx, SendRequest{
		UserID:    cs.UserID,
		SessionID: req.SessionID,
		Message:   req.Message,
		Files:     req.Files,
	})
	if err != nil {
		if werr := cs.Writer.WriteError(PublicMessage(err)); werr != nil {
			return &AgentError{Message: werr.Error(), Fatal: true}
		}
		return &AgentError{Message: err.Error(), Fatal: errors.Is(err, stores.ErrUserNotFound)}
	}
	return cs.writeOrFatal(cs.Writer.WriteReply(&result.ChatReply))
}

func (cs *ChatSocket) writeOrFatal(err error) error {
	if err != nil {
		return &AgentError{Message: err.Error(), Fatal: true}
	}
	return nil
}

// PublicMessage turns a service error into a message safe to show a client
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, stores.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, stores.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, ErrUpstreamFailure):
		return "The AI service is unavailable, please try again"
	case errors.Is(err, stores.ErrVersionConflict):
		return "The session was updated by another request, please retry"
	default:
		return "Internal server error"
	}
}
