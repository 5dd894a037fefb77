package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/careerforge/careerforge/models"
	"github.com/careerforge/careerforge/stores"
	"github.com/careerforge/careerforge/titles"
	"go.uber.org/zap"
)

// MaxFiles is the number of attachments a single chat turn may carry.
const MaxFiles = 10

// Options tunes the chat service
type Options struct {
	// MaxMessageLength bounds a user message, in characters.
	MaxMessageLength int
	// MaxDocumentLength bounds extracted document text, in characters.
	MaxDocumentLength int
	// HistoryWindow is how many prior messages reach the AI. Zero sends all.
	HistoryWindow int
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{MaxMessageLength: 4000, MaxDocumentLength: 100000, HistoryWindow: 20}
}

// SendRequest is one chat turn
type SendRequest struct {
	UserID    string
	SessionID string // hint: empty, temporary, or a server-issued id
	Message   string
	Files     []models.FileMeta
	// DocumentText is extracted document content. It reaches the AI but is
	// not stored in the conversation.
	DocumentText string
}

// SendResult is the outcome of a successful chat turn
type SendResult struct {
	models.ChatReply
	Created bool
}

// Service resolves sessions and runs the append protocol. A turn is only
// persisted once the AI has answered, so a failed turn leaves no trace.
type Service struct {
	store  stores.SessionStore
	ai     AIService
	logger *zap.Logger
	opts   Options
	locks  *keyedMutex
	now    func() time.Time
}

// NewService creates a chat service
func NewService(store stores.SessionStore, ai AIService, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = DefaultOptions().MaxMessageLength
	}
	if opts.MaxDocumentLength <= 0 {
		opts.MaxDocumentLength = DefaultOptions().MaxDocumentLength
	}
	return &Service{
		store:  store,
		ai:     ai,
		logger: logger.Named("sessions"),
		opts:   opts,
		locks:  newKeyedMutex(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Resolve finds the session a message belongs to. A temporary or unknown hint
// yields a new, unsaved session titled from firstMessage; created reports
// which case applied.
func (s *Service) Resolve(ctx context.Context, userID, hint, firstMessage string) (*stores.ChatSession, bool, error) {
	session, _, created, err := s.resolve(ctx, userID, hint, firstMessage)
	return session, created, err
}

func (s *Service) resolve(ctx context.Context, userID, hint, firstMessage string) (*stores.ChatSession, *stores.User, bool, error) {
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return nil, nil, false, err
	}

	if hint != "" && !models.IsTemporaryID(hint) {
		session, err := s.store.GetSession(ctx, hint, userID)
		if err == nil {
			return session, user, false, nil
		}
		if !errors.Is(err, stores.ErrSessionNotFound) {
			return nil, nil, false, fmt.Errorf("failed to resolve session %s: %w", hint, err)
		}
		s.logger.Debug("session hint not found, starting a new session",
			zap.String("hint", hint), zap.String("user_id", userID))
	}

	session := &stores.ChatSession{
		ID:       models.NewID(),
		UserID:   userID,
		Title:    titles.DeriveFromMessage(firstMessage),
		Messages: []models.Message{},
		Version:  1,
	}
	return session, user, true, nil
}

// SendMessage appends a user message and the AI's reply to a session,
// creating the session on its first successful turn.
func (s *Service) SendMessage(ctx context.Context, req SendRequest) (*SendResult, error) {
	text, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(req.SessionID)
	defer unlock()

	// a resubmit from the same unsaved chat lands in the session the first
	// request created
	hint := req.SessionID
	if models.IsTemporaryID(hint) {
		if id := s.locks.value(hint); id != "" {
			hint = id
		}
	}

	session, user, created, err := s.resolve(ctx, req.UserID, hint, text)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With(zap.String("session_id", session.ID), zap.String("user_id", req.UserID))

	userMsg := models.Message{
		ID:        models.NewID(),
		Role:      models.RoleUser,
		Content:   text,
		Files:     req.Files,
		Timestamp: s.now(),
	}
	messages := make([]models.Message, 0, len(session.Messages)+2)
	messages = append(messages, session.Messages...)
	messages = append(messages, userMsg)

	uc := models.UserContext{
		UserID:    user.ID,
		UserName:  user.Name,
		UserRole:  user.Role,
		UserBio:   user.Bio,
		TaskType:  models.TaskGeneral,
		SessionID: session.ID,
	}
	aiMessage := text
	if len(req.Files) > 0 || strings.TrimSpace(req.DocumentText) != "" {
		uc.TaskType = models.TaskDocument
	}
	if doc := strings.TrimSpace(req.DocumentText); doc != "" {
		aiMessage = text + "\n\nDocument content:\n" + doc
	}

	history := stores.SanitizeHistory(messages, s.opts.HistoryWindow)
	if issues := stores.DetectCorruptedHistory(session.Messages); len(issues) > 0 {
		logger.Warn("stored history has unsendable entries", zap.Strings("issues", issues))
	}

	reply, err := s.ai.ChatWithAI(ctx, aiMessage, history, uc)
	if err != nil {
		logger.Warn("AI call failed, turn discarded", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUpstreamFailure, err)
	}

	assistantMsg := models.Message{
		ID:        models.NewID(),
		Role:      models.RoleAssistant,
		Content:   reply.Response,
		Timestamp: s.now(),
	}
	messages = append(messages, assistantMsg)

	previousTitle := session.Title
	session.Messages = messages
	session.Title = titles.Refresh(session.Title, messages)
	session.EndedAt = nil

	if created {
		err = s.store.CreateSession(ctx, session)
	} else {
		err = s.store.UpdateSession(ctx, session)
	}
	if err != nil {
		if errors.Is(err, stores.ErrVersionConflict) {
			logger.Warn("concurrent write lost", zap.Int("version", session.Version))
		}
		return nil, err
	}
	if created && models.IsTemporaryID(req.SessionID) {
		s.locks.setValue(req.SessionID, session.ID)
	}

	logger.Info("chat turn completed",
		zap.Bool("created", created),
		zap.String("provider", reply.Provider),
		zap.Int("message_count", len(messages)))

	result := &SendResult{
		ChatReply: models.ChatReply{
			SessionID:    session.ID,
			Reply:        assistantMsg.Content,
			Timestamp:    assistantMsg.Timestamp,
			MessageCount: len(messages),
		},
		Created: created,
	}
	if created || session.Title != previousTitle {
		result.Title = session.Title
	}
	return result, nil
}

func (s *Service) validate(req SendRequest) (string, error) {
	if req.UserID == "" {
		return "", fmt.Errorf("%w: user is required", ErrValidation)
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return "", fmt.Errorf("%w: message is required", ErrValidation)
	}
	if n := utf8.RuneCountInString(text); n > s.opts.MaxMessageLength {
		return "", fmt.Errorf("%w: message is %d characters, limit is %d", ErrValidation, n, s.opts.MaxMessageLength)
	}
	if n := utf8.RuneCountInString(req.DocumentText); n > s.opts.MaxDocumentLength {
		return "", fmt.Errorf("%w: document is %d characters, limit is %d", ErrValidation, n, s.opts.MaxDocumentLength)
	}
	if len(req.Files) > MaxFiles {
		return "", fmt.Errorf("%w: at most %d files per message", ErrValidation, MaxFiles)
	}
	return text, nil
}

// ListSessions returns a user's sessions, most recently updated first
func (s *Service) ListSessions(ctx context.Context, userID string) ([]stores.ChatSession, error) {
	if _, err := s.store.FindUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListSessions(ctx, userID)
}

// GetSession returns one session owned by userID
func (s *Service) GetSession(ctx context.Context, userID, id string) (*stores.ChatSession, error) {
	return s.store.GetSession(ctx, id, userID)
}

// EndSession marks a session owned by userID as ended
func (s *Service) EndSession(ctx context.Context, userID, id string) (*stores.ChatSession, error) {
	unlock := s.locks.Lock(id)
	defer unlock()
	return s.store.EndSession(ctx, id, userID, s.now())
}

// DeleteSession removes a session owned by userID
func (s *Service) DeleteSession(ctx context.Context, userID, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	if err := s.store.DeleteSession(ctx, id, userID); err != nil {
		return err
	}
	s.logger.Info("session deleted", zap.String("session_id", id), zap.String("user_id", userID))
	return nil
}
