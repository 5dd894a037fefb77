package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/careerforge/careerforge/models"
	"github.com/careerforge/careerforge/titles"
	"go.uber.org/zap"
)

// Snapshot is a copy of the store's observable state
type Snapshot struct {
	Sessions      []Session // visible list, most recent first
	Current       *Session
	Loading       bool
	Typing        bool
	Searching     bool
	Error         string
	SearchQuery   string
	SearchResults []Session
}

// Store keeps the local session list consistent with the server while
// letting sends show up immediately. Network calls are made without holding
// the lock; reconciliation is the only place server state is merged in.
type Store struct {
	api     API
	storage Storage
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	sessions  []Session           // visible, permanent only
	temps     map[string]*Session // temporary sessions, never visible
	currentID string
	inflight  string              // session a send is waiting on
	deleting  map[string]struct{} // deletes waiting on the server
	loading   bool
	typing    bool
	searching bool
	errMsg    string
	query     string
	results   []Session
	anomalies int
}

// NewStore creates a store and restores any persisted state
func NewStore(api API, storage Storage, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if storage == nil {
		storage = &MemoryStorage{}
	}
	s := &Store{
		api:     api,
		storage: storage,
		logger:  logger.Named("client"),
		now:     func() time.Time { return time.Now().UTC() },
		temps:    make(map[string]*Session),
		deleting: make(map[string]struct{}),
	}
	if err := s.Restore(); err != nil {
		s.logger.Warn("failed to restore sessions", zap.Error(err))
	}
	return s
}

// Restore replaces the visible list with the persisted one. Legacy id
// suffixes are stripped and the duplicates they hid are collapsed.
func (s *Store) Restore() error {
	st, err := s.storage.Load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = s.sessions[:0]
	for _, sess := range st.Sessions {
		sess.ID = CanonicalID(sess.ID)
		if sess.ID == "" || models.IsTemporaryID(sess.ID) {
			continue
		}
		if sess.Messages == nil {
			sess.Messages = []models.Message{}
		}
		s.sessions = append(s.sessions, sess)
	}
	sort.SliceStable(s.sessions, func(i, j int) bool {
		return s.sessions[i].UpdatedAt.After(s.sessions[j].UpdatedAt)
	})
	s.dedupeLocked()
	if id := CanonicalID(st.CurrentID); s.indexLocked(id) >= 0 {
		s.currentID = id
	}
	return nil
}

// NewSession starts a temporary session and makes it current
func (s *Store) NewSession() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess := &Session{
		ID:        models.NewTemporaryID(now),
		Title:     titles.Placeholder,
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.temps[sess.ID] = sess
	s.currentID = sess.ID
	return sess.clone()
}

// Select makes id the current session
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id = CanonicalID(id)
	if _, ok := s.temps[id]; !ok && s.indexLocked(id) < 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	s.currentID = id
	return nil
}

// Load replaces the visible list with the server's
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	views, err := s.api.ListSessions(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		return err
	}

	unsent := s.failedMessagesLocked()
	s.sessions = make([]Session, 0, len(views))
	for _, v := range views {
		if models.IsTemporaryID(v.ID) {
			continue
		}
		sess := fromView(v)
		sess.Messages = append(sess.Messages, unsent[sess.ID]...)
		s.sessions = append(s.sessions, sess)
	}
	s.dedupeLocked()
	if _, temp := s.temps[s.currentID]; !temp && s.indexLocked(s.currentID) < 0 {
		s.currentID = ""
	}
	s.persistLocked()
	return nil
}

// Open fetches a session from the server and makes it current. Failed
// messages kept locally for it survive the refresh.
func (s *Store) Open(ctx context.Context, id string) error {
	id = CanonicalID(id)
	s.mu.Lock()
	if _, ok := s.temps[id]; ok {
		s.currentID = id
		s.mu.Unlock()
		return nil
	}
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.mu.Unlock()

	view, err := s.api.GetSession(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errMsg = err.Error()
		return err
	}
	if s.loading {
		return ErrBusy
	}
	sess := fromView(*view)
	sess.Messages = append(sess.Messages, s.failedMessagesLocked()[sess.ID]...)
	if idx := s.indexLocked(sess.ID); idx >= 0 {
		s.sessions[idx] = sess
	} else {
		s.sessions = append([]Session{sess}, s.sessions...)
	}
	s.currentID = sess.ID
	s.persistLocked()
	return nil
}

// Send appends text to the current session, starting a temporary one when
// there is none, and reconciles the server's answer. On failure the message
// stays in the session marked as failed.
func (s *Store) Send(ctx context.Context, text string, files []models.FileMeta) (*models.ChatReply, error) {
	return s.send(ctx, models.ChatRequest{Message: text, Files: files})
}

// SendDocument is Send with extracted document text for the assistant
func (s *Store) SendDocument(ctx context.Context, text, documentText string, files []models.FileMeta) (*models.ChatReply, error) {
	return s.send(ctx, models.ChatRequest{Message: text, Files: files, DocumentText: documentText})
}

func (s *Store) send(ctx context.Context, req models.ChatRequest) (*models.ChatReply, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	sess := s.currentLocked()
	if sess == nil {
		now := s.now()
		sess = &Session{ID: models.NewTemporaryID(now), Title: titles.Placeholder, Messages: []models.Message{}, CreatedAt: now, UpdatedAt: now}
		s.temps[sess.ID] = sess
		s.currentID = sess.ID
	}
	if _, gone := s.deleting[sess.ID]; gone {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	userMsg := models.Message{
		ID:        models.NewID(),
		Role:      models.RoleUser,
		Content:   text,
		Files:     req.Files,
		Timestamp: s.now(),
	}
	sess.Messages = append(sess.Messages, userMsg)
	hint := CanonicalID(sess.ID)
	s.loading, s.typing, s.errMsg = true, true, ""
	s.inflight = hint
	s.mu.Unlock()

	req.Message = text
	req.SessionID = hint
	reply, err := s.api.SendMessage(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading, s.typing, s.inflight = false, false, ""
	if err != nil {
		s.markFailedLocked(hint, userMsg.ID)
		s.errMsg = err.Error()
		s.persistLocked()
		return nil, err
	}

	if err := s.reconcileLocked(hint, userMsg, reply); err != nil {
		s.errMsg = err.Error()
		s.persistLocked()
		return nil, err
	}
	s.dedupeLocked()
	s.persistLocked()
	return reply, nil
}

// Retry resends the last failed message of the current session
func (s *Store) Retry(ctx context.Context) (*models.ChatReply, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	sess := s.currentLocked()
	if sess == nil || len(sess.Messages) == 0 || !sess.Messages[len(sess.Messages)-1].Failed() {
		s.mu.Unlock()
		return nil, ErrNothingToRetry
	}
	if _, gone := s.deleting[sess.ID]; gone {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	failed := sess.Messages[len(sess.Messages)-1]
	sess.Messages = sess.Messages[:len(sess.Messages)-1]
	s.mu.Unlock()

	return s.send(ctx, models.ChatRequest{Message: failed.Content, Files: failed.Files})
}

func (s *Store) reconcileLocked(hint string, userMsg models.Message, reply *models.ChatReply) error {
	assistantMsg := models.Message{
		ID:        models.NewID(),
		Role:      models.RoleAssistant,
		Content:   reply.Reply,
		Timestamp: reply.Timestamp,
	}
	updatedAt := reply.Timestamp
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}

	if models.IsTemporaryID(hint) {
		temp, ok := s.temps[hint]
		if !ok {
			// discarded while the request was in flight
			temp = &Session{ID: hint, Messages: []models.Message{userMsg}, CreatedAt: userMsg.Timestamp}
		}
		if s.indexLocked(reply.SessionID) >= 0 {
			return s.conflictLocked(hint, reply.SessionID)
		}

		msgs := append(append([]models.Message(nil), temp.Messages...), assistantMsg)
		entry := Session{
			ID:        reply.SessionID,
			Title:     reply.Title,
			Messages:  msgs,
			CreatedAt: temp.CreatedAt,
			UpdatedAt: updatedAt,
		}
		if entry.Title == "" {
			entry.Title = titles.Refresh(temp.Title, msgs)
		}
		s.sessions = append([]Session{entry}, s.sessions...)
		delete(s.temps, hint)
		if s.currentID == hint {
			s.currentID = entry.ID
		}
		return nil
	}

	idx := s.indexLocked(hint)
	if reply.SessionID != hint {
		// the server did not know hint and started a new session
		if s.indexLocked(reply.SessionID) >= 0 {
			return s.conflictLocked(hint, reply.SessionID)
		}
		s.logger.Info("session re-keyed by server", zap.String("from", hint), zap.String("to", reply.SessionID))
	}

	var entry Session
	if idx >= 0 {
		entry = s.sessions[idx]
		s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	} else {
		entry = Session{Messages: []models.Message{userMsg}, CreatedAt: userMsg.Timestamp}
	}
	entry.ID = reply.SessionID
	entry.Messages = append(entry.Messages, assistantMsg)
	if reply.Title != "" {
		entry.Title = reply.Title
	} else {
		entry.Title = titles.Refresh(entry.Title, entry.Messages)
	}
	entry.UpdatedAt = updatedAt
	entry.EndedAt = nil
	s.sessions = append([]Session{entry}, s.sessions...)
	if s.currentID == hint {
		s.currentID = entry.ID
	}
	return nil
}

func (s *Store) conflictLocked(localID, serverID string) error {
	s.anomalies++
	s.logger.Warn("server returned an id already used by another session",
		zap.String("local_id", localID),
		zap.String("server_id", serverID))
	return fmt.Errorf("%w: server id %s already names another session (local %s)", ErrConflict, serverID, localID)
}

func (s *Store) markFailedLocked(sessionID, messageID string) {
	sess := s.temps[sessionID]
	if sess == nil {
		if idx := s.indexLocked(sessionID); idx >= 0 {
			sess = &s.sessions[idx]
		}
	}
	if sess == nil {
		return
	}
	for i := range sess.Messages {
		if sess.Messages[i].ID == messageID {
			sess.Messages[i].Status = models.MessageStatusFailed
		}
	}
}

// Delete removes a session. Temporary sessions never reach the server.
func (s *Store) Delete(ctx context.Context, id string) error {
	id = CanonicalID(id)

	s.mu.Lock()
	if _, ok := s.temps[id]; ok {
		delete(s.temps, id)
		if s.currentID == id {
			s.currentID = ""
		}
		s.mu.Unlock()
		return nil
	}
	if s.indexLocked(id) < 0 {
		s.mu.Unlock()
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	// a reply reconciled after the delete would bring the session back
	if _, busy := s.deleting[id]; busy || s.inflight == id {
		s.mu.Unlock()
		return ErrBusy
	}
	s.deleting[id] = struct{}{}
	s.mu.Unlock()

	err := s.api.DeleteSession(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deleting, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.errMsg = err.Error()
		return err
	}
	if idx := s.indexLocked(id); idx >= 0 {
		s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	}
	if s.currentID == id {
		s.currentID = ""
	}
	s.persistLocked()
	return nil
}

// End marks a session as ended on the server
func (s *Store) End(ctx context.Context, id string) error {
	id = CanonicalID(id)
	if models.IsTemporaryID(id) {
		return fmt.Errorf("session %s has not been saved: %w", id, ErrNotFound)
	}

	view, err := s.api.EndSession(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errMsg = err.Error()
		return err
	}
	if idx := s.indexLocked(id); idx >= 0 {
		s.sessions[idx].EndedAt = view.EndedAt
		if s.sessions[idx].EndedAt == nil {
			now := s.now()
			s.sessions[idx].EndedAt = &now
		}
	}
	s.persistLocked()
	return nil
}

// Search filters the visible list. An empty query clears the search.
func (s *Store) Search(query string) []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	s.results = Search(s.sessions, query)
	s.searching = s.results != nil
	return cloneSessions(s.results)
}

// ClearSearch leaves search mode
func (s *Store) ClearSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query, s.results, s.searching = "", nil, false
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Sessions:      cloneSessions(s.sessions),
		Loading:       s.loading,
		Typing:        s.typing,
		Searching:     s.searching,
		Error:         s.errMsg,
		SearchQuery:   s.query,
		SearchResults: cloneSessions(s.results),
	}
	if cur := s.currentLocked(); cur != nil {
		c := cur.clone()
		snap.Current = &c
	}
	return snap
}

// Anomalies reports how many duplicate or conflicting ids were detected
func (s *Store) Anomalies() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anomalies
}

func (s *Store) currentLocked() *Session {
	if s.currentID == "" {
		return nil
	}
	if t, ok := s.temps[s.currentID]; ok {
		return t
	}
	if idx := s.indexLocked(s.currentID); idx >= 0 {
		return &s.sessions[idx]
	}
	return nil
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// dedupeLocked collapses entries sharing an id into the one with more
// messages, kept at the earlier position.
func (s *Store) dedupeLocked() {
	seen := make(map[string]int, len(s.sessions))
	out := s.sessions[:0]
	for _, sess := range s.sessions {
		if i, dup := seen[sess.ID]; dup {
			s.anomalies++
			s.logger.Warn("duplicate session in visible list",
				zap.String("session_id", sess.ID),
				zap.Int("kept_messages", max(len(out[i].Messages), len(sess.Messages))))
			if len(sess.Messages) > len(out[i].Messages) {
				out[i] = sess
			}
			continue
		}
		seen[sess.ID] = len(out)
		out = append(out, sess)
	}
	s.sessions = out
}

// failedMessagesLocked returns the failed messages of visible sessions by id
func (s *Store) failedMessagesLocked() map[string][]models.Message {
	out := make(map[string][]models.Message)
	for _, sess := range s.sessions {
		for _, m := range sess.Messages {
			if m.Failed() {
				out[sess.ID] = append(out[sess.ID], m)
			}
		}
	}
	return out
}

func (s *Store) persistLocked() {
	st := State{Sessions: cloneSessions(s.sessions)}
	if !models.IsTemporaryID(s.currentID) {
		st.CurrentID = s.currentID
	}
	if err := s.storage.Save(st); err != nil {
		s.logger.Warn("failed to persist sessions", zap.Error(err))
	}
}

func cloneSessions(in []Session) []Session {
	if in == nil {
		return nil
	}
	out := make([]Session, len(in))
	for i, sess := range in {
		out[i] = sess.clone()
	}
	return out
}
