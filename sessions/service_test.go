package sessions

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/careerforge/careerforge/models"
	"github.com/careerforge/careerforge/stores"
	"github.com/careerforge/careerforge/titles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type aiCall struct {
	Message string
	History []models.Message
	Context models.UserContext
}

type fakeAI struct {
	mu    sync.Mutex
	err   error
	calls []aiCall

	// entered and gate are set before any send starts
	entered chan struct{}
	gate    chan struct{}
}

func (f *fakeAI) ChatWithAI(_ context.Context, message string, history []models.Message, uc models.UserContext) (models.AIReply, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, aiCall{Message: message, History: history, Context: uc})
	if f.err != nil {
		return models.AIReply{}, f.err
	}
	return models.AIReply{Response: fmt.Sprintf("reply %d", len(f.calls)), Provider: "fake"}, nil
}

func (f *fakeAI) failWith(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestService(t *testing.T) (*Service, *stores.GormStore, *fakeAI) {
	t.Helper()
	store, err := stores.NewSQLiteStoreSimple(filepath.Join(t.TempDir(), "sessions.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.SaveUser(ctx, &stores.User{ID: "alice", Name: "Alice", Role: "student", Bio: "Junior studying CS"}))
	require.NoError(t, store.SaveUser(ctx, &stores.User{ID: "bob", Name: "Bob", Role: "student"}))

	ai := &fakeAI{}
	return NewService(store, ai, zaptest.NewLogger(t), DefaultOptions()), store, ai
}

// A first message on a temporary session creates exactly one persisted
// session titled from that message.
func TestSendMessage_NewSessionFromTemporaryID(t *testing.T) {
	svc, _, ai := newTestService(t)
	ctx := context.Background()
	tempID := models.NewTemporaryID(svc.now())

	res, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", SessionID: tempID, Message: "How do I break into data science?"})
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.NotEqual(t, tempID, res.SessionID)
	assert.False(t, models.IsTemporaryID(res.SessionID))
	assert.Equal(t, "Break Into Data Science", res.Title)
	assert.Equal(t, "reply 1", res.Reply)
	assert.Equal(t, 2, res.MessageCount)

	list, err := svc.ListSessions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, res.SessionID, list[0].ID)
	require.Len(t, list[0].Messages, 2)
	assert.Equal(t, models.RoleUser, list[0].Messages[0].Role)
	assert.Equal(t, models.RoleAssistant, list[0].Messages[1].Role)

	require.Equal(t, 1, ai.callCount())
	call := ai.calls[0]
	assert.Equal(t, res.SessionID, call.Context.SessionID)
	assert.Equal(t, "Alice", call.Context.UserName)
	assert.Equal(t, models.TaskGeneral, call.Context.TaskType)
	require.Len(t, call.History, 1)
	assert.Equal(t, "How do I break into data science?", call.History[0].Content)
}

// Follow-up messages append to the same session and keep its title.
func TestSendMessage_ExistingSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", Message: "Help me with my resume"})
	require.NoError(t, err)

	second, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", SessionID: first.SessionID, Message: "It is one page long"})
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 4, second.MessageCount)
	assert.Empty(t, second.Title, "unchanged custom title is not echoed")

	session, err := svc.GetSession(ctx, "alice", first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "My Resume", session.Title)
	assert.Equal(t, 3, session.Version)
}

func TestSendMessage_AppendOnlyHistory(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	const turns = 5
	var sessionID string
	for i := 0; i < turns; i++ {
		res, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", SessionID: sessionID, Message: fmt.Sprintf("question %d", i)})
		require.NoError(t, err)
		sessionID = res.SessionID
	}

	session, err := svc.GetSession(ctx, "alice", sessionID)
	require.NoError(t, err)
	require.Len(t, session.Messages, 2*turns)
	for i := 0; i < turns; i++ {
		assert.Equal(t, models.RoleUser, session.Messages[2*i].Role)
		assert.Equal(t, fmt.Sprintf("question %d", i), session.Messages[2*i].Content)
		assert.Equal(t, models.RoleAssistant, session.Messages[2*i+1].Role)
	}
}

func TestSendMessage_TitleRefreshesFromConversation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, titles.Placeholder, first.Title)

	second, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", SessionID: first.SessionID,
		Message: "How should I prepare for a product manager interview?"})
	require.NoError(t, err)
	assert.Equal(t, "Interview Prep & Product Management", second.Title)

	third, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", SessionID: first.SessionID,
		Message: "What about salary?"})
	require.NoError(t, err)
	assert.Empty(t, third.Title, "derived title is never overwritten")
}

// A failed AI call leaves nothing behind, neither a new session nor a
// dangling user message on an existing one.
func TestSendMessage_UpstreamFailurePersistsNothing(t *testing.T) {
	svc, _, ai := newTestService(t)
	ctx := context.Background()
	cause := errors.New("provider timeout")

	ai.failWith(cause)
	_, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", SessionID: models.NewTemporaryID(svc.now()), Message: "hello there, resume tips?"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamFailure)
	assert.ErrorIs(t, err, cause)

	list, err := svc.ListSessions(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)

	ai.failWith(nil)
	res, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", Message: "resume tips?"})
	require.NoError(t, err)

	ai.failWith(cause)
	_, err = svc.SendMessage(ctx, SendRequest{UserID: "alice", SessionID: res.SessionID, Message: "and cover letters?"})
	assert.ErrorIs(t, err, ErrUpstreamFailure)

	session, err := svc.GetSession(ctx, "alice", res.SessionID)
	require.NoError(t, err)
	assert.Len(t, session.Messages, 2)
}

func TestSendMessage_TemporarySessionsNeverListed(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", SessionID: models.NewTemporaryID(svc.now()), Message: "tell me about internships"})
		require.NoError(t, err)
	}

	list, err := svc.ListSessions(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 3)
	for _, s := range list {
		assert.False(t, models.IsTemporaryID(s.ID))
	}
}

// A session id belonging to someone else is treated as unknown: the caller
// gets a fresh session and the owner's conversation is untouched.
func TestSendMessage_OwnershipIsolation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	owned, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", Message: "negotiate salary"})
	require.NoError(t, err)

	res, err := svc.SendMessage(ctx, SendRequest{UserID: "bob", SessionID: owned.SessionID, Message: "what is in this session?"})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.NotEqual(t, owned.SessionID, res.SessionID)

	session, err := svc.GetSession(ctx, "alice", owned.SessionID)
	require.NoError(t, err)
	assert.Len(t, session.Messages, 2)

	_, err = svc.GetSession(ctx, "bob", owned.SessionID)
	assert.ErrorIs(t, err, stores.ErrSessionNotFound)
	_, err = svc.EndSession(ctx, "bob", owned.SessionID)
	assert.ErrorIs(t, err, stores.ErrSessionNotFound)
	assert.ErrorIs(t, svc.DeleteSession(ctx, "bob", owned.SessionID), stores.ErrSessionNotFound)
}

func TestSendMessage_Validation(t *testing.T) {
	svc, _, ai := newTestService(t)
	svc.opts.MaxMessageLength = 10
	svc.opts.MaxDocumentLength = 20
	ctx := context.Background()

	cases := []struct {
		name string
		req  SendRequest
	}{
		{"empty", SendRequest{UserID: "alice", Message: "   "}},
		{"too long", SendRequest{UserID: "alice", Message: strings.Repeat("a", 11)}},
		{"document too long", SendRequest{UserID: "alice", Message: "cv", DocumentText: strings.Repeat("a", 21)}},
		{"too many files", SendRequest{UserID: "alice", Message: "cv", Files: make([]models.FileMeta, MaxFiles+1)}},
		{"unknown user still validated first", SendRequest{UserID: "ghost", Message: ""}},
		{"missing user", SendRequest{Message: "hello"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SendMessage(ctx, tc.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.Zero(t, ai.callCount())

	// length is counted in characters, not bytes
	_, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", Message: "éééééééééé", DocumentText: strings.Repeat("é", 20)})
	assert.NoError(t, err)
	assert.Equal(t, 1, ai.callCount())
}

func TestSendMessage_UnknownUser(t *testing.T) {
	svc, _, ai := newTestService(t)

	_, err := svc.SendMessage(context.Background(), SendRequest{UserID: "ghost", Message: "hello"})
	assert.ErrorIs(t, err, stores.ErrUserNotFound)
	assert.Zero(t, ai.callCount())

	_, err = svc.ListSessions(context.Background(), "ghost")
	assert.ErrorIs(t, err, stores.ErrUserNotFound)
}

func TestSendMessage_DocumentTask(t *testing.T) {
	svc, _, ai := newTestService(t)
	ctx := context.Background()

	res, err := svc.SendMessage(ctx, SendRequest{
		UserID:       "alice",
		Message:      "Review my resume",
		Files:        []models.FileMeta{{Name: "resume.pdf", Type: "application/pdf", Size: 1024}},
		DocumentText: "Experience: barista, 2 years",
	})
	require.NoError(t, err)

	call := ai.calls[0]
	assert.Equal(t, models.TaskDocument, call.Context.TaskType)
	assert.Contains(t, call.Message, "Experience: barista")

	session, err := svc.GetSession(ctx, "alice", res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Review my resume", session.Messages[0].Content)
	require.Len(t, session.Messages[0].Files, 1)
	assert.Equal(t, "resume.pdf", session.Messages[0].Files[0].Name)
}

func TestSendMessage_ConcurrentSendsSerialize(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", Message: "mock interview please"})
	require.NoError(t, err)

	const senders = 8
	var wg sync.WaitGroup
	errs := make(chan error, senders)
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", SessionID: first.SessionID, Message: fmt.Sprintf("follow-up %d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	session, err := svc.GetSession(ctx, "alice", first.SessionID)
	require.NoError(t, err)
	assert.Len(t, session.Messages, 2*(senders+1))
	assert.Zero(t, svc.locks.size())
}

func TestSendMessage_ReopensEndedSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", Message: "career change advice"})
	require.NoError(t, err)

	ended, err := svc.EndSession(ctx, "alice", res.SessionID)
	require.NoError(t, err)
	require.NotNil(t, ended.EndedAt)

	_, err = svc.SendMessage(ctx, SendRequest{UserID: "alice", SessionID: res.SessionID, Message: "one more thing"})
	require.NoError(t, err)

	session, err := svc.GetSession(ctx, "alice", res.SessionID)
	require.NoError(t, err)
	assert.Nil(t, session.EndedAt)
}

func TestResolve(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session, created, err := svc.Resolve(ctx, "alice", "", "Tips for networking events")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Tips for Networking Events", session.Title)
	assert.Empty(t, session.Messages)

	_, err = svc.GetSession(ctx, "alice", session.ID)
	assert.ErrorIs(t, err, stores.ErrSessionNotFound, "resolving does not persist")

	_, _, err = svc.Resolve(ctx, "ghost", "", "hi")
	assert.ErrorIs(t, err, stores.ErrUserNotFound)
}

func TestDeleteSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", Message: "leadership skills"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(ctx, "alice", res.SessionID))
	assert.ErrorIs(t, svc.DeleteSession(ctx, "alice", res.SessionID), stores.ErrSessionNotFound)

	list, err := svc.ListSessions(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}

// Two sends from the same unsaved chat, the second queued behind the first,
// end up in one server session.
func TestSendMessage_DoubleSubmitFromTemporaryChat(t *testing.T) {
	svc, store, ai := newTestService(t)
	ai.entered = make(chan struct{}, 2)
	ai.gate = make(chan struct{})
	ctx := context.Background()
	tempID := models.NewTemporaryID(svc.now())

	results := make([]*SendResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	send := func(i int, text string) {
		defer wg.Done()
		results[i], errs[i] = svc.SendMessage(ctx, SendRequest{UserID: "alice", SessionID: tempID, Message: text})
	}

	wg.Add(1)
	go send(0, "How do I negotiate salary?")
	<-ai.entered

	wg.Add(1)
	go send(1, "How do I negotiate salary?")
	require.Eventually(t, func() bool {
		svc.locks.mu.Lock()
		defer svc.locks.mu.Unlock()
		m, ok := svc.locks.locks[tempID]
		return ok && m.refs == 2
	}, time.Second, time.Millisecond)

	close(ai.gate)
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	assert.True(t, results[0].Created)
	assert.False(t, results[1].Created)
	assert.Equal(t, results[0].SessionID, results[1].SessionID)

	listed, err := store.ListSessions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Len(t, listed[0].Messages, 4)
	assert.Zero(t, svc.locks.size())
}

func TestSendMessage_WarnsOnCorruptedHistory(t *testing.T) {
	svc, store, _ := newTestService(t)
	core, logs := observer.New(zap.WarnLevel)
	svc.logger = zap.New(core)
	ctx := context.Background()

	session := &stores.ChatSession{
		UserID: "alice",
		Title:  "Resume Help",
		Messages: []models.Message{
			{ID: "m1", Role: models.RoleUser, Content: "hi"},
			{ID: "m2", Role: models.RoleUser, Content: "anyone there?"},
		},
	}
	require.NoError(t, store.CreateSession(ctx, session))

	_, err := svc.SendMessage(ctx, SendRequest{UserID: "alice", SessionID: session.ID, Message: "hello again"})
	require.NoError(t, err)

	entries := logs.FilterMessage("stored history has unsendable entries").All()
	require.Len(t, entries, 1)
	assert.Equal(t, session.ID, entries[0].ContextMap()["session_id"])
}
