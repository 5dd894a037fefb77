package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/careerforge/careerforge/models"
	"github.com/careerforge/careerforge/server"
	"github.com/careerforge/careerforge/sessions"
	"github.com/careerforge/careerforge/stores"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type echoAI struct{}

func (echoAI) ChatWithAI(_ context.Context, message string, _ []models.Message, _ models.UserContext) (models.AIReply, error) {
	return models.AIReply{Response: "You asked: " + message}, nil
}

func newLiveAPI(t *testing.T, userID string) *HTTPClient {
	t.Helper()
	store, err := stores.NewSQLiteStoreSimple(filepath.Join(t.TempDir(), "live.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.SaveUser(context.Background(), &stores.User{ID: "alice", Name: "Alice"}))

	logger := zaptest.NewLogger(t)
	srv := server.New(sessions.NewService(store, echoAI{}, logger, sessions.DefaultOptions()), store, logger, gin.TestMode)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(srv.Close)

	return NewHTTPClient(ts.URL+"/api", userID)
}

func TestHTTPClient_EndToEnd(t *testing.T) {
	api := newLiveAPI(t, "alice")
	store := NewStore(api, &MemoryStorage{}, zaptest.NewLogger(t))
	ctx := context.Background()

	store.NewSession()
	first, err := store.Send(ctx, "How do I break into data science?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Break Into Data Science", first.Title)

	_, err = store.Send(ctx, "Which courses?", nil)
	require.NoError(t, err)

	// a fresh client sees the same state from the server
	other := NewStore(api, &MemoryStorage{}, zaptest.NewLogger(t))
	require.NoError(t, other.Load(ctx))
	snap := other.Snapshot()
	require.Len(t, snap.Sessions, 1)
	assert.Equal(t, first.SessionID, snap.Sessions[0].ID)
	assert.Len(t, snap.Sessions[0].Messages, 4)

	fresh := NewStore(api, &MemoryStorage{}, zaptest.NewLogger(t))
	require.NoError(t, fresh.Open(ctx, first.SessionID))
	require.NotNil(t, fresh.Snapshot().Current)
	assert.Len(t, fresh.Snapshot().Current.Messages, 4)

	require.NoError(t, store.End(ctx, first.SessionID))
	view, err := api.GetSession(ctx, first.SessionID)
	require.NoError(t, err)
	assert.NotNil(t, view.EndedAt)

	require.NoError(t, store.Delete(ctx, first.SessionID))
	_, err = api.GetSession(ctx, first.SessionID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPClient_ErrorMapping(t *testing.T) {
	api := newLiveAPI(t, "alice")
	ctx := context.Background()

	_, err := api.SendMessage(ctx, models.ChatRequest{Message: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	err = api.DeleteSession(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)

	anon := newLiveAPI(t, "")
	_, err = anon.ListSessions(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	ghost := newLiveAPI(t, "ghost")
	_, err = ghost.ListSessions(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Equal(t, "User not found", apiErr.Message)
}

func TestHTTPClient_DocumentEndpoint(t *testing.T) {
	api := newLiveAPI(t, "alice")
	reply, err := api.SendMessage(context.Background(), models.ChatRequest{
		Message:      "Review my CV",
		DocumentText: "Skills: Go, SQL",
	})
	require.NoError(t, err)
	assert.Contains(t, reply.Reply, "Skills: Go, SQL")
}
