package sessions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/careerforge/careerforge/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func dialChatSocket(t *testing.T, svc *Service, userID string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewChatSocket(conn, svc, userID, zaptest.NewLogger(t)).Serve(context.Background())
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestChatSocket_Conversation(t *testing.T) {
	svc, _, _ := newTestService(t)
	conn := dialChatSocket(t, svc, "alice")

	require.NoError(t, conn.WriteJSON(models.SocketRequest{Type: models.SocketMessage, Message: "How do I find a mentor?", SessionID: "temp_1_abcdef12"}))
	var first models.SocketResponse
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, models.SocketReply, first.Type)
	require.NotNil(t, first.Data)
	assert.Equal(t, "Find a Mentor", first.Data.Title)
	assert.Equal(t, 2, first.Data.MessageCount)

	require.NoError(t, conn.WriteJSON(models.SocketRequest{Type: models.SocketMessage, Message: "Where do I start?", SessionID: first.Data.SessionID}))
	var second models.SocketResponse
	require.NoError(t, conn.ReadJSON(&second))
	require.Equal(t, models.SocketReply, second.Type)
	assert.Equal(t, first.Data.SessionID, second.Data.SessionID)
	assert.Equal(t, 4, second.Data.MessageCount)
}

func TestChatSocket_ErrorsKeepConnectionOpen(t *testing.T) {
	svc, _, _ := newTestService(t)
	conn := dialChatSocket(t, svc, "alice")

	require.NoError(t, conn.WriteJSON(models.SocketRequest{Type: models.SocketMessage, Message: "  "}))
	var resp models.SocketResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, models.SocketError, resp.Type)
	assert.Contains(t, resp.Message, "message is required")

	require.NoError(t, conn.WriteJSON(models.SocketRequest{Type: models.SocketPing}))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, models.SocketPong, resp.Type)
}

func TestChatSocket_UpstreamFailure(t *testing.T) {
	svc, _, ai := newTestService(t)
	ai.failWith(assert.AnError)
	conn := dialChatSocket(t, svc, "alice")

	require.NoError(t, conn.WriteJSON(models.SocketRequest{Type: models.SocketMessage, Message: "interview tips"}))
	var resp models.SocketResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, models.SocketError, resp.Type)
	assert.NotContains(t, resp.Message, assert.AnError.Error())
}
