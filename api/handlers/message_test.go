package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillsync/skillsync/models"
	"github.com/skillsync/skillsync/pkg/chat"
)

type conversationBody struct {
	Messages   []models.MessageResponse `json:"messages"`
	Pagination struct {
		CurrentPage int  `json:"currentPage"`
		HasMore     bool `json:"hasMore"`
	} `json:"pagination"`
}

func TestSendAndReadMessages(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", nil, nil)
	bob := env.createUser(t, "bob", nil, nil)

	for i := 1; i <= 3; i++ {
		w := env.do(t, http.MethodPost, "/api/messages", gin.H{"receiverId": bob.ID, "text": fmt.Sprintf(" msg %d ", i)}, alice.ID)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w := env.do(t, http.MethodPost, "/api/messages", gin.H{"receiverId": alice.ID, "text": "reply"}, bob.ID)
	require.Equal(t, http.StatusCreated, w.Code)

	path := fmt.Sprintf("/api/messages/conversation/%d/%d", alice.ID, bob.ID)
	var conv conversationBody
	decode(t, env.do(t, http.MethodGet, path+"?limit=2", nil, bob.ID), &conv)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "msg 3", conv.Messages[0].Text)
	assert.Equal(t, "reply", conv.Messages[1].Text)
	assert.True(t, conv.Pagination.HasMore)

	decode(t, env.do(t, http.MethodGet, path+"?limit=2&page=2", nil, bob.ID), &conv)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "msg 1", conv.Messages[0].Text)
	assert.False(t, conv.Pagination.HasMore)
	assert.Equal(t, 2, conv.Pagination.CurrentPage)

	var convs []models.Conversation
	decode(t, env.do(t, http.MethodGet, fmt.Sprintf("/api/messages/conversations/%d", bob.ID), nil, bob.ID), &convs)
	require.Len(t, convs, 1)
	assert.Equal(t, "alice", convs[0].OtherUser.Name)
	assert.Equal(t, "reply", convs[0].LastMessage.Text)
	assert.Equal(t, 3, convs[0].UnreadCount)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/messages/read/%d", alice.ID), nil, bob.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Messages marked as read","modifiedCount":3}`, w.Body.String())

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/messages/read/%d", alice.ID), nil, bob.ID)
	assert.Contains(t, w.Body.String(), `"modifiedCount":0`)
}

func TestMessageAccessControl(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", nil, nil)
	bob := env.createUser(t, "bob", nil, nil)
	eve := env.createUser(t, "eve", nil, nil)

	path := fmt.Sprintf("/api/messages/conversation/%d/%d", alice.ID, bob.ID)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, path, nil, eve.ID).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, fmt.Sprintf("/api/messages/conversations/%d", alice.ID), nil, eve.ID).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, fmt.Sprintf("/api/messages/conversation/%d/999", alice.ID), nil, alice.ID).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, path, nil, 0).Code)

	var convs []models.Conversation
	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/messages/conversations/%d", eve.ID), nil, eve.ID)
	decode(t, w, &convs)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestSendMessageValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", nil, nil)
	bob := env.createUser(t, "bob", nil, nil)

	cases := []struct {
		body gin.H
		code int
	}{
		{gin.H{"receiverId": bob.ID, "text": "   "}, http.StatusBadRequest},
		{gin.H{"receiverId": bob.ID}, http.StatusBadRequest},
		{gin.H{"receiverId": bob.ID, "text": strings.Repeat("a", models.MaxMessageLength+1)}, http.StatusBadRequest},
		{gin.H{"receiverId": alice.ID, "text": "note to self"}, http.StatusBadRequest},
		{gin.H{"receiverId": 999, "text": "hello?"}, http.StatusNotFound},
		{gin.H{"receiverId": bob.ID, "text": "free CASINO chips"}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		w := env.do(t, http.MethodPost, "/api/messages", tc.body, alice.ID)
		assert.Equal(t, tc.code, w.Code, "%v: %s", tc.body, w.Body.String())
	}
	assert.Empty(t, env.db.messages)
}

func dialWS(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) chat.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f chat.Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestWebSocketRelay(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", nil, nil)
	bob := env.createUser(t, "bob", nil, nil)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	aliceConn := dialWS(t, srv, env.token(t, alice.ID))
	bobConn := dialWS(t, srv, env.token(t, bob.ID))

	require.Eventually(t, func() bool {
		return env.hub.Online(alice.ID) && env.hub.Online(bob.ID)
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, aliceConn.WriteJSON(chat.Frame{Type: chat.FrameSendMessage, ReceiverID: bob.ID, Text: "hi bob"}))

	for _, conn := range []*websocket.Conn{bobConn, aliceConn} {
		f := readFrame(t, conn)
		assert.Equal(t, chat.FrameReceiveMessage, f.Type)
		require.NotNil(t, f.Message)
		assert.Equal(t, "hi bob", f.Message.Text)
		assert.Equal(t, alice.ID, f.Message.SenderID)
	}

	require.NoError(t, aliceConn.WriteJSON(chat.Frame{Type: chat.FrameSendMessage, ReceiverID: bob.ID, Text: ""}))
	f := readFrame(t, aliceConn)
	assert.Equal(t, chat.FrameError, f.Type)
	assert.Equal(t, chat.ErrEmptyMessage.Error(), f.Error)

	var online struct {
		Users []uint `json:"users"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/messages/online", nil, alice.ID), &online)
	assert.Equal(t, []uint{alice.ID, bob.ID}, online.Users)

	bobConn.Close()
	require.Eventually(t, func() bool { return !env.hub.Online(bob.ID) }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
