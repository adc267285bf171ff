package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/catalog-agent/internal/agent"
	"github.com/Spok95/catalog-agent/internal/dialog"
	"github.com/Spok95/catalog-agent/internal/gateway"
)

type stubAgent struct {
	mu       sync.Mutex
	inputs   []dialog.Input
	closed   []string
	busy     bool
	err      error
	modeSeen agent.Mode
}

func (s *stubAgent) Start(string) []dialog.Message {
	return []dialog.Message{dialog.Text("hello")}
}

func (s *stubAgent) Submit(_ context.Context, _ string, in dialog.Input) ([]dialog.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return nil, agent.ErrBusy
	}
	if s.err != nil {
		return nil, s.err
	}
	s.inputs = append(s.inputs, in)
	return []dialog.Message{dialog.Text("got " + in.Value)}, nil
}

func (s *stubAgent) SetMode(_ string, m agent.Mode) ([]dialog.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modeSeen = m
	return []dialog.Message{dialog.Text("mode " + string(m))}, nil
}

func (s *stubAgent) Close(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, id)
}

type stubLister struct {
	recs []gateway.Record
	err  error
}

func (s stubLister) List(context.Context, gateway.Kind) ([]gateway.Record, error) {
	return s.recs, s.err
}

func dialChat(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readOut(t *testing.T, conn *websocket.Conn) chatOutbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var out chatOutbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(NewMux(false, Deps{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	resp2, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	_ = resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestChatConversation(t *testing.T) {
	a := &stubAgent{}
	srv := httptest.NewServer(NewMux(false, Deps{Chat: a}))
	defer srv.Close()

	conn := dialChat(t, srv)

	greeting := readOut(t, conn)
	assert.Equal(t, "messages", greeting.Type)
	assert.True(t, strings.HasPrefix(greeting.Session, "web:"))
	assert.Equal(t, "hello", greeting.Messages[0].Text)

	require.NoError(t, conn.WriteJSON(chatInbound{Type: "send", Input: "specification"}))
	out := readOut(t, conn)
	assert.Equal(t, "got specification", out.Messages[0].Text)

	require.NoError(t, conn.WriteJSON(chatInbound{Type: "choose", Input: "a1"}))
	out = readOut(t, conn)
	assert.Equal(t, "got a1", out.Messages[0].Text)

	require.NoError(t, conn.WriteJSON(chatInbound{Type: "mode", Mode: "free"}))
	out = readOut(t, conn)
	assert.Equal(t, "mode free", out.Messages[0].Text)

	require.NoError(t, conn.WriteJSON(chatInbound{Type: "bogus"}))
	out = readOut(t, conn)
	assert.Equal(t, "error", out.Type)

	require.NoError(t, conn.WriteJSON(chatInbound{Type: "ping"}))
	assert.Equal(t, "pong", readOut(t, conn).Type)

	a.mu.Lock()
	assert.Equal(t, []dialog.Input{dialog.TextInput("specification"), dialog.ChoiceInput("a1")}, a.inputs)
	a.mu.Unlock()

	_ = conn.Close()
	assert.Eventually(t, func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return len(a.closed) == 1 && a.closed[0] == greeting.Session
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChatBusy(t *testing.T) {
	a := &stubAgent{busy: true}
	srv := httptest.NewServer(NewMux(false, Deps{Chat: a}))
	defer srv.Close()

	conn := dialChat(t, srv)
	_ = readOut(t, conn)

	require.NoError(t, conn.WriteJSON(chatInbound{Type: "send", Input: "x"}))
	out := readOut(t, conn)
	assert.Equal(t, "busy", out.Type)
}

func TestExport(t *testing.T) {
	lister := stubLister{recs: []gateway.Record{{"sys_id": "a1", "u_name": "Widget"}}}
	srv := httptest.NewServer(NewMux(false, Deps{Lister: lister}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/export/specifications")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "specifications.xlsx")

	resp2, err := http.Get(srv.URL + "/export/customers")
	require.NoError(t, err)
	_ = resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestExportGatewayFailure(t *testing.T) {
	srv := httptest.NewServer(NewMux(false, Deps{Lister: stubLister{err: errors.New("down")}}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/export/offering")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestChatDropsReplyOfRestartedSession(t *testing.T) {
	h := NewChatHandler(&stubAgent{err: agent.ErrRestarted}, slog.Default())
	writeCh := make(chan chatOutbound, 4)

	h.submit(context.Background(), writeCh, "web:1", dialog.TextInput("view"))
	assert.Empty(t, writeCh)

	h = NewChatHandler(&stubAgent{err: errors.New("boom")}, slog.Default())
	h.submit(context.Background(), writeCh, "web:1", dialog.TextInput("view"))
	require.Len(t, writeCh, 1)
	assert.Equal(t, "error", (<-writeCh).Type)
}
