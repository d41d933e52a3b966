package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/wordquest/go/internal/game"
	"github.com/mcdev12/wordquest/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFixture struct {
	*harness
	connections *ConnectionManager
	mux         *http.ServeMux
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	h := newHarness(t, Config{})
	connections := NewConnectionManager(DefaultConnectionConfig())
	h.manager.broadcaster = connections

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go connections.Start(ctx)

	mux := http.NewServeMux()
	NewHandler(h.manager, connections).RegisterRoutes(mux)
	return &handlerFixture{harness: h, connections: connections, mux: mux}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) View {
	t.Helper()
	var view View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func TestHandler_SessionLifecycle(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/sessions", CreateRequest{Mode: models.ModeEcho, Style: models.GameStyleChallenge})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeView(t, rec)
	assert.Equal(t, models.ModeEcho, created.Mode)
	assert.Equal(t, game.StatusIdle, created.Status)
	base := "/api/sessions/" + created.ID

	rec = f.do(t, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, game.StatusPlaying, decodeView(t, rec).Status)
	require.Eventually(t, func() bool {
		return decodeView(t, f.do(t, http.MethodGet, base, nil)).StartTime != nil
	}, waitFor, tick)

	rec = f.do(t, http.MethodPost, base+"/rounds", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, decodeView(t, rec).EchoCountingDown)

	rec = f.do(t, http.MethodPost, base+"/answer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeView(t, rec).EchoCountingDown)

	rec = f.do(t, http.MethodPost, base+"/end", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, game.StatusGameOver, decodeView(t, rec).Status)

	rec = f.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, game.StatusGameOver, decodeView(t, rec).Status)

	rec = f.do(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_RoundsWithoutSubTimerIsNoContent(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/sessions", CreateRequest{Mode: models.ModeTyping, Style: models.GameStylePractice})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeView(t, rec)
	assert.Equal(t, DefaultTypingTimeLimit, created.TimeLeft)

	f.do(t, http.MethodPost, "/api/sessions/"+created.ID+"/start", nil)
	rec = f.do(t, http.MethodPost, "/api/sessions/"+created.ID+"/rounds", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandler_Errors(t *testing.T) {
	f := newHandlerFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"unknown mode", http.MethodPost, "/api/sessions", CreateRequest{Mode: "karaoke"}, http.StatusBadRequest},
		{"unknown style", http.MethodPost, "/api/sessions", CreateRequest{Mode: models.ModeEcho, Style: "relaxed"}, http.StatusBadRequest},
		{"malformed id", http.MethodGet, "/api/sessions/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/api/sessions/" + uuid.NewString(), nil, http.StatusNotFound},
		{"start unknown session", http.MethodPost, "/api/sessions/" + uuid.NewString() + "/start", nil, http.StatusNotFound},
		{"delete unknown session", http.MethodDelete, "/api/sessions/" + uuid.NewString(), nil, http.StatusNotFound},
		{"websocket without id", http.MethodGet, "/ws/session", nil, http.StatusBadRequest},
		{"websocket unknown session", http.MethodGet, "/ws/session?session_id=" + uuid.NewString(), nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}

	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func readEvent(t *testing.T, conn *websocket.Conn) SessionEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	var event SessionEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestHandler_WebSocketStreamsStatusChanges(t *testing.T) {
	f := newHandlerFixture(t)
	server := httptest.NewServer(f.mux)
	defer server.Close()

	s, err := f.manager.Create(models.ModeMemory, models.GameStylePractice)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/session?session_id=" + s.ID.String()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	initial := readEvent(t, conn)
	assert.Equal(t, EventTypeStatusChanged, initial.Type)
	assert.Equal(t, s.ID.String(), initial.SessionID)

	var payload StatusChangedPayload
	require.NoError(t, json.Unmarshal(initial.Data, &payload))
	assert.Equal(t, game.StatusIdle, payload.Status)

	require.Eventually(t, func() bool { return f.connections.Stats().TotalConnections == 1 }, waitFor, tick)

	_, err = f.manager.Start(s.ID)
	require.NoError(t, err)

	for {
		event := readEvent(t, conn)
		if event.Type != EventTypeStatusChanged {
			continue
		}
		require.NoError(t, json.Unmarshal(event.Data, &payload))
		assert.Equal(t, game.StatusPlaying, payload.Status)
		assert.Equal(t, game.StatusIdle, payload.PreviousStatus)
		break
	}

	require.NoError(t, f.manager.Delete(s.ID))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.Equal(t, 0, f.connections.Stats().TotalConnections)
}

func TestHandler_ConnectionForDeletedSessionIsDropped(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewHandler(f.manager, f.connections)

	s, err := f.manager.Create(models.ModeEcho, models.GameStyleChallenge)
	require.NoError(t, err)

	live := &Connection{ID: "live", SessionID: s.ID, Send: make(chan []byte, 1), Manager: f.connections}
	f.connections.registerConnection(live)
	handler.dropIfDeleted(s.ID)
	assert.Equal(t, 1, f.connections.Stats().TotalConnections)

	// Deleted after the handler looked it up but before the connection registered.
	require.NoError(t, f.manager.Delete(s.ID))
	late := &Connection{ID: "late", SessionID: s.ID, Send: make(chan []byte, 1), Manager: f.connections}
	f.connections.registerConnection(late)
	require.Equal(t, 1, f.connections.Stats().TotalConnections)

	handler.dropIfDeleted(s.ID)
	assert.Equal(t, 0, f.connections.Stats().TotalConnections)
	_, open := <-late.Send
	assert.False(t, open)
}
