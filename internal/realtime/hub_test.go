package realtime_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kanbanflow/internal/realtime"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, boardID uuid.UUID) (*realtime.Hub, string) {
	t.Helper()
	hub := realtime.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), []string{"*"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, boardID)
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitForSubscribers(t *testing.T, hub *realtime.Hub, boardID uuid.UUID, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.Subscribers(boardID) == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishReachesBoardSubscribers(t *testing.T) {
	boardID := uuid.New()
	hub, url := newTestHub(t, boardID)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForSubscribers(t, hub, boardID, 1)

	hub.Publish(realtime.Event{Type: realtime.EventTaskMoved, BoardID: boardID, Data: map[string]int{"position": 2}})
	// other boards are not delivered
	hub.Publish(realtime.Event{Type: realtime.EventTaskMoved, BoardID: uuid.New()})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got realtime.Event
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, realtime.EventTaskMoved, got.Type)
	assert.Equal(t, boardID, got.BoardID)
	assert.False(t, got.At.IsZero())
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	boardID := uuid.New()
	hub, url := newTestHub(t, boardID)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	waitForSubscribers(t, hub, boardID, 1)

	conn.Close()
	waitForSubscribers(t, hub, boardID, 0)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	boardID := uuid.New()
	hub := realtime.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), []string{"http://app.local"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, boardID)
	}))
	defer srv.Close()

	header := http.Header{"Origin": []string{"http://evil.local"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
