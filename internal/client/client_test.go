package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"kanbanflow/internal/board"
	"kanbanflow/internal/flow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves one board with a backlog and a done column.
type fakeAPI struct {
	t       *testing.T
	boardID uuid.UUID
	backlog uuid.UUID
	done    uuid.UUID
	cards   []uuid.UUID

	mu       sync.Mutex
	reorders []reorderDTO
	moves    []moveDTO
	moveCode int
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{
		t:        t,
		boardID:  uuid.New(),
		backlog:  uuid.New(),
		done:     uuid.New(),
		cards:    []uuid.UUID{uuid.New(), uuid.New(), uuid.New()},
		moveCode: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var in credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, authResponse{Token: "tok-123", User: User{ID: uuid.NewString(), Email: in.Email}})
	})
	mux.HandleFunc("GET /boards/{id}", api.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, BoardSummary{ID: api.boardID.String(), Title: "Sprint 7"})
	}))
	mux.HandleFunc("GET /boards/{id}/columns", api.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []columnDTO{
			{ID: api.done.String(), Title: "Done", FlowStatus: "done", Position: 2, Version: 9},
			{ID: api.backlog.String(), Title: "Backlog", FlowStatus: "normal", Position: 1, Version: 4},
		})
	}))
	mux.HandleFunc("GET /columns/{id}/tasks", api.authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != api.backlog.String() {
			writeJSON(w, http.StatusOK, []taskDTO{})
			return
		}
		due := "2026-11-01T09:00:00Z"
		writeJSON(w, http.StatusOK, []taskDTO{
			{ID: api.cards[2].String(), ColumnID: api.backlog.String(), Title: "c", Position: 3},
			{ID: api.cards[0].String(), ColumnID: api.backlog.String(), Title: "a", Position: 1, DueDate: &due, CommentCount: 2},
			{ID: api.cards[1].String(), ColumnID: api.backlog.String(), Title: "b", Position: 2, Priority: "high"},
		})
	}))
	mux.HandleFunc("POST /tasks/bulk/reorder", api.authed(func(w http.ResponseWriter, r *http.Request) {
		var in reorderDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		api.mu.Lock()
		api.reorders = append(api.reorders, in)
		n := int64(len(api.reorders))
		api.mu.Unlock()
		writeJSON(w, http.StatusOK, revisionDTO{ColumnID: in.ColumnID, Version: 100 + n})
	}))
	mux.HandleFunc("POST /tasks/{id}/move", api.authed(func(w http.ResponseWriter, r *http.Request) {
		var in moveDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		api.mu.Lock()
		api.moves = append(api.moves, in)
		code := api.moveCode
		api.mu.Unlock()
		if code != http.StatusOK {
			writeJSON(w, code, map[string]string{"error": "move not allowed by kanban flow"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"revisions": []revisionDTO{
			{ColumnID: api.backlog.String(), Version: 5},
			{ColumnID: in.ColumnID, Version: 10},
		}})
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL + "/")
	require.NoError(t, err)
	return api, c
}

func (api *fakeAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authorization header is required"})
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)

	_, err = New("://")
	assert.Error(t, err)
}

func TestLogin_StoresToken(t *testing.T) {
	_, c := newFakeAPI(t)

	_, err := c.Login(context.Background(), "ana@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid credentials", apiErr.Message)

	_, err = c.Login(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", c.Token())
}

func TestUnauthenticatedRequestFails(t *testing.T) {
	api, c := newFakeAPI(t)

	_, err := c.ListColumns(context.Background(), api.boardID)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
}

func TestLoadBoard(t *testing.T) {
	api, c := newFakeAPI(t)
	c.token = "tok-123"

	b, err := board.Load(context.Background(), c, api.boardID)
	require.NoError(t, err)

	assert.Equal(t, "Sprint 7", b.Name)
	cols := b.Snapshot()
	require.Len(t, cols, 2)
	assert.Equal(t, "Backlog", cols[0].Name)
	assert.Equal(t, flow.StatusDone, cols[1].Status)
	assert.Equal(t, int64(4), cols[0].Version)

	require.Len(t, cols[0].Cards, 3)
	assert.Equal(t, api.cards[0], cols[0].Cards[0].ID)
	assert.Equal(t, api.cards[2], cols[0].Cards[2].ID)
	require.NotNil(t, cols[0].Cards[0].DueDate)
	assert.Equal(t, 2, cols[0].Cards[0].Comments)
	assert.Equal(t, board.PriorityHigh, cols[0].Cards[1].Priority)
	assert.Equal(t, board.PriorityNone, cols[0].Cards[2].Priority)
}

func TestProtocolOverHTTP_SameColumnReorder(t *testing.T) {
	api, c := newFakeAPI(t)
	c.token = "tok-123"
	b, err := board.Load(context.Background(), c, api.boardID)
	require.NoError(t, err)

	p := board.NewProtocol(b, c, board.WithPolicy(board.RejectStale))
	require.NoError(t, p.Drop(context.Background(), board.Drop{
		FromColumn: api.backlog, ToColumn: api.backlog, FromIndex: 1, ToIndex: 0,
	}))

	require.Len(t, api.reorders, 1)
	assert.Equal(t, reorderDTO{
		ColumnID: api.backlog.String(),
		Items: []placementDTO{
			{ID: api.cards[1].String(), Position: 1},
			{ID: api.cards[0].String(), Position: 2},
			{ID: api.cards[2].String(), Position: 3},
		},
		ExpectedVersion: 4,
	}, api.reorders[0])
	assert.Equal(t, int64(101), b.Snapshot()[0].Version)
}

func TestProtocolOverHTTP_ServerRejectionRollsBack(t *testing.T) {
	api, c := newFakeAPI(t)
	c.token = "tok-123"
	api.moveCode = http.StatusUnprocessableEntity
	b, err := board.Load(context.Background(), c, api.boardID)
	require.NoError(t, err)

	p := board.NewProtocol(b, c)
	err = p.Drop(context.Background(), board.Drop{
		FromColumn: api.backlog, ToColumn: api.done, FromIndex: 0, ToIndex: 0,
	})

	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnprocessableEntity))
	require.Len(t, api.moves, 1)
	assert.Equal(t, moveDTO{ColumnID: api.done.String(), Position: 1}, api.moves[0])

	cols := b.Snapshot()
	assert.Len(t, cols[0].Cards, 3)
	assert.Empty(t, cols[1].Cards)
	assert.Equal(t, api.cards[0], cols[0].Cards[0].ID)
	assert.Empty(t, api.reorders)
}

func TestProtocolOverHTTP_MoveSyncsBothColumns(t *testing.T) {
	api, c := newFakeAPI(t)
	c.token = "tok-123"
	b, err := board.Load(context.Background(), c, api.boardID)
	require.NoError(t, err)

	p := board.NewProtocol(b, c)
	require.NoError(t, p.Drop(context.Background(), board.Drop{
		FromColumn: api.backlog, ToColumn: api.done, FromIndex: 2, ToIndex: 0,
	}))

	require.Len(t, api.moves, 1)
	assert.Len(t, api.reorders, 2)
	for _, r := range api.reorders {
		assert.Zero(t, r.ExpectedVersion)
	}
	cols := b.Snapshot()
	assert.Equal(t, api.done, cols[1].Cards[0].ColumnID)
}

func TestEventsURL(t *testing.T) {
	c, err := New("https://kanban.example.com/api", WithToken("abc"))
	require.NoError(t, err)

	assert.Equal(t, "wss://kanban.example.com/api/boards/b1/events?token=abc", c.EventsURL("b1"))
}

func TestDecodeError_PlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	err = c.DeleteCard(context.Background(), uuid.New())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
}
