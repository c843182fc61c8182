package board_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"kanbanflow/internal/board"
	"kanbanflow/internal/flow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend unavailable")

// fakeStore records every write and keeps its own column versions.
type fakeStore struct {
	mu       sync.Mutex
	reorders []board.ReorderRequest
	moves    []board.MoveRequest
	columns  [][]board.Placement
	versions map[uuid.UUID]int64

	failReorder map[uuid.UUID]error
	failMove    error
	failColumns error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		versions:    map[uuid.UUID]int64{},
		failReorder: map[uuid.UUID]error{},
	}
}

func (s *fakeStore) ReorderTasks(_ context.Context, req board.ReorderRequest) (board.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reorders = append(s.reorders, req)
	if err := s.failReorder[req.ColumnID]; err != nil {
		return board.Revision{}, err
	}
	s.versions[req.ColumnID]++
	return board.Revision{ColumnID: req.ColumnID, Version: s.versions[req.ColumnID]}, nil
}

func (s *fakeStore) MoveTask(_ context.Context, req board.MoveRequest) ([]board.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moves = append(s.moves, req)
	if s.failMove != nil {
		return nil, s.failMove
	}
	s.versions[req.ColumnID]++
	return []board.Revision{{ColumnID: req.ColumnID, Version: s.versions[req.ColumnID]}}, nil
}

func (s *fakeStore) ReorderColumns(_ context.Context, _ uuid.UUID, items []board.Placement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns = append(s.columns, items)
	return s.failColumns
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reorders) + len(s.moves) + len(s.columns)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newColumn(name string, status flow.Status, n int) *board.Column {
	col := &board.Column{ID: uuid.New(), Name: name, Status: status}
	for i := 0; i < n; i++ {
		col.Cards = append(col.Cards, &board.Card{
			ID:       uuid.New(),
			ColumnID: col.ID,
			Title:    name,
			Position: i + 1,
		})
	}
	return col
}

func cardIDs(col board.Column) []uuid.UUID {
	ids := make([]uuid.UUID, len(col.Cards))
	for i, c := range col.Cards {
		ids[i] = c.ID
	}
	return ids
}

func idsOf(col *board.Column) []uuid.UUID {
	ids := make([]uuid.UUID, len(col.Cards))
	for i, c := range col.Cards {
		ids[i] = c.ID
	}
	return ids
}

func assertSettled(t *testing.T, cols []board.Column) {
	t.Helper()
	seen := map[uuid.UUID]uuid.UUID{}
	for _, col := range cols {
		for i, card := range col.Cards {
			assert.Equal(t, i+1, card.Position, "position of %s in %s", card.ID, col.Name)
			assert.Equal(t, col.ID, card.ColumnID, "owner of %s", card.ID)
			if owner, dup := seen[card.ID]; dup {
				t.Fatalf("card %s present in %s and %s", card.ID, owner, col.ID)
			}
			seen[card.ID] = col.ID
		}
	}
}

type fixture struct {
	backlog, doing, done *board.Column
	board                *board.Board
	store                *fakeStore
	proto                *board.Protocol
}

func setup(t *testing.T, opts ...board.Option) *fixture {
	t.Helper()
	f := &fixture{
		backlog: newColumn("Backlog", flow.StatusNormal, 3),
		doing:   newColumn("Doing", flow.StatusInProgress, 2),
		done:    newColumn("Done", flow.StatusDone, 1),
		store:   newFakeStore(),
	}
	f.board = board.New(uuid.New(), "Project", []*board.Column{f.backlog, f.doing, f.done})
	opts = append([]board.Option{board.WithLogger(quietLogger())}, opts...)
	f.proto = board.NewProtocol(f.board, f.store, opts...)
	return f
}

func (f *fixture) snapshot(id uuid.UUID) board.Column {
	for _, col := range f.board.Snapshot() {
		if col.ID == id {
			return col
		}
	}
	return board.Column{}
}

func TestDrop_SameColumnReorder(t *testing.T) {
	f := setup(t)
	one, two, three := f.backlog.Cards[0].ID, f.backlog.Cards[1].ID, f.backlog.Cards[2].ID

	err := f.proto.Drop(context.Background(), board.Drop{
		FromColumn: f.backlog.ID, ToColumn: f.backlog.ID, FromIndex: 1, ToIndex: 0,
	})
	require.NoError(t, err)

	col := f.snapshot(f.backlog.ID)
	assert.Equal(t, []uuid.UUID{two, one, three}, cardIDs(col))
	assertSettled(t, f.board.Snapshot())

	require.Len(t, f.store.reorders, 1)
	assert.Empty(t, f.store.moves)
	assert.Equal(t, f.backlog.ID, f.store.reorders[0].ColumnID)
	assert.Equal(t, []board.Placement{
		{ID: two, Position: 1},
		{ID: one, Position: 2},
		{ID: three, Position: 3},
	}, f.store.reorders[0].Items)
	assert.Equal(t, int64(1), col.Version)
}

func TestDrop_SameColumnIsRotationNotSwap(t *testing.T) {
	f := setup(t)
	a, b, c := f.backlog.Cards[0].ID, f.backlog.Cards[1].ID, f.backlog.Cards[2].ID

	require.NoError(t, f.proto.Drop(context.Background(), board.Drop{
		FromColumn: f.backlog.ID, ToColumn: f.backlog.ID, FromIndex: 0, ToIndex: 2,
	}))

	assert.Equal(t, []uuid.UUID{b, c, a}, cardIDs(f.snapshot(f.backlog.ID)))
}

func TestDrop_SameColumnRollback(t *testing.T) {
	f := setup(t)
	original := idsOf(f.backlog)
	f.store.failReorder[f.backlog.ID] = errBackend

	err := f.proto.Drop(context.Background(), board.Drop{
		FromColumn: f.backlog.ID, ToColumn: f.backlog.ID, FromIndex: 0, ToIndex: 2,
	})
	require.ErrorIs(t, err, errBackend)
	assert.False(t, board.IsRejection(err))

	assert.Equal(t, original, cardIDs(f.snapshot(f.backlog.ID)))
	assertSettled(t, f.board.Snapshot())
}

func TestDrop_SameIndexIsNoop(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.proto.Drop(context.Background(), board.Drop{
		FromColumn: f.backlog.ID, ToColumn: f.backlog.ID, FromIndex: 1, ToIndex: 1,
	}))
	assert.Zero(t, f.store.calls())
}

func TestDrop_Malformed(t *testing.T) {
	f := setup(t)
	before := f.board.Snapshot()

	drops := []board.Drop{
		{FromColumn: uuid.New(), ToColumn: f.backlog.ID, FromIndex: 0, ToIndex: 0},
		{FromColumn: f.backlog.ID, ToColumn: uuid.New(), FromIndex: 0, ToIndex: 0},
		{FromColumn: f.backlog.ID, ToColumn: f.backlog.ID, FromIndex: -1, ToIndex: 0},
		{FromColumn: f.backlog.ID, ToColumn: f.backlog.ID, FromIndex: 3, ToIndex: 0},
		{FromColumn: f.backlog.ID, ToColumn: f.backlog.ID, FromIndex: 0, ToIndex: 3},
		{FromColumn: f.backlog.ID, ToColumn: f.doing.ID, FromIndex: 0, ToIndex: 3},
	}
	for _, d := range drops {
		err := f.proto.Drop(context.Background(), d)
		assert.ErrorIs(t, err, board.ErrMalformedDrop)
		assert.True(t, board.IsRejection(err))
	}

	assert.Equal(t, before, f.board.Snapshot())
	assert.Zero(t, f.store.calls())
}

func TestDrop_CrossColumnMove(t *testing.T) {
	f := setup(t)
	moved := f.backlog.Cards[0].ID

	err := f.proto.Drop(context.Background(), board.Drop{
		FromColumn: f.backlog.ID, ToColumn: f.doing.ID, FromIndex: 0, ToIndex: 1,
	})
	require.NoError(t, err)

	doing := f.snapshot(f.doing.ID)
	require.Len(t, doing.Cards, 3)
	assert.Equal(t, moved, doing.Cards[1].ID)
	assert.Equal(t, f.doing.ID, doing.Cards[1].ColumnID)
	assert.Len(t, f.snapshot(f.backlog.ID).Cards, 2)
	assertSettled(t, f.board.Snapshot())

	require.Len(t, f.store.moves, 1)
	assert.Equal(t, board.MoveRequest{TaskID: moved, ColumnID: f.doing.ID, Position: 2}, f.store.moves[0])

	require.Len(t, f.store.reorders, 2)
	reordered := map[uuid.UUID][]board.Placement{}
	for _, r := range f.store.reorders {
		reordered[r.ColumnID] = r.Items
	}
	assert.Len(t, reordered[f.doing.ID], 3)
	assert.Len(t, reordered[f.backlog.ID], 2)
}

func TestDrop_CrossColumnEmptySourceSkipsReorder(t *testing.T) {
	f := setup(t)
	only := newColumn("Ideas", flow.StatusNormal, 1)
	f.board.Replace([]*board.Column{only, f.backlog, f.doing, f.done})

	require.NoError(t, f.proto.Drop(context.Background(), board.Drop{
		FromColumn: only.ID, ToColumn: f.backlog.ID, FromIndex: 0, ToIndex: 3,
	}))

	require.Len(t, f.store.reorders, 1)
	assert.Equal(t, f.backlog.ID, f.store.reorders[0].ColumnID)
	assert.Len(t, f.store.reorders[0].Items, 4)
}

func TestDrop_CrossColumnRollback(t *testing.T) {
	f := setup(t)
	backlogBefore := idsOf(f.backlog)
	doingBefore := idsOf(f.doing)
	f.store.failMove = errBackend

	err := f.proto.Drop(context.Background(), board.Drop{
		FromColumn: f.backlog.ID, ToColumn: f.doing.ID, FromIndex: 1, ToIndex: 0,
	})
	require.ErrorIs(t, err, errBackend)

	assert.Equal(t, backlogBefore, cardIDs(f.snapshot(f.backlog.ID)))
	assert.Equal(t, doingBefore, cardIDs(f.snapshot(f.doing.ID)))
	assertSettled(t, f.board.Snapshot())
	assert.Empty(t, f.store.reorders)
}

func TestDrop_FromDoneRejected(t *testing.T) {
	f := setup(t)
	before := f.board.Snapshot()

	for _, dst := range []uuid.UUID{f.backlog.ID, f.doing.ID} {
		err := f.proto.Drop(context.Background(), board.Drop{
			FromColumn: f.done.ID, ToColumn: dst, FromIndex: 0, ToIndex: 0,
		})
		assert.ErrorIs(t, err, flow.ErrFlowViolation)
	}

	assert.Equal(t, before, f.board.Snapshot())
	assert.Zero(t, f.store.calls())
}

func TestDrop_InProgressGate(t *testing.T) {
	f := setup(t)
	card := f.doing.Cards[0].ID

	err := f.proto.Drop(context.Background(), board.Drop{
		FromColumn: f.doing.ID, ToColumn: f.backlog.ID, FromIndex: 0, ToIndex: 0,
	})
	require.ErrorIs(t, err, flow.ErrFlowViolation)
	assert.Zero(t, f.store.calls())

	err = f.proto.Drop(context.Background(), board.Drop{
		FromColumn: f.doing.ID, ToColumn: f.done.ID, FromIndex: 0, ToIndex: 1,
	})
	require.NoError(t, err)
	assert.Len(t, f.store.moves, 1)
	assert.Len(t, f.store.reorders, 2)
	assert.Equal(t, card, f.snapshot(f.done.ID).Cards[1].ID)
}

func TestDrop_NormalToDoneRejected(t *testing.T) {
	f := setup(t)

	err := f.proto.Drop(context.Background(), board.Drop{
		FromColumn: f.backlog.ID, ToColumn: f.done.ID, FromIndex: 0, ToIndex: 0,
	})
	assert.ErrorIs(t, err, flow.ErrFlowViolation)
	assert.Zero(t, f.store.calls())
}

func TestDrop_CapacityCeiling(t *testing.T) {
	f := setup(t)
	full := newColumn("Full", flow.StatusNormal, flow.MaxCardsNormal)
	f.board.Replace([]*board.Column{f.backlog, full})
	before := f.board.Snapshot()

	err := f.proto.Drop(context.Background(), board.Drop{
		FromColumn: f.backlog.ID, ToColumn: full.ID, FromIndex: 0, ToIndex: 0,
	})
	require.ErrorIs(t, err, flow.ErrColumnFull)
	assert.True(t, board.IsRejection(err))
	assert.Equal(t, before, f.board.Snapshot())
	assert.Zero(t, f.store.calls())

	// reordering inside a full column is not capacity-checked
	require.NoError(t, f.proto.Drop(context.Background(), board.Drop{
		FromColumn: full.ID, ToColumn: full.ID, FromIndex: 0, ToIndex: 5,
	}))
}

func TestDrop_SyncErrorKeepsMove(t *testing.T) {
	f := setup(t)
	moved := f.backlog.Cards[0].ID
	f.store.failReorder[f.doing.ID] = errBackend
	f.store.failReorder[f.backlog.ID] = errBackend

	err := f.proto.Drop(context.Background(), board.Drop{
		FromColumn: f.backlog.ID, ToColumn: f.doing.ID, FromIndex: 0, ToIndex: 0,
	})

	var syncErr *board.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.ErrorIs(t, err, errBackend)
	assert.Contains(t, err.Error(), f.doing.ID.String())
	assert.Contains(t, err.Error(), f.backlog.ID.String())
	assert.Equal(t, moved, f.snapshot(f.doing.ID).Cards[0].ID)
}

func TestDrop_RejectStaleSendsVersions(t *testing.T) {
	f := setup(t, board.WithPolicy(board.RejectStale))
	f.backlog.Version = 7

	require.NoError(t, f.proto.Drop(context.Background(), board.Drop{
		FromColumn: f.backlog.ID, ToColumn: f.backlog.ID, FromIndex: 0, ToIndex: 1,
	}))
	require.Len(t, f.store.reorders, 1)
	assert.Equal(t, int64(7), f.store.reorders[0].ExpectedVersion)
}

func TestDrop_RejectStaleOnFreshColumnIsConditional(t *testing.T) {
	f := setup(t, board.WithPolicy(board.RejectStale))
	f.backlog.Version = 1
	f.doing.Version = 1

	require.NoError(t, f.proto.Drop(context.Background(), board.Drop{
		FromColumn: f.backlog.ID, ToColumn: f.doing.ID, FromIndex: 0, ToIndex: 0,
	}))
	require.Len(t, f.store.moves, 1)
	assert.Equal(t, int64(1), f.store.moves[0].SourceVersion)
	assert.Equal(t, int64(1), f.store.moves[0].TargetVersion)
}

func TestDrop_LastWriterWinsOmitsVersions(t *testing.T) {
	f := setup(t)
	f.backlog.Version = 7
	f.doing.Version = 3

	require.NoError(t, f.proto.Drop(context.Background(), board.Drop{
		FromColumn: f.backlog.ID, ToColumn: f.doing.ID, FromIndex: 0, ToIndex: 0,
	}))
	require.Len(t, f.store.moves, 1)
	assert.Zero(t, f.store.moves[0].SourceVersion)
	assert.Zero(t, f.store.moves[0].TargetVersion)
	for _, r := range f.store.reorders {
		assert.Zero(t, r.ExpectedVersion)
	}
}

func TestDropAsync_AppliesBeforePersisting(t *testing.T) {
	f := setup(t)
	a := f.backlog.Cards[0].ID

	done := f.proto.DropAsync(context.Background(), board.Drop{
		FromColumn: f.backlog.ID, ToColumn: f.backlog.ID, FromIndex: 0, ToIndex: 2,
	})
	// the optimistic state is visible as soon as DropAsync returns
	assert.Equal(t, a, f.snapshot(f.backlog.ID).Cards[2].ID)

	require.NoError(t, <-done)
	assert.Len(t, f.store.reorders, 1)
}

func TestDropAsync_Rejection(t *testing.T) {
	f := setup(t)

	err := <-f.proto.DropAsync(context.Background(), board.Drop{
		FromColumn: f.done.ID, ToColumn: f.backlog.ID, FromIndex: 0, ToIndex: 0,
	})
	assert.ErrorIs(t, err, flow.ErrFlowViolation)
}

func TestMove_InverseIsInvolution(t *testing.T) {
	m := board.Move{CardID: uuid.New(), From: uuid.New(), To: uuid.New(), FromIndex: 2, ToIndex: 5}
	assert.Equal(t, m, m.Inverse().Inverse())
	assert.Equal(t, m.To, m.Inverse().From)
	assert.Equal(t, m.ToIndex, m.Inverse().FromIndex)
}
