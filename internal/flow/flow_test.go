package flow_test

import (
	"testing"

	"kanbanflow/internal/flow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowed_Table(t *testing.T) {
	cases := []struct {
		src, dst flow.Status
		allowed  bool
	}{
		{flow.StatusNormal, flow.StatusNormal, true},
		{flow.StatusNormal, flow.StatusInProgress, true},
		{flow.StatusNormal, flow.StatusDone, false},
		{flow.StatusInProgress, flow.StatusNormal, false},
		{flow.StatusInProgress, flow.StatusInProgress, false},
		{flow.StatusInProgress, flow.StatusDone, true},
		{flow.StatusDone, flow.StatusNormal, false},
		{flow.StatusDone, flow.StatusInProgress, false},
		{flow.StatusDone, flow.StatusDone, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.src)+"->"+string(tc.dst), func(t *testing.T) {
			assert.Equal(t, tc.allowed, flow.Allowed(tc.src, tc.dst))
		})
	}
}

func TestAllowed_EmptyStatusIsNormal(t *testing.T) {
	assert.True(t, flow.Allowed("", flow.StatusInProgress))
	assert.False(t, flow.Allowed("", flow.StatusDone))
}

func TestCapacity(t *testing.T) {
	assert.Equal(t, flow.MaxCardsNormal, flow.Capacity(flow.StatusNormal))
	assert.Equal(t, flow.MaxCardsFixed, flow.Capacity(flow.StatusInProgress))
	assert.Equal(t, flow.MaxCardsFixed, flow.Capacity(flow.StatusDone))
	assert.Greater(t, flow.MaxCardsFixed, flow.MaxCardsNormal)
}

func TestParseStatus(t *testing.T) {
	s, err := flow.ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, flow.StatusNormal, s)

	s, err = flow.ParseStatus("done")
	require.NoError(t, err)
	assert.Equal(t, flow.StatusDone, s)

	_, err = flow.ParseStatus("archived")
	assert.Error(t, err)
}

func TestGate_Check(t *testing.T) {
	backlog := flow.ColumnInfo{ID: uuid.New(), Status: flow.StatusNormal}
	doing := flow.ColumnInfo{ID: uuid.New(), Status: flow.StatusInProgress}
	done := flow.ColumnInfo{ID: uuid.New(), Status: flow.StatusDone}
	columns := []flow.ColumnInfo{backlog, doing, done}
	gate := flow.Gate{}

	assert.NoError(t, gate.Check(columns, backlog.ID, doing.ID, 0))
	assert.NoError(t, gate.Check(columns, doing.ID, done.ID, 0))
	assert.ErrorIs(t, gate.Check(columns, backlog.ID, done.ID, 0), flow.ErrFlowViolation)
	assert.ErrorIs(t, gate.Check(columns, doing.ID, backlog.ID, 0), flow.ErrFlowViolation)
	assert.ErrorIs(t, gate.Check(columns, done.ID, backlog.ID, 0), flow.ErrFlowViolation)

	// same column is never gated, even when full or done
	assert.NoError(t, gate.Check(columns, done.ID, done.ID, flow.MaxCardsFixed))
}

func TestGate_Capacity(t *testing.T) {
	a := flow.ColumnInfo{ID: uuid.New(), Status: flow.StatusNormal}
	b := flow.ColumnInfo{ID: uuid.New(), Status: flow.StatusNormal}
	doing := flow.ColumnInfo{ID: uuid.New(), Status: flow.StatusInProgress}
	columns := []flow.ColumnInfo{a, b, doing}

	assert.NoError(t, flow.Gate{}.Check(columns, a.ID, b.ID, flow.MaxCardsNormal-1))
	assert.ErrorIs(t, flow.Gate{}.Check(columns, a.ID, b.ID, flow.MaxCardsNormal), flow.ErrColumnFull)
	assert.NoError(t, flow.Gate{}.Check(columns, a.ID, doing.ID, flow.MaxCardsNormal))
}

func TestGate_UnknownSource(t *testing.T) {
	dst := flow.ColumnInfo{ID: uuid.New(), Status: flow.StatusDone}
	columns := []flow.ColumnInfo{dst}

	err := flow.Gate{}.Check(columns, uuid.New(), dst.ID, 0)
	assert.ErrorIs(t, err, flow.ErrUnknownColumn)

	err = flow.Gate{AllowUnknown: true}.Check(columns, uuid.New(), dst.ID, 0)
	assert.NoError(t, err)
}

func TestGate_UnknownDestination(t *testing.T) {
	src := flow.ColumnInfo{ID: uuid.New(), Status: flow.StatusNormal}
	err := flow.Gate{AllowUnknown: true}.Check([]flow.ColumnInfo{src}, src.ID, uuid.New(), 0)
	assert.ErrorIs(t, err, flow.ErrUnknownColumn)
}
