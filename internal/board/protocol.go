package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kanbanflow/internal/flow"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Placement is one (card id, position) pair of a bulk reorder.
type Placement struct {
	ID       uuid.UUID
	Position int
}

// Revision is the sequence token the backend assigned to a column after a
// write touched it.
type Revision struct {
	ColumnID uuid.UUID
	Version  int64
}

type ReorderRequest struct {
	ColumnID uuid.UUID
	Items    []Placement
	// ExpectedVersion is zero when the write is unconditional.
	ExpectedVersion int64
}

type MoveRequest struct {
	TaskID        uuid.UUID
	ColumnID      uuid.UUID
	Position      int
	SourceVersion int64
	TargetVersion int64
}

// Persister is the backend the protocol writes through.
type Persister interface {
	ReorderTasks(ctx context.Context, req ReorderRequest) (Revision, error)
	MoveTask(ctx context.Context, req MoveRequest) ([]Revision, error)
	ReorderColumns(ctx context.Context, boardID uuid.UUID, items []Placement) error
}

// Policy selects how concurrent writes to one column are arbitrated.
type Policy int

const (
	// LastWriterWins sends writes without a version; the backend applies them
	// in arrival order and overlapping drags may overwrite each other.
	LastWriterWins Policy = iota
	// RejectStale sends the version the client holds; the backend refuses a
	// write against a column that changed since, and the client rolls back.
	RejectStale
)

type Protocol struct {
	board  *Board
	store  Persister
	gate   flow.Gate
	policy Policy
	logger *slog.Logger
}

type Option func(*Protocol)

func WithPolicy(policy Policy) Option {
	return func(p *Protocol) { p.policy = policy }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Protocol) { p.logger = l }
}

func NewProtocol(b *Board, store Persister, opts ...Option) *Protocol {
	p := &Protocol{
		board:  b,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// pending is a drop that has been applied locally and still has to be
// persisted.
type pending struct {
	move     Move
	reorder  *ReorderRequest
	transfer *MoveRequest
}

// Drop applies d to the board and persists it, blocking until the backend
// answered. Validation failures leave the board untouched; a rejected write
// is undone through the inverse move before returning.
func (p *Protocol) Drop(ctx context.Context, d Drop) error {
	pd, err := p.begin(d)
	if err != nil || pd == nil {
		return err
	}
	return p.commit(ctx, pd)
}

// DropAsync applies d to the board before returning and persists it in the
// background. The channel receives the outcome of the persistence step.
//
// It is meant for long-lived callers that redraw between the optimistic
// update and the confirmation, such as a drag-and-drop UI. kanbanctl exits
// after each command and uses Drop.
func (p *Protocol) DropAsync(ctx context.Context, d Drop) <-chan error {
	done := make(chan error, 1)
	pd, err := p.begin(d)
	if err != nil || pd == nil {
		done <- err
		close(done)
		return done
	}
	go func() {
		defer close(done)
		done <- p.commit(ctx, pd)
	}()
	return done
}

func (p *Protocol) begin(d Drop) (*pending, error) {
	b := p.board
	b.mu.Lock()
	defer b.mu.Unlock()

	m, err := b.resolve(d)
	if err != nil {
		p.logger.Warn("drop ignored", "board_id", b.ID, "error", err)
		return nil, err
	}

	if m.SameColumn() {
		if m.FromIndex == m.ToIndex {
			return nil, nil
		}
		if err := b.apply(m); err != nil {
			return nil, err
		}
		col := b.column(m.From)
		return &pending{
			move: m,
			reorder: &ReorderRequest{
				ColumnID:        col.ID,
				Items:           col.placements(),
				ExpectedVersion: p.expected(col),
			},
		}, nil
	}

	src, dst := b.column(m.From), b.column(m.To)
	if err := p.gate.Check(b.columnInfos(), src.ID, dst.ID, len(dst.Cards)); err != nil {
		p.logger.Info("move rejected", "board_id", b.ID, "card_id", m.CardID, "error", err)
		return nil, err
	}
	if err := b.apply(m); err != nil {
		return nil, err
	}
	return &pending{
		move: m,
		transfer: &MoveRequest{
			TaskID:        m.CardID,
			ColumnID:      dst.ID,
			Position:      m.ToIndex + 1,
			SourceVersion: p.expected(src),
			TargetVersion: p.expected(dst),
		},
	}, nil
}

func (p *Protocol) commit(ctx context.Context, pd *pending) error {
	if pd.reorder != nil {
		rev, err := p.store.ReorderTasks(ctx, *pd.reorder)
		if err != nil {
			p.rollback(pd.move, err)
			return fmt.Errorf("reorder column %s: %w", pd.reorder.ColumnID, err)
		}
		p.board.setVersions(rev)
		return nil
	}

	revs, err := p.store.MoveTask(ctx, *pd.transfer)
	if err != nil {
		p.rollback(pd.move, err)
		return fmt.Errorf("move card %s: %w", pd.transfer.TaskID, err)
	}
	p.board.setVersions(revs...)

	return p.syncPositions(ctx, pd.move)
}

// syncPositions rewrites the full order of both columns after a confirmed
// move. The source is skipped once it is empty.
func (p *Protocol) syncPositions(ctx context.Context, m Move) error {
	b := p.board
	b.mu.Lock()
	var reqs []ReorderRequest
	for _, id := range []uuid.UUID{m.To, m.From} {
		col := b.column(id)
		if col == nil || len(col.Cards) == 0 {
			continue
		}
		reqs = append(reqs, ReorderRequest{
			ColumnID:        col.ID,
			Items:           col.placements(),
			ExpectedVersion: p.expected(col),
		})
	}
	b.mu.Unlock()

	var g multierror.Group
	for _, req := range reqs {
		g.Go(func() error {
			rev, err := p.store.ReorderTasks(ctx, req)
			if err != nil {
				return fmt.Errorf("reorder column %s: %w", req.ColumnID, err)
			}
			b.setVersions(rev)
			return nil
		})
	}
	if err := g.Wait().ErrorOrNil(); err != nil {
		p.logger.Warn("position sync incomplete", "board_id", b.ID, "card_id", m.CardID, "error", err)
		return &SyncError{Err: err}
	}
	return nil
}

func (p *Protocol) rollback(m Move, cause error) {
	b := p.board
	b.mu.Lock()
	err := b.apply(m.Inverse())
	b.mu.Unlock()

	if err != nil {
		p.logger.Error("rollback failed", "board_id", b.ID, "card_id", m.CardID, "cause", cause, "error", err)
		return
	}
	p.logger.Warn("drop rolled back", "board_id", b.ID, "card_id", m.CardID, "cause", cause)
}

func (p *Protocol) expected(col *Column) int64 {
	if p.policy == RejectStale {
		return col.Version
	}
	return 0
}

// IsRejection reports whether err came from the client-side validation path,
// where nothing was mutated and nothing needs to be shown as a failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrMalformedDrop) ||
		errors.Is(err, flow.ErrFlowViolation) ||
		errors.Is(err, flow.ErrColumnFull) ||
		errors.Is(err, flow.ErrUnknownColumn)
}
