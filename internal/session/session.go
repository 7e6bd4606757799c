package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bmex-dev/leveldensity/internal/export"
)

type State int

const (
	StateIdle State = iota
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Store persists the last resolved table per session ID.
type Store interface {
	Load(ctx context.Context, id string) (*export.Table, bool, error)
	Save(ctx context.Context, id string, table *export.Table) error
	Close() error
}

// Session is the per-visitor context passed to resolve and export calls.
type Session struct {
	ID    string
	store Store
}

func New(store Store) *Session {
	return &Session{ID: uuid.NewString(), store: store}
}

// Open attaches to an existing session ID. An empty or malformed ID starts a
// new session.
func Open(store Store, id string) *Session {
	if _, err := uuid.Parse(id); err != nil {
		return New(store)
	}
	return &Session{ID: id, store: store}
}

func (s *Session) Last(ctx context.Context) (*export.Table, bool, error) {
	return s.store.Load(ctx, s.ID)
}

func (s *Session) State(ctx context.Context) (State, error) {
	_, found, err := s.Last(ctx)
	if err != nil {
		return StateIdle, err
	}
	if found {
		return StateResolved, nil
	}
	return StateIdle, nil
}

// Remember caches table as the session's last result. A table without rows
// does not move an idle session to resolved, but replaces the cache of a
// resolved one. A nil table is ignored.
func (s *Session) Remember(ctx context.Context, table *export.Table) error {
	if table == nil {
		return nil
	}
	if len(table.Rows) == 0 {
		state, err := s.State(ctx)
		if err != nil {
			return err
		}
		if state == StateIdle {
			return nil
		}
	}
	if err := s.store.Save(ctx, s.ID, table); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID, err)
	}
	return nil
}

func cloneTable(t *export.Table) *export.Table {
	out := &export.Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}
