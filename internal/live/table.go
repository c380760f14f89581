// Package live keeps the open-position table of each environment current by
// applying change events from a feed, and fans the result out to browsers.
package live

import (
	"slices"
	"sync"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// Table is the in-memory list of open positions, newest first.
type Table struct {
	mu   sync.RWMutex
	rows []domain.Position
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{}
}

// Seed replaces the table contents with rows.
func (t *Table) Seed(rows []domain.Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = slices.Clone(rows)
}

// Apply patches the table with ch and reports whether anything changed.
// Inserts of non-OPEN records are ignored. An update that moves a row out
// of OPEN removes it, since the engine closes positions by update.
func (t *Table) Apply(ch domain.PositionChange) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ch.Type {
	case domain.ChangeInsert:
		if ch.Record == nil || !ch.Record.IsOpen() {
			return false
		}
		if i := t.indexOf(ch.Record.ID); i >= 0 {
			t.rows[i] = *ch.Record
			return true
		}
		t.rows = slices.Insert(t.rows, 0, *ch.Record)
		return true

	case domain.ChangeUpdate:
		if ch.Record == nil {
			return false
		}
		i := t.indexOf(ch.Record.ID)
		if i < 0 {
			return false
		}
		if !ch.Record.IsOpen() {
			t.rows = slices.Delete(t.rows, i, i+1)
			return true
		}
		t.rows[i] = *ch.Record
		return true

	case domain.ChangeDelete:
		if ch.OldRecord == nil {
			return false
		}
		i := t.indexOf(ch.OldRecord.ID)
		if i < 0 {
			return false
		}
		t.rows = slices.Delete(t.rows, i, i+1)
		return true
	}
	return false
}

// Snapshot returns a copy of the current rows.
func (t *Table) Snapshot() []domain.Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Position, len(t.rows))
	copy(out, t.rows)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

func (t *Table) indexOf(id int64) int {
	return slices.IndexFunc(t.rows, func(p domain.Position) bool { return p.ID == id })
}

// Tables holds one Table per environment.
type Tables map[domain.Environment]*Table

// NewTables creates an empty table for every known environment.
func NewTables() Tables {
	ts := make(Tables, len(domain.Environments))
	for _, env := range domain.Environments {
		ts[env] = NewTable()
	}
	return ts
}

// Snapshot returns the rows of env, or nil when env has no table.
func (ts Tables) Snapshot(env domain.Environment) []domain.Position {
	t, ok := ts[env]
	if !ok {
		return nil
	}
	return t.Snapshot()
}
