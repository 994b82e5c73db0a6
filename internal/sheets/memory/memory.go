// Package memory keeps ledger rows in process for tests and the demo backend.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/sheets"
)

var (
	_ sheets.LedgerWriter = (*Ledger)(nil)
	_ sheets.LedgerIndex  = (*Ledger)(nil)
)

type Ledger struct {
	mu   sync.Mutex
	rows []sheets.Row
	ids  map[int64]struct{}
}

func New() *Ledger {
	return &Ledger{ids: make(map[int64]struct{})}
}

// AppendRow stores the row and returns a synthetic row reference.
func (l *Ledger) AppendRow(_ context.Context, r sheets.Row) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, r)
	l.ids[r.TransactionID] = struct{}{}
	return fmt.Sprintf("mem:%d", len(l.rows)), nil
}

func (l *Ledger) HasTransaction(_ context.Context, r sheets.Row) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.ids[r.TransactionID]
	return ok, nil
}

// Rows returns a copy of everything appended so far.
func (l *Ledger) Rows() []sheets.Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]sheets.Row(nil), l.rows...)
}
