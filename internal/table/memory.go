package table

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBackend keeps tables in process memory. Used for local runs and tests.
type MemoryBackend struct {
	mu     sync.Mutex
	tables map[string][]Row

	// FailAppend and FailRead force errors for the named tables.
	FailAppend map[string]error
	FailRead   map[string]error
	appends    int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		tables:     make(map[string][]Row),
		FailAppend: make(map[string]error),
		FailRead:   make(map[string]error),
	}
}

func (m *MemoryBackend) Append(_ context.Context, tableID string, row Row) (AppendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.FailAppend[tableID]; err != nil {
		return AppendResult{}, err
	}
	m.appends++
	cp := make(Row, len(row))
	copy(cp, row)
	m.tables[tableID] = append(m.tables[tableID], cp)
	n := int64(len(m.tables[tableID]))
	return AppendResult{RowNumber: n, Range: fmt.Sprintf("%s!A%d", tableID, n)}, nil
}

func (m *MemoryBackend) ReadAll(_ context.Context, tableID string) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.FailRead[tableID]; err != nil {
		return nil, err
	}
	rows := m.tables[tableID]
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = append(Row(nil), r...)
	}
	return out, nil
}

// Seed replaces a table's contents.
func (m *MemoryBackend) Seed(tableID string, rows ...Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[tableID] = rows
}

// Appends reports how many successful appends were made.
func (m *MemoryBackend) Appends() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appends
}
