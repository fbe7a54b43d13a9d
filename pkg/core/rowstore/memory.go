// This file implements an in-memory Store for tests and local runs
// without Sheets credentials.
package rowstore

import (
	"context"
	"fmt"
	"sync"
)

// Memory is a Store backed by per-sheet slices. It mirrors the Sheets
// semantics: append order is row order, updates overwrite whole rows,
// ids are scoped to one sheet.
type Memory struct {
	mu     sync.RWMutex
	sheets map[string][][]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{sheets: make(map[string][][]string)}
}

// Seed replaces one sheet's rows wholesale. Test helper.
func (m *Memory) Seed(sheet string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[sheet] = rows
}

func (m *Memory) ReadRows(ctx context.Context, sc Schema) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := make([]Row, 0, len(m.sheets[sc.Sheet]))
	for i, values := range m.sheets[sc.Sheet] {
		cp := make([]string, len(values))
		copy(cp, values)
		rows = append(rows, Row{Index: i, Values: cp})
	}
	return rows, nil
}

func (m *Memory) Append(ctx context.Context, sc Schema, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	encoded := Encode(rec, sc)
	row := make([]string, len(encoded))
	for i, v := range encoded {
		row[i] = fmt.Sprint(v)
	}
	m.sheets[sc.Sheet] = append(m.sheets[sc.Sheet], row)
	return nil
}

func (m *Memory) UpdateByID(ctx context.Context, sc Schema, id string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idCol := sc.IDColumn()
	for i, values := range m.sheets[sc.Sheet] {
		if idCol < len(values) && values[idCol] == id {
			encoded := Encode(rec, sc)
			row := make([]string, len(encoded))
			for j, v := range encoded {
				row[j] = fmt.Sprint(v)
			}
			m.sheets[sc.Sheet][i] = row
			return nil
		}
	}
	return fmt.Errorf("%s %q: %w", sc.Sheet, id, ErrNotFound)
}

func (m *Memory) FindByID(ctx context.Context, sc Schema, id string) (Row, error) {
	rows, _ := m.ReadRows(ctx, sc)
	idCol := sc.IDColumn()
	for _, row := range rows {
		if idCol < len(row.Values) && row.Values[idCol] == id {
			return row, nil
		}
	}
	return Row{}, fmt.Errorf("%s %q: %w", sc.Sheet, id, ErrNotFound)
}

func (m *Memory) GenerateNextID(ctx context.Context, sc Schema) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idCol := sc.IDColumn()
	existing := []string{}
	for _, values := range m.sheets[sc.Sheet] {
		if idCol < len(values) {
			existing = append(existing, values[idCol])
		}
	}
	return nextID(sc.IDPrefix, existing), nil
}

var _ Store = (*Memory)(nil)
var _ Store = (*SheetsStore)(nil)
