package kvstore

import (
	"context"
	"sync"
)

// Tables is a set of named string-keyed tables of byte values.
type Tables interface {
	// Get returns the value of key in table. ok is false when either does
	// not exist.
	Get(ctx context.Context, table, key string) (value []byte, ok bool, err error)

	// All returns every entry of table. A missing table is empty.
	All(ctx context.Context, table string) (map[string][]byte, error)

	// Replace atomically swaps the content of table for entries. An empty
	// map removes the table.
	Replace(ctx context.Context, table string, entries map[string][]byte) error

	// DropAll removes every table.
	DropAll(ctx context.Context) error

	Ping(ctx context.Context) error

	Close() error
}

// MemoryTables keeps tables in process memory. Values are copied on the
// way in and out.
type MemoryTables struct {
	mu     sync.RWMutex
	tables map[string]map[string][]byte
}

var _ Tables = (*MemoryTables)(nil)

func NewMemoryTables() *MemoryTables {
	return &MemoryTables{tables: make(map[string]map[string][]byte)}
}

func (m *MemoryTables) Get(_ context.Context, table, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.tables[table][key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (m *MemoryTables) All(_ context.Context, table string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.tables[table]))
	for k, v := range m.tables[table] {
		out[k] = clone(v)
	}
	return out, nil
}

func (m *MemoryTables) Replace(_ context.Context, table string, entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(entries) == 0 {
		delete(m.tables, table)
		return nil
	}
	t := make(map[string][]byte, len(entries))
	for k, v := range entries {
		t[k] = clone(v)
	}
	m.tables[table] = t
	return nil
}

func (m *MemoryTables) DropAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables = make(map[string]map[string][]byte)
	return nil
}

// Set overwrites a single entry.
func (m *MemoryTables) Set(table, key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table]
	if !ok {
		t = make(map[string][]byte)
		m.tables[table] = t
	}
	t[key] = clone(value)
}

// TableNames returns the names of non-empty tables.
func (m *MemoryTables) TableNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	return names
}

func (m *MemoryTables) Ping(context.Context) error {
	return nil
}

func (m *MemoryTables) Close() error {
	return nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
