package store

import (
	"bytes"
	"context"
	"sync"
)

var _ Store = (*Memory)(nil)

type memoryCollection struct {
	records []Record
	index   map[string]int
	init    bool
}

// Memory keeps collections in process memory. Every instance is independent.
type Memory struct {
	mu          sync.RWMutex
	collections map[Collection]*memoryCollection
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[Collection]*memoryCollection)}
}

func (m *Memory) collection(c Collection) *memoryCollection {
	col, ok := m.collections[c]
	if !ok {
		col = &memoryCollection{index: make(map[string]int)}
		m.collections[c] = col
	}
	return col
}

func (m *Memory) List(ctx context.Context, c Collection) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[c]
	if !ok {
		return []Record{}, nil
	}
	out := make([]Record, 0, len(col.records))
	for _, r := range col.records {
		out = append(out, clone(r))
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, c Collection, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[c]
	if !ok {
		return Record{}, ErrNotFound
	}
	i, ok := col.index[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return clone(col.records[i]), nil
}

func (m *Memory) Put(ctx context.Context, c Collection, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := validate(c, rec); err != nil {
		return Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	col := m.collection(c)
	col.init = true
	i, exists := col.index[rec.ID]
	var stored int64
	if exists {
		stored = col.records[i].Version
	}
	if err := checkVersion(rec.Version, stored, exists); err != nil {
		return Record{}, err
	}

	out := Record{ID: rec.ID, Version: stored + 1, Data: bytes.Clone(rec.Data)}
	if exists {
		col.records[i] = out
	} else {
		col.index[rec.ID] = len(col.records)
		col.records = append(col.records, out)
	}
	return clone(out), nil
}

func (m *Memory) Init(ctx context.Context, c Collection, seed []Record) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, rec := range seed {
		if err := validate(c, rec); err != nil {
			return false, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	col := m.collection(c)
	if col.init {
		return false, nil
	}
	col.init = true
	for _, rec := range seed {
		if _, dup := col.index[rec.ID]; dup {
			continue
		}
		col.index[rec.ID] = len(col.records)
		col.records = append(col.records, Record{ID: rec.ID, Version: 1, Data: bytes.Clone(rec.Data)})
	}
	return true, nil
}

func (m *Memory) Close() error { return nil }

func clone(r Record) Record {
	return Record{ID: r.ID, Version: r.Version, Data: bytes.Clone(r.Data)}
}
