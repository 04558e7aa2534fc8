package database

import (
	"bytes"
	"sort"
	"sync"
)

// Memory is an in-process Backend backed by a Go map, analogous to the
// teacher library's inMemoryKVStore (common/kv.go) generalized to four
// column families. It is the default backend for tests and for short-lived
// tries that never need to survive a process restart.
type Memory struct {
	mu   sync.RWMutex
	cols [4]map[string][]byte
}

var _ Backend = (*Memory)(nil)

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	m := &Memory{}
	for i := range m.cols {
		m.cols[i] = make(map[string][]byte)
	}
	return m
}

func (m *Memory) Get(column Column, key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.cols[column][string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) WriteBatch(ops []Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		if op.Value == nil {
			delete(m.cols[op.Column], string(op.Key))
			continue
		}
		v := make([]byte, len(op.Value))
		copy(v, op.Value)
		m.cols[op.Column][string(op.Key)] = v
	}
	return nil
}

func (m *Memory) PrefixScan(column Column, prefix []byte) (Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0)
	for k := range m.cols[column] {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	entries := make([]kv, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, kv{key: []byte(k), value: m.cols[column][k]})
	}
	return &memIterator{entries: entries, idx: -1}, nil
}

type kv struct {
	key, value []byte
}

type memIterator struct {
	entries []kv
	idx     int
}

func (it *memIterator) Next() bool {
	it.idx++
	return it.idx < len(it.entries)
}

func (it *memIterator) Key() []byte   { return it.entries[it.idx].key }
func (it *memIterator) Value() []byte { return it.entries[it.idx].value }
func (it *memIterator) Close() error  { return nil }
