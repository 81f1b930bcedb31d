// Package memtable holds document keys in memory, sorted by core.Key order,
// and serves them to scans through seekable iterators.
package memtable

import (
	"sync"

	"github.com/INLOpen/docseek/core"
	"github.com/INLOpen/skiplist"
)

// comparator orders skip list entries by full key order: row, family,
// qualifier and visibility ascending, then timestamp descending.
func comparator(a, b *core.Key) int {
	return a.Compare(*b)
}

// Memtable is an in-memory, sorted table of entries. Writing a key that is
// already present replaces its value.
type Memtable struct {
	mu        sync.RWMutex
	data      *skiplist.SkipList[*core.Key, []byte]
	sizeBytes int64
}

// New creates an empty memtable.
func New() *Memtable {
	return &Memtable{
		data: skiplist.NewWithComparator[*core.Key, []byte](comparator),
	}
}

// FromEntries builds a memtable holding entries.
func FromEntries(entries ...core.Entry) *Memtable {
	m := New()
	for _, e := range entries {
		m.Put(e)
	}
	return m
}

func entrySize(k *core.Key, value []byte) int64 {
	return int64(len(k.Row)+len(k.ColumnFamily)+len(k.ColumnQualifier)+len(k.Visibility)+len(value)) + 9
}

// Put inserts a copy of e.
func (m *Memtable) Put(e core.Entry) {
	key := e.Key.Clone()
	value := append([]byte(nil), e.Value...)

	m.mu.Lock()
	defer m.mu.Unlock()

	oldNode := m.data.Insert(&key, value)
	if oldNode != nil {
		m.sizeBytes -= entrySize(oldNode.Key(), oldNode.Value())
	}
	m.sizeBytes += entrySize(&key, value)
}

// Get returns the value stored under exactly k.
func (m *Memtable) Get(k core.Key) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.data.Seek(&k)
	if !ok || !node.Key().Equal(k) {
		return nil, false
	}
	return node.Value(), true
}

// Size reports estimated memory usage.
func (m *Memtable) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sizeBytes
}

// Len returns the number of entries.
func (m *Memtable) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.Len()
}

// NewIterator returns an unpositioned iterator. It holds a read lock on the
// memtable until Close.
func (m *Memtable) NewIterator() *Iterator {
	m.mu.RLock()
	return &Iterator{mu: &m.mu, m: m}
}
