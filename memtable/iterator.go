package memtable

import (
	"errors"
	"sync"

	"github.com/INLOpen/docseek/core"
	"github.com/INLOpen/skiplist"
)

// ErrIteratorClosed is returned when seeking an iterator after Close.
var ErrIteratorClosed = errors.New("memtable iterator is closed")

// Iterator walks the entries of a range in key order. Seek positions it just
// before the first entry of the range; each Next moves to the following
// entry. It is not safe for concurrent use by multiple goroutines.
type Iterator struct {
	mu      *sync.RWMutex // The lock from the parent memtable. Released by Close.
	m       *Memtable
	iter    *skiplist.Iterator[*core.Key, []byte]
	rng     core.Range
	pending bool // Seek was called and Next has not positioned yet.
	valid   bool
	err     error
}

// Seek restricts the iterator to r and rewinds it to the start of r.
func (it *Iterator) Seek(r core.Range) error {
	if it.mu == nil {
		it.err = ErrIteratorClosed
		return it.err
	}
	it.rng = r
	it.iter = it.m.data.NewIterator()
	it.pending = true
	it.valid = false
	return nil
}

// Next moves to the next entry within the range.
func (it *Iterator) Next() bool {
	if it.mu == nil || it.iter == nil {
		return false
	}
	var found bool
	switch {
	case it.pending:
		it.pending = false
		if it.rng.Start != nil {
			found = it.iter.Seek(it.rng.Start)
		} else {
			found = it.iter.First()
		}
		for found && it.rng.BeforeStart(*it.iter.Key()) {
			found = it.iter.Next()
		}
	case it.valid:
		found = it.iter.Next()
	default:
		return false
	}

	if !found || it.rng.AfterEnd(*it.iter.Key()) {
		it.valid = false
		return false
	}
	it.valid = true
	return true
}

// At returns the current entry. The key and value must not be modified.
func (it *Iterator) At() core.Entry {
	if !it.valid {
		return core.Entry{}
	}
	return core.Entry{Key: *it.iter.Key(), Value: it.iter.Value()}
}

// Error returns the error.
func (it *Iterator) Error() error {
	return it.err
}

// Close releases the read lock on the memtable. It is safe to call Close
// multiple times.
func (it *Iterator) Close() error {
	if it.mu == nil {
		return nil
	}
	it.valid = false
	it.mu.RUnlock()
	it.mu = nil
	return nil
}
