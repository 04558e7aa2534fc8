// Package database defines the column-family-aware key/value backend
// contract Bonsai is built against, and supplies two implementations: an
// in-memory map for tests and a badger-backed store for persistence. The
// trie engine and storage manager only ever see the Backend interface; the
// concrete store is an external collaborator (spec section 1).
package database

import "fmt"

// Column names one of the four column families every Bonsai backend must
// keep separate.
type Column byte

const (
	// ColumnTrie holds serialized trie nodes, keyed by identifier and path.
	ColumnTrie Column = iota
	// ColumnFlat holds the flat key -> value map used to answer point reads
	// without a trie traversal.
	ColumnFlat
	// ColumnTrieLog holds per-commit inverse patches, keyed by identifier
	// and commit id.
	ColumnTrieLog
	// ColumnConfig holds small fixed keys: latest_commit_id and per-trie
	// root hash caches.
	ColumnConfig
)

func (c Column) String() string {
	switch c {
	case ColumnTrie:
		return "trie"
	case ColumnFlat:
		return "flat"
	case ColumnTrieLog:
		return "trie_log"
	case ColumnConfig:
		return "config"
	default:
		return fmt.Sprintf("column(%d)", byte(c))
	}
}

// Op is one mutation within a WriteBatch: Value == nil means delete.
type Op struct {
	Column Column
	Key    []byte
	Value  []byte
}

// Put builds an Op that writes key/value to column.
func Put(column Column, key, value []byte) Op {
	return Op{Column: column, Key: key, Value: value}
}

// Delete builds an Op that removes key from column.
func Delete(column Column, key []byte) Op {
	return Op{Column: column, Key: key, Value: nil}
}

// Iterator walks the key/value pairs returned by a prefix scan. Iteration
// order is ascending by the backend's own byte ordering of keys; the key
// codec (package trie) relies on that ordering to group a prefix scan by
// identifier and then by path.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Close() error
}

// Backend is the abstract persistent store Bonsai is layered on: point
// get, an atomic multi-write, and prefix scans, each scoped to a column
// family.
type Backend interface {
	// Get retrieves the value at key in column. ok is false if absent.
	Get(column Column, key []byte) (value []byte, ok bool, err error)
	// WriteBatch applies ops atomically: either all of them become visible
	// or none do.
	WriteBatch(ops []Op) error
	// PrefixScan iterates every key in column starting with prefix.
	PrefixScan(column Column, prefix []byte) (Iterator, error)
}
