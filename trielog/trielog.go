// Package trielog implements the append-only inverse-patch record the trie
// engine writes on every commit: enough (key, old-value-or-tombstone) pairs
// across the TRIE and FLAT columns and the trie's CONFIG root-hash key, plus
// the previous latest_commit_id, to
// restore the exact pre-commit backend state when replayed in reverse.
package trielog

import (
	"encoding/binary"
	"fmt"

	"github.com/iotaledger/bonsai-trie/database"
)

// Entry is one inverse write: Column is ColumnTrie, ColumnFlat, or
// ColumnConfig (the per-trie root-hash cache).
// OldValue == nil means the key did not exist before the commit, so
// reverting this entry means deleting Key; otherwise reverting means
// restoring OldValue at Key.
type Entry struct {
	Column   database.Column
	Key      []byte
	OldValue []byte
}

// Log is the inverse patch recorded for a single (identifier, commit_id).
type Log struct {
	PreviousLatestCommitID []byte // empty means "no commit recorded before this one"
	Entries                []Entry
}

// Encode serializes a Log to bytes. Format: varint(len(PreviousLatestCommitID))
// || bytes, varint(entry count), then per entry:
// column-byte, varint(len(key)), key, a presence byte, varint(len(oldValue))
// (omitted when absent), oldValue.
func (l Log) Encode() []byte {
	buf := make([]byte, 0, 64)
	buf = appendVarBytes(buf, l.PreviousLatestCommitID)
	buf = appendUvarint(buf, uint64(len(l.Entries)))
	for _, e := range l.Entries {
		buf = append(buf, byte(e.Column))
		buf = appendVarBytes(buf, e.Key)
		if e.OldValue == nil {
			buf = append(buf, 0)
		} else {
			buf = append(buf, 1)
			buf = appendVarBytes(buf, e.OldValue)
		}
	}
	return buf
}

// Decode parses the Encode format.
func Decode(b []byte) (Log, error) {
	var l Log
	rest := b
	var err error
	l.PreviousLatestCommitID, rest, err = readVarBytes(rest)
	if err != nil {
		return Log{}, err
	}
	n, rest, err := readUvarint(rest)
	if err != nil {
		return Log{}, err
	}
	l.Entries = make([]Entry, 0, n)
	for i := uint64(0); i < n; i++ {
		if len(rest) < 1 {
			return Log{}, fmt.Errorf("trielog: truncated entry column tag")
		}
		col := database.Column(rest[0])
		rest = rest[1:]
		var key []byte
		key, rest, err = readVarBytes(rest)
		if err != nil {
			return Log{}, err
		}
		if len(rest) < 1 {
			return Log{}, fmt.Errorf("trielog: truncated entry presence byte")
		}
		present := rest[0]
		rest = rest[1:]
		var old []byte
		if present == 1 {
			old, rest, err = readVarBytes(rest)
			if err != nil {
				return Log{}, err
			}
		}
		l.Entries = append(l.Entries, Entry{Column: col, Key: key, OldValue: old})
	}
	if len(rest) != 0 {
		return Log{}, fmt.Errorf("trielog: trailing bytes after decode")
	}
	return l, nil
}

// InverseOps returns the database.Op batch that restores the pre-commit
// state captured by the log, excluding the latest_commit_id bump (the
// caller handles that against the CONFIG column directly, since it spans
// all identifiers reverted together).
func (l Log) InverseOps() []database.Op {
	ops := make([]database.Op, 0, len(l.Entries))
	for _, e := range l.Entries {
		if e.OldValue == nil {
			ops = append(ops, database.Delete(e.Column, e.Key))
		} else {
			ops = append(ops, database.Put(e.Column, e.Key, e.OldValue))
		}
	}
	return ops
}

func appendUvarint(buf []byte, v uint64) []byte {
	tmp := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(tmp, v)
	return append(buf, tmp[:n]...)
}

func appendVarBytes(buf []byte, v []byte) []byte {
	buf = appendUvarint(buf, uint64(len(v)))
	return append(buf, v...)
}

func readUvarint(b []byte) (uint64, []byte, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, nil, fmt.Errorf("trielog: invalid varint")
	}
	return v, b[n:], nil
}

func readVarBytes(b []byte) ([]byte, []byte, error) {
	n, rest, err := readUvarint(b)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(rest)) < n {
		return nil, nil, fmt.Errorf("trielog: truncated byte field")
	}
	return rest[:n], rest[n:], nil
}
