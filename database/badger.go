package database

import (
	"bytes"
	"errors"

	hivekv "github.com/iotaledger/hive.go/core/kvstore"
	"github.com/iotaledger/hive.go/core/kvstore/badger"
)

// Badger is a persistent Backend layered on hive.go's badger-backed
// kvstore.KVStore, the same log-structured on-disk store the teacher
// library's examples/trie_bench tool benchmarks against. Each Column is
// kept separate by a one-byte prefix, mirroring common/kv.go's
// MakeReaderPartition/MakeWriterPartition scheme generalized from a single
// partition byte to the four Bonsai column families.
type Badger struct {
	db  *badger.BadgerDB
	kvs hivekv.KVStore
}

var _ Backend = (*Badger)(nil)

// NewBadger opens (creating if necessary) a badger database rooted at dir.
func NewBadger(dir string) (*Badger, error) {
	db, err := badger.CreateDB(dir)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db, kvs: badger.New(db)}, nil
}

// Close releases the underlying badger handle.
func (b *Badger) Close() error {
	return b.db.Close()
}

func columnKey(column Column, key []byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = byte(column)
	copy(out[1:], key)
	return out
}

func (b *Badger) Get(column Column, key []byte) ([]byte, bool, error) {
	v, err := b.kvs.Get(columnKey(column, key))
	if errors.Is(err, hivekv.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (b *Badger) WriteBatch(ops []Op) error {
	batch, err := b.kvs.Batched()
	if err != nil {
		return err
	}
	for _, op := range ops {
		k := columnKey(op.Column, op.Key)
		if op.Value == nil {
			if err := batch.Delete(k); err != nil {
				return err
			}
			continue
		}
		if err := batch.Set(k, op.Value); err != nil {
			return err
		}
	}
	if err := batch.Commit(); err != nil {
		return err
	}
	return b.kvs.Flush()
}

func (b *Badger) PrefixScan(column Column, prefix []byte) (Iterator, error) {
	full := columnKey(column, prefix)
	var keys [][]byte
	var values [][]byte
	err := b.kvs.Iterate(full, func(key hivekv.Key, value hivekv.Value) bool {
		k := make([]byte, len(key)-1)
		copy(k, key[1:])
		v := make([]byte, len(value))
		copy(v, value)
		keys = append(keys, k)
		values = append(values, v)
		return true
	})
	if err != nil {
		return nil, err
	}
	entries := make([]kv, len(keys))
	for i := range keys {
		entries[i] = kv{key: keys[i], value: values[i]}
	}
	return &memIterator{entries: filterPrefix(entries, prefix), idx: -1}, nil
}

func filterPrefix(entries []kv, prefix []byte) []kv {
	out := entries[:0]
	for _, e := range entries {
		if bytes.HasPrefix(e.key, prefix) {
			out = append(out, e)
		}
	}
	return out
}
