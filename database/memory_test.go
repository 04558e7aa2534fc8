package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryGetMissing(t *testing.T) {
	m := NewMemory()
	_, ok, err := m.Get(ColumnTrie, []byte("x"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryWriteBatchPutAndDelete(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.WriteBatch([]Op{
		Put(ColumnFlat, []byte("a"), []byte("1")),
		Put(ColumnTrie, []byte("a"), []byte("same key different column")),
	}))
	v, ok, err := m.Get(ColumnFlat, []byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", string(v))

	_, ok, _ = m.Get(ColumnTrieLog, []byte("a"))
	require.False(t, ok, "column families must stay isolated")

	require.NoError(t, m.WriteBatch([]Op{Delete(ColumnFlat, []byte("a"))}))
	_, ok, _ = m.Get(ColumnFlat, []byte("a"))
	require.False(t, ok, "expected key to be deleted")
}

func TestMemoryPrefixScanOrderedAndScoped(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.WriteBatch([]Op{
		Put(ColumnTrie, []byte("id1-b"), []byte("2")),
		Put(ColumnTrie, []byte("id1-a"), []byte("1")),
		Put(ColumnTrie, []byte("id2-a"), []byte("3")),
	}))
	it, err := m.PrefixScan(ColumnTrie, []byte("id1-"))
	require.NoError(t, err)
	defer it.Close()
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.Equal(t, []string{"id1-a", "id1-b"}, keys)
}
