package trielog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/bonsai-trie/database"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	l := Log{
		PreviousLatestCommitID: []byte{0, 0, 0, 0, 0, 0, 0, 1},
		Entries: []Entry{
			{Column: database.ColumnTrie, Key: []byte("k1"), OldValue: []byte("v1")},
			{Column: database.ColumnFlat, Key: []byte("k2"), OldValue: nil},
		},
	}
	got, err := Decode(l.Encode())
	require.NoError(t, err)
	require.Equal(t, l.PreviousLatestCommitID, got.PreviousLatestCommitID)
	require.Len(t, got.Entries, 2)
	require.Equal(t, database.ColumnTrie, got.Entries[0].Column)
	require.Equal(t, "k1", string(got.Entries[0].Key))
	require.Equal(t, "v1", string(got.Entries[0].OldValue))
	require.Equal(t, database.ColumnFlat, got.Entries[1].Column)
	require.Equal(t, "k2", string(got.Entries[1].Key))
	require.Nil(t, got.Entries[1].OldValue)
}

func TestEncodeDecodeEmptyLog(t *testing.T) {
	l := Log{}
	got, err := Decode(l.Encode())
	require.NoError(t, err)
	require.Empty(t, got.PreviousLatestCommitID)
	require.Empty(t, got.Entries)
}

func TestInverseOps(t *testing.T) {
	l := Log{Entries: []Entry{
		{Column: database.ColumnTrie, Key: []byte("existed"), OldValue: []byte("old")},
		{Column: database.ColumnTrie, Key: []byte("new"), OldValue: nil},
	}}
	ops := l.InverseOps()
	require.Len(t, ops, 2)
	require.Equal(t, "existed", string(ops[0].Key))
	require.Equal(t, "old", string(ops[0].Value))
	require.Equal(t, "new", string(ops[1].Key))
	require.Nil(t, ops[1].Value)
}
