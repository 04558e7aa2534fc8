package hash

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/bonsai-trie/felt"
)

func TestPedersenPoseidonDiverge(t *testing.T) {
	l, r := felt.FromUint64(1), felt.FromUint64(2)
	ph, err := Pedersen{}.Hash(l, r)
	require.NoError(t, err)
	sh, err := Poseidon{}.Hash(l, r)
	require.NoError(t, err)
	require.False(t, ph.Equal(sh), "pedersen and poseidon must commit to different domains")
	require.False(t, Pedersen{}.PrefersBatched())
	require.False(t, Poseidon{}.PrefersBatched())
}

func TestPedersenDeterministic(t *testing.T) {
	l, r := felt.FromUint64(7), felt.FromUint64(9)
	a, err := Pedersen{}.Hash(l, r)
	require.NoError(t, err)
	b, err := Pedersen{}.Hash(l, r)
	require.NoError(t, err)
	require.True(t, a.Equal(b))
}

func TestHashPairsSequential(t *testing.T) {
	pairs := []Pair{
		{Left: felt.FromUint64(1), Right: felt.FromUint64(2)},
		{Left: felt.FromUint64(3), Right: felt.FromUint64(4)},
	}
	got, err := Pedersen{}.HashPairs(pairs)
	require.NoError(t, err)
	for i, p := range pairs {
		want, err := Pedersen{}.Hash(p.Left, p.Right)
		require.NoError(t, err)
		require.True(t, got[i].Equal(want), "pair %d mismatch", i)
	}
}

func TestPedersenGPUPrefersBatchedAndMatchesSequential(t *testing.T) {
	g := &PedersenGPU{Workers: 4}
	require.True(t, g.PrefersBatched())
	pairs := make([]Pair, 37) // deliberately not a multiple of Workers
	for i := range pairs {
		pairs[i] = Pair{Left: felt.FromUint64(uint64(i)), Right: felt.FromUint64(uint64(i + 1))}
	}
	got, err := g.HashPairs(pairs)
	require.NoError(t, err)
	for i, p := range pairs {
		want, err := g.Hash(p.Left, p.Right)
		require.NoError(t, err)
		require.True(t, got[i].Equal(want), "pair %d out of order or wrong across worker split", i)
	}
}

func TestPedersenGPUFaultInjector(t *testing.T) {
	sentinel := errors.New("boom")
	g := &PedersenGPU{FaultInjector: func(int) error { return sentinel }}
	_, err := g.HashPairs([]Pair{{Left: felt.Zero(), Right: felt.Zero()}})
	require.ErrorIs(t, err, sentinel)
}
