package trie

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/bonsai-trie/bitpath"
	"github.com/iotaledger/bonsai-trie/felt"
	"github.com/iotaledger/bonsai-trie/hash"
)

func TestComputeHashEmptyIsZero(t *testing.T) {
	h, err := computeHash(hash.Pedersen{}, record{kind: KindEmpty}, felt.Felt{}, felt.Felt{}, felt.Felt{})
	require.NoError(t, err)
	require.True(t, h.IsZero(), "empty node must hash to zero")
}

func TestComputeHashLeafIsValue(t *testing.T) {
	v := felt.FromUint64(42)
	h, err := computeHash(hash.Pedersen{}, record{kind: KindLeaf, value: v}, felt.Felt{}, felt.Felt{}, felt.Felt{})
	require.NoError(t, err)
	require.True(t, h.Equal(v), "leaf node must hash to its own value")
}

func TestComputeHashBinaryMatchesHasher(t *testing.T) {
	left, right := felt.FromUint64(1), felt.FromUint64(2)
	h, err := computeHash(hash.Pedersen{}, record{kind: KindBinary}, left, right, felt.Felt{})
	require.NoError(t, err)
	want, err := hash.Pedersen{}.Hash(left, right)
	require.NoError(t, err)
	require.True(t, h.Equal(want), "binary node hash must equal Hash(left, right)")
}

func TestComputeHashEdgeFoldsPathLen(t *testing.T) {
	child := felt.FromUint64(9)
	// Both fragments pack to the same felt (0x80); only their lengths differ.
	shortFrag := bitpath.FromBits([]bool{true})
	longFrag := bitpath.FromBits([]bool{true, false})

	h1, err := computeHash(hash.Pedersen{}, record{kind: KindEdge, fragment: shortFrag}, felt.Felt{}, felt.Felt{}, child)
	require.NoError(t, err)
	h2, err := computeHash(hash.Pedersen{}, record{kind: KindEdge, fragment: longFrag}, felt.Felt{}, felt.Felt{}, child)
	require.NoError(t, err)
	require.False(t, h1.Equal(h2), "two edges with the same child but different fragments must hash differently")
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	cases := []record{
		{kind: KindEmpty},
		{kind: KindLeaf, value: felt.FromUint64(7)},
		{kind: KindBinary},
		{kind: KindEdge, fragment: bitpath.FromBits([]bool{true, false, true})},
	}
	for _, r := range cases {
		h := felt.FromUint64(123)
		if r.kind == KindEmpty {
			h = felt.Zero()
		}
		b := serialize(r, h)
		got, gotHash, err := deserialize(b)
		require.NoError(t, err, "deserialize(%s)", r.kind)
		require.Equal(t, r.kind, got.kind)
		if r.kind == KindEdge {
			require.True(t, got.fragment.Equal(r.fragment), "edge fragment mismatch")
		}
		if r.kind == KindLeaf {
			require.True(t, got.value.Equal(r.value), "leaf value mismatch")
		}
		require.True(t, gotHash.Equal(h), "stored hash mismatch for %s", r.kind)
	}
}
