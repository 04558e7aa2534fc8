package bitpath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromBytesDefaultLen(t *testing.T) {
	p := FromBytes([]byte{0xff, 0x00}, -1)
	require.Equal(t, 16, p.Len())
	require.True(t, p.Bit(0))
	require.False(t, p.Bit(8))
}

func TestTruncate(t *testing.T) {
	p := FromBytes([]byte{0xff, 0xff}, 16)
	p = p.Truncate(4)
	require.Equal(t, 4, p.Len())

	p2 := FromBits([]bool{true}).Truncate(4)
	require.Equal(t, 1, p2.Len(), "truncate of a shorter path must be a no-op")
}

func TestConcatAndCommonPrefixLen(t *testing.T) {
	a := FromBits([]bool{true, false, true})
	b := FromBits([]bool{true, false, false})
	require.Equal(t, 2, a.CommonPrefixLen(b))

	c := a.Concat(b)
	require.Equal(t, 6, c.Len())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]bool{
		{},
		{true},
		{false, true, true, false, true, false, true, false, true},
	}
	for _, bits := range cases {
		p := FromBits(bits)
		enc := p.Encode()
		dec, n, err := Decode(enc)
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		require.True(t, p.Equal(dec), "round trip mismatch for %v", bits)
	}
}

func TestSliceAndEqual(t *testing.T) {
	p := FromBits([]bool{true, false, true, true})
	s := p.Slice(1, 3)
	require.Equal(t, 2, s.Len())
	require.False(t, s.Bit(0))
	require.True(t, s.Bit(1))

	require.True(t, p.Equal(FromBits([]bool{true, false, true, true})))
	require.False(t, p.Equal(s))
}

func TestIsEmpty(t *testing.T) {
	require.True(t, (Path{}).IsEmpty())
	require.False(t, FromBits([]bool{true}).IsEmpty())
}
