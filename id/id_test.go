package id

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounterStartsAtOneAndIncrements(t *testing.T) {
	c := NewCounter()
	require.EqualValues(t, 1, c.New())
	require.EqualValues(t, 2, c.New())
}

func TestBytesPreservesOrdering(t *testing.T) {
	a, b := ID(1), ID(2)
	require.True(t, a.Less(b))
	ab, bb := a.Bytes(), b.Bytes()
	require.True(t, string(ab) < string(bb), "big-endian byte encoding must preserve numeric order")
}

func TestFromBytesRoundTrip(t *testing.T) {
	orig := ID(0xdeadbeef)
	got := FromBytes(orig.Bytes())
	require.Equal(t, orig, got)
}
