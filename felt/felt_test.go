package felt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZeroIsZero(t *testing.T) {
	require.True(t, Zero().IsZero())
	require.False(t, FromUint64(1).IsZero())
}

func TestBytesRoundTrip(t *testing.T) {
	f := FromUint64(0xdeadbeef)
	b := f.Bytes()
	got := FromBytesBE(b[:])
	require.True(t, f.Equal(got), "round trip through Bytes/FromBytesBE changed value")
}

func TestFromHex(t *testing.T) {
	f, err := FromHex("0x2a")
	require.NoError(t, err)
	require.True(t, f.Equal(FromUint64(42)))

	_, err = FromHex("0xzz")
	require.Error(t, err)
}

func TestAdd(t *testing.T) {
	a := FromUint64(2)
	b := FromUint64(3)
	require.True(t, a.Add(b).Equal(FromUint64(5)))
}

func TestEqualDistinguishesValues(t *testing.T) {
	require.False(t, FromUint64(1).Equal(FromUint64(2)))
}
