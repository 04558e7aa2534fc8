// Package felt wraps the StarkNet base field element used throughout Bonsai as
// the unit of commitment: leaf values, node hashes and path encodings are all
// Felts.
package felt

import (
	"encoding/hex"
	"fmt"

	starkfp "github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

// Felt is an element of the StarkNet base field, 252 bits wide, stored in
// Montgomery form by the underlying field implementation.
type Felt struct {
	inner starkfp.Element
}

// Zero is the additive identity.
func Zero() Felt {
	return Felt{}
}

// FromUint64 builds a Felt from a small non-negative integer.
func FromUint64(v uint64) Felt {
	var f Felt
	f.inner.SetUint64(v)
	return f
}

// FromBytesBE decodes a big-endian 32-byte encoding of a Felt. Encodings of
// any length are read as a big-endian unsigned integer and reduced modulo the
// field prime, the way the underlying field library treats arbitrary-length
// byte strings.
func FromBytesBE(b []byte) Felt {
	var f Felt
	f.inner.SetBytes(b)
	return f
}

// FromHex parses a "0x..." hex literal into a Felt.
func FromHex(s string) (Felt, error) {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Felt{}, fmt.Errorf("felt: invalid hex literal: %w", err)
	}
	return FromBytesBE(raw), nil
}

// Bytes returns the canonical big-endian 32-byte encoding.
func (f Felt) Bytes() [32]byte {
	return f.inner.Bytes()
}

// Slice is Bytes as a freshly allocated []byte, convenient for the key codec
// and node serialization.
func (f Felt) Slice() []byte {
	b := f.inner.Bytes()
	return b[:]
}

// IsZero reports whether f is the additive identity. A zero leaf value is
// treated as absence throughout the trie engine.
func (f Felt) IsZero() bool {
	return f.inner.IsZero()
}

// Equal compares two Felts for field equality.
func (f Felt) Equal(other Felt) bool {
	return f.inner.Equal(&other.inner)
}

// Add returns f+other mod p. Used to fold an edge node's skipped-bit count
// into its commitment.
func (f Felt) Add(other Felt) Felt {
	var out Felt
	out.inner.Add(&f.inner, &other.inner)
	return out
}

func (f Felt) String() string {
	return f.inner.String()
}
