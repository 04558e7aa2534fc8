// Package id defines the commit-identifier type the trie engine and storage
// manager are generic over: a monotonically increasing, totally ordered,
// byte-order-preserving value assigned externally by a Builder. Grounded on
// the upstream reference's BasicIdBuilder, which hands out a plain
// incrementing counter; the core only ever requires total order and a
// byte encoding that preserves it.
package id

import "encoding/binary"

// ID is a commit identifier. The core treats it as an opaque, totally
// ordered value; in practice a 64-bit counter.
type ID uint64

// Bytes returns the big-endian encoding, which preserves numeric ordering
// under lexicographic byte comparison -- the property the key codec and
// trie-log range scans rely on.
func (i ID) Bytes() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(i))
	return b
}

// FromBytes decodes the encoding produced by Bytes.
func FromBytes(b []byte) ID {
	return ID(binary.BigEndian.Uint64(b))
}

// Less reports whether i sorts strictly before other.
func (i ID) Less(other ID) bool { return i < other }

// Builder hands out commit ids. The core never constructs an ID itself; it
// is always supplied one by the caller through a Builder.
type Builder interface {
	New() ID
}

// Counter is a Builder that yields a plain incrementing sequence starting at
// 1, matching the upstream BasicIdBuilder used throughout its test suite.
type Counter struct {
	next uint64
}

var _ Builder = (*Counter)(nil)

// NewCounter creates a Counter whose first New() call returns 1.
func NewCounter() *Counter {
	return &Counter{next: 1}
}

func (c *Counter) New() ID {
	v := c.next
	c.next++
	return ID(v)
}
