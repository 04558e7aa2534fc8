package trie

import (
	"fmt"

	"github.com/iotaledger/bonsai-trie/bitpath"
	"github.com/iotaledger/bonsai-trie/felt"
	"github.com/iotaledger/bonsai-trie/hash"
)

// Kind names one of the four node shapes a Bonsai trie is built from.
type Kind byte

const (
	KindEmpty Kind = iota
	KindBinary
	KindEdge
	KindLeaf
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindBinary:
		return "binary"
	case KindEdge:
		return "edge"
	case KindLeaf:
		return "leaf"
	default:
		return fmt.Sprintf("kind(%d)", byte(k))
	}
}

// record is the persisted form of a node: just enough to recompute its hash
// and to keep walking toward its children. Binary/Edge children are
// addressed by trie position (the bit path consumed to reach them), never by
// hash, so a record never embeds a child's full content.
type record struct {
	kind Kind

	// KindEdge only.
	fragment bitpath.Path

	// KindLeaf only.
	value felt.Felt
}

// computeHash implements the hash table from the data model: Empty commits
// to zero, a leaf commits to its own value, a binary node commits to
// Hash(left, right), and an edge node commits to Hash(child, path-as-felt)
// plus its skipped-bit count folded in as a field addition.
func computeHash(h hash.Hasher, r record, left, right, child felt.Felt) (felt.Felt, error) {
	switch r.kind {
	case KindEmpty:
		return felt.Zero(), nil
	case KindLeaf:
		return r.value, nil
	case KindBinary:
		return h.Hash(left, right)
	case KindEdge:
		base, err := h.Hash(child, felt.FromBytesBE(r.fragment.AsFelt()))
		if err != nil {
			return felt.Felt{}, err
		}
		return base.Add(felt.FromUint64(uint64(r.fragment.Len()))), nil
	default:
		return felt.Felt{}, fmt.Errorf("trie: unknown node kind %d", r.kind)
	}
}

// serialize produces the on-disk payload for a TRIE column entry: a one-byte
// tag followed by a shape-specific body. The hash is stored alongside so a
// later read doesn't need to recompute it for an untouched node.
func serialize(r record, h felt.Felt) []byte {
	hb := h.Bytes()
	switch r.kind {
	case KindEmpty:
		return []byte{byte(KindEmpty)}
	case KindLeaf:
		out := make([]byte, 1+32)
		out[0] = byte(KindLeaf)
		copy(out[1:], hb[:])
		return out
	case KindBinary:
		out := make([]byte, 1+32)
		out[0] = byte(KindBinary)
		copy(out[1:], hb[:])
		return out
	case KindEdge:
		enc := r.fragment.Encode()
		out := make([]byte, 1+32+len(enc))
		out[0] = byte(KindEdge)
		copy(out[1:33], hb[:])
		copy(out[33:], enc)
		return out
	default:
		panic(fmt.Sprintf("trie: serialize: unknown kind %d", r.kind))
	}
}

// deserialize is the inverse of serialize, also returning the stored hash so
// callers can reuse it without recomputation for nodes that don't change.
func deserialize(b []byte) (record, felt.Felt, error) {
	if len(b) < 1 {
		return record{}, felt.Felt{}, fmt.Errorf("trie: empty node record")
	}
	kind := Kind(b[0])
	switch kind {
	case KindEmpty:
		return record{kind: KindEmpty}, felt.Zero(), nil
	case KindLeaf:
		if len(b) != 1+32 {
			return record{}, felt.Felt{}, ErrNotAllBytesConsumed
		}
		v := felt.FromBytesBE(b[1:33])
		return record{kind: KindLeaf, value: v}, v, nil
	case KindBinary:
		if len(b) != 1+32 {
			return record{}, felt.Felt{}, ErrNotAllBytesConsumed
		}
		return record{kind: KindBinary}, felt.FromBytesBE(b[1:33]), nil
	case KindEdge:
		if len(b) < 1+32 {
			return record{}, felt.Felt{}, fmt.Errorf("trie: truncated edge record")
		}
		h := felt.FromBytesBE(b[1:33])
		frag, n, err := bitpath.Decode(b[33:])
		if err != nil {
			return record{}, felt.Felt{}, err
		}
		if 33+n != len(b) {
			return record{}, felt.Felt{}, ErrNotAllBytesConsumed
		}
		return record{kind: KindEdge, fragment: frag}, h, nil
	default:
		return record{}, felt.Felt{}, fmt.Errorf("trie: unknown node kind tag %d", b[0])
	}
}
