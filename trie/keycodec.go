package trie

import (
	"encoding/binary"

	"github.com/iotaledger/bonsai-trie/bitpath"
)

// trieKey builds the TRIE column key for a node at position prefix within
// the trie named identifier.
func trieKey(identifier []byte, prefix bitpath.Path) []byte {
	return idAndPath(identifier, prefix)
}

// flatKey builds the FLAT column key for a leaf path.
func flatKey(identifier []byte, path bitpath.Path) []byte {
	return idAndPath(identifier, path)
}

func idAndPath(identifier []byte, p bitpath.Path) []byte {
	idLen := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(idLen, uint64(len(identifier)))
	enc := p.Encode()
	out := make([]byte, 0, n+len(identifier)+len(enc))
	out = append(out, idLen[:n]...)
	out = append(out, identifier...)
	out = append(out, enc...)
	return out
}

// trieLogKey builds the TRIE_LOG column key for (identifier, commitID).
func trieLogKey(identifier []byte, commitID []byte) []byte {
	idLen := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(idLen, uint64(len(identifier)))
	out := make([]byte, 0, n+len(identifier)+len(commitID))
	out = append(out, idLen[:n]...)
	out = append(out, identifier...)
	out = append(out, commitID...)
	return out
}

// identifierPrefix returns the TRIE/FLAT/TRIE_LOG key prefix that a
// PrefixScan should use to enumerate everything belonging to identifier,
// without depending on what path/commit-id bytes follow.
func identifierPrefix(identifier []byte) []byte {
	idLen := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(idLen, uint64(len(identifier)))
	out := make([]byte, 0, n+len(identifier))
	out = append(out, idLen[:n]...)
	out = append(out, identifier...)
	return out
}

// TrieLogKey exports trieLogKey for the storage manager, which owns the
// TRIE_LOG column directly (trie-log entries span the commit-id axis the
// per-identifier Trie never needs to know about).
func TrieLogKey(identifier []byte, commitID []byte) []byte {
	return trieLogKey(identifier, commitID)
}

// IdentifierLogPrefix exports identifierPrefix for the storage manager's
// revert_to, which must enumerate one identifier's whole trie-log to find
// the entries within a commit-id range.
func IdentifierLogPrefix(identifier []byte) []byte {
	return identifierPrefix(identifier)
}

func configKeyRootHash(identifier []byte) []byte {
	out := make([]byte, 0, len("root_hash:")+len(identifier))
	out = append(out, "root_hash:"...)
	out = append(out, identifier...)
	return out
}

// ConfigKeyRootHash exports configKeyRootHash for the storage manager's
// revert_to, which must read and restore a trie's cached root hash directly
// from CONFIG without going through a Trie.
func ConfigKeyRootHash(identifier []byte) []byte {
	return configKeyRootHash(identifier)
}
