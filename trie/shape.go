package trie

import (
	"fmt"
	"sort"

	"github.com/iotaledger/bonsai-trie/bitpath"
	"github.com/iotaledger/bonsai-trie/database"
	"github.com/iotaledger/bonsai-trie/felt"
	"github.com/iotaledger/bonsai-trie/hash"
	"github.com/iotaledger/bonsai-trie/trielog"
)

// shapeNode is the in-memory, lazily-materialized state of one trie
// position during a single commit. It either mirrors a node already on the
// backend (existedOriginally true, oldBytes/hash populated from the stored
// record) or was created fresh this commit.
type shapeNode struct {
	kind     Kind
	fragment bitpath.Path
	value    felt.Felt
	hash     felt.Felt

	existedOriginally bool
	oldBytes          []byte

	dirty bool
}

// commitState carries every piece of mutable state the structural rebuild
// and the batched hashing pass share while processing one commit: the
// position cache (doubling as "what does the tree look like right now,
// mid-commit"), and the set of positions that must be deleted from the
// backend because they were merged away or collapsed to empty.
type commitState struct {
	identifier []byte
	backend    database.Backend
	hasher     hash.Hasher
	maxHeight  int

	cache   map[string]*shapeNode
	deletes map[string]bitpath.Path

	hashCalls int
}

func newCommitState(identifier []byte, backend database.Backend, hasher hash.Hasher, maxHeight int) *commitState {
	return &commitState{
		identifier: identifier,
		backend:    backend,
		hasher:     hasher,
		maxHeight:  maxHeight,
		cache:      make(map[string]*shapeNode),
		deletes:    make(map[string]bitpath.Path),
	}
}

func cacheKey(p bitpath.Path) string {
	return string(p.Encode())
}

func childPos(prefix bitpath.Path, bit bool) bitpath.Path {
	return prefix.Concat(bitpath.FromBits([]bool{bit}))
}

func (cm *commitState) getNode(prefix bitpath.Path) (*shapeNode, error) {
	key := cacheKey(prefix)
	if n, ok := cm.cache[key]; ok {
		return n, nil
	}
	b, ok, err := cm.backend.Get(database.ColumnTrie, trieKey(cm.identifier, prefix))
	if err != nil {
		return nil, err
	}
	if !ok {
		n := &shapeNode{kind: KindEmpty}
		cm.cache[key] = n
		return n, nil
	}
	rec, h, err := deserialize(b)
	if err != nil {
		return nil, err
	}
	n := &shapeNode{kind: rec.kind, fragment: rec.fragment, value: rec.value, hash: h, existedOriginally: true, oldBytes: b}
	cm.cache[key] = n
	return n, nil
}

// putNode installs new content at prefix, marking it dirty so the
// hashing pass recomputes and persists it. The position's "did this exist
// on the backend before this commit" bookkeeping carries forward from
// whatever was cached there previously (usually populated by a prior
// getNode call along the same walk).
func (cm *commitState) putNode(prefix bitpath.Path, n *shapeNode) {
	key := cacheKey(prefix)
	if old, ok := cm.cache[key]; ok {
		n.existedOriginally = old.existedOriginally
		n.oldBytes = old.oldBytes
	}
	n.dirty = true
	cm.cache[key] = n
	delete(cm.deletes, key)
}

// deleteNode marks prefix as no longer part of the trie: merged into a
// parent edge, or collapsed to empty. If a backend entry existed there
// before this commit, it is scheduled for deletion and its old bytes are
// kept for the trie-log.
func (cm *commitState) deleteNode(prefix bitpath.Path) {
	key := cacheKey(prefix)
	old, ok := cm.cache[key]
	existed := ok && old.existedOriginally
	var oldBytes []byte
	if ok {
		oldBytes = old.oldBytes
	}
	cm.cache[key] = &shapeNode{kind: KindEmpty, existedOriginally: existed, oldBytes: oldBytes}
	if existed {
		cm.deletes[key] = prefix
	} else {
		delete(cm.deletes, key)
	}
}

// insert applies a staged (path, value) pair to the subtree rooted at
// prefix, where remaining is the suffix of the full path still to consume
// below prefix's depth. It implements rules 1-3 and 5 of the commit
// algorithm (empty -> edge-to-leaf, edge traversal/split, adjacent-edge
// formation via a shared-prefix edge feeding a fork).
func (cm *commitState) insert(prefix, remaining bitpath.Path, value felt.Felt) error {
	if remaining.Len() == 0 {
		// Load any existing leaf first so putNode carries its old bytes
		// into the trie-log.
		if _, err := cm.getNode(prefix); err != nil {
			return err
		}
		cm.putNode(prefix, &shapeNode{kind: KindLeaf, value: value})
		return nil
	}
	node, err := cm.getNode(prefix)
	if err != nil {
		return err
	}
	switch node.kind {
	case KindEmpty:
		leafPos := prefix.Concat(remaining)
		cm.putNode(leafPos, &shapeNode{kind: KindLeaf, value: value})
		cm.putNode(prefix, &shapeNode{kind: KindEdge, fragment: remaining})
		return nil
	case KindEdge:
		return cm.insertIntoEdge(prefix, node, remaining, value)
	case KindBinary:
		bit := remaining.Bit(0)
		cp := childPos(prefix, bit)
		if err := cm.insert(cp, remaining.Slice(1, remaining.Len()), value); err != nil {
			return err
		}
		cm.putNode(prefix, &shapeNode{kind: KindBinary})
		return nil
	default:
		return fmt.Errorf("trie: unexpected %s node above leaf depth at depth %d", node.kind, prefix.Len())
	}
}

func (cm *commitState) insertIntoEdge(prefix bitpath.Path, node *shapeNode, remaining bitpath.Path, value felt.Felt) error {
	fragment := node.fragment
	flen := fragment.Len()
	cp := fragment.CommonPrefixLen(remaining)

	if cp == flen {
		childPrefix := prefix.Concat(fragment)
		if err := cm.insert(childPrefix, remaining.Slice(flen, remaining.Len()), value); err != nil {
			return err
		}
		cm.putNode(prefix, &shapeNode{kind: KindEdge, fragment: fragment})
		return nil
	}

	bitOld := fragment.Bit(cp)
	bitNew := remaining.Bit(cp)
	commonFragment := fragment.Slice(0, cp)
	oldSubFragment := fragment.Slice(cp+1, flen)
	newSubFragment := remaining.Slice(cp+1, remaining.Len())

	forkPrefix := prefix.Concat(commonFragment)
	oldChildPos := childPos(forkPrefix, bitOld)
	newChildPos := childPos(forkPrefix, bitNew)

	if oldSubFragment.Len() > 0 {
		cm.putNode(oldChildPos, &shapeNode{kind: KindEdge, fragment: oldSubFragment})
	}
	// else: oldChildPos coincides exactly with the edge's original child
	// position (prefix+fragment); that node's content is untouched.

	leafPos := newChildPos.Concat(newSubFragment)
	cm.putNode(leafPos, &shapeNode{kind: KindLeaf, value: value})
	if newSubFragment.Len() > 0 {
		cm.putNode(newChildPos, &shapeNode{kind: KindEdge, fragment: newSubFragment})
	}

	cm.putNode(forkPrefix, &shapeNode{kind: KindBinary})
	if commonFragment.Len() > 0 {
		cm.putNode(prefix, &shapeNode{kind: KindEdge, fragment: commonFragment})
	}
	return nil
}

// remove applies a staged removal to the subtree rooted at prefix. It
// implements rules 1 and 4-5: empty-with-nothing-to-do, edge/binary
// collapse-to-empty, and re-merging adjacent edges or wrapping a lone
// surviving sibling in a one-bit edge.
func (cm *commitState) remove(prefix, remaining bitpath.Path) error {
	if remaining.Len() == 0 {
		// Load any existing leaf first so deleteNode schedules its deletion.
		if _, err := cm.getNode(prefix); err != nil {
			return err
		}
		cm.deleteNode(prefix)
		return nil
	}
	node, err := cm.getNode(prefix)
	if err != nil {
		return err
	}
	switch node.kind {
	case KindEmpty:
		return nil
	case KindEdge:
		fragment := node.fragment
		flen := fragment.Len()
		if fragment.CommonPrefixLen(remaining) < flen {
			return nil
		}
		childPrefix := prefix.Concat(fragment)
		if err := cm.remove(childPrefix, remaining.Slice(flen, remaining.Len())); err != nil {
			return err
		}
		childNode, err := cm.getNode(childPrefix)
		if err != nil {
			return err
		}
		switch childNode.kind {
		case KindEmpty:
			cm.deleteNode(prefix)
		case KindEdge:
			merged := fragment.Concat(childNode.fragment)
			cm.deleteNode(childPrefix)
			cm.putNode(prefix, &shapeNode{kind: KindEdge, fragment: merged})
		default:
			cm.putNode(prefix, &shapeNode{kind: KindEdge, fragment: fragment})
		}
		return nil
	case KindBinary:
		bit := remaining.Bit(0)
		touchedPos := childPos(prefix, bit)
		if err := cm.remove(touchedPos, remaining.Slice(1, remaining.Len())); err != nil {
			return err
		}
		touched, err := cm.getNode(touchedPos)
		if err != nil {
			return err
		}
		if touched.kind != KindEmpty {
			cm.putNode(prefix, &shapeNode{kind: KindBinary})
			return nil
		}
		otherBit := !bit
		otherPos := childPos(prefix, otherBit)
		other, err := cm.getNode(otherPos)
		if err != nil {
			return err
		}
		switch other.kind {
		case KindEmpty:
			cm.deleteNode(prefix)
		case KindEdge:
			cm.deleteNode(otherPos)
			merged := bitpath.FromBits([]bool{otherBit}).Concat(other.fragment)
			cm.putNode(prefix, &shapeNode{kind: KindEdge, fragment: merged})
		default:
			// Leaf or Binary survives undisturbed at otherPos, which is
			// exactly where a one-bit edge's child belongs; nothing there
			// needs to move or be rewritten.
			cm.putNode(prefix, &shapeNode{kind: KindEdge, fragment: bitpath.FromBits([]bool{otherBit})})
		}
		return nil
	default:
		return fmt.Errorf("trie: unexpected %s node above leaf depth at depth %d", node.kind, prefix.Len())
	}
}

// finalize computes hashes for every dirty position (deepest first; for a
// hasher that prefers batched hashing, binary pairs go through one HashPairs
// call per trie depth, so it never sees a lone Hash call for a rebuilt
// binary node, while other hashers get one Hash call per pair) and returns the backend ops plus trie-log entries needed to commit
// and to later revert this commit's structural changes.
func (cm *commitState) finalize() (ops []database.Op, entries []trielog.Entry, rootHash felt.Felt, err error) {
	byDepth := make(map[int][]bitpath.Path)
	for key, n := range cm.cache {
		if !n.dirty {
			continue
		}
		p, _, derr := decodeCacheKey(key)
		if derr != nil {
			return nil, nil, felt.Felt{}, derr
		}
		byDepth[p.Len()] = append(byDepth[p.Len()], p)
	}

	for depth := cm.maxHeight; depth >= 0; depth-- {
		prefixes := byDepth[depth]
		if len(prefixes) == 0 {
			continue
		}
		sort.Slice(prefixes, func(i, j int) bool { return prefixes[i].String() < prefixes[j].String() })

		var pairs []hash.Pair
		var pairPrefixes []bitpath.Path
		for _, prefix := range prefixes {
			n := cm.cache[cacheKey(prefix)]
			switch n.kind {
			case KindLeaf:
				n.hash = n.value
			case KindEdge:
				childPrefix := prefix.Concat(n.fragment)
				child, gerr := cm.getNode(childPrefix)
				if gerr != nil {
					return nil, nil, felt.Felt{}, gerr
				}
				h, herr := computeHash(cm.hasher, record{kind: KindEdge, fragment: n.fragment}, felt.Felt{}, felt.Felt{}, child.hash)
				if herr != nil {
					return nil, nil, felt.Felt{}, herr
				}
				n.hash = h
				cm.hashCalls++
			case KindBinary:
				left, gerr := cm.getNode(childPos(prefix, false))
				if gerr != nil {
					return nil, nil, felt.Felt{}, gerr
				}
				right, gerr := cm.getNode(childPos(prefix, true))
				if gerr != nil {
					return nil, nil, felt.Felt{}, gerr
				}
				pairs = append(pairs, hash.Pair{Left: left.hash, Right: right.hash})
				pairPrefixes = append(pairPrefixes, prefix)
			}
		}
		if len(pairs) > 0 {
			var results []felt.Felt
			var herr error
			if cm.hasher.PrefersBatched() {
				results, herr = cm.hasher.HashPairs(pairs)
			} else {
				results, herr = hash.SequentialHashPairs(cm.hasher, pairs)
			}
			if herr != nil {
				return nil, nil, felt.Felt{}, herr
			}
			cm.hashCalls += len(pairs)
			for i, prefix := range pairPrefixes {
				cm.cache[cacheKey(prefix)].hash = results[i]
			}
		}
	}

	for key, n := range cm.cache {
		if !n.dirty {
			continue
		}
		p, _, derr := decodeCacheKey(key)
		if derr != nil {
			return nil, nil, felt.Felt{}, derr
		}
		rec := record{kind: n.kind, fragment: n.fragment, value: n.value}
		bytes := serialize(rec, n.hash)
		k := trieKey(cm.identifier, p)
		ops = append(ops, database.Put(database.ColumnTrie, k, bytes))
		var old []byte
		if n.existedOriginally {
			old = n.oldBytes
		}
		entries = append(entries, trielog.Entry{Column: database.ColumnTrie, Key: k, OldValue: old})
	}
	for key, p := range cm.deletes {
		n := cm.cache[key]
		k := trieKey(cm.identifier, p)
		ops = append(ops, database.Delete(database.ColumnTrie, k))
		entries = append(entries, trielog.Entry{Column: database.ColumnTrie, Key: k, OldValue: n.oldBytes})
	}

	root, err := cm.getNode(bitpath.Path{})
	if err != nil {
		return nil, nil, felt.Felt{}, err
	}
	return ops, entries, root.hash, nil
}

func decodeCacheKey(key string) (bitpath.Path, int, error) {
	return bitpath.Decode([]byte(key))
}
