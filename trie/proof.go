package trie

import (
	"github.com/iotaledger/bonsai-trie/bitpath"
	"github.com/iotaledger/bonsai-trie/database"
	"github.com/iotaledger/bonsai-trie/felt"
)

// ProofStep is one node crossed while walking from the root toward a leaf,
// carrying just enough of its shape to let a verifier recompute hashes up
// to the root.
type ProofStep struct {
	Kind     Kind
	Fragment bitpath.Path
	Sibling  felt.Felt // the hash of the child not taken, for KindBinary steps
}

// Prove returns the root-to-leaf chain of node shapes for path, read
// straight from the backend (never from the overlay -- a proof is only ever
// constructed against committed state). The last step, if present, is the
// leaf itself. An empty result means path is absent from the committed
// trie.
func (t *Trie) Prove(path bitpath.Path) ([]ProofStep, error) {
	p, err := t.normalize(path)
	if err != nil {
		return nil, err
	}
	var steps []ProofStep
	prefix := bitpath.Path{}
	remaining := p
	for {
		b, ok, gerr := t.backend.Get(database.ColumnTrie, trieKey(t.Identifier, prefix))
		if gerr != nil {
			return nil, gerr
		}
		if !ok {
			return nil, nil
		}
		rec, _, derr := deserialize(b)
		if derr != nil {
			return nil, derr
		}
		switch rec.kind {
		case KindEmpty:
			return nil, nil
		case KindLeaf:
			steps = append(steps, ProofStep{Kind: KindLeaf})
			return steps, nil
		case KindEdge:
			if remaining.CommonPrefixLen(rec.fragment) < rec.fragment.Len() {
				return nil, nil
			}
			steps = append(steps, ProofStep{Kind: KindEdge, Fragment: rec.fragment})
			prefix = prefix.Concat(rec.fragment)
			remaining = remaining.Slice(rec.fragment.Len(), remaining.Len())
		case KindBinary:
			bit := remaining.Bit(0)
			siblingPrefix := childPos(prefix, !bit)
			sb, sok, serr := t.backend.Get(database.ColumnTrie, trieKey(t.Identifier, siblingPrefix))
			var siblingHash felt.Felt
			if serr != nil {
				return nil, serr
			}
			if sok {
				_, sh, derr := deserialize(sb)
				if derr != nil {
					return nil, derr
				}
				siblingHash = sh
			}
			steps = append(steps, ProofStep{Kind: KindBinary, Sibling: siblingHash})
			prefix = childPos(prefix, bit)
			remaining = remaining.Slice(1, remaining.Len())
		}
	}
}
