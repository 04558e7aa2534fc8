package trie

import (
	"github.com/iotaledger/bonsai-trie/bitpath"
	"github.com/iotaledger/bonsai-trie/felt"
)

// overlay is the per-trie staged-change buffer: a map from full leaf path to
// either a pending value (insert) or a pending removal. Reads consult it
// before falling back to FLAT; it is only cleared once a commit's backend
// write has succeeded, or when a revert resets it.
type overlay struct {
	changes map[string]*felt.Felt // nil value = pending removal
	order   []string              // insertion order, for deterministic iteration
}

func newOverlay() *overlay {
	return &overlay{changes: make(map[string]*felt.Felt)}
}

func (o *overlay) key(p bitpath.Path) string {
	return string(p.Bytes())
}

// set stages value at path. A zero value normalizes to a removal, per the
// rule that a leaf value of 0 is treated as absence.
func (o *overlay) set(p bitpath.Path, value felt.Felt) {
	k := o.key(p)
	if _, exists := o.changes[k]; !exists {
		o.order = append(o.order, k)
	}
	if value.IsZero() {
		o.changes[k] = nil
		return
	}
	v := value
	o.changes[k] = &v
}

// remove stages a removal at path, equivalent to set(path, 0).
func (o *overlay) remove(p bitpath.Path) {
	o.set(p, felt.Zero())
}

// get returns the staged value for path, if any, and whether path has a
// staged entry at all (ok==true covers both "insert v" and "remove").
func (o *overlay) get(p bitpath.Path) (value felt.Felt, removed bool, ok bool) {
	v, exists := o.changes[o.key(p)]
	if !exists {
		return felt.Felt{}, false, false
	}
	if v == nil {
		return felt.Felt{}, true, true
	}
	return *v, false, true
}

// isEmpty reports whether there are no staged changes.
func (o *overlay) isEmpty() bool {
	return len(o.changes) == 0
}

// clear discards every staged change, called after a successful commit and
// by ResetOverlay during a revert.
func (o *overlay) clear() {
	o.changes = make(map[string]*felt.Felt)
	o.order = nil
}

// dirtyEntries returns the distinct staged paths in insertion order, each
// paired with its pending value (zero value + removed=true for a deletion).
type dirtyEntry struct {
	path    bitpath.Path
	value   felt.Felt
	removed bool
}

func (o *overlay) dirtyEntries(maxHeight int) []dirtyEntry {
	out := make([]dirtyEntry, 0, len(o.order))
	for _, k := range o.order {
		v, exists := o.changes[k]
		if !exists {
			continue
		}
		p := bitpath.FromBytes([]byte(k), maxHeight)
		if v == nil {
			out = append(out, dirtyEntry{path: p, removed: true})
		} else {
			out = append(out, dirtyEntry{path: p, value: *v})
		}
	}
	return out
}
