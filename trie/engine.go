// Package trie implements the sparse binary Merkle-Patricia trie engine: the
// node model, the key codec, the per-trie staged-change overlay, and the
// commit algorithm that rebuilds canonical structure and recomputes hashes.
// A Trie is owned by exactly one identifier inside a storage manager; it
// never talks to the backend except through the database.Backend contract.
package trie

import (
	"github.com/iotaledger/bonsai-trie/bitpath"
	"github.com/iotaledger/bonsai-trie/database"
	"github.com/iotaledger/bonsai-trie/felt"
	"github.com/iotaledger/bonsai-trie/hash"
	"github.com/iotaledger/bonsai-trie/trielog"
)

// Trie is one sparse binary Merkle-Patricia trie within a backend, keyed by
// identifier. MaxHeight bounds every path to exactly that many bits.
type Trie struct {
	Identifier []byte
	MaxHeight  int

	backend database.Backend
	hasher  hash.Hasher
	overlay *overlay

	rootHash felt.Felt
}

// New constructs a Trie bound to identifier, loading its last-committed root
// hash (zero if the trie has never been committed) from CONFIG.
func New(identifier []byte, backend database.Backend, hasher hash.Hasher, maxHeight int) (*Trie, error) {
	t := &Trie{
		Identifier: append([]byte(nil), identifier...),
		MaxHeight:  maxHeight,
		backend:    backend,
		hasher:     hasher,
		overlay:    newOverlay(),
	}
	b, ok, err := backend.Get(database.ColumnConfig, configKeyRootHash(identifier))
	if err != nil {
		return nil, err
	}
	if ok {
		t.rootHash = felt.FromBytesBE(b)
	}
	return t, nil
}

func (t *Trie) normalize(path bitpath.Path) (bitpath.Path, error) {
	if path.Len() > t.MaxHeight {
		return bitpath.Path{}, ErrInvalidPath
	}
	if path.Len() < t.MaxHeight {
		return path.Truncate(t.MaxHeight), nil
	}
	return path, nil
}

// Insert stages value at path, observable to Get immediately. A zero value
// normalizes to a removal.
func (t *Trie) Insert(path bitpath.Path, value felt.Felt) error {
	p, err := t.normalize(path)
	if err != nil {
		return err
	}
	t.overlay.set(p, value)
	return nil
}

// Remove stages a removal at path; equivalent to Insert(path, felt.Zero()).
func (t *Trie) Remove(path bitpath.Path) error {
	p, err := t.normalize(path)
	if err != nil {
		return err
	}
	t.overlay.remove(p)
	return nil
}

// Get consults the overlay first, falling back to FLAT; it never traverses
// trie structure.
func (t *Trie) Get(path bitpath.Path) (felt.Felt, bool, error) {
	p, err := t.normalize(path)
	if err != nil {
		return felt.Felt{}, false, err
	}
	if v, removed, ok := t.overlay.get(p); ok {
		return v, !removed, nil
	}
	b, ok, err := t.backend.Get(database.ColumnFlat, flatKey(t.Identifier, p))
	if err != nil {
		return felt.Felt{}, false, err
	}
	if !ok {
		return felt.Felt{}, false, nil
	}
	return felt.FromBytesBE(b), true, nil
}

// RootHash returns the root hash as of the last successful commit;
// uncommitted overlay changes never affect it.
func (t *Trie) RootHash() felt.Felt {
	return t.rootHash
}

// CommitResult is everything a storage manager needs to fold one trie's
// commit into the single cross-identifier write batch.
type CommitResult struct {
	Ops         []database.Op
	LogEntries  []trielog.Entry
	NewRootHash felt.Felt
	HashCalls   int
}

// PrepareCommit runs the structural rebuild and FLAT updates for every
// staged overlay entry without touching the backend, returning the ops and
// inverse-patch entries a storage manager will submit atomically. It does
// not clear the overlay or update t.rootHash; the caller does that only
// after the backend write actually succeeds.
func (t *Trie) PrepareCommit() (CommitResult, error) {
	if t.overlay.isEmpty() {
		return CommitResult{NewRootHash: t.rootHash}, nil
	}
	cm := newCommitState(t.Identifier, t.backend, t.hasher, t.MaxHeight)
	for _, e := range t.overlay.dirtyEntries(t.MaxHeight) {
		var err error
		if e.removed {
			err = cm.remove(bitpath.Path{}, e.path)
		} else {
			err = cm.insert(bitpath.Path{}, e.path, e.value)
		}
		if err != nil {
			return CommitResult{}, err
		}
	}
	ops, logEntries, newRoot, err := cm.finalize()
	if err != nil {
		return CommitResult{}, err
	}

	for _, e := range t.overlay.dirtyEntries(t.MaxHeight) {
		k := flatKey(t.Identifier, e.path)
		oldBytes, existed, gerr := t.backend.Get(database.ColumnFlat, k)
		if gerr != nil {
			return CommitResult{}, gerr
		}
		var old []byte
		if existed {
			old = oldBytes
		}
		if e.removed {
			ops = append(ops, database.Delete(database.ColumnFlat, k))
		} else {
			ops = append(ops, database.Put(database.ColumnFlat, k, e.value.Slice()))
		}
		logEntries = append(logEntries, trielog.Entry{Column: database.ColumnFlat, Key: k, OldValue: old})
	}

	rootKey := configKeyRootHash(t.Identifier)
	oldRootBytes, rootExisted, gerr := t.backend.Get(database.ColumnConfig, rootKey)
	if gerr != nil {
		return CommitResult{}, gerr
	}
	var oldRoot []byte
	if rootExisted {
		oldRoot = oldRootBytes
	}
	ops = append(ops, database.Put(database.ColumnConfig, rootKey, newRoot.Slice()))
	logEntries = append(logEntries, trielog.Entry{Column: database.ColumnConfig, Key: rootKey, OldValue: oldRoot})

	return CommitResult{Ops: ops, LogEntries: logEntries, NewRootHash: newRoot, HashCalls: cm.hashCalls}, nil
}

// CommitSucceeded finalizes the in-memory state of a commit once the
// storage manager's backend write has been durably applied.
func (t *Trie) CommitSucceeded(res CommitResult) {
	t.rootHash = res.NewRootHash
	t.overlay.clear()
}

// SetRootHash is used by revert_to to restore a trie's in-memory root hash
// after the backend state has already been rolled back.
func (t *Trie) SetRootHash(h felt.Felt) {
	t.rootHash = h
}

// ResetOverlay discards every staged change without committing it, used by
// revert_to once the backend state underneath this trie has already been
// rolled back.
func (t *Trie) ResetOverlay() {
	t.overlay.clear()
}
