package bonsai

import (
	"encoding/binary"
	"errors"
	"sort"
	"sync"

	"github.com/iotaledger/bonsai-trie/bitpath"
	"github.com/iotaledger/bonsai-trie/database"
	"github.com/iotaledger/bonsai-trie/felt"
	"github.com/iotaledger/bonsai-trie/hash"
	"github.com/iotaledger/bonsai-trie/id"
	"github.com/iotaledger/bonsai-trie/metrics"
	"github.com/iotaledger/bonsai-trie/trie"
	"github.com/iotaledger/bonsai-trie/trielog"
)

var (
	configKeyLatestCommitID  = []byte("latest_commit_id")
	configKeyIdentifierIndex = []byte("identifier_index")
)

var errTruncatedIndex = errors.New("bonsai: truncated identifier index")

// Storage is the versioned storage manager: it owns the backend handle
// exclusively, lazily constructs one trie.Trie per identifier on first
// touch, serializes commits across identifiers under a single lock, and
// implements revert_to by replaying trie-log entries in reverse.
type Storage struct {
	mu sync.Mutex

	backend database.Backend
	hasher  hash.Hasher
	config  Config

	tries       map[string]*trie.Trie
	identifiers map[string][]byte // known identifier set, persisted in CONFIG

	latestCommitID id.ID
	hasLatest      bool
}

// New opens a Storage manager over backend, restoring latest_commit_id and
// the known identifier set from CONFIG if present.
func New(backend database.Backend, hasher hash.Hasher, config Config) (*Storage, error) {
	if config.Metrics == nil {
		config.Metrics = metrics.NoOp{}
	}
	s := &Storage{
		backend:     backend,
		hasher:      hasher,
		config:      config,
		tries:       make(map[string]*trie.Trie),
		identifiers: make(map[string][]byte),
	}
	b, ok, err := backend.Get(database.ColumnConfig, configKeyLatestCommitID)
	if err != nil {
		return nil, err
	}
	if ok {
		s.latestCommitID = id.FromBytes(b)
		s.hasLatest = true
	}
	idxBytes, ok, err := backend.Get(database.ColumnConfig, configKeyIdentifierIndex)
	if err != nil {
		return nil, err
	}
	if ok {
		idents, derr := decodeIdentifierIndex(idxBytes)
		if derr != nil {
			return nil, derr
		}
		for _, ident := range idents {
			s.identifiers[string(ident)] = ident
		}
	}
	return s, nil
}

func (s *Storage) trieFor(identifier []byte) (*trie.Trie, error) {
	key := string(identifier)
	if t, ok := s.tries[key]; ok {
		return t, nil
	}
	t, err := trie.New(identifier, s.backend, s.hasher, s.config.MaxHeight)
	if err != nil {
		return nil, err
	}
	s.tries[key] = t
	return t, nil
}

// Insert stages value at path within identifier's trie.
func (s *Storage) Insert(identifier []byte, path bitpath.Path, value felt.Felt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.trieFor(identifier)
	if err != nil {
		return err
	}
	return t.Insert(path, value)
}

// Remove stages a removal at path within identifier's trie.
func (s *Storage) Remove(identifier []byte, path bitpath.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.trieFor(identifier)
	if err != nil {
		return err
	}
	return t.Remove(path)
}

// Get returns the value at path within identifier's trie.
func (s *Storage) Get(identifier []byte, path bitpath.Path) (felt.Felt, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.trieFor(identifier)
	if err != nil {
		return felt.Felt{}, false, err
	}
	return t.Get(path)
}

// RootHash returns identifier's root hash as of its last successful commit.
func (s *Storage) RootHash(identifier []byte) (felt.Felt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.trieFor(identifier)
	if err != nil {
		return felt.Felt{}, err
	}
	return t.RootHash(), nil
}

// Prove returns a membership proof for path within identifier's committed
// trie.
func (s *Storage) Prove(identifier []byte, path bitpath.Path) ([]trie.ProofStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.trieFor(identifier)
	if err != nil {
		return nil, err
	}
	return t.Prove(path)
}

// Commit atomically materializes every touched identifier's overlay into
// its trie and FLAT state, bumps latest_commit_id, and appends one
// trie-log record per touched identifier -- all as a single backend write
// batch. It fails with trie.ErrStaleCommitID if commitID is not strictly
// greater than the previously recorded latest id.
func (s *Storage) Commit(commitID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasLatest && !s.latestCommitID.Less(commitID) {
		return trie.ErrStaleCommitID
	}

	var allOps []database.Op
	var results []touchedResult

	idents := make([]string, 0, len(s.tries))
	for k := range s.tries {
		idents = append(idents, k)
	}
	sort.Strings(idents)

	for _, k := range idents {
		t := s.tries[k]
		res, err := t.PrepareCommit()
		if err != nil {
			return err
		}
		if len(res.Ops) == 0 && len(res.LogEntries) == 0 {
			continue
		}
		allOps = append(allOps, res.Ops...)
		results = append(results, touchedResult{identifier: t.Identifier, t: t, res: res})
	}

	if len(results) == 0 {
		// Nothing staged anywhere: still a valid no-op commit that advances
		// latest_commit_id, matching the spec's requirement that a commit
		// id be accepted exactly once regardless of payload.
		allOps = append(allOps, database.Put(database.ColumnConfig, configKeyLatestCommitID, commitID.Bytes()))
		if err := s.backend.WriteBatch(allOps); err != nil {
			return err
		}
		s.latestCommitID = commitID
		s.hasLatest = true
		return nil
	}

	prevLatest := []byte(nil)
	if s.hasLatest {
		prevLatest = s.latestCommitID.Bytes()
	}

	var newIdentifiers [][]byte
	for _, r := range results {
		key := string(r.identifier)
		if _, known := s.identifiers[key]; !known {
			newIdentifiers = append(newIdentifiers, r.identifier)
		}
		if s.config.TrieLogEnabled {
			logBytes := trielog.Log{PreviousLatestCommitID: prevLatest, Entries: r.res.LogEntries}.Encode()
			allOps = append(allOps, database.Put(database.ColumnTrieLog, trie.TrieLogKey(r.identifier, commitID.Bytes()), logBytes))
		}
	}

	allOps = append(allOps, database.Put(database.ColumnConfig, configKeyLatestCommitID, commitID.Bytes()))

	if len(newIdentifiers) > 0 {
		for _, ident := range newIdentifiers {
			s.identifiers[string(ident)] = ident
		}
		allOps = append(allOps, database.Put(database.ColumnConfig, configKeyIdentifierIndex, encodeIdentifierIndex(s.identifiers)))
	}

	if err := s.backend.WriteBatch(allOps); err != nil {
		return err
	}

	for _, r := range results {
		r.t.CommitSucceeded(r.res)
		if s.config.HashMetricsEnabled {
			s.config.Metrics.RecordHashes(r.res.HashCalls, r.identifier)
		}
	}
	s.latestCommitID = commitID
	s.hasLatest = true
	return nil
}

type touchedResult struct {
	identifier []byte
	t          *trie.Trie
	res        trie.CommitResult
}

// RevertTo rolls every known identifier's backend state back to target_id,
// replaying trie-log entries for commits in (target_id, current_id] across
// all identifiers, in descending commit order, as a single atomic write.
func (s *Storage) RevertTo(currentID, targetID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.TrieLogEnabled {
		return trie.ErrTrieLogDisabled
	}
	if !s.hasLatest || s.latestCommitID != currentID {
		return trie.ErrUnrecordedRevert
	}
	if currentID.Less(targetID) {
		return trie.ErrRevertForward
	}
	if targetID == currentID {
		return nil
	}

	type logEntry struct {
		identifier []byte
		commitID   id.ID
		key        []byte
		log        trielog.Log
	}
	var all []logEntry

	for key, ident := range s.identifiers {
		_ = key
		it, err := s.backend.PrefixScan(database.ColumnTrieLog, trie.IdentifierLogPrefix(ident))
		if err != nil {
			return err
		}
		prefix := trie.IdentifierLogPrefix(ident)
		for it.Next() {
			k := it.Key()
			if len(k) <= len(prefix) {
				continue
			}
			cid := id.FromBytes(k[len(prefix):])
			if cid.Less(targetID) || cid == targetID || currentID.Less(cid) {
				continue
			}
			logBytes := it.Value()
			l, derr := trielog.Decode(logBytes)
			if derr != nil {
				it.Close()
				return derr
			}
			all = append(all, logEntry{identifier: ident, commitID: cid, key: k, log: l})
		}
		it.Close()
	}

	sort.Slice(all, func(i, j int) bool {
		return all[j].commitID.Less(all[i].commitID)
	})

	var ops []database.Op
	for _, e := range all {
		ops = append(ops, e.log.InverseOps()...)
		ops = append(ops, database.Delete(database.ColumnTrieLog, e.key))
	}
	ops = append(ops, database.Put(database.ColumnConfig, configKeyLatestCommitID, targetID.Bytes()))

	if err := s.backend.WriteBatch(ops); err != nil {
		return err
	}

	s.latestCommitID = targetID
	for key, t := range s.tries {
		b, ok, err := s.backend.Get(database.ColumnConfig, trie.ConfigKeyRootHash(t.Identifier))
		if err != nil {
			return err
		}
		h := felt.Zero()
		if ok {
			h = felt.FromBytesBE(b)
		}
		t.SetRootHash(h)
		t.ResetOverlay()
		_ = key
	}
	return nil
}

// Clone returns an independent handle over the same backend and hasher: it
// does not share any in-memory trie or overlay state with s, but observes
// the same committed data and commit-id/identifier bookkeeping.
func (s *Storage) Clone() (*Storage, error) {
	return New(s.backend, s.hasher, s.config)
}

func encodeIdentifierIndex(idents map[string][]byte) []byte {
	var buf []byte
	tmp := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(tmp, uint64(len(idents)))
	buf = append(buf, tmp[:n]...)
	keys := make([]string, 0, len(idents))
	for k := range idents {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ident := idents[k]
		n := binary.PutUvarint(tmp, uint64(len(ident)))
		buf = append(buf, tmp[:n]...)
		buf = append(buf, ident...)
	}
	return buf
}

func decodeIdentifierIndex(b []byte) ([][]byte, error) {
	n, rest := binary.Uvarint(b)
	if rest <= 0 {
		return nil, errTruncatedIndex
	}
	b = b[rest:]
	out := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		l, r := binary.Uvarint(b)
		if r <= 0 {
			return nil, errTruncatedIndex
		}
		b = b[r:]
		if uint64(len(b)) < l {
			return nil, errTruncatedIndex
		}
		out = append(out, append([]byte(nil), b[:l]...))
		b = b[l:]
	}
	return out, nil
}
