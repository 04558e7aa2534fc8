package trie

import "golang.org/x/xerrors"

// Error taxonomy surfaced by the engine and storage manager. None of these
// are swallowed internally; a caller always sees the kind that triggered a
// failure. ErrMissingNode is not returned by the engine: a trie position
// absent from the backend is read as an empty node.
var (
	ErrNotAllBytesConsumed = xerrors.New("serialization error: not all bytes were consumed")

	ErrInvalidPath      = xerrors.New("bonsai: path exceeds max height")
	ErrStaleCommitID    = xerrors.New("bonsai: commit id is not strictly greater than the latest recorded one")
	ErrUnrecordedRevert = xerrors.New("bonsai: current id does not match the recorded latest commit id")
	ErrRevertForward    = xerrors.New("bonsai: target id is ahead of current id, or past the earliest retained log entry")
	ErrMissingNode      = xerrors.New("bonsai: backend is missing a node the engine expected")
	ErrTrieLogDisabled  = xerrors.New("bonsai: revert requires trie_log_enabled")
)
