// Package bonsai is the storage manager: it owns the backend handle, the
// per-identifier trie engines, the latest commit id, and the revert
// algorithm that replays trie-log entries to roll back to an earlier
// commit.
package bonsai

import "github.com/iotaledger/bonsai-trie/metrics"

// Config configures a Storage manager.
type Config struct {
	// MaxHeight bounds every path to this many bits. StarkNet-style tries
	// use 251.
	MaxHeight int
	// TrieLogEnabled, when false, makes RevertTo always fail; commits still
	// succeed but no inverse patch is recorded, so TRIE_LOG stays empty.
	TrieLogEnabled bool
	// HashMetricsEnabled routes each commit's hash-call count to Metrics.
	HashMetricsEnabled bool
	// Metrics receives hash-count observations when HashMetricsEnabled is
	// true. A nil value defaults to metrics.NoOp{}.
	Metrics metrics.Sink
}

// DefaultConfig returns the spec's documented defaults: trie_log_enabled
// true, hash_metrics_enabled false, max_height 251 (StarkNet's Felt width
// minus one, room for 2^251 distinct leaves).
func DefaultConfig() Config {
	return Config{
		MaxHeight:      251,
		TrieLogEnabled: true,
	}
}
