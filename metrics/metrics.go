// Package metrics provides the optional per-commit hash-count observer the
// example tooling wires in when hash_metrics_enabled is set, grounded on the
// upstream reference's env-var-gated atomic counters (src/metrics.rs):
// BONSAI_HASH_METRICS there gates recording, BONSAI_KEYS/BONSAI_UPDATES
// size the benchmark driver that feeds it. None of this belongs to the
// core engine; Sink is consumed only if the caller opts in via Config.
package metrics

import "sync/atomic"

// Sink receives hash-count observations. RecordHashes is called once for
// each identifier a commit touched, with the number of node hashes computed
// for that trie (each pair in a HashPairs batch counts once) and its
// identifier.
type Sink interface {
	RecordHashes(count int, identifier []byte)
}

// NoOp discards every observation; the default when hash_metrics_enabled is
// false.
type NoOp struct{}

func (NoOp) RecordHashes(int, []byte) {}

// Counting accumulates a running total across every identifier, the shape
// the bench/example tools report at the end of a run.
type Counting struct {
	total int64
}

var _ Sink = (*Counting)(nil)

func (c *Counting) RecordHashes(count int, _ []byte) {
	atomic.AddInt64(&c.total, int64(count))
}

// Total returns the accumulated hash count.
func (c *Counting) Total() int64 {
	return atomic.LoadInt64(&c.total)
}
