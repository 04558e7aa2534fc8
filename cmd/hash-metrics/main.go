// Command hash-metrics runs the fixed insert/update workload the upstream
// reference's examples/hash_metrics.rs uses to exercise per-commit hash-count
// reporting, reading the same BONSAI_KEYS/BONSAI_UPDATES/BONSAI_HASH_METRICS
// environment variables and printing a running average after each commit.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/iotaledger/bonsai-trie"
	"github.com/iotaledger/bonsai-trie/bitpath"
	"github.com/iotaledger/bonsai-trie/database"
	"github.com/iotaledger/bonsai-trie/felt"
	"github.com/iotaledger/bonsai-trie/hash"
	"github.com/iotaledger/bonsai-trie/id"
)

const maxHeight = 251

func envInt(name string, def int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envEnabled(name string) bool {
	v, ok := os.LookupEnv(name)
	return ok && v != "0"
}

// printingSink mirrors src/metrics.rs's eprintln!-based reporting: a running
// commit count and hash total, averaged across commits so far.
type printingSink struct {
	commits int64
	total   int64
}

func (s *printingSink) RecordHashes(count int, identifier []byte) {
	commits := atomic.AddInt64(&s.commits, 1)
	total := atomic.AddInt64(&s.total, int64(count))
	fmt.Fprintf(os.Stderr, "bonsai-hash-metrics: commit=%d identifier_len=%d hashes=%d avg_hashes=%.2f\n",
		commits, len(identifier), count, float64(total)/float64(commits))
}

func main() {
	numKeys := envInt("BONSAI_KEYS", 1_000)
	numUpdates := envInt("BONSAI_UPDATES", 100)
	metricsEnabled := envEnabled("BONSAI_HASH_METRICS")

	cfg := bonsai.Config{MaxHeight: maxHeight, TrieLogEnabled: true}
	if metricsEnabled {
		cfg.HashMetricsEnabled = true
		cfg.Metrics = &printingSink{}
	}
	store, err := bonsai.New(database.NewMemory(), hash.Pedersen{}, cfg)
	must(err)

	builder := id.NewCounter()
	rng := rand.New(rand.NewSource(42))
	identifier := []byte(nil)

	keys := make([]bitpath.Path, 0, numKeys)
	for i := 0; i < numKeys; i++ {
		key := makeKey(rng)
		keys = append(keys, key)
		must(store.Insert(identifier, key, felt.FromUint64(uint64(i+1))))
	}
	must(store.Commit(builder.New()))

	for i := 0; i < numUpdates; i++ {
		key := keys[i%len(keys)]
		must(store.Insert(identifier, key, felt.FromUint64(uint64(i+10))))
	}
	must(store.Commit(builder.New()))

	root, err := store.RootHash(identifier)
	must(err)
	fmt.Printf("root hash after %d keys + %d updates: %s\n", numKeys, numUpdates, root.String())
}

func makeKey(rng *rand.Rand) bitpath.Path {
	var b [32]byte
	rng.Read(b[:])
	return bitpath.FromBytes(b[:], maxHeight)
}

func must(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash-metrics: %v\n", err)
		os.Exit(1)
	}
}
