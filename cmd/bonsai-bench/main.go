// Command bonsai-bench generates random key/value pairs, commits them into a
// Bonsai trie in batches, and reports commit throughput -- grounded on the
// teacher's trie_bench tool, adapted from its 256-ary file-driven workflow to
// Bonsai's binary trie and commit-id model.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/iotaledger/bonsai-trie"
	"github.com/iotaledger/bonsai-trie/bitpath"
	"github.com/iotaledger/bonsai-trie/database"
	"github.com/iotaledger/bonsai-trie/felt"
	"github.com/iotaledger/bonsai-trie/hash"
	"github.com/iotaledger/bonsai-trie/id"
)

func main() {
	var (
		dbDir      = flag.String("db", "", "badger directory to write to (default: in-memory)")
		numPairs   = flag.Int("n", 100_000, "total key/value pairs to commit")
		batchSize  = flag.Int("batch", 1000, "pairs per commit")
		maxHeight  = flag.Int("height", 251, "trie max height in bits")
		gpu        = flag.Bool("gpu", false, "use the batched PedersenGPU hasher instead of CPU Pedersen")
		gpuWorkers = flag.Int("gpu-workers", 0, "worker count for -gpu (0 = runtime.NumCPU)")
	)
	flag.Parse()

	backend, closeFn := openBackend(*dbDir)
	defer closeFn()

	var hasher hash.Hasher
	if *gpu {
		hasher = &hash.PedersenGPU{Workers: *gpuWorkers}
	} else {
		hasher = hash.Pedersen{}
	}

	store, err := bonsai.New(backend, hasher, bonsai.Config{MaxHeight: *maxHeight, TrieLogEnabled: true})
	must(err)

	builder := id.NewCounter()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	start := time.Now()
	committed := 0
	for committed < *numPairs {
		n := *batchSize
		if committed+n > *numPairs {
			n = *numPairs - committed
		}
		for i := 0; i < n; i++ {
			key := randomPath(rng, *maxHeight)
			val := felt.FromUint64(rng.Uint64() | 1) // never 0: stay a real insert
			must(store.Insert(nil, key, val))
		}
		must(store.Commit(builder.New()))
		committed += n
		fmt.Printf("committed %d/%d pairs (%.0f pairs/sec)\n",
			committed, *numPairs, float64(committed)/time.Since(start).Seconds())
	}

	root, err := store.RootHash(nil)
	must(err)
	fmt.Printf("final root hash: %s\n", root.String())
}

func randomPath(rng *rand.Rand, bits int) bitpath.Path {
	b := make([]byte, (bits+7)/8)
	rng.Read(b)
	return bitpath.FromBytes(b, bits)
}

func openBackend(dir string) (database.Backend, func()) {
	if dir == "" {
		return database.NewMemory(), func() {}
	}
	b, err := database.NewBadger(dir)
	must(err)
	return b, func() { _ = b.Close() }
}

func must(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "bonsai-bench: %v\n", err)
		os.Exit(1)
	}
}
