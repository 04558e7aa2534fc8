// Package hash provides the hashing capability consumed by the trie engine:
// a pluggable hash(left, right) -> Felt together with an optional batched
// variant. Bonsai treats the concrete cryptographic primitive (Pedersen,
// Poseidon, or a GPU-accelerated variant of either) as an external
// collaborator; this package only fixes the capability surface and supplies
// CPU reference implementations good enough to exercise the trie engine.
package hash

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/iotaledger/bonsai-trie/felt"
)

// Pair is one (left, right) input to a node hash, as accumulated by the trie
// engine's commit pass when the hasher prefers batched hashing.
type Pair struct {
	Left, Right felt.Felt
}

// Hasher is the capability set the trie engine is generic over. It must be
// safe to call from multiple goroutines; HashPairs may parallelize
// internally.
type Hasher interface {
	// Hash computes H(left, right).
	Hash(left, right felt.Felt) (felt.Felt, error)
	// HashPairs computes Hash for every pair, in order. Implementations
	// without a batched path delegate to SequentialHashPairs.
	HashPairs(pairs []Pair) ([]felt.Felt, error)
	// PrefersBatched tells the engine whether to accumulate a commit's
	// binary-node hashes and call HashPairs once per trie depth instead of
	// invoking Hash node by node.
	PrefersBatched() bool
}

// SequentialHashPairs is the default HashPairs behavior: call Hash once per
// pair, in order, bailing out on the first error. Concrete hashers call
// this instead of duplicating the loop, mirroring the default trait method
// in the reference hashing capability.
func SequentialHashPairs(h Hasher, pairs []Pair) ([]felt.Felt, error) {
	out := make([]felt.Felt, len(pairs))
	for i, p := range pairs {
		v, err := h.Hash(p.Left, p.Right)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// domainHash folds a domain separation tag and two field elements through
// blake2b and reduces the digest back into the field. It stands in for the
// real algebraic hash (Pedersen over the STARK curve, or a Poseidon
// permutation); the exact primitive is an external collaborator per the
// engine's hashing-capability abstraction, so any deterministic, collision-
// resistant-in-practice construction over Felt is a faithful substitute here.
func domainHash(domain string, left, right felt.Felt) felt.Felt {
	h, err := blake2b.New256([]byte(domain))
	if err != nil {
		panic(err) // blake2b.New256 only fails on oversized keys
	}
	lb := left.Bytes()
	rb := right.Bytes()
	h.Write(lb[:])
	h.Write(rb[:])
	return felt.FromBytesBE(h.Sum(nil))
}

// Pedersen is the CPU reference implementation of the default StarkNet
// commitment hash. It never fails and has no batching preference.
type Pedersen struct{}

var _ Hasher = Pedersen{}

func (Pedersen) Hash(left, right felt.Felt) (felt.Felt, error) {
	return domainHash("bonsai/pedersen", left, right), nil
}

func (p Pedersen) HashPairs(pairs []Pair) ([]felt.Felt, error) {
	return SequentialHashPairs(p, pairs)
}

func (Pedersen) PrefersBatched() bool { return false }

// Poseidon is the CPU reference implementation of the alternative sponge
// hash. Distinct domain tag from Pedersen so the two commit to different
// values for the same (left, right) pair, as real StarkNet hashes do.
type Poseidon struct{}

var _ Hasher = Poseidon{}

func (Poseidon) Hash(left, right felt.Felt) (felt.Felt, error) {
	return domainHash("bonsai/poseidon", left, right), nil
}

func (p Poseidon) HashPairs(pairs []Pair) ([]felt.Felt, error) {
	return SequentialHashPairs(p, pairs)
}

func (Poseidon) PrefersBatched() bool { return false }

// PedersenGPU models a GPU-accelerated Pedersen hash. It reports
// PrefersBatched() == true so the engine accumulates a commit's pairs and
// submits each trie depth's pairs in one HashPairs call (a shallower node's
// inputs are only known once the deeper level is hashed), which this
// implementation executes
// across a worker pool the way a real GPU batch submission would overlap
// many lanes. FaultInjector, when set, lets tests exercise HashError
// propagation from a batch call without needing real GPU failure modes.
type PedersenGPU struct {
	Workers      int
	FaultInjector func(batchSize int) error
}

var _ Hasher = (*PedersenGPU)(nil)

func (g *PedersenGPU) Hash(left, right felt.Felt) (felt.Felt, error) {
	return domainHash("bonsai/pedersen-gpu", left, right), nil
}

func (g *PedersenGPU) HashPairs(pairs []Pair) ([]felt.Felt, error) {
	if g.FaultInjector != nil {
		if err := g.FaultInjector(len(pairs)); err != nil {
			return nil, fmt.Errorf("hash: gpu batch of %d pairs failed: %w", len(pairs), err)
		}
	}
	out := make([]felt.Felt, len(pairs))
	workers := g.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(pairs) {
		workers = len(pairs)
	}
	if workers <= 1 {
		for i, p := range pairs {
			out[i], _ = g.Hash(p.Left, p.Right)
		}
		return out, nil
	}
	var wg sync.WaitGroup
	chunk := (len(pairs) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= len(pairs) {
			break
		}
		if end > len(pairs) {
			end = len(pairs)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				out[i], _ = g.Hash(pairs[i].Left, pairs[i].Right)
			}
		}(start, end)
	}
	wg.Wait()
	return out, nil
}

func (g *PedersenGPU) PrefersBatched() bool { return true }
