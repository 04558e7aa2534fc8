package trie

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/bonsai-trie/bitpath"
	"github.com/iotaledger/bonsai-trie/felt"
)

func TestOverlaySetAndGet(t *testing.T) {
	o := newOverlay()
	p := bitpath.FromBits([]bool{true, false, true})
	o.set(p, felt.FromUint64(5))
	v, removed, ok := o.get(p)
	require.True(t, ok)
	require.False(t, removed)
	require.True(t, v.Equal(felt.FromUint64(5)))
}

func TestOverlayZeroInsertNormalizesToRemoval(t *testing.T) {
	o := newOverlay()
	p := bitpath.FromBits([]bool{false, true})
	o.set(p, felt.Zero())
	v, removed, ok := o.get(p)
	require.True(t, ok)
	require.True(t, removed, "zero insert must normalize to a staged removal")
	require.True(t, v.IsZero())
}

func TestOverlayRemove(t *testing.T) {
	o := newOverlay()
	p := bitpath.FromBits([]bool{true})
	o.remove(p)
	_, removed, ok := o.get(p)
	require.True(t, ok)
	require.True(t, removed, "remove must stage a removal")
}

func TestOverlayClear(t *testing.T) {
	o := newOverlay()
	o.set(bitpath.FromBits([]bool{true}), felt.FromUint64(1))
	o.clear()
	require.True(t, o.isEmpty(), "clear must empty the overlay")
}

func TestOverlayDirtyEntriesPreservesLatestValuePerPath(t *testing.T) {
	o := newOverlay()
	p := bitpath.FromBits([]bool{true, true, false})
	o.set(p, felt.FromUint64(1))
	o.set(p, felt.FromUint64(2)) // overwrite, same path
	entries := o.dirtyEntries(p.Len())
	require.Len(t, entries, 1, "overwriting the same path must not duplicate dirty entries")
	require.True(t, entries[0].value.Equal(felt.FromUint64(2)), "dirty entry must carry the latest staged value")
}
