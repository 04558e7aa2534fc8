package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoOpDiscards(t *testing.T) {
	require.NotPanics(t, func() { NoOp{}.RecordHashes(100, []byte("id")) })
}

func TestCountingAccumulates(t *testing.T) {
	var c Counting
	c.RecordHashes(3, nil)
	c.RecordHashes(4, nil)
	require.EqualValues(t, 7, c.Total())
}
