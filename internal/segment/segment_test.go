package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cfg() Config {
	return Config{
		ChunkingEnabled:   true,
		ChunkDuration:     30 * time.Second,
		ChunkOverlap:      1 * time.Second,
		FastPathThreshold: 30 * time.Second,
	}
}

func TestPlanShortSourceIsSingleChunk(t *testing.T) {
	bounds := Plan(20*time.Second, cfg())
	require.Len(t, bounds, 1)
	assert.InDelta(t, 0, bounds[0].StartS, 0.001)
	assert.InDelta(t, 20, bounds[0].EndS, 0.001)
}

func TestPlanDisabledChunkingIsSingleChunk(t *testing.T) {
	c := cfg()
	c.ChunkingEnabled = false
	bounds := Plan(5*time.Minute, c)
	require.Len(t, bounds, 1)
	assert.InDelta(t, 300, bounds[0].EndS, 0.001)
}

func TestPlanLongSourceProducesOverlappingChunks(t *testing.T) {
	bounds := Plan(95*time.Second, cfg())
	require.True(t, len(bounds) >= 2)

	for i := 1; i < len(bounds); i++ {
		assert.Less(t, bounds[i].StartS, bounds[i-1].EndS, "consecutive chunks must overlap")
	}
	assert.InDelta(t, 95, bounds[len(bounds)-1].EndS, 0.001)
}

func TestPlanMergesShortTailIntoPrevious(t *testing.T) {
	// With a 1s overlap the tail always exceeds the 1s floor, so use no
	// overlap: 30s chunks, stride 30s. A 60.5s source plans [0,30],
	// [30,60], [60,60.5]; the 0.5s tail is folded into [30,60.5].
	c := cfg()
	c.ChunkOverlap = 0
	bounds := Plan(60500*time.Millisecond, c)
	require.Len(t, bounds, 2)
	last := bounds[len(bounds)-1]
	assert.InDelta(t, 60.5, last.EndS, 0.001)
	// No trailing chunk shorter than the merge threshold should survive.
	assert.GreaterOrEqual(t, last.EndS-last.StartS, 1.0-1e-6)
}

func TestMergeShortTailNoopOnSingleChunk(t *testing.T) {
	bounds := []ChunkBounds{{Index: 0, StartS: 0, EndS: 5}}
	assert.Equal(t, bounds, mergeShortTail(bounds, 30))
}
