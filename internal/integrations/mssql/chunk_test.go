package mssql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanChunksTilesExactly(t *testing.T) {
	chunks := PlanChunks(12000, 5000)
	require.Len(t, chunks, 3)

	assert.Equal(t, Chunk{Index: 1, StartRow: 1, EndRow: 5000}, chunks[0])
	assert.Equal(t, Chunk{Index: 2, StartRow: 5001, EndRow: 10000}, chunks[1])
	assert.Equal(t, Chunk{Index: 3, StartRow: 10001, EndRow: 12000}, chunks[2])

	// consecutive windows share no rows and leave no gaps
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].EndRow+1, chunks[i].StartRow)
	}
}

func TestPlanChunksExactMultiple(t *testing.T) {
	chunks := PlanChunks(10000, 5000)
	require.Len(t, chunks, 2)
	assert.Equal(t, 10000, chunks[1].EndRow)
}

func TestPlanChunksSmallTable(t *testing.T) {
	chunks := PlanChunks(3, 5000)
	require.Len(t, chunks, 1)
	assert.Equal(t, Chunk{Index: 1, StartRow: 1, EndRow: 3}, chunks[0])
}

func TestPlanChunksEmpty(t *testing.T) {
	assert.Nil(t, PlanChunks(0, 5000))
	assert.Nil(t, PlanChunks(100, 0))
	assert.Equal(t, 0, TotalChunks(0, 5000))
}

func TestTotalChunksRoundsUp(t *testing.T) {
	assert.Equal(t, 3, TotalChunks(12000, 5000))
	assert.Equal(t, 1, TotalChunks(1, 5000))
	assert.Equal(t, 2, TotalChunks(5001, 5000))
}
