package segment

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIteratorDirectModeReturnsSourcePathUnsliced(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.media")
	require.NoError(t, os.WriteFile(src, []byte("fake audio"), 0o644))

	bounds := []ChunkBounds{{Index: 0, StartS: 0, EndS: 5, Direct: true}}
	it := NewIterator(src, dir, bounds)

	chunk, err := it.Next(context.Background())
	require.NoError(t, err)
	require.NotNil(t, chunk)
	assert.Equal(t, src, chunk.FilePath)

	require.NoError(t, it.Close())
	_, statErr := os.Stat(src)
	assert.NoError(t, statErr, "direct mode must not delete the source file")

	chunk, err = it.Next(context.Background())
	require.NoError(t, err)
	assert.Nil(t, chunk)
}
