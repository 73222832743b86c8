package testutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/store"
)

func TestNewRand_Deterministic(t *testing.T) {
	a := NewRand(7)
	b := NewRand(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
	assert.NotEqual(t, NewRand(1).Uint64(), NewRand(2).Uint64())
}

func TestCaptureLogger(t *testing.T) {
	var buf bytes.Buffer
	CaptureLogger(&buf).Debug("hello", "k", 1)
	assert.Contains(t, buf.String(), "msg=hello k=1")

	DiscardLogger().Error("dropped")
}

func TestWriteBackgroundStore(t *testing.T) {
	ctx := context.Background()
	path := WriteBackgroundStore(t, LineVertices(3))

	s, err := store.OpenReadOnly(path)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	h := event.NewHeader()
	require.NoError(t, s.ReadHeader(ctx, 2, h))
	assert.Equal(t, event.Vertex{Z: 3}, h.Vertex())
	assert.Equal(t, int64(3), h.EventID)
	assert.Equal(t, 2.0, h.B)
}
