package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStack_PushAndReset(t *testing.T) {
	s := NewMemoryStack()
	sink, ok := s.Primaries()
	require.True(t, ok)

	assert.Equal(t, 0, sink.PushTrack(Track{PDG: 211}))
	assert.Equal(t, 1, sink.PushTrack(Track{PDG: -211}))
	assert.Equal(t, 2, sink.Len())

	tracks := s.Tracks()
	require.Len(t, tracks, 2)
	assert.Equal(t, -211, tracks[1].PDG)

	// Returned slice is a copy.
	tracks[0].PDG = 0
	assert.Equal(t, 211, s.Tracks()[0].PDG)

	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Tracks())
}
