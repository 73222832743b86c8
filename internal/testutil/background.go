package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/store"
)

// WriteBackgroundStore writes a background sample with one entry per vertex
// and returns its path. Entry i gets EventID i+1 and impact parameter i.
func WriteBackgroundStore(t testing.TB, vertices []event.Vertex) string {
	t.Helper()
	return WriteBackgroundStoreAt(t, filepath.Join(t.TempDir(), "background.db"), vertices)
}

// WriteBackgroundStoreAt is WriteBackgroundStore with an explicit path.
func WriteBackgroundStoreAt(t testing.TB, path string, vertices []event.Vertex) string {
	t.Helper()
	s, err := store.Create(path)
	if err != nil {
		t.Fatalf("store.Create() failed: %v", err)
	}
	defer s.Close()

	for i, v := range vertices {
		h := event.NewHeader()
		h.EventID = int64(i + 1)
		h.B = float64(i)
		h.SetVertex(v)
		if _, err := s.AppendEvent(context.Background(), h, nil); err != nil {
			t.Fatalf("AppendEvent(%d) failed: %v", i, err)
		}
	}
	return path
}

// LineVertices returns n vertices on the z axis at z = 1..n.
func LineVertices(n int) []event.Vertex {
	out := make([]event.Vertex, n)
	for i := range out {
		out[i] = event.Vertex{Z: float64(i + 1)}
	}
	return out
}
