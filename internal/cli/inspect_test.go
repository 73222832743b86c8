package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/mcgen"
	"github.com/roach88/primgen/internal/stack"
	"github.com/roach88/primgen/internal/store"
)

// writeInspectStore builds a store with one embedding run of three events.
func writeInspectStore(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "signal.db")

	s, err := store.Create(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.RecordRun(ctx, store.Run{
		ID:            "run-1",
		GeneratorID:   7,
		Description:   "box gun",
		VertexMode:    "diamond",
		Seed:          42,
		EmbeddingFile: "bkg.db",
	}))

	pion := stack.Track{PDG: 211, Mother1: -1, Mother2: -1, Daughter1: -1, Daughter2: -1, Weight: 1}
	events := []struct {
		vertex   event.Vertex
		tracks   int
		embedded bool
	}{
		{event.Vertex{Z: 1}, 2, true},
		{event.Vertex{X: 0.5, Y: -0.25, Z: 2}, 1, true},
		{event.Vertex{}, 0, false},
	}
	for i, ev := range events {
		h := event.NewHeader()
		h.EventID = int64(i + 1)
		h.SetVertex(ev.vertex)
		h.NPrim = ev.tracks
		h.PutInt(mcgen.PropertyGeneratorID, 7)
		if ev.embedded {
			h.SetEmbedding("bkg.db", int64(i))
		}
		var tracks []stack.Track
		for range ev.tracks {
			tracks = append(tracks, pion)
		}
		_, err := s.AppendEvent(ctx, h, tracks)
		require.NoError(t, err)
	}
	return path
}

func runInspectCLI(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(append([]string{"inspect"}, args...), &stdout, &stderr)
	return stdout.String(), code
}

func TestInspect_Golden(t *testing.T) {
	path := writeInspectStore(t)

	tests := []struct {
		name string
		args []string
	}{
		{"inspect_text", []string{path, "--limit", "2"}},
		{"inspect_json", []string{path, "--format", "json"}},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, code := runInspectCLI(t, tt.args...)
			require.Equal(t, ExitSuccess, code)
			g.Assert(t, tt.name, []byte(strings.ReplaceAll(out, path, "STORE_PATH")))
		})
	}
}

func TestInspect_EmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	s, err := store.Create(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, code := runInspectCLI(t, path)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Entries: 0")
	assert.Equal(t, 2, strings.Count(out, "(none)"))
}

func TestInspect_Errors(t *testing.T) {
	dir := t.TempDir()

	_, code := runInspectCLI(t, filepath.Join(dir, "missing.db"))
	assert.Equal(t, ExitCommandError, code)

	_, code = runInspectCLI(t, dir)
	assert.Equal(t, ExitCommandError, code)

	_, code = runInspectCLI(t)
	assert.Equal(t, ExitFailure, code, "missing argument is a usage error")
}
