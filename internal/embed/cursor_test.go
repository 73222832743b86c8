package embed

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/generr"
	"github.com/roach88/primgen/internal/store"
	"github.com/roach88/primgen/internal/testutil"
)

func openCursor(t *testing.T, n int) (*Cursor, string) {
	t.Helper()
	path := testutil.WriteBackgroundStore(t, testutil.LineVertices(n))
	c := NewCursor(WithLogger(testutil.DiscardLogger()))
	require.NoError(t, c.Open(context.Background(), path))
	t.Cleanup(func() { c.Close() })
	return c, path
}

func TestCursor_Open(t *testing.T) {
	c, path := openCursor(t, 3)

	assert.True(t, c.IsOpen())
	assert.Equal(t, path, c.Name())
	assert.Equal(t, int64(3), c.Entries())
	assert.Equal(t, int64(0), c.Index())
}

func TestCursor_WrapsAround(t *testing.T) {
	ctx := context.Background()
	c, _ := openCursor(t, 3)

	var got []float64
	for i := 0; i < 7; i++ {
		v, err := c.ReadCurrentVertex(ctx)
		require.NoError(t, err)
		got = append(got, v.Z)
		c.Advance()
	}
	assert.Equal(t, []float64{1, 2, 3, 1, 2, 3, 1}, got)
	assert.Equal(t, int64(1), c.Index())
}

func TestCursor_ReadIsRepeatable(t *testing.T) {
	ctx := context.Background()
	c, _ := openCursor(t, 2)
	c.Advance()

	first, err := c.ReadCurrent(ctx)
	require.NoError(t, err)
	firstCopy := first.Clone()

	second, err := c.ReadCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, firstCopy, second)
	assert.Equal(t, int64(2), second.EventID)
	assert.Equal(t, int64(1), c.Index(), "reading does not move the cursor")
}

func TestCursor_SecondOpenRejected(t *testing.T) {
	ctx := context.Background()
	c, path := openCursor(t, 2)
	c.Advance()

	other := testutil.WriteBackgroundStore(t, testutil.LineVertices(5))
	err := c.Open(ctx, other)
	require.Error(t, err)
	assert.True(t, generr.HasCode(err, generr.CodeEmbedAlreadyOpen))
	assert.False(t, generr.IsFatal(err))

	assert.Equal(t, path, c.Name())
	assert.Equal(t, int64(2), c.Entries())
	assert.Equal(t, int64(1), c.Index())

	v, err := c.ReadCurrentVertex(ctx)
	require.NoError(t, err)
	assert.Equal(t, event.Vertex{Z: 2}, v)
}

func TestCursor_OpenFailures(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	foreign := filepath.Join(dir, "foreign.db")
	db, err := sql.Open("sqlite3", foreign)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE other (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	empty := filepath.Join(dir, "empty.db")
	s, err := store.Create(empty)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	tests := []struct {
		name string
		path string
		code generr.Code
	}{
		{"missing file", filepath.Join(dir, "missing.db"), generr.CodeEmbedOpenFailed},
		{"directory", dir, generr.CodeEmbedOpenFailed},
		{"no header table", foreign, generr.CodeEmbedMissingTable},
		{"no entries", empty, generr.CodeEmbedEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			c := NewCursor(WithLogger(testutil.CaptureLogger(&logs)))

			err := c.Open(ctx, tt.path)
			require.Error(t, err)
			assert.True(t, generr.HasCode(err, tt.code), "got %v", err)
			assert.False(t, generr.IsFatal(err))
			assert.Contains(t, logs.String(), "level=ERROR")

			assert.False(t, c.IsOpen())
			assert.Equal(t, int64(0), c.Entries())
		})
	}
}

func TestCursor_OpenPathWithURICharacters(t *testing.T) {
	ctx := context.Background()

	for _, name := range []string{"bkg#1.db", "bkg?v2.db"} {
		t.Run(name, func(t *testing.T) {
			path := testutil.WriteBackgroundStoreAt(t, filepath.Join(t.TempDir(), name), testutil.LineVertices(3))
			c := NewCursor(WithLogger(testutil.DiscardLogger()))
			defer c.Close()

			require.NoError(t, c.Open(ctx, path))
			assert.Equal(t, int64(3), c.Entries())

			v, err := c.ReadCurrentVertex(ctx)
			require.NoError(t, err)
			assert.Equal(t, event.Vertex{Z: 1}, v)
		})
	}
}

func TestCursor_ReopenAfterFailure(t *testing.T) {
	ctx := context.Background()
	c := NewCursor(WithLogger(testutil.DiscardLogger()))
	defer c.Close()

	require.Error(t, c.Open(ctx, filepath.Join(t.TempDir(), "missing.db")))

	path := testutil.WriteBackgroundStore(t, testutil.LineVertices(1))
	require.NoError(t, c.Open(ctx, path))
	assert.True(t, c.IsOpen())
}

func TestCursor_Closed(t *testing.T) {
	c := NewCursor(WithLogger(testutil.DiscardLogger()))

	c.Advance()
	assert.Equal(t, int64(0), c.Index())

	_, err := c.ReadCurrent(context.Background())
	assert.True(t, generr.HasCode(err, generr.CodeEmbedRead))

	assert.NoError(t, c.Close())
}

func TestCursor_CloseResets(t *testing.T) {
	c, _ := openCursor(t, 3)
	c.Advance()

	require.NoError(t, c.Close())
	assert.False(t, c.IsOpen())
	assert.Empty(t, c.Name())
	assert.Equal(t, int64(0), c.Index())
	assert.Equal(t, int64(0), c.Entries())
}
