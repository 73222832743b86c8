// Package embed walks the events of a previously produced store so that new
// signal events can be placed on top of them.
//
// The cursor cycles through the background entries in order. After the last
// entry it wraps to the first, so a short background sample can serve an
// arbitrarily long signal run.
package embed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/generr"
	"github.com/roach88/primgen/internal/store"
)

// Cursor tracks the background store and the entry the next signal event
// embeds into. Not safe for concurrent use.
type Cursor struct {
	store   *store.Store
	name    string
	entries int64
	index   int64

	// header is reused across reads.
	header *event.Header
	logger *slog.Logger
}

// Option configures a Cursor.
type Option func(*Cursor)

// WithLogger sets the logger used for open failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cursor) {
		c.logger = l
	}
}

// NewCursor returns a closed cursor.
func NewCursor(opts ...Option) *Cursor {
	c := &Cursor{
		header: event.NewHeader(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open attaches the cursor to the store at path and positions it on entry 0.
//
// Opening while another store is attached fails and leaves the current store
// untouched. On any other failure the cursor stays closed.
func (c *Cursor) Open(ctx context.Context, path string) error {
	if c.store != nil {
		c.logger.Error("another embedding store is currently open", "current", c.name, "requested", path)
		return generr.EmbedAlreadyOpen(c.name)
	}

	s, err := store.OpenReadOnly(path)
	if err != nil {
		c.logger.Error("cannot open store for embedding", "path", path, "error", err)
		return generr.EmbedOpenFailed(path, err)
	}

	ok, err := s.HasTable(ctx, store.HeaderTable)
	if err != nil {
		s.Close()
		c.logger.Error("cannot open store for embedding", "path", path, "error", err)
		return generr.EmbedOpenFailed(path, err)
	}
	if !ok {
		s.Close()
		c.logger.Error("cannot find event-header table for embedding", "path", path, "table", store.HeaderTable)
		return generr.EmbedMissingTable(path, store.HeaderTable)
	}

	n, err := s.Entries(ctx)
	if err != nil {
		s.Close()
		c.logger.Error("cannot count entries for embedding", "path", path, "error", err)
		return generr.EmbedOpenFailed(path, err)
	}
	if n <= 0 {
		s.Close()
		c.logger.Error("invalid number of entries found in store for embedding", "path", path, "entries", n)
		return generr.EmbedEmpty(path, n)
	}

	c.store = s
	c.name = path
	c.entries = n
	c.index = 0
	c.logger.Info("embedding into background store", "path", path, "entries", n)
	return nil
}

// IsOpen reports whether a background store is attached.
func (c *Cursor) IsOpen() bool {
	return c.store != nil
}

// Name returns the path of the attached store, or "" when closed.
func (c *Cursor) Name() string {
	return c.name
}

// Index returns the entry the next signal event embeds into.
func (c *Cursor) Index() int64 {
	return c.index
}

// Entries returns the number of background entries, or 0 when closed.
func (c *Cursor) Entries() int64 {
	return c.entries
}

// ReadCurrent reads the background header at the cursor. The returned
// header is owned by the cursor and overwritten by the next read.
func (c *Cursor) ReadCurrent(ctx context.Context) (*event.Header, error) {
	if c.store == nil {
		return nil, generr.EmbedRead(c.name, c.index, errors.New("no embedding store open"))
	}
	if err := c.store.ReadHeader(ctx, c.index, c.header); err != nil {
		return nil, generr.EmbedRead(c.name, c.index, err)
	}
	return c.header, nil
}

// ReadCurrentVertex reads the vertex of the background event at the cursor.
func (c *Cursor) ReadCurrentVertex(ctx context.Context) (event.Vertex, error) {
	h, err := c.ReadCurrent(ctx)
	if err != nil {
		return event.Vertex{}, err
	}
	return h.Vertex(), nil
}

// Advance moves to the next entry, wrapping after the last one.
// It is a no-op when no store is open.
func (c *Cursor) Advance() {
	if c.entries <= 0 {
		return
	}
	c.index = (c.index + 1) % c.entries
}

// Close detaches the background store. Closing a closed cursor is a no-op.
func (c *Cursor) Close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	c.name = ""
	c.entries = 0
	c.index = 0
	return err
}
