package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/mcgen"
	"github.com/roach88/primgen/internal/stack"
)

// ErrNoEntry is returned when an entry number is outside the store.
var ErrNoEntry = errors.New("no such entry")

// Entries returns the number of event headers in the store.
func (s *Store) Entries(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM o2sim`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// ReadHeader decodes the header of entry into h, replacing its contents.
// Returns ErrNoEntry if the entry does not exist.
func (s *Store) ReadHeader(ctx context.Context, entry int64, h *event.Header) error {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT mc_event_header FROM o2sim WHERE entry = ?`, entry,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read header %d: %w", entry, ErrNoEntry)
	}
	if err != nil {
		return fmt.Errorf("read header %d: %w", entry, err)
	}
	if err := event.Unmarshal([]byte(data), h); err != nil {
		return fmt.Errorf("read header %d: %w", entry, err)
	}
	return nil
}

// ReadTracks returns the tracks of entry in stack order.
// Returns an empty slice (not nil) if the entry has no tracks.
func (s *Store) ReadTracks(ctx context.Context, entry int64) ([]stack.Track, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pdg, do_tracking, px, py, pz, e, vx, vy, vz, tof,
		       mother1, mother2, daughter1, daughter2, weight, status, process, generator_process
		FROM tracks
		WHERE entry = ?
		ORDER BY track ASC
	`, entry)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	tracks := []stack.Track{}
	for rows.Next() {
		var (
			t                   stack.Track
			doTracking          int
			process, generatorP int
		)
		if err := rows.Scan(
			&t.PDG, &doTracking,
			&t.Px, &t.Py, &t.Pz, &t.E,
			&t.Vx, &t.Vy, &t.Vz, &t.Tof,
			&t.Mother1, &t.Mother2, &t.Daughter1, &t.Daughter2,
			&t.Weight, &t.Status, &process, &generatorP,
		); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		t.DoTracking = doTracking != 0
		t.Process = mcgen.Process(process)
		t.GeneratorProcess = mcgen.Process(generatorP)
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return tracks, nil
}

// ReadRuns returns all run records ordered by first entry.
func (s *Store) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, generator_id, description, vertex_mode, seed, embedding_file, first_entry
		FROM runs
		ORDER BY first_entry ASC, run_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			r    Run
			seed int64
		)
		if err := rows.Scan(&r.ID, &r.GeneratorID, &r.Description, &r.VertexMode, &seed, &r.EmbeddingFile, &r.FirstEntry); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Seed = uint64(seed)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
