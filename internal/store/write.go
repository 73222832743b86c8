package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/stack"
)

// ErrReadOnly is returned by write operations on a read-only store.
var ErrReadOnly = errors.New("store is read-only")

// Run describes one generation run recorded in the store.
type Run struct {
	ID            string
	GeneratorID   int
	Description   string
	VertexMode    string
	Seed          uint64
	EmbeddingFile string
	FirstEntry    int64
}

// AppendEvent writes the header and its tracks as the next entry and returns
// the entry number. Header and tracks are written in one transaction.
func (s *Store) AppendEvent(ctx context.Context, h *event.Header, tracks []stack.Track) (int64, error) {
	if s.readOnly {
		return 0, ErrReadOnly
	}

	headerJSON, err := event.Marshal(h)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("append event: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var entry int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM o2sim`).Scan(&entry); err != nil {
		return 0, fmt.Errorf("append event: count entries: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO o2sim (entry, mc_event_header) VALUES (?, ?)`,
		entry, string(headerJSON),
	); err != nil {
		return 0, fmt.Errorf("append event: insert header: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks
		(entry, track, pdg, do_tracking, px, py, pz, e, vx, vy, vz, tof,
		 mother1, mother2, daughter1, daughter2, weight, status, process, generator_process)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("append event: prepare tracks: %w", err)
	}
	defer stmt.Close()

	for i, t := range tracks {
		if _, err := stmt.ExecContext(ctx,
			entry, i, t.PDG, boolToInt(t.DoTracking),
			t.Px, t.Py, t.Pz, t.E,
			t.Vx, t.Vy, t.Vz, t.Tof,
			t.Mother1, t.Mother2, t.Daughter1, t.Daughter2,
			t.Weight, t.Status, int(t.Process), int(t.GeneratorProcess),
		); err != nil {
			return 0, fmt.Errorf("append event: insert track %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("append event: commit: %w", err)
	}
	return entry, nil
}

// RecordRun inserts a run record. Recording the same run ID twice is an error.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	if s.readOnly {
		return ErrReadOnly
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, generator_id, description, vertex_mode, seed, embedding_file, first_entry)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.GeneratorID,
		r.Description,
		r.VertexMode,
		int64(r.Seed),
		r.EmbeddingFile,
		r.FirstEntry,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
