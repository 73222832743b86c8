// Package vertex decides where each simulated event happens.
//
// A Resolver combines two inputs with strict precedence:
//
//  1. a one-shot vertex set from outside for the next event, consumed on use;
//  2. the configured Source (no-vertex, diamond, calibrated, external).
//
// The resolved vertex is final. Callers must not smear it again.
package vertex

import (
	"log/slog"
	"math/rand/v2"

	"github.com/roach88/primgen/internal/event"
)

// Resolver resolves the interaction vertex once per event.
// Not safe for concurrent use.
type Resolver struct {
	source  Source
	diamond Diamond
	rng     *rand.Rand
	logger  *slog.Logger

	pending    event.Vertex
	hasPending bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for sampled-vertex records.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// NewResolver builds the source for cfg eagerly, so configuration errors
// surface before the first event.
func NewResolver(cfg Config, rng *rand.Rand, opts ...Option) (*Resolver, error) {
	src, err := NewSource(cfg)
	if err != nil {
		return nil, err
	}
	r := &Resolver{
		source:  src,
		diamond: cfg.Diamond,
		rng:     rng,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if src.Mode() == ModeCalibrated {
		r.logger.Info("mean vertex set", "vertex", cfg.MeanVertex.String())
	}
	return r, nil
}

// SetMode replaces the vertex source. On error the previous source stays in place.
func (r *Resolver) SetMode(mode Mode, mv *MeanVertex) error {
	src, err := NewSource(Config{Mode: mode, Diamond: r.diamond, MeanVertex: mv})
	if err != nil {
		return err
	}
	r.source = src
	if mode == ModeCalibrated {
		r.logger.Info("mean vertex set", "vertex", mv.String())
	}
	return nil
}

// Mode returns the configured source mode.
func (r *Resolver) Mode() Mode {
	return r.source.Mode()
}

// SetExternalVertexForNextEvent overrides the vertex of the next resolved
// event only. A second call before resolution replaces the first.
func (r *Resolver) SetExternalVertexForNextEvent(x, y, z float64) {
	r.pending = event.Vertex{X: x, Y: y, Z: z}
	r.hasPending = true
}

// HasExternalVertex reports whether an override is pending.
func (r *Resolver) HasExternalVertex() bool {
	return r.hasPending
}

// Resolve returns the vertex for the next event. A pending override wins
// and is cleared; otherwise the source is sampled.
func (r *Resolver) Resolve() (event.Vertex, error) {
	if r.hasPending {
		r.hasPending = false
		return r.pending, nil
	}
	v, err := r.source.Sample(r.rng)
	if err != nil {
		return event.Vertex{}, err
	}
	r.logger.Debug("sampled interaction vertex", "vertex", v.String(), "mode", r.source.Mode().String())
	return v, nil
}
