// Package primary turns particles produced by generation delegates into
// tracks on the transport stack.
//
// The Registrar validates each particle, moves it to the event vertex,
// resolves bookkeeping indices against tracks already in the stack and
// completes missing kinematics before pushing it. One Registrar serves one
// generator; BeginEvent must be called before the first particle of every
// event.
package primary

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/generr"
	"github.com/roach88/primgen/internal/mcgen"
	"github.com/roach88/primgen/internal/pdg"
	"github.com/roach88/primgen/internal/stack"
)

// Registrar builds and submits primary tracks. Not safe for concurrent use.
type Registrar struct {
	db         pdg.DB
	rng        *rand.Rand
	logger     *slog.Logger
	doTracking bool

	vertex  event.Vertex
	offset  int
	nTracks int
}

// Option configures a Registrar.
type Option func(*Registrar)

// WithLogger sets the logger for downgrade and conversion warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registrar) {
		r.logger = l
	}
}

// WithTracking sets the global tracking switch. When off, no particle is
// tracked regardless of its own request. Default on.
func WithTracking(on bool) Option {
	return func(r *Registrar) {
		r.doTracking = on
	}
}

// NewRegistrar creates a registrar that looks species up in db and draws
// neutral-kaon conversions from rng.
func NewRegistrar(db pdg.DB, rng *rand.Rand, opts ...Option) *Registrar {
	r := &Registrar{
		db:         db,
		rng:        rng,
		logger:     slog.Default(),
		doTracking: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BeginEvent sets the interaction vertex and index offset for the next
// event and resets the track counter.
func (r *Registrar) BeginEvent(v event.Vertex, offset int) {
	r.vertex = v
	r.offset = offset
	r.nTracks = 0
}

// Vertex returns the interaction vertex of the current event.
func (r *Registrar) Vertex() event.Vertex {
	return r.vertex
}

// Offset returns the index offset of the current event.
func (r *Registrar) Offset() int {
	return r.offset
}

// NTracks returns the number of tracks submitted since BeginEvent.
func (r *Registrar) NTracks() int {
	return r.nTracks
}

// Build validates p and converts it into the track that would be pushed.
// It does not touch any stack. A primary particle without an encoded
// status is a fatal error.
func (r *Registrar) Build(p Particle) (stack.Track, error) {
	if p.Process == mcgen.ProcessPrimary && !mcgen.IsEncoded(p.Status) {
		return stack.Track{}, generr.BadStatusEncoding(p.Status, p.PDG)
	}

	vx := p.Vx + r.vertex.X
	vy := p.Vy + r.vertex.Y
	vz := p.Vz + r.vertex.Z

	species, known := r.db.Lookup(p.PDG)
	wantTracking := p.WantTracking
	if wantTracking && !known {
		r.logger.Warn("particle to be tracked is not defined in particle table", "pdg", p.PDG)
		wantTracking = false
	}
	doTracking := r.doTracking && wantTracking

	code := p.PDG
	if doTracking && (code == pdg.K0 || code == -pdg.K0) {
		r.logger.Warn("K0/antiK0 requested for tracking: converting into K0s/K0L", "pdg", code)
		if r.rng.Float64() < 0.5 {
			code = pdg.K0Short
		} else {
			code = pdg.K0Long
		}
	}

	e := p.E
	if e < 0 {
		// Mass of the species as generated, before any conversion.
		var mass float64
		if known {
			mass = species.Mass
		}
		e = math.Sqrt(mass*mass + p.Px*p.Px + p.Py*p.Py + p.Pz*p.Pz)
	}

	return stack.Track{
		DoTracking:       doTracking,
		PDG:              code,
		Px:               p.Px,
		Py:               p.Py,
		Pz:               p.Pz,
		E:                e,
		Vx:               vx,
		Vy:               vy,
		Vz:               vz,
		Tof:              p.Tof,
		Mother1:          r.shift(p.Mother1),
		Mother2:          r.shift(p.Mother2),
		Daughter1:        r.shift(p.Daughter1),
		Daughter2:        r.shift(p.Daughter2),
		Weight:           p.Weight,
		Status:           p.Status,
		Process:          mcgen.ProcessPrimary,
		GeneratorProcess: p.Process,
	}, nil
}

func (r *Registrar) shift(idx int) int {
	if idx == NoIndex {
		return NoIndex
	}
	return idx + r.offset
}

// AddTrack builds p and pushes it onto st. Stacks that do not accept
// primaries are a fatal configuration error.
func (r *Registrar) AddTrack(st stack.Stack, p Particle) error {
	t, err := r.Build(p)
	if err != nil {
		return err
	}
	sink, ok := st.Primaries()
	if !ok {
		return generr.UnsupportedStack(fmt.Sprintf("%T", st))
	}
	sink.PushTrack(t)
	r.nTracks++
	return nil
}

// AddSimpleTrack is AddTrack for the single-parent form.
func (r *Registrar) AddSimpleTrack(st stack.Stack, p SimpleParticle) error {
	return r.AddTrack(st, p.Particle())
}
