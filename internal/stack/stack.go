// Package stack defines the boundary between the primary generator and the
// transport stack that propagates admitted particles.
package stack

import (
	"github.com/roach88/primgen/internal/mcgen"
)

// Track is a particle record as submitted to the transport stack.
type Track struct {
	DoTracking bool `json:"do_tracking"`
	PDG        int  `json:"pdg"`

	Px float64 `json:"px"`
	Py float64 `json:"py"`
	Pz float64 `json:"pz"`
	E  float64 `json:"e"`

	Vx  float64 `json:"vx"`
	Vy  float64 `json:"vy"`
	Vz  float64 `json:"vz"`
	Tof float64 `json:"tof"`

	PolX float64 `json:"pol_x"`
	PolY float64 `json:"pol_y"`
	PolZ float64 `json:"pol_z"`

	Mother1   int `json:"mother1"`
	Mother2   int `json:"mother2"`
	Daughter1 int `json:"daughter1"`
	Daughter2 int `json:"daughter2"`

	Weight float64 `json:"weight"`
	Status int32   `json:"status"`

	// Process is the production process recorded by the stack; primaries
	// are always ProcessPrimary. GeneratorProcess is the tag the generator
	// supplied.
	Process          mcgen.Process `json:"process"`
	GeneratorProcess mcgen.Process `json:"generator_process"`
}

// PrimarySink accepts primary tracks.
type PrimarySink interface {
	// PushTrack appends t and returns its index in the stack.
	PushTrack(t Track) int
	// Len returns the number of tracks already in the stack.
	Len() int
}

// Stack is the transport stack handed to the generator for one event.
// Stacks able to receive primaries return their sink and true.
type Stack interface {
	Primaries() (PrimarySink, bool)
}

// MemoryStack is a Stack that keeps submitted tracks in memory.
// Not safe for concurrent use.
type MemoryStack struct {
	tracks []Track
}

// NewMemoryStack creates an empty stack.
func NewMemoryStack() *MemoryStack {
	return &MemoryStack{}
}

// Primaries implements Stack.
func (s *MemoryStack) Primaries() (PrimarySink, bool) {
	return s, true
}

// PushTrack implements PrimarySink.
func (s *MemoryStack) PushTrack(t Track) int {
	s.tracks = append(s.tracks, t)
	return len(s.tracks) - 1
}

// Len implements PrimarySink.
func (s *MemoryStack) Len() int {
	return len(s.tracks)
}

// Tracks returns a copy of the submitted tracks in submission order.
func (s *MemoryStack) Tracks() []Track {
	out := make([]Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// Reset empties the stack for the next event.
func (s *MemoryStack) Reset() {
	s.tracks = s.tracks[:0]
}
