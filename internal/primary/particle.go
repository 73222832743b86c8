package primary

import (
	"github.com/roach88/primgen/internal/mcgen"
)

// NoIndex marks an absent mother or daughter. It is never offset.
const NoIndex = -1

// Particle is a primary particle as produced by a generation delegate.
//
// Vertex coordinates are relative to the event's interaction vertex.
// A negative E asks the registrar to derive the energy from the mass.
type Particle struct {
	PDG int

	Px, Py, Pz float64
	E          float64

	Vx, Vy, Vz float64
	Tof        float64

	Mother1, Mother2     int
	Daughter1, Daughter2 int

	WantTracking bool
	Weight       float64
	Process      mcgen.Process

	// Status is a packed mcgen.Status. Primary-production particles must
	// carry an encoded value.
	Status int32
}

// SimpleParticle is the single-parent form used by delegates that do not
// track daughters or generator status.
type SimpleParticle struct {
	PDG int

	Px, Py, Pz float64
	E          float64

	Vx, Vy, Vz float64
	Tof        float64

	Parent       int
	WantTracking bool
	Weight       float64
	Process      mcgen.Process
}

// Particle expands s into the full form: no second mother, no daughters,
// and an encoded status with both sub-fields zero.
func (s SimpleParticle) Particle() Particle {
	return Particle{
		PDG:          s.PDG,
		Px:           s.Px,
		Py:           s.Py,
		Pz:           s.Pz,
		E:            s.E,
		Vx:           s.Vx,
		Vy:           s.Vy,
		Vz:           s.Vz,
		Tof:          s.Tof,
		Mother1:      s.Parent,
		Mother2:      NoIndex,
		Daughter1:    NoIndex,
		Daughter2:    NoIndex,
		WantTracking: s.WantTracking,
		Weight:       s.Weight,
		Process:      s.Process,
		Status:       mcgen.DefaultStatus.Full(),
	}
}
