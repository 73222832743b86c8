package mcgen

import "fmt"

// Process tags the physics process that produced a particle.
// Values follow the transport engine's numbering.
type Process int

const (
	ProcessPrimary Process = iota
	ProcessMultipleScattering
	ProcessCoulombScattering
	ProcessEnergyLoss
	ProcessMagneticField
	ProcessDecay
)

func (p Process) String() string {
	switch p {
	case ProcessPrimary:
		return "primary"
	case ProcessMultipleScattering:
		return "multiple-scattering"
	case ProcessCoulombScattering:
		return "coulomb-scattering"
	case ProcessEnergyLoss:
		return "energy-loss"
	case ProcessMagneticField:
		return "magnetic-field"
	case ProcessDecay:
		return "decay"
	default:
		return fmt.Sprintf("process(%d)", int(p))
	}
}

// Header info keys stamped by the primary generator.
const (
	PropertyGeneratorID          = "generator_id"
	PropertyGeneratorDescription = "generator_description"
)
