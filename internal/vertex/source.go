package vertex

import (
	"fmt"
	"math/rand/v2"

	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/generr"
)

// Mode selects where event vertices come from when no one-shot override is pending.
type Mode int

const (
	// ModeNoVertex places every event at the origin.
	ModeNoVertex Mode = iota
	// ModeDiamond samples the configured interaction diamond.
	ModeDiamond
	// ModeCalibrated samples an injected calibrated mean-vertex object.
	ModeCalibrated
	// ModeExternal expects every vertex to be set from outside, event by event.
	ModeExternal
)

var modeNames = map[Mode]string{
	ModeNoVertex:   "no-vertex",
	ModeDiamond:    "diamond",
	ModeCalibrated: "calibrated",
	ModeExternal:   "external",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode converts a configuration name into a Mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown vertex mode %q", s)
}

// Config selects and parameterises the vertex source.
type Config struct {
	Mode    Mode
	Diamond Diamond
	// MeanVertex is the calibrated object; required for ModeCalibrated.
	MeanVertex *MeanVertex
}

// Source is the per-mode vertex model. The set of implementations is
// closed; build one with NewSource.
type Source interface {
	Mode() Mode
	Sample(rng *rand.Rand) (event.Vertex, error)
	source()
}

type modelSource struct {
	mode  Mode
	model MeanVertex
}

func (s modelSource) Mode() Mode { return s.mode }

func (s modelSource) Sample(rng *rand.Rand) (event.Vertex, error) {
	return s.model.Sample(rng), nil
}

func (modelSource) source() {}

// Model returns the mean-vertex model backing the source.
func (s modelSource) Model() MeanVertex { return s.model }

type externalSource struct{}

func (externalSource) Mode() Mode { return ModeExternal }

func (externalSource) Sample(*rand.Rand) (event.Vertex, error) {
	return event.Vertex{}, generr.MissingExternalVertex()
}

func (externalSource) source() {}

// NewSource builds the source for cfg. Calibrated mode without a mean-vertex
// object is a fatal configuration error.
func NewSource(cfg Config) (Source, error) {
	switch cfg.Mode {
	case ModeNoVertex:
		return modelSource{mode: ModeNoVertex}, nil
	case ModeDiamond:
		m := cfg.Diamond.MeanVertex()
		if err := m.validate(); err != nil {
			return nil, generr.InvalidConfig("invalid diamond parameters", err)
		}
		return modelSource{mode: ModeDiamond, model: m}, nil
	case ModeCalibrated:
		if cfg.MeanVertex == nil {
			return nil, generr.MissingMeanVertex()
		}
		if err := cfg.MeanVertex.validate(); err != nil {
			return nil, generr.InvalidConfig("invalid mean-vertex object", err)
		}
		return modelSource{mode: ModeCalibrated, model: *cfg.MeanVertex}, nil
	case ModeExternal:
		return externalSource{}, nil
	default:
		return nil, generr.InvalidConfig(fmt.Sprintf("unsupported vertex mode %s", cfg.Mode), nil)
	}
}
