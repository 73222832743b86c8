package generator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/generr"
	"github.com/roach88/primgen/internal/mcgen"
	"github.com/roach88/primgen/internal/primary"
)

// Header info key under which the box gun records the background event it
// was embedded into.
const PropertyBoxBackgroundEventID = "box_background_event_id"

// BoxConfig configures a particle gun that fires a fixed species uniformly
// in momentum, pseudorapidity and azimuth.
type BoxConfig struct {
	PDG          int
	Multiplicity int
	PMin, PMax   float64 // GeV/c
	EtaMin       float64
	EtaMax       float64
	PhiMin       float64 // degrees
	PhiMax       float64 // degrees
}

func (c BoxConfig) validate() error {
	var errs []error
	if c.Multiplicity <= 0 {
		errs = append(errs, fmt.Errorf("multiplicity must be positive, got %d", c.Multiplicity))
	}
	if c.PMin < 0 || c.PMax < c.PMin {
		errs = append(errs, fmt.Errorf("invalid momentum range [%g, %g]", c.PMin, c.PMax))
	}
	if c.EtaMax < c.EtaMin {
		errs = append(errs, fmt.Errorf("invalid eta range [%g, %g]", c.EtaMin, c.EtaMax))
	}
	if c.PhiMax < c.PhiMin {
		errs = append(errs, fmt.Errorf("invalid phi range [%g, %g]", c.PhiMin, c.PhiMax))
	}
	return errors.Join(errs...)
}

// BoxGenerator is a particle gun. It is embedding aware: when producing on
// top of a background event it stamps that event's ID on the signal header.
type BoxGenerator struct {
	cfg BoxConfig
	rng *rand.Rand

	bkgEventID int64
	embedded   bool
}

// NewBoxGenerator creates a particle gun drawing from rng.
func NewBoxGenerator(cfg BoxConfig, rng *rand.Rand) *BoxGenerator {
	return &BoxGenerator{cfg: cfg, rng: rng}
}

// Name implements Generator.
func (b *BoxGenerator) Name() string {
	return fmt.Sprintf("box(pdg=%d, n=%d)", b.cfg.PDG, b.cfg.Multiplicity)
}

// Init implements Generator.
func (b *BoxGenerator) Init(context.Context) error {
	if err := b.cfg.validate(); err != nil {
		return generr.InvalidConfig("invalid box generator parameters", err)
	}
	return nil
}

// NotifyEmbedding implements EmbeddingAware.
func (b *BoxGenerator) NotifyEmbedding(bkg *event.Header) {
	b.bkgEventID = bkg.EventID
	b.embedded = true
}

// Generate implements Generator.
func (b *BoxGenerator) Generate(ctx context.Context, sink TrackSink) error {
	for i := 0; i < b.cfg.Multiplicity; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := b.uniform(b.cfg.PMin, b.cfg.PMax)
		eta := b.uniform(b.cfg.EtaMin, b.cfg.EtaMax)
		phi := b.uniform(b.cfg.PhiMin, b.cfg.PhiMax) * math.Pi / 180

		theta := 2 * math.Atan(math.Exp(-eta))
		pt := p * math.Sin(theta)

		err := sink.AddTrack(primary.Particle{
			PDG:          b.cfg.PDG,
			Px:           pt * math.Cos(phi),
			Py:           pt * math.Sin(phi),
			Pz:           p * math.Cos(theta),
			E:            -1,
			Mother1:      primary.NoIndex,
			Mother2:      primary.NoIndex,
			Daughter1:    primary.NoIndex,
			Daughter2:    primary.NoIndex,
			WantTracking: true,
			Weight:       1,
			Process:      mcgen.ProcessPrimary,
			Status:       mcgen.NewStatus(1, 0).Full(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdateHeader implements HeaderUpdater. The embedding state is consumed.
func (b *BoxGenerator) UpdateHeader(h *event.Header) {
	if !b.embedded {
		return
	}
	h.PutInt(PropertyBoxBackgroundEventID, b.bkgEventID)
	b.embedded = false
}

func (b *BoxGenerator) uniform(lo, hi float64) float64 {
	if hi == lo {
		return lo
	}
	return lo + (hi-lo)*b.rng.Float64()
}
