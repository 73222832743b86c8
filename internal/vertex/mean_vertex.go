package vertex

import (
	"fmt"
	"math/rand/v2"

	"github.com/roach88/primgen/internal/event"
)

// MeanVertex describes the interaction-region distribution: a mean
// position, per-axis Gaussian widths and the x/y slopes of the luminous
// region along z.
type MeanVertex struct {
	Position [3]float64
	Width    [3]float64
	SlopeX   float64
	SlopeY   float64
}

// XAtZ returns the mean x position at longitudinal position z.
func (m MeanVertex) XAtZ(z float64) float64 {
	return m.Position[0] + m.SlopeX*(z-m.Position[2])
}

// YAtZ returns the mean y position at longitudinal position z.
func (m MeanVertex) YAtZ(z float64) float64 {
	return m.Position[1] + m.SlopeY*(z-m.Position[2])
}

// Sample draws a vertex: z first, then x and y around the slope-corrected
// mean at that z. Axes with zero width return their mean exactly.
func (m MeanVertex) Sample(rng *rand.Rand) event.Vertex {
	z := gaus(rng, m.Position[2], m.Width[2])
	x := gaus(rng, m.XAtZ(z), m.Width[0])
	y := gaus(rng, m.YAtZ(z), m.Width[1])
	return event.Vertex{X: x, Y: y, Z: z}
}

func (m MeanVertex) validate() error {
	for i, w := range m.Width {
		if w < 0 {
			return fmt.Errorf("negative width on axis %d: %g", i, w)
		}
	}
	return nil
}

func (m MeanVertex) String() string {
	return fmt.Sprintf("pos=(%g, %g, %g) width=(%g, %g, %g) slope=(%g, %g)",
		m.Position[0], m.Position[1], m.Position[2],
		m.Width[0], m.Width[1], m.Width[2],
		m.SlopeX, m.SlopeY)
}

func gaus(rng *rand.Rand, mean, sigma float64) float64 {
	if sigma == 0 {
		return mean
	}
	return mean + sigma*rng.NormFloat64()
}

// Diamond holds the fixed interaction-diamond parameters.
type Diamond struct {
	Position [3]float64
	Width    [3]float64
	SlopeX   float64
	SlopeY   float64
}

// MeanVertex converts the diamond parameters into a model.
func (d Diamond) MeanVertex() MeanVertex {
	return MeanVertex{
		Position: d.Position,
		Width:    d.Width,
		SlopeX:   d.SlopeX,
		SlopeY:   d.SlopeY,
	}
}
