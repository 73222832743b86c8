// Package config loads and validates primgen run configurations.
//
// A configuration is written in CUE (.cue) or YAML (.yaml, .yml). Either
// form is unified with the embedded #Config schema, which fills defaults and
// rejects unknown fields, and then decoded into Config. Environment
// variables override the run section (see ApplyEnv).
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/primgen/internal/generator"
	"github.com/roach88/primgen/internal/generr"
	"github.com/roach88/primgen/internal/vertex"
)

//go:embed schema.cue
var schemaSource string

// Config is a complete run configuration.
type Config struct {
	Generator GeneratorConfig `json:"generator"`
	Vertex    VertexConfig    `json:"vertex"`
	Box       *BoxConfig      `json:"box,omitempty"`
	Run       RunConfig       `json:"run"`

	// Particles is an optional particle-table file replacing the built-in one.
	Particles string `json:"particles,omitempty"`
}

// GeneratorConfig is the generator identity stamped on every event.
type GeneratorConfig struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	DoTracking  bool   `json:"do_tracking"`
}

// VertexConfig selects the vertex policy. Position, Width and slopes are
// the interaction-diamond parameters.
type VertexConfig struct {
	Mode       string            `json:"mode"`
	Position   []float64         `json:"position"`
	Width      []float64         `json:"width"`
	SlopeX     float64           `json:"slope_x"`
	SlopeY     float64           `json:"slope_y"`
	MeanVertex *MeanVertexConfig `json:"mean_vertex,omitempty"`
}

// MeanVertexConfig is a calibrated mean-vertex object.
type MeanVertexConfig struct {
	Position []float64 `json:"position"`
	Width    []float64 `json:"width"`
	SlopeX   float64   `json:"slope_x"`
	SlopeY   float64   `json:"slope_y"`
}

// BoxConfig configures the built-in particle gun.
type BoxConfig struct {
	PDG          int     `json:"pdg"`
	Multiplicity int     `json:"multiplicity"`
	PMin         float64 `json:"p_min"`
	PMax         float64 `json:"p_max"`
	EtaMin       float64 `json:"eta_min"`
	EtaMax       float64 `json:"eta_max"`
	PhiMin       float64 `json:"phi_min"`
	PhiMax       float64 `json:"phi_max"`
}

// RunConfig holds the per-run settings that may come from the environment.
type RunConfig struct {
	Events int    `json:"events" env:"PRIMGEN_EVENTS"`
	Seed   uint64 `json:"seed" env:"PRIMGEN_SEED"`
	Embed  string `json:"embed,omitempty" env:"PRIMGEN_EMBED"`
}

// Load reads, validates and decodes the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	ctx := cuecontext.New()
	var v cue.Value
	switch filepath.Ext(path) {
	case ".cue":
		v = ctx.CompileBytes(data, cue.Filename(path))
	case ".yaml", ".yml":
		v, err = encodeYAML(ctx, data)
		if err != nil {
			return nil, generr.InvalidConfig(fmt.Sprintf("failed to parse %s", path), err)
		}
	default:
		return nil, generr.InvalidConfig(fmt.Sprintf("unsupported config format %q", filepath.Ext(path)), nil)
	}

	return decode(ctx, v, path)
}

// Default returns the configuration an empty file decodes to.
func Default() *Config {
	ctx := cuecontext.New()
	cfg, err := decode(ctx, ctx.CompileString("{}"), "default")
	if err != nil {
		// The schema is embedded; an empty config must always decode.
		panic(err)
	}
	return cfg
}

func encodeYAML(ctx *cue.Context, data []byte) (cue.Value, error) {
	var m map[string]any
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return cue.Value{}, err
	}
	if m == nil {
		m = map[string]any{}
	}
	v := ctx.Encode(m)
	return v, v.Err()
}

func decode(ctx *cue.Context, v cue.Value, source string) (*Config, error) {
	if err := v.Err(); err != nil {
		return nil, generr.InvalidConfig(fmt.Sprintf("failed to compile %s", source), formatCUEError(err))
	}

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return nil, generr.InvalidConfig(fmt.Sprintf("invalid config %s", source), formatCUEError(err))
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, generr.InvalidConfig(fmt.Sprintf("failed to decode %s", source), formatCUEError(err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// formatCUEError keeps the first error with its source position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if pos := cueerrors.Positions(first); len(pos) > 0 && pos[0].IsValid() {
		return fmt.Errorf("%s: %s", pos[0], first.Error())
	}
	return first
}

// ApplyEnv overrides the run section from PRIMGEN_* environment variables.
// Unset variables leave the current values in place.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(&cfg.Run); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks invariants the schema cannot express, and those of
// configurations built in code.
func (c *Config) Validate() error {
	var errs []error
	mode, err := vertex.ParseMode(c.Vertex.Mode)
	if err != nil {
		errs = append(errs, err)
	}
	if err := checkVec3("vertex.position", c.Vertex.Position, false); err != nil {
		errs = append(errs, err)
	}
	if err := checkVec3("vertex.width", c.Vertex.Width, true); err != nil {
		errs = append(errs, err)
	}
	if mv := c.Vertex.MeanVertex; mv != nil {
		if err := checkVec3("vertex.mean_vertex.position", mv.Position, false); err != nil {
			errs = append(errs, err)
		}
		if err := checkVec3("vertex.mean_vertex.width", mv.Width, true); err != nil {
			errs = append(errs, err)
		}
	} else if err == nil && mode == vertex.ModeCalibrated {
		errs = append(errs, errors.New("vertex mode calibrated requires vertex.mean_vertex"))
	}
	if c.Run.Events < 0 {
		errs = append(errs, fmt.Errorf("run.events must not be negative, got %d", c.Run.Events))
	}
	if len(errs) > 0 {
		return generr.InvalidConfig("invalid configuration", errors.Join(errs...))
	}
	return nil
}

func checkVec3(name string, v []float64, nonNegative bool) error {
	if len(v) != 3 {
		return fmt.Errorf("%s must have 3 components, got %d", name, len(v))
	}
	if nonNegative {
		for _, x := range v {
			if x < 0 {
				return fmt.Errorf("%s must not be negative, got %v", name, v)
			}
		}
	}
	return nil
}

func vec3(v []float64) [3]float64 {
	return [3]float64{v[0], v[1], v[2]}
}

// VertexConfig converts the vertex section. Call Validate first.
func (c *Config) VertexConfig() (vertex.Config, error) {
	mode, err := vertex.ParseMode(c.Vertex.Mode)
	if err != nil {
		return vertex.Config{}, generr.InvalidConfig("invalid vertex mode", err)
	}
	vc := vertex.Config{
		Mode: mode,
		Diamond: vertex.Diamond{
			Position: vec3(c.Vertex.Position),
			Width:    vec3(c.Vertex.Width),
			SlopeX:   c.Vertex.SlopeX,
			SlopeY:   c.Vertex.SlopeY,
		},
	}
	if mv := c.Vertex.MeanVertex; mv != nil {
		vc.MeanVertex = &vertex.MeanVertex{
			Position: vec3(mv.Position),
			Width:    vec3(mv.Width),
			SlopeX:   mv.SlopeX,
			SlopeY:   mv.SlopeY,
		}
	}
	return vc, nil
}

// GeneratorConfig converts the generator and vertex sections.
func (c *Config) GeneratorConfig() (generator.Config, error) {
	vc, err := c.VertexConfig()
	if err != nil {
		return generator.Config{}, err
	}
	return generator.Config{
		ID:          c.Generator.ID,
		Description: c.Generator.Description,
		Vertex:      vc,
	}, nil
}

// BoxConfig returns the particle-gun settings, if configured.
func (c *Config) BoxConfig() (generator.BoxConfig, bool) {
	if c.Box == nil {
		return generator.BoxConfig{}, false
	}
	return generator.BoxConfig{
		PDG:          c.Box.PDG,
		Multiplicity: c.Box.Multiplicity,
		PMin:         c.Box.PMin,
		PMax:         c.Box.PMax,
		EtaMin:       c.Box.EtaMin,
		EtaMax:       c.Box.EtaMax,
		PhiMin:       c.Box.PhiMin,
		PhiMax:       c.Box.PhiMax,
	}, true
}
