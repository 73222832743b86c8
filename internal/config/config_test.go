package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/primgen/internal/generr"
	"github.com/roach88/primgen/internal/vertex"
)

const diamondCUE = `
generator: {
	id:          3
	description: "pythia8 pp"
}
vertex: {
	mode:     "diamond"
	position: [0, 0, 0.5]
	width:    [0.001, 0.001, 6]
}
box: {
	pdg:          211
	multiplicity: 10
	p_max:        5
	eta_min:      -0.8
	eta_max:      0.8
}
run: {
	events: 100
	seed:   42
}
`

const diamondYAML = `
generator:
  id: 3
  description: pythia8 pp
vertex:
  mode: diamond
  position: [0, 0, 0.5]
  width: [0.001, 0.001, 6]
box:
  pdg: 211
  multiplicity: 10
  p_max: 5
  eta_min: -0.8
  eta_max: 0.8
run:
  events: 100
  seed: 42
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func wantDiamond() *Config {
	return &Config{
		Generator: GeneratorConfig{ID: 3, Description: "pythia8 pp", DoTracking: true},
		Vertex: VertexConfig{
			Mode:     "diamond",
			Position: []float64{0, 0, 0.5},
			Width:    []float64{0.001, 0.001, 6},
		},
		Box: &BoxConfig{
			PDG: 211, Multiplicity: 10,
			PMin: 0, PMax: 5,
			EtaMin: -0.8, EtaMax: 0.8,
			PhiMin: 0, PhiMax: 360,
		},
		Run: RunConfig{Events: 100, Seed: 42},
	}
}

func TestLoad_CUE(t *testing.T) {
	cfg, err := Load(writeConfig(t, "run.cue", diamondCUE))
	require.NoError(t, err)
	assert.Equal(t, wantDiamond(), cfg)
}

func TestLoad_YAMLMatchesCUE(t *testing.T) {
	fromCUE, err := Load(writeConfig(t, "run.cue", diamondCUE))
	require.NoError(t, err)

	for _, name := range []string{"run.yaml", "run.yml"} {
		fromYAML, err := Load(writeConfig(t, name, diamondYAML))
		require.NoError(t, err, name)
		assert.Equal(t, fromCUE, fromYAML, name)
	}
}

func TestLoad_EmptyYAMLIsDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "diamond", cfg.Vertex.Mode)
	assert.Equal(t, []float64{0, 0, 0}, cfg.Vertex.Position)
	assert.Equal(t, []float64{0, 0, 0}, cfg.Vertex.Width)
	assert.True(t, cfg.Generator.DoTracking)
	assert.Equal(t, 1, cfg.Run.Events)
	assert.Nil(t, cfg.Box)
	assert.Nil(t, cfg.Vertex.MeanVertex)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown field", "bad.yaml", "vertex:\n  mode: diamond\n  spread: 1\n"},
		{"unknown mode", "bad.yaml", "vertex:\n  mode: ccdb\n"},
		{"negative width", "bad.cue", "vertex: width: [0, -1, 0]\n"},
		{"short position", "bad.cue", "vertex: position: [0, 0]\n"},
		{"negative events", "bad.yaml", "run:\n  events: -1\n"},
		{"calibrated without object", "bad.yaml", "vertex:\n  mode: calibrated\n"},
		{"zero multiplicity", "bad.yaml", "box:\n  pdg: 22\n  multiplicity: 0\n"},
		{"cue syntax", "bad.cue", "vertex: {\n"},
		{"yaml syntax", "bad.yaml", "vertex: [\n"},
		{"unsupported format", "run.toml", "x = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			require.Error(t, err)
			assert.True(t, generr.HasCode(err, generr.CodeInvalidConfig), "got %v", err)
			assert.True(t, generr.IsFatal(err))
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_Calibrated(t *testing.T) {
	cfg, err := Load(writeConfig(t, "cal.yaml", `
vertex:
  mode: calibrated
  mean_vertex:
    position: [0.05, -0.02, 0.3]
    width: [0.002, 0.002, 5]
    slope_x: 0.0001
`))
	require.NoError(t, err)

	vc, err := cfg.VertexConfig()
	require.NoError(t, err)
	assert.Equal(t, vertex.ModeCalibrated, vc.Mode)
	require.NotNil(t, vc.MeanVertex)
	assert.Equal(t, [3]float64{0.05, -0.02, 0.3}, vc.MeanVertex.Position)
	assert.Equal(t, [3]float64{0.002, 0.002, 5}, vc.MeanVertex.Width)
	assert.Equal(t, 0.0001, vc.MeanVertex.SlopeX)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PRIMGEN_SEED", "1234")
	t.Setenv("PRIMGEN_EMBED", "/data/bkg.db")

	cfg := wantDiamond()
	require.NoError(t, ApplyEnv(cfg))

	assert.Equal(t, uint64(1234), cfg.Run.Seed)
	assert.Equal(t, "/data/bkg.db", cfg.Run.Embed)
	assert.Equal(t, 100, cfg.Run.Events, "unset variables keep the file value")
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Setenv("PRIMGEN_EVENTS", "many")

	err := ApplyEnv(Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestConversions(t *testing.T) {
	cfg := wantDiamond()
	require.NoError(t, cfg.Validate())

	gc, err := cfg.GeneratorConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, gc.ID)
	assert.Equal(t, "pythia8 pp", gc.Description)
	assert.Equal(t, vertex.ModeDiamond, gc.Vertex.Mode)
	assert.Equal(t, [3]float64{0, 0, 0.5}, gc.Vertex.Diamond.Position)
	assert.Equal(t, [3]float64{0.001, 0.001, 6}, gc.Vertex.Diamond.Width)
	assert.Nil(t, gc.Vertex.MeanVertex)

	box, ok := cfg.BoxConfig()
	require.True(t, ok)
	assert.Equal(t, 211, box.PDG)
	assert.Equal(t, 360.0, box.PhiMax)

	_, ok = Default().BoxConfig()
	assert.False(t, ok)
}
