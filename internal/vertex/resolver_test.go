package vertex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/generr"
	"github.com/roach88/primgen/internal/testutil"
)

func newTestResolver(t *testing.T, cfg Config) *Resolver {
	t.Helper()
	r, err := NewResolver(cfg, testutil.NewRand(1), WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)
	return r
}

func TestResolve_NoVertexIsOrigin(t *testing.T) {
	r := newTestResolver(t, Config{Mode: ModeNoVertex})

	for i := 0; i < 10; i++ {
		v, err := r.Resolve()
		require.NoError(t, err)
		assert.Equal(t, event.Vertex{}, v, "event %d", i)
	}
}

func TestResolve_ZeroSpreadDiamondIsDeterministic(t *testing.T) {
	r := newTestResolver(t, Config{
		Mode:    ModeDiamond,
		Diamond: Diamond{SlopeX: 0.1, SlopeY: -0.1},
	})

	for i := 0; i < 10; i++ {
		v, err := r.Resolve()
		require.NoError(t, err)
		assert.Equal(t, event.Vertex{}, v)
	}
}

func TestResolve_DiamondSpread(t *testing.T) {
	r := newTestResolver(t, Config{
		Mode: ModeDiamond,
		Diamond: Diamond{
			Position: [3]float64{0.1, 0.2, 1.0},
			Width:    [3]float64{0.01, 0.01, 5},
		},
	})

	const n = 20000
	var sumZ, sumX float64
	for i := 0; i < n; i++ {
		v, err := r.Resolve()
		require.NoError(t, err)
		sumZ += v.Z
		sumX += v.X
	}
	assert.InDelta(t, 1.0, sumZ/n, 0.15)
	assert.InDelta(t, 0.1, sumX/n, 0.001)
}

func TestResolve_ExternalVertexUsedOnce(t *testing.T) {
	tests := []struct {
		cfg   Config
		after event.Vertex
	}{
		{cfg: Config{Mode: ModeNoVertex}},
		{cfg: Config{Mode: ModeDiamond}},
		{
			cfg:   Config{Mode: ModeCalibrated, MeanVertex: &MeanVertex{Position: [3]float64{0.05, -0.03, 0.4}}},
			after: event.Vertex{X: 0.05, Y: -0.03, Z: 0.4},
		},
		{cfg: Config{Mode: ModeExternal}},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.Mode.String(), func(t *testing.T) {
			r := newTestResolver(t, tt.cfg)

			r.SetExternalVertexForNextEvent(1, 2, 3)
			assert.True(t, r.HasExternalVertex())

			v, err := r.Resolve()
			require.NoError(t, err)
			assert.Equal(t, event.Vertex{X: 1, Y: 2, Z: 3}, v)
			assert.False(t, r.HasExternalVertex())

			v, err = r.Resolve()
			if tt.cfg.Mode == ModeExternal {
				assert.True(t, generr.HasCode(err, generr.CodeMissingExternalVertex))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.after, v)
		})
	}
}

func TestResolve_ExternalVertexLastWins(t *testing.T) {
	r := newTestResolver(t, Config{Mode: ModeNoVertex})

	r.SetExternalVertexForNextEvent(1, 1, 1)
	r.SetExternalVertexForNextEvent(2, 2, 2)

	v, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, event.Vertex{X: 2, Y: 2, Z: 2}, v)
}

func TestResolve_ExternalModeWithoutVertexIsFatal(t *testing.T) {
	r := newTestResolver(t, Config{Mode: ModeExternal})

	_, err := r.Resolve()
	require.Error(t, err)
	assert.True(t, generr.IsFatal(err))
}

func TestNewResolver_CalibratedRequiresObject(t *testing.T) {
	_, err := NewResolver(Config{Mode: ModeCalibrated}, testutil.NewRand(1))
	require.Error(t, err)
	assert.True(t, generr.IsFatal(err))
	assert.True(t, generr.HasCode(err, generr.CodeMissingMeanVertex))
}

func TestNewResolver_Calibrated(t *testing.T) {
	mv := &MeanVertex{Position: [3]float64{0.05, -0.03, 0.4}}
	r := newTestResolver(t, Config{Mode: ModeCalibrated, MeanVertex: mv})
	assert.Equal(t, ModeCalibrated, r.Mode())

	v, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, event.Vertex{X: 0.05, Y: -0.03, Z: 0.4}, v)
}

func TestNewResolver_RejectsNegativeWidth(t *testing.T) {
	_, err := NewResolver(Config{
		Mode:    ModeDiamond,
		Diamond: Diamond{Width: [3]float64{0, -1, 0}},
	}, testutil.NewRand(1))
	assert.True(t, generr.HasCode(err, generr.CodeInvalidConfig))
}

func TestSetMode(t *testing.T) {
	r := newTestResolver(t, Config{
		Mode:    ModeDiamond,
		Diamond: Diamond{Position: [3]float64{0, 0, 2}},
	})

	err := r.SetMode(ModeCalibrated, nil)
	require.Error(t, err)
	assert.True(t, generr.IsFatal(err))
	assert.Equal(t, ModeDiamond, r.Mode(), "failed SetMode keeps previous source")

	require.NoError(t, r.SetMode(ModeCalibrated, &MeanVertex{Position: [3]float64{0, 0, 9}}))
	v, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 9.0, v.Z)

	require.NoError(t, r.SetMode(ModeDiamond, nil))
	v, err = r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 2.0, v.Z, "diamond parameters survive a mode switch")
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeNoVertex, ModeDiamond, ModeCalibrated, ModeExternal} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := ParseMode("ccdb")
	assert.Error(t, err)
	assert.Equal(t, "mode(9)", Mode(9).String())
}

func TestMeanVertex_SlopeFollowsZ(t *testing.T) {
	m := MeanVertex{
		Position: [3]float64{1, 2, 10},
		SlopeX:   0.5,
		SlopeY:   -0.5,
	}
	assert.Equal(t, 1.0, m.XAtZ(10))
	assert.Equal(t, 2.0, m.XAtZ(12)-m.XAtZ(10)+1.0)
	assert.Equal(t, 1.0, m.YAtZ(12))
}
