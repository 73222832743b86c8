package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/primgen/internal/config"
	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/generator"
	"github.com/roach88/primgen/internal/generr"
	"github.com/roach88/primgen/internal/pdg"
	"github.com/roach88/primgen/internal/stack"
	"github.com/roach88/primgen/internal/store"
	"github.com/roach88/primgen/internal/vertex"
)

// Harness drives one scenario against a primary generator.
type Harness struct {
	gen        *generator.PrimaryGenerator
	meanVertex *vertex.MeanVertex
	logger     *slog.Logger
}

// Run executes a scenario and returns the result.
//
// The scenario config and background store are written under dir, which
// the caller owns (t.TempDir() in tests).
//
// Execution flow:
// 1. Load the scenario config through the config loader
// 2. Build the generator, with the box delegate if configured
// 3. Write the background store and embed into it, if present
// 4. Execute flow steps, stopping at the first generation error
// 5. Evaluate assertions against the trace
//
// Generation errors are part of the trace. Run only returns an error when
// the scenario cannot be set up.
func Run(ctx context.Context, scenario *Scenario, dir string) (*Result, error) {
	cfg, err := loadConfig(scenario.Config, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	genCfg, err := cfg.GeneratorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	rng := rand.New(rand.NewPCG(cfg.Run.Seed, 0))
	gen, err := generator.New(genCfg, pdg.Default(), rng,
		generator.WithLogger(logger),
		generator.WithTracking(cfg.Generator.DoTracking),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	defer gen.Close()

	if box, ok := cfg.BoxConfig(); ok {
		gen.AddGenerator(generator.NewBoxGenerator(box, rng))
	}
	if len(scenario.Background) > 0 {
		path, err := writeBackground(ctx, filepath.Join(dir, "background.db"), scenario.Background)
		if err != nil {
			return nil, fmt.Errorf("failed to write background: %w", err)
		}
		if err := gen.EmbedInto(ctx, path); err != nil {
			return nil, fmt.Errorf("failed to embed: %w", err)
		}
	}
	if err := gen.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialise generator: %w", err)
	}

	h := &Harness{
		gen:        gen,
		meanVertex: genCfg.Vertex.MeanVertex,
		logger:     logger,
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeFlow runs the flow steps in order. A generation error is recorded
// and ends the flow.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	st := stack.NewMemoryStack()

	for i, step := range flow {
		switch {
		case step.External != nil:
			v := vec(step.External)
			h.gen.SetExternalVertexForNextEvent(v.X, v.Y, v.Z)
			result.add(TraceEvent{Type: TraceExternal, Vertex: &v})

		case step.Mode != "":
			mode, err := vertex.ParseMode(step.Mode)
			if err != nil {
				return fmt.Errorf("flow step %d: %w", i, err)
			}
			if err := h.gen.SetVertexMode(mode, h.meanVertex); err != nil {
				result.add(errorEvent(err))
				return nil
			}
			result.add(TraceEvent{Type: TraceMode, Mode: mode.String()})

		default:
			for range step.Generate {
				st.Reset()
				hdr := event.NewHeader()
				if err := h.gen.GenerateEvent(ctx, hdr, st); err != nil {
					h.logger.Info("generation stopped", "step", i, "error", err)
					result.add(errorEvent(err))
					return nil
				}
				result.add(TraceEvent{Type: TraceGenerate, Event: record(hdr, st)})
			}
		}
	}
	return nil
}

func record(h *event.Header, st *stack.MemoryStack) *EventRecord {
	rec := &EventRecord{
		EventID: h.EventID,
		Vertex:  h.Vertex(),
		NPrim:   h.NPrim,
		Tracks:  st.Len(),
		IntInfo: h.IntInfo,
	}
	if h.Embedded() {
		idx := h.EmbeddingEventIndex
		rec.EmbeddingIndex = &idx
	}
	return rec
}

func errorEvent(err error) TraceEvent {
	ev := TraceEvent{Type: TraceError, Message: err.Error()}
	var ge *generr.Error
	if errors.As(err, &ge) {
		ev.Code = string(ge.Code)
	}
	return ev
}

// loadConfig writes the scenario config to dir and loads it the way the
// command line does.
func loadConfig(m map[string]any, dir string) (*config.Config, error) {
	if len(m) == 0 {
		return config.Default(), nil
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, err
	}
	return config.Load(path)
}

// writeBackground writes a background store whose entry i has event ID i+1
// and the i-th vertex.
func writeBackground(ctx context.Context, path string, vertices [][]float64) (string, error) {
	s, err := store.Create(path)
	if err != nil {
		return "", err
	}
	defer s.Close()

	for i, v := range vertices {
		h := event.NewHeader()
		h.EventID = int64(i + 1)
		h.SetVertex(vec(v))
		if _, err := s.AppendEvent(ctx, h, nil); err != nil {
			return "", err
		}
	}
	return path, nil
}

func vec(v []float64) event.Vertex {
	return event.Vertex{X: v[0], Y: v[1], Z: v[2]}
}
