// Package generator drives the production of primary events.
//
// A PrimaryGenerator owns the vertex policy, the optional background store
// used for embedding and the list of generation delegates. For each event
// it:
//
//  1. fixes the interaction vertex, from the background event at the
//     embedding cursor or from the vertex resolver;
//  2. notifies embedding-aware delegates of the background event;
//  3. runs every delegate, which submit particles through a TrackSink;
//  4. stamps the event header with vertex, primary count, embedding
//     provenance and generator identity;
//  5. advances the embedding cursor.
//
// A failing delegate aborts the event before step 4, and the cursor stays
// on the same background event.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/primgen/internal/embed"
	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/mcgen"
	"github.com/roach88/primgen/internal/pdg"
	"github.com/roach88/primgen/internal/primary"
	"github.com/roach88/primgen/internal/stack"
	"github.com/roach88/primgen/internal/vertex"
)

// TracerName is the instrumentation name of per-event spans.
const TracerName = "github.com/roach88/primgen/internal/generator"

// Config is the generator identity and vertex policy.
type Config struct {
	// ID and Description are stamped on every produced header.
	ID          int
	Description string
	Vertex      vertex.Config
}

// PrimaryGenerator produces primary events. Not safe for concurrent use;
// run one instance per goroutine.
type PrimaryGenerator struct {
	cfg       Config
	resolver  *vertex.Resolver
	registrar *primary.Registrar
	cursor    *embed.Cursor
	counter   *EventCounter

	generators     []Generator
	embeddingAware []EmbeddingAware
	headerUpdaters []HeaderUpdater

	logger     *slog.Logger
	tracer     trace.Tracer
	doTracking bool
}

// Option configures a PrimaryGenerator.
type Option func(*PrimaryGenerator)

// WithLogger sets the logger for the generator and its components.
func WithLogger(l *slog.Logger) Option {
	return func(g *PrimaryGenerator) {
		g.logger = l
	}
}

// WithTracer sets the tracer used for per-event spans.
// Default is the tracer of the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(g *PrimaryGenerator) {
		g.tracer = t
	}
}

// WithTracking sets the global tracking switch. Default on.
func WithTracking(on bool) Option {
	return func(g *PrimaryGenerator) {
		g.doTracking = on
	}
}

// WithEventCounter sets the source of event IDs, e.g. to share one
// counter between several generators.
func WithEventCounter(c *EventCounter) Option {
	return func(g *PrimaryGenerator) {
		g.counter = c
	}
}

// New creates a generator. Vertex configuration errors are returned here,
// before any event is produced.
func New(cfg Config, db pdg.DB, rng *rand.Rand, opts ...Option) (*PrimaryGenerator, error) {
	g := &PrimaryGenerator{
		cfg:        cfg,
		logger:     slog.Default(),
		doTracking: true,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.tracer == nil {
		g.tracer = otel.Tracer(TracerName)
	}
	if g.counter == nil {
		g.counter = NewEventCounter()
	}

	resolver, err := vertex.NewResolver(cfg.Vertex, rng, vertex.WithLogger(g.logger))
	if err != nil {
		return nil, err
	}
	g.resolver = resolver
	g.registrar = primary.NewRegistrar(db, rng,
		primary.WithLogger(g.logger),
		primary.WithTracking(g.doTracking),
	)
	g.cursor = embed.NewCursor(embed.WithLogger(g.logger))
	return g, nil
}

// AddGenerator appends a delegate. Delegates run in the order they were added.
func (g *PrimaryGenerator) AddGenerator(gen Generator) {
	g.generators = append(g.generators, gen)
	if a, ok := gen.(EmbeddingAware); ok {
		g.embeddingAware = append(g.embeddingAware, a)
	}
	if u, ok := gen.(HeaderUpdater); ok {
		g.headerUpdaters = append(g.headerUpdaters, u)
	}
}

// Init initialises every delegate.
func (g *PrimaryGenerator) Init(ctx context.Context) error {
	g.logger.Info("initialising primary generator",
		"generator_id", g.cfg.ID,
		"description", g.cfg.Description,
		"vertex_mode", g.resolver.Mode().String(),
		"delegates", len(g.generators),
	)
	if g.cursor.IsOpen() {
		g.logger.Info("embedding into", "path", g.cursor.Name(), "entries", g.cursor.Entries())
	}
	for _, gen := range g.generators {
		if err := gen.Init(ctx); err != nil {
			return fmt.Errorf("init generator %s: %w", gen.Name(), err)
		}
	}
	return nil
}

// EmbedInto opens the background store at path. Subsequent events take
// their vertex from the background events in cyclic order.
func (g *PrimaryGenerator) EmbedInto(ctx context.Context, path string) error {
	return g.cursor.Open(ctx, path)
}

// Embedding reports whether a background store is open.
func (g *PrimaryGenerator) Embedding() bool {
	return g.cursor.IsOpen()
}

// EmbeddingIndex returns the background entry the next event embeds into.
func (g *PrimaryGenerator) EmbeddingIndex() int64 {
	return g.cursor.Index()
}

// SetExternalVertexForNextEvent overrides the vertex of the next
// non-embedded event.
func (g *PrimaryGenerator) SetExternalVertexForNextEvent(x, y, z float64) {
	g.resolver.SetExternalVertexForNextEvent(x, y, z)
}

// SetVertexMode switches the vertex policy. mv is required for
// vertex.ModeCalibrated and ignored otherwise.
func (g *PrimaryGenerator) SetVertexMode(mode vertex.Mode, mv *vertex.MeanVertex) error {
	return g.resolver.SetMode(mode, mv)
}

// VertexMode returns the active vertex policy.
func (g *PrimaryGenerator) VertexMode() vertex.Mode {
	return g.resolver.Mode()
}

// GenerateEvent produces one event into st and stamps the header of ev.
func (g *PrimaryGenerator) GenerateEvent(ctx context.Context, ev event.Event, st stack.Stack) (err error) {
	ctx, span := g.tracer.Start(ctx, "primgen.generate_event")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	embedding := g.cursor.IsOpen()
	var v event.Vertex
	if embedding {
		bkg, err := g.cursor.ReadCurrent(ctx)
		if err != nil {
			return err
		}
		v = bkg.Vertex()
		for _, a := range g.embeddingAware {
			a.NotifyEmbedding(bkg)
		}
		span.SetAttributes(attribute.Int64("primgen.embedding.index", g.cursor.Index()))
	} else {
		v, err = g.resolver.Resolve()
		if err != nil {
			return err
		}
	}

	offset := 0
	if sink, ok := st.Primaries(); ok {
		offset = sink.Len()
	}
	g.registrar.BeginEvent(v, offset)

	sink := eventSink{registrar: g.registrar, stack: st}
	for _, gen := range g.generators {
		if err := gen.Generate(ctx, sink); err != nil {
			return fmt.Errorf("generator %s: %w", gen.Name(), err)
		}
	}

	if h, ok := ev.MCHeader(); ok {
		h.EventID = g.counter.Next()
		h.SetVertex(v)
		h.NPrim = g.registrar.NTracks()
		for _, u := range g.headerUpdaters {
			u.UpdateHeader(h)
		}
		if embedding {
			h.SetEmbedding(g.cursor.Name(), g.cursor.Index())
		}
		g.stampGeneratorInfo(h)
		span.SetAttributes(attribute.Int64("primgen.event.id", h.EventID))
	}
	span.SetAttributes(
		attribute.Int("primgen.event.n_prim", g.registrar.NTracks()),
		attribute.Float64("primgen.vertex.z", v.Z),
	)

	if embedding {
		g.cursor.Advance()
	}
	return nil
}

func (g *PrimaryGenerator) stampGeneratorInfo(h *event.Header) {
	h.PutInt(mcgen.PropertyGeneratorID, int64(g.cfg.ID))
	h.PutString(mcgen.PropertyGeneratorDescription, g.cfg.Description)
}

// Close releases the background store.
func (g *PrimaryGenerator) Close() error {
	return g.cursor.Close()
}

type eventSink struct {
	registrar *primary.Registrar
	stack     stack.Stack
}

func (s eventSink) AddTrack(p primary.Particle) error {
	return s.registrar.AddTrack(s.stack, p)
}

func (s eventSink) AddSimpleTrack(p primary.SimpleParticle) error {
	return s.registrar.AddSimpleTrack(s.stack, p)
}
