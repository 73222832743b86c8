package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/primgen/internal/config"
	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/generator"
	"github.com/roach88/primgen/internal/pdg"
	"github.com/roach88/primgen/internal/stack"
	"github.com/roach88/primgen/internal/store"
	"github.com/roach88/primgen/internal/telemetry"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Config   string
	Output   string
	Events   int
	Seed     uint64
	Embed    string
	Workers  int
	Progress bool

	// OTelEndpoint is the OTLP/HTTP endpoint spans are exported to.
	OTelEndpoint string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs RunIDGenerator
}

// GenerateResult summarises a finished generation run.
type GenerateResult struct {
	RunID      string `json:"run_id"`
	Output     string `json:"output"`
	Events     int    `json:"events"`
	FirstEntry int64  `json:"first_entry"`
	Embed      string `json:"embed,omitempty"`
	Workers    int    `json:"workers"`
}

func (r GenerateResult) String() string {
	s := fmt.Sprintf("Generated %d events into %s (run %s, entries %d-%d)",
		r.Events, r.Output, r.RunID, r.FirstEntry, r.FirstEntry+int64(r.Events)-1)
	if r.Embed != "" {
		s += fmt.Sprintf("\nEmbedded into %s", r.Embed)
	}
	return s
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return newGenerateCommand(rootOpts, nil)
}

func newGenerateCommand(rootOpts *RootOptions, runIDs RunIDGenerator) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts, RunIDs: runIDs}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate primary events into a store",
		Long: `Generate primary events and append them to an SQLite event store.

Settings come from the config file, then PRIMGEN_EVENTS, PRIMGEN_SEED and
PRIMGEN_EMBED, then command-line flags. With --embed, each event takes its
vertex from the next event of the background store, cycling through it.

With --otel-endpoint (or PRIMGEN_OTEL_ENDPOINT), the run and every event
are traced and exported over OTLP/HTTP.

Example:
  primgen generate --config run.cue --out signal.db --events 1000
  primgen generate --config run.yaml --out signal.db --embed background.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "configuration file (.cue, .yaml)")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "output event store (required)")
	cmd.Flags().IntVarP(&opts.Events, "events", "n", 1, "number of events")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&opts.Embed, "embed", "", "background store to embed into")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "independent generators running in parallel")
	cmd.Flags().BoolVar(&opts.Progress, "progress", false, "show a progress bar on stderr")
	cmd.Flags().StringVar(&opts.OTelEndpoint, "otel-endpoint", "", "OTLP/HTTP endpoint for traces (off when empty)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	db, err := loadParticles(cfg.Particles)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load particle table", err)
	}
	genCfg, err := cfg.GeneratorConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid generator config", err)
	}
	box, hasBox := cfg.BoxConfig()
	if !hasBox {
		logger.Warn("no generation delegate configured; events carry a vertex only")
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	telCfg, err := resolveTelemetry(cmd, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load telemetry config", err)
	}
	tp, shutdown, err := telemetry.Setup(ctx, telCfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up tracing", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Error("error flushing traces", "error", err)
		}
	}()

	out, err := store.Create(opts.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open output store", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			logger.Error("error closing output store", "error", closeErr)
		}
	}()
	first, err := out.Entries(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read output store", err)
	}

	events := cfg.Run.Events
	workers := max(opts.Workers, 1)
	if cfg.Run.Embed != "" && workers > 1 {
		logger.Warn("embedding runs on a single worker", "requested", workers)
		workers = 1
	}
	workers = max(min(workers, events), 1)

	counter := generator.NewEventCounterAt(first)
	gens := make([]*generator.PrimaryGenerator, 0, workers)
	defer func() {
		for _, g := range gens {
			g.Close()
		}
	}()
	for w := range workers {
		rng := rand.New(rand.NewPCG(cfg.Run.Seed, uint64(w)))
		g, err := generator.New(genCfg, db, rng,
			generator.WithLogger(logger.With("worker", w)),
			generator.WithTracer(tp.Tracer(generator.TracerName)),
			generator.WithTracking(cfg.Generator.DoTracking),
			generator.WithEventCounter(counter),
		)
		if err != nil {
			return wrapGenerationError("failed to create generator", err)
		}
		gens = append(gens, g)

		if hasBox {
			g.AddGenerator(generator.NewBoxGenerator(box, rng))
		}
		if cfg.Run.Embed != "" {
			if err := g.EmbedInto(ctx, cfg.Run.Embed); err != nil {
				return WrapExitError(ExitCommandError, "failed to open background store", err)
			}
		}
		if err := g.Init(ctx); err != nil {
			return wrapGenerationError("failed to initialise generator", err)
		}
	}

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = UUIDv7Generator{}
	}
	result := GenerateResult{
		RunID:      runIDs.Generate(),
		Output:     opts.Output,
		Events:     events,
		FirstEntry: first,
		Embed:      cfg.Run.Embed,
		Workers:    workers,
	}
	if err := out.RecordRun(ctx, store.Run{
		ID:            result.RunID,
		GeneratorID:   genCfg.ID,
		Description:   genCfg.Description,
		VertexMode:    genCfg.Vertex.Mode.String(),
		Seed:          cfg.Run.Seed,
		EmbeddingFile: cfg.Run.Embed,
		FirstEntry:    first,
	}); err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}

	logger.Info("generating events", "run_id", result.RunID, "events", events, "workers", workers, "out", opts.Output)
	bar := newProgressBar(cmd.ErrOrStderr(), events, opts.Progress)

	ctx, span := tp.Tracer(telemetry.ServiceName).Start(ctx, "primgen.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("primgen.run.id", result.RunID),
		attribute.Int("primgen.run.events", events),
		attribute.Int("primgen.run.workers", workers),
		attribute.Int64("primgen.run.first_entry", first),
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for w, g := range gens {
		n := share(events, workers, w)
		eg.Go(func() error {
			return produce(ctx, g, out, n, bar)
		})
	}
	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return wrapGenerationError("generation failed", err)
	}
	_ = bar.Finish()

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(result)
}

// resolveConfig layers the config file, environment and flags.
func resolveConfig(cmd *cobra.Command, opts *GenerateOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return nil, err
		}
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("events") {
		cfg.Run.Events = opts.Events
	}
	if flags.Changed("seed") {
		cfg.Run.Seed = opts.Seed
	}
	if flags.Changed("embed") {
		cfg.Run.Embed = opts.Embed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveTelemetry layers PRIMGEN_OTEL_ENDPOINT and --otel-endpoint.
func resolveTelemetry(cmd *cobra.Command, opts *GenerateOptions) (telemetry.Config, error) {
	cfg, err := telemetry.ConfigFromEnv()
	if err != nil {
		return telemetry.Config{}, err
	}
	if cmd.Flags().Changed("otel-endpoint") {
		cfg.Endpoint = opts.OTelEndpoint
	}
	return cfg, nil
}

func loadParticles(path string) (pdg.DB, error) {
	if path == "" {
		return pdg.Default(), nil
	}
	return pdg.Load(path)
}

// share returns how many of total events worker w of n produces.
func share(total, n, w int) int {
	s := total / n
	if w < total%n {
		s++
	}
	return s
}

func produce(ctx context.Context, g *generator.PrimaryGenerator, out *store.Store, n int, bar *progressbar.ProgressBar) error {
	st := stack.NewMemoryStack()
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		st.Reset()
		h := event.NewHeader()
		if err := g.GenerateEvent(ctx, h, st); err != nil {
			return err
		}
		if _, err := out.AppendEvent(ctx, h, st.Tracks()); err != nil {
			return fmt.Errorf("write event %d: %w", h.EventID, err)
		}
		_ = bar.Add(1)
	}
	return nil
}

func newProgressBar(w io.Writer, total int, visible bool) *progressbar.ProgressBar {
	return progressbar.NewOptions64(int64(total),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionSetDescription("generating"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
