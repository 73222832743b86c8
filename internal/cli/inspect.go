package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/mcgen"
	"github.com/roach88/primgen/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Limit int
}

// InspectResult is the content summary of an event store.
type InspectResult struct {
	Path    string         `json:"path"`
	Entries int64          `json:"entries"`
	Runs    []RunSummary   `json:"runs"`
	Events  []EventSummary `json:"events"`
}

// RunSummary is one recorded generation run.
type RunSummary struct {
	ID            string `json:"id"`
	GeneratorID   int    `json:"generator_id"`
	Description   string `json:"description"`
	VertexMode    string `json:"vertex_mode"`
	Seed          uint64 `json:"seed"`
	EmbeddingFile string `json:"embedding_file,omitempty"`
	FirstEntry    int64  `json:"first_entry"`
}

// EventSummary is one stored event.
type EventSummary struct {
	Entry          int64        `json:"entry"`
	EventID        int64        `json:"event_id"`
	Vertex         event.Vertex `json:"vertex"`
	NPrim          int          `json:"n_prim"`
	Tracks         int          `json:"tracks"`
	GeneratorID    int64        `json:"generator_id"`
	EmbeddingFile  string       `json:"embedding_file,omitempty"`
	EmbeddingIndex int64        `json:"embedding_index"`
}

func (r InspectResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Store: %s\n", r.Path)
	fmt.Fprintf(&b, "Entries: %d\n", r.Entries)

	b.WriteString("\n=== Runs ===\n")
	if len(r.Runs) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, run := range r.Runs {
		fmt.Fprintf(&b, "  %s  generator=%d %q  mode=%s  seed=%d  first_entry=%d",
			run.ID, run.GeneratorID, run.Description, run.VertexMode, run.Seed, run.FirstEntry)
		if run.EmbeddingFile != "" {
			fmt.Fprintf(&b, "  embed=%s", run.EmbeddingFile)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n=== Events ===\n")
	if len(r.Events) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, ev := range r.Events {
		fmt.Fprintf(&b, "  #%d  event=%d  vertex=%s  n_prim=%d  tracks=%d  generator=%d",
			ev.Entry, ev.EventID, ev.Vertex, ev.NPrim, ev.Tracks, ev.GeneratorID)
		if ev.EmbeddingFile != "" {
			fmt.Fprintf(&b, "  embedded=%s[%d]", ev.EmbeddingFile, ev.EmbeddingIndex)
		}
		b.WriteString("\n")
	}
	if more := r.Entries - int64(len(r.Events)); more > 0 {
		fmt.Fprintf(&b, "  ... %d more\n", more)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <store>",
		Short: "Summarise the runs and events of a store",
		Long: `Summarise an event store: the generation runs recorded in it and, per
event, the vertex, primary count, generator identity and embedding provenance.

Example:
  primgen inspect signal.db
  primgen inspect signal.db --limit 10 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of events to list (0 lists all)")

	return cmd
}

func runInspect(cmd *cobra.Command, opts *InspectOptions, path string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := store.OpenReadOnly(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer s.Close()

	ok, err := s.HasTable(ctx, store.HeaderTable)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read store", err)
	}
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s is not an event store", path))
	}

	result, err := inspectStore(ctx, s, opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to inspect store", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(result)
}

func inspectStore(ctx context.Context, s *store.Store, limit int) (InspectResult, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return InspectResult{}, err
	}
	runs, err := s.ReadRuns(ctx)
	if err != nil {
		return InspectResult{}, err
	}

	result := InspectResult{
		Path:    s.Path(),
		Entries: entries,
		Runs:    make([]RunSummary, 0, len(runs)),
		Events:  []EventSummary{},
	}
	for _, r := range runs {
		result.Runs = append(result.Runs, RunSummary(r))
	}

	n := entries
	if limit > 0 && int64(limit) < n {
		n = int64(limit)
	}
	h := event.NewHeader()
	for entry := range n {
		if err := s.ReadHeader(ctx, entry, h); err != nil {
			return InspectResult{}, err
		}
		tracks, err := s.ReadTracks(ctx, entry)
		if err != nil {
			return InspectResult{}, err
		}
		genID, _ := h.GetInt(mcgen.PropertyGeneratorID)
		result.Events = append(result.Events, EventSummary{
			Entry:          entry,
			EventID:        h.EventID,
			Vertex:         h.Vertex(),
			NPrim:          h.NPrim,
			Tracks:         len(tracks),
			GeneratorID:    genID,
			EmbeddingFile:  h.EmbeddingFileName,
			EmbeddingIndex: h.EmbeddingEventIndex,
		})
	}
	return result, nil
}
