package harness

import "github.com/roach88/primgen/internal/event"

// Trace event types.
const (
	TraceGenerate = "generate"
	TraceExternal = "external"
	TraceMode     = "mode"
	TraceError    = "error"
)

// TraceEvent is one step outcome in the scenario trace.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Type string `json:"type"`

	// Event is set for generate entries.
	Event *EventRecord `json:"event,omitempty"`

	// Vertex is the override set by an external entry.
	Vertex *event.Vertex `json:"vertex,omitempty"`

	// Mode is the vertex mode selected by a mode entry.
	Mode string `json:"mode,omitempty"`

	// Code is the generator error code of an error entry; Message is the
	// full error text.
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// EventRecord summarises one generated event.
type EventRecord struct {
	EventID        int64            `json:"event_id"`
	Vertex         event.Vertex     `json:"vertex"`
	NPrim          int              `json:"n_prim"`
	Tracks         int              `json:"tracks"`
	EmbeddingIndex *int64           `json:"embedding_index,omitempty"`
	IntInfo        map[string]int64 `json:"int_info,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Trace contains the step outcomes in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) add(ev TraceEvent) {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
}

// Events returns the generated events in order.
func (r *Result) Events() []EventRecord {
	var out []EventRecord
	for _, ev := range r.Trace {
		if ev.Type == TraceGenerate {
			out = append(out, *ev.Event)
		}
	}
	return out
}

// Failure returns the error entry that stopped the flow, if any.
func (r *Result) Failure() (TraceEvent, bool) {
	for _, ev := range r.Trace {
		if ev.Type == TraceError {
			return ev, true
		}
	}
	return TraceEvent{}, false
}
