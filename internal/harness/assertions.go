package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/primgen/internal/event"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		switch ev.Type {
		case TraceGenerate:
			fmt.Fprintf(&buf, "  [%d] generate event=%d vertex=%s n_prim=%d\n",
				ev.Seq, ev.Event.EventID, ev.Event.Vertex, ev.Event.NPrim)
		case TraceExternal:
			fmt.Fprintf(&buf, "  [%d] external %s\n", ev.Seq, ev.Vertex)
		case TraceMode:
			fmt.Fprintf(&buf, "  [%d] mode %s\n", ev.Seq, ev.Mode)
		case TraceError:
			fmt.Fprintf(&buf, "  [%d] error %s\n", ev.Seq, ev.Message)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs all assertions and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertVertices:
		return assertVertices(result, a)
	case AssertEmbeddingIndices:
		return assertEmbeddingIndices(result, a)
	case AssertPrimaryCounts:
		return assertPrimaryCounts(result, a)
	case AssertHeaderInt:
		return assertHeaderInt(result, a)
	case AssertGenerationError:
		return assertGenerationError(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertVertices compares event vertices component-wise within the tolerance.
func assertVertices(result *Result, a Assertion) error {
	events := result.Events()
	got := make([]event.Vertex, len(events))
	for i, ev := range events {
		got[i] = ev.Vertex
	}
	want := make([]event.Vertex, len(a.Vertices))
	for i, v := range a.Vertices {
		want[i] = vec(v)
	}

	match := len(got) == len(want)
	for i := 0; match && i < len(got); i++ {
		match = near(got[i].X, want[i].X, a.Tolerance) &&
			near(got[i].Y, want[i].Y, a.Tolerance) &&
			near(got[i].Z, want[i].Z, a.Tolerance)
	}
	if match {
		return nil
	}
	return &AssertionError{
		Type:     AssertVertices,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    result.Trace,
	}
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// assertEmbeddingIndices checks the background entry of every event.
// Events that were not embedded count as -1.
func assertEmbeddingIndices(result *Result, a Assertion) error {
	var got []int64
	for _, ev := range result.Events() {
		idx := int64(-1)
		if ev.EmbeddingIndex != nil {
			idx = *ev.EmbeddingIndex
		}
		got = append(got, idx)
	}
	return compareValues(result, AssertEmbeddingIndices, a.Values, got)
}

func assertPrimaryCounts(result *Result, a Assertion) error {
	var got []int64
	for _, ev := range result.Events() {
		got = append(got, int64(ev.NPrim))
	}
	return compareValues(result, AssertPrimaryCounts, a.Values, got)
}

// assertHeaderInt checks an integer header property of every event.
func assertHeaderInt(result *Result, a Assertion) error {
	var got []int64
	for _, ev := range result.Events() {
		v, ok := ev.IntInfo[a.Key]
		if !ok {
			return &AssertionError{
				Type:     AssertHeaderInt,
				Expected: fmt.Sprintf("property %q on every event", a.Key),
				Actual:   fmt.Sprintf("missing on event %d", ev.EventID),
				Trace:    result.Trace,
			}
		}
		got = append(got, v)
	}
	return compareValues(result, AssertHeaderInt, a.Values, got)
}

func compareValues(result *Result, kind string, want, got []int64) error {
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    result.Trace,
	}
}

// assertGenerationError checks that the flow stopped with the given code
// after the given number of events.
func assertGenerationError(result *Result, a Assertion) error {
	failure, ok := result.Failure()
	if !ok {
		return &AssertionError{
			Type:     AssertGenerationError,
			Expected: fmt.Sprintf("error %s after %d events", a.Code, a.Event),
			Actual:   "flow completed",
			Trace:    result.Trace,
		}
	}
	if n := len(result.Events()); failure.Code != a.Code || n != a.Event {
		return &AssertionError{
			Type:     AssertGenerationError,
			Expected: fmt.Sprintf("error %s after %d events", a.Code, a.Event),
			Actual:   fmt.Sprintf("error %q after %d events", failure.Code, n),
			Trace:    result.Trace,
		}
	}
	return nil
}
