package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/primgen/internal/generr"
	"github.com/roach88/primgen/internal/vertex"
)

// Scenario defines a generation scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is a primgen configuration in its YAML form.
	// If empty, the default configuration is used.
	Config map[string]any `yaml:"config,omitempty"`

	// Background lists the vertices of a background sample to embed into.
	Background [][]float64 `yaml:"background,omitempty"`

	// Flow contains the steps to drive, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace.
	Assertions []Assertion `yaml:"assertions"`
}

// FlowStep is a single step. Exactly one field is set.
type FlowStep struct {
	// Generate produces this many events.
	Generate int `yaml:"generate,omitempty"`

	// External sets the vertex of the next event.
	External []float64 `yaml:"external,omitempty"`

	// Mode switches the vertex mode for the following events.
	Mode string `yaml:"mode,omitempty"`
}

// Assertion validates the trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "vertices": vertex of every generated event
	// - "embedding_indices": background entry of every generated event
	// - "primary_counts": primary count of every generated event
	// - "header_int": integer header property of every generated event
	// - "generation_error": the flow stopped with Code after Event events
	Type string `yaml:"type"`

	// Vertices are the expected vertices (used by vertices).
	Vertices [][]float64 `yaml:"vertices,omitempty"`

	// Tolerance is the allowed absolute deviation per component (used by vertices).
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Values are the expected values (used by embedding_indices,
	// primary_counts and header_int).
	Values []int64 `yaml:"values,omitempty"`

	// Key is the header property (used by header_int).
	Key string `yaml:"key,omitempty"`

	// Code is the expected generator error code (used by generation_error).
	Code string `yaml:"code,omitempty"`

	// Event is the number of events generated before the error (used by generation_error).
	Event int `yaml:"event,omitempty"`
}

// Assertion type constants.
const (
	AssertVertices         = "vertices"
	AssertEmbeddingIndices = "embedding_indices"
	AssertPrimaryCounts    = "primary_counts"
	AssertHeaderInt        = "header_int"
	AssertGenerationError  = "generation_error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// The config block is free-form here; the config loader checks it.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, v := range s.Background {
		if len(v) != 3 {
			return fmt.Errorf("background[%d]: vertex must have 3 components", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step FlowStep) error {
	set := 0
	if step.Generate != 0 {
		set++
		if step.Generate < 0 {
			return fmt.Errorf("flow[%d]: generate must be positive", index)
		}
	}
	if step.External != nil {
		set++
		if len(step.External) != 3 {
			return fmt.Errorf("flow[%d]: external vertex must have 3 components", index)
		}
	}
	if step.Mode != "" {
		set++
		if _, err := vertex.ParseMode(step.Mode); err != nil {
			return fmt.Errorf("flow[%d]: %w", index, err)
		}
	}
	if set != 1 {
		return fmt.Errorf("flow[%d]: exactly one of generate, external, mode is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertVertices:
		if len(a.Vertices) == 0 {
			return fmt.Errorf("assertions[%d]: vertices list is required for vertices", index)
		}
		for j, v := range a.Vertices {
			if len(v) != 3 {
				return fmt.Errorf("assertions[%d]: vertices[%d] must have 3 components", index, j)
			}
		}
		if a.Tolerance < 0 {
			return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
		}
	case AssertEmbeddingIndices, AssertPrimaryCounts:
		if len(a.Values) == 0 {
			return fmt.Errorf("assertions[%d]: values list is required for %s", index, a.Type)
		}
	case AssertHeaderInt:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for header_int", index)
		}
		if len(a.Values) == 0 {
			return fmt.Errorf("assertions[%d]: values list is required for header_int", index)
		}
	case AssertGenerationError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for generation_error", index)
		}
		if !generr.Code(a.Code).Known() {
			return fmt.Errorf("assertions[%d]: unknown error code %q", index, a.Code)
		}
		if a.Event < 0 {
			return fmt.Errorf("assertions[%d]: event must be non-negative for generation_error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
