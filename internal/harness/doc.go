// Package harness runs generation scenarios against the primary generator.
//
// A scenario configures a generator, optionally embeds it into a synthetic
// background sample, drives a flow of steps and asserts on the per-event
// trace. Traces are also compared against golden files.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	config:
//	  generator: { id: 1 }
//	  vertex: { mode: diamond, position: [0, 0, 1] }
//	  box: { pdg: 211, multiplicity: 2 }
//	background:
//	  - [0, 0, 1]
//	  - [0, 0, 2]
//	flow:
//	  - generate: 2
//	  - external: [1, 2, 3]
//	  - mode: no-vertex
//	  - generate: 1
//	assertions:
//	  - type: vertices
//	    vertices: [[0, 0, 1], [0, 0, 2], [0, 0, 1]]
//	  - type: generation_error
//	    code: MISSING_EXTERNAL_VERTEX
//	    event: 3
//
// The config block has the shape of a primgen configuration file and goes
// through the same loader. Background vertices become a store whose entry i
// has event ID i+1; when present, the generator embeds into it.
//
// # Assertion Types
//
//   - vertices: the vertex of every generated event, in order
//   - embedding_indices: the background entry of every generated event
//   - primary_counts: the primary count of every generated event
//   - header_int: an integer header property of every generated event
//   - generation_error: the flow stopped with the given code at event N
//
// # Deterministic Testing
//
// The generator random source is seeded from config.run.seed, so a scenario
// produces identical traces across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/embedding.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario, t.TempDir())
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
