// Package harness replays admission schedules against the access controller.
//
// A schedule is a YAML scenario: an ordered list of submits and releases
// with the expected controller state after each step. The harness runs the
// steps on a fresh AdmissionController with fixed operation ids, records
// every controller event as a trace, checks the admission principles on
// that trace and evaluates the scenario's assertions.
//
// # Scenario Format
//
//	name: read_batch_closed_by_write
//	description: "Reads share a batch; the first write closes it"
//	policy: relaxed
//	steps:
//	  - submit_all:
//	      - { op: R1, kind: read }
//	      - { op: W1, kind: write }
//	    expect: { granted: [R1, W1], pending: 0 }
//	  - release: R1
//	  - release: W1
//	assertions:
//	  - type: same_batch
//	    ops: [R1, W1]
//	  - type: batch_count
//	    count: 1
//
// # Assertion Types
//
//   - grant_order: the listed ops are granted in this order
//   - same_batch: the listed ops are granted in one batch
//   - separate_batches: no two of the listed ops share a batch
//   - batch_count: exactly Count batches were admitted
//
// # Principles
//
// Independent of assertions, every run is checked for:
//
//   - at most one write executing at a time
//   - under the exclusive policy, no read executing alongside a write
//   - a new batch starts only once the previous one drained
//   - grants follow submission order
//
// # Determinism
//
// Operation ids are the scenario's op names (access.FixedGenerator) and
// trace events are numbered by a testutil.TraceSequence, so the same
// scenario always yields a byte-identical trace and golden file.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/scenario_a.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
