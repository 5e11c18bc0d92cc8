package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/access"
	"github.com/roach88/ledger/internal/harness"
)

// SimulateResult is the output of the simulate command.
type SimulateResult struct {
	Scenario string               `json:"scenario"`
	Policy   string               `json:"policy"`
	Pass     bool                 `json:"pass"`
	Batches  []SimulatedBatch     `json:"batches"`
	Trace    []harness.TraceEvent `json:"trace,omitempty"`
	Errors   []string             `json:"errors,omitempty"`
}

// SimulatedBatch lists the operations admitted together.
type SimulatedBatch struct {
	Number uint64   `json:"number"`
	Ops    []string `json:"ops"`
	Write  string   `json:"write,omitempty"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	var showTrace bool

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Replay an admission schedule and print its batches",
		Long: `Run a YAML admission scenario against a fresh controller and print which
operations were admitted together. No database is opened.

Exit code is 1 when an expectation, assertion or admission principle
fails.

Examples:
  ledger simulate ./scenarios/scenario_a.yaml
  ledger simulate ./scenarios/scenario_a.yaml --trace --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, rootOpts, args[0], showTrace)
		},
	}

	cmd.Flags().BoolVar(&showTrace, "trace", false, "include every controller event")
	return cmd
}

func runSimulate(cmd *cobra.Command, opts *RootOptions, path string, showTrace bool) error {
	formatter := newFormatter(cmd, opts)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return formatter.fail(ExitCommandError, CodeScenario, "failed to load scenario", err)
	}
	formatter.VerboseLog("loaded scenario %s with %d steps", scenario.Name, len(scenario.Steps))

	run, err := harness.Run(scenario)
	if err != nil {
		return formatter.fail(ExitCommandError, CodeScenario, "failed to run scenario", err)
	}

	policy, _ := access.ParsePolicy(scenario.Policy)
	result := SimulateResult{
		Scenario: scenario.Name,
		Policy:   policy.String(),
		Pass:     run.Pass,
		Batches:  batchesOf(run.Trace),
		Errors:   run.Errors,
	}
	if showTrace {
		result.Trace = run.Trace
	}

	if err := formatter.Success(result, func(w io.Writer) error {
		return renderSimulation(w, result)
	}); err != nil {
		return err
	}
	if !run.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed with %d error(s)", scenario.Name, len(run.Errors)))
	}
	return nil
}

// batchesOf groups grant events by batch number.
func batchesOf(trace []harness.TraceEvent) []SimulatedBatch {
	batches := []SimulatedBatch{}
	for _, e := range trace {
		if e.Type != access.EventGranted.String() {
			continue
		}
		if len(batches) == 0 || batches[len(batches)-1].Number != e.Batch {
			batches = append(batches, SimulatedBatch{Number: e.Batch})
		}
		b := &batches[len(batches)-1]
		b.Ops = append(b.Ops, e.Op)
		if e.Kind == access.KindWrite.String() {
			b.Write = e.Op
		}
	}
	return batches
}

func renderSimulation(w io.Writer, r SimulateResult) error {
	status := "PASS"
	if !r.Pass {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%s %s (policy %s)\n", status, r.Scenario, r.Policy)
	for _, b := range r.Batches {
		ops := make([]string, len(b.Ops))
		for i, op := range b.Ops {
			ops[i] = op
			if op == b.Write {
				ops[i] = op + "(w)"
			}
		}
		fmt.Fprintf(w, "  batch %d: %s\n", b.Number, strings.Join(ops, " "))
	}
	for _, e := range r.Trace {
		batch := ""
		if e.Batch > 0 {
			batch = fmt.Sprintf(" batch=%d", e.Batch)
		}
		fmt.Fprintf(w, "  [%d] %-7s %s %s%s\n", e.Seq, e.Type, e.Kind, e.Op, batch)
	}
	for _, msg := range r.Errors {
		fmt.Fprintf(w, "  ✗ %s\n", msg)
	}
	return nil
}
