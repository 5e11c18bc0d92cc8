package harness

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"

	"github.com/roach88/ledger/internal/access"
	"github.com/roach88/ledger/internal/testutil"
)

// Harness executes one scenario against its own controller.
type Harness struct {
	policy  access.Policy
	ctrl    *access.AdmissionController
	tickets map[string]*access.Ticket
	seq     *testutil.TraceSequence
	result  *Result
}

// Run executes a scenario and returns the result.
//
// Each run gets a fresh controller whose ids are the scenario's op names,
// so traces are identical across runs. A non-nil error means the scenario
// could not be executed; failed expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	policy, err := access.ParsePolicy(scenario.Policy)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		policy:  policy,
		tickets: make(map[string]*access.Ticket),
		seq:     testutil.NewTraceSequence(),
		result:  NewResult(),
	}
	h.ctrl = access.NewAdmissionController(
		access.WithPolicy(policy),
		access.WithIDGenerator(access.NewFixedGenerator(scenario.OpNames()...)),
		access.WithObserver(h.record),
		access.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	for i, step := range scenario.Steps {
		if err := h.executeStep(i, step); err != nil {
			return nil, err
		}
	}
	h.result.Stats = h.ctrl.Stats()

	for _, msg := range CheckPrinciples(h.result.Trace, policy) {
		h.result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

// record is the controller observer. It runs under the controller lock.
func (h *Harness) record(e access.Event) {
	h.result.Trace = append(h.result.Trace, traceEvent(h.seq.Next(), e))
}

func (h *Harness) executeStep(i int, step Step) error {
	switch {
	case step.Submit != nil:
		kind, err := access.ParseKind(step.Submit.Kind)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		h.tickets[step.Submit.Op] = h.ctrl.Submit(kind)

	case step.SubmitAll != nil:
		kinds := make([]access.Kind, len(step.SubmitAll))
		for j, sub := range step.SubmitAll {
			kind, err := access.ParseKind(sub.Kind)
			if err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
			kinds[j] = kind
		}
		for j, tk := range h.ctrl.SubmitAll(kinds...) {
			h.tickets[step.SubmitAll[j].Op] = tk
		}

	case step.Release != "":
		tk, ok := h.tickets[step.Release]
		if !ok {
			return fmt.Errorf("steps[%d]: release of unsubmitted op %q", i, step.Release)
		}
		if !isGranted(tk) {
			h.result.AddError(fmt.Sprintf("steps[%d]: release %s: op was never granted", i, step.Release))
			return nil
		}
		if err := h.release(step.Release); err != nil {
			h.result.AddError(fmt.Sprintf("steps[%d]: %v", i, err))
			return nil
		}
	}

	if step.Expect != nil {
		h.checkExpect(i, step.Expect)
	}
	return nil
}

// release converts the controller's double-release panic into an error.
func (h *Harness) release(op string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()
	h.ctrl.Release(op)
	return nil
}

func (h *Harness) checkExpect(i int, want *ExpectClause) {
	if want.Granted != nil {
		got := h.executing()
		expected := slices.Clone(want.Granted)
		sort.Strings(expected)
		if !slices.Equal(got, expected) {
			h.result.AddError(fmt.Sprintf("steps[%d]: executing = %v, expected %v", i, got, expected))
		}
	}
	if want.Pending != nil {
		if got := h.ctrl.Stats().Pending; got != *want.Pending {
			h.result.AddError(fmt.Sprintf("steps[%d]: pending = %d, expected %d", i, got, *want.Pending))
		}
	}
}

// executing returns the sorted names of granted, unreleased ops.
func (h *Harness) executing() []string {
	released := make(map[string]bool)
	for _, e := range h.result.Trace {
		if e.Type == access.EventReleased.String() {
			released[e.Op] = true
		}
	}
	out := []string{}
	for name, tk := range h.tickets {
		if isGranted(tk) && !released[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func isGranted(tk *access.Ticket) bool {
	select {
	case <-tk.Granted():
		return true
	default:
		return false
	}
}
