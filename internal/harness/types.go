package harness

import "github.com/roach88/ledger/internal/access"

// TraceEvent is one controller transition recorded during a run.
type TraceEvent struct {
	Seq   int64  `json:"seq"`
	Type  string `json:"type"` // "submit", "grant" or "release"
	Op    string `json:"op"`
	Kind  string `json:"kind"`
	Batch uint64 `json:"batch,omitempty"`
}

func traceEvent(seq int64, e access.Event) TraceEvent {
	return TraceEvent{
		Seq:   seq,
		Type:  e.Type.String(),
		Op:    e.ID,
		Kind:  e.Kind.String(),
		Batch: e.Batch,
	}
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation, principle and assertion held.
	Pass bool `json:"pass"`

	// Trace holds every controller event in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Stats is the controller state after the last step.
	Stats access.Stats `json:"stats"`
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

// grants returns op name to batch for every grant in the trace.
func (r *Result) grants() map[string]uint64 {
	out := make(map[string]uint64)
	for _, e := range r.Trace {
		if e.Type == access.EventGranted.String() {
			out[e.Op] = e.Batch
		}
	}
	return out
}
