package harness

import (
	"fmt"

	"github.com/roach88/ledger/internal/access"
)

// CheckPrinciples replays a trace and reports every admission principle it
// violates. An empty result means the trace is a valid schedule for policy.
func CheckPrinciples(trace []TraceEvent, policy access.Policy) []string {
	var (
		violations []string
		submitted  []string
		grantIdx   int
		batch      uint64
		executing  = make(map[string]string) // op -> kind
	)

	count := func(kind string) int {
		n := 0
		for _, k := range executing {
			if k == kind {
				n++
			}
		}
		return n
	}
	read, write := access.KindRead.String(), access.KindWrite.String()

	for _, e := range trace {
		switch e.Type {
		case access.EventSubmitted.String():
			submitted = append(submitted, e.Op)

		case access.EventGranted.String():
			if grantIdx >= len(submitted) || submitted[grantIdx] != e.Op {
				violations = append(violations, fmt.Sprintf(
					"seq %d: %s granted out of submission order", e.Seq, e.Op))
			}
			grantIdx++

			if e.Batch != batch {
				if len(executing) > 0 {
					violations = append(violations, fmt.Sprintf(
						"seq %d: batch %d started while batch %d had %d executing",
						e.Seq, e.Batch, batch, len(executing)))
				}
				if e.Batch != batch+1 {
					violations = append(violations, fmt.Sprintf(
						"seq %d: batch %d follows batch %d", e.Seq, e.Batch, batch))
				}
				batch = e.Batch
			}

			if e.Kind == write && count(write) > 0 {
				violations = append(violations, fmt.Sprintf(
					"seq %d: write %s granted while another write is executing", e.Seq, e.Op))
			}
			if policy == access.PolicyExclusive {
				if e.Kind == write && count(read) > 0 {
					violations = append(violations, fmt.Sprintf(
						"seq %d: write %s granted alongside executing reads", e.Seq, e.Op))
				}
				if e.Kind == read && count(write) > 0 {
					violations = append(violations, fmt.Sprintf(
						"seq %d: read %s granted alongside an executing write", e.Seq, e.Op))
				}
			}
			executing[e.Op] = e.Kind

		case access.EventReleased.String():
			if _, ok := executing[e.Op]; !ok {
				violations = append(violations, fmt.Sprintf(
					"seq %d: %s released while not executing", e.Seq, e.Op))
			}
			delete(executing, e.Op)
		}
	}
	return violations
}
