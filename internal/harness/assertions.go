package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/ledger/internal/access"
)

// AssertionError is returned when an assertion fails.
// It includes the grant sequence to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nGrants:\n")
	for _, event := range e.Trace {
		if event.Type == access.EventGranted.String() {
			fmt.Fprintf(&buf, "  [batch %d] %s %s\n", event.Batch, event.Kind, event.Op)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion against the result and returns
// the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertGrantOrder:
		return assertGrantOrder(result.Trace, a)
	case AssertSameBatch:
		return assertSameBatch(result, a)
	case AssertSeparateBatches:
		return assertSeparateBatches(result, a)
	case AssertBatchCount:
		return assertBatchCount(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertGrantOrder checks that the ops were granted in the listed order.
// Other grants may be interleaved.
func assertGrantOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, e := range trace {
		if next < len(a.Ops) && e.Type == access.EventGranted.String() && e.Op == a.Ops[next] {
			next++
		}
	}
	if next == len(a.Ops) {
		return nil
	}
	return &AssertionError{
		Type:     AssertGrantOrder,
		Expected: fmt.Sprintf("grants in order: %v", a.Ops),
		Actual:   fmt.Sprintf("%s not granted after %v", a.Ops[next], a.Ops[:next]),
		Trace:    trace,
	}
}

func assertSameBatch(result *Result, a Assertion) error {
	grants := result.grants()
	first, ok := grants[a.Ops[0]]
	if !ok {
		return notGranted(result, a, a.Ops[0])
	}
	for _, op := range a.Ops[1:] {
		b, ok := grants[op]
		if !ok {
			return notGranted(result, a, op)
		}
		if b != first {
			return &AssertionError{
				Type:     AssertSameBatch,
				Expected: fmt.Sprintf("%v in one batch", a.Ops),
				Actual:   fmt.Sprintf("%s in batch %d, %s in batch %d", a.Ops[0], first, op, b),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

func assertSeparateBatches(result *Result, a Assertion) error {
	grants := result.grants()
	seen := make(map[uint64]string)
	for _, op := range a.Ops {
		b, ok := grants[op]
		if !ok {
			return notGranted(result, a, op)
		}
		if other, dup := seen[b]; dup {
			return &AssertionError{
				Type:     AssertSeparateBatches,
				Expected: fmt.Sprintf("%v in distinct batches", a.Ops),
				Actual:   fmt.Sprintf("%s and %s share batch %d", other, op, b),
				Trace:    result.Trace,
			}
		}
		seen[b] = op
	}
	return nil
}

func assertBatchCount(result *Result, a Assertion) error {
	if got := result.Stats.Batches; got != uint64(a.Count) {
		return &AssertionError{
			Type:     AssertBatchCount,
			Expected: fmt.Sprintf("%d batches", a.Count),
			Actual:   fmt.Sprintf("%d batches", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

func notGranted(result *Result, a Assertion, op string) error {
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s granted", op),
		Actual:   "never granted",
		Trace:    result.Trace,
	}
}
