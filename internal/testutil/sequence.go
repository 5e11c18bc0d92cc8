// Package testutil holds helpers shared by tests and the scenario harness.
package testutil

import "sync/atomic"

// TraceSequence numbers trace events. The first call to Next returns 1.
//
// Safe for concurrent use.
type TraceSequence struct {
	n atomic.Int64
}

// NewTraceSequence returns a sequence starting at 0.
func NewTraceSequence() *TraceSequence {
	return &TraceSequence{}
}

// Next advances the sequence and returns the new value.
func (s *TraceSequence) Next() int64 {
	return s.n.Add(1)
}

// Current returns the last value handed out.
func (s *TraceSequence) Current() int64 {
	return s.n.Load()
}

// Reset rewinds the sequence so the same scenario can be replayed.
func (s *TraceSequence) Reset() {
	s.n.Store(0)
}
