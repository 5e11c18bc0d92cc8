package access

// EventType identifies a controller state transition.
type EventType int

const (
	// EventSubmitted: an operation joined the tail of the pending queue.
	EventSubmitted EventType = iota + 1
	// EventGranted: an operation moved into the executing set.
	EventGranted
	// EventReleased: an operation left the executing set.
	EventReleased
)

// String returns "submit", "grant" or "release".
func (t EventType) String() string {
	switch t {
	case EventSubmitted:
		return "submit"
	case EventGranted:
		return "grant"
	case EventReleased:
		return "release"
	default:
		return "unknown"
	}
}

// Event describes one controller transition.
//
// Batch is the admission batch number (starting at 1) for EventGranted and
// EventReleased, and zero for EventSubmitted.
type Event struct {
	Type  EventType
	ID    string
	Kind  Kind
	Batch uint64
}

// Observer receives controller events in transition order.
//
// Observers run while the controller holds its lock. They must return
// quickly and must not call back into the controller.
type Observer func(Event)
