package access

// Operation is one pending or running request.
//
// granted is closed exactly once, when the controller moves the operation
// from the pending queue into the executing set.
type Operation struct {
	ID      string
	Kind    Kind
	granted chan struct{}
}

func newOperation(id string, kind Kind) *Operation {
	return &Operation{
		ID:      id,
		Kind:    kind,
		granted: make(chan struct{}),
	}
}

// Ticket is the caller's handle on a submitted operation.
type Ticket struct {
	op *Operation
}

// ID returns the operation id. Pass it to Release once the work is done.
func (t *Ticket) ID() string {
	return t.op.ID
}

// Kind returns the operation kind.
func (t *Ticket) Kind() Kind {
	return t.op.Kind
}

// Granted returns a channel that is closed when the operation is admitted.
//
//	select {
//	case <-t.Granted():
//	    // running
//	default:
//	    // still pending
//	}
func (t *Ticket) Granted() <-chan struct{} {
	return t.op.granted
}

// Wait blocks until the operation is admitted. There is no timeout: an
// operation is always admitted once everything ahead of it has released.
func (t *Ticket) Wait() {
	<-t.op.granted
}

// pendingQueue is the FIFO of operations awaiting admission.
// Not safe for concurrent use; the controller guards it with its mutex.
type pendingQueue struct {
	ops []*Operation
}

func newPendingQueue() pendingQueue {
	return pendingQueue{ops: make([]*Operation, 0, 64)}
}

func (q *pendingQueue) push(op *Operation) {
	q.ops = append(q.ops, op)
}

func (q *pendingQueue) peek() (*Operation, bool) {
	if len(q.ops) == 0 {
		return nil, false
	}
	return q.ops[0], true
}

func (q *pendingQueue) pop() *Operation {
	op := q.ops[0]

	// Clear the slot so the backing array does not pin the operation.
	q.ops[0] = nil
	if len(q.ops) == 1 {
		q.ops = q.ops[:0]
	} else {
		q.ops = q.ops[1:]
	}
	return op
}

func (q *pendingQueue) len() int {
	return len(q.ops)
}
