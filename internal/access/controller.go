package access

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrUnknownOperation is the panic value (wrapped) raised when Release is
// called for an operation that is not executing.
var ErrUnknownOperation = errors.New("operation is not executing")

// Controller decides when submitted operations may run.
//
// Implemented by AdmissionController. Tests may substitute their own.
type Controller interface {
	// Submit queues an operation and returns its ticket. The caller waits on
	// the ticket and must call Release exactly once after it is granted.
	Submit(kind Kind) *Ticket

	// Release returns the slot held by a granted operation.
	Release(id string)
}

// Stats is a point-in-time view of the controller.
type Stats struct {
	Pending   int
	Executing int
	Batches   uint64
}

// AdmissionController implements Controller: many reads at once, at most
// one write system-wide, batches admitted in arrival order.
//
// Thread-safety: all methods are safe for concurrent use. Every submit,
// admission pass and release runs under a single mutex, so each transition
// is atomic with respect to the others.
type AdmissionController struct {
	policy   Policy
	ids      IDGenerator
	observer Observer
	logger   *slog.Logger

	mu struct {
		sync.Mutex

		pending   pendingQueue
		executing map[string]executingOp
		batches   uint64
	}
}

type executingOp struct {
	op    *Operation
	batch uint64
}

// ControllerOption configures an AdmissionController.
type ControllerOption func(*AdmissionController)

// WithPolicy selects the write admission policy. Default: PolicyRelaxed.
func WithPolicy(p Policy) ControllerOption {
	return func(c *AdmissionController) {
		c.policy = p
	}
}

// WithIDGenerator overrides the operation id generator.
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) ControllerOption {
	return func(c *AdmissionController) {
		c.ids = g
	}
}

// WithObserver registers an observer for controller events.
func WithObserver(o Observer) ControllerOption {
	return func(c *AdmissionController) {
		c.observer = o
	}
}

// WithLogger sets the logger used for debug output. Default: slog.Default().
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *AdmissionController) {
		c.logger = l
	}
}

// NewAdmissionController creates an idle controller.
func NewAdmissionController(opts ...ControllerOption) *AdmissionController {
	c := &AdmissionController{
		policy: PolicyRelaxed,
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.mu.pending = newPendingQueue()
	c.mu.executing = make(map[string]executingOp)
	return c
}

// Policy returns the configured admission policy.
func (c *AdmissionController) Policy() Policy {
	return c.policy
}

// Submit appends an operation to the pending queue and runs an admission
// pass. The returned ticket may already be granted.
func (c *AdmissionController) Submit(kind Kind) *Ticket {
	op := newOperation(c.ids.Generate(), kind)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.mu.pending.push(op)
	c.emitLocked(Event{Type: EventSubmitted, ID: op.ID, Kind: op.Kind})
	c.admitLocked()

	return &Ticket{op: op}
}

// SubmitAll appends operations that arrive together, in order, and runs a
// single admission pass once all of them are queued. On an idle controller
// this lets reads followed by a write start as one batch, which sequential
// Submit calls cannot do: the first Submit is granted before the second is
// queued.
func (c *AdmissionController) SubmitAll(kinds ...Kind) []*Ticket {
	tickets := make([]*Ticket, len(kinds))
	ops := make([]*Operation, len(kinds))
	for i, kind := range kinds {
		ops[i] = newOperation(c.ids.Generate(), kind)
		tickets[i] = &Ticket{op: ops[i]}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, op := range ops {
		c.mu.pending.push(op)
		c.emitLocked(Event{Type: EventSubmitted, ID: op.ID, Kind: op.Kind})
	}
	c.admitLocked()

	return tickets
}

// Release removes a granted operation from the executing set. When the set
// drains, the next admission pass runs immediately.
//
// Panics if id is not executing: a double release means the caller lost
// track of its slot.
func (c *AdmissionController) Release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.mu.executing[id]
	if !ok {
		panic(fmt.Errorf("release %s: %w", id, ErrUnknownOperation))
	}
	delete(c.mu.executing, id)
	c.emitLocked(Event{Type: EventReleased, ID: id, Kind: e.op.Kind, Batch: e.batch})

	if len(c.mu.executing) == 0 {
		c.admitLocked()
	}
}

// Stats returns the current queue and executing-set sizes.
func (c *AdmissionController) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Pending:   c.mu.pending.len(),
		Executing: len(c.mu.executing),
		Batches:   c.mu.batches,
	}
}

// admitLocked runs one admission pass. It does nothing while any operation
// is executing: the last release of the current batch starts the next pass.
func (c *AdmissionController) admitLocked() {
	if len(c.mu.executing) > 0 {
		return
	}

	batch := c.mu.batches + 1
	admitted := 0
	for {
		head, ok := c.mu.pending.peek()
		if !ok {
			break
		}
		if head.Kind == KindWrite && admitted > 0 && c.policy == PolicyExclusive {
			break
		}

		c.mu.pending.pop()
		c.mu.executing[head.ID] = executingOp{op: head, batch: batch}
		admitted++
		close(head.granted)
		c.emitLocked(Event{Type: EventGranted, ID: head.ID, Kind: head.Kind, Batch: batch})

		if head.Kind == KindWrite {
			break
		}
	}

	if admitted > 0 {
		c.mu.batches = batch
		c.logger.Debug("admission batch granted",
			"batch", batch,
			"size", admitted,
			"pending", c.mu.pending.len(),
		)
	}
}

func (c *AdmissionController) emitLocked(e Event) {
	if c.observer != nil {
		c.observer(e)
	}
}
