// Package access schedules concurrent reads and writes against a shared
// persistence container.
//
// The store behind the container tolerates any number of concurrent readers
// but must never see two writers at once. Every caller goes through a Facade,
// which asks the admission controller for a slot, runs the caller's block
// against a fresh per-operation context and hands the slot back.
//
// # Admission
//
// Operations wait in a FIFO queue. Whenever the executing set is empty the
// controller runs an admission pass: it pops operations from the head,
// granting each one, and keeps going while they are reads. The first write it
// grants ends the pass. The set of operations granted in one pass is a batch,
// and nothing else is admitted until the whole batch has released.
//
// Under PolicyRelaxed (the default) a write that ends a batch runs alongside
// the reads granted before it in that batch. It is isolated from other writes
// and from everything queued behind it, not from those reads. PolicyExclusive
// refuses to place a write behind reads in the same batch, so a write always
// runs alone.
//
// # Failure
//
// The controller does no I/O and cannot fail. The facade releases every
// granted operation exactly once, whether the block returned an error,
// succeeded or panicked, so one failing block never stalls the queue.
// Releasing an operation twice is a programming error and panics.
package access
