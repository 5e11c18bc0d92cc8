package access

import (
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isGranted(t *Ticket) bool {
	select {
	case <-t.Granted():
		return true
	default:
		return false
	}
}

func newTestController(opts ...ControllerOption) *AdmissionController {
	opts = append([]ControllerOption{WithIDGenerator(NewSequenceGenerator("op"))}, opts...)
	return NewAdmissionController(opts...)
}

func TestController_ReadsAdmittedTogether(t *testing.T) {
	c := newTestController()

	tickets := c.SubmitAll(KindRead, KindRead, KindRead, KindRead, KindRead)

	for i, tk := range tickets {
		assert.True(t, isGranted(tk), "read %d should be granted immediately", i)
	}
	assert.Equal(t, Stats{Pending: 0, Executing: 5, Batches: 1}, c.Stats())
}

func TestController_ScenarioA_WriteClosesBatch(t *testing.T) {
	c := newTestController()

	tk := c.SubmitAll(KindRead, KindRead, KindWrite, KindRead)
	r1, r2, w1, r3 := tk[0], tk[1], tk[2], tk[3]

	assert.True(t, isGranted(r1))
	assert.True(t, isGranted(r2))
	assert.True(t, isGranted(w1), "write closes the first batch")
	assert.False(t, isGranted(r3), "read behind the write waits for the next batch")

	c.Release(r1.ID())
	c.Release(r2.ID())
	assert.False(t, isGranted(r3), "batch has not drained yet")

	c.Release(w1.ID())
	assert.True(t, isGranted(r3))
	assert.Equal(t, uint64(2), c.Stats().Batches)

	c.Release(r3.ID())
	assert.Equal(t, Stats{Pending: 0, Executing: 0, Batches: 2}, c.Stats())
}

func TestController_ScenarioB_ReadWaitsForLoneWrite(t *testing.T) {
	c := newTestController()

	w1 := c.Submit(KindWrite)
	require.True(t, isGranted(w1))

	r1 := c.Submit(KindRead)
	assert.False(t, isGranted(r1))
	assert.Equal(t, 1, c.Stats().Pending)

	c.Release(w1.ID())
	assert.True(t, isGranted(r1))
	assert.Equal(t, uint64(2), c.Stats().Batches)
}

func TestController_BatchIsolation(t *testing.T) {
	c := newTestController()

	r1 := c.Submit(KindRead)
	require.True(t, isGranted(r1))

	// A read that could share with r1 still waits for r1's batch to drain.
	r2 := c.Submit(KindRead)
	assert.False(t, isGranted(r2))

	c.Release(r1.ID())
	assert.True(t, isGranted(r2))
}

func TestController_WritesNeverShareBatch(t *testing.T) {
	c := newTestController()

	w1 := c.Submit(KindWrite)
	w2 := c.Submit(KindWrite)

	assert.True(t, isGranted(w1))
	assert.False(t, isGranted(w2))

	c.Release(w1.ID())
	assert.True(t, isGranted(w2))
}

func TestController_FIFOAcrossBatches(t *testing.T) {
	var mu sync.Mutex
	var granted []string
	c := NewAdmissionController(
		WithIDGenerator(NewFixedGenerator("W0", "R1", "W1", "W2", "R2", "R3")),
		WithObserver(func(e Event) {
			if e.Type == EventGranted {
				mu.Lock()
				granted = append(granted, e.ID)
				mu.Unlock()
			}
		}),
	)

	w0 := c.Submit(KindWrite)
	r1 := c.Submit(KindRead)
	w1 := c.Submit(KindWrite)
	w2 := c.Submit(KindWrite)
	r2 := c.Submit(KindRead)
	r3 := c.Submit(KindRead)

	c.Release(w0.ID()) // batch 2: R1, W1
	c.Release(r1.ID())
	c.Release(w1.ID()) // batch 3: W2
	c.Release(w2.ID()) // batch 4: R2, R3
	c.Release(r2.ID())
	c.Release(r3.ID())

	assert.Equal(t, []string{"W0", "R1", "W1", "W2", "R2", "R3"}, granted)
	assert.Equal(t, uint64(4), c.Stats().Batches)
}

func TestController_ExclusivePolicy(t *testing.T) {
	c := newTestController(WithPolicy(PolicyExclusive))
	assert.Equal(t, PolicyExclusive, c.Policy())

	tk := c.SubmitAll(KindRead, KindRead, KindWrite, KindRead)
	r1, r2, w1, r3 := tk[0], tk[1], tk[2], tk[3]

	assert.True(t, isGranted(r1))
	assert.True(t, isGranted(r2))
	assert.False(t, isGranted(w1), "exclusive policy keeps the write out of a read batch")
	assert.False(t, isGranted(r3))

	c.Release(r1.ID())
	c.Release(r2.ID())
	assert.True(t, isGranted(w1))
	assert.False(t, isGranted(r3), "write runs alone")

	c.Release(w1.ID())
	assert.True(t, isGranted(r3))
	assert.Equal(t, uint64(3), c.Stats().Batches)
}

func TestController_ExclusivePolicy_WriteAtHeadRunsAlone(t *testing.T) {
	c := newTestController(WithPolicy(PolicyExclusive))

	w1 := c.Submit(KindWrite)
	r1 := c.Submit(KindRead)

	assert.True(t, isGranted(w1))
	assert.False(t, isGranted(r1))

	c.Release(w1.ID())
	assert.True(t, isGranted(r1))
}

func TestController_ReleaseUnknownPanics(t *testing.T) {
	c := newTestController()

	defer func() {
		r := recover()
		require.NotNil(t, r, "release of unknown operation should panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value should be an error")
		assert.True(t, errors.Is(err, ErrUnknownOperation))
	}()

	c.Release("missing")
}

func TestController_DoubleReleasePanics(t *testing.T) {
	c := newTestController()
	tk := c.Submit(KindRead)
	c.Release(tk.ID())

	assert.Panics(t, func() { c.Release(tk.ID()) })
}

func TestController_ObserverSeesTransitionsInOrder(t *testing.T) {
	var events []Event
	c := NewAdmissionController(
		WithIDGenerator(NewFixedGenerator("W1", "R1")),
		WithObserver(func(e Event) { events = append(events, e) }),
	)

	w1 := c.Submit(KindWrite)
	c.Submit(KindRead)
	c.Release(w1.ID())

	want := []Event{
		{Type: EventSubmitted, ID: "W1", Kind: KindWrite},
		{Type: EventGranted, ID: "W1", Kind: KindWrite, Batch: 1},
		{Type: EventSubmitted, ID: "R1", Kind: KindRead},
		{Type: EventReleased, ID: "W1", Kind: KindWrite, Batch: 1},
		{Type: EventGranted, ID: "R1", Kind: KindRead, Batch: 2},
	}
	assert.Equal(t, want, events)
}

func TestController_SequentialSubmitsDoNotJoinRunningBatch(t *testing.T) {
	c := newTestController()

	r1 := c.Submit(KindRead)
	r2 := c.Submit(KindRead)
	w1 := c.Submit(KindWrite)

	assert.True(t, isGranted(r1))
	assert.False(t, isGranted(r2))
	assert.False(t, isGranted(w1))

	// r2 and w1 queued behind r1 and form the next batch together.
	c.Release(r1.ID())
	assert.True(t, isGranted(r2))
	assert.True(t, isGranted(w1))
	assert.Equal(t, uint64(2), c.Stats().Batches)
}

func TestController_SubmitAllBehindRunningBatch(t *testing.T) {
	c := newTestController()

	w0 := c.Submit(KindWrite)
	tk := c.SubmitAll(KindRead, KindRead)
	assert.False(t, isGranted(tk[0]))
	assert.False(t, isGranted(tk[1]))
	assert.Equal(t, 2, c.Stats().Pending)

	c.Release(w0.ID())
	assert.True(t, isGranted(tk[0]))
	assert.True(t, isGranted(tk[1]))
	assert.Empty(t, c.SubmitAll())
}

func TestController_WaitReturnsAfterGrant(t *testing.T) {
	c := newTestController()

	w1 := c.Submit(KindWrite)
	w2 := c.Submit(KindWrite)

	done := make(chan struct{})
	go func() {
		w2.Wait()
		close(done)
	}()

	c.Release(w1.ID())
	<-done
	assert.True(t, isGranted(w2))
}

func TestController_ConcurrentSubmitters(t *testing.T) {
	for _, policy := range []Policy{PolicyRelaxed, PolicyExclusive} {
		t.Run(policy.String(), func(t *testing.T) {
			c := newTestController(WithPolicy(policy))

			var writers, readers atomic.Int32
			var violations atomic.Int32

			const workers = 16
			const perWorker = 50

			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(seed int64) {
					defer wg.Done()
					rng := rand.New(rand.NewSource(seed))
					for i := 0; i < perWorker; i++ {
						kind := KindRead
						if rng.Intn(3) == 0 {
							kind = KindWrite
						}
						tk := c.Submit(kind)
						tk.Wait()

						if kind == KindWrite {
							if writers.Add(1) > 1 {
								violations.Add(1)
							}
							if policy == PolicyExclusive && readers.Load() > 0 {
								violations.Add(1)
							}
							writers.Add(-1)
						} else {
							readers.Add(1)
							if policy == PolicyExclusive && writers.Load() > 0 {
								violations.Add(1)
							}
							readers.Add(-1)
						}
						c.Release(tk.ID())
					}
				}(int64(w))
			}
			wg.Wait()

			assert.Zero(t, violations.Load())
			assert.Equal(t, 0, c.Stats().Pending)
			assert.Equal(t, 0, c.Stats().Executing)
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyRelaxed, p)

	p, err = ParsePolicy("Exclusive")
	require.NoError(t, err)
	assert.Equal(t, PolicyExclusive, p)

	_, err = ParsePolicy("serial")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("READ")
	require.NoError(t, err)
	assert.Equal(t, KindRead, k)
	assert.Equal(t, "write", KindWrite.String())

	_, err = ParseKind("delete")
	assert.Error(t, err)
}

func TestFixedGenerator_Exhausted(t *testing.T) {
	gen := NewFixedGenerator("a")
	assert.Equal(t, "a", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("")
	assert.Equal(t, "op-1", gen.Generate())
	assert.Equal(t, "op-2", gen.Generate())
}

func TestUUIDv7Generator_Unique(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
