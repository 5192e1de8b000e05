package mlfqsched

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is an injectable Clock for deterministic tests.
type fakeClock struct{ t int64 }

func (c *fakeClock) NowTicks() int64 { return c.t }
func (c *fakeClock) advance(n int64) { c.t += n }

// fakeAlarm records every SetEnabled call.
type fakeAlarm struct {
	enabled bool
	calls   []bool
}

func (a *fakeAlarm) SetEnabled(e bool) {
	a.enabled = e
	a.calls = append(a.calls, e)
}

// fakeSwitcher records every Switch call's old/next thread IDs, using -1 for
// a nil thread so a recorded call is still distinguishable from "no call".
type fakeSwitcher struct {
	calls [][2]int
}

func (sw *fakeSwitcher) Switch(old, next *Thread) {
	sw.calls = append(sw.calls, [2]int{old.idOrNeg1(), next.idOrNeg1()})
}

// fakeStackChecker records the ID of every thread passed to CheckOverflow.
type fakeStackChecker struct {
	checked []int
}

func (c *fakeStackChecker) CheckOverflow(t *Thread) {
	c.checked = append(c.checked, t.idOrNeg1())
}

// fakeAddressSpace records Save/Restore calls in order ("save"/"restore").
type fakeAddressSpace struct {
	calls []string
}

func (a *fakeAddressSpace) Save()    { a.calls = append(a.calls, "save") }
func (a *fakeAddressSpace) Restore() { a.calls = append(a.calls, "restore") }

func noInterrupts() bool { return false }

func newTestThread(id, priority int, predicted float64) *Thread {
	return &Thread{ID: id, Priority: priority, PredictedBurst: predicted, Status: StatusNew}
}

func newTestScheduler(clk *fakeClock, opts ...SchedulerOption) *Scheduler {
	s := NewScheduler(clk, &fakeAlarm{}, opts...)
	s.WithInterruptStatus(noInterrupts)
	return s
}

// dispatchIdle performs the first dispatch of the test, when current is nil.
func dispatchIdle(t *testing.T, s *Scheduler) *Thread {
	t.Helper()
	next, ok := s.FindNextToRun()
	require.True(t, ok)
	s.Run(next, false)
	return next
}

func TestScheduler_L3_FIFO(t *testing.T) {
	// Scenario 1: Admit A(pri=30), B(pri=40), C(pri=20) at t=0;
	// find_next_to_run yields A, then B, then C.
	clk := &fakeClock{}
	s := newTestScheduler(clk)

	a := newTestThread(1, 30, 0)
	b := newTestThread(2, 40, 0)
	c := newTestThread(3, 20, 0)
	s.ReadyToRun(a)
	s.ReadyToRun(b)
	s.ReadyToRun(c)

	var order []int
	for {
		th, ok := s.FindNextToRun()
		if !ok {
			break
		}
		order = append(order, th.ID)
	}
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestScheduler_L2_PriorityOrder(t *testing.T) {
	// Scenario 2: Admit A(pri=60), B(pri=80), C(pri=70); selection order B, C, A.
	clk := &fakeClock{}
	s := newTestScheduler(clk)

	a := newTestThread(1, 60, 0)
	b := newTestThread(2, 80, 0)
	c := newTestThread(3, 70, 0)
	s.ReadyToRun(a)
	s.ReadyToRun(b)
	s.ReadyToRun(c)

	var order []int
	for {
		th, ok := s.FindNextToRun()
		if !ok {
			break
		}
		order = append(order, th.ID)
	}
	assert.Equal(t, []int{2, 3, 1}, order)
}

func TestScheduler_L2_FIFOTieBreak(t *testing.T) {
	clk := &fakeClock{}
	s := newTestScheduler(clk)

	a := newTestThread(1, 70, 0)
	b := newTestThread(2, 70, 0)
	c := newTestThread(3, 70, 0)
	s.ReadyToRun(a)
	s.ReadyToRun(b)
	s.ReadyToRun(c)

	var order []int
	for {
		th, ok := s.FindNextToRun()
		if !ok {
			break
		}
		order = append(order, th.ID)
	}
	assert.Equal(t, []int{1, 2, 3}, order, "equal priorities must preserve admission order")
}

func TestScheduler_L1_ShortestBurstAndPredictorRecompute(t *testing.T) {
	// Scenario 3: Admit A(pri=120,T=50), B(pri=130,T=10), C(pri=100,T=30);
	// selection order B, C, A. After A runs 20 ticks and yields, its new
	// T = 0.5*20 + 0.5*50 = 35; re-admitted into L1, A now sits between C
	// and the previous tail (there is no tail left here but the ordering
	// key is what's being checked).
	clk := &fakeClock{}
	s := newTestScheduler(clk)

	a := newTestThread(1, 120, 50)
	b := newTestThread(2, 130, 10)
	c := newTestThread(3, 100, 30)
	s.ReadyToRun(a)
	s.ReadyToRun(b)
	s.ReadyToRun(c)

	first, ok := s.FindNextToRun()
	require.True(t, ok)
	assert.Equal(t, 2, first.ID) // B, T=10

	second, ok := s.FindNextToRun()
	require.True(t, ok)
	assert.Equal(t, 3, second.ID) // C, T=30

	third, ok := s.FindNextToRun()
	require.True(t, ok)
	assert.Equal(t, 1, third.ID) // A, T=50

	_, ok = s.FindNextToRun()
	require.False(t, ok)

	// Dispatch A alone, simulate it accumulating 20 ticks, and yield: its
	// new T = 0.5*20 + 0.5*50 = 35.
	clk2 := &fakeClock{}
	s2 := newTestScheduler(clk2)
	a2 := newTestThread(1, 120, 50)
	s2.ReadyToRun(a2)
	dispatchIdle(t, s2)
	a2.AccumBurst = 20
	s2.ReadyToRun(a2)
	assert.Equal(t, 35.0, a2.PredictedBurst)
}

func TestScheduler_PreemptionByHigherBandArrival(t *testing.T) {
	// Scenario 4: At t=0 admit A(pri=20); dispatch A. At t=200 admit
	// B(pri=90). On the next trigger, A is preempted and re-admitted to
	// L3; B runs next.
	clk := &fakeClock{}
	var buf bytes.Buffer
	s := newTestScheduler(clk, WithTracer(NewWriterTracer(&buf)))

	a := newTestThread(1, 20, 0)
	s.ReadyToRun(a)
	dispatchIdle(t, s)
	require.Equal(t, a, s.Current())

	clk.advance(200)
	a.AccumBurst = 37
	b := newTestThread(2, 90, 0)
	s.ReadyToRun(b)

	preempted := s.CheckPreempt()
	assert.True(t, preempted)
	assert.Equal(t, b, s.Current())

	// A must have been re-admitted to L3, not lost.
	next, ok := s.FindNextToRun()
	require.True(t, ok)
	assert.Equal(t, a.ID, next.ID)

	// The outgoing thread (A) must be traced as replaced, with its
	// accumulated ticks, even though this is a preemption and not a
	// termination: one of the four compatibility-sensitive trace strings.
	assert.Contains(t, buf.String(), "Tick 200: Thread 1 is replaced, and it has executed 37 ticks")
}

func TestScheduler_L3QuantumExpiry(t *testing.T) {
	// Scenario 5: with only A(pri=10) ready and quantum=100, A is
	// preempted every 100 ticks and re-admitted to the tail of L3; being
	// the sole thread, it is re-selected immediately.
	clk := &fakeClock{}
	var buf bytes.Buffer
	s := newTestScheduler(clk, WithTracer(NewWriterTracer(&buf)))
	sw := &fakeSwitcher{}
	s.WithSwitcher(sw)

	a := newTestThread(1, 10, 0)
	s.ReadyToRun(a)
	dispatchIdle(t, s)

	var preemptedAt = -1
	for i := 0; i < 100; i++ {
		clk.advance(1)
		if s.Tick() {
			preemptedAt = i
			break
		}
	}
	require.Equal(t, 99, preemptedAt, "quantum expiry must fire on the 100th tick")
	assert.Equal(t, a, s.Current(), "sole thread is re-selected immediately")
	assert.Equal(t, int64(0), a.AccumBurst, "accum_burst resets at dispatch")

	// Even though old and next are the same thread here (the sole ready
	// thread re-selecting itself), the outgoing thread must still be
	// threaded through Switch and traced as replaced with its full
	// quantum's worth of accumulated ticks, not silently dropped as nil.
	assert.Contains(t, buf.String(), "Tick 100: Thread 1 is replaced, and it has executed 100 ticks")
	require.NotEmpty(t, sw.calls)
	assert.Equal(t, [2]int{1, 1}, sw.calls[len(sw.calls)-1], "Switch must receive the real outgoing thread, not nil")
}

func TestScheduler_Run_ThreadsOutgoingThreadThroughCollaborators(t *testing.T) {
	// A voluntary yield (spec §4.3(c)) must still pass the real outgoing
	// thread to Switch/CheckOverflow/Space.Save/Replaced, not nil: old is
	// not reachable from s.current alone once ReadyToRun has re-admitted it.
	clk := &fakeClock{}
	var buf bytes.Buffer
	s := newTestScheduler(clk, WithTracer(NewWriterTracer(&buf)))
	sw := &fakeSwitcher{}
	sc := &fakeStackChecker{}
	s.WithSwitcher(sw)
	s.WithStackChecker(sc)

	space := &fakeAddressSpace{}
	a := newTestThread(1, 10, 0) // L3
	a.Space = space
	b := newTestThread(2, 60, 0) // L2: dominates a's re-admitted L3 slot

	s.ReadyToRun(a)
	dispatchIdle(t, s) // a becomes current; sw sees (nil, a) for the idle dispatch

	clk.advance(42)
	a.AccumBurst = 42

	// Voluntary yield: a re-admits itself into L3, b is freshly admitted
	// into L2 and dominates at selection.
	s.ReadyToRun(a)
	s.ReadyToRun(b)
	next, ok := s.FindNextToRun()
	require.True(t, ok)
	require.Equal(t, b, next)
	s.Run(next, false)

	require.Len(t, sw.calls, 2)
	assert.Equal(t, [2]int{1, 2}, sw.calls[1], "Switch must be called with (a, b), not (nil, b)")
	// CheckOverflow only runs when there is an outgoing thread: the first
	// (idle) dispatch has none, so exactly one call is expected here, for a.
	require.Len(t, sc.checked, 1)
	assert.Equal(t, 1, sc.checked[0], "CheckOverflow must run against the yielding thread a, not be skipped")
	assert.Equal(t, []string{"save", "restore"}, space.calls,
		"a's address space must be saved on yield and restored when Switch returns to a")
	assert.Contains(t, buf.String(), "Tick 42: Thread 1 is replaced, and it has executed 42 ticks")
}

func TestScheduler_AgingCrossesBandBoundaryAndTriggersPreemption(t *testing.T) {
	// Adapted from scenario 6: aging must migrate a waiting thread across
	// a band boundary and make it eligible to preempt whatever is
	// currently running in a lower band. See DESIGN.md for why this test
	// uses an L3 current rather than literally reproducing scenario 6's
	// L1-current narrative, which is unreachable under §4.3(b)'s literal
	// sub-rules (only another L1 arrival can preempt an L1 current).
	clk := &fakeClock{}
	s := newTestScheduler(clk)

	lo := newTestThread(2, 10, 0)
	hi := newTestThread(1, 45, 0)
	s.ReadyToRun(lo)
	dispatchIdle(t, s) // lo becomes current, in L3

	s.ReadyToRun(hi) // hi waits in L3 behind nothing (lo is current, not queued)

	// Tick combines the Aging sweep and the Preemption check (§2, §4.4):
	// the moment aging pushes hi across the L2 boundary, the same call's
	// preemption check sees it and preempts lo.
	clk.t = 1500
	preempted := s.Tick()
	assert.True(t, preempted)
	assert.Equal(t, 55, hi.Priority)
	assert.Equal(t, hi, s.Current())
}

func TestScheduler_CheckToBeDestroyed_Idempotent(t *testing.T) {
	clk := &fakeClock{}
	var destroyedIDs []int
	s := newTestScheduler(clk)
	s.WithDestroyer(DestroyerFunc(func(t *Thread) { destroyedIDs = append(destroyedIDs, t.ID) }))

	a := newTestThread(1, 10, 0)
	b := newTestThread(2, 10, 0)
	s.ReadyToRun(a)
	dispatchIdle(t, s)

	s.ReadyToRun(b)
	a.Status = StatusTerminated
	next, ok := s.FindNextToRun()
	require.True(t, ok)
	s.Run(next, true) // a finishes, b becomes current; reclamation happens inside Run

	assert.Equal(t, []int{1}, destroyedIDs)

	// Idempotent: calling again with nothing pending is a no-op.
	s.CheckToBeDestroyed()
	assert.Equal(t, []int{1}, destroyedIDs)
}

func TestScheduler_PlaceThenSelectOnlyThread(t *testing.T) {
	// Round-trip law: placing then immediately selecting the only ready
	// thread returns that thread and leaves all queues empty.
	clk := &fakeClock{}
	s := newTestScheduler(clk)

	a := newTestThread(1, 75, 0)
	s.ReadyToRun(a)

	got, ok := s.FindNextToRun()
	require.True(t, ok)
	assert.Equal(t, a, got)

	_, ok = s.PeekNext()
	assert.False(t, ok)
}

func TestScheduler_FindNextToRun_TogglesAlarm(t *testing.T) {
	clk := &fakeClock{}
	alarm := &fakeAlarm{}
	s := NewScheduler(clk, alarm)
	s.WithInterruptStatus(noInterrupts)

	l3 := newTestThread(1, 10, 0)
	s.ReadyToRun(l3)
	_, ok := s.FindNextToRun()
	require.True(t, ok)
	assert.True(t, alarm.enabled, "returning from L3 enables the quantum alarm")

	s.Run(l3, false)
	l1 := newTestThread(2, 120, 0)
	s.ReadyToRun(l1)
	_, ok = s.FindNextToRun()
	require.True(t, ok)
	assert.False(t, alarm.enabled, "returning from L1 disables the quantum alarm")
}

func TestScheduler_PredictorClampedAtZero(t *testing.T) {
	assert.Equal(t, 0.0, predictNextBurst(0, 0))
	assert.Equal(t, 10.0, predictNextBurst(20, 0))
	// Stability law: if accum_burst == T then T' == T.
	assert.Equal(t, 12.5, predictNextBurst(12, 13)) // sanity: not stable when unequal
	assert.Equal(t, 7.0, predictNextBurst(7, 7))
	// Clamp: 0.5*4 + 0.5*(-10) = -3, clamped to 0.
	assert.Equal(t, 0.0, predictNextBurst(4, -10))
}

func TestScheduler_InterruptsEnabledPanics(t *testing.T) {
	clk := &fakeClock{}
	s := NewScheduler(clk, &fakeAlarm{})
	s.WithInterruptStatus(func() bool { return true })

	assert.Panics(t, func() {
		s.ReadyToRun(newTestThread(1, 10, 0))
	})
}

func TestScheduler_ReadyToRun_RejectsTerminated(t *testing.T) {
	clk := &fakeClock{}
	s := newTestScheduler(clk)
	a := newTestThread(1, 10, 0)
	a.Status = StatusTerminated
	assert.Panics(t, func() { s.ReadyToRun(a) })
}

func TestScheduler_String_DumpsAllBands(t *testing.T) {
	clk := &fakeClock{}
	s := newTestScheduler(clk)
	s.ReadyToRun(newTestThread(1, 120, 5))
	s.ReadyToRun(newTestThread(2, 60, 0))
	s.ReadyToRun(newTestThread(3, 10, 0))

	out := s.String()
	assert.Contains(t, out, "L1:")
	assert.Contains(t, out, "L2:")
	assert.Contains(t, out, "L3:")
	assert.Contains(t, out, "(1,120,5.00,0)")
}

func TestScheduler_Tracer_EmitsStableStrings(t *testing.T) {
	clk := &fakeClock{}
	var buf bytes.Buffer
	s := newTestScheduler(clk, WithTracer(NewWriterTracer(&buf)))

	a := newTestThread(7, 10, 0)
	s.ReadyToRun(a)
	assert.Contains(t, buf.String(), "Tick 0: Thread 7 is inserted into queue L3")

	next, ok := s.FindNextToRun()
	require.True(t, ok)
	assert.Contains(t, buf.String(), "Tick 0: Thread 7 is removed from queue L3")

	s.Run(next, false)
	assert.Contains(t, buf.String(), "Tick 0: Thread 7 is now selected for execution")
}
