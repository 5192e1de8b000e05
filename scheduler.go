package mlfqsched

import (
	"fmt"
	"io"
)

// selectionOrder is the band precedence used by FindNextToRun/PeekNext:
// L1 strictly dominates L2 strictly dominates L3 (spec §4.2, §5).
var selectionOrder = [3]Band{BandL1, BandL2, BandL3}

// Scheduler is the multi-level feedback thread scheduler of spec §2-§6. It
// holds no internal lock: every exported method must be called with the
// kernel's interrupts disabled (checked via InterruptStatus), and none of
// them perform I/O or block, per spec §5.
type Scheduler struct {
	bands [3]*band // indexed by Band: BandL3=0, BandL2=1, BandL1=2

	current           *Thread
	lastRunning       *Thread
	toBeDestroyed     *Thread
	enablePreemptOnce bool

	clock           Clock
	alarm           Alarm
	switcher        Switcher
	stackChecker    StackChecker
	destroyer       Destroyer
	interruptStatus InterruptStatus

	cfg *schedulerConfig
}

// NewScheduler constructs a Scheduler bound to the given collaborators.
// clock and alarm are required (they drive every tick/selection decision);
// switcher, stackChecker, and destroyer may be nil only in test harnesses
// that never call Run/CheckToBeDestroyed against a real dispatch path.
// interruptStatus may be nil, which disables the interrupts-disabled
// assertion (only appropriate for single-threaded unit tests).
func NewScheduler(clock Clock, alarm Alarm, opts ...SchedulerOption) *Scheduler {
	if clock == nil {
		panic("mlfqsched: NewScheduler: clock must not be nil")
	}
	if alarm == nil {
		panic("mlfqsched: NewScheduler: alarm must not be nil")
	}
	s := &Scheduler{
		clock: clock,
		alarm: alarm,
		cfg:   resolveSchedulerOptions(opts),
	}
	s.bands[BandL3] = newBand(BandL3)
	s.bands[BandL2] = newBand(BandL2)
	s.bands[BandL1] = newBand(BandL1)
	return s
}

// WithSwitcher sets the Switcher collaborator used by Run. Returns s for
// chaining at construction time.
func (s *Scheduler) WithSwitcher(sw Switcher) *Scheduler { s.switcher = sw; return s }

// WithStackChecker sets the StackChecker collaborator used by Run.
func (s *Scheduler) WithStackChecker(c StackChecker) *Scheduler { s.stackChecker = c; return s }

// WithDestroyer sets the Destroyer collaborator used by CheckToBeDestroyed.
func (s *Scheduler) WithDestroyer(d Destroyer) *Scheduler { s.destroyer = d; return s }

// WithInterruptStatus sets the collaborator asserted against on entry to
// every scheduling operation (see InterruptStatus).
func (s *Scheduler) WithInterruptStatus(f InterruptStatus) *Scheduler {
	s.interruptStatus = f
	return s
}

// Current returns the currently RUNNING thread, or nil if the CPU is idle.
func (s *Scheduler) Current() *Thread { return s.current }

func (s *Scheduler) bandFor(level Band) *band { return s.bands[level] }

// ReadyToRun admits t into the Ready-Set (spec §4.1). t must not be
// TERMINATED, and must not be RUNNING on a thread other than the one this
// Scheduler considers current.
func (s *Scheduler) ReadyToRun(t *Thread) {
	assertInterruptsDisabled(s.interruptStatus)
	assertf(t != nil, "ReadyToRun: thread must not be nil")
	assertf(t.Status != StatusTerminated, "ReadyToRun: thread id=%d is TERMINATED", t.ID)
	assertf(!(t.Status == StatusRunning && t != s.current), "ReadyToRun: thread id=%d is RUNNING elsewhere", t.ID)

	now := s.clock.NowTicks()
	wasCurrent := t == s.current

	// Step 2: the predictor MUST be updated before placement, so L1
	// ordering uses the fresh value. Per the literal spec text and the
	// decision recorded in DESIGN.md ("Open question decisions" #2), this
	// only fires for the self-yield case: thread t re-admitting itself as
	// the thread that was current.
	if wasCurrent {
		raw := 0.5*float64(t.AccumBurst) + 0.5*t.PredictedBurst
		t.PredictedBurst = predictNextBurst(t.AccumBurst, t.PredictedBurst)
		if raw < 0 {
			s.cfg.logger.predictorClamped(t.ID, raw)
		}
	}

	// Step 1
	t.Status = StatusReady
	t.WaitStartTick = now

	if wasCurrent {
		// t is current being re-admitted (voluntary yield, quantum expiry,
		// or event-driven preemption). Invariant 3 forbids current from
		// also sitting in a ready queue, so current is cleared here, but
		// Run's "old" (the outgoing thread) must still be derivable from
		// this exact thread, not re-read from s.current, which by then may
		// have already been reassigned to t itself (the sole-ready-thread
		// re-select case) or simply be nil. Stash it in lastRunning, which
		// Run consumes in place of s.current when the latter is nil.
		s.lastRunning = t
		s.current = nil
	}

	// Step 3/4: place by band, in sorted position.
	lvl := bandOf(t.Priority)
	s.bandFor(lvl).insert(t)
	s.cfg.tracer.Inserted(now, t.ID, lvl)

	// Step 5: pending preemption check, only when some OTHER thread is
	// (still) running.
	if (lvl == BandL1 || lvl == BandL2) && !wasCurrent {
		s.enablePreemptOnce = true
	}
}

// peekBand returns the head of a single band without removing it.
func (s *Scheduler) peekBand(lvl Band) (*Thread, bool) {
	b := s.bandFor(lvl)
	if b.q.Len() == 0 {
		return nil, false
	}
	return b.q.Get(0), true
}

// PeekNext returns the thread FindNextToRun would select, without removing
// it from its queue (spec §4.2), or (nil, false) if all three queues are
// empty.
func (s *Scheduler) PeekNext() (*Thread, bool) {
	assertInterruptsDisabled(s.interruptStatus)
	for _, lvl := range selectionOrder {
		if t, ok := s.peekBand(lvl); ok {
			return t, true
		}
	}
	return nil, false
}

// FindNextToRun removes and returns the head of the highest non-empty band,
// in the order L1 -> L2 -> L3 (spec §4.2), or (nil, false) if all three
// queues are empty — the idle-loop sentinel, which the caller must handle.
func (s *Scheduler) FindNextToRun() (*Thread, bool) {
	assertInterruptsDisabled(s.interruptStatus)
	for _, lvl := range selectionOrder {
		b := s.bandFor(lvl)
		if b.q.Len() == 0 {
			continue
		}
		t := b.q.PopFront()
		s.cfg.tracer.Removed(s.clock.NowTicks(), t.ID, lvl)
		if lvl == BandL3 {
			s.alarm.SetEnabled(true)
		} else {
			s.alarm.SetEnabled(false)
		}
		return t, true
	}
	return nil, false
}

// Run performs the dispatch handoff of spec §4.5: old (the current thread on
// entry) is replaced by next. finishing indicates old has just terminated;
// its caller must already have set old.Status to READY, BLOCKED, or
// TERMINATED before calling Run. next must have been returned by
// FindNextToRun, or otherwise be a thread not currently queued anywhere.
func (s *Scheduler) Run(next *Thread, finishing bool) {
	assertInterruptsDisabled(s.interruptStatus)
	assertf(next != nil, "Run: next must not be nil")

	// old is the thread being replaced. It is read from s.current for a
	// thread that terminated without going through ReadyToRun (finishing);
	// for every re-admission path (voluntary yield, L3 quantum expiry,
	// event-driven preemption) ReadyToRun already nulled s.current and
	// stashed the outgoing thread in lastRunning (see ReadyToRun), since
	// that thread may already be back in a ready queue, or even be next
	// itself when it is the sole ready thread. Falling back to s.current
	// alone would make old nil in exactly those common cases, silently
	// skipping Switch/Space.Save/CheckOverflow/Replaced for every yield and
	// preemption.
	old := s.current
	if old == nil {
		old = s.lastRunning
	}
	s.lastRunning = nil
	now := s.clock.NowTicks()

	s.enablePreemptOnce = false // cleared unconditionally on dispatch, §4.3

	if finishing {
		assertf(s.toBeDestroyed == nil, "Run: to_be_destroyed slot already occupied by thread id=%d", s.toBeDestroyed.idOrNeg1())
		s.toBeDestroyed = old
	}

	if old != nil {
		if old.Space != nil {
			old.Space.Save()
		}
		if s.stackChecker != nil {
			s.stackChecker.CheckOverflow(old)
		}
	}

	if old != nil {
		s.cfg.logger.dispatch(now, old.ID, next.ID)
		s.cfg.tracer.Replaced(now, old.ID, old.AccumBurst)
	}

	s.current = next
	next.Status = StatusRunning
	next.LastDispatchTick = now
	next.AccumBurst = 0
	s.cfg.tracer.Selected(now, next.ID)

	if s.switcher != nil {
		s.switcher.Switch(old, next)
	}

	// Control returns here only when some future dispatch selects old
	// again; reclamation happens on the dispatch that runs after a
	// finishing thread's successor, per spec §4.5 step 6.
	s.CheckToBeDestroyed()

	if old != nil && old.Space != nil {
		old.Space.Restore()
	}
}

// CheckToBeDestroyed reclaims the pending thread, if any (spec §4.6).
// Idempotent: calling it with no thread pending is a no-op.
func (s *Scheduler) CheckToBeDestroyed() {
	assertInterruptsDisabled(s.interruptStatus)
	if s.toBeDestroyed == nil {
		return
	}
	t := s.toBeDestroyed
	s.toBeDestroyed = nil
	if s.destroyer != nil {
		s.destroyer.Destroy(t)
	}
	s.cfg.logger.reclaimed(t.ID)
}

// evaluatePreemptTrigger implements spec §4.3(b)'s three rules, using
// PeekNext so that a single comparison covers all three: PeekNext always
// returns the highest non-empty band overall, which is exactly the
// relevant comparison point for whichever band current sits in.
func (s *Scheduler) evaluatePreemptTrigger() bool {
	if s.current == nil {
		return false
	}
	peek, ok := s.PeekNext()
	if !ok {
		return false
	}
	switch s.current.Band() {
	case BandL3:
		return peek.Band() == BandL1 || peek.Band() == BandL2
	case BandL2:
		return peek.Band() == BandL1
	case BandL1:
		return peek.Band() == BandL1 && peek.PredictedBurst < s.current.PredictedBurst
	default:
		return false
	}
}

// CheckPreempt evaluates both preemption triggers of spec §4.3 — (a) L3
// quantum expiry and (b) higher-band arrival, gated on enable_preempt_once
// — and, if either fires, performs the full re-admit-and-dispatch sequence
// itself (re-admitting current via ReadyToRun, selecting next via
// FindNextToRun, and calling Run), returning true iff a context switch
// happened. A kernel's interrupt-return / yield point (spec §4.3) should
// call this after any admission, and Tick calls it once per timer tick.
func (s *Scheduler) CheckPreempt() bool {
	assertInterruptsDisabled(s.interruptStatus)
	if s.current == nil {
		return false
	}

	quantumExpired := s.current.Band() == BandL3 && s.current.AccumBurst >= s.cfg.quantum
	eventTrigger := s.enablePreemptOnce && s.evaluatePreemptTrigger()

	if !quantumExpired && !eventTrigger {
		return false
	}

	s.enablePreemptOnce = false

	if quantumExpired {
		s.cfg.logger.quantumExpired(s.clock.NowTicks(), s.current.ID, s.current.AccumBurst)
	}

	old := s.current
	s.ReadyToRun(old)
	next, ok := s.FindNextToRun()
	if !ok {
		// unreachable: old was just admitted, so at least one queue is
		// non-empty.
		return false
	}
	s.Run(next, false)
	return true
}

// Tick is this repo's rendering of spec §2/§4.4's "a periodic tick drives
// the Aging Engine and the Preemption policy": it accounts one tick of
// execution against the running thread, runs the Aging Engine sweep (spec
// §4.4), and then evaluates CheckPreempt. It should be called once per
// timer interrupt by the kernel's interrupt handler, with interrupts
// already disabled. Returns true iff a preemptive dispatch occurred.
func (s *Scheduler) Tick() bool {
	assertInterruptsDisabled(s.interruptStatus)
	now := s.clock.NowTicks()
	if s.current != nil {
		s.current.AccumBurst++
	}
	s.runAging(now)
	return s.CheckPreempt()
}

// String dumps queue contents in order L1, L2, L3, with
// (id, priority, predicted_burst, accum_burst) tuples, per spec §6's
// debug print.
func (s *Scheduler) String() string {
	var buf []byte
	for _, lvl := range selectionOrder {
		buf = fmt.Appendf(buf, "%s:", lvl)
		for _, t := range s.bandFor(lvl).q.Slice() {
			buf = fmt.Appendf(buf, " (%d,%d,%.2f,%d)", t.ID, t.Priority, t.PredictedBurst, t.AccumBurst)
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}

// Print writes the same dump as String to w.
func (s *Scheduler) Print(w io.Writer) {
	_, _ = io.WriteString(w, s.String())
}
