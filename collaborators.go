package mlfqsched

// Clock reports the kernel's monotonic tick counter (now_ticks in spec §6).
type Clock interface {
	NowTicks() int64
}

// ClockFunc adapts a plain function to a Clock.
type ClockFunc func() int64

// NowTicks implements Clock.
func (f ClockFunc) NowTicks() int64 { return f() }

// Alarm requests the quantum timer be enabled or disabled
// (alarm.set_enabled in spec §6). It drives L3's round-robin preemption;
// L1/L2 preemption is event-driven and never touches the alarm.
type Alarm interface {
	SetEnabled(enabled bool)
}

// AlarmFunc adapts a plain function to an Alarm.
type AlarmFunc func(enabled bool)

// SetEnabled implements Alarm.
func (f AlarmFunc) SetEnabled(enabled bool) { f(enabled) }

// Switcher performs the machine-level stack/register swap (machine_switch
// in spec §6). It must return on old when old is next dispatched; the
// scheduler never inspects what happens inside it.
type Switcher interface {
	Switch(old, next *Thread)
}

// SwitcherFunc adapts a plain function to a Switcher.
type SwitcherFunc func(old, next *Thread)

// Switch implements Switcher.
func (f SwitcherFunc) Switch(old, next *Thread) { f(old, next) }

// AddressSpace is the optional, thread-owned user-address-space state
// referenced by spec §6 (thread.space.save/restore). A Thread with a nil
// Space is assumed to be kernel-only (no user state to save/restore).
type AddressSpace interface {
	Save()
	Restore()
}

// StackChecker checks a thread's kernel stack overflow sentinel
// (thread.check_overflow in spec §6). A failed check is a contract
// violation and must panic; the scheduler treats a non-panicking return as
// "ok".
type StackChecker interface {
	CheckOverflow(t *Thread)
}

// StackCheckerFunc adapts a plain function to a StackChecker.
type StackCheckerFunc func(t *Thread)

// CheckOverflow implements StackChecker.
func (f StackCheckerFunc) CheckOverflow(t *Thread) { f(t) }

// Destroyer releases a terminated thread's kernel stack and descriptor
// (the out-of-scope thread-teardown mechanism referenced by spec §1/§4.6).
type Destroyer interface {
	Destroy(t *Thread)
}

// DestroyerFunc adapts a plain function to a Destroyer.
type DestroyerFunc func(t *Thread)

// Destroy implements Destroyer.
func (f DestroyerFunc) Destroy(t *Thread) { f(t) }

// InterruptStatus reports whether interrupts are currently enabled
// (interrupt_level() in spec §6). Every scheduling operation (ReadyToRun,
// PeekNext, FindNextToRun, Run, CheckToBeDestroyed, CheckPreempt, Tick)
// asserts this returns false on entry; Current, String, Print, and the
// With* setters do not check it.
type InterruptStatus func() bool
