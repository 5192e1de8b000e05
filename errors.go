package mlfqsched

import "fmt"

// assertInterruptsDisabled panics if interrupts are enabled, per the
// precondition restated on every exported Scheduler method (spec §5: "the
// scheduler holds no explicit lock; mutual exclusion is guaranteed by the
// precondition ... Violation is a hard assertion.").
func assertInterruptsDisabled(status InterruptStatus) {
	if status != nil && status() {
		panic("mlfqsched: contract violation: interrupts must be disabled on entry to every scheduler operation")
	}
}

func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("mlfqsched: %s", fmt.Sprintf(format, args...)))
	}
}
