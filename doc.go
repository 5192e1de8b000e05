// Package mlfqsched implements a multi-level feedback thread scheduler for a
// uniprocessor instructional operating-system kernel.
//
// It decides which runnable thread next receives the CPU, when a running
// thread should be preempted, and how the priorities of waiting threads age
// over time so that no runnable thread is indefinitely starved. The
// scheduler is a pure data structure plus policy: it performs no I/O, starts
// no goroutines, and holds no internal lock. Every scheduling operation must
// be called with the kernel's interrupts disabled, exactly as a real kernel
// scheduler would require; this is checked via the InterruptStatus
// collaborator and violations panic.
//
// Three disjoint queues hold READY threads, banded by priority:
//
//	L1 (priority >= 100): ordered by ascending predicted CPU burst
//	L2 (50 <= priority < 100): ordered by descending priority
//	L3 (priority < 50): strict FIFO, round-robin with a fixed quantum
//
// Thread creation/teardown, address-space save/restore, timer-interrupt
// generation, and the machine-dependent register swap are out of scope, and
// are referenced only through the Clock, Alarm, Switcher, AddressSpace,
// StackChecker, and Destroyer interfaces.
package mlfqsched
