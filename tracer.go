package mlfqsched

import (
	"fmt"
	"io"
)

// Tracer receives the stable, compatibility-sensitive trace events of spec
// §6. These four events are the package's only compatibility-sensitive
// external output; unlike the ambient logiface logging wired into
// Scheduler, a Tracer is never buffered, leveled, or sampled.
type Tracer interface {
	Inserted(tick int64, threadID int, band Band)
	Removed(tick int64, threadID int, band Band)
	Selected(tick int64, threadID int)
	Replaced(tick int64, threadID int, executedTicks int64)
}

// NopTracer discards all trace events. Its zero value, NopTracer{}, is ready
// to use and is useful in tests that don't assert on trace output.
type NopTracer struct{}

func (NopTracer) Inserted(int64, int, Band)  {}
func (NopTracer) Removed(int64, int, Band)   {}
func (NopTracer) Selected(int64, int)        {}
func (NopTracer) Replaced(int64, int, int64) {}

// WriterTracer formats each trace event using the exact strings given in
// spec §6, one per line, and writes them to W.
type WriterTracer struct {
	W io.Writer
}

// NewWriterTracer returns a WriterTracer writing to w.
func NewWriterTracer(w io.Writer) *WriterTracer {
	return &WriterTracer{W: w}
}

func (x *WriterTracer) Inserted(tick int64, threadID int, band Band) {
	fmt.Fprintf(x.W, "Tick %d: Thread %d is inserted into queue L%d\n", tick, threadID, band.Num())
}

func (x *WriterTracer) Removed(tick int64, threadID int, band Band) {
	fmt.Fprintf(x.W, "Tick %d: Thread %d is removed from queue L%d\n", tick, threadID, band.Num())
}

func (x *WriterTracer) Selected(tick int64, threadID int) {
	fmt.Fprintf(x.W, "Tick %d: Thread %d is now selected for execution\n", tick, threadID)
}

func (x *WriterTracer) Replaced(tick int64, threadID int, executedTicks int64) {
	fmt.Fprintf(x.W, "Tick %d: Thread %d is replaced, and it has executed %d ticks\n", tick, threadID, executedTicks)
}
