package mlfqsched

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// schedLogger wraps the teacher pack's own structured-logging framework
// (logiface, https://github.com/joeycumines/logiface), used pack-wide for
// the same purpose this wraps it for: leveled, field-based, ambient
// observability of internal operation. It is deliberately distinct from
// Tracer: logging here may be sampled, rate-limited, or disabled entirely
// without affecting the compatibility-sensitive trace events of spec §6.
type schedLogger struct {
	l *logiface.Logger[*stumpy.Event]
}

// NewStumpyLogger returns a schedLogger backed by stumpy
// (github.com/joeycumines/stumpy), the teacher pack's in-house JSON
// logiface backend (logiface-stumpy/factory.go), writing to w at the given
// minimum level. Pass this to WithLogger.
func NewStumpyLogger(w io.Writer, level logiface.Level) *schedLogger {
	return &schedLogger{
		l: logiface.New[*stumpy.Event](
			logiface.WithLevel[*stumpy.Event](level),
			stumpy.WithStumpy(stumpy.WithWriter(w)),
		),
	}
}

// newNopSchedLogger returns a schedLogger with logging disabled, the
// default when WithLogger is not supplied.
func newNopSchedLogger() *schedLogger {
	return &schedLogger{l: logiface.New[*stumpy.Event]()}
}

func (s *schedLogger) agingBoost(tick int64, threadID, oldPriority, newPriority int, saturated bool) {
	if s == nil || s.l == nil {
		return
	}
	s.l.Debug().
		Int64("tick", tick).
		Int("thread_id", threadID).
		Int("old_priority", oldPriority).
		Int("new_priority", newPriority).
		Bool("saturated", saturated).
		Log("aging: priority boosted")
}

func (s *schedLogger) quantumExpired(tick int64, threadID int, executedTicks int64) {
	if s == nil || s.l == nil {
		return
	}
	s.l.Debug().
		Int64("tick", tick).
		Int("thread_id", threadID).
		Int64("executed_ticks", executedTicks).
		Log("preempt: L3 quantum expired")
}

func (s *schedLogger) predictorClamped(threadID int, computed float64) {
	if s == nil || s.l == nil {
		return
	}
	s.l.Warning().
		Int("thread_id", threadID).
		Float64("computed", computed).
		Log("predictor: clamped negative burst estimate to 0")
}

func (s *schedLogger) dispatch(tick int64, fromID, toID int) {
	if s == nil || s.l == nil {
		return
	}
	s.l.Debug().
		Int64("tick", tick).
		Int("from_thread_id", fromID).
		Int("to_thread_id", toID).
		Log("dispatch: switching current thread")
}

func (s *schedLogger) reclaimed(threadID int) {
	if s == nil || s.l == nil {
		return
	}
	s.l.Debug().
		Int("thread_id", threadID).
		Log("reclaim: destroyed terminated thread")
}
