package mlfqsched

// predictNextBurst computes the exponentially-smoothed estimate of a
// thread's next CPU burst, per spec §4.1 step 2:
//
//	T' = 0.5 * accumBurst + 0.5 * predictedBurst
//
// The result is clamped at 0 per spec §7 ("predictor underflow: clamped at
// 0"); accumBurst is never negative in practice, but predictedBurst is
// caller-suppliable (e.g. via Thread literal construction), so the clamp is
// kept here rather than assumed.
func predictNextBurst(accumBurst int64, predictedBurst float64) float64 {
	next := 0.5*float64(accumBurst) + 0.5*predictedBurst
	if next < 0 {
		return 0
	}
	return next
}
