package mlfqsched

// runAging implements the Aging Engine of spec §4.4: every ready thread
// that has waited at least agingThreshold ticks since its wait_start_tick
// has its priority boosted by agingIncrement, saturating at maxPriority,
// and its wait_start_tick reset to now. A boost that crosses a band
// boundary migrates the thread to its new band's queue; one that does not
// may still require a re-sort (L2 is ordered by descending priority).
//
// current is never aged (it isn't in any band queue while running); a
// thread in one of the three band queues is READY by invariant, so no
// separate status check is required.
func (s *Scheduler) runAging(now int64) {
	for _, lvl := range selectionOrder {
		b := s.bandFor(lvl)
		threads := b.q.Slice()
		reorder := false
		for _, t := range threads {
			if now-t.WaitStartTick < s.cfg.agingThreshold {
				continue
			}
			old := t.Priority
			next := old + s.cfg.agingIncrement
			saturated := next >= s.cfg.maxPriority
			if saturated {
				next = s.cfg.maxPriority
			}
			t.Priority = next
			t.WaitStartTick = now
			s.cfg.logger.agingBoost(now, t.ID, old, next, saturated)

			newLvl := bandOf(next)
			if newLvl != lvl {
				b.remove(t)
				s.bandFor(newLvl).insert(t)
				// A migration into L1 or L2 is, in substance, the same
				// placement event §4.1 step 5 describes for admission;
				// extend the same pending-preemption-check flag to it so a
				// thread aged across a band boundary is noticed at the next
				// trigger point, per §4.4's rationale that aging is the
				// sole starvation-prevention mechanism.
				if newLvl == BandL1 || newLvl == BandL2 {
					s.enablePreemptOnce = true
				}
			} else if lvl == BandL2 {
				reorder = true
			}
		}
		if reorder {
			b.resort()
		}
	}
}
