package mlfqsched

import (
	"sort"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// ring is a power-of-two ring buffer, generalized from
// _examples/joeycumines-go-utilpkg/catrate/ring.go's ringBuffer[int64] to an
// arbitrary element type, since the Ready-Set stores *Thread, not
// timestamps. Growth, indexing, and the wrap-around Insert cases are
// unchanged from that source.
type ring[E any] struct {
	s    []E
	r, w uint
}

func newRing[E any](size int) *ring[E] {
	if size <= 0 || size&(size-1) != 0 {
		panic("mlfqsched: ring: size must be a power of 2")
	}
	return &ring[E]{s: make([]E, size)}
}

func (x *ring[E]) mask(val uint) uint {
	return val & (uint(len(x.s)) - 1)
}

func (x *ring[E]) bounds() (i1, l1, l2 int) {
	if x.r == x.w {
		return
	}
	i1 = int(x.mask(x.r))
	l1 = int(x.mask(x.w))
	if l1 <= i1 {
		l2 = l1
		l1 = len(x.s)
	}
	return
}

func (x *ring[E]) Len() int {
	return int(x.w - x.r)
}

func (x *ring[E]) Get(i int) E {
	if i < 0 || i >= x.Len() {
		panic("mlfqsched: ring: get: index out of range")
	}
	return x.s[x.mask(x.r+uint(i))]
}

func (x *ring[E]) Set(i int, v E) {
	if i < 0 || i >= x.Len() {
		panic("mlfqsched: ring: set: index out of range")
	}
	x.s[x.mask(x.r+uint(i))] = v
}

// Slice returns the queue's contents in order, oldest (head) first.
func (x *ring[E]) Slice() (b []E) {
	if l := x.Len(); l != 0 {
		b = make([]E, l)
		i1, l1, l2 := x.bounds()
		copy(b, x.s[i1:l1])
		copy(b[l1-i1:], x.s[:l2])
	}
	return b
}

// PopFront removes and returns the head of the queue.
func (x *ring[E]) PopFront() E {
	v := x.Get(0)
	x.r++
	return v
}

// PushBack appends value to the tail, growing the buffer if full.
func (x *ring[E]) PushBack(value E) {
	x.Insert(x.Len(), value)
}

func (x *ring[E]) Insert(index int, value E) {
	l := x.Len()
	if index < 0 || index > l {
		panic("mlfqsched: ring: insert: index out of range")
	}

	if l == len(x.s) {
		// full, special case: requires expanding the buffer
		size := len(x.s) << 1
		if size == 0 {
			size = 1
		}
		s := make([]E, size)

		i1, l1, l2 := x.bounds()
		l = l1 - i1
		if index < l {
			copy(s, x.s[i1:i1+index])
			s[index] = value
			copy(s[index+1:], x.s[i1+index:l1])
			l++
			copy(s[l:], x.s[:l2])
			l += l2
		} else {
			copy(s, x.s[i1:l1])
			copy(s[l:], x.s[:index-l])
			s[index] = value
			copy(s[index+1:], x.s[index-l:l2])
			l += l2 + 1
		}

		x.r = 0
		x.w = uint(l)
		x.s = s
		return
	}

	var i, j int
	if l == 0 {
		x.r = 0
		x.w = 0
	} else {
		i = int(x.mask(x.r))
		j = int(x.mask(x.w))
	}

	if l == 0 || i < j {
		copy(x.s[i+index+1:], x.s[i+index:j])
		x.s[i+index] = value
		x.w++
		return
	}

	if index >= len(x.s)-i {
		index -= len(x.s) - i
		copy(x.s[index+1:], x.s[index:j])
		x.s[index] = value
		x.w++
		return
	}

	copy(x.s[1:], x.s[:j])
	x.s[0] = x.s[len(x.s)-1]
	copy(x.s[i+index+1:], x.s[i+index:])
	x.s[i+index] = value
	x.w++
}

// sortInPlace converts a ring into a fresh, order-preserving slice and
// rebuilds it after a stable sort by key. It backs band.resort; admission
// itself keeps the order through band.insert's sorted placement.
// Using slices.SortStableFunc (golang.org/x/exp/slices, as
// catrate/rates.go uses the same package's Sort) preserves admission-order
// ties, matching "stable for equal keys".
func sortInPlace[E any, K constraints.Ordered](x *ring[E], key func(E) K) {
	s := x.Slice()
	slices.SortStableFunc(s, func(a, b E) int {
		ka, kb := key(a), key(b)
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
	x.r, x.w = 0, 0
	for _, v := range s {
		x.PushBack(v)
	}
}

// band is one priority band's ready queue: a ring of *Thread plus the
// discipline needed to keep it ordered.
type band struct {
	level Band
	q     *ring[*Thread]
}

func newBand(level Band) *band {
	return &band{level: level, q: newRing[*Thread](8)}
}

func (b *band) insert(t *Thread) {
	switch b.level {
	case BandL1:
		// ascending predicted burst; sort.Search finds the first entry
		// strictly greater than t, so t lands after any existing equal-burst
		// entries, preserving FIFO among ties (§3 L1 rule).
		idx := sort.Search(b.q.Len(), func(i int) bool {
			return b.q.Get(i).PredictedBurst > t.PredictedBurst
		})
		b.q.Insert(idx, t)
	case BandL2:
		// descending priority; sort.Search finds the first entry strictly
		// lower, so t lands after any existing equal-priority entries,
		// preserving FIFO among ties (§3 L2 rule).
		idx := sort.Search(b.q.Len(), func(i int) bool {
			return b.q.Get(i).Priority < t.Priority
		})
		b.q.Insert(idx, t)
	default:
		// L3: strict FIFO admission order (§3 L3 rule)
		b.q.PushBack(t)
	}
}

// resort re-establishes ordering after an in-place mutation of a member's
// key (e.g. aging raises Priority without re-admission through insert).
func (b *band) resort() {
	switch b.level {
	case BandL1:
		sortInPlace(b.q, func(t *Thread) float64 { return t.PredictedBurst })
	case BandL2:
		sortInPlace(b.q, func(t *Thread) float64 { return -float64(t.Priority) })
	}
}

func (b *band) remove(t *Thread) bool {
	s := b.q.Slice()
	for i, v := range s {
		if v == t {
			s = append(s[:i], s[i+1:]...)
			b.q.r, b.q.w = 0, 0
			for _, v2 := range s {
				b.q.PushBack(v2)
			}
			return true
		}
	}
	return false
}
