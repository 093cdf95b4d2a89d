package dftl

// VictimPriority reports whether line a should be reclaimed before line b.
// It is the pluggable resolution of spec.md section 9's Open Question 1:
// dftl.c's pqueue comparator reads `((struct line *)next)->vpc > ((struct
// line *)curr)->vpc`, i.e. it orders the max-heap so the line with the
// MOST valid pages is selected first -- the opposite of what a
// greedy garbage collector wants. Rather than silently "fixing" this,
// both readings are implemented and the caller picks one via
// WithVictimPriority.
type VictimPriority func(a, b *line) bool

// DefaultVictimPriority reproduces dftl.c's literal comparator: the line
// with the most valid pages is the victim.
func DefaultVictimPriority(a, b *line) bool { return a.vpc > b.vpc }

// GreedyVictimPriority is the "probably intended" reading: the line with
// the fewest valid pages (most invalid pages) is the victim, which is what
// minimizes relocation cost.
func GreedyVictimPriority(a, b *line) bool { return a.ipc > b.ipc }

// victimHeap is a binary max-heap over *line ordered by `better`, with an
// inline, 1-based `pos` field on each line for O(log n) decrease-key --
// the same bookkeeping style as bufmgr.go's latch array, adapted from
// array index bookkeeping to heap position bookkeeping.
type victimHeap struct {
	items  []*line
	better VictimPriority
}

func newVictimHeap(better VictimPriority) *victimHeap {
	return &victimHeap{better: better}
}

func (h *victimHeap) Len() int { return len(h.items) }

func (h *victimHeap) peek() *line {
	if len(h.items) == 0 {
		return nil
	}
	return h.items[0]
}

func (h *victimHeap) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].pos = i + 1
	h.items[j].pos = j + 1
}

func (h *victimHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.better(h.items[i], h.items[parent]) {
			h.swap(i, parent)
			i = parent
			continue
		}
		break
	}
}

func (h *victimHeap) siftDown(i int) {
	n := len(h.items)
	for {
		left, right := 2*i+1, 2*i+2
		best := i
		if left < n && h.better(h.items[left], h.items[best]) {
			best = left
		}
		if right < n && h.better(h.items[right], h.items[best]) {
			best = right
		}
		if best == i {
			break
		}
		h.swap(i, best)
		i = best
	}
}

func (h *victimHeap) fix(i int) {
	h.siftUp(i)
	h.siftDown(i)
}

func (h *victimHeap) push(l *line) {
	h.items = append(h.items, l)
	l.pos = len(h.items)
	h.siftUp(len(h.items) - 1)
}

func (h *victimHeap) pop() *line {
	if len(h.items) == 0 {
		return nil
	}
	top := h.items[0]
	last := len(h.items) - 1
	h.swap(0, last)
	h.items = h.items[:last]
	top.pos = 0
	if last > 0 {
		h.siftDown(0)
	}
	return top
}

// decrementVpc is the sole place a queued line's vpc decreases (spec.md
// section 9's Open Question 2: dftl.c's pqueue_change_priority is only
// ever called from mark_page_invalid, never from a generic "set priority"
// call site, so that call site is the contract). It re-seats the line at
// its new priority in the same operation.
func (h *victimHeap) decrementVpc(l *line) {
	l.vpc--
	h.fix(l.pos - 1)
}
