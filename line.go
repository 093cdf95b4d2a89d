package dftl

import "github.com/dftlsim/dftl-go/storage/page"

// lineType tags which write frontier a line belongs to -- dftl.c keeps
// this information implicitly (by which list a line sits on); the
// frontier-tagged-variant DESIGN NOTE in spec.md asks for it to be
// explicit instead.
type lineType uint8

const (
	lineNone lineType = iota
	lineData
	lineTrans
)

// line is one super-block: one block per LUN across every channel
// (spec.md section 3). id doubles as the block-within-LUN index used to
// reach it from a PPA (Device.getLine). pos is the victimHeap's 1-based
// position, 0 meaning "not currently queued".
type line struct {
	id  uint64
	ipc uint64
	vpc uint64
	pos int
	typ lineType
}

// lineManager owns the fixed arena of lines and their three states: the
// free stack, the "full" set (fully valid, not GC-eligible), and the
// victim heap (GC-eligible, ordered by VictimPriority). Grounded on
// bufmgr.go's arena-plus-auxiliary-index style: one fixed []*line arena,
// never reallocated, with lines moved between owning structures instead
// of being copied.
type lineManager struct {
	lines []*line

	freeList []*line
	full     map[uint64]*line
	heap     *victimHeap

	freeLineCnt   uint64
	victimLineCnt uint64
	fullLineCnt   uint64
}

func newLineManager(ttLines uint64, better VictimPriority) *lineManager {
	lm := &lineManager{
		lines: make([]*line, ttLines),
		full:  make(map[uint64]*line),
		heap:  newVictimHeap(better),
	}
	for i := uint64(0); i < ttLines; i++ {
		l := &line{id: i}
		lm.lines[i] = l
		lm.freeList = append(lm.freeList, l)
	}
	lm.freeLineCnt = ttLines
	return lm
}

func (lm *lineManager) popFreeLine() *line {
	if len(lm.freeList) == 0 {
		return nil
	}
	n := len(lm.freeList) - 1
	l := lm.freeList[n]
	lm.freeList = lm.freeList[:n]
	lm.freeLineCnt--
	return l
}

func (lm *lineManager) pushFull(l *line) {
	lm.full[l.id] = l
	lm.fullLineCnt++
}

func (lm *lineManager) pushVictim(l *line) {
	lm.heap.push(l)
	lm.victimLineCnt++
}

// selectVictim removes and returns the current best GC candidate, or nil
// if there is none, honoring the force/non-force gate of spec.md section
// 4.7 (a declined candidate stays queued): a background
// (non-forced) GC pass only fires once a line carries enough invalid pages
// to be worth the relocation cost.
func (lm *lineManager) selectVictim(force bool, pgsPerLine uint64) *line {
	v := lm.heap.peek()
	if v == nil {
		return nil
	}
	if !force && v.ipc < pgsPerLine/8 {
		return nil
	}
	lm.heap.pop()
	lm.victimLineCnt--
	return v
}

// writePointer is one of the two append-only write frontiers (data,
// translation) of spec.md section 4.2: a cursor that walks ch -> lun ->
// page within curLine before rolling over to a fresh line.
type writePointer struct {
	ch, lun, pl, pg uint64
	blk             uint64
	curLine         *line
}

// initWritePointer claims a fresh free line to seed a write frontier.
// Fatal per spec.md section 7 if none exists -- this only happens at
// device construction, when TtLines should always be well above 2.
func (lm *lineManager) initWritePointer(typ lineType) writePointer {
	l := lm.popFreeLine()
	if l == nil {
		fatal(ErrNoFreeLine, "initializing write pointer")
	}
	l.typ = typ
	return writePointer{blk: l.id, curLine: l}
}

// currentPPA returns the PPA the write pointer is presently sitting on,
// without advancing it.
func (wp *writePointer) currentPPA() PPA {
	return PPA{
		Ch:  uint32(wp.ch),
		Lun: uint32(wp.lun),
		Pl:  uint32(wp.pl),
		Blk: uint32(wp.blk),
		Pg:  uint32(wp.pg),
		Sec: 0,
	}
}

// advance walks the frontier one page forward, rolling ch -> lun -> pg and,
// on page rollover, retiring curLine (to the full set or the victim heap
// depending on whether every page in it ended up valid) and claiming a new
// free line. Callers reach it through getNewPage/getNewTransPage, before
// they mark the page just handed out valid, so that last page is counted
// as valid here. Mirrors dftl.c's ssd_advance_write_pointer.
func (lm *lineManager) advance(wp *writePointer, sp *Params, typ lineType) {
	wp.ch++
	if wp.ch != sp.Nchs {
		return
	}
	wp.ch = 0
	wp.lun++
	if wp.lun != sp.LunsPerCh {
		return
	}
	wp.lun = 0
	wp.pg++
	if wp.pg != sp.PgsPerBlk {
		return
	}
	wp.pg = 0

	cur := wp.curLine
	if cur.vpc+1 == sp.PgsPerLine {
		lm.pushFull(cur)
	} else {
		lm.pushVictim(cur)
	}

	next := lm.popFreeLine()
	if next == nil {
		fatal(ErrNoFreeLine, "advancing %v write pointer", typ)
	}
	next.typ = typ
	wp.blk = next.id
	wp.curLine = next
}

// markPageValid updates the page, its block, and its line's valid-page
// counters after a write lands on ppa. Mirrors dftl.c's mark_page_valid.
func (d *Device) markPageValid(ppa PPA) {
	pg := d.getPage(ppa)
	pg.Status = page.Valid
	blk := d.getBlock(ppa)
	blk.Vpc++
	l := d.getLine(ppa)
	l.vpc++
}

// markPageInvalid updates counters after ppa's old content is superseded,
// and implements the contract of heap.decrementVpc (Open Question 2): if
// the line is currently queued in the victim heap, vpc is decremented
// there (re-seating the line); otherwise it is decremented in place. A
// line that was full and drops out of "full" becomes GC-eligible again.
// Mirrors dftl.c's mark_page_invalid.
func (d *Device) markPageInvalid(ppa PPA) {
	pg := d.getPage(ppa)
	pg.Status = page.Invalid
	blk := d.getBlock(ppa)
	blk.Ipc++
	blk.Vpc--

	l := d.getLine(ppa)
	wasFull := l.vpc == d.Params.PgsPerLine
	l.ipc++

	if l.pos != 0 {
		d.lm.heap.decrementVpc(l)
	} else {
		l.vpc--
	}

	if wasFull {
		delete(d.lm.full, l.id)
		d.lm.fullLineCnt--
		d.lm.pushVictim(l)
	}
}

// markBlockFree resets a block's pages and counters after GC has relocated
// every valid page out of it. Mirrors dftl.c's gc_erase (block-level part).
func (d *Device) markBlockFree(ppa PPA) {
	blk := d.getBlock(ppa)
	for _, pg := range blk.Pages {
		pg.Status = page.Free
	}
	blk.Ipc = 0
	blk.Vpc = 0
	blk.EraseCnt++
}

// markLineFree returns an erased line to the free stack.
func (lm *lineManager) markLineFree(l *line) {
	l.ipc = 0
	l.vpc = 0
	l.typ = lineNone
	lm.freeList = append(lm.freeList, l)
	lm.freeLineCnt++
}
