package dftl

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/dftlsim/dftl-go/storage/buffer"
	"github.com/dftlsim/dftl-go/storage/page"
)

// Stats mirrors dftl.c's struct statistics -- a supplemented feature
// (SPEC_FULL.md section D.1) not named by an invariant in spec.md but
// plainly part of "the core": every LPN touched by ssd_read/ssd_write
// bumps it.
type Stats struct {
	AccessCnt uint64
	CmtHitCnt uint64
	CmtMissCnt uint64
}

// CmtHitRatio returns 0 when no accesses have happened yet.
func (s Stats) CmtHitRatio() float64 {
	if s.AccessCnt == 0 {
		return 0
	}
	return float64(s.CmtHitCnt) / float64(s.AccessCnt)
}

// Device is the per-device FTL context: spec.md section 5's "no locks...
// mutual exclusion is by ownership" -- every field below is owned
// exclusively by whichever goroutine calls into Device, never touched
// concurrently. The rings (ring.Ring) are the only thing meant to be
// touched by another goroutine.
type Device struct {
	ID uuid.UUID

	Params Params
	log    *slog.Logger

	Channels []*page.Channel

	Maptbl []PPA
	Rmap   []uint64
	Gtd    []PPA

	CMT *buffer.CMT

	lm  *lineManager
	wp  writePointer
	twp writePointer

	stats Stats
}

// Option configures a Device at construction time.
type Option func(*Device)

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) { d.log = l }
}

// WithVictimPriority selects the victim-line comparator (spec.md section 9,
// Open Question 1 / SPEC_FULL.md section D.2). DefaultVictimPriority is
// used when this option is not given.
func WithVictimPriority(better VictimPriority) Option {
	return func(d *Device) { d.lm.heap.better = better }
}

// NewDevice allocates and initializes every piece of FTL state named by
// spec.md section 3's Lifecycle paragraph: maptbl, rmap, gtd, the line
// array, the CMT arena, and the channel tree, all living until the Device
// is discarded (there is no persistence, spec.md section 3/6).
func NewDevice(p Params, opts ...Option) *Device {
	p.Derive()

	d := &Device{
		ID:       uuid.New(),
		Params:   p,
		log:      slog.Default(),
		Channels: page.NewChannels(p.Nchs, p.LunsPerCh, p.PlsPerLun, p.BlksPerPl, p.PgsPerBlk, p.SecsPerPg),
		Maptbl:   make([]PPA, p.TtPgs),
		Rmap:     make([]uint64, p.TtPgs),
		Gtd:      make([]PPA, p.TtGtdSize),
	}
	for i := range d.Maptbl {
		d.Maptbl[i] = UnmappedPPA
	}
	for i := range d.Rmap {
		d.Rmap[i] = InvalidLPN
	}
	for i := range d.Gtd {
		d.Gtd[i] = UnmappedPPA
	}

	d.lm = newLineManager(p.TtLines, DefaultVictimPriority)
	d.CMT = buffer.New(p.TtCmtSize)

	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With("device", d.ID)

	d.wp = d.lm.initWritePointer(lineData)
	d.twp = d.lm.initWritePointer(lineTrans)

	return d
}

// Stats returns a snapshot of the running CMT hit/miss counters
// (SPEC_FULL.md section D.1).
func (d *Device) Stats() Stats { return d.stats }

func (d *Device) getChannel(p PPA) *page.Channel { return d.Channels[p.Ch] }
func (d *Device) getLun(p PPA) *page.Lun         { return d.getChannel(p).Luns[p.Lun] }
func (d *Device) getPlane(p PPA) *page.Plane     { return d.getLun(p).Planes[p.Pl] }
func (d *Device) getBlock(p PPA) *page.Block     { return d.getPlane(p).Blocks[p.Blk] }
func (d *Device) getPage(p PPA) *page.Page       { return d.getBlock(p).Pages[p.Pg] }
func (d *Device) getLine(p PPA) *line            { return d.lm.lines[p.Blk] }
