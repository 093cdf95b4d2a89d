// Package page holds the physical NAND geometry: channels, LUNs, planes,
// blocks, pages and their per-sector status. It mirrors the nand_page /
// nand_block / nand_plane / nand_lun / ssd_channel hierarchy of the
// original dftl.c, arena-allocated the way the teacher's BufMgr allocates
// its page pool (storage/buffer.CMT uses the same fixed-arena idiom).
package page

import (
	"github.com/ncw/directio"
)

// Status is the lifecycle state of a single NAND page.
type Status uint8

const (
	Free Status = iota
	Valid
	Invalid
)

// SectorStatus mirrors nand_sec_status_t; sectors only ever need to record
// whether they hold data, not the data itself (command-payload DMA is an
// external collaborator's concern, see SPEC_FULL.md).
type SectorStatus byte

const (
	SectorFree SectorStatus = iota
	SectorValid
	SectorInvalid
)

// Page is one NAND page: a status plus one byte per sector recording its
// status. The sector-status bytes are backed by a direct-I/O aligned block
// instead of a plain slice -- see SPEC_FULL.md section C and DESIGN.md for
// why: it gives the simulated geometry the same page-aligned memory layout
// a real O_DIRECT block-device buffer would have, without implying any
// actual file persistence (spec.md: "no persisted format").
type Page struct {
	Status  Status
	Sectors []byte
}

func newPage(secsPerPg uint64) *Page {
	buf := directio.AlignedBlock(int(secsPerPg))
	for i := range buf {
		buf[i] = byte(SectorFree)
	}
	return &Page{Status: Free, Sectors: buf}
}

// Block is a nand_block: pgs_per_blk pages plus invalid/valid page counts
// and an erase counter.
type Block struct {
	Pages    []*Page
	Ipc      uint64
	Vpc      uint64
	EraseCnt uint64
}

func newBlock(pgsPerBlk, secsPerPg uint64) *Block {
	blk := &Block{Pages: make([]*Page, pgsPerBlk)}
	for i := range blk.Pages {
		blk.Pages[i] = newPage(secsPerPg)
	}
	return blk
}

// Erase resets every page in the block to Free, zeroes the block's
// Ipc/Vpc and bumps the erase count. Line-level counters are not touched;
// the line manager / GC owns those.
func (b *Block) Erase() {
	for _, pg := range b.Pages {
		pg.Status = Free
	}
	b.Ipc = 0
	b.Vpc = 0
	b.EraseCnt++
}

// Plane is a nand_plane: blks_per_pl blocks. spec.md assumes
// pls_per_lun == 1 throughout; Plane exists for structural fidelity with
// the original layout and to leave room for multi-plane support later
// (explicitly a non-goal today).
type Plane struct {
	Blocks []*Block
}

func newPlane(blksPerPl, pgsPerBlk, secsPerPg uint64) *Plane {
	pl := &Plane{Blocks: make([]*Block, blksPerPl)}
	for i := range pl.Blocks {
		pl.Blocks[i] = newBlock(pgsPerBlk, secsPerPg)
	}
	return pl
}

// Lun is a nand_lun: one busy/availability clock shared by every op issued
// against any plane/block/page underneath it. NextAvailTime is a nanosecond
// timestamp on the same clock the request loop uses for req.stime (a
// wall-clock time.Now().UnixNano() reading when stime == 0), see timing.go. GcEndTime and Busy
// mirror dftl.c's nand_lun fields: GcEndTime is stamped with NextAvailTime
// once a GC-triggered erase lands on the LUN, and Busy marks a LUN
// currently mid-GC, both set by the garbage collector.
type Lun struct {
	Planes        []*Plane
	NextAvailTime int64
	GcEndTime     int64
	Busy          bool
}

func newLun(plsPerLun, blksPerPl, pgsPerBlk, secsPerPg uint64) *Lun {
	lun := &Lun{Planes: make([]*Plane, plsPerLun)}
	for i := range lun.Planes {
		lun.Planes[i] = newPlane(blksPerPl, pgsPerBlk, secsPerPg)
	}
	return lun
}

// Channel is an ssd_channel: luns_per_ch LUNs. Channel transfer time is
// modeled as zero (spec.md section 4.1 / DESIGN NOTES), so Channel carries
// no clock of its own -- only its LUNs do.
type Channel struct {
	Luns []*Lun
}

func newChannel(lunsPerCh, plsPerLun, blksPerPl, pgsPerBlk, secsPerPg uint64) *Channel {
	ch := &Channel{Luns: make([]*Lun, lunsPerCh)}
	for i := range ch.Luns {
		ch.Luns[i] = newLun(plsPerLun, blksPerPl, pgsPerBlk, secsPerPg)
	}
	return ch
}

// NewChannels builds the full nchs x luns_per_ch x pls_per_lun x
// blks_per_pl x pgs_per_blk hierarchy described in spec.md section 3.
func NewChannels(nchs, lunsPerCh, plsPerLun, blksPerPl, pgsPerBlk, secsPerPg uint64) []*Channel {
	chs := make([]*Channel, nchs)
	for i := range chs {
		chs[i] = newChannel(lunsPerCh, plsPerLun, blksPerPl, pgsPerBlk, secsPerPg)
	}
	return chs
}
