package dftl

import "time"

// NandOp identifies which of the three NAND commands a timing request
// models -- dftl.c's NAND_READ / NAND_WRITE / NAND_ERASE.
type NandOp uint8

const (
	NandRead NandOp = iota
	NandWrite
	NandErase
)

// IOKind distinguishes user-initiated I/O from GC-internal I/O, carried
// through purely for tracing; both take the same latency in this model
// (dftl.c's own USER_IO/GC_IO split collapses to the same branch too).
type IOKind uint8

const (
	UserIO IOKind = iota
	GCIO
)

// nandCmd is dftl.c's struct nand_cmd.
type nandCmd struct {
	op    NandOp
	kind  IOKind
	stime int64 // nanoseconds, caller's clock
}

// advanceStatus is dftl.c's ssd_advance_status: the one place a NAND
// operation's latency is computed. Every LUN has its own monotonic
// "next available" clock; an operation starts at max(stime, clock),
// occupies the LUN for the operation's fixed latency, and the caller
// learns only how long it had to wait plus the operation itself --
// never the LUN's absolute clock value. Channel transfer time is modeled
// as zero (spec.md's DESIGN NOTES), so there is no separate channel-busy
// bookkeeping here. A stime of 0 means "now": dftl.c:686-687 substitutes
// qemu_clock_get_ns in that case rather than treating the epoch as an
// actual submission time.
func (d *Device) advanceStatus(ppa PPA, cmd nandCmd) int64 {
	lun := d.getLun(ppa)
	var lat time.Duration

	switch cmd.op {
	case NandRead:
		lat = d.Params.PgRdLat
	case NandWrite:
		lat = d.Params.PgWrLat
	case NandErase:
		lat = d.Params.BlkErLat
	default:
		fatal(ErrInvariant, "unsupported nand op %d", cmd.op)
	}

	stime := cmd.stime
	if stime == 0 {
		stime = time.Now().UnixNano()
	}

	start := stime
	if lun.NextAvailTime > start {
		start = lun.NextAvailTime
	}
	lun.NextAvailTime = start + int64(lat)
	return lun.NextAvailTime - stime
}
