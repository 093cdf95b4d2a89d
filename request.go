package dftl

// Opcode is the subset of NVMe command opcodes the request loop
// understands (spec.md section 6).
type Opcode uint8

const (
	OpRead Opcode = iota
	OpWrite
	OpDSM // Dataset Management (e.g. TRIM/deallocate): a no-op here
)

// Request is the external unit of work (spec.md section 6): a logical
// byte range expressed in sectors, a submission time, and the two fields
// the caller reads back once the request loop has finished with it.
type Request struct {
	Opcode Opcode
	Slba   uint64 // starting logical block address, in sectors
	Nlb    uint64 // number of logical blocks (sectors)
	Stime  int64  // submission time, nanoseconds

	ReqLat     int64 // computed latency, nanoseconds
	ExpireTime int64 // Stime + ReqLat, set once ReqLat is known
}

// lpnRange returns the inclusive [start, end] LPN range a request's
// sector range touches. Mirrors dftl.c's start_lpn/end_lpn arithmetic in
// ssd_read/ssd_write.
func (d *Device) lpnRange(req *Request) (start, end uint64) {
	start = req.Slba / d.Params.SecsPerPg
	end = (req.Slba + req.Nlb - 1) / d.Params.SecsPerPg
	return start, end
}

// Read resolves every LPN touched by req, translating on a CMT miss and
// charging NAND read latency for each, and reports the maximum
// per-LPN latency as the request's overall latency -- per-sector
// latencies are not additive, they're the time the slowest touched page
// took (spec.md section 4.5). On a miss, the translation-page read's own
// latency counts toward that maximum, and the data PPA's LUN clock is
// raised to at least the translation PPA's LUN clock first, so the data
// read serializes after the translation read instead of running against
// a LUN that looks idle. An LPN that resolves to an unmapped PPA is
// silently skipped (bug-compatible with dftl.c: a never-written LBA reads
// back as whatever the caller's buffer already held, with zero added
// latency). Mirrors dftl.c's ssd_read.
func (d *Device) Read(req *Request) int64 {
	start, end := d.lpnRange(req)
	if end >= d.Params.TtPgs {
		fatal(ErrInvariant, "read lpn range [%d,%d] exceeds tt_pgs=%d", start, end, d.Params.TtPgs)
	}

	var maxLat int64
	for lpn := start; lpn <= end; lpn++ {
		d.stats.AccessCnt++

		var ppa PPA
		if _, _, hit := d.CMT.Hit(lpn); hit {
			d.stats.CmtHitCnt++
			ppa = d.getMaptblEnt(lpn)
			if !ppa.Mapped() || !ppa.Valid(&d.Params) {
				continue
			}
		} else {
			d.stats.CmtMissCnt++
			resolvedPpa, tpPpa, tpLat, found := d.processTranslationPageRead(lpn, req.Stime)
			if !found {
				continue
			}
			ppa = resolvedPpa
			if !ppa.Mapped() || !ppa.Valid(&d.Params) {
				continue
			}
			if tpLat > maxLat {
				maxLat = tpLat
			}

			// Raise the data PPA's LUN clock to at least the translation
			// LUN's clock so the data read serializes after the
			// translation read (spec.md section 4.5 step 2).
			dataLun := d.getLun(ppa)
			tpLun := d.getLun(tpPpa)
			if tpLun.NextAvailTime > dataLun.NextAvailTime {
				dataLun.NextAvailTime = tpLun.NextAvailTime
			}
		}

		lat := d.advanceStatus(ppa, nandCmd{op: NandRead, kind: UserIO, stime: req.Stime})
		if lat > maxLat {
			maxLat = lat
		}
	}
	return maxLat
}

// Write resolves or creates a translation entry for each LPN in req's
// range, invalidates any prior mapping, appends the new data to the
// write frontier, and reports the maximum per-LPN latency. A foreground
// (forced) GC pass runs first, repeatedly, while free lines are critically
// scarce (spec.md section 4.6's "forced GC before accepting new writes").
// Mirrors dftl.c's ssd_write.
func (d *Device) Write(req *Request) int64 {
	start, end := d.lpnRange(req)
	if end >= d.Params.TtPgs {
		fatal(ErrInvariant, "write lpn range [%d,%d] exceeds tt_pgs=%d", start, end, d.Params.TtPgs)
	}

	for d.shouldGCHigh() {
		if !d.doGC(true) {
			break
		}
	}

	var maxLat int64
	for lpn := start; lpn <= end; lpn++ {
		d.stats.AccessCnt++

		if _, _, hit := d.CMT.Hit(lpn); hit {
			d.stats.CmtHitCnt++
		} else {
			d.stats.CmtMissCnt++
			d.processTranslationPageWrite(lpn)
		}

		if _, _, ok := d.CMT.Hit(lpn); !ok {
			fatal(ErrInvariant, "after processing translation page, lpn %d still not cached", lpn)
		}

		oldPpa := d.getMaptblEnt(lpn)
		if oldPpa.Mapped() {
			d.markPageInvalid(oldPpa)
			d.setRmapEnt(oldPpa, InvalidLPN)
		}

		newPpa := d.getNewPage()
		d.setMaptblEnt(lpn, newPpa)
		d.CMT.SetPPN(lpn, newPpa.Pgidx(&d.Params))
		d.setRmapEnt(newPpa, lpn)
		d.markPageValid(newPpa)

		lat := d.advanceStatus(newPpa, nandCmd{op: NandWrite, kind: UserIO, stime: req.Stime})
		if lat > maxLat {
			maxLat = lat
		}
	}
	return maxLat
}
