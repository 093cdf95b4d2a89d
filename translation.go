package dftl

// Translation-page I/O: reading/writing the on-flash pages that back the
// GTD, and the CMT-eviction path that triggers a write-back. Grounded on
// dftl.c's translation_page_read / translation_page_write /
// translation_page_new_write / process_translation_page_read /
// process_translation_page_write / insert_entry_to_cmt /
// evict_entry_from_cmt.

// getNewTransPage claims the next page from the translation write
// frontier and advances it. Mirrors dftl.c's get_new_trans_page plus the
// ssd_advance_trans_write_pointer call every writer makes right after.
func (d *Device) getNewTransPage() PPA {
	ppa := d.twp.currentPPA()
	d.lm.advance(&d.twp, &d.Params, lineTrans)
	return ppa
}

// getNewPage is the data-frontier counterpart.
func (d *Device) getNewPage() PPA {
	ppa := d.wp.currentPPA()
	d.lm.advance(&d.wp, &d.Params, lineData)
	return ppa
}

// translationPageReadLat charges the read latency for loading the
// translation page at ppa, with stime 0 when the call is not on behalf of
// a specific user request (dftl.c's translation_page_read_no_req).
func (d *Device) translationPageReadLat(ppa PPA, stime int64) int64 {
	return d.advanceStatus(ppa, nandCmd{op: NandRead, kind: UserIO, stime: stime})
}

// translationPageWrite relocates the translation page that covers oldPpa's
// TVPN to a fresh page: invalidates the old copy (if it was actually
// mapped), claims a new page, updates the GTD and rmap, marks the new page
// valid, and charges the write latency. Mirrors dftl.c's
// translation_page_write.
func (d *Device) translationPageWrite(oldPpa PPA) int64 {
	vpn := d.getRmapEnt(oldPpa)

	if oldPpa.Mapped() {
		d.markPageInvalid(oldPpa)
		d.setRmapEnt(oldPpa, InvalidLPN)
	}

	newPpa := d.getNewTransPage()
	d.setGtdEnt(vpn, newPpa)
	d.setRmapEnt(newPpa, vpn)
	d.markPageValid(newPpa)

	return d.advanceStatus(newPpa, nandCmd{op: NandWrite, kind: UserIO})
}

// translationPageNewWrite writes a brand new translation page covering vpn
// (no prior copy to invalidate). Mirrors dftl.c's translation_page_new_write.
func (d *Device) translationPageNewWrite(vpn uint64) int64 {
	newPpa := d.getNewTransPage()
	d.setGtdEnt(vpn, newPpa)
	d.setRmapEnt(newPpa, vpn)
	d.markPageValid(newPpa)

	return d.advanceStatus(newPpa, nandCmd{op: NandWrite, kind: UserIO})
}

// UnmappedPgidx marks "no physical page" for a CMT entry that has not
// yet been resolved to a PPA (a write that misses its translation page
// entirely, dftl.c's UNMAPPED_PPA used as a ppn).
const UnmappedPgidx = ^uint64(0)

// insertOrEvictThenInsert implements the three-way branch every dftl.c
// call site repeats: insert directly if there is room, otherwise evict the
// LRU slot (writing its translation page back if dirty) and then insert.
func (d *Device) insertOrEvictThenInsert(lpn, ppn uint64) {
	if d.CMT.Len() < d.CMT.Cap() {
		d.CMT.Insert(lpn, ppn)
		return
	}
	if d.CMT.Len() > d.CMT.Cap() {
		fatal(ErrCMTOverflow, "cmt used=%d cap=%d", d.CMT.Len(), d.CMT.Cap())
	}

	evicted, did := d.CMT.Insert(lpn, ppn)
	if did && evicted.Dirty {
		vpn := tvpn(evicted.LPN, d.Params.EntsPerPg)
		ppa := d.getGtdEnt(vpn)
		if !ppa.Mapped() || !ppa.Valid(&d.Params) {
			d.translationPageNewWrite(vpn)
		} else {
			d.translationPageReadLat(ppa, 0)
			d.translationPageWrite(ppa)
		}
	}
}

// processTranslationPageRead resolves lpn's PPA via its translation page
// on a CMT miss during a read, charging the translation-page read latency,
// then caches the resolved mapping. Returns the PPA it found (possibly
// unmapped), the translation page's own PPA (so the caller can serialize
// the data-page read behind it, see Device.Read), and whether a
// translation page even existed for lpn. Mirrors dftl.c's
// process_translation_page_read.
func (d *Device) processTranslationPageRead(lpn uint64, stime int64) (ppa PPA, tpPpa PPA, lat int64, found bool) {
	vpn := tvpn(lpn, d.Params.EntsPerPg)
	tpPpa = d.getGtdEnt(vpn)
	if !tpPpa.Mapped() || !tpPpa.Valid(&d.Params) {
		return PPA{}, PPA{}, 0, false
	}

	lat = d.translationPageReadLat(tpPpa, stime)

	ppa = d.getMaptblEnt(lpn)
	if !ppa.Mapped() || !ppa.Valid(&d.Params) {
		return ppa, tpPpa, lat, true
	}

	ppn := ppa.Pgidx(&d.Params)
	d.insertOrEvictThenInsert(lpn, ppn)
	return ppa, tpPpa, lat, true
}

// processTranslationPageWrite resolves (or lazily creates) lpn's CMT
// entry on a CMT miss during a write. Mirrors dftl.c's
// process_translation_page_write.
func (d *Device) processTranslationPageWrite(lpn uint64) {
	vpn := tvpn(lpn, d.Params.EntsPerPg)
	tpPpa := d.getGtdEnt(vpn)

	if !tpPpa.Mapped() || !tpPpa.Valid(&d.Params) {
		d.insertOrEvictThenInsert(lpn, UnmappedPgidx)
		return
	}

	d.translationPageReadLat(tpPpa, 0)

	ppa := d.getMaptblEnt(lpn)
	if !ppa.Mapped() || !ppa.Valid(&d.Params) {
		d.insertOrEvictThenInsert(lpn, UnmappedPgidx)
		return
	}

	d.insertOrEvictThenInsert(lpn, ppa.Pgidx(&d.Params))
}
