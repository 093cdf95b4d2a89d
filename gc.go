package dftl

import (
	"log/slog"

	"github.com/dftlsim/dftl-go/storage/page"
)

// Garbage collection: victim selection, valid-page relocation for both
// line types, and the translation-page batch-dedup that avoids reading
// and rewriting the same GTD page once per shared LPN. Grounded on
// dftl.c's select_victim_line / clean_one_data_block /
// clean_one_trans_block / do_gc / mark_line_free.

func (d *Device) shouldGC() bool {
	return d.lm.freeLineCnt <= d.Params.GcThresLines
}

func (d *Device) shouldGCHigh() bool {
	return d.lm.freeLineCnt <= d.Params.GcThresLinesHigh
}

func (d *Device) gcReadLat(ppa PPA) {
	if !d.Params.EnableGcDelay {
		return
	}
	d.advanceStatus(ppa, nandCmd{op: NandRead, kind: GCIO})
}

// gcWritePage relocates a live data page to a fresh page on the data
// write frontier, updating maptbl/rmap/vpc. Mirrors dftl.c's
// gc_write_page.
func (d *Device) gcWritePage(oldPpa PPA) PPA {
	lpn := d.getRmapEnt(oldPpa)
	if lpn == InvalidLPN {
		fatal(ErrInvariant, "gc relocating page with no owning lpn")
	}

	newPpa := d.getNewPage()
	d.setMaptblEnt(lpn, newPpa)
	d.setRmapEnt(newPpa, lpn)
	d.markPageValid(newPpa)

	if d.Params.EnableGcDelay {
		d.advanceStatus(newPpa, nandCmd{op: NandWrite, kind: GCIO})
	}
	return newPpa
}

// gcTranslationPageWrite is gcWritePage's translation-page counterpart.
// Mirrors dftl.c's gc_translation_page_write.
func (d *Device) gcTranslationPageWrite(oldPpa PPA) PPA {
	vpn := d.getRmapEnt(oldPpa)
	if vpn == InvalidLPN {
		fatal(ErrInvariant, "gc relocating translation page with no owning tvpn")
	}

	newPpa := d.getNewTransPage()
	d.setGtdEnt(vpn, newPpa)
	d.setRmapEnt(newPpa, vpn)
	d.markPageValid(newPpa)

	if d.Params.EnableGcDelay {
		d.advanceStatus(newPpa, nandCmd{op: NandWrite, kind: GCIO})
	}
	return newPpa
}

// cleanOneDataBlock relocates every valid page of the block addressed by
// ppa.Blk on ppa's (ch, lun). Pages that still share a translation page
// (TVPN) are deduped within this one block scan, so that block's GTD page
// is read-then-rewritten once no matter how many of its LPNs were
// relocated. Mirrors dftl.c's clean_one_data_block.
func (d *Device) cleanOneDataBlock(base PPA) {
	seen := make(map[uint64]bool)
	cnt := uint64(0)

	for pgNo := uint64(0); pgNo < d.Params.PgsPerBlk; pgNo++ {
		ppa := base
		ppa.Pg = uint32(pgNo)
		pg := d.getPage(ppa)
		if pg.Status == page.Free {
			fatal(ErrInvariant, "free page in victim data block")
		}
		if pg.Status != page.Valid {
			continue
		}

		d.gcReadLat(ppa)
		lpn := d.getRmapEnt(ppa)

		if ppa.Pgidx(&d.Params) != d.getMaptblEnt(lpn).Pgidx(&d.Params) {
			d.log.Warn("gc: data block references a page the forward map no longer owns",
				"lpn", lpn, "ppa", slogPPA(ppa))
			cnt++
			continue
		}

		newPpa := d.gcWritePage(ppa)
		if _, _, ok := d.CMT.Hit(lpn); ok {
			d.CMT.SetPPN(lpn, newPpa.Pgidx(&d.Params))
		} else {
			vpn := tvpn(lpn, d.Params.EntsPerPg)
			if !seen[vpn] {
				seen[vpn] = true
				gtdPpa := d.getGtdEnt(vpn)
				d.translationPageReadLat(gtdPpa, 0)
				d.translationPageWrite(gtdPpa)
			}
		}
		cnt++
	}

	if d.getBlock(base).Vpc != cnt {
		d.log.Warn("gc: data block valid-page count mismatch after clean", "expected", d.getBlock(base).Vpc, "counted", cnt)
	}
}

// cleanOneTransBlock relocates every valid translation page in the block
// addressed by ppa.Blk. Mirrors dftl.c's clean_one_trans_block.
func (d *Device) cleanOneTransBlock(base PPA) {
	cnt := uint64(0)

	for pgNo := uint64(0); pgNo < d.Params.PgsPerBlk; pgNo++ {
		ppa := base
		ppa.Pg = uint32(pgNo)
		pg := d.getPage(ppa)
		if pg.Status == page.Free {
			fatal(ErrInvariant, "free page in victim translation block")
		}
		if pg.Status != page.Valid {
			continue
		}

		d.gcReadLat(ppa)
		lpn := d.getRmapEnt(ppa)

		if ppa.Pgidx(&d.Params) == d.getMaptblEnt(lpn).Pgidx(&d.Params) {
			d.log.Warn("gc: translation block contains a data page", "ppa", slogPPA(ppa))
		} else {
			d.gcTranslationPageWrite(ppa)
		}
		cnt++
	}

	if d.getBlock(base).Vpc != cnt {
		d.log.Warn("gc: translation block valid-page count mismatch after clean", "expected", d.getBlock(base).Vpc, "counted", cnt)
	}
}

// doGC selects a victim line (forced or background) and relocates all of
// its valid pages before erasing and freeing its blocks. Returns false if
// no victim line was available. Mirrors dftl.c's do_gc.
func (d *Device) doGC(force bool) bool {
	victim := d.lm.selectVictim(force, d.Params.PgsPerLine)
	if victim == nil {
		return false
	}

	d.log.Debug("gc: cleaning line",
		"line", victim.id, "ipc", victim.ipc,
		"victim_lines", d.lm.victimLineCnt, "full_lines", d.lm.fullLineCnt, "free_lines", d.lm.freeLineCnt)

	for ch := uint64(0); ch < d.Params.Nchs; ch++ {
		for lun := uint64(0); lun < d.Params.LunsPerCh; lun++ {
			base := PPA{Ch: uint32(ch), Lun: uint32(lun), Pl: 0, Blk: uint32(victim.id)}
			lunObj := d.getLun(base)
			lunObj.Busy = true

			switch victim.typ {
			case lineData:
				d.cleanOneDataBlock(base)
			case lineTrans:
				d.cleanOneTransBlock(base)
			default:
				d.log.Warn("gc: victim line has no frontier type", "line", victim.id)
			}

			d.markBlockFree(base)
			if d.Params.EnableGcDelay {
				d.advanceStatus(base, nandCmd{op: NandErase, kind: GCIO})
			}
			lunObj.GcEndTime = lunObj.NextAvailTime
			lunObj.Busy = false
		}
	}

	d.lm.markLineFree(victim)
	return true
}

func slogPPA(ppa PPA) slog.Value {
	return slog.GroupValue(
		slog.Uint64("ch", uint64(ppa.Ch)), slog.Uint64("lun", uint64(ppa.Lun)),
		slog.Uint64("pl", uint64(ppa.Pl)), slog.Uint64("blk", uint64(ppa.Blk)),
		slog.Uint64("pg", uint64(ppa.Pg)), slog.Uint64("sec", uint64(ppa.Sec)))
}
