package dftl

// Accessors for the three address-translation tables of spec.md section
// 3: the forward map (maptbl, LPN -> PPA), the reverse map (rmap, PPN ->
// LPN, keyed by physical page index) and the Global Translation Directory
// (GTD, translation-page index -> PPA of that translation page). Mirrors
// dftl.c's get_maptbl_ent / set_maptbl_ent / get_rmap_ent / set_rmap_ent /
// get_gtd_ent / set_gtd_ent -- thin enough in Go that they exist mainly
// to give the indexing arithmetic one name instead of three call sites
// doing it inline.

func (d *Device) getMaptblEnt(lpn uint64) PPA {
	return d.Maptbl[lpn]
}

func (d *Device) setMaptblEnt(lpn uint64, ppa PPA) {
	d.Maptbl[lpn] = ppa
}

func (d *Device) getRmapEnt(ppa PPA) uint64 {
	return d.Rmap[ppa.Pgidx(&d.Params)]
}

func (d *Device) setRmapEnt(ppa PPA, lpn uint64) {
	d.Rmap[ppa.Pgidx(&d.Params)] = lpn
}

// tvpn is the translation virtual page number: which GTD slot covers lpn.
func tvpn(lpn uint64, entsPerPg uint64) uint64 {
	return lpn / entsPerPg
}

func (d *Device) getGtdEnt(vpn uint64) PPA {
	return d.Gtd[vpn]
}

func (d *Device) setGtdEnt(vpn uint64, ppa PPA) {
	d.Gtd[vpn] = ppa
}
