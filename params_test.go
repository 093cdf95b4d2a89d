package dftl

import "testing"

func TestDefaultParamsDerivation(t *testing.T) {
	p := DefaultParams()

	if p.TtPgs == 0 || p.TtBlks == 0 || p.TtLines == 0 {
		t.Fatalf("derived fields not populated: %+v", p)
	}
	if p.TtLines != p.BlksPerLun {
		t.Fatalf("TtLines = %d, want BlksPerLun = %d", p.TtLines, p.BlksPerLun)
	}
	if p.BlksPerLine != p.TtLuns {
		t.Fatalf("BlksPerLine = %d, want TtLuns = %d", p.BlksPerLine, p.TtLuns)
	}
	if p.TtGtdSize != p.TtPgs/p.EntsPerPg {
		t.Fatalf("TtGtdSize = %d, want TtPgs/EntsPerPg = %d", p.TtGtdSize, p.TtPgs/p.EntsPerPg)
	}
	if p.TtCmtSize != p.TtBlks/2 {
		t.Fatalf("TtCmtSize = %d, want TtBlks/2 = %d", p.TtCmtSize, p.TtBlks/2)
	}
}

func TestDeriveRecomputesAfterMutation(t *testing.T) {
	p := DefaultParams()
	p.Nchs = 2
	p.Derive()

	if p.TtLuns != p.LunsPerCh*2 {
		t.Fatalf("TtLuns not recomputed after Nchs change: %+v", p)
	}
}

// smallTestParams returns a small, fast-to-exercise geometry for tests
// that drive Device end to end.
func smallTestParams() Params {
	p := Params{
		SecSz:     512,
		SecsPerPg: 2,
		PgsPerBlk: 4,
		BlksPerPl: 4,
		PlsPerLun: 1,
		LunsPerCh: 2,
		Nchs:      2,
		EntsPerPg: 4,

		PgRdLat:  DefaultPageReadLatency,
		PgWrLat:  DefaultPageWriteLatency,
		BlkErLat: DefaultBlockEraseLatency,

		GcThresPcent:     0.75,
		GcThresPcentHigh: 0.95,
		EnableGcDelay:    true,
	}
	p.Derive()
	return p
}
