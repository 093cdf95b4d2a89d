package page

import "testing"

func TestNewChannelsShape(t *testing.T) {
	chs := NewChannels(2, 3, 1, 4, 8, 2)
	if len(chs) != 2 {
		t.Fatalf("len(chs) = %d, want 2", len(chs))
	}
	if len(chs[0].Luns) != 3 {
		t.Fatalf("len(chs[0].Luns) = %d, want 3", len(chs[0].Luns))
	}
	if len(chs[0].Luns[0].Planes) != 1 {
		t.Fatalf("len(Planes) = %d, want 1", len(chs[0].Luns[0].Planes))
	}
	if len(chs[0].Luns[0].Planes[0].Blocks) != 4 {
		t.Fatalf("len(Blocks) = %d, want 4", len(chs[0].Luns[0].Planes[0].Blocks))
	}
	if len(chs[0].Luns[0].Planes[0].Blocks[0].Pages) != 8 {
		t.Fatalf("len(Pages) = %d, want 8", len(chs[0].Luns[0].Planes[0].Blocks[0].Pages))
	}
	for _, pg := range chs[0].Luns[0].Planes[0].Blocks[0].Pages {
		if pg.Status != Free {
			t.Fatalf("freshly built page has status %v, want Free", pg.Status)
		}
		if len(pg.Sectors) != 2 {
			t.Fatalf("len(Sectors) = %d, want 2", len(pg.Sectors))
		}
	}
}

func TestBlockErase(t *testing.T) {
	blk := newBlock(4, 2)
	blk.Pages[0].Status = Valid
	blk.Vpc = 1
	blk.Ipc = 2

	blk.Erase()

	if blk.Vpc != 0 || blk.Ipc != 0 {
		t.Fatalf("Erase left Vpc=%d Ipc=%d, want 0,0", blk.Vpc, blk.Ipc)
	}
	if blk.EraseCnt != 1 {
		t.Fatalf("EraseCnt = %d, want 1", blk.EraseCnt)
	}
	for _, pg := range blk.Pages {
		if pg.Status != Free {
			t.Fatalf("page status %v after Erase, want Free", pg.Status)
		}
	}
}
