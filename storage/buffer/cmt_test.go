package buffer

import "testing"

func TestCMTInsertAndHit(t *testing.T) {
	c := New(4)

	if _, did := c.Insert(10, 100); did {
		t.Fatalf("unexpected eviction on empty cache")
	}
	ppn, dirty, ok := c.Hit(10)
	if !ok || ppn != 100 || dirty {
		t.Fatalf("Hit(10) = (%d, %v, %v), want (100, false, true)", ppn, dirty, ok)
	}
	if _, _, ok := c.Hit(999); ok {
		t.Fatalf("Hit on absent lpn reported a hit")
	}
}

func TestCMTMarkDirtyAndSetPPN(t *testing.T) {
	c := New(4)
	c.Insert(1, 11)

	c.MarkDirty(1)
	_, dirty, ok := c.Hit(1)
	if !ok || !dirty {
		t.Fatalf("entry not dirty after MarkDirty")
	}

	c.SetPPN(1, 22)
	ppn, dirty, ok := c.Hit(1)
	if !ok || ppn != 22 || !dirty {
		t.Fatalf("SetPPN did not update ppn/dirty, got (%d, %v, %v)", ppn, dirty, ok)
	}
}

func TestCMTEvictsLRU(t *testing.T) {
	c := New(2)
	c.Insert(1, 1)
	c.Insert(2, 2)

	// touch 1 so 2 becomes the LRU victim
	c.Hit(1)

	evicted, did := c.Insert(3, 3)
	if !did {
		t.Fatalf("expected eviction when inserting into a full cache")
	}
	if evicted.LPN != 2 {
		t.Fatalf("evicted lpn = %d, want 2 (the LRU entry)", evicted.LPN)
	}
	if _, _, ok := c.Hit(2); ok {
		t.Fatalf("evicted lpn 2 is still resident")
	}
	if _, _, ok := c.Hit(1); !ok {
		t.Fatalf("recently touched lpn 1 should still be resident")
	}
	if _, _, ok := c.Hit(3); !ok {
		t.Fatalf("newly inserted lpn 3 should be resident")
	}
}

func TestCMTEvictsDirtyEntry(t *testing.T) {
	c := New(1)
	c.Insert(5, 50)
	c.MarkDirty(5)

	evicted, did := c.Insert(6, 60)
	if !did || !evicted.Dirty || evicted.LPN != 5 {
		t.Fatalf("got evicted=%+v did=%v, want dirty lpn 5 evicted", evicted, did)
	}
}

func TestCMTRemove(t *testing.T) {
	c := New(2)
	c.Insert(1, 1)
	c.Remove(1)
	if _, _, ok := c.Hit(1); ok {
		t.Fatalf("removed entry still resident")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after removing the only entry", c.Len())
	}
}

func TestCMTCapAtLeastOne(t *testing.T) {
	c := New(0)
	if c.Cap() != 1 {
		t.Fatalf("Cap() = %d, want 1 for a requested capacity of 0", c.Cap())
	}
}
