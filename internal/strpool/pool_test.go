package strpool

import (
	"testing"

	"github.com/pixelrick/cptk/internal/hashutil"
)

func TestInsertOrder(t *testing.T) {
	p := New()
	_, ia := p.Insert("alpha")
	_, ib := p.Insert("beta")
	if ia != 0 || ib != 1 {
		t.Fatalf("indices = %d, %d, want 0, 1", ia, ib)
	}
	if got := p.At(0); got != "alpha" {
		t.Errorf("At(0) = %q, want alpha", got)
	}
	if got := p.At(1); got != "beta" {
		t.Errorf("At(1) = %q, want beta", got)
	}
	idx, ok := p.Find(hashutil.FNV1a64([]byte("beta")))
	if !ok || idx != 1 {
		t.Errorf("Find(beta) = %d, %v, want 1, true", idx, ok)
	}
}

func TestReInsertSameIndex(t *testing.T) {
	p := New()
	_, i1 := p.Insert("repeat")
	_, i2 := p.Insert("repeat")
	if i1 != i2 {
		t.Fatalf("re-insert returned different index: %d != %d", i1, i2)
	}
	if p.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", p.Size())
	}
}

func TestDistinctStringsDistinctIndices(t *testing.T) {
	p := New()
	_, ia := p.Insert("one")
	_, ib := p.Insert("two")
	if ia == ib {
		t.Fatalf("distinct strings got the same index")
	}
}

func TestStats(t *testing.T) {
	p := New()
	p.Insert("hello")
	p.Insert("world")
	st := p.Stats()
	if st.Entries != 2 {
		t.Fatalf("Entries = %d, want 2", st.Entries)
	}
	if st.Bytes <= 0 {
		t.Fatalf("Bytes = %d, want > 0", st.Bytes)
	}
}
