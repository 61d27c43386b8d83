package ir

import (
	"testing"

	"github.com/oriumgames/schemcore/blockid"
)

func TestNewRegionStartsAllAir(t *testing.T) {
	r := NewRegion("main", 2, 2, 2)
	b, ok := r.BlockAt(0, 0, 0)
	if !ok || !b.IsAir() {
		t.Fatalf("expected air at origin, got %+v ok=%v", b, ok)
	}
	if len(r.Palette) != 1 {
		t.Fatalf("expected palette of 1 (air), got %d", len(r.Palette))
	}
}

func TestSetBlockGrowsPaletteOnce(t *testing.T) {
	r := NewRegion("main", 4, 4, 4)
	stone := blockid.MustParse("minecraft:stone")
	if err := r.SetBlock(0, 0, 0, stone); err != nil {
		t.Fatal(err)
	}
	if err := r.SetBlock(1, 0, 0, stone); err != nil {
		t.Fatal(err)
	}
	if len(r.Palette) != 2 {
		t.Fatalf("expected palette of 2, got %d", len(r.Palette))
	}
	b, _ := r.BlockAt(1, 0, 0)
	if b.ID != "stone" {
		t.Fatalf("got %+v", b)
	}
}

func TestSetBlockOutOfBounds(t *testing.T) {
	r := NewRegion("main", 2, 2, 2)
	if err := r.SetBlock(5, 0, 0, blockid.Air()); err == nil {
		t.Fatal("expected out-of-bounds error")
	}
}

func TestShrinkPaletteRemovesUnreferenced(t *testing.T) {
	r := NewRegion("main", 2, 1, 1)
	stone := blockid.MustParse("minecraft:stone")
	dirt := blockid.MustParse("minecraft:dirt")
	r.FindOrAppendToPalette(dirt) // index 1, unreferenced
	if err := r.SetBlock(0, 0, 0, stone); err != nil {
		t.Fatal(err)
	}
	if len(r.Palette) != 3 {
		t.Fatalf("expected 3 palette entries before shrink, got %d", len(r.Palette))
	}
	if err := r.ShrinkPalette(); err != nil {
		t.Fatal(err)
	}
	if len(r.Palette) != 2 {
		t.Fatalf("expected 2 palette entries after shrink (air, stone), got %d: %+v", len(r.Palette), r.Palette)
	}
	b, _ := r.BlockAt(0, 0, 0)
	if b.ID != "stone" {
		t.Fatalf("remap broke block lookup: got %+v", b)
	}
}

func TestTotalBlocksExcludesAir(t *testing.T) {
	r := NewRegion("main", 2, 1, 1)
	stone := blockid.MustParse("minecraft:stone")
	if err := r.SetBlock(0, 0, 0, stone); err != nil {
		t.Fatal(err)
	}
	if got := r.TotalBlocks(false); got != 1 {
		t.Errorf("TotalBlocks(false) = %d, want 1", got)
	}
	if got := r.TotalBlocks(true); got != 2 {
		t.Errorf("TotalBlocks(true) = %d, want 2", got)
	}
}

func TestGlobalRelativePosRoundTrip(t *testing.T) {
	r := NewRegion("main", 4, 4, 4)
	r.Offset = [3]int32{10, -5, 2}
	g := [3]int32{12, -3, 4}
	rel := r.GlobalPosToRelativePos(g)
	if rel != [3]int32{2, 2, 2} {
		t.Fatalf("got %v", rel)
	}
	if back := r.RelativePosToGlobalPos(rel); back != g {
		t.Fatalf("round trip mismatch: %v != %v", back, g)
	}
}

func TestRecomputeEnclosingSize(t *testing.T) {
	r1 := NewRegion("a", 4, 4, 4)
	r1.Offset = [3]int32{0, 0, 0}
	r2 := NewRegion("b", 4, 4, 4)
	r2.Offset = [3]int32{4, 0, 0}
	s := NewSchematic(3465, VanillaStructureMetadata{}, r1, r2)
	if s.EnclosingSize != [3]int32{8, 4, 4} {
		t.Fatalf("got %v", s.EnclosingSize)
	}
}
