package paletteunion

import (
	"testing"

	"github.com/oriumgames/schemcore/blockid"
)

func TestMergeDedupesAcrossRegions(t *testing.T) {
	stone := blockid.MustParse("minecraft:stone")
	air := blockid.Air()
	glass := blockid.MustParse("minecraft:glass")

	palettes := [][]blockid.Block{
		{air, stone},
		{stone, glass},
		{glass, air},
	}

	u := Merge(palettes)
	if len(u.Global) != 3 {
		t.Fatalf("expected 3 distinct blocks, got %d: %v", len(u.Global), u.Global)
	}

	for r, lut := range u.LUTs {
		for i, idx := range lut {
			if !u.Global[idx].Equal(palettes[r][i]) {
				t.Fatalf("region %d entry %d: LUT points at %v, want %v", r, i, u.Global[idx], palettes[r][i])
			}
		}
	}

	// Every occurrence of the same block across regions must resolve to the
	// same global index.
	stoneIdx := u.LUTs[0][1]
	if u.LUTs[1][0] != stoneIdx {
		t.Fatalf("stone resolved to different global indices: %d vs %d", stoneIdx, u.LUTs[1][0])
	}
}

func TestMergeEmptyPalettes(t *testing.T) {
	u := Merge(nil)
	if len(u.Global) != 0 || len(u.LUTs) != 0 {
		t.Fatalf("expected empty union, got %+v", u)
	}
}

func TestMergeDistinguishesProperties(t *testing.T) {
	plain := blockid.MustParse("minecraft:oak_log")
	rotated := plain.WithProperty("axis", "x")

	u := Merge([][]blockid.Block{{plain, rotated}})
	if len(u.Global) != 2 {
		t.Fatalf("expected distinct entries for differing properties, got %d", len(u.Global))
	}
}
