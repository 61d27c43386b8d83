package worldedit13

import (
	"bytes"
	"testing"

	"github.com/oriumgames/schemcore/blockid"
	"github.com/oriumgames/schemcore/ir"
)

func buildSample() *ir.Schematic {
	r := ir.NewRegion("Schematic", 2, 2, 2)
	stone := blockid.MustParse("minecraft:stone")
	slab := blockid.MustParse("minecraft:stone_slab[half=top,variant=brick]")
	r.SetBlock(0, 0, 0, stone)
	r.SetBlock(1, 0, 0, slab)
	r.BlockEntities[ir.Pos{1, 0, 0}] = &ir.BlockEntity{Tags: map[string]any{"CustomName": "hi"}}
	return ir.NewSchematic(3465, ir.WorldEdit13Metadata{SchemaVersion: 3}, r)
}

func TestRoundTripV3(t *testing.T) {
	s := buildSample()
	var buf bytes.Buffer
	if err := Save(&buf, s, SaveOptions{Version: 3}); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(&buf, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(loaded.Regions))
	}
	r := loaded.Regions[0]
	b, ok := r.BlockAt(1, 0, 0)
	if !ok || b.ID != "stone_slab" || b.Properties["half"] != "top" {
		t.Fatalf("got %+v ok=%v", b, ok)
	}
	if be, ok := r.BlockEntities[ir.Pos{1, 0, 0}]; !ok || be.Tags["CustomName"] != "hi" {
		t.Fatalf("block entity missing or wrong: %+v", be)
	}
}

func TestRoundTripV2(t *testing.T) {
	s := buildSample()
	s.DataVersion = 1976
	var buf bytes.Buffer
	if err := Save(&buf, s, SaveOptions{Version: 2}); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(&buf, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, ok := loaded.Regions[0].BlockAt(0, 0, 0)
	if !ok || b.ID != "stone" {
		t.Fatalf("got %+v ok=%v", b, ok)
	}
}

func TestSaveVersionChosenByDataVersion(t *testing.T) {
	s := buildSample()
	s.DataVersion = 1343 // < threshold, picks v2
	var buf bytes.Buffer
	if err := Save(&buf, s, SaveOptions{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(&buf, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	md, ok := loaded.Metadata.(ir.WorldEdit13Metadata)
	if !ok || md.SchemaVersion != 2 {
		t.Fatalf("expected v2 metadata, got %+v", loaded.Metadata)
	}
}

func TestConflictingIndexInPalette(t *testing.T) {
	// hand-construct a palette compound with two keys mapped to the same
	// index; decodePalette must reject it.
	comp := map[string]any{
		"minecraft:air":   int32(0),
		"minecraft:stone": int32(0),
	}
	if _, err := decodePalette(comp, 0, "/Palette"); err == nil {
		t.Fatal("expected ConflictingIndexInPalette error")
	}
}
