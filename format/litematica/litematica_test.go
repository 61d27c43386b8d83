package litematica

import (
	"bytes"
	"testing"

	"github.com/oriumgames/schemcore/blockid"
	"github.com/oriumgames/schemcore/ir"
)

func buildSample() *ir.Schematic {
	r1 := ir.NewRegion("main", 2, 2, 2)
	stone := blockid.MustParse("minecraft:stone")
	r1.SetBlock(1, 1, 1, stone)
	r1.Entities = append(r1.Entities, &ir.Entity{
		Tags:     map[string]any{"id": "minecraft:armor_stand"},
		Position: [3]float64{0.5, 0.5, 0.5},
	})

	r2 := ir.NewRegion("annex", 1, 1, 1)
	r2.Offset = [3]int32{5, 0, 0}
	glass := blockid.MustParse("minecraft:glass")
	r2.SetBlock(0, 0, 0, glass)

	return ir.NewSchematic(2860, ir.LitematicaMetadata{Name: "test", Author: "someone"}, r1, r2)
}

func TestRoundTripV6(t *testing.T) {
	s := buildSample()
	var buf bytes.Buffer
	if err := Save(&buf, s, SaveOptions{Version: 6}); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(&buf, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(loaded.Regions))
	}

	var main, annex *ir.Region
	for _, r := range loaded.Regions {
		switch r.Name {
		case "main":
			main = r
		case "annex":
			annex = r
		}
	}
	if main == nil || annex == nil {
		t.Fatalf("missing expected region names: %+v", loaded.Regions)
	}
	b, ok := main.BlockAt(1, 1, 1)
	if !ok || b.ID != "stone" {
		t.Fatalf("got %+v ok=%v", b, ok)
	}
	if len(main.Entities) != 1 || main.Entities[0].Tags["id"] != "minecraft:armor_stand" {
		t.Fatalf("entity missing or wrong: %+v", main.Entities)
	}
	if annex.Offset != [3]int32{5, 0, 0} {
		t.Fatalf("annex offset not preserved: %+v", annex.Offset)
	}
	g, ok := annex.BlockAt(0, 0, 0)
	if !ok || g.ID != "glass" {
		t.Fatalf("got %+v ok=%v", g, ok)
	}
	md, ok := loaded.Metadata.(ir.LitematicaMetadata)
	if !ok || md.Name != "test" || md.Version != 6 || md.SubVersion != 1 {
		t.Fatalf("metadata not round-tripped: %+v", loaded.Metadata)
	}
}

func TestRoundTripV5NoSubVersion(t *testing.T) {
	s := buildSample()
	s.DataVersion = 1343 // pre-1.18, picks version 5 by default
	var buf bytes.Buffer
	if err := Save(&buf, s, SaveOptions{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(&buf, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	md, ok := loaded.Metadata.(ir.LitematicaMetadata)
	if !ok || md.Version != 5 {
		t.Fatalf("expected version 5, got %+v", loaded.Metadata)
	}
}

func TestDuplicatedRegionNameRejectedByDefault(t *testing.T) {
	r1 := ir.NewRegion("same", 1, 1, 1)
	r2 := ir.NewRegion("same", 1, 1, 1)
	s := ir.NewSchematic(2860, ir.LitematicaMetadata{}, r1, r2)
	var buf bytes.Buffer
	if err := Save(&buf, s, SaveOptions{}); err == nil {
		t.Fatal("expected error for duplicated region name")
	}
}

func TestDuplicatedRegionNameRenamed(t *testing.T) {
	r1 := ir.NewRegion("same", 1, 1, 1)
	r2 := ir.NewRegion("same", 1, 1, 1)
	s := ir.NewSchematic(2860, ir.LitematicaMetadata{}, r1, r2)
	var buf bytes.Buffer
	if err := Save(&buf, s, SaveOptions{RenameDuplicatedRegions: true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(&buf, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(loaded.Regions))
	}
}
