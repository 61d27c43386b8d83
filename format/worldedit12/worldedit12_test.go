package worldedit12

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/oriumgames/nbt"

	"github.com/oriumgames/schemcore/ir"
)

func buildSample(t *testing.T) []byte {
	t.Helper()
	root := map[string]any{
		"Width":  int16(2),
		"Height": int16(1),
		"Length": int16(1),
		// y=0,z=0,x=0 -> stone (id 1, damage 0); y=0,z=0,x=1 -> air (id 0)
		"Blocks":     []byte{1, 0},
		"Data":       []byte{0, 0},
		"WEOffsetX":  int32(10),
		"WEOffsetY":  int32(20),
		"WEOffsetZ":  int32(30),
		"WEOriginX":  int32(0),
		"WEOriginY":  int32(0),
		"WEOriginZ":  int32(0),
		"Materials":  "Alpha",
		"TileEntities": []any{
			map[string]any{"x": int32(0), "y": int32(0), "z": int32(0), "id": "minecraft:chest"},
		},
		"Entities": []any{},
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := nbt.NewEncoderWithEncoding(gz, nbt.BigEndian).Encode(root); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestLoad(t *testing.T) {
	raw := buildSample(t)
	s, err := Load(bytes.NewReader(raw), LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(s.Regions))
	}
	r := s.Regions[0]
	if r.Offset != [3]int32{10, 20, 30} {
		t.Fatalf("offset not preserved: %+v", r.Offset)
	}
	b, ok := r.BlockAt(0, 0, 0)
	if !ok || b.ID != "stone" {
		t.Fatalf("got %+v ok=%v", b, ok)
	}
	air, ok := r.BlockAt(1, 0, 0)
	if !ok || !air.IsAir() {
		t.Fatalf("expected air, got %+v", air)
	}
	be, ok := r.BlockEntities[ir.Pos{0, 0, 0}]
	if !ok || be.Tags["id"] != "minecraft:chest" {
		t.Fatalf("block entity missing or wrong: %+v ok=%v", be, ok)
	}
}

func TestRejectsBlockDataLengthMismatch(t *testing.T) {
	root := map[string]any{
		"Width": int16(2), "Height": int16(1), "Length": int16(1),
		"Blocks": []byte{1}, "Data": []byte{0, 0},
		"WEOffsetX": int32(0), "WEOffsetY": int32(0), "WEOffsetZ": int32(0),
		"WEOriginX": int32(0), "WEOriginY": int32(0), "WEOriginZ": int32(0),
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := nbt.NewEncoderWithEncoding(gz, nbt.BigEndian).Encode(root); err != nil {
		t.Fatalf("encode: %v", err)
	}
	gz.Close()
	if _, err := Load(&buf, LoadOptions{}); err == nil {
		t.Fatal("expected error for block/data length mismatch")
	}
}
