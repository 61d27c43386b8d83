package world

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/oriumgames/nbt"

	"github.com/oriumgames/schemcore/internal/nbtutil"
	"github.com/oriumgames/schemcore/internal/pack"
)

func buildChunkNBT(t *testing.T) nbtutil.Compound {
	t.Helper()
	indices := make([]int, 4096)
	indices[0] = 1 // (x=0,y=0,z=0) -> stone
	words := pack.PackNonStraddling(indices, pack.BitsPerEntryMin(2, 4))

	section := map[string]any{
		"Y": int8(0),
		"block_states": map[string]any{
			"palette": []any{
				map[string]any{"Name": "minecraft:air"},
				map[string]any{"Name": "minecraft:stone"},
			},
			"data": words,
		},
		"biomes": map[string]any{
			"palette": []any{"minecraft:plains"},
		},
	}

	return nbtutil.Compound{
		"Status":        "full",
		"LastUpdate":    int64(100),
		"InhabitedTime": int64(5),
		"isLightOn":     int8(1),
		"sections":      []any{section},
		"block_entities": []any{
			map[string]any{"x": int32(0), "y": int32(0), "z": int32(0), "id": "minecraft:chest"},
		},
	}
}

// buildRegionFile assembles a minimal single-chunk MCA file with the chunk
// at local coordinate (lx, lz), tag 3 (uncompressed), payload nbtBytes.
func buildRegionFile(lx, lz int, nbtBytes []byte) []byte {
	payloadLen := 1 + len(nbtBytes) // compression tag byte + NBT bytes
	segmentsNeeded := (5 + len(nbtBytes) + segmentBytes - 1) / segmentBytes
	totalSegments := 2 + segmentsNeeded

	buf := make([]byte, totalSegments*segmentBytes)
	recordIdx := lx + lz*32
	offset := 2
	entry := buf[recordIdx*4 : recordIdx*4+4]
	entry[0] = byte(offset >> 16)
	entry[1] = byte(offset >> 8)
	entry[2] = byte(offset)
	entry[3] = byte(segmentsNeeded)

	tsOff := segmentBytes + recordIdx*4
	binary.BigEndian.PutUint32(buf[tsOff:tsOff+4], 12345)

	start := offset * segmentBytes
	binary.BigEndian.PutUint32(buf[start:start+4], uint32(payloadLen))
	buf[start+4] = 3 // uncompressed
	copy(buf[start+5:], nbtBytes)

	return buf
}

func TestLoadRegionDirAndParseChunk(t *testing.T) {
	var raw bytes.Buffer
	if err := nbt.NewEncoderWithEncoding(&raw, nbt.BigEndian).Encode(map[string]any(buildChunkNBT(t))); err != nil {
		t.Fatalf("encode: %v", err)
	}

	region := buildRegionFile(0, 0, raw.Bytes())
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "r.0.0.mca"), region, 0o644); err != nil {
		t.Fatalf("write region file: %v", err)
	}

	chunks, err := LoadRegionDir(dir, false)
	if err != nil {
		t.Fatalf("LoadRegionDir: %v", err)
	}
	v, ok := chunks[ChunkPos{0, 0}]
	if !ok {
		t.Fatalf("chunk (0,0) missing: %+v", chunks)
	}
	if v.Parsed != nil {
		t.Fatalf("expected lazy variant to stay unparsed")
	}
	if err := v.Parse(); err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := v.Parsed
	if c.Status != StatusFull {
		t.Fatalf("expected StatusFull, got %v", c.Status)
	}
	if c.LastUpdate != 100 || c.InhabitedTime != 5 || !c.IsLightOn {
		t.Fatalf("metadata not decoded: %+v", c)
	}
	sc, ok := c.SubChunks[0]
	if !ok {
		t.Fatalf("sub-chunk Y=0 missing")
	}
	if b := sc.BlockAt(0, 0, 0); b.ID != "stone" {
		t.Fatalf("expected stone at (0,0,0), got %+v", b)
	}
	if b := sc.BlockAt(1, 0, 0); !b.IsAir() {
		t.Fatalf("expected air at (1,0,0), got %+v", b)
	}
	if biome := sc.BiomeAt(0, 0, 0); biome != "minecraft:plains" {
		t.Fatalf("expected plains biome, got %q", biome)
	}
	if sc.SkyBlockLight[1].Sky != 15 || sc.SkyBlockLight[1].Block != 15 {
		t.Fatalf("expected default light 15/15, got %+v", sc.SkyBlockLight[1])
	}
}

func TestInvalidSegmentRangeRejected(t *testing.T) {
	buf := make([]byte, 3*segmentBytes)
	// offset 1 is below the minimum valid offset of 2.
	buf[0], buf[1], buf[2], buf[3] = 0, 0, 1, 1
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "r.0.0.mca"), buf, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadRegionFile(filepath.Join(dir, "r.0.0.mca"), false); err == nil {
		t.Fatal("expected InvalidSegmentRangeInMCA error")
	}
}

func TestIncompleteFileRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.0.0.mca")
	if err := os.WriteFile(path, make([]byte, 100), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadRegionFile(path, false); err == nil {
		t.Fatal("expected IncompleteSegmentInMCA error")
	}
}

func TestMissingSubChunkGapRejected(t *testing.T) {
	chunk := buildChunkNBT(t)
	sections := chunk["sections"].([]any)
	top := map[string]any{
		"Y": int8(2),
		"block_states": map[string]any{
			"palette": []any{map[string]any{"Name": "minecraft:air"}},
		},
		"biomes": map[string]any{
			"palette": []any{"minecraft:plains"},
		},
	}
	chunk["sections"] = append(sections, top)

	if _, err := decodeChunk(chunk, "test", 0); err == nil {
		t.Fatal("expected MissingSubChunk error for gap between Y=0 and Y=2")
	}
}

func TestParseChunkStatusAcceptsNamespacePrefix(t *testing.T) {
	s, ok := parseChunkStatus("minecraft:full")
	if !ok || s != StatusFull {
		t.Fatalf("expected StatusFull, got %v ok=%v", s, ok)
	}
	s, ok = parseChunkStatus("full")
	if !ok || s != StatusFull {
		t.Fatalf("expected StatusFull, got %v ok=%v", s, ok)
	}
	if _, ok := parseChunkStatus("bogus"); ok {
		t.Fatal("expected bogus status to be rejected")
	}
}

func TestRegionAndLocalCoordRoundTrip(t *testing.T) {
	pos := ChunkPos{X: -33, Z: 65}
	rc := pos.RegionCoord()
	if rc != (XZ{-2, 2}) {
		t.Fatalf("unexpected region coord: %+v", rc)
	}
	lx, lz := pos.LocalCoord()
	if lx != 31 || lz != 1 {
		t.Fatalf("unexpected local coord: %d,%d", lx, lz)
	}
}
