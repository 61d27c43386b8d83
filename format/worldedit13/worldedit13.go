// Package worldedit13 reads and writes the WorldEdit 1.13+ Sponge
// Schematic formats, versions 2 and 3. Version is detected on load by the
// presence of a top-level "Schematic" wrapper compound; on save it is
// chosen from DataVersion unless the caller pins one explicitly.
package worldedit13

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/oriumgames/nbt"

	"github.com/oriumgames/schemcore/blockid"
	"github.com/oriumgames/schemcore/internal/nbtutil"
	"github.com/oriumgames/schemcore/internal/pack"
	"github.com/oriumgames/schemcore/ir"
	"github.com/oriumgames/schemcore/schemerr"
)

// dataVersionV3Threshold is the mc_data_version at which WorldEdit starts
// writing the v3, Schematic-wrapped layout (Minecraft 1.20).
const dataVersionV3Threshold = 3465

// LoadOptions controls how loading behaves. The Sponge Schematic formats
// are a dense array with no uncovered cells, so there is nothing here yet.
type LoadOptions struct{}

// SaveOptions controls schematic serialization.
type SaveOptions struct {
	// Version pins the wire version to 2 or 3; 0 selects by DataVersion.
	Version int
}

// Load reads a gzip-framed Sponge Schematic v2 or v3 stream.
func Load(r io.Reader, opts LoadOptions) (*ir.Schematic, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, schemerr.Wrap(schemerr.KindNBTRead, "", err)
	}
	defer gz.Close()

	var root nbtutil.Compound
	if err := nbt.NewDecoderWithEncoding(gz, nbt.BigEndian).Decode(&root); err != nil {
		return nil, schemerr.Wrap(schemerr.KindNBTRead, "", err)
	}

	if wrapped, ok := root["Schematic"]; ok {
		schem, ok := wrapped.(nbtutil.Compound)
		if !ok {
			return nil, schemerr.TagTypeMismatch("/Schematic", "Compound", "other")
		}
		return loadV3(schem)
	}
	return loadV2(root)
}

func loadCommon(path string, widthShort, heightShort, lengthShort int16, offset []int32, version int32, wantVersion int32) (*ir.Region, error) {
	if version != wantVersion {
		return nil, schemerr.NewAt(schemerr.KindUnsupportedWorldEdit13Version, nbtutil.Path(path, "Version"),
			"version %d (supported: 2, 3)", version)
	}
	width, height, length := int(widthShort), int(heightShort), int(lengthShort)
	if width <= 0 || height <= 0 || length <= 0 {
		return nil, schemerr.NewAt(schemerr.KindNegativeSize, path, "non-positive size %dx%dx%d", width, height, length)
	}
	r := ir.NewRegion("Schematic", width, height, length)
	if len(offset) >= 3 {
		r.Offset = [3]int32{offset[0], offset[1], offset[2]}
	}
	return r, nil
}

// decodePalette validates that a Sponge Palette compound (block-id-string
// -> index) assigns every index in [0, paletteMax] exactly once, and
// returns it as a dense slice indexed by wire palette index.
func decodePalette(paletteCompound nbtutil.Compound, paletteMax int32, path string) ([]blockid.Block, error) {
	wire := make([]blockid.Block, paletteMax+1)
	assigned := make([]string, paletteMax+1)
	for key, raw := range paletteCompound {
		idx, ok := raw.(int32)
		if !ok {
			return nil, schemerr.TagTypeMismatch(nbtutil.Path(path, key), "Int", "other")
		}
		if idx < 0 || idx > paletteMax {
			return nil, schemerr.NewAt(schemerr.KindBlockIndexOutOfRange, nbtutil.Path(path, key), "index %d out of range [0,%d]", idx, paletteMax)
		}
		if assigned[idx] != "" {
			return nil, schemerr.NewAt(schemerr.KindConflictingIndexInPalette, path, "index %d assigned to both %q and %q", idx, assigned[idx], key)
		}
		assigned[idx] = key
		b, perr := blockid.Parse(key)
		if perr != blockid.ErrNone {
			return nil, schemerr.NewAt(schemerr.KindInvalidBlockID, nbtutil.Path(path, key), "%s", perr.Error())
		}
		wire[idx] = b
	}
	for i, name := range assigned {
		if name == "" {
			return nil, schemerr.NewAt(schemerr.KindPaletteIsEmpty, path, "index %d never assigned", i)
		}
	}
	return wire, nil
}

func placeBlocks(r *ir.Region, wirePalette []blockid.Block, data []byte, path string) error {
	w, h, l := r.Size()
	indices, err := pack.DecodeVarIntArray(data, w*h*l)
	if err != nil {
		return schemerr.Wrap(schemerr.KindBlockDataIncomplete, path, err)
	}
	for y := 0; y < h; y++ {
		for z := 0; z < l; z++ {
			for x := 0; x < w; x++ {
				cell := x + z*w + y*w*l
				wireIdx := indices[cell]
				if wireIdx < 0 || wireIdx >= len(wirePalette) {
					return schemerr.NewAt(schemerr.KindBlockIndexOutOfRange, nbtutil.Index(path, cell), "index %d out of range [0,%d)", wireIdx, len(wirePalette))
				}
				if err := r.SetBlock(x, y, z, wirePalette[wireIdx]); err != nil {
					return schemerr.Wrap(schemerr.KindBlockPosOutOfRange, nbtutil.Index(path, cell), err)
				}
			}
		}
	}
	return nil
}

func decodeBlockEntities(r *ir.Region, list []any, path string) error {
	for i, raw := range list {
		comp, ok := raw.(nbtutil.Compound)
		if !ok {
			return schemerr.TagTypeMismatch(nbtutil.Index(path, i), "Compound", "other")
		}
		elemPath := nbtutil.Index(path, i)
		pos, err := nbtutil.RequireIntArray(comp, "Pos", elemPath)
		if err != nil {
			return err
		}
		if len(pos) != 3 {
			return schemerr.NewAt(schemerr.KindInvalidValue, nbtutil.Path(elemPath, "Pos"), "expected 3 elements, got %d", len(pos))
		}
		x, y, z := int(pos[0]), int(pos[1]), int(pos[2])
		if !r.ContainsCoord(x, y, z) {
			return schemerr.NewAt(schemerr.KindBlockPosOutOfRange, elemPath, "pos (%d,%d,%d) outside region", x, y, z)
		}
		tags := make(map[string]any, len(comp))
		for k, v := range comp {
			if k == "Pos" {
				continue
			}
			tags[k] = v
		}
		p := ir.Pos{int32(x), int32(y), int32(z)}
		if _, exists := r.BlockEntities[p]; exists {
			return schemerr.NewAt(schemerr.KindMultipleBlockEntityInOnePos, elemPath, "pos (%d,%d,%d) already has a block entity", x, y, z)
		}
		r.BlockEntities[p] = &ir.BlockEntity{Tags: tags}
	}
	return nil
}

func decodeEntities(r *ir.Region, list []any, path string) error {
	for i, raw := range list {
		comp, ok := raw.(nbtutil.Compound)
		if !ok {
			return schemerr.TagTypeMismatch(nbtutil.Index(path, i), "Compound", "other")
		}
		e := &ir.Entity{Tags: make(map[string]any, len(comp))}
		if posRaw, ok := comp["Pos"].([]any); ok && len(posRaw) == 3 {
			for d := 0; d < 3; d++ {
				if f, ok := posRaw[d].(float64); ok {
					e.Position[d] = f
				}
			}
		}
		if rotRaw, ok := comp["Rotation"].([]any); ok && len(rotRaw) == 2 {
			for d := 0; d < 2; d++ {
				if f, ok := rotRaw[d].(float32); ok {
					e.Rotation[d] = f
				}
			}
		}
		if motRaw, ok := comp["Motion"].([]any); ok && len(motRaw) == 3 {
			for d := 0; d < 3; d++ {
				if f, ok := motRaw[d].(float64); ok {
					e.Motion[d] = f
				}
			}
		}
		if rawUUID, ok := comp["UUID"].([]int32); ok {
			if id, ok := nbtutil.UUIDFromIntArray(rawUUID); ok {
				e.UUID = &id
			}
		}
		for k, v := range comp {
			if k == "Pos" || k == "Rotation" || k == "Motion" || k == "UUID" {
				continue
			}
			e.Tags[k] = v
		}
		r.Entities = append(r.Entities, e)
	}
	return nil
}

func loadV2(root nbtutil.Compound) (*ir.Schematic, error) {
	version, err := nbtutil.RequireInt32(root, "Version", "")
	if err != nil {
		return nil, err
	}
	dataVersion, err := nbtutil.RequireInt32(root, "DataVersion", "")
	if err != nil {
		return nil, err
	}
	width, err := nbtutil.RequireInt16(root, "Width", "")
	if err != nil {
		return nil, err
	}
	height, err := nbtutil.RequireInt16(root, "Height", "")
	if err != nil {
		return nil, err
	}
	length, err := nbtutil.RequireInt16(root, "Length", "")
	if err != nil {
		return nil, err
	}
	offset, err := nbtutil.OptionalIntArray(root, "Offset", "")
	if err != nil {
		return nil, err
	}

	r, err := loadCommon("", width, height, length, offset, version, 2)
	if err != nil {
		return nil, err
	}

	paletteMax, err := nbtutil.RequireInt32(root, "PaletteMax", "")
	if err != nil {
		return nil, err
	}
	paletteCompound, err := nbtutil.RequireCompound(root, "Palette", "")
	if err != nil {
		return nil, err
	}
	wirePalette, err := decodePalette(paletteCompound, paletteMax, "/Palette")
	if err != nil {
		return nil, err
	}
	blockData, err := nbtutil.RequireByteArray(root, "BlockData", "")
	if err != nil {
		return nil, err
	}
	if err := placeBlocks(r, wirePalette, blockData, "/BlockData"); err != nil {
		return nil, err
	}

	if list, err := nbtutil.OptionalList(root, "BlockEntities", ""); err != nil {
		return nil, err
	} else if err := decodeBlockEntities(r, list, "/BlockEntities"); err != nil {
		return nil, err
	}
	if list, err := nbtutil.OptionalList(root, "Entities", ""); err != nil {
		return nil, err
	} else if err := decodeEntities(r, list, "/Entities"); err != nil {
		return nil, err
	}

	if err := r.ShrinkPalette(); err != nil {
		return nil, err
	}

	weOffset := [3]int32{}
	if meta, _ := nbtutil.OptionalCompound(root, "Metadata", ""); meta != nil {
		if x, ok := meta["WEOffsetX"].(int32); ok {
			weOffset[0] = x
		}
		if y, ok := meta["WEOffsetY"].(int32); ok {
			weOffset[1] = y
		}
		if z, ok := meta["WEOffsetZ"].(int32); ok {
			weOffset[2] = z
		}
	}

	md := ir.WorldEdit13Metadata{SchemaVersion: 2, WEOffset: weOffset, Offset: r.Offset}
	return ir.NewSchematic(dataVersion, md, r), nil
}

func loadV3(schem nbtutil.Compound) (*ir.Schematic, error) {
	path := "/Schematic"
	version, err := nbtutil.RequireInt32(schem, "Version", path)
	if err != nil {
		return nil, err
	}
	dataVersion, err := nbtutil.RequireInt32(schem, "DataVersion", path)
	if err != nil {
		return nil, err
	}
	width, err := nbtutil.RequireInt16(schem, "Width", path)
	if err != nil {
		return nil, err
	}
	height, err := nbtutil.RequireInt16(schem, "Height", path)
	if err != nil {
		return nil, err
	}
	length, err := nbtutil.RequireInt16(schem, "Length", path)
	if err != nil {
		return nil, err
	}
	offset, err := nbtutil.OptionalIntArray(schem, "Offset", path)
	if err != nil {
		return nil, err
	}

	r, err := loadCommon(path, width, height, length, offset, version, 3)
	if err != nil {
		return nil, err
	}

	blocks, err := nbtutil.RequireCompound(schem, "Blocks", path)
	if err != nil {
		return nil, err
	}
	blocksPath := nbtutil.Path(path, "Blocks")
	paletteCompound, err := nbtutil.RequireCompound(blocks, "Palette", blocksPath)
	if err != nil {
		return nil, err
	}
	wirePalette, err := decodePalette(paletteCompound, int32(len(paletteCompound)-1), nbtutil.Path(blocksPath, "Palette"))
	if err != nil {
		return nil, err
	}
	blockData, err := nbtutil.RequireByteArray(blocks, "Data", blocksPath)
	if err != nil {
		return nil, err
	}
	if err := placeBlocks(r, wirePalette, blockData, nbtutil.Path(blocksPath, "Data")); err != nil {
		return nil, err
	}
	if list, err := nbtutil.OptionalList(blocks, "BlockEntities", blocksPath); err != nil {
		return nil, err
	} else if err := decodeBlockEntities(r, list, nbtutil.Path(blocksPath, "BlockEntities")); err != nil {
		return nil, err
	}

	if list, err := nbtutil.OptionalList(schem, "Entities", path); err != nil {
		return nil, err
	} else if err := decodeEntities(r, list, nbtutil.Path(path, "Entities")); err != nil {
		return nil, err
	}

	if err := r.ShrinkPalette(); err != nil {
		return nil, err
	}

	var weOffset [3]int32
	var originDate int64
	if meta, _ := nbtutil.OptionalCompound(schem, "Metadata", path); meta != nil {
		if we, ok := meta["WorldEdit"].(nbtutil.Compound); ok {
			if org, ok := we["Origin"].([]int32); ok && len(org) == 3 {
				weOffset = [3]int32{org[0], org[1], org[2]}
			}
		}
		if d, ok := meta["Date"].(int64); ok {
			originDate = d
		}
	}
	_ = originDate

	md := ir.WorldEdit13Metadata{SchemaVersion: 3, WEOffset: weOffset, Offset: r.Offset}
	return ir.NewSchematic(dataVersion, md, r), nil
}

// Save writes s as a gzip-framed Sponge Schematic. s must hold exactly one
// region; any other count returns an error, so multiple regions have to be
// merged (e.g. through a paletteunion pass) first.
func Save(w io.Writer, s *ir.Schematic, opts SaveOptions) error {
	if len(s.Regions) != 1 {
		return schemerr.New(schemerr.KindInvalidValue, "worldedit13: save requires exactly one region, got %d", len(s.Regions))
	}
	version := opts.Version
	if version == 0 {
		if s.DataVersion >= dataVersionV3Threshold {
			version = 3
		} else {
			version = 2
		}
	}

	r := s.Regions[0]
	if err := r.ShrinkPalette(); err != nil {
		return err
	}

	width, height, length := r.Size()
	paletteMap := make(map[string]any, len(r.Palette))
	for i, b := range r.Palette {
		paletteMap[b.FullID()] = int32(i)
	}

	indices := make([]int, width*height*length)
	for y := 0; y < height; y++ {
		for z := 0; z < length; z++ {
			for x := 0; x < width; x++ {
				idx, _ := r.BlockIndexAt(x, y, z)
				indices[x+z*width+y*width*length] = int(idx)
			}
		}
	}
	blockData := pack.EncodeVarIntArray(indices)

	var blockEntities []any
	for pos, be := range r.BlockEntities {
		entry := make(map[string]any, len(be.Tags)+1)
		for k, v := range be.Tags {
			entry[k] = v
		}
		entry["Pos"] = []int32{pos[0], pos[1], pos[2]}
		blockEntities = append(blockEntities, entry)
	}

	var entities []any
	for _, e := range r.Entities {
		entry := make(map[string]any, len(e.Tags)+3)
		for k, v := range e.Tags {
			entry[k] = v
		}
		entry["Pos"] = []float64{e.Position[0], e.Position[1], e.Position[2]}
		entry["Rotation"] = []float32{e.Rotation[0], e.Rotation[1]}
		entry["Motion"] = []float64{e.Motion[0], e.Motion[1], e.Motion[2]}
		if e.UUID != nil {
			entry["UUID"] = nbtutil.UUIDToIntArray(*e.UUID)
		}
		entities = append(entities, entry)
	}

	var root map[string]any
	if version == 2 {
		root = map[string]any{
			"Version":     int32(2),
			"DataVersion": s.DataVersion,
			"Width":       int16(width),
			"Height":      int16(height),
			"Length":      int16(length),
			"Offset":      []int32{r.Offset[0], r.Offset[1], r.Offset[2]},
			"PaletteMax":  int32(len(r.Palette) - 1),
			"Palette":     paletteMap,
			"BlockData":   blockData,
		}
		if blockEntities != nil {
			root["BlockEntities"] = blockEntities
		}
		if entities != nil {
			root["Entities"] = entities
		}
	} else {
		blocks := map[string]any{
			"Palette": paletteMap,
			"Data":    blockData,
		}
		if blockEntities != nil {
			blocks["BlockEntities"] = blockEntities
		}
		schem := map[string]any{
			"Version":     int32(3),
			"DataVersion": s.DataVersion,
			"Width":       int16(width),
			"Height":      int16(height),
			"Length":      int16(length),
			"Offset":      []int32{r.Offset[0], r.Offset[1], r.Offset[2]},
			"Blocks":      blocks,
		}
		if entities != nil {
			schem["Entities"] = entities
		}
		root = map[string]any{"Schematic": schem}
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := nbt.NewEncoderWithEncoding(gz, nbt.BigEndian).Encode(root); err != nil {
		return schemerr.Wrap(schemerr.KindNBTWrite, "", err)
	}
	if err := gz.Close(); err != nil {
		return schemerr.Wrap(schemerr.KindNBTWrite, "", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
