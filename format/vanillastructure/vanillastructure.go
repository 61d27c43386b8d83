// Package vanillastructure reads and writes the vanilla Minecraft
// structure block format (.nbt): a flat block list referencing a palette,
// rather than a packed 3-D array.
package vanillastructure

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/oriumgames/nbt"

	"github.com/oriumgames/schemcore/blockid"
	"github.com/oriumgames/schemcore/internal/nbtutil"
	"github.com/oriumgames/schemcore/ir"
	"github.com/oriumgames/schemcore/schemerr"
)

// LoadOptions controls how cells the block list never mentions are filled.
type LoadOptions struct {
	// Background fills every cell before the block list is applied;
	// defaults to air if the zero Block is given.
	Background blockid.Block
}

// SaveOptions controls serialization.
type SaveOptions struct {
	// KeepAir, when false (the default), omits air cells from the written
	// block list. structure_void cells are always omitted.
	KeepAir bool
}

// requireInt32List reads key as a TAG_List of TAG_Int and returns its
// elements. Vanilla structures encode size/pos/blockPos this way rather than
// as a TAG_Int_Array, unlike most other int-triple tags in this core.
func requireInt32List(c nbtutil.Compound, key, path string) ([]int32, error) {
	list, err := nbtutil.RequireList(c, key, path)
	if err != nil {
		return nil, err
	}
	out := make([]int32, len(list))
	for i, v := range list {
		n, ok := v.(int32)
		if !ok {
			return nil, schemerr.TagTypeMismatch(nbtutil.Index(nbtutil.Path(path, key), i), "Int", "other")
		}
		out[i] = n
	}
	return out, nil
}

// Load reads a gzip-framed vanilla structure stream.
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

	dataVersion, err := nbtutil.RequireInt32(root, "DataVersion", "")
	if err != nil {
		return nil, err
	}
	sizeList, err := requireInt32List(root, "size", "")
	if err != nil {
		return nil, err
	}
	if len(sizeList) != 3 {
		return nil, schemerr.NewAt(schemerr.KindInvalidValue, "/size", "expected 3 elements, got %d", len(sizeList))
	}
	sx, sy, sz := int(sizeList[0]), int(sizeList[1]), int(sizeList[2])
	if sx < 0 || sy < 0 || sz < 0 {
		return nil, schemerr.NewAt(schemerr.KindNegativeSize, "/size", "negative size %d,%d,%d", sx, sy, sz)
	}
	volume := sx * sy * sz
	if volume >= 65536*65536 {
		// guard against pathological sizes before allocating
		return nil, schemerr.NewAt(schemerr.KindSizeTooLarge, "/size", "volume %d too large", volume)
	}

	region := ir.NewRegion("", sx, sy, sz)
	background := opts.Background
	if background.ID == "" {
		background = blockid.Air()
	}
	region.FillWith(background)

	paletteList, err := nbtutil.RequireList(root, "palette", "")
	if err != nil {
		return nil, err
	}
	if len(paletteList) >= 65536 {
		return nil, schemerr.NewAt(schemerr.KindPaletteTooLong, "/palette", "palette has %d entries", len(paletteList))
	}
	wirePalette := make([]blockid.Block, len(paletteList))
	for i, raw := range paletteList {
		comp, ok := raw.(nbtutil.Compound)
		if !ok {
			return nil, schemerr.TagTypeMismatch(nbtutil.Index("/palette", i), "Compound", "other")
		}
		elemPath := nbtutil.Index("/palette", i)
		name, err := nbtutil.RequireString(comp, "Name", elemPath)
		if err != nil {
			return nil, err
		}
		b, perr := blockid.Parse(name)
		if perr != blockid.ErrNone {
			return nil, schemerr.NewAt(schemerr.KindInvalidBlockID, nbtutil.Path(elemPath, "Name"), "%s", perr.Error())
		}
		if propsComp, perr := nbtutil.OptionalCompound(comp, "Properties", elemPath); perr != nil {
			return nil, perr
		} else if propsComp != nil {
			for k, v := range propsComp {
				s, ok := v.(string)
				if !ok {
					return nil, schemerr.TagTypeMismatch(nbtutil.Path(elemPath, "Properties/"+k), "String", "other")
				}
				b = b.WithProperty(k, s)
			}
		}
		wirePalette[i] = b
	}

	blocksList, err := nbtutil.RequireList(root, "blocks", "")
	if err != nil {
		return nil, err
	}
	for i, raw := range blocksList {
		comp, ok := raw.(nbtutil.Compound)
		if !ok {
			return nil, schemerr.TagTypeMismatch(nbtutil.Index("/blocks", i), "Compound", "other")
		}
		elemPath := nbtutil.Index("/blocks", i)
		state, err := nbtutil.RequireInt32(comp, "state", elemPath)
		if err != nil {
			return nil, err
		}
		if state < 0 || int(state) >= len(wirePalette) {
			return nil, schemerr.NewAt(schemerr.KindBlockIndexOutOfRange, nbtutil.Path(elemPath, "state"), "index %d out of range [0,%d)", state, len(wirePalette))
		}
		pos, err := requireInt32List(comp, "pos", elemPath)
		if err != nil {
			return nil, err
		}
		if len(pos) != 3 {
			return nil, schemerr.NewAt(schemerr.KindInvalidValue, nbtutil.Path(elemPath, "pos"), "expected 3 elements, got %d", len(pos))
		}
		x, y, z := int(pos[0]), int(pos[1]), int(pos[2])
		if !region.ContainsCoord(x, y, z) {
			return nil, schemerr.NewAt(schemerr.KindBlockPosOutOfRange, elemPath, "pos (%d,%d,%d) outside %dx%dx%d", x, y, z, sx, sy, sz)
		}
		if err := region.SetBlock(x, y, z, wirePalette[state]); err != nil {
			return nil, schemerr.Wrap(schemerr.KindBlockIndexOutOfRange, elemPath, err)
		}
		if nbtComp, perr := nbtutil.OptionalCompound(comp, "nbt", elemPath); perr != nil {
			return nil, perr
		} else if nbtComp != nil {
			p := ir.Pos{int32(x), int32(y), int32(z)}
			if _, exists := region.BlockEntities[p]; exists {
				return nil, schemerr.NewAt(schemerr.KindMultipleBlockEntityInOnePos, elemPath, "pos (%d,%d,%d) already has a block entity", x, y, z)
			}
			region.BlockEntities[p] = &ir.BlockEntity{Tags: nbtComp}
		}
	}

	if list, err := nbtutil.OptionalList(root, "entities", ""); err != nil {
		return nil, err
	} else {
		for i, raw := range list {
			comp, ok := raw.(nbtutil.Compound)
			if !ok {
				return nil, schemerr.TagTypeMismatch(nbtutil.Index("/entities", i), "Compound", "other")
			}
			elemPath := nbtutil.Index("/entities", i)
			e := &ir.Entity{Tags: make(map[string]any)}
			if blockPos, err := requireInt32List(comp, "blockPos", elemPath); err == nil && len(blockPos) == 3 {
				e.BlockPos = [3]int32{blockPos[0], blockPos[1], blockPos[2]}
			}
			if pos, err := nbtutil.OptionalList(comp, "pos", elemPath); err == nil {
				for d := 0; d < 3 && d < len(pos); d++ {
					if f, ok := pos[d].(float64); ok {
						e.Position[d] = f
					}
				}
			}
			if nbtComp, perr := nbtutil.OptionalCompound(comp, "nbt", elemPath); perr == nil && nbtComp != nil {
				e.Tags = nbtComp
				if rawUUID, ok := nbtComp["UUID"].([]int32); ok {
					if id, ok := nbtutil.UUIDFromIntArray(rawUUID); ok {
						e.UUID = &id
					}
				}
			}
			region.Entities = append(region.Entities, e)
		}
	}

	if err := region.ShrinkPalette(); err != nil {
		return nil, err
	}

	return ir.NewSchematic(dataVersion, ir.VanillaStructureMetadata{}, region), nil
}

// Save writes s as a gzip-framed vanilla structure stream.
func Save(w io.Writer, s *ir.Schematic, opts SaveOptions) error {
	if len(s.Regions) != 1 {
		return schemerr.New(schemerr.KindInvalidValue, "vanillastructure: save requires exactly one region, got %d", len(s.Regions))
	}
	r := s.Regions[0]
	if err := r.ShrinkPalette(); err != nil {
		return err
	}
	sx, sy, sz := r.Size()

	paletteList := make([]any, len(r.Palette))
	for i, b := range r.Palette {
		entry := map[string]any{"Name": b.Namespace + ":" + b.ID}
		if len(b.Properties) > 0 {
			props := make(map[string]any, len(b.Properties))
			for k, v := range b.Properties {
				props[k] = v
			}
			entry["Properties"] = props
		}
		paletteList[i] = entry
	}

	var blocksList []any
	for x := 0; x < sx; x++ {
		for y := 0; y < sy; y++ {
			for z := 0; z < sz; z++ {
				idx, _ := r.BlockIndexAt(x, y, z)
				b := r.Palette[idx]
				if b.IsStructureVoid() {
					continue
				}
				if b.IsAir() && !opts.KeepAir {
					continue
				}
				entry := map[string]any{
					"state": int32(idx),
					"pos":   []any{int32(x), int32(y), int32(z)},
				}
				if be, ok := r.BlockEntities[ir.Pos{int32(x), int32(y), int32(z)}]; ok {
					entry["nbt"] = be.Tags
				}
				blocksList = append(blocksList, entry)
			}
		}
	}

	var entityList []any
	for _, e := range r.Entities {
		nbtTags := e.Tags
		if e.UUID != nil {
			if _, ok := nbtTags["UUID"]; !ok {
				nbtTags = make(map[string]any, len(e.Tags)+1)
				for k, v := range e.Tags {
					nbtTags[k] = v
				}
				nbtTags["UUID"] = nbtutil.UUIDToIntArray(*e.UUID)
			}
		}
		entry := map[string]any{
			"blockPos": []any{e.BlockPos[0], e.BlockPos[1], e.BlockPos[2]},
			"pos":      []float64{e.Position[0], e.Position[1], e.Position[2]},
			"nbt":      nbtTags,
		}
		entityList = append(entityList, entry)
	}

	root := map[string]any{
		"DataVersion": s.DataVersion,
		"size":        []any{int32(sx), int32(sy), int32(sz)},
		"palette":     paletteList,
		"blocks":      blocksList,
	}
	if entityList != nil {
		root["entities"] = entityList
	} else {
		root["entities"] = []any{}
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
