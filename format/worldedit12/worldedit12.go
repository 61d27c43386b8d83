// Package worldedit12 reads MCEdit/Schematica legacy schematics (the
// WorldEdit 1.12 ".schematic" format). This format predates namespaced
// block ids, so loading runs every distinct (id, damage) pair through
// internal/legacy before it can take a place in the region's palette.
// There is no Save: the format cannot represent anything the game has
// added since 1.12, so writing it back out is out of scope.
package worldedit12

import (
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/oriumgames/nbt"

	"github.com/oriumgames/schemcore/blockid"
	"github.com/oriumgames/schemcore/internal/legacy"
	"github.com/oriumgames/schemcore/internal/nbtutil"
	"github.com/oriumgames/schemcore/ir"
	"github.com/oriumgames/schemcore/schemerr"
)

// LoadOptions controls how an (id, damage) pair legacy.FromOld cannot
// decode is handled; leaving Handler nil applies schemerr.StrictErrorHandler.
type LoadOptions struct {
	Handler schemerr.ErrorHandler
}

type legacyKey struct {
	id, damage uint8
}

// Load reads a gzip-framed MCEdit/Schematica stream.
func Load(r io.Reader, opts LoadOptions) (*ir.Schematic, error) {
	handler := opts.Handler
	if handler == nil {
		handler = schemerr.StrictErrorHandler{}
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, schemerr.Wrap(schemerr.KindNBTRead, "", err)
	}
	defer gz.Close()

	var root nbtutil.Compound
	if err := nbt.NewDecoderWithEncoding(gz, nbt.BigEndian).Decode(&root); err != nil {
		return nil, schemerr.Wrap(schemerr.KindNBTRead, "", err)
	}

	widthI16, err := nbtutil.RequireInt16(root, "Width", "")
	if err != nil {
		return nil, err
	}
	heightI16, err := nbtutil.RequireInt16(root, "Height", "")
	if err != nil {
		return nil, err
	}
	lengthI16, err := nbtutil.RequireInt16(root, "Length", "")
	if err != nil {
		return nil, err
	}
	width, height, length := int(widthI16), int(heightI16), int(lengthI16)
	if width < 0 || height < 0 || length < 0 {
		return nil, schemerr.NewAt(schemerr.KindNegativeSize, "", "negative size %d,%d,%d", width, height, length)
	}

	blocks, err := nbtutil.RequireByteArray(root, "Blocks", "")
	if err != nil {
		return nil, err
	}
	data, err := nbtutil.RequireByteArray(root, "Data", "")
	if err != nil {
		return nil, err
	}
	expected := width * height * length
	if len(blocks) != expected || len(data) != expected {
		return nil, schemerr.NewAt(schemerr.KindBlockDataIncomplete, "", "expected %d bytes, got %d blocks and %d data", expected, len(blocks), len(data))
	}

	offX, err := nbtutil.RequireInt32(root, "WEOffsetX", "")
	if err != nil {
		return nil, err
	}
	offY, err := nbtutil.RequireInt32(root, "WEOffsetY", "")
	if err != nil {
		return nil, err
	}
	offZ, err := nbtutil.RequireInt32(root, "WEOffsetZ", "")
	if err != nil {
		return nil, err
	}
	// WEOriginX/Y/Z records the absolute world position the schematic was
	// copied from; this core has nowhere to round-trip it (WorldEdit12Metadata
	// carries no fields) and it is redundant for placing blocks, so it is
	// read only to validate the tag is present and then discarded.
	if _, err := nbtutil.RequireInt32(root, "WEOriginX", ""); err != nil {
		return nil, err
	}
	if _, err := nbtutil.RequireInt32(root, "WEOriginY", ""); err != nil {
		return nil, err
	}
	if _, err := nbtutil.RequireInt32(root, "WEOriginZ", ""); err != nil {
		return nil, err
	}

	region := ir.NewRegion("Schematic", width, height, length)
	region.Offset = [3]int32{offX, offY, offZ}

	paletteCache := make(map[legacyKey]uint16)
	for y := 0; y < height; y++ {
		for z := 0; z < length; z++ {
			for x := 0; x < width; x++ {
				idx := (y*length+z)*width + x
				key := legacyKey{id: blocks[idx], damage: data[idx] & 0x0F}

				paletteIdx, ok := paletteCache[key]
				if !ok {
					block, ferr := legacy.FromOld(key.id, key.damage, legacy.MaxLegacyDataVersion)
					if ferr != nil {
						faultPath := nbtutil.Index("/Blocks", idx)
						handled, fixed := handler.FixInvalidBlockID(schemerr.NewAt(schemerr.KindInvalidBlockNumberID, faultPath, "%s", ferr.Error())).Value()
						if !fixed {
							return nil, schemerr.NewAt(schemerr.KindInvalidBlockNumberID, faultPath, "%s", ferr.Error())
						}
						parsed, perr := blockid.Parse(handled)
						if perr != blockid.ErrNone {
							return nil, schemerr.NewAt(schemerr.KindInvalidBlockID, faultPath, "%s", perr.Error())
						}
						block = parsed
					}
					paletteIdx = region.FindOrAppendToPalette(block)
					paletteCache[key] = paletteIdx
				}
				if err := region.SetBlockIndex(x, y, z, paletteIdx); err != nil {
					return nil, err
				}
			}
		}
	}

	materials, err := nbtutil.OptionalString(root, "Materials", "", "")
	if err != nil {
		return nil, err
	}
	_ = materials // format predates a place to round-trip this; read for validation only

	if list, err := nbtutil.OptionalList(root, "TileEntities", ""); err != nil {
		return nil, err
	} else {
		for i, raw := range list {
			comp, ok := raw.(nbtutil.Compound)
			if !ok {
				return nil, schemerr.TagTypeMismatch(nbtutil.Index("/TileEntities", i), "Compound", "other")
			}
			elemPath := nbtutil.Index("/TileEntities", i)
			x, err := nbtutil.RequireInt32(comp, "x", elemPath)
			if err != nil {
				return nil, err
			}
			y, err := nbtutil.RequireInt32(comp, "y", elemPath)
			if err != nil {
				return nil, err
			}
			z, err := nbtutil.RequireInt32(comp, "z", elemPath)
			if err != nil {
				return nil, err
			}
			if !region.ContainsCoord(int(x), int(y), int(z)) {
				continue
			}
			tags := make(map[string]any, len(comp))
			for k, v := range comp {
				if k == "x" || k == "y" || k == "z" {
					continue
				}
				tags[k] = v
			}
			region.BlockEntities[ir.Pos{x, y, z}] = &ir.BlockEntity{Tags: tags}
		}
	}

	if list, err := nbtutil.OptionalList(root, "Entities", ""); err != nil {
		return nil, err
	} else {
		for i, raw := range list {
			comp, ok := raw.(nbtutil.Compound)
			if !ok {
				return nil, schemerr.TagTypeMismatch(nbtutil.Index("/Entities", i), "Compound", "other")
			}
			e := &ir.Entity{Tags: make(map[string]any)}
			if pos, perr := nbtutil.OptionalList(comp, "Pos", nbtutil.Index("/Entities", i)); perr == nil {
				for d := 0; d < 3 && d < len(pos); d++ {
					if f, ok := pos[d].(float64); ok {
						e.Position[d] = f
					}
				}
			}
			if rawUUID, ok := comp["UUID"].([]int32); ok {
				if id, ok := nbtutil.UUIDFromIntArray(rawUUID); ok {
					e.UUID = &id
				}
			}
			for k, v := range comp {
				if k == "Pos" || k == "UUID" {
					continue
				}
				e.Tags[k] = v
			}
			region.Entities = append(region.Entities, e)
		}
	}

	if err := region.ShrinkPalette(); err != nil {
		return nil, err
	}

	return ir.NewSchematic(legacy.MaxLegacyDataVersion, ir.WorldEdit12Metadata{}, region), nil
}
