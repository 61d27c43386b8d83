// Package litematica reads and writes Litematica .litematic files: a
// multi-region schematic where each named region carries its own palette
// and a straddling-packed block-state array.
package litematica

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/gzip"
	"github.com/oriumgames/nbt"

	"github.com/oriumgames/schemcore/blockid"
	"github.com/oriumgames/schemcore/internal/nbtutil"
	"github.com/oriumgames/schemcore/internal/pack"
	"github.com/oriumgames/schemcore/ir"
	"github.com/oriumgames/schemcore/schemerr"
)

// LoadOptions is currently empty; reserved for future load-time policy.
type LoadOptions struct{}

// SaveOptions controls serialization.
type SaveOptions struct {
	// Version pins the wire format version (4, 5, or 6); 0 picks by
	// DataVersion (6 from 1.18's data version 2860, else 5).
	Version int32
	// RenameDuplicatedRegions appends a numeric suffix to a region name
	// that collides with an earlier one instead of erroring.
	RenameDuplicatedRegions bool
}

const dataVersion118 = 2860

// getOrigin converts a Litematica (position, signed size) pair into the
// normalized origin coordinate: a negative size means the region extends
// in the negative direction from Position.
func getOrigin(pos, size int32) int32 {
	if size >= 0 {
		return pos
	}
	return pos + size + 1
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Load reads a gzip-framed Litematica stream of any of versions 4, 5, 6.
func Load(r io.Reader, _ LoadOptions) (*ir.Schematic, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, schemerr.Wrap(schemerr.KindNBTRead, "", err)
	}
	defer gz.Close()

	var root nbtutil.Compound
	if err := nbt.NewDecoderWithEncoding(gz, nbt.BigEndian).Decode(&root); err != nil {
		return nil, schemerr.Wrap(schemerr.KindNBTRead, "", err)
	}

	version, err := nbtutil.RequireInt32(root, "Version", "")
	if err != nil {
		return nil, err
	}
	if version < 4 || version > 6 {
		return nil, schemerr.NewAt(schemerr.KindUnsupportedVersion, "/Version", "unsupported Litematica version %d", version)
	}
	subVersion, err := nbtutil.OptionalInt32(root, "SubVersion", "", 0)
	if err != nil {
		return nil, err
	}
	dataVersion, err := nbtutil.RequireInt32(root, "MinecraftDataVersion", "")
	if err != nil {
		return nil, err
	}

	metaComp, err := nbtutil.RequireCompound(root, "Metadata", "")
	if err != nil {
		return nil, err
	}
	meta := ir.LitematicaMetadata{Version: version, SubVersion: subVersion}
	meta.Name, _ = nbtutil.OptionalString(metaComp, "Name", "/Metadata", "")
	meta.Author, _ = nbtutil.OptionalString(metaComp, "Author", "/Metadata", "")
	meta.Description, _ = nbtutil.OptionalString(metaComp, "Description", "/Metadata", "")
	meta.TimeCreated, _ = nbtutil.OptionalInt64(metaComp, "TimeCreated", "/Metadata", 0)
	meta.TimeModified, _ = nbtutil.OptionalInt64(metaComp, "TimeModified", "/Metadata", 0)

	regionsComp, err := nbtutil.RequireCompound(root, "Regions", "")
	if err != nil {
		return nil, err
	}
	if len(regionsComp) == 0 {
		return nil, schemerr.NewAt(schemerr.KindInvalidValue, "/Regions", "no regions present")
	}

	names := make([]string, 0, len(regionsComp))
	for name := range regionsComp {
		names = append(names, name)
	}
	sort.Strings(names)

	regions := make([]*ir.Region, 0, len(names))
	var totalVolume int64
	for _, name := range names {
		raw, _ := regionsComp[name].(nbtutil.Compound)
		path := nbtutil.Path("/Regions", name)
		r, err := loadRegion(name, raw, path)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
		sx, sy, sz := r.Size()
		totalVolume += int64(sx) * int64(sy) * int64(sz)
	}
	meta.TotalVolume = totalVolume

	s := ir.NewSchematic(dataVersion, meta, regions...)
	return s, nil
}

func loadRegion(name string, comp nbtutil.Compound, path string) (*ir.Region, error) {
	if comp == nil {
		return nil, schemerr.TagTypeMismatch(path, "Compound", "other")
	}
	posComp, err := nbtutil.RequireCompound(comp, "Position", path)
	if err != nil {
		return nil, err
	}
	posX, err := nbtutil.RequireInt32(posComp, "x", nbtutil.Path(path, "Position"))
	if err != nil {
		return nil, err
	}
	posY, err := nbtutil.RequireInt32(posComp, "y", nbtutil.Path(path, "Position"))
	if err != nil {
		return nil, err
	}
	posZ, err := nbtutil.RequireInt32(posComp, "z", nbtutil.Path(path, "Position"))
	if err != nil {
		return nil, err
	}

	sizeComp, err := nbtutil.RequireCompound(comp, "Size", path)
	if err != nil {
		return nil, err
	}
	sizeX, err := nbtutil.RequireInt32(sizeComp, "x", nbtutil.Path(path, "Size"))
	if err != nil {
		return nil, err
	}
	sizeY, err := nbtutil.RequireInt32(sizeComp, "y", nbtutil.Path(path, "Size"))
	if err != nil {
		return nil, err
	}
	sizeZ, err := nbtutil.RequireInt32(sizeComp, "z", nbtutil.Path(path, "Size"))
	if err != nil {
		return nil, err
	}

	width := int(absInt32(sizeX))
	height := int(absInt32(sizeY))
	length := int(absInt32(sizeZ))
	originX := getOrigin(posX, sizeX)
	originY := getOrigin(posY, sizeY)
	originZ := getOrigin(posZ, sizeZ)

	paletteList, err := nbtutil.RequireList(comp, "BlockStatePalette", path)
	if err != nil {
		return nil, err
	}
	if len(paletteList) >= 65536 {
		return nil, schemerr.NewAt(schemerr.KindPaletteTooLong, nbtutil.Path(path, "BlockStatePalette"), "palette has %d entries", len(paletteList))
	}
	palette := make([]blockid.Block, len(paletteList))
	for i, raw := range paletteList {
		entryPath := nbtutil.Index(nbtutil.Path(path, "BlockStatePalette"), i)
		entry, ok := raw.(nbtutil.Compound)
		if !ok {
			return nil, schemerr.TagTypeMismatch(entryPath, "Compound", "other")
		}
		name, err := nbtutil.RequireString(entry, "Name", entryPath)
		if err != nil {
			return nil, err
		}
		b, perr := blockid.Parse(name)
		if perr != blockid.ErrNone {
			return nil, schemerr.NewAt(schemerr.KindInvalidBlockID, nbtutil.Path(entryPath, "Name"), "%s", perr.Error())
		}
		if propsComp, perr := nbtutil.OptionalCompound(entry, "Properties", entryPath); perr != nil {
			return nil, perr
		} else if propsComp != nil {
			for k, v := range propsComp {
				s, ok := v.(string)
				if !ok {
					return nil, schemerr.TagTypeMismatch(nbtutil.Path(entryPath, "Properties/"+k), "String", "other")
				}
				b = b.WithProperty(k, s)
			}
		}
		palette[i] = b
	}

	words, err := nbtutil.RequireLongArray(comp, "BlockStates", path)
	if err != nil {
		return nil, err
	}
	bitsPerEntry := pack.BitsPerEntry(len(palette))
	blockCount := width * height * length
	indices := pack.UnpackStraddling(words, bitsPerEntry, blockCount)

	region := ir.NewRegion(name, width, height, length)
	region.Offset = [3]int32{originX, originY, originZ}
	region.Palette = palette
	for y := 0; y < height; y++ {
		for z := 0; z < length; z++ {
			for x := 0; x < width; x++ {
				cell := x + z*width + y*width*length
				paletteIdx := indices[cell]
				if paletteIdx < 0 || paletteIdx >= len(palette) {
					return nil, schemerr.NewAt(schemerr.KindBlockIndexOutOfRange, nbtutil.Index(nbtutil.Path(path, "BlockStates"), cell), "index %d out of range [0,%d)", paletteIdx, len(palette))
				}
				if err := region.SetBlockIndex(x, y, z, uint16(paletteIdx)); err != nil {
					return nil, err
				}
			}
		}
	}

	if list, err := nbtutil.OptionalList(comp, "TileEntities", path); err != nil {
		return nil, err
	} else {
		for i, raw := range list {
			entry, ok := raw.(nbtutil.Compound)
			if !ok {
				return nil, schemerr.TagTypeMismatch(nbtutil.Index(nbtutil.Path(path, "TileEntities"), i), "Compound", "other")
			}
			x, _ := entry["x"].(int32)
			y, _ := entry["y"].(int32)
			z, _ := entry["z"].(int32)
			lx, ly, lz := int(x)-int(originX), int(y)-int(originY), int(z)-int(originZ)
			if !region.ContainsCoord(lx, ly, lz) {
				continue
			}
			tags := make(map[string]any, len(entry))
			for k, v := range entry {
				if k == "x" || k == "y" || k == "z" {
					continue
				}
				tags[k] = v
			}
			region.BlockEntities[ir.Pos{int32(lx), int32(ly), int32(lz)}] = &ir.BlockEntity{Tags: tags}
		}
	}

	if list, err := nbtutil.OptionalList(comp, "Entities", path); err != nil {
		return nil, err
	} else {
		for i, raw := range list {
			entry, ok := raw.(nbtutil.Compound)
			if !ok {
				return nil, schemerr.TagTypeMismatch(nbtutil.Index(nbtutil.Path(path, "Entities"), i), "Compound", "other")
			}
			e := &ir.Entity{Tags: make(map[string]any, len(entry))}
			if posRaw, ok := entry["Pos"].([]any); ok && len(posRaw) == 3 {
				for d := 0; d < 3; d++ {
					if f, ok := posRaw[d].(float64); ok {
						e.Position[d] = f
					}
				}
				e.Position[0] -= float64(originX)
				e.Position[1] -= float64(originY)
				e.Position[2] -= float64(originZ)
			}
			if rotRaw, ok := entry["Rotation"].([]any); ok && len(rotRaw) == 2 {
				for d := 0; d < 2; d++ {
					if f, ok := rotRaw[d].(float32); ok {
						e.Rotation[d] = f
					}
				}
			}
			if rawUUID, ok := entry["UUID"].([]int32); ok {
				if id, ok := nbtutil.UUIDFromIntArray(rawUUID); ok {
					e.UUID = &id
				}
			}
			for k, v := range entry {
				if k == "Pos" || k == "Rotation" || k == "UUID" {
					continue
				}
				e.Tags[k] = v
			}
			region.Entities = append(region.Entities, e)
		}
	}

	return region, nil
}

// Save writes s as a gzip-framed Litematica stream.
func Save(w io.Writer, s *ir.Schematic, opts SaveOptions) error {
	version := opts.Version
	if version == 0 {
		if s.DataVersion >= dataVersion118 {
			version = 6
		} else {
			version = 5
		}
	}

	regionsComp := make(map[string]any, len(s.Regions))
	usedNames := make(map[string]int)
	var totalVolume int64
	var totalBlocks int64

	for _, r := range s.Regions {
		if err := r.ShrinkPalette(); err != nil {
			return err
		}
		name := r.Name
		if n, ok := usedNames[name]; ok {
			if !opts.RenameDuplicatedRegions {
				return schemerr.New(schemerr.KindDuplicatedRegionName, "region name %q used more than once", name)
			}
			usedNames[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			usedNames[name] = 1
		}

		width, height, length := r.Size()
		bitsPerEntry := pack.BitsPerEntry(len(r.Palette))
		indices := make([]int, width*height*length)
		for y := 0; y < height; y++ {
			for z := 0; z < length; z++ {
				for x := 0; x < width; x++ {
					idx, _ := r.BlockIndexAt(x, y, z)
					indices[x+z*width+y*width*length] = int(idx)
				}
			}
		}
		words := pack.PackStraddling(indices, bitsPerEntry)

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

		var tileEntities []any
		for pos, be := range r.BlockEntities {
			entry := make(map[string]any, len(be.Tags)+3)
			for k, v := range be.Tags {
				entry[k] = v
			}
			entry["x"] = pos[0] + r.Offset[0]
			entry["y"] = pos[1] + r.Offset[1]
			entry["z"] = pos[2] + r.Offset[2]
			tileEntities = append(tileEntities, entry)
		}

		var entities []any
		for _, e := range r.Entities {
			entry := make(map[string]any, len(e.Tags)+2)
			for k, v := range e.Tags {
				entry[k] = v
			}
			entry["Pos"] = []float64{
				e.Position[0] + float64(r.Offset[0]),
				e.Position[1] + float64(r.Offset[1]),
				e.Position[2] + float64(r.Offset[2]),
			}
			entry["Rotation"] = []float32{e.Rotation[0], e.Rotation[1]}
			if e.UUID != nil {
				entry["UUID"] = nbtutil.UUIDToIntArray(*e.UUID)
			}
			entities = append(entities, entry)
		}

		regionComp := map[string]any{
			"Position": map[string]any{
				"x": r.Offset[0], "y": r.Offset[1], "z": r.Offset[2],
			},
			"Size": map[string]any{
				"x": int32(width), "y": int32(height), "z": int32(length),
			},
			"BlockStatePalette": paletteList,
			"BlockStates":       words,
		}
		if tileEntities != nil {
			regionComp["TileEntities"] = tileEntities
		} else {
			regionComp["TileEntities"] = []any{}
		}
		if entities != nil {
			regionComp["Entities"] = entities
		} else {
			regionComp["Entities"] = []any{}
		}
		regionsComp[name] = regionComp

		totalVolume += int64(width) * int64(height) * int64(length)
		totalBlocks += int64(r.TotalBlocks(false))
	}

	md, _ := s.Metadata.(ir.LitematicaMetadata)
	metaComp := map[string]any{
		"Name":          md.Name,
		"Author":        md.Author,
		"Description":   md.Description,
		"TimeCreated":   md.TimeCreated,
		"TimeModified":  md.TimeModified,
		"RegionCount":   int32(len(s.Regions)),
		"TotalBlocks":   int32(totalBlocks),
		"TotalVolume":   int32(totalVolume),
		"EnclosingSize": map[string]any{"x": s.EnclosingSize[0], "y": s.EnclosingSize[1], "z": s.EnclosingSize[2]},
	}

	root := map[string]any{
		"Version":              version,
		"MinecraftDataVersion": s.DataVersion,
		"Metadata":             metaComp,
		"Regions":              regionsComp,
	}
	if version == 6 {
		root["SubVersion"] = int32(1)
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
