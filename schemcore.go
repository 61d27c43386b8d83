// Package schemcore dispatches between the four schematic codecs by file
// extension and wires them to plain os.File I/O, so a caller can load or
// save any supported schematic without importing a specific format package.
package schemcore

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oriumgames/schemcore/blockid"
	"github.com/oriumgames/schemcore/format/litematica"
	"github.com/oriumgames/schemcore/format/vanillastructure"
	"github.com/oriumgames/schemcore/format/worldedit12"
	"github.com/oriumgames/schemcore/format/worldedit13"
	"github.com/oriumgames/schemcore/internal/paletteunion"
	"github.com/oriumgames/schemcore/ir"
	"github.com/oriumgames/schemcore/schemerr"
)

// Format identifies one of the four supported schematic formats.
type Format int

const (
	Litematica Format = iota
	VanillaStructure
	WorldEdit13
	WorldEdit12
)

func (f Format) String() string {
	switch f {
	case Litematica:
		return "Litematica"
	case VanillaStructure:
		return "VanillaStructure"
	case WorldEdit13:
		return "WorldEdit13"
	case WorldEdit12:
		return "WorldEdit12"
	default:
		return "Unknown"
	}
}

// Extension returns the canonical file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case Litematica:
		return ".litematic"
	case VanillaStructure:
		return ".nbt"
	case WorldEdit13:
		return ".schem"
	case WorldEdit12:
		return ".schematic"
	default:
		return ""
	}
}

// Savable reports whether f has a writer. WorldEdit12 is load-only: MCEdit
// schematics are a conversion source in this core, never a target.
func (f Format) Savable() bool {
	return f != WorldEdit12
}

// Formats lists every format this core recognises, in a stable order.
func Formats() []Format {
	return []Format{Litematica, VanillaStructure, WorldEdit13, WorldEdit12}
}

// LoadableFormats lists every format Read/ReadFile can load: all of them.
func LoadableFormats() []Format {
	return Formats()
}

// SavableFormats lists every format Write/WriteFile can produce.
func SavableFormats() []Format {
	var out []Format
	for _, f := range Formats() {
		if f.Savable() {
			out = append(out, f)
		}
	}
	return out
}

// FormatForExtension resolves a file extension (with or without the leading
// dot, case-insensitive) to its Format. ok is false for any extension not
// among the four this core recognises.
func FormatForExtension(ext string) (f Format, ok bool) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, cand := range Formats() {
		if cand.Extension() == ext {
			return cand, true
		}
	}
	return 0, false
}

// Read loads a schematic of the given format from r.
func Read(r io.Reader, f Format) (*ir.Schematic, error) {
	switch f {
	case Litematica:
		return litematica.Load(r, litematica.LoadOptions{})
	case VanillaStructure:
		return vanillastructure.Load(r, vanillastructure.LoadOptions{})
	case WorldEdit13:
		return worldedit13.Load(r, worldedit13.LoadOptions{})
	case WorldEdit12:
		return worldedit12.Load(r, worldedit12.LoadOptions{})
	default:
		return nil, schemerr.New(schemerr.KindUnrecognisedExtension, "unrecognised format %v", f)
	}
}

// Write saves s in the given format to w. Returns KindFormatNotSavable for
// WorldEdit12, which this core only ever loads. Litematica is the only
// format with room for more than one region; the other two single-region
// formats flatten a multi-region Schematic into one region first, merging
// the per-region palettes through paletteunion.
func Write(w io.Writer, s *ir.Schematic, f Format) error {
	switch f {
	case Litematica:
		return litematica.Save(w, s, litematica.SaveOptions{})
	case VanillaStructure:
		flat, err := flattenForSingleRegion(s)
		if err != nil {
			return err
		}
		return vanillastructure.Save(w, flat, vanillastructure.SaveOptions{})
	case WorldEdit13:
		flat, err := flattenForSingleRegion(s)
		if err != nil {
			return err
		}
		return worldedit13.Save(w, flat, worldedit13.SaveOptions{})
	case WorldEdit12:
		return schemerr.New(schemerr.KindFormatNotSavable, "WorldEdit12 (.schematic) is load-only")
	default:
		return schemerr.New(schemerr.KindUnrecognisedExtension, "unrecognised format %v", f)
	}
}

// flattenForSingleRegion returns s unchanged if it already has exactly one
// region, otherwise a copy with every region merged into one: positioned by
// Offset against the combined bounding box, and paletted through
// paletteunion.Merge so identical blocks at different regions collapse into
// one palette entry instead of being written out twice.
func flattenForSingleRegion(s *ir.Schematic) (*ir.Schematic, error) {
	if len(s.Regions) == 1 {
		return s, nil
	}
	if len(s.Regions) == 0 {
		return nil, schemerr.New(schemerr.KindInvalidValue, "schematic has no regions")
	}

	minP := s.Regions[0].Offset
	maxP := [3]int32{}
	for i, r := range s.Regions {
		sx, sy, sz := r.Size()
		lo := r.Offset
		hi := [3]int32{lo[0] + int32(sx), lo[1] + int32(sy), lo[2] + int32(sz)}
		if i == 0 {
			maxP = hi
			continue
		}
		for d := 0; d < 3; d++ {
			if lo[d] < minP[d] {
				minP[d] = lo[d]
			}
			if hi[d] > maxP[d] {
				maxP[d] = hi[d]
			}
		}
	}
	width, height, length := int(maxP[0]-minP[0]), int(maxP[1]-minP[1]), int(maxP[2]-minP[2])

	palettes := make([][]blockid.Block, len(s.Regions))
	for i, r := range s.Regions {
		palettes[i] = r.Palette
	}
	union := paletteunion.Merge(palettes)

	airIdx := uint16(0)
	for i, b := range union.Global {
		if b.IsAir() {
			airIdx = uint16(i)
			break
		}
	}

	merged := ir.NewRegion("", width, height, length)
	merged.Palette = union.Global
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			for z := 0; z < length; z++ {
				if err := merged.SetBlockIndex(x, y, z, airIdx); err != nil {
					return nil, err
				}
			}
		}
	}

	for ri, r := range s.Regions {
		lut := union.LUTs[ri]
		sx, sy, sz := r.Size()
		delta := [3]int32{r.Offset[0] - minP[0], r.Offset[1] - minP[1], r.Offset[2] - minP[2]}
		for x := 0; x < sx; x++ {
			for y := 0; y < sy; y++ {
				for z := 0; z < sz; z++ {
					idx, _ := r.BlockIndexAt(x, y, z)
					gx, gy, gz := x+int(delta[0]), y+int(delta[1]), z+int(delta[2])
					if err := merged.SetBlockIndex(gx, gy, gz, lut[idx]); err != nil {
						return nil, err
					}
					if be, ok := r.BlockEntities[ir.Pos{int32(x), int32(y), int32(z)}]; ok {
						merged.BlockEntities[ir.Pos{int32(gx), int32(gy), int32(gz)}] = be
					}
					if pt, ok := r.PendingTicks[ir.Pos{int32(x), int32(y), int32(z)}]; ok {
						merged.PendingTicks[ir.Pos{int32(gx), int32(gy), int32(gz)}] = pt
					}
				}
			}
		}
		for _, e := range r.Entities {
			shifted := *e
			shifted.Shift(delta)
			merged.Entities = append(merged.Entities, &shifted)
		}
	}

	if err := merged.ShrinkPalette(); err != nil {
		return nil, err
	}

	return ir.NewSchematic(s.DataVersion, s.Metadata, merged), nil
}

// ReadFile opens path and loads it, dispatching on its extension.
func ReadFile(path string) (*ir.Schematic, error) {
	f, ok := FormatForExtension(filepath.Ext(path))
	if !ok {
		return nil, schemerr.New(schemerr.KindUnrecognisedExtension, "unrecognised extension %q", filepath.Ext(path))
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, schemerr.Wrap(schemerr.KindFileOpenError, "", err)
	}
	defer file.Close()
	return Read(file, f)
}

// WriteFile creates (or truncates) path and saves s to it, dispatching on
// path's extension.
func WriteFile(path string, s *ir.Schematic) error {
	f, ok := FormatForExtension(filepath.Ext(path))
	if !ok {
		return schemerr.New(schemerr.KindUnrecognisedExtension, "unrecognised extension %q", filepath.Ext(path))
	}
	file, err := os.Create(path)
	if err != nil {
		return schemerr.Wrap(schemerr.KindFileCreateError, "", err)
	}
	defer file.Close()
	return Write(file, s, f)
}
