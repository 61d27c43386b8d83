// Package ir defines the in-memory intermediate representation every
// format codec reads into and writes out of: a Schematic holding one or
// more independently paletted Regions, each a dense XYZ block-index array
// over a per-region Block palette.
package ir

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/oriumgames/schemcore/blockid"
)

// PendingTickKind distinguishes a scheduled fluid tick from a scheduled
// block tick.
type PendingTickKind int

const (
	PendingTickBlock PendingTickKind = iota
	PendingTickFluid
)

// PendingTick is a scheduled update recorded at a block position.
type PendingTick struct {
	Kind     PendingTickKind
	ID       string
	Priority int32
	SubTick  int64
	Time     int32
}

// BlockEntity is the tile-entity NBT payload stored at a block position,
// with its position fields removed (the position is the map key it is
// stored under).
type BlockEntity struct {
	Tags map[string]any
}

// Entity is a free-floating entity: its NBT payload plus the position,
// rotation and motion fields Minecraft tracks outside the generic tag bag.
type Entity struct {
	Tags     map[string]any
	Position [3]float64
	Rotation [2]float32
	Motion   [3]float64
	BlockPos [3]int32
	UUID     *uuid.UUID
}

// Shift adds delta to both Position and BlockPos, used when an entity's
// containing region is re-offset.
func (e *Entity) Shift(delta [3]int32) {
	for i := 0; i < 3; i++ {
		e.BlockPos[i] += delta[i]
		e.Position[i] += float64(delta[i])
	}
}

// Pos is an integer block-local coordinate, used as a map key for block
// entities and pending ticks.
type Pos [3]int32

// Region is a single contiguous volume of blocks with its own palette. A
// Schematic groups one or more Regions; single-region formats (Sponge,
// vanilla structure, WorldEdit 1.12) always produce exactly one.
type Region struct {
	Name string

	sizeX, sizeY, sizeZ int
	array               []uint16 // x + z*sizeX + y*sizeX*sizeZ, matches the Sponge/WE13 on-disk order
	Palette             []blockid.Block

	BlockEntities map[Pos]*BlockEntity
	PendingTicks  map[Pos]*PendingTick
	Entities      []*Entity

	// Offset is this region's position relative to the schematic's own
	// origin, in blocks.
	Offset [3]int32
}

// NewRegion allocates a region of the given size, filled with air at
// palette index 0.
func NewRegion(name string, sizeX, sizeY, sizeZ int) *Region {
	r := &Region{
		Name:          name,
		sizeX:         sizeX,
		sizeY:         sizeY,
		sizeZ:         sizeZ,
		array:         make([]uint16, sizeX*sizeY*sizeZ),
		BlockEntities: make(map[Pos]*BlockEntity),
		PendingTicks:  make(map[Pos]*PendingTick),
	}
	r.FindOrAppendToPalette(blockid.Air())
	return r
}

// Size returns the region's dimensions.
func (r *Region) Size() (x, y, z int) { return r.sizeX, r.sizeY, r.sizeZ }

// Volume returns the total number of cells in the region.
func (r *Region) Volume() int { return r.sizeX * r.sizeY * r.sizeZ }

func (r *Region) index(x, y, z int) int {
	return x + z*r.sizeX + y*r.sizeX*r.sizeZ
}

// ContainsCoord reports whether (x,y,z) is within the region's bounds.
func (r *Region) ContainsCoord(x, y, z int) bool {
	return x >= 0 && x < r.sizeX && y >= 0 && y < r.sizeY && z >= 0 && z < r.sizeZ
}

// BlockIndexAt returns the palette index stored at (x,y,z), or (0, false)
// if the coordinate is out of bounds.
func (r *Region) BlockIndexAt(x, y, z int) (uint16, bool) {
	if !r.ContainsCoord(x, y, z) {
		return 0, false
	}
	return r.array[r.index(x, y, z)], true
}

// BlockAt returns the resolved Block at (x,y,z).
func (r *Region) BlockAt(x, y, z int) (blockid.Block, bool) {
	idx, ok := r.BlockIndexAt(x, y, z)
	if !ok {
		return blockid.Block{}, false
	}
	if int(idx) >= len(r.Palette) {
		return blockid.Block{}, false
	}
	return r.Palette[idx], true
}

// SetBlockIndex stores a raw palette index at (x,y,z). The index must
// already be valid in Palette; callers that have a Block rather than an
// index should use SetBlock.
func (r *Region) SetBlockIndex(x, y, z int, idx uint16) error {
	if !r.ContainsCoord(x, y, z) {
		return fmt.Errorf("ir: position (%d,%d,%d) outside region bounds (%d,%d,%d)", x, y, z, r.sizeX, r.sizeY, r.sizeZ)
	}
	if int(idx) >= len(r.Palette) {
		return fmt.Errorf("ir: palette index %d out of range (palette has %d entries)", idx, len(r.Palette))
	}
	r.array[r.index(x, y, z)] = idx
	return nil
}

// SetBlock resolves block against the region's palette (appending it if
// new) and stores the resulting index at (x,y,z).
func (r *Region) SetBlock(x, y, z int, block blockid.Block) error {
	if !r.ContainsCoord(x, y, z) {
		return fmt.Errorf("ir: position (%d,%d,%d) outside region bounds (%d,%d,%d)", x, y, z, r.sizeX, r.sizeY, r.sizeZ)
	}
	idx := r.FindOrAppendToPalette(block)
	if int(idx) >= 65536 {
		return fmt.Errorf("ir: palette exceeds 65536 entries")
	}
	r.array[r.index(x, y, z)] = idx
	return nil
}

// FindInPalette returns the index of block in the palette, if present.
func (r *Region) FindInPalette(block blockid.Block) (uint16, bool) {
	for idx, b := range r.Palette {
		if b.Equal(block) {
			return uint16(idx), true
		}
	}
	return 0, false
}

// FindOrAppendToPalette returns block's existing palette index, appending
// it as a new entry first if it is not already present.
func (r *Region) FindOrAppendToPalette(block blockid.Block) uint16 {
	if idx, ok := r.FindInPalette(block); ok {
		return idx
	}
	r.Palette = append(r.Palette, block)
	return uint16(len(r.Palette) - 1)
}

// FillWith overwrites every cell in the region with block.
func (r *Region) FillWith(block blockid.Block) {
	idx := r.FindOrAppendToPalette(block)
	for i := range r.array {
		r.array[i] = idx
	}
}

func (r *Region) blockIndexOf(pred func(blockid.Block) bool) (uint16, bool) {
	for idx, b := range r.Palette {
		if pred(b) {
			return uint16(idx), true
		}
	}
	return 0, false
}

// TotalBlocks counts cells in the region. When includeAir is false, cells
// resolving to the air palette entry are skipped (structure_void still
// counts, matching how WorldEdit reports block totals).
func (r *Region) TotalBlocks(includeAir bool) int {
	airIdx, hasAir := r.blockIndexOf(blockid.Block.IsAir)
	count := 0
	for _, idx := range r.array {
		if hasAir && idx == airIdx && !includeAir {
			continue
		}
		count++
	}
	return count
}

// ShrinkPalette removes every palette entry with zero references and
// remaps the block array accordingly. Used before serialization so the
// written palette contains only blocks actually present in the region.
func (r *Region) ShrinkPalette() error {
	refCount := make([]int, len(r.Palette))
	for _, idx := range r.array {
		if int(idx) >= len(r.Palette) {
			return fmt.Errorf("ir: block index %d out of range (palette has %d entries)", idx, len(r.Palette))
		}
		refCount[idx]++
	}

	remap := make([]uint16, len(r.Palette))
	newPalette := make([]blockid.Block, 0, len(r.Palette))
	for old, n := range refCount {
		if n == 0 {
			continue
		}
		remap[old] = uint16(len(newPalette))
		newPalette = append(newPalette, r.Palette[old])
	}

	for i, idx := range r.array {
		r.array[i] = remap[idx]
	}
	r.Palette = newPalette
	return nil
}

// GlobalPosToRelativePos converts a schematic-global coordinate to one
// relative to this region's Offset.
func (r *Region) GlobalPosToRelativePos(g [3]int32) [3]int32 {
	return [3]int32{g[0] - r.Offset[0], g[1] - r.Offset[1], g[2] - r.Offset[2]}
}

// RelativePosToGlobalPos is the inverse of GlobalPosToRelativePos.
func (r *Region) RelativePosToGlobalPos(rel [3]int32) [3]int32 {
	return [3]int32{rel[0] + r.Offset[0], rel[1] + r.Offset[1], rel[2] + r.Offset[2]}
}

// Metadata carries the format-specific fields a loaded schematic wants to
// round-trip through a re-save in the same format; codecs that don't
// recognize the concrete type behind this field simply ignore it.
type Metadata interface {
	isMetadata()
}

// LitematicaMetadata mirrors the fields Litematica stores once per file,
// outside any region.
type LitematicaMetadata struct {
	Version      int32
	SubVersion   int32
	TimeCreated  int64
	TimeModified int64
	Author       string
	Name         string
	Description  string
	TotalVolume  int64
}

func (LitematicaMetadata) isMetadata() {}

// WorldEdit12Metadata is empty today; MCEdit/Schematica schematics carry
// no schematic-wide metadata beyond what is already on Schematic itself.
type WorldEdit12Metadata struct{}

func (WorldEdit12Metadata) isMetadata() {}

// WorldEdit13Metadata mirrors the Sponge Schematic Metadata compound.
type WorldEdit13Metadata struct {
	SchemaVersion int32
	WEOffset      [3]int32
	Offset        [3]int32
}

func (WorldEdit13Metadata) isMetadata() {}

// VanillaStructureMetadata is empty: a .nbt structure carries no
// schematic-wide metadata beyond DataVersion and size.
type VanillaStructureMetadata struct{}

func (VanillaStructureMetadata) isMetadata() {}

// Schematic is the top-level container every format codec produces when
// reading and consumes when writing: one or more Regions sharing a single
// DataVersion and an optional format-specific Metadata payload.
type Schematic struct {
	DataVersion int32
	Metadata    Metadata
	Regions     []*Region

	// EnclosingSize is the bounding box over every region's offset and
	// size, as reported by multi-region formats like Litematica.
	EnclosingSize [3]int32
}

// NewSchematic wraps regions into a Schematic, computing EnclosingSize.
func NewSchematic(dataVersion int32, metadata Metadata, regions ...*Region) *Schematic {
	s := &Schematic{DataVersion: dataVersion, Metadata: metadata, Regions: regions}
	s.RecomputeEnclosingSize()
	return s
}

// RecomputeEnclosingSize recalculates EnclosingSize from the current
// regions; call after adding, removing, or re-offsetting a region.
func (s *Schematic) RecomputeEnclosingSize() {
	if len(s.Regions) == 0 {
		s.EnclosingSize = [3]int32{}
		return
	}
	minP := [3]int32{}
	maxP := [3]int32{}
	for i, r := range s.Regions {
		sx, sy, sz := r.Size()
		lo := r.Offset
		hi := [3]int32{lo[0] + int32(sx), lo[1] + int32(sy), lo[2] + int32(sz)}
		if i == 0 {
			minP, maxP = lo, hi
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
	s.EnclosingSize = [3]int32{maxP[0] - minP[0], maxP[1] - minP[1], maxP[2] - minP[2]}
}
