package world

import (
	"strings"

	"github.com/oriumgames/schemcore/blockid"
	"github.com/oriumgames/schemcore/internal/nbtutil"
	"github.com/oriumgames/schemcore/internal/pack"
	"github.com/oriumgames/schemcore/ir"
	"github.com/oriumgames/schemcore/schemerr"
)

// Light packs the two 4-bit light levels Minecraft tracks per block cell.
type Light struct {
	Sky, Block uint8
}

// ChunkStatus is the 12-state world-generation pipeline stage a chunk has
// reached. Status names are accepted with or without the "minecraft:"
// namespace prefix, matching how the game itself writes them.
type ChunkStatus int

const (
	StatusEmpty ChunkStatus = iota
	StatusStructureStarts
	StatusStructureReferences
	StatusBiomes
	StatusNoise
	StatusSurface
	StatusCarvers
	StatusFeatures
	StatusInitializeLight
	StatusLight
	StatusSpawn
	StatusFull
)

var chunkStatusNames = [...]string{
	"empty",
	"structure_starts",
	"structure_references",
	"biomes",
	"noise",
	"surface",
	"carvers",
	"features",
	"initialize_light",
	"light",
	"spawn",
	"full",
}

func (s ChunkStatus) String() string {
	if int(s) >= 0 && int(s) < len(chunkStatusNames) {
		return chunkStatusNames[s]
	}
	return "unknown"
}

func parseChunkStatus(s string) (ChunkStatus, bool) {
	s = strings.TrimPrefix(s, "minecraft:")
	for i, name := range chunkStatusNames {
		if name == s {
			return ChunkStatus(i), true
		}
	}
	return 0, false
}

// SubChunk is one 16x16x16 horizontal slice of a Chunk, identified by its
// section Y (post-1.18 sections run roughly -4..19 once filtered down to
// the vertical range this core keeps).
type SubChunk struct {
	Y int8

	Palette      []blockid.Block
	BlockIDArray [4096]uint16 // index = x + z*16 + y*16*16

	SkyBlockLight [4096]Light // same index order as BlockIDArray

	BiomePalette []string
	BiomeArray   [64]uint16 // index = x/4 + (z/4)*4 + (y/4)*16, 4-block resolution
}

func newSubChunk(y int8) *SubChunk {
	sc := &SubChunk{Y: y}
	for i := range sc.SkyBlockLight {
		sc.SkyBlockLight[i] = Light{Sky: 15, Block: 15}
	}
	return sc
}

// BlockAt resolves the block at a local (x,y,z) in [0,16).
func (sc *SubChunk) BlockAt(x, y, z int) blockid.Block {
	idx := sc.BlockIDArray[x+z*16+y*16*16]
	if int(idx) >= len(sc.Palette) {
		return blockid.Air()
	}
	return sc.Palette[idx]
}

// BiomeAt resolves the biome id at a local (x,y,z) in [0,16), snapped to its
// containing 4x4x4 cell.
func (sc *SubChunk) BiomeAt(x, y, z int) string {
	idx := sc.BiomeArray[x/4+(z/4)*4+(y/4)*16]
	if int(idx) >= len(sc.BiomePalette) {
		return ""
	}
	return sc.BiomePalette[idx]
}

// Chunk is one vertical column of sub-chunks plus the per-column metadata
// Minecraft stores alongside them.
type Chunk struct {
	TimeStamp     uint32
	Status        ChunkStatus
	LastUpdate    int64
	InhabitedTime int64
	IsLightOn     bool

	SubChunks map[int8]*SubChunk

	BlockEntities map[ir.Pos]*ir.BlockEntity
	PendingTicks  map[ir.Pos]*ir.PendingTick
	// Entities is always empty: since 1.17 entities live in a separate
	// entities/ region file this reader does not read. Kept on the struct
	// so a caller that does parse that file has somewhere to attach them.
	Entities []*ir.Entity

	SourceFile string
}

// SortedSubChunkYs returns the sub-chunk Y values present, ascending.
func (c *Chunk) SortedSubChunkYs() []int8 {
	ys := make([]int8, 0, len(c.SubChunks))
	for y := range c.SubChunks {
		ys = append(ys, y)
	}
	for i := 1; i < len(ys); i++ {
		for j := i; j > 0 && ys[j-1] > ys[j]; j-- {
			ys[j-1], ys[j] = ys[j], ys[j-1]
		}
	}
	return ys
}

func (c *Chunk) missingSubChunkYs() []int8 {
	if len(c.SubChunks) == 0 {
		return nil
	}
	ys := c.SortedSubChunkYs()
	minY, maxY := ys[0], ys[len(ys)-1]
	var missing []int8
	for y := minY; y <= maxY; y++ {
		if _, ok := c.SubChunks[y]; !ok {
			missing = append(missing, y)
		}
	}
	return missing
}

// decodeChunk parses a 1.18+ chunk NBT compound into a Chunk.
func decodeChunk(root nbtutil.Compound, sourceFile string, timeStamp uint32) (*Chunk, error) {
	statusStr, err := nbtutil.RequireString(root, "Status", "")
	if err != nil {
		return nil, err
	}
	status, ok := parseChunkStatus(statusStr)
	if !ok {
		return nil, schemerr.NewAt(schemerr.KindInvalidChunkStatus, "/Status", "unrecognised chunk status %q", statusStr)
	}

	lastUpdate, err := nbtutil.RequireInt64(root, "LastUpdate", "")
	if err != nil {
		return nil, err
	}
	inhabitedTime, err := nbtutil.RequireInt64(root, "InhabitedTime", "")
	if err != nil {
		return nil, err
	}
	isLightOnByte, err := nbtutil.OptionalByte(root, "isLightOn", "", 0)
	if err != nil {
		return nil, err
	}

	sections, err := nbtutil.RequireList(root, "sections", "")
	if err != nil {
		return nil, err
	}

	c := &Chunk{
		TimeStamp:     timeStamp,
		Status:        status,
		LastUpdate:    lastUpdate,
		InhabitedTime: inhabitedTime,
		IsLightOn:     isLightOnByte != 0,
		SubChunks:     make(map[int8]*SubChunk),
		BlockEntities: make(map[ir.Pos]*ir.BlockEntity),
		PendingTicks:  make(map[ir.Pos]*ir.PendingTick),
		SourceFile:    sourceFile,
	}

	for i, raw := range sections {
		secPath := nbtutil.Index("/sections", i)
		sec, ok := raw.(nbtutil.Compound)
		if !ok {
			return nil, schemerr.TagTypeMismatch(secPath, "Compound", "other")
		}
		y, err := nbtutil.RequireByte(sec, "Y", secPath)
		if err != nil {
			return nil, err
		}
		if y <= -5 || y >= 20 {
			continue
		}
		sc, err := decodeSubChunk(sec, secPath, y)
		if err != nil {
			return nil, err
		}
		c.SubChunks[y] = sc
	}

	if missing := c.missingSubChunkYs(); len(missing) > 0 {
		return nil, schemerr.NewAt(schemerr.KindMissingSubChunk, "/sections", "missing sub-chunks at y=%v", missing)
	}

	if err := decodeChunkLevelEntities(root, c); err != nil {
		return nil, err
	}

	return c, nil
}

func decodeSubChunk(sec nbtutil.Compound, path string, y int8) (*SubChunk, error) {
	sc := newSubChunk(y)

	blockStatesComp, err := nbtutil.RequireCompound(sec, "block_states", path)
	if err != nil {
		return nil, err
	}
	if err := decodeBlockStates(blockStatesComp, nbtutil.Path(path, "block_states"), sc); err != nil {
		return nil, err
	}

	biomesComp, err := nbtutil.RequireCompound(sec, "biomes", path)
	if err != nil {
		return nil, err
	}
	if err := decodeBiomes(biomesComp, nbtutil.Path(path, "biomes"), sc); err != nil {
		return nil, err
	}

	skyLight, err := nbtutil.OptionalByteArray(sec, "SkyLight", path)
	if err != nil {
		return nil, err
	}
	blockLight, err := nbtutil.OptionalByteArray(sec, "BlockLight", path)
	if err != nil {
		return nil, err
	}
	if err := applyNibbleLight(sc, skyLight, blockLight, path); err != nil {
		return nil, err
	}

	return sc, nil
}

func decodeBlockStates(comp nbtutil.Compound, path string, sc *SubChunk) error {
	paletteList, err := nbtutil.RequireList(comp, "palette", path)
	if err != nil {
		return err
	}
	palettePath := nbtutil.Path(path, "palette")
	if len(paletteList) == 0 {
		return schemerr.NewAt(schemerr.KindPaletteIsEmpty, palettePath, "block palette is empty")
	}
	if len(paletteList) > 65535 {
		return schemerr.NewAt(schemerr.KindPaletteTooLong, palettePath, "block palette has %d entries", len(paletteList))
	}

	palette := make([]blockid.Block, len(paletteList))
	for i, raw := range paletteList {
		entryPath := nbtutil.Index(palettePath, i)
		entry, ok := raw.(nbtutil.Compound)
		if !ok {
			return schemerr.TagTypeMismatch(entryPath, "Compound", "other")
		}
		name, err := nbtutil.RequireString(entry, "Name", entryPath)
		if err != nil {
			return err
		}
		b, perr := blockid.Parse(name)
		if perr != blockid.ErrNone {
			return schemerr.NewAt(schemerr.KindInvalidBlockID, nbtutil.Path(entryPath, "Name"), "%s", perr.Error())
		}
		propsComp, perr2 := nbtutil.OptionalCompound(entry, "Properties", entryPath)
		if perr2 != nil {
			return perr2
		}
		for k, v := range propsComp {
			s, ok := v.(string)
			if !ok {
				return schemerr.TagTypeMismatch(nbtutil.Path(entryPath, "Properties/"+k), "String", "other")
			}
			b = b.WithProperty(k, s)
		}
		palette[i] = b
	}
	sc.Palette = palette

	if len(palette) == 1 {
		return nil // BlockIDArray is already zero-valued
	}

	dataPath := nbtutil.Path(path, "data")
	words, err := nbtutil.RequireLongArray(comp, "data", path)
	if err != nil {
		return err
	}
	bitsPerEntry := pack.BitsPerEntryMin(len(palette), 4)
	expectedWords := numWordsNonStraddling(4096, bitsPerEntry)
	if len(words) != expectedWords {
		return schemerr.NewAt(schemerr.KindBlockDataIncomplete, dataPath, "expected %d longs, got %d", expectedWords, len(words))
	}
	indices := pack.UnpackNonStraddling(words, bitsPerEntry, 4096)
	for i, idx := range indices {
		if idx < 0 || idx >= len(palette) {
			return schemerr.NewAt(schemerr.KindBlockIndexOutOfRange, nbtutil.Index(dataPath, i), "index %d out of range [0,%d)", idx, len(palette))
		}
		sc.BlockIDArray[i] = uint16(idx)
	}
	return nil
}

func decodeBiomes(comp nbtutil.Compound, path string, sc *SubChunk) error {
	paletteList, err := nbtutil.RequireList(comp, "palette", path)
	if err != nil {
		return err
	}
	palettePath := nbtutil.Path(path, "palette")
	if len(paletteList) == 0 {
		return schemerr.NewAt(schemerr.KindPaletteIsEmpty, palettePath, "biome palette is empty")
	}

	palette := make([]string, len(paletteList))
	for i, raw := range paletteList {
		entryPath := nbtutil.Index(palettePath, i)
		s, ok := raw.(string)
		if !ok {
			return schemerr.TagTypeMismatch(entryPath, "String", "other")
		}
		if !isNamespacedID(s) {
			return schemerr.NewAt(schemerr.KindInvalidBiome, entryPath, "malformed biome id %q", s)
		}
		palette[i] = s
	}
	sc.BiomePalette = palette

	if len(palette) == 1 {
		return nil // BiomeArray is already zero-valued
	}

	dataPath := nbtutil.Path(path, "data")
	words, err := nbtutil.RequireLongArray(comp, "data", path)
	if err != nil {
		return err
	}
	bitsPerEntry := pack.BitsPerEntryMin(len(palette), 1)
	expectedWords := numWordsNonStraddling(64, bitsPerEntry)
	if len(words) != expectedWords {
		return schemerr.NewAt(schemerr.KindBlockDataIncomplete, dataPath, "expected %d longs, got %d", expectedWords, len(words))
	}
	indices := pack.UnpackNonStraddling(words, bitsPerEntry, 64)
	for i, idx := range indices {
		if idx < 0 || idx >= len(palette) {
			return schemerr.NewAt(schemerr.KindInvalidBiome, nbtutil.Index(dataPath, i), "biome index %d out of range [0,%d)", idx, len(palette))
		}
		sc.BiomeArray[i] = uint16(idx)
	}
	return nil
}

// numWordsNonStraddling mirrors pack.PackedArray.NumWords for a palette the
// caller has not yet wrapped: ceil(n / floor(64/b)).
func numWordsNonStraddling(n, bitsPerEntry int) int {
	perWord := 64 / bitsPerEntry
	if perWord == 0 {
		perWord = 1
	}
	return (n + perWord - 1) / perWord
}

func isNamespacedID(s string) bool {
	ns, id, ok := strings.Cut(s, ":")
	if !ok || ns == "" || id == "" {
		return false
	}
	return isLowerIdent(ns) && isLowerIdent(id)
}

func isLowerIdent(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '/' || c == '.' || c == '-') {
			return false
		}
	}
	return true
}

func applyNibbleLight(sc *SubChunk, sky, block []byte, path string) error {
	if sky != nil {
		if len(sky) != 2048 {
			return schemerr.NewAt(schemerr.KindBlockDataIncomplete, nbtutil.Path(path, "SkyLight"), "expected 2048 bytes, got %d", len(sky))
		}
		for i := range sc.SkyBlockLight {
			sc.SkyBlockLight[i].Sky = (sky[i/2] >> (4 * uint(i%2))) & 0xF
		}
	}
	if block != nil {
		if len(block) != 2048 {
			return schemerr.NewAt(schemerr.KindBlockDataIncomplete, nbtutil.Path(path, "BlockLight"), "expected 2048 bytes, got %d", len(block))
		}
		for i := range sc.SkyBlockLight {
			sc.SkyBlockLight[i].Block = (block[i/2] >> (4 * uint(i%2))) & 0xF
		}
	}
	return nil
}

func decodeChunkLevelEntities(root nbtutil.Compound, c *Chunk) error {
	list, err := nbtutil.OptionalList(root, "block_entities", "")
	if err != nil {
		return err
	}
	for i, raw := range list {
		entryPath := nbtutil.Index("/block_entities", i)
		entry, ok := raw.(nbtutil.Compound)
		if !ok {
			return schemerr.TagTypeMismatch(entryPath, "Compound", "other")
		}
		x, err := nbtutil.RequireInt32(entry, "x", entryPath)
		if err != nil {
			return err
		}
		y, err := nbtutil.RequireInt32(entry, "y", entryPath)
		if err != nil {
			return err
		}
		z, err := nbtutil.RequireInt32(entry, "z", entryPath)
		if err != nil {
			return err
		}
		tags := make(map[string]any, len(entry))
		for k, v := range entry {
			if k == "x" || k == "y" || k == "z" {
				continue
			}
			tags[k] = v
		}
		c.BlockEntities[ir.Pos{x, y, z}] = &ir.BlockEntity{Tags: tags}
	}

	if err := decodePendingTicks(root, "block_ticks", ir.PendingTickBlock, c); err != nil {
		return err
	}
	if err := decodePendingTicks(root, "fluid_ticks", ir.PendingTickFluid, c); err != nil {
		return err
	}
	return nil
}

func decodePendingTicks(root nbtutil.Compound, key string, kind ir.PendingTickKind, c *Chunk) error {
	list, err := nbtutil.OptionalList(root, key, "")
	if err != nil {
		return err
	}
	for i, raw := range list {
		entryPath := nbtutil.Index("/"+key, i)
		entry, ok := raw.(nbtutil.Compound)
		if !ok {
			return schemerr.TagTypeMismatch(entryPath, "Compound", "other")
		}
		id, err := nbtutil.RequireString(entry, "i", entryPath)
		if err != nil {
			return err
		}
		priority, err := nbtutil.RequireInt32(entry, "p", entryPath)
		if err != nil {
			return err
		}
		delay, err := nbtutil.RequireInt32(entry, "t", entryPath)
		if err != nil {
			return err
		}
		x, err := nbtutil.RequireInt32(entry, "x", entryPath)
		if err != nil {
			return err
		}
		y, err := nbtutil.RequireInt32(entry, "y", entryPath)
		if err != nil {
			return err
		}
		z, err := nbtutil.RequireInt32(entry, "z", entryPath)
		if err != nil {
			return err
		}
		c.PendingTicks[ir.Pos{x, y, z}] = &ir.PendingTick{Kind: kind, ID: id, Priority: priority, Time: delay}
	}
	return nil
}
