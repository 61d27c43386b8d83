// Package world reads Minecraft Java-edition saved worlds: MCA region
// files split into per-chunk byte ranges, each lazily or eagerly decoded
// into a Chunk of SubChunks via the same NBT and error-taxonomy stack the
// schematic codecs use.
package world

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/oriumgames/nbt"

	"github.com/oriumgames/schemcore/internal/nbtutil"
	"github.com/oriumgames/schemcore/schemerr"
)

const segmentBytes = 4096

// XZ is a plain (x, z) coordinate pair, used for both chunk and region
// coordinates depending on context.
type XZ struct{ X, Z int32 }

// ChunkPos is a chunk's global coordinate (in chunks, not blocks).
type ChunkPos struct{ X, Z int32 }

func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int32) int32 {
	return a - floorDiv(a, b)*b
}

// RegionCoord returns the (x, z) of the r.<x>.<z>.mca file p belongs to.
func (p ChunkPos) RegionCoord() XZ {
	return XZ{floorDiv(p.X, 32), floorDiv(p.Z, 32)}
}

// LocalCoord returns p's position within its region file, each in [0,32).
func (p ChunkPos) LocalCoord() (lx, lz int) {
	return int(floorMod(p.X, 32)), int(floorMod(p.Z, 32))
}

var regionFilenameRe = regexp.MustCompile(`^r\.(-?\d+)\.(-?\d+)\.mca$`)

// ParseRegionFilename extracts the region (x, z) from a name matching
// "r.<x>.<z>.mca"; names that don't match report ok=false so a directory
// walk can silently skip unrelated files.
func ParseRegionFilename(name string) (coord XZ, ok bool) {
	m := regionFilenameRe.FindStringSubmatch(name)
	if m == nil {
		return XZ{}, false
	}
	x, _ := strconv.ParseInt(m[1], 10, 32)
	z, _ := strconv.ParseInt(m[2], 10, 32)
	return XZ{int32(x), int32(z)}, true
}

func mccFilename(pos ChunkPos) string {
	return fmt.Sprintf("c.%d.%d.mcc", pos.X, pos.Z)
}

// UnparsedChunkData is a chunk's raw, still-compressed payload as sliced
// straight out of its region file segment run, kept around so Parse can be
// deferred to first access.
type UnparsedChunkData struct {
	TimeStamp   uint32
	Payload     []byte
	CompressTag byte
	SourceFile  string
	Pos         ChunkPos

	dir string // region file's directory, for resolving a .mcc sibling
}

// ChunkVariant is either a still-compressed UnparsedChunkData or an already
// decoded Parsed Chunk. Exactly one of the two fields is non-nil.
type ChunkVariant struct {
	Parsed   *Chunk
	Unparsed *UnparsedChunkData
}

// Parse decompresses and NBT-decodes v's Unparsed payload into Parsed. It is
// a no-op if v is already parsed, so callers can call it unconditionally.
func (v *ChunkVariant) Parse() error {
	if v.Parsed != nil {
		return nil
	}
	if v.Unparsed == nil {
		return schemerr.New(schemerr.KindInvalidValue, "chunk variant carries neither Parsed nor Unparsed data")
	}
	u := v.Unparsed

	payload := u.Payload
	tag := u.CompressTag
	sourceFile := u.SourceFile
	if tag >= 128 {
		mccPath := filepath.Join(u.dir, mccFilename(u.Pos))
		data, err := os.ReadFile(mccPath)
		if err != nil {
			return schemerr.Wrap(schemerr.KindFileOpenError, "", err)
		}
		payload = data
		tag -= 128
		sourceFile = mccPath
	}

	var reader io.Reader
	switch tag {
	case 1:
		gz, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return schemerr.Wrap(schemerr.KindNBTRead, "", err)
		}
		defer gz.Close()
		reader = gz
	case 2:
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return schemerr.Wrap(schemerr.KindNBTRead, "", err)
		}
		defer zr.Close()
		reader = zr
	case 3:
		reader = bytes.NewReader(payload)
	default:
		return schemerr.New(schemerr.KindInvalidMCACompressType, "unrecognised compression tag %d", tag)
	}

	var root nbtutil.Compound
	if err := nbt.NewDecoderWithEncoding(reader, nbt.BigEndian).Decode(&root); err != nil {
		return schemerr.Wrap(schemerr.KindNBTRead, "", err)
	}

	c, err := decodeChunk(root, sourceFile, u.TimeStamp)
	if err != nil {
		return err
	}
	v.Parsed = c
	v.Unparsed = nil
	return nil
}

// LoadRegionFile parses a single r.<x>.<z>.mca file's location and
// timestamp tables. When eager is true every present chunk is decompressed
// and NBT-decoded immediately; otherwise each ChunkVariant stays Unparsed
// until Parse is called (directly, or via ParseChunksParallel).
func LoadRegionFile(path string, eager bool) (map[ChunkPos]*ChunkVariant, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, schemerr.Wrap(schemerr.KindFileOpenError, "", err)
	}
	if len(raw)%segmentBytes != 0 {
		return nil, schemerr.New(schemerr.KindIncompleteSegmentInMCA, "region file %s size %d is not a multiple of %d", path, len(raw), segmentBytes)
	}
	totalSegments := len(raw) / segmentBytes

	regionXZ, ok := ParseRegionFilename(filepath.Base(path))
	if !ok {
		return nil, schemerr.New(schemerr.KindInvalidValue, "file name %q does not match r.<x>.<z>.mca", filepath.Base(path))
	}
	dir := filepath.Dir(path)

	out := make(map[ChunkPos]*ChunkVariant)
	if totalSegments < 2 {
		return out, nil
	}

	for lz := 0; lz < 32; lz++ {
		for lx := 0; lx < 32; lx++ {
			recordIdx := lx + lz*32
			locOff := recordIdx * 4
			entry := raw[locOff : locOff+4]
			offset := int(entry[0])<<16 | int(entry[1])<<8 | int(entry[2])
			length := int(entry[3])
			if offset == 0 && length == 0 {
				continue // chunk not yet generated
			}
			if offset < 2 || offset+length > totalSegments {
				return nil, schemerr.New(schemerr.KindInvalidSegmentRangeInMCA, "chunk (%d,%d) in %s: segment range [%d,%d) invalid for %d total segments", lx, lz, path, offset, offset+length, totalSegments)
			}

			tsOff := segmentBytes + recordIdx*4
			timestamp := binary.BigEndian.Uint32(raw[tsOff : tsOff+4])

			start := offset * segmentBytes
			end := start + length*segmentBytes
			segment := raw[start:end]
			if len(segment) < 5 {
				return nil, schemerr.New(schemerr.KindIncompleteSegmentInMCA, "chunk (%d,%d) in %s: segment run too short", lx, lz, path)
			}
			byteLen := int(binary.BigEndian.Uint32(segment[0:4]))
			if byteLen < 1 || 4+byteLen > len(segment) {
				return nil, schemerr.New(schemerr.KindIncompleteSegmentInMCA, "chunk (%d,%d) in %s: declares %d bytes, segment run holds %d", lx, lz, path, byteLen, len(segment)-4)
			}
			tag := segment[4]
			payload := segment[5 : 4+byteLen]

			pos := ChunkPos{regionXZ.X*32 + int32(lx), regionXZ.Z*32 + int32(lz)}
			variant := &ChunkVariant{Unparsed: &UnparsedChunkData{
				TimeStamp:   timestamp,
				Payload:     payload,
				CompressTag: tag,
				SourceFile:  path,
				Pos:         pos,
				dir:         dir,
			}}
			if eager {
				if err := variant.Parse(); err != nil {
					return nil, err
				}
			}
			out[pos] = variant
		}
	}
	return out, nil
}

// LoadRegionDir walks dir non-recursively, loading every file whose name
// matches r.<x>.<z>.mca and ignoring everything else.
func LoadRegionDir(dir string, eager bool) (map[ChunkPos]*ChunkVariant, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, schemerr.Wrap(schemerr.KindFileOpenError, "", err)
	}
	out := make(map[ChunkPos]*ChunkVariant)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := ParseRegionFilename(e.Name()); !ok {
			continue
		}
		chunks, err := LoadRegionFile(filepath.Join(dir, e.Name()), eager)
		if err != nil {
			return nil, err
		}
		for pos, v := range chunks {
			out[pos] = v
		}
	}
	return out, nil
}
