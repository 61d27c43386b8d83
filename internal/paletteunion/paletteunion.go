// Package paletteunion merges the independent per-region palettes a
// multi-region Schematic carries into one global palette, producing the
// lookup table each region needs to remap its block-index array against it.
package paletteunion

import (
	"github.com/cespare/xxhash/v2"

	"github.com/oriumgames/schemcore/blockid"
)

// Union is the result of merging N per-region palettes: Global holds every
// distinct Block exactly once, and LUTs[r][i] is Global's index for region
// r's local palette entry i.
type Union struct {
	Global []blockid.Block
	LUTs   [][]uint16
}

// entry tracks one bucket of a hash-keyed intermediate lookup, resolving
// hash collisions by falling back to structural Equal across the bucket.
type entry struct {
	block blockid.Block
	index int
}

// Merge builds the union of palettes, one per region, in the given order.
// Every block is pre-hashed with xxhash before any comparison, so dedup
// across the combined palette runs in O(total) rather than O(total^2): only
// blocks whose hash collides ever pay for a structural Equal call.
func Merge(palettes [][]blockid.Block) Union {
	buckets := make(map[uint64][]entry)
	var global []blockid.Block
	luts := make([][]uint16, len(palettes))

	for r, palette := range palettes {
		lut := make([]uint16, len(palette))
		for i, b := range palette {
			h := xxhash.Sum64String(b.Key())
			bucket := buckets[h]

			idx := -1
			for _, e := range bucket {
				if e.block.Equal(b) {
					idx = e.index
					break
				}
			}
			if idx == -1 {
				idx = len(global)
				global = append(global, b)
				buckets[h] = append(bucket, entry{block: b, index: idx})
			}
			lut[i] = uint16(idx)
		}
		luts[r] = lut
	}

	return Union{Global: global, LUTs: luts}
}
