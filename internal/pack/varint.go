// Package pack implements the two integer bit-packing disciplines shared by
// the schematic codecs: a variable-length continuation-byte stream (used by
// the WorldEdit 1.13+ BlockData array) and a fixed-width packed array over
// 64-bit words, in both the non-straddling (chunk-store) and straddling
// (Litematica) variants.
package pack

import "fmt"

// maxVarIntBytes bounds how many continuation bytes a single value may take;
// a u32-range value never needs more than 5, so 8 leaves ample margin while
// still rejecting runaway streams.
const maxVarIntBytes = 8

// EncodeVarInt encodes a non-negative integer as a little-endian base-128
// stream of continuation bytes: values <= 127 are a single byte; larger
// values emit one byte per 7-bit group with the continuation bit set on
// every byte but the last.
func EncodeVarInt(v int) []byte {
	if v < 0 {
		panic(fmt.Sprintf("pack: EncodeVarInt of negative value %d", v))
	}
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		out = append(out, b)
		break
	}
	return out
}

// DecodeVarInt reads a single VarInt starting at data[0], returning the
// decoded value and the number of bytes consumed. It accepts at most
// maxVarIntBytes bytes per value and rejects a stream that ends mid-value.
func DecodeVarInt(data []byte) (value, n int, err error) {
	for n = 0; ; n++ {
		if n >= maxVarIntBytes {
			return 0, 0, fmt.Errorf("pack: varint exceeds %d bytes", maxVarIntBytes)
		}
		if n >= len(data) {
			return 0, 0, fmt.Errorf("pack: varint stream ends mid-value")
		}
		b := data[n]
		value |= int(b&0x7f) << (7 * n)
		if b&0x80 == 0 {
			return value, n + 1, nil
		}
	}
}

// EncodeVarIntArray encodes every value in values, concatenated.
func EncodeVarIntArray(values []int) []byte {
	out := make([]byte, 0, len(values))
	for _, v := range values {
		out = append(out, EncodeVarInt(v)...)
	}
	return out
}

// DecodeVarIntArray decodes exactly count VarInts from data.
func DecodeVarIntArray(data []byte, count int) ([]int, error) {
	values := make([]int, count)
	offset := 0
	for i := 0; i < count; i++ {
		if offset > len(data) {
			return nil, fmt.Errorf("pack: varint array truncated at index %d", i)
		}
		v, n, err := DecodeVarInt(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("pack: decode varint %d: %w", i, err)
		}
		values[i] = v
		offset += n
	}
	return values, nil
}
