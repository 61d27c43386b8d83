// Package nbtutil centralizes access to the dynamically-typed NBT trees
// produced by the external NBT library: every lookup goes through one of
// these helpers so that a missing tag or a type mismatch always turns into
// a schemerr.Error carrying the exact tag path, instead of an ad-hoc panic
// or silent zero value.
package nbtutil

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/oriumgames/schemcore/schemerr"
)

// Compound is the decoded form of an NBT compound tag as produced by the
// external NBT library: string keys to dynamically-typed values (int32,
// int16, int64, float32, float64, string, []byte, []int32, []int64, []any,
// map[string]any, ...).
type Compound = map[string]any

// Path joins a parent path with the next segment, Unix-style.
func Path(parent, segment string) string {
	if parent == "" {
		return "/" + segment
	}
	return parent + "/" + segment
}

// Index appends an array index to a path: Index("/Foo", 3) == "/Foo[3]".
func Index(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

func get(c Compound, key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// RequireCompound looks up key in c and asserts it is itself a compound.
func RequireCompound(c Compound, key, path string) (Compound, error) {
	v, ok := get(c, key)
	if !ok {
		return nil, schemerr.TagMissing(Path(path, key))
	}
	sub, ok := v.(Compound)
	if !ok {
		return nil, schemerr.TagTypeMismatch(Path(path, key), "Compound", typeName(v))
	}
	return sub, nil
}

// OptionalCompound is like RequireCompound but returns (nil, nil) when key
// is absent.
func OptionalCompound(c Compound, key, path string) (Compound, error) {
	v, ok := get(c, key)
	if !ok {
		return nil, nil
	}
	sub, ok := v.(Compound)
	if !ok {
		return nil, schemerr.TagTypeMismatch(Path(path, key), "Compound", typeName(v))
	}
	return sub, nil
}

// RequireString looks up key in c and asserts it is a string.
func RequireString(c Compound, key, path string) (string, error) {
	v, ok := get(c, key)
	if !ok {
		return "", schemerr.TagMissing(Path(path, key))
	}
	s, ok := v.(string)
	if !ok {
		return "", schemerr.TagTypeMismatch(Path(path, key), "String", typeName(v))
	}
	return s, nil
}

// OptionalString returns def if key is absent.
func OptionalString(c Compound, key, path, def string) (string, error) {
	v, ok := get(c, key)
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", schemerr.TagTypeMismatch(Path(path, key), "String", typeName(v))
	}
	return s, nil
}

// RequireInt32 looks up key and asserts it is an Int (int32).
func RequireInt32(c Compound, key, path string) (int32, error) {
	v, ok := get(c, key)
	if !ok {
		return 0, schemerr.TagMissing(Path(path, key))
	}
	i, ok := v.(int32)
	if !ok {
		return 0, schemerr.TagTypeMismatch(Path(path, key), "Int", typeName(v))
	}
	return i, nil
}

// OptionalInt32 returns def if key is absent.
func OptionalInt32(c Compound, key, path string, def int32) (int32, error) {
	v, ok := get(c, key)
	if !ok {
		return def, nil
	}
	i, ok := v.(int32)
	if !ok {
		return 0, schemerr.TagTypeMismatch(Path(path, key), "Int", typeName(v))
	}
	return i, nil
}

// RequireInt16 looks up key and asserts it is a Short (int16).
func RequireInt16(c Compound, key, path string) (int16, error) {
	v, ok := get(c, key)
	if !ok {
		return 0, schemerr.TagMissing(Path(path, key))
	}
	i, ok := v.(int16)
	if !ok {
		return 0, schemerr.TagTypeMismatch(Path(path, key), "Short", typeName(v))
	}
	return i, nil
}

// RequireByte looks up key and asserts it is a Byte (int8).
func RequireByte(c Compound, key, path string) (int8, error) {
	v, ok := get(c, key)
	if !ok {
		return 0, schemerr.TagMissing(Path(path, key))
	}
	switch b := v.(type) {
	case int8:
		return b, nil
	case byte:
		return int8(b), nil
	default:
		return 0, schemerr.TagTypeMismatch(Path(path, key), "Byte", typeName(v))
	}
}

// OptionalByte returns def if key is absent.
func OptionalByte(c Compound, key, path string, def int8) (int8, error) {
	if _, ok := get(c, key); !ok {
		return def, nil
	}
	return RequireByte(c, key, path)
}

// RequireInt64 looks up key and asserts it is a Long (int64).
func RequireInt64(c Compound, key, path string) (int64, error) {
	v, ok := get(c, key)
	if !ok {
		return 0, schemerr.TagMissing(Path(path, key))
	}
	i, ok := v.(int64)
	if !ok {
		return 0, schemerr.TagTypeMismatch(Path(path, key), "Long", typeName(v))
	}
	return i, nil
}

// OptionalInt64 returns def if key is absent.
func OptionalInt64(c Compound, key, path string, def int64) (int64, error) {
	v, ok := get(c, key)
	if !ok {
		return def, nil
	}
	i, ok := v.(int64)
	if !ok {
		return 0, schemerr.TagTypeMismatch(Path(path, key), "Long", typeName(v))
	}
	return i, nil
}

// RequireList looks up key and asserts it is a List ([]any).
func RequireList(c Compound, key, path string) ([]any, error) {
	v, ok := get(c, key)
	if !ok {
		return nil, schemerr.TagMissing(Path(path, key))
	}
	l, ok := v.([]any)
	if !ok {
		return nil, schemerr.TagTypeMismatch(Path(path, key), "List", typeName(v))
	}
	return l, nil
}

// OptionalList returns nil if key is absent.
func OptionalList(c Compound, key, path string) ([]any, error) {
	v, ok := get(c, key)
	if !ok {
		return nil, nil
	}
	l, ok := v.([]any)
	if !ok {
		return nil, schemerr.TagTypeMismatch(Path(path, key), "List", typeName(v))
	}
	return l, nil
}

// RequireIntArray looks up key and asserts it is an IntArray ([]int32).
func RequireIntArray(c Compound, key, path string) ([]int32, error) {
	v, ok := get(c, key)
	if !ok {
		return nil, schemerr.TagMissing(Path(path, key))
	}
	a, ok := v.([]int32)
	if !ok {
		return nil, schemerr.TagTypeMismatch(Path(path, key), "IntArray", typeName(v))
	}
	return a, nil
}

// OptionalIntArray returns nil if key is absent.
func OptionalIntArray(c Compound, key, path string) ([]int32, error) {
	v, ok := get(c, key)
	if !ok {
		return nil, nil
	}
	a, ok := v.([]int32)
	if !ok {
		return nil, schemerr.TagTypeMismatch(Path(path, key), "IntArray", typeName(v))
	}
	return a, nil
}

// RequireLongArray looks up key and asserts it is a LongArray ([]int64).
func RequireLongArray(c Compound, key, path string) ([]int64, error) {
	v, ok := get(c, key)
	if !ok {
		return nil, schemerr.TagMissing(Path(path, key))
	}
	a, ok := v.([]int64)
	if !ok {
		return nil, schemerr.TagTypeMismatch(Path(path, key), "LongArray", typeName(v))
	}
	return a, nil
}

// OptionalLongArray returns nil if key is absent.
func OptionalLongArray(c Compound, key, path string) ([]int64, error) {
	v, ok := get(c, key)
	if !ok {
		return nil, nil
	}
	a, ok := v.([]int64)
	if !ok {
		return nil, schemerr.TagTypeMismatch(Path(path, key), "LongArray", typeName(v))
	}
	return a, nil
}

// RequireByteArray looks up key and asserts it is a ByteArray ([]byte).
func RequireByteArray(c Compound, key, path string) ([]byte, error) {
	v, ok := get(c, key)
	if !ok {
		return nil, schemerr.TagMissing(Path(path, key))
	}
	a, ok := v.([]byte)
	if !ok {
		return nil, schemerr.TagTypeMismatch(Path(path, key), "ByteArray", typeName(v))
	}
	return a, nil
}

// OptionalByteArray returns nil if key is absent.
func OptionalByteArray(c Compound, key, path string) ([]byte, error) {
	v, ok := get(c, key)
	if !ok {
		return nil, nil
	}
	a, ok := v.([]byte)
	if !ok {
		return nil, schemerr.TagTypeMismatch(Path(path, key), "ByteArray", typeName(v))
	}
	return a, nil
}

func typeName(v any) string {
	switch v.(type) {
	case int8, byte:
		return "Byte"
	case int16:
		return "Short"
	case int32:
		return "Int"
	case int64:
		return "Long"
	case float32:
		return "Float"
	case float64:
		return "Double"
	case []byte:
		return "ByteArray"
	case []int32:
		return "IntArray"
	case []int64:
		return "LongArray"
	case string:
		return "String"
	case []any:
		return "List"
	case Compound:
		return "Compound"
	case nil:
		return "End"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// UUIDFromIntArray decodes Minecraft's 4-int32 "UUID" tag encoding (most
// significant word first) into a uuid.UUID. ok is false unless a has
// exactly 4 elements.
func UUIDFromIntArray(a []int32) (id uuid.UUID, ok bool) {
	if len(a) != 4 {
		return uuid.UUID{}, false
	}
	for i := 0; i < 4; i++ {
		binary.BigEndian.PutUint32(id[i*4:i*4+4], uint32(a[i]))
	}
	return id, true
}

// UUIDToIntArray is the inverse of UUIDFromIntArray.
func UUIDToIntArray(id uuid.UUID) []int32 {
	out := make([]int32, 4)
	for i := 0; i < 4; i++ {
		out[i] = int32(binary.BigEndian.Uint32(id[i*4 : i*4+4]))
	}
	return out
}
