// Package blockid implements the namespaced block identifier grammar used
// throughout the schematic formats: "namespace:id[k1=v1,k2=v2,...]".
package blockid

import (
	"fmt"
	"sort"
	"strings"
)

// Block is a namespaced block identifier together with its ordered property
// set. Two Blocks are equal iff namespace, id and the full property set
// match; property insertion order never affects equality or hashing.
type Block struct {
	Namespace  string
	ID         string
	Properties map[string]string
}

// DefaultNamespace is substituted when a full-id string omits the namespace.
const DefaultNamespace = "minecraft"

// Air returns the canonical minecraft:air block.
func Air() Block {
	return Block{Namespace: DefaultNamespace, ID: "air"}
}

// StructureVoid returns the canonical minecraft:structure_void block.
func StructureVoid() Block {
	return Block{Namespace: DefaultNamespace, ID: "structure_void"}
}

// IsAir reports whether b is minecraft:air.
func (b Block) IsAir() bool {
	return b.Namespace == DefaultNamespace && b.ID == "air"
}

// IsStructureVoid reports whether b is minecraft:structure_void.
func (b Block) IsStructureVoid() bool {
	return b.Namespace == DefaultNamespace && b.ID == "structure_void"
}

// WithProperty returns a copy of b with key=value set in its property set.
func (b Block) WithProperty(key, value string) Block {
	props := make(map[string]string, len(b.Properties)+1)
	for k, v := range b.Properties {
		props[k] = v
	}
	props[key] = value
	b.Properties = props
	return b
}

// sortedKeys returns the property keys of b in lexicographic order.
func (b Block) sortedKeys() []string {
	keys := make([]string, 0, len(b.Properties))
	for k := range b.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FullID renders the canonical string form: properties are always emitted
// sorted by key, regardless of how they were inserted.
func (b Block) FullID() string {
	var sb strings.Builder
	sb.WriteString(b.Namespace)
	sb.WriteByte(':')
	sb.WriteString(b.ID)
	if len(b.Properties) > 0 {
		sb.WriteByte('[')
		for i, k := range b.sortedKeys() {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(b.Properties[k])
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

func (b Block) String() string { return b.FullID() }

// Equal reports structural equality: namespace, id and the full property
// set (order-independent) must all match.
func (b Block) Equal(other Block) bool {
	if b.Namespace != other.Namespace || b.ID != other.ID {
		return false
	}
	if len(b.Properties) != len(other.Properties) {
		return false
	}
	for k, v := range b.Properties {
		if ov, ok := other.Properties[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Key returns a string safe to use as a map key / pre-hash input for
// deduplicating Blocks; it is exactly the canonical FullID form.
func (b Block) Key() string { return b.FullID() }

// ParseError is the closed set of faults the parser can report. Exactly one
// is ever returned per call; the parser never partially mutates its target.
type ParseError int

const (
	ErrNone ParseError = iota
	ErrInvalidCharacter
	ErrTooManyColons
	ErrTooManyLeftBrackets
	ErrTooManyRightBrackets
	ErrBracketsNotInPairs
	ErrBracketInWrongPosition
	ErrMissingBlockID
	ErrColonsInWrongPosition
	ErrExtraStringAfterRightBracket
	ErrMissingEqualInAttributes
	ErrTooManyEqualsInAttributes
	ErrMissingAttributeName
	ErrMissingAttributeValue
)

func (e ParseError) Error() string {
	switch e {
	case ErrInvalidCharacter:
		return "invalid character in block id"
	case ErrTooManyColons:
		return "too many colons"
	case ErrTooManyLeftBrackets:
		return "too many '[' brackets"
	case ErrTooManyRightBrackets:
		return "too many ']' brackets"
	case ErrBracketsNotInPairs:
		return "brackets are not in pairs"
	case ErrBracketInWrongPosition:
		return "'[' appears after ']'"
	case ErrMissingBlockID:
		return "missing block id"
	case ErrColonsInWrongPosition:
		return "colon in wrong position"
	case ErrExtraStringAfterRightBracket:
		return "extra characters after ']'"
	case ErrMissingEqualInAttributes:
		return "missing '=' in attribute"
	case ErrTooManyEqualsInAttributes:
		return "too many '=' in attribute"
	case ErrMissingAttributeName:
		return "missing attribute name"
	case ErrMissingAttributeValue:
		return "missing attribute value"
	default:
		return "no error"
	}
}

// isIdentChar matches the [a-z0-9_] character class shared by namespaces,
// ids, property names and property values.
func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_'
}

func checkIdentCharacters(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}

// Parse parses a full block id string such as
// "minecraft:stone_slab[half=top,variant=brick]" into a Block.
func Parse(fullID string) (Block, ParseError) {
	// Reject anything outside the grammar's character class up front so
	// every later stage can assume clean bytes.
	for i := 0; i < len(fullID); i++ {
		c := fullID[i]
		if isIdentChar(c) || c == ':' || c == '[' || c == ']' || c == '=' || c == ',' {
			continue
		}
		return Block{}, ErrInvalidCharacter
	}

	leftCount := strings.Count(fullID, "[")
	rightCount := strings.Count(fullID, "]")
	if leftCount > 1 {
		return Block{}, ErrTooManyLeftBrackets
	}
	if rightCount > 1 {
		return Block{}, ErrTooManyRightBrackets
	}
	if leftCount != rightCount {
		return Block{}, ErrBracketsNotInPairs
	}

	idPart := fullID
	propsPart := ""
	if leftCount == 1 {
		leftIdx := strings.IndexByte(fullID, '[')
		rightIdx := strings.IndexByte(fullID, ']')
		if leftIdx > rightIdx {
			return Block{}, ErrBracketInWrongPosition
		}
		if rightIdx != len(fullID)-1 {
			return Block{}, ErrExtraStringAfterRightBracket
		}
		idPart = fullID[:leftIdx]
		propsPart = fullID[leftIdx+1 : rightIdx]
	}

	namespace := DefaultNamespace
	id := idPart
	switch strings.Count(idPart, ":") {
	case 0:
		// bare id, default namespace
	case 1:
		ns, rest, _ := strings.Cut(idPart, ":")
		if ns == "" {
			return Block{}, ErrColonsInWrongPosition
		}
		namespace, id = ns, rest
	default:
		return Block{}, ErrTooManyColons
	}
	if id == "" {
		return Block{}, ErrMissingBlockID
	}
	if !checkIdentCharacters(namespace) || !checkIdentCharacters(id) {
		return Block{}, ErrInvalidCharacter
	}

	var props map[string]string
	if propsPart != "" {
		props = make(map[string]string)
		for _, seg := range strings.Split(propsPart, ",") {
			if seg == "" {
				return Block{}, ErrMissingAttributeName
			}
			switch strings.Count(seg, "=") {
			case 0:
				return Block{}, ErrMissingEqualInAttributes
			case 1:
				// ok
			default:
				return Block{}, ErrTooManyEqualsInAttributes
			}
			key, value, _ := strings.Cut(seg, "=")
			if key == "" {
				return Block{}, ErrMissingAttributeName
			}
			if value == "" {
				return Block{}, ErrMissingAttributeValue
			}
			if !checkIdentCharacters(key) || !checkIdentCharacters(value) {
				return Block{}, ErrInvalidCharacter
			}
			props[key] = value
		}
	}

	return Block{Namespace: namespace, ID: id, Properties: props}, ErrNone
}

// MustParse parses s and panics on error; intended for literals in tests
// and static tables, never for untrusted input.
func MustParse(s string) Block {
	b, err := Parse(s)
	if err != ErrNone {
		panic(fmt.Sprintf("blockid: invalid literal %q: %v", s, err))
	}
	return b
}
