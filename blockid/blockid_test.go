package blockid

import "testing"

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"minecraft:stone",
		"minecraft:stone_slab[half=top,variant=brick]",
		"modded:custom_block[a=1,b=2,c=3]",
	}
	for _, s := range cases {
		b, err := Parse(s)
		if err != ErrNone {
			t.Fatalf("Parse(%q) = %v", s, err)
		}
		if got := b.FullID(); got != s {
			t.Errorf("Parse(%q).FullID() = %q, want %q", s, got, s)
		}
		b2, err2 := Parse(b.FullID())
		if err2 != ErrNone || !b2.Equal(b) {
			t.Errorf("round trip mismatch for %q", s)
		}
	}
}

func TestParseStoneSlab(t *testing.T) {
	b, err := Parse("minecraft:stone_slab[half=top,variant=brick]")
	if err != ErrNone {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Namespace != "minecraft" || b.ID != "stone_slab" {
		t.Fatalf("got namespace=%q id=%q", b.Namespace, b.ID)
	}
	if b.Properties["half"] != "top" || b.Properties["variant"] != "brick" {
		t.Fatalf("properties = %v", b.Properties)
	}
}

func TestParsePropertySortedCanonical(t *testing.T) {
	b, err := Parse("minecraft:x[b=2,a=1]")
	if err != ErrNone {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := b.FullID(), "minecraft:x[a=1,b=2]"; got != want {
		t.Errorf("FullID() = %q, want %q", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		in   string
		want ParseError
	}{
		{"minecraft::air", ErrTooManyColons},
		{":air", ErrColonsInWrongPosition},
		{"minecraft:", ErrMissingBlockID},
		{"minecraft:stone[[a=1]", ErrTooManyLeftBrackets},
		{"minecraft:stone]a=1]", ErrTooManyRightBrackets},
		{"minecraft:stone]a=1[", ErrBracketInWrongPosition},
		{"minecraft:stone[a=1]extra", ErrExtraStringAfterRightBracket},
		{"minecraft:stone[a]", ErrMissingEqualInAttributes},
		{"minecraft:stone[a=1=2]", ErrTooManyEqualsInAttributes},
		{"minecraft:stone[=1]", ErrMissingAttributeName},
		{"minecraft:stone[a=]", ErrMissingAttributeValue},
		{"minecraft:Stone", ErrInvalidCharacter},
		{"minecraft:stone[a=1,,b=2]", ErrMissingAttributeName},
	}
	for _, c := range cases {
		_, err := Parse(c.in)
		if err != c.want {
			t.Errorf("Parse(%q) = %v, want %v", c.in, err, c.want)
		}
	}
}

func TestEqualityIgnoresInsertionOrder(t *testing.T) {
	a := Block{Namespace: "minecraft", ID: "x", Properties: map[string]string{"a": "1", "b": "2"}}
	b := Block{Namespace: "minecraft", ID: "x", Properties: map[string]string{"b": "2", "a": "1"}}
	if !a.Equal(b) {
		t.Fatalf("expected equal blocks")
	}
}

func TestAirAndStructureVoid(t *testing.T) {
	if !Air().IsAir() {
		t.Fatal("Air() is not air")
	}
	if !StructureVoid().IsStructureVoid() {
		t.Fatal("StructureVoid() is not structure_void")
	}
}
