package pack

import "testing"

func TestVarIntBijection(t *testing.T) {
	for v := 0; v <= 65535; v++ {
		enc := EncodeVarInt(v)
		got, n, err := DecodeVarInt(enc)
		if err != nil {
			t.Fatalf("v=%d: decode error: %v", v, err)
		}
		if n != len(enc) {
			t.Fatalf("v=%d: consumed %d bytes, encoded %d", v, n, len(enc))
		}
		if got != v {
			t.Fatalf("decode(encode(%d)) = %d", v, got)
		}
	}
}

func TestVarIntMinimalLength(t *testing.T) {
	cases := []struct {
		v    int
		want int
	}{
		{0, 1},
		{127, 1},
		{128, 2},
		{16383, 2},
		{16384, 3},
		{65535, 3},
	}
	for _, c := range cases {
		if got := len(EncodeVarInt(c.v)); got != c.want {
			t.Errorf("len(EncodeVarInt(%d)) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestDecodeVarIntTruncated(t *testing.T) {
	// a lone continuation byte with no terminator
	if _, _, err := DecodeVarInt([]byte{0x80}); err == nil {
		t.Fatal("expected error for truncated stream")
	}
}

func TestVarIntArrayRoundTrip(t *testing.T) {
	values := []int{0, 1, 127, 128, 300, 65535, 42}
	enc := EncodeVarIntArray(values)
	got, err := DecodeVarIntArray(enc, len(values))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], values[i])
		}
	}
}
