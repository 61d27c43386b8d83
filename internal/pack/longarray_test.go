package pack

import (
	"math/rand"
	"testing"
)

func TestBitsPerEntry(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 1}, {1, 1}, {2, 2}, {3, 2}, {4, 2}, {5, 3}, {16, 4}, {17, 5}, {256, 8},
	}
	for _, c := range cases {
		if got := BitsPerEntry(c.n); got != c.want {
			t.Errorf("BitsPerEntry(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func testRandomRoundTrip(t *testing.T, mode Straddle) {
	rng := rand.New(rand.NewSource(1))
	for _, b := range []int{1, 2, 3, 4, 5, 8, 13, 32, 64} {
		for _, n := range []int{1, 64, 1024} {
			values := make([]uint64, n)
			max := uint64(1)<<uint(b) - 1
			if b == 64 {
				max = ^uint64(0)
			}
			p := NewPackedArray(n, b, mode)
			for i := range values {
				v := uint64(rng.Int63())
				if max != ^uint64(0) {
					v &= max
				}
				values[i] = v
				p.Set(i, v)
			}
			for i := range values {
				if got := p.Get(i); got != values[i] {
					t.Fatalf("mode=%v b=%d n=%d i=%d: got %d want %d", mode, b, n, i, got, values[i])
				}
			}
		}
	}
}

func TestPackedArrayRandomNonStraddling(t *testing.T) { testRandomRoundTrip(t, NonStraddling) }
func TestPackedArrayRandomStraddling(t *testing.T)    { testRandomRoundTrip(t, Straddling) }

func TestNumWordsFormulas(t *testing.T) {
	// non-straddling: ceil(n / floor(64/b))
	p := NewPackedArray(4096, 4, NonStraddling)
	if got, want := p.NumWords(), 256; got != want {
		t.Errorf("non-straddling NumWords = %d, want %d", got, want)
	}
	// straddling: ceil(n*b/64)
	p2 := NewPackedArray(1024, 5, Straddling)
	if got, want := p2.NumWords(), (1024*5+63)/64; got != want {
		t.Errorf("straddling NumWords = %d, want %d", got, want)
	}
}
