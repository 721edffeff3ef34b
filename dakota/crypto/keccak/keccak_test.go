package keccak

import (
	"bytes"
	"encoding/hex"
	"testing"

	"golang.org/x/crypto/sha3"
)

func TestSum256Vectors(t *testing.T) {
	vectors := []struct {
		in   string
		want string
	}{
		{"", "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{"abc", "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"},
		{"The quick brown fox jumps over the lazy dog", "4d741b6f1eb29cb2a9b9911c82f56fa8d73b04959d3d9d222895df6c0b28aa15"},
	}
	for _, v := range vectors {
		got := Sum256([]byte(v.in))
		if hex.EncodeToString(got[:]) != v.want {
			t.Fatalf("Sum256(%q) = %x, want %s", v.in, got, v.want)
		}
	}
}

func TestSum256MatchesLegacyKeccak(t *testing.T) {
	// Covers every padding case around the 136-byte rate, including the
	// single 0x81 pad byte at length 135 and the empty final block at 136.
	data := make([]byte, 3*BlockSize+7)
	for i := range data {
		data[i] = byte(i*7 + 3)
	}
	for n := 0; n <= len(data); n++ {
		ref := sha3.NewLegacyKeccak256()
		ref.Write(data[:n])
		want := ref.Sum(nil)
		got := Sum256(data[:n])
		if !bytes.Equal(got[:], want) {
			t.Fatalf("length %d: got %x, want %x", n, got, want)
		}
	}
}

func TestStreamingMatchesOneShot(t *testing.T) {
	data := make([]byte, 2*BlockSize+50)
	for i := range data {
		data[i] = byte(i)
	}
	want := Sum256(data)

	for _, step := range []int{1, 7, 64, 135, 136, 137, 500} {
		h := New256()
		for off := 0; off < len(data); off += step {
			end := off + step
			if end > len(data) {
				end = len(data)
			}
			h.Write(data[off:end])
		}
		if got := h.Sum(nil); !bytes.Equal(got, want[:]) {
			t.Fatalf("step %d: got %x, want %x", step, got, want)
		}
	}
}

func TestSumDoesNotDisturbState(t *testing.T) {
	h := New256()
	h.Write([]byte("hello "))
	_ = h.Sum(nil)
	h.Write([]byte("world"))

	want := Sum256([]byte("hello world"))
	if got := h.Sum(nil); !bytes.Equal(got, want[:]) {
		t.Fatalf("Sum mutated sponge state")
	}

	h.Reset()
	empty := Sum256(nil)
	if got := h.Sum(nil); !bytes.Equal(got, empty[:]) {
		t.Fatalf("Reset did not clear state")
	}
	if h.Size() != Size || h.BlockSize() != BlockSize {
		t.Fatalf("unexpected sizes %d/%d", h.Size(), h.BlockSize())
	}
}

func TestPermuteZeroState(t *testing.T) {
	// First lane of Keccak-f[1600] applied to the all-zero state.
	var a [25]uint64
	Permute(&a)
	if a[0] != 0xF1258F7940E1DDE7 {
		t.Fatalf("lane 0 = %#x", a[0])
	}
}

func BenchmarkSum256(b *testing.B) {
	data := make([]byte, 1024)
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Sum256(data)
	}
}
