package keccak

import (
	"encoding/binary"
	"hash"
	"math/bits"
)

const (
	// Size is the Keccak-256 digest length in bytes.
	Size = 32
	// BlockSize is the Keccak-256 sponge rate in bytes (1088 bits).
	BlockSize = 136
)

// Domain separation for the original Keccak padding. NIST SHA-3 uses 0x06 instead.
const (
	padFirst = 0x01
	padLast  = 0x80
)

var roundConstants = [24]uint64{
	0x0000000000000001, 0x0000000000008082, 0x800000000000808A, 0x8000000080008000,
	0x000000000000808B, 0x0000000080000001, 0x8000000080008081, 0x8000000000008009,
	0x000000000000008A, 0x0000000000000088, 0x0000000080008009, 0x000000008000000A,
	0x000000008000808B, 0x800000000000008B, 0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080, 0x000000000000800A, 0x800000008000000A,
	0x8000000080008081, 0x8000000000008080, 0x0000000080000001, 0x8000000080008008,
}

// rotationOffsets is indexed [x][y] for lane x+5y.
var rotationOffsets = [5][5]int{
	{0, 36, 3, 41, 18},
	{1, 44, 10, 45, 2},
	{62, 6, 43, 15, 61},
	{28, 55, 25, 21, 56},
	{27, 20, 39, 8, 14},
}

// Permute applies the 24-round Keccak-f[1600] permutation to a in place.
// Lane (x, y) is stored at a[x+5*y].
func Permute(a *[25]uint64) {
	var (
		c, d [5]uint64
		b    [25]uint64
	)
	for _, rc := range roundConstants {
		// θ
		for x := 0; x < 5; x++ {
			c[x] = a[x] ^ a[x+5] ^ a[x+10] ^ a[x+15] ^ a[x+20]
		}
		for x := 0; x < 5; x++ {
			d[x] = c[(x+4)%5] ^ bits.RotateLeft64(c[(x+1)%5], 1)
		}
		for i := range a {
			a[i] ^= d[i%5]
		}

		// ρ and π
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				b[y+5*((2*x+3*y)%5)] = bits.RotateLeft64(a[x+5*y], rotationOffsets[x][y])
			}
		}

		// χ
		for y := 0; y < 25; y += 5 {
			for x := 0; x < 5; x++ {
				a[y+x] = b[y+x] ^ (^b[y+(x+1)%5] & b[y+(x+2)%5])
			}
		}

		// ι
		a[0] ^= rc
	}
}

// sponge is a Keccak-256 sponge with a partially filled input block.
type sponge struct {
	a   [25]uint64
	buf [BlockSize]byte
	n   int
}

// New256 returns a streaming Keccak-256 hash.
func New256() hash.Hash {
	return &sponge{}
}

// Sum256 returns the Keccak-256 digest of data.
func Sum256(data []byte) [Size]byte {
	var s sponge
	_, _ = s.Write(data)
	return s.digest()
}

func (s *sponge) absorb(block []byte) {
	for i := 0; i < BlockSize/8; i++ {
		s.a[i] ^= binary.LittleEndian.Uint64(block[i*8:])
	}
	Permute(&s.a)
}

// Write absorbs p. It never returns an error.
func (s *sponge) Write(p []byte) (int, error) {
	written := len(p)
	if s.n > 0 {
		k := copy(s.buf[s.n:], p)
		s.n += k
		p = p[k:]
		if s.n < BlockSize {
			return written, nil
		}
		s.absorb(s.buf[:])
		s.n = 0
	}
	for len(p) >= BlockSize {
		s.absorb(p[:BlockSize])
		p = p[BlockSize:]
	}
	if len(p) > 0 {
		s.n = copy(s.buf[:], p)
	}
	return written, nil
}

// digest pads and squeezes a copy of the sponge, leaving s usable for more writes.
func (s *sponge) digest() [Size]byte {
	dup := *s
	for i := dup.n; i < BlockSize; i++ {
		dup.buf[i] = 0
	}
	dup.buf[dup.n] ^= padFirst
	dup.buf[BlockSize-1] ^= padLast
	dup.absorb(dup.buf[:])

	var out [Size]byte
	dup.squeeze(out[:])
	return out
}

// squeeze reads len(out) bytes from the state, permuting between rate-sized blocks.
func (s *sponge) squeeze(out []byte) {
	var lane [8]byte
	for len(out) > 0 {
		for i := 0; i < BlockSize/8 && len(out) > 0; i++ {
			binary.LittleEndian.PutUint64(lane[:], s.a[i])
			out = out[copy(out, lane[:]):]
		}
		if len(out) > 0 {
			Permute(&s.a)
		}
	}
}

func (s *sponge) Sum(b []byte) []byte {
	d := s.digest()
	return append(b, d[:]...)
}

func (s *sponge) Reset() { *s = sponge{} }

func (s *sponge) Size() int { return Size }

func (s *sponge) BlockSize() int { return BlockSize }
