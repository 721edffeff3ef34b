package secp256k1

import (
	"github.com/holiman/uint256"
)

const (
	PrivateKeySize   = 32
	UncompressedSize = 65
	RawPublicKeySize = 64
)

// ValidPrivateKey reports whether b is a 32-byte big-endian scalar in [1, N-1].
func ValidPrivateKey(b []byte) bool {
	if len(b) != PrivateKeySize {
		return false
	}
	var k uint256.Int
	k.SetBytes32(b)
	return !k.IsZero() && k.Lt(orderN)
}

// DerivePublicKey returns the public key of priv as 0x04‖x‖y and as the raw x‖y.
func DerivePublicKey(priv []byte) (uncompressed [UncompressedSize]byte, xy [RawPublicKeySize]byte, err error) {
	if !ValidPrivateKey(priv) {
		return uncompressed, xy, ErrInvalidPrivateKey
	}
	var k uint256.Int
	k.SetBytes32(priv)

	pub := ScalarBaseMult(&k)
	xy = pub.Raw()
	uncompressed[0] = 0x04
	copy(uncompressed[1:], xy[:])
	return uncompressed, xy, nil
}

// Raw returns x‖y as two 32-byte big-endian coordinates.
func (p Point) Raw() [RawPublicKeySize]byte {
	var out [RawPublicKeySize]byte
	x := p.X.Bytes32()
	y := p.Y.Bytes32()
	copy(out[:32], x[:])
	copy(out[32:], y[:])
	return out
}

// ParsePublicKey accepts 0x04‖x‖y or x‖y and checks the point is on the curve.
func ParsePublicKey(b []byte) (Point, error) {
	switch {
	case len(b) == UncompressedSize && b[0] == 0x04:
		b = b[1:]
	case len(b) == RawPublicKeySize:
	default:
		return Point{}, ErrInvalidPublicKey
	}
	var p Point
	p.X.SetBytes32(b[:32])
	p.Y.SetBytes32(b[32:])
	if !p.IsOnCurve() {
		return Point{}, ErrNotOnCurve
	}
	return p, nil
}
