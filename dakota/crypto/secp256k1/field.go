package secp256k1

import (
	"errors"

	"github.com/holiman/uint256"
)

// Errors returned by field and key operations.
var (
	ErrDivisionByZero    = errors.New("secp256k1: inverse of zero")
	ErrInvalidPrivateKey = errors.New("secp256k1: private key must be 32 bytes in [1, N-1]")
	ErrInvalidPublicKey  = errors.New("secp256k1: invalid public key encoding")
	ErrNotOnCurve        = errors.New("secp256k1: point is not on the curve")
)

var (
	fieldP = uint256.MustFromHex("0xfffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f")
	orderN = uint256.MustFromHex("0xfffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")

	genX = uint256.MustFromHex("0x79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	genY = uint256.MustFromHex("0x483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8")

	curveB = uint256.NewInt(7)
)

// P returns the field modulus.
func P() uint256.Int { return *fieldP }

// N returns the order of the generator.
func N() uint256.Int { return *orderN }

func fadd(x, y *uint256.Int) uint256.Int {
	var z uint256.Int
	z.AddMod(x, y, fieldP)
	return z
}

// fsub expects x and y already reduced mod P.
func fsub(x, y *uint256.Int) uint256.Int {
	var z uint256.Int
	if _, borrow := z.SubOverflow(x, y); borrow {
		z.Add(&z, fieldP)
	}
	return z
}

func fmul(x, y *uint256.Int) uint256.Int {
	var z uint256.Int
	z.MulMod(x, y, fieldP)
	return z
}

func bit(k *uint256.Int, i int) uint64 {
	return (k[i/64] >> (uint(i) % 64)) & 1
}

// Inverse returns a^(P-2) mod P, the multiplicative inverse of a in the field.
func Inverse(a *uint256.Int) (uint256.Int, error) {
	var r uint256.Int
	r.Mod(a, fieldP)
	if r.IsZero() {
		return uint256.Int{}, ErrDivisionByZero
	}

	var e uint256.Int
	e.Sub(fieldP, uint256.NewInt(2))

	result := *uint256.NewInt(1)
	base := r
	for i := 0; i < e.BitLen(); i++ {
		if bit(&e, i) == 1 {
			result = fmul(&result, &base)
		}
		base = fmul(&base, &base)
	}
	return result, nil
}

// mustInverse is only called on nonzero reduced denominators; a panic here
// means an arithmetic bug, not bad input.
func mustInverse(a *uint256.Int) uint256.Int {
	inv, err := Inverse(a)
	if err != nil {
		panic(err)
	}
	return inv
}
