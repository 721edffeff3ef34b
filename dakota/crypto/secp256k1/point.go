package secp256k1

import (
	"github.com/holiman/uint256"
)

// Point is an affine curve point. Points are plain values: == compares them.
type Point struct {
	X, Y uint256.Int
	Inf  bool
}

// Infinity is the group identity.
var Infinity = Point{Inf: true}

// Generator returns G.
func Generator() Point {
	return Point{X: *genX, Y: *genY}
}

// IsOnCurve reports whether p is the identity or satisfies y² = x³ + 7 (mod P).
func (p Point) IsOnCurve() bool {
	if p.Inf {
		return true
	}
	if !p.X.Lt(fieldP) || !p.Y.Lt(fieldP) {
		return false
	}
	y2 := fmul(&p.Y, &p.Y)
	x2 := fmul(&p.X, &p.X)
	x3 := fmul(&x2, &p.X)
	rhs := fadd(&x3, curveB)
	return y2 == rhs
}

// reduced returns p with both coordinates taken mod P. Arithmetic below
// assumes canonical coordinates; after reduction the only zero
// denominators are the cases handled explicitly (x1 == x2, y == 0).
func (p Point) reduced() Point {
	if p.Inf {
		return p
	}
	p.X.Mod(&p.X, fieldP)
	p.Y.Mod(&p.Y, fieldP)
	return p
}

// Neg returns -p = (x, P-y).
func (p Point) Neg() Point {
	p = p.reduced()
	if p.Inf || p.Y.IsZero() {
		return p
	}
	var y uint256.Int
	y.Sub(fieldP, &p.Y)
	return Point{X: p.X, Y: y}
}

// Add returns p1 + p2. Coordinates are reduced mod P first, so points need
// not be canonical, but the result is only meaningful for points on the curve.
func Add(p1, p2 Point) Point {
	p1, p2 = p1.reduced(), p2.reduced()
	if p1.Inf {
		return p2
	}
	if p2.Inf {
		return p1
	}
	if p1.X == p2.X {
		if p1.Y != p2.Y || p1.Y.IsZero() {
			return Infinity
		}
		return Double(p1)
	}

	// λ = (y2 - y1) / (x2 - x1)
	dy := fsub(&p2.Y, &p1.Y)
	dx := fsub(&p2.X, &p1.X)
	inv := mustInverse(&dx)
	lambda := fmul(&dy, &inv)
	return chord(lambda, p1, p2.X)
}

// Double returns 2p.
func Double(p Point) Point {
	p = p.reduced()
	if p.Inf || p.Y.IsZero() {
		return Infinity
	}

	// λ = 3x² / 2y
	x2 := fmul(&p.X, &p.X)
	num := fmul(&x2, uint256.NewInt(3))
	den := fadd(&p.Y, &p.Y)
	inv := mustInverse(&den)
	lambda := fmul(&num, &inv)
	return chord(lambda, p, p.X)
}

// chord finishes an addition given the slope: x3 = λ² - x1 - x2, y3 = λ(x1 - x3) - y1.
func chord(lambda uint256.Int, p1 Point, x2 uint256.Int) Point {
	l2 := fmul(&lambda, &lambda)
	x3 := fsub(&l2, &p1.X)
	x3 = fsub(&x3, &x2)

	dx := fsub(&p1.X, &x3)
	y3 := fmul(&lambda, &dx)
	y3 = fsub(&y3, &p1.Y)
	return Point{X: x3, Y: y3}
}

// ScalarMult returns k·p using double-and-add over the bits of k mod N, low bit first.
func ScalarMult(p Point, k *uint256.Int) Point {
	var s uint256.Int
	s.Mod(k, orderN)
	if s.IsZero() || p.Inf {
		return Infinity
	}

	result := Infinity
	addend := p
	n := s.BitLen()
	for i := 0; i < n; i++ {
		if bit(&s, i) == 1 {
			result = Add(result, addend)
		}
		if i+1 < n {
			addend = Double(addend)
		}
	}
	return result
}

// ScalarMultSigned returns (-k)·p when negative is set, computed as k·(-p).
func ScalarMultSigned(p Point, k *uint256.Int, negative bool) Point {
	if negative {
		p = p.Neg()
	}
	return ScalarMult(p, k)
}

// ScalarBaseMult returns k·G.
func ScalarBaseMult(k *uint256.Int) Point {
	return ScalarMult(Generator(), k)
}
