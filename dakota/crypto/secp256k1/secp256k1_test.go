package secp256k1

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/rand"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/holiman/uint256"
)

func TestGeneratorOnCurve(t *testing.T) {
	if !Generator().IsOnCurve() {
		t.Fatalf("generator not on curve")
	}
	if !Infinity.IsOnCurve() {
		t.Fatalf("infinity should be accepted")
	}
	off := Generator()
	off.Y.AddUint64(&off.Y, 1)
	if off.IsOnCurve() {
		t.Fatalf("perturbed point reported on curve")
	}
}

func TestScalarMultIdentities(t *testing.T) {
	g := Generator()
	n := N()

	if got := ScalarBaseMult(uint256.NewInt(1)); got != g {
		t.Fatalf("1·G != G")
	}
	if got := ScalarBaseMult(&n); got != Infinity {
		t.Fatalf("N·G should be infinity, got %+v", got)
	}
	if got := ScalarBaseMult(new(uint256.Int)); got != Infinity {
		t.Fatalf("0·G should be infinity")
	}

	var np1 uint256.Int
	np1.AddUint64(&n, 1)
	if got := ScalarBaseMult(&np1); got != g {
		t.Fatalf("(N+1)·G != G")
	}

	var nm1 uint256.Int
	nm1.SubUint64(&n, 1)
	if got := ScalarBaseMult(&nm1); got != g.Neg() {
		t.Fatalf("(N-1)·G != -G")
	}

	if got := ScalarMult(Infinity, uint256.NewInt(5)); got != Infinity {
		t.Fatalf("k·O should be O")
	}
}

func TestDoubling(t *testing.T) {
	g := Generator()
	want := Point{
		X: *uint256.MustFromHex("0xc6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5"),
		Y: *uint256.MustFromHex("0x1ae168fea63dc339a3c58419466ceaeef7f632653266d0e1236431a950cfe52a"),
	}
	if got := Double(g); got != want {
		t.Fatalf("Double(G) = %x,%x", got.X.Bytes32(), got.Y.Bytes32())
	}
	if got := Add(g, g); got != want {
		t.Fatalf("Add(G, G) should double")
	}
	if got := ScalarBaseMult(uint256.NewInt(2)); got != want {
		t.Fatalf("2·G mismatch")
	}

	// 3G = 2G + G = G + 2G
	three := ScalarBaseMult(uint256.NewInt(3))
	if Add(want, g) != three || Add(g, want) != three {
		t.Fatalf("addition not consistent with scalar multiplication")
	}
	if !three.IsOnCurve() {
		t.Fatalf("3·G not on curve")
	}
}

func TestInversePairs(t *testing.T) {
	g := Generator()
	if got := Add(g, g.Neg()); got != Infinity {
		t.Fatalf("G + -G should be infinity")
	}
	if got := Add(Infinity, g); got != g {
		t.Fatalf("O + G != G")
	}
	if got := Add(g, Infinity); got != g {
		t.Fatalf("G + O != G")
	}
	if got := ScalarMultSigned(g, uint256.NewInt(1), true); got != g.Neg() {
		t.Fatalf("-1·G != -G")
	}
	k := uint256.NewInt(12345)
	pos := ScalarMult(g, k)
	if got := ScalarMultSigned(g, k, true); got != pos.Neg() {
		t.Fatalf("-k·G != -(k·G)")
	}
}

func TestInverse(t *testing.T) {
	if _, err := Inverse(new(uint256.Int)); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
	p := P()
	if _, err := Inverse(&p); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("P ≡ 0 should fail")
	}

	for _, v := range []uint64{1, 2, 3, 7, 0xdeadbeef} {
		a := uint256.NewInt(v)
		inv, err := Inverse(a)
		if err != nil {
			t.Fatalf("Inverse(%d): %v", v, err)
		}
		if prod := fmul(a, &inv); prod != *uint256.NewInt(1) {
			t.Fatalf("a·a⁻¹ != 1 for %d", v)
		}
	}
}

func TestDerivePublicKeyOne(t *testing.T) {
	priv := make([]byte, 32)
	priv[31] = 1
	uncompressed, xy, err := DerivePublicKey(priv)
	if err != nil {
		t.Fatalf("DerivePublicKey: %v", err)
	}
	want := "79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798" +
		"483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8"
	if hex.EncodeToString(xy[:]) != want {
		t.Fatalf("xy = %x", xy)
	}
	if uncompressed[0] != 0x04 || !bytes.Equal(uncompressed[1:], xy[:]) {
		t.Fatalf("uncompressed encoding mismatch")
	}
}

func TestDerivePublicKeyRejectsOutOfRange(t *testing.T) {
	n := N()
	nBytes := n.Bytes32()
	cases := map[string][]byte{
		"zero":  make([]byte, 32),
		"order": nBytes[:],
		"max":   bytes.Repeat([]byte{0xff}, 32),
		"short": {1, 2, 3},
		"long":  make([]byte, 33),
		"nil":   nil,
	}
	for name, priv := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := DerivePublicKey(priv); !errors.Is(err, ErrInvalidPrivateKey) {
				t.Fatalf("expected ErrInvalidPrivateKey, got %v", err)
			}
		})
	}
}

func TestDerivePublicKeyMatchesBtcec(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 16; i++ {
		priv := make([]byte, 32)
		rng.Read(priv)
		if !ValidPrivateKey(priv) {
			continue
		}
		uncompressed, _, err := DerivePublicKey(priv)
		if err != nil {
			t.Fatalf("DerivePublicKey: %v", err)
		}
		_, ref := btcec.PrivKeyFromBytes(priv)
		if !bytes.Equal(uncompressed[:], ref.SerializeUncompressed()) {
			t.Fatalf("key %x: got %x, want %x", priv, uncompressed, ref.SerializeUncompressed())
		}
	}
}

func TestParsePublicKey(t *testing.T) {
	priv := bytes.Repeat([]byte{0x11}, 32)
	uncompressed, xy, err := DerivePublicKey(priv)
	if err != nil {
		t.Fatalf("DerivePublicKey: %v", err)
	}

	p1, err := ParsePublicKey(uncompressed[:])
	if err != nil {
		t.Fatalf("ParsePublicKey(65): %v", err)
	}
	p2, err := ParsePublicKey(xy[:])
	if err != nil {
		t.Fatalf("ParsePublicKey(64): %v", err)
	}
	if p1 != p2 || p1.Raw() != xy {
		t.Fatalf("parsed points differ")
	}

	bad := xy
	bad[63] ^= 1
	if _, err := ParsePublicKey(bad[:]); !errors.Is(err, ErrNotOnCurve) {
		t.Fatalf("expected ErrNotOnCurve, got %v", err)
	}
	if _, err := ParsePublicKey(xy[:10]); !errors.Is(err, ErrInvalidPublicKey) {
		t.Fatalf("expected ErrInvalidPublicKey, got %v", err)
	}
}

func BenchmarkScalarBaseMult(b *testing.B) {
	k := uint256.MustFromHex("0x1111111111111111111111111111111111111111111111111111111111111111")
	for i := 0; i < b.N; i++ {
		_ = ScalarBaseMult(k)
	}
}

func TestAddDoubleUnreducedCoordinates(t *testing.T) {
	p := P()

	// x ≡ 5 in both points, y differs: the sum is the identity.
	var x2 uint256.Int
	x2.AddUint64(&p, 5)
	p1 := Point{X: *uint256.NewInt(5), Y: *uint256.NewInt(1)}
	p2 := Point{X: x2, Y: *uint256.NewInt(2)}
	if got := Add(p1, p2); got != Infinity {
		t.Fatalf("Add with x1 ≡ x2 should be infinity, got %+v", got)
	}

	// y = P ≡ 0: the tangent is vertical.
	if got := Double(Point{X: *uint256.NewInt(1), Y: p}); got != Infinity {
		t.Fatalf("Double with y ≡ 0 should be infinity, got %+v", got)
	}
}
