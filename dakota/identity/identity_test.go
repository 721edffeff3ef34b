package identity

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/cryft-labs/dakota/dakota/crypto/secp256k1"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

func TestAddressOfKeyOne(t *testing.T) {
	var priv PrivateKey
	priv[31] = 1
	kp, err := NewKeyPair(priv)
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	if got := kp.Address().Hex(); got != "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf" {
		t.Fatalf("address = %s", got)
	}
}

func TestAddressMatchesGoEthereum(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 8; i++ {
		kp, err := GenerateKeyPair(rng)
		if err != nil {
			t.Fatalf("GenerateKeyPair: %v", err)
		}
		ref, err := crypto.ToECDSA(kp.PrivateKey[:])
		if err != nil {
			t.Fatalf("ToECDSA: %v", err)
		}
		if !bytes.Equal(kp.PublicKey.Uncompressed(), crypto.FromECDSAPub(&ref.PublicKey)) {
			t.Fatalf("public key mismatch for %s", kp.PrivateKey.Hex())
		}
		if kp.Address() != Address(crypto.PubkeyToAddress(ref.PublicKey)) {
			t.Fatalf("address mismatch for %s", kp.PrivateKey.Hex())
		}
	}
}

func TestAddressDeterministic(t *testing.T) {
	kp, err := GenerateKeyPair(nil)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	again, err := NewKeyPair(kp.PrivateKey)
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	a1, err := AddressFromPublicKey(kp.PublicKey.XY())
	if err != nil {
		t.Fatalf("AddressFromPublicKey: %v", err)
	}
	if a1 != again.Address() || a1 != kp.Address() {
		t.Fatalf("address is not a pure function of the private key")
	}
}

func TestAddressFromPublicKeyLength(t *testing.T) {
	for _, n := range []int{0, 63, 65} {
		if _, err := AddressFromPublicKey(make([]byte, n)); !errors.Is(err, ErrInvalidPublicKeyLength) {
			t.Fatalf("length %d: expected ErrInvalidPublicKeyLength, got %v", n, err)
		}
	}
}

func TestParseAddressHex(t *testing.T) {
	want := "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf"
	a, err := ParseAddressHex(want)
	if err != nil {
		t.Fatalf("ParseAddressHex: %v", err)
	}
	if a.Hex() != want || a.NoPrefix() != want[2:] || a.String() != want {
		t.Fatalf("round trip mismatch")
	}
	if _, err := ParseAddressHex("0x1234"); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

// sequenceReader serves fixed 32-byte draws in order.
type sequenceReader struct{ draws [][]byte }

func (s *sequenceReader) Read(p []byte) (int, error) {
	if len(s.draws) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.draws[0])
	s.draws = s.draws[1:]
	return n, nil
}

func TestGeneratePrivateKeyRejectsOutOfRange(t *testing.T) {
	n := secp256k1.N()
	order := n.Bytes32()
	valid := bytes.Repeat([]byte{0x01}, 32)
	r := &sequenceReader{draws: [][]byte{
		make([]byte, 32),
		order[:],
		bytes.Repeat([]byte{0xff}, 32),
		valid,
	}}

	k, err := GeneratePrivateKey(r)
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	if !bytes.Equal(k[:], valid) {
		t.Fatalf("expected the first in-range draw, got %s", k.Hex())
	}

	if _, err := GeneratePrivateKey(&sequenceReader{}); !errors.Is(err, ErrEntropy) {
		t.Fatalf("expected ErrEntropy, got %v", err)
	}
}

func TestGeneratePrivateKeyBoundary(t *testing.T) {
	n := secp256k1.N()
	seen := make(map[PrivateKey]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		k, err := GeneratePrivateKey(nil)
		if err != nil {
			t.Fatalf("GeneratePrivateKey: %v", err)
		}
		var v uint256.Int
		v.SetBytes32(k[:])
		if v.IsZero() || !v.Lt(&n) {
			t.Fatalf("key out of range: %s", k.Hex())
		}
		if _, dup := seen[k]; dup {
			t.Fatalf("duplicate key drawn")
		}
		seen[k] = struct{}{}
	}
}

func TestParsePrivateKeyHex(t *testing.T) {
	k, err := ParsePrivateKeyHex("0x" + bytesHex(0x11) + "\n")
	if err != nil {
		t.Fatalf("ParsePrivateKeyHex: %v", err)
	}
	if k.Hex() != bytesHex(0x11) {
		t.Fatalf("round trip mismatch")
	}
	if _, err := ParsePrivateKeyHex(bytesHex(0x00)); !errors.Is(err, ErrInvalidPrivateKey) {
		t.Fatalf("zero key should be rejected, got %v", err)
	}
	if _, err := ParsePrivateKey([]byte{1}); !errors.Is(err, ErrInvalidPrivateKey) {
		t.Fatalf("short key should be rejected, got %v", err)
	}
}

func bytesHex(b byte) string {
	k := PrivateKey{}
	for i := range k {
		k[i] = b
	}
	return k.Hex()
}

func TestParsePublicKey(t *testing.T) {
	kp, _ := GenerateKeyPair(nil)
	pub, err := ParsePublicKey(kp.PublicKey.Uncompressed())
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if pub != kp.PublicKey || pub.Hex() != kp.PublicKey.Hex() {
		t.Fatalf("parsed key differs")
	}
}

func TestAccountShapes(t *testing.T) {
	acct, err := GenerateAccount(nil)
	if err != nil {
		t.Fatalf("GenerateAccount: %v", err)
	}
	if acct.Address != acct.KeyPair.Address() {
		t.Fatalf("account address mismatch")
	}
	node, err := GenerateNodeKey(nil)
	if err != nil {
		t.Fatalf("GenerateNodeKey: %v", err)
	}
	if node.PrivateKey == acct.PrivateKey {
		t.Fatalf("independent draws produced the same key")
	}
	if len(node.PublicKey.XY()) != 64 {
		t.Fatalf("node public key should be raw x||y")
	}
}
