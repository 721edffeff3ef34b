package identity

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"strings"

	"github.com/cryft-labs/dakota/dakota/crypto/secp256k1"
)

// Errors returned when generating or parsing keys.
var (
	ErrInvalidPrivateKey = errors.New("identity: private key out of range for secp256k1")
	ErrEntropy           = errors.New("identity: entropy source failed")
)

// PrivateKey is a secp256k1 scalar in [1, N-1], big-endian.
type PrivateKey [32]byte

// GeneratePrivateKey draws 32 bytes from r until they form a valid scalar.
// A nil r uses crypto/rand.
func GeneratePrivateKey(r io.Reader) (PrivateKey, error) {
	if r == nil {
		r = rand.Reader
	}
	var k PrivateKey
	for {
		if _, err := io.ReadFull(r, k[:]); err != nil {
			return PrivateKey{}, errors.Join(ErrEntropy, err)
		}
		if secp256k1.ValidPrivateKey(k[:]) {
			return k, nil
		}
	}
}

// ParsePrivateKey validates a raw 32-byte key.
func ParsePrivateKey(b []byte) (PrivateKey, error) {
	if !secp256k1.ValidPrivateKey(b) {
		return PrivateKey{}, ErrInvalidPrivateKey
	}
	var k PrivateKey
	copy(k[:], b)
	return k, nil
}

// ParsePrivateKeyHex accepts 64 hex characters with an optional 0x prefix and surrounding whitespace.
func ParsePrivateKeyHex(s string) (PrivateKey, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return PrivateKey{}, err
	}
	return ParsePrivateKey(b)
}

// Hex returns lowercase hex without prefix, the form written to key files.
func (k PrivateKey) Hex() string { return hex.EncodeToString(k[:]) }

// PublicKey is a non-infinite secp256k1 point.
type PublicKey struct {
	uncompressed [secp256k1.UncompressedSize]byte
	xy           [secp256k1.RawPublicKeySize]byte
}

// Uncompressed returns 0x04‖x‖y.
func (p PublicKey) Uncompressed() []byte { return append([]byte(nil), p.uncompressed[:]...) }

// XY returns x‖y.
func (p PublicKey) XY() []byte { return append([]byte(nil), p.xy[:]...) }

// Hex returns x‖y in lowercase hex, the Besu key.pub format.
func (p PublicKey) Hex() string { return hex.EncodeToString(p.xy[:]) }

// Address returns the Ethereum address of the key.
func (p PublicKey) Address() Address {
	// xy is always 64 bytes here.
	a, _ := AddressFromPublicKey(p.xy[:])
	return a
}

// ParsePublicKey accepts 0x04‖x‖y or x‖y.
func ParsePublicKey(b []byte) (PublicKey, error) {
	pt, err := secp256k1.ParsePublicKey(b)
	if err != nil {
		return PublicKey{}, err
	}
	if pt.Inf {
		return PublicKey{}, secp256k1.ErrInvalidPublicKey
	}
	var pub PublicKey
	pub.xy = pt.Raw()
	pub.uncompressed[0] = 0x04
	copy(pub.uncompressed[1:], pub.xy[:])
	return pub, nil
}

// KeyPair holds a secp256k1 private key and its derived public key.
type KeyPair struct {
	PrivateKey PrivateKey
	PublicKey  PublicKey
}

// NewKeyPair derives the public key for priv.
func NewKeyPair(priv PrivateKey) (KeyPair, error) {
	uncompressed, xy, err := secp256k1.DerivePublicKey(priv[:])
	if err != nil {
		return KeyPair{}, ErrInvalidPrivateKey
	}
	return KeyPair{
		PrivateKey: priv,
		PublicKey:  PublicKey{uncompressed: uncompressed, xy: xy},
	}, nil
}

// GenerateKeyPair draws a fresh private key from r and derives its public key.
func GenerateKeyPair(r io.Reader) (KeyPair, error) {
	priv, err := GeneratePrivateKey(r)
	if err != nil {
		return KeyPair{}, err
	}
	return NewKeyPair(priv)
}

func (kp KeyPair) Address() Address {
	return kp.PublicKey.Address()
}
