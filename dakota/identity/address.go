package identity

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/cryft-labs/dakota/dakota/crypto/keccak"
	"github.com/cryft-labs/dakota/dakota/crypto/secp256k1"
)

// Errors returned when deriving or parsing addresses.
var (
	ErrInvalidPublicKeyLength = errors.New("identity: public key must be 64 bytes (x||y)")
	ErrInvalidAddress         = errors.New("identity: invalid address")
)

// Address is an Ethereum account address.
// It is defined as: Address = Keccak256(x‖y)[12:].
type Address [20]byte

// AddressFromPublicKey derives the address of a raw 64-byte public key.
func AddressFromPublicKey(xy []byte) (Address, error) {
	if len(xy) != secp256k1.RawPublicKeySize {
		return Address{}, ErrInvalidPublicKeyLength
	}
	sum := keccak.Sum256(xy)
	var a Address
	copy(a[:], sum[12:])
	return a, nil
}

// ParseAddressHex accepts 40 hex characters with or without the 0x prefix.
func ParseAddressHex(s string) (Address, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, err
	}
	if len(b) != len(Address{}) {
		return Address{}, ErrInvalidAddress
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// Hex returns "0x" followed by lowercase hex.
func (a Address) Hex() string { return "0x" + a.NoPrefix() }

// NoPrefix returns lowercase hex without "0x", the keystore form.
func (a Address) NoPrefix() string { return hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }
