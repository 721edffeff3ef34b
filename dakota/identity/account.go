package identity

import (
	"io"
)

// Account is an externally owned account: a key pair and its address.
type Account struct {
	KeyPair
	Address Address
}

// NodeKey is a node identity (P2P / validator key). It has no address or keystore.
type NodeKey struct {
	KeyPair
}

// GenerateAccount draws a new EOA key from r.
func GenerateAccount(r io.Reader) (Account, error) {
	kp, err := GenerateKeyPair(r)
	if err != nil {
		return Account{}, err
	}
	return Account{KeyPair: kp, Address: kp.Address()}, nil
}

// GenerateNodeKey draws a new node identity key from r.
func GenerateNodeKey(r io.Reader) (NodeKey, error) {
	kp, err := GenerateKeyPair(r)
	if err != nil {
		return NodeKey{}, err
	}
	return NodeKey{KeyPair: kp}, nil
}
