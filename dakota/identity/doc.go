// Package identity generates secp256k1 key material and derives Ethereum addresses.
//
// Every generated key is drawn independently from the supplied entropy source;
// public keys and addresses are pure functions of the private key.
package identity
