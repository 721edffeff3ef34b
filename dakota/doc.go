// Package dakota provides the building blocks of the Dakota key wizard.
//
// The wizard produces key material for a Dakota (Hyperledger Besu) network:
// Ethereum accounts with optional V3 keystores, Besu node keys and Tessera
// key pairs. Keccak-256, secp256k1 and AES-128-CTR are implemented in
// sub-packages of crypto; key sets can then be sent to the machines that need
// them over a pinned QUIC transport, or split into Reed-Solomon shards for
// offline backup.
package dakota
