// Package keccak implements the Keccak-256 hash used by Ethereum.
//
// This is the original Keccak submission padding (domain byte 0x01), not NIST
// SHA3-256 (domain byte 0x06). The two produce different digests for the same
// input. Keccak-256 here is:
//   - Keccak-f[1600] permutation, 24 rounds over 25 little-endian 64-bit lanes
//   - Sponge rate 136 bytes, capacity 512 bits
//   - 32-byte output, squeezed from the first four lanes
package keccak
