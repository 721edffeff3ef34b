// Package secp256k1 implements the secp256k1 group law and public key derivation.
//
// Field elements and scalars are fixed-width 256-bit integers (four 64-bit limbs).
// Points are affine values with an explicit infinity flag. Arithmetic is not
// constant time; it is meant for key generation, not for signing services.
package secp256k1
