// Package crypto holds the key-derivation and entropy helpers shared by the
// keystore and key generation code.
//
// The primitives themselves live in sub-packages:
//   - keccak: Keccak-256 (Ethereum hashing, addresses, keystore MACs)
//   - secp256k1: curve arithmetic and public key derivation
//   - aes128: AES-128 block cipher and CTR mode
//
// Password-based derivation is delegated to golang.org/x/crypto:
// PBKDF2-HMAC-SHA256 for keystores this tool writes, scrypt for reading
// keystores written by other Ethereum clients.
package crypto
