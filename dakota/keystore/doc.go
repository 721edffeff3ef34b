// Package keystore reads and writes Web3 Secret Storage (V3) keystore files.
//
// Records written here use PBKDF2-HMAC-SHA256 (262144 rounds by default) and
// AES-128-CTR, with the MAC computed as Keccak256(dk[16:32] ‖ ciphertext).
// Decrypt additionally accepts scrypt records so keys exported by other
// Ethereum clients can be verified.
package keystore
