// Package aes128 implements the AES-128 block cipher (FIPS-197) and counter
// mode as used by Ethereum V3 keystores ("aes-128-ctr").
//
// Only encryption is implemented: CTR mode never runs the inverse cipher.
package aes128
