// Package keygen lays out generated key material on disk.
//
// Output layout (directories 0700, secrets 0600):
//
//	<out>/eoa/<prefix>NN/privateKey          hex private key
//	<out>/eoa/<prefix>NN/address             0x-prefixed address
//	<out>/eoa/<prefix>NN/UTC--<ts>--<addr>   optional V3 keystore
//	<out>/besu/<prefix>NN/key                hex private key
//	<out>/besu/<prefix>NN/key.pub            hex x||y public key (0644)
//	<out>/tessera/<prefix>NN/<base>.key/.pub written by the tessera binary
package keygen
