// Package erasure splits a key bundle into Reed-Solomon shards for offline
// backup. With 3 data and 2 parity shards, any 3 of the 5 shard files are
// enough to restore the bundle.
//
// Every shard file carries a header naming the bundle, its shard geometry,
// the Keccak-256 of the whole payload and of the shard itself, so corrupt or
// foreign shards are detected before reconstruction.
//
// Coding is done by github.com/klauspost/reedsolomon.
package erasure
