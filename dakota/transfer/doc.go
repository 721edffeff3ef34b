// Package transfer moves key set directories between machines.
//
// Key features:
//   - Bundle: a key set directory packed as a tar stream, file modes preserved
//   - Chunked transfer with configurable chunk sizes
//   - Keccak-256 Merkle tree so the receiver can check every chunk and the whole bundle
//   - LZ4 compression of chunks where it helps
//   - Batching of chunks into length-prefixed frames
//
// The erasure sub-package splits a bundle into Reed-Solomon shards for offline backups.
package transfer
