package transfer

import (
	"bytes"
	"sort"

	"github.com/cryft-labs/dakota/dakota/crypto/keccak"
)

// DefaultChunkSize is 64 KB. Key bundles are small, so most fit in one chunk.
const DefaultChunkSize = 64 * 1024

// Chunker splits data into fixed-size chunks.
type Chunker struct {
	chunkSize int
}

// NewChunker creates a chunker. A non-positive size selects DefaultChunkSize.
func NewChunker(chunkSize int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Chunker{chunkSize: chunkSize}
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Chunk is one slice of a payload with its Keccak-256 hash.
type Chunk struct {
	Index int
	Data  []byte
	Hash  []byte
}

// Split splits data into chunks and computes their hashes. Chunks alias data.
func (c *Chunker) Split(data []byte) []Chunk {
	var chunks []Chunk
	for i := 0; i < len(data); i += c.chunkSize {
		end := i + c.chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[i:end]
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Data:  chunk,
			Hash:  HashChunk(chunk),
		})
	}
	return chunks
}

// Reassemble concatenates chunks in index order.
func Reassemble(chunks []Chunk) []byte {
	sorted := make([]Chunk, len(chunks))
	copy(sorted, chunks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	var buf bytes.Buffer
	for _, c := range sorted {
		buf.Write(c.Data)
	}
	return buf.Bytes()
}

// HashChunk returns the Keccak-256 hash of a chunk.
func HashChunk(data []byte) []byte {
	h := keccak.Sum256(data)
	return h[:]
}
