package transfer

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// Errors returned by Assembler.
var (
	ErrIntegrityCheckFailed = errors.New("transfer: merkle root mismatch")
	ErrIncomplete           = errors.New("transfer: missing chunks")
	ErrChunkIndex           = errors.New("transfer: chunk index out of range")
	ErrDuplicateChunk       = errors.New("transfer: duplicate chunk")
)

// Stats counts bytes and chunks moved through a Prepare or Assembler.
type Stats struct {
	TotalBytes      atomic.Int64
	CompressedBytes atomic.Int64
	Chunks          atomic.Int64
	Errors          atomic.Int64
}

// CompressionRatio returns original size over compressed size.
func (s *Stats) CompressionRatio() float64 {
	comp := s.CompressedBytes.Load()
	if comp == 0 {
		return 1.0
	}
	return float64(s.TotalBytes.Load()) / float64(comp)
}

// Prepared is a payload ready to send: compressed chunks plus the Merkle
// tree over the uncompressed chunk hashes.
type Prepared struct {
	Chunks []CompressedChunk
	Tree   *MerkleTree
	Size   int64
	Stats  Stats
}

// Prepare chunks, hashes and compresses data.
func Prepare(data []byte, chunkSize int, level CompressionLevel) (*Prepared, error) {
	chunks := NewChunker(chunkSize).Split(data)
	hashes := make([][]byte, len(chunks))
	for i, c := range chunks {
		hashes[i] = c.Hash
	}
	tree, err := BuildMerkleTree(hashes)
	if err != nil {
		return nil, err
	}

	p := &Prepared{Tree: tree, Size: int64(len(data))}
	p.Stats.TotalBytes.Store(int64(len(data)))
	for _, c := range chunks {
		cc := CompressChunk(c, level)
		proof, err := tree.GenerateProof(c.Index)
		if err != nil {
			return nil, err
		}
		cc.Proof = proof.Siblings
		p.Chunks = append(p.Chunks, cc)
		p.Stats.CompressedBytes.Add(int64(len(cc.Data)))
		p.Stats.Chunks.Add(1)
	}
	return p, nil
}

// Batches groups the prepared chunks into batches no larger than MaxBatchSize.
func (p *Prepared) Batches() []*Batch {
	var out []*Batch
	cur := NewBatch()
	for _, cc := range p.Chunks {
		next := chunkEncodedSize(cc)
		if len(cur.Chunks) > 0 && cur.Size()+next > MaxBatchSize {
			out = append(out, cur)
			cur = NewBatch()
		}
		cur.Add(cc)
	}
	if len(cur.Chunks) > 0 {
		out = append(out, cur)
	}
	return out
}

// Assembler collects chunks on the receiving side and releases the payload
// only once every chunk has arrived and the Merkle root matches.
type Assembler struct {
	expected int
	size     int64
	root     []byte
	stats    Stats

	mu       sync.Mutex
	chunks   map[int]Chunk
	received int64
}

// NewAssembler expects n chunks totalling size bytes and committing to root.
func NewAssembler(n int, size int64, root []byte) *Assembler {
	return &Assembler{
		expected: n,
		size:     size,
		root:     append([]byte(nil), root...),
		chunks:   make(map[int]Chunk, n),
	}
}

// Add checks cc's Merkle proof against the root, then decompresses it. A
// chunk may inflate to at most the bytes still outstanding, so a hostile
// frame cannot force an allocation larger than the announced payload.
func (a *Assembler) Add(cc CompressedChunk) error {
	if err := a.add(cc); err != nil {
		a.stats.Errors.Add(1)
		return fmt.Errorf("chunk %d: %w", cc.Index, err)
	}
	return nil
}

func (a *Assembler) add(cc CompressedChunk) error {
	if cc.Index < 0 || cc.Index >= a.expected {
		return fmt.Errorf("%w: %d of %d", ErrChunkIndex, cc.Index, a.expected)
	}
	if err := VerifyChunk(a.root, a.expected, cc.Index, cc.OrigHash, cc.Proof); err != nil {
		return err
	}

	a.mu.Lock()
	_, dup := a.chunks[cc.Index]
	remaining := a.size - a.received
	a.mu.Unlock()
	if dup {
		return ErrDuplicateChunk
	}
	if remaining < 0 {
		remaining = 0
	}
	if remaining > math.MaxInt32 {
		remaining = math.MaxInt32
	}

	chunk, err := DecompressChunk(cc, int(remaining))
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, dup := a.chunks[chunk.Index]; dup {
		return ErrDuplicateChunk
	}
	if a.received+int64(len(chunk.Data)) > a.size {
		return ErrChunkTooLarge
	}
	a.chunks[chunk.Index] = chunk
	a.received += int64(len(chunk.Data))

	a.stats.Chunks.Add(1)
	a.stats.CompressedBytes.Add(int64(len(cc.Data)))
	a.stats.TotalBytes.Add(int64(len(chunk.Data)))
	return nil
}

// AddBatch adds every chunk in b, stopping at the first error.
func (a *Assembler) AddBatch(b *Batch) error {
	for _, cc := range b.Chunks {
		if err := a.Add(cc); err != nil {
			return err
		}
	}
	return nil
}

// Progress returns the fraction of expected chunks received.
func (a *Assembler) Progress() float64 {
	if a.expected == 0 {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return float64(len(a.chunks)) / float64(a.expected)
}

// Complete reports whether every expected chunk has been received.
func (a *Assembler) Complete() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.expected > 0 && len(a.chunks) == a.expected
}

// Stats returns the receive counters.
func (a *Assembler) Stats() *Stats { return &a.stats }

// Assemble verifies the Merkle root and returns the payload.
func (a *Assembler) Assemble() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.expected == 0 || len(a.chunks) != a.expected {
		return nil, fmt.Errorf("%w: have %d of %d", ErrIncomplete, len(a.chunks), a.expected)
	}

	ordered := make([]Chunk, a.expected)
	hashes := make([][]byte, a.expected)
	for i := 0; i < a.expected; i++ {
		ordered[i] = a.chunks[i]
		hashes[i] = ordered[i].Hash
	}
	tree, err := BuildMerkleTree(hashes)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(tree.Root(), a.root) {
		return nil, ErrIntegrityCheckFailed
	}
	return Reassemble(ordered), nil
}
