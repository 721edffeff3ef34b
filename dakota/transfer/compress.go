package transfer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// Errors returned by the lz4 helpers.
var (
	ErrCompressionFailed   = errors.New("transfer: compression failed")
	ErrDecompressionFailed = errors.New("transfer: decompression failed")
	ErrChunkHashMismatch   = errors.New("transfer: chunk hash mismatch")
	ErrChunkTooLarge       = errors.New("transfer: chunk exceeds size limit")
)

// CompressionLevel selects the lz4 speed/ratio setting.
type CompressionLevel int

// Compression levels, fastest first.
const (
	CompressionFast CompressionLevel = iota
	CompressionDefault
	CompressionBest
)

var compressorPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewWriter(nil)
	},
}

var decompressorPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewReader(nil)
	},
}

// Compress compresses data as an lz4 frame.
func Compress(data []byte, level CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	w := compressorPool.Get().(*lz4.Writer)
	defer compressorPool.Put(w)

	w.Reset(&buf)

	var opt lz4.Option
	switch level {
	case CompressionFast:
		opt = lz4.CompressionLevelOption(lz4.Fast)
	case CompressionBest:
		opt = lz4.CompressionLevelOption(lz4.Level9)
	default:
		opt = lz4.CompressionLevelOption(lz4.Level4)
	}
	if err := w.Apply(opt); err != nil {
		return nil, errors.Join(ErrCompressionFailed, err)
	}

	if _, err := w.Write(data); err != nil {
		return nil, errors.Join(ErrCompressionFailed, err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Join(ErrCompressionFailed, err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress. At most limit+1 bytes are inflated; a frame
// that expands beyond limit fails with ErrChunkTooLarge.
func Decompress(data []byte, limit int) ([]byte, error) {
	if limit < 0 {
		limit = 0
	}
	r := decompressorPool.Get().(*lz4.Reader)
	defer decompressorPool.Put(r)

	r.Reset(bytes.NewReader(data))

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, errors.Join(ErrDecompressionFailed, err)
	}
	if n > int64(limit) {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrChunkTooLarge, limit)
	}
	return buf.Bytes(), nil
}

// CompressedChunk is a chunk as it travels: possibly compressed, with the
// hash of the original bytes and its Merkle siblings, leaf first.
type CompressedChunk struct {
	Index      int
	Compressed bool
	Data       []byte
	OrigHash   []byte
	Proof      [][]byte
}

// CompressChunk compresses a chunk when that makes it smaller.
func CompressChunk(chunk Chunk, level CompressionLevel) CompressedChunk {
	cc := CompressedChunk{Index: chunk.Index, Data: chunk.Data, OrigHash: chunk.Hash}
	compressed, err := Compress(chunk.Data, level)
	if err == nil && len(compressed) < len(chunk.Data) {
		cc.Compressed = true
		cc.Data = compressed
	}
	return cc
}

// DecompressChunk restores a chunk of at most limit bytes and checks it
// against OrigHash.
func DecompressChunk(cc CompressedChunk, limit int) (Chunk, error) {
	data := cc.Data
	if cc.Compressed {
		var err error
		if data, err = Decompress(cc.Data, limit); err != nil {
			return Chunk{}, err
		}
	} else if len(data) > limit {
		return Chunk{}, fmt.Errorf("%w: %d > %d bytes", ErrChunkTooLarge, len(data), limit)
	}

	hash := HashChunk(data)
	if !bytes.Equal(hash, cc.OrigHash) {
		return Chunk{}, ErrChunkHashMismatch
	}
	return Chunk{Index: cc.Index, Data: data, Hash: hash}, nil
}
