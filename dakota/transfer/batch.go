package transfer

import (
	"encoding/binary"
	"errors"
	"io"
)

// Errors returned by the batch codec.
var (
	ErrBatchTooLarge  = errors.New("transfer: batch exceeds maximum size")
	ErrBatchMalformed = errors.New("transfer: malformed batch")
)

const (
	// MaxBatchSize is the maximum encoded batch size (4 MB).
	MaxBatchSize = 4 * 1024 * 1024
	// BatchMagic identifies a batch frame ("DKB1").
	BatchMagic = uint32(0x444b4231)
)

// Batch groups chunks into one frame.
type Batch struct {
	Chunks []CompressedChunk
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{Chunks: make([]CompressedChunk, 0)}
}

// Add appends a chunk.
func (b *Batch) Add(cc CompressedChunk) {
	b.Chunks = append(b.Chunks, cc)
}

// Size returns the encoded size of the batch.
func (b *Batch) Size() int {
	size := 4 + 4 // magic + count
	for _, cc := range b.Chunks {
		size += chunkEncodedSize(cc)
	}
	return size
}

// minChunkEncoded is the size of a chunk entry with an empty hash, proof
// and payload.
const minChunkEncoded = 4 + 1 + 2 + 1 + 4

func chunkEncodedSize(cc CompressedChunk) int {
	size := minChunkEncoded + len(cc.OrigHash) + len(cc.Data)
	for _, s := range cc.Proof {
		size += len(s)
	}
	return size
}

// Encode serializes the batch. All integers are big-endian:
//
//	4 bytes: magic
//	4 bytes: chunk count
//	per chunk:
//		4 bytes: index
//		1 byte:  compressed flag
//		2 bytes: hash length, then the hash
//		1 byte:  proof length, then that many 32-byte siblings
//		4 bytes: data length, then the data
func (b *Batch) Encode() ([]byte, error) {
	size := b.Size()
	if size > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}
	for _, cc := range b.Chunks {
		if len(cc.Proof) > 255 {
			return nil, ErrBatchMalformed
		}
		for _, s := range cc.Proof {
			if len(s) != proofNodeSize {
				return nil, ErrBatchMalformed
			}
		}
	}

	buf := make([]byte, size)
	binary.BigEndian.PutUint32(buf[0:], BatchMagic)
	binary.BigEndian.PutUint32(buf[4:], uint32(len(b.Chunks)))
	offset := 8

	for _, cc := range b.Chunks {
		binary.BigEndian.PutUint32(buf[offset:], uint32(cc.Index))
		offset += 4
		if cc.Compressed {
			buf[offset] = 1
		}
		offset++

		binary.BigEndian.PutUint16(buf[offset:], uint16(len(cc.OrigHash)))
		offset += 2
		offset += copy(buf[offset:], cc.OrigHash)

		buf[offset] = byte(len(cc.Proof))
		offset++
		for _, s := range cc.Proof {
			offset += copy(buf[offset:], s)
		}

		binary.BigEndian.PutUint32(buf[offset:], uint32(len(cc.Data)))
		offset += 4
		offset += copy(buf[offset:], cc.Data)
	}
	return buf, nil
}

// DecodeBatch parses an encoded batch. The result does not alias data.
func DecodeBatch(data []byte) (*Batch, error) {
	if len(data) < 8 {
		return nil, ErrBatchMalformed
	}
	if binary.BigEndian.Uint32(data[:4]) != BatchMagic {
		return nil, ErrBatchMalformed
	}

	count := binary.BigEndian.Uint32(data[4:8])
	offset := 8
	// The minimum entry size bounds a hostile count.
	if uint64(count)*minChunkEncoded > uint64(len(data)-offset) {
		return nil, ErrBatchMalformed
	}

	b := &Batch{Chunks: make([]CompressedChunk, 0, count)}
	for i := uint32(0); i < count; i++ {
		if offset+4+1+2 > len(data) {
			return nil, ErrBatchMalformed
		}
		index := int(binary.BigEndian.Uint32(data[offset:]))
		offset += 4
		flag := data[offset]
		offset++
		if flag > 1 {
			return nil, ErrBatchMalformed
		}

		hashLen := int(binary.BigEndian.Uint16(data[offset:]))
		offset += 2
		if offset+hashLen+1 > len(data) {
			return nil, ErrBatchMalformed
		}
		hash := append([]byte(nil), data[offset:offset+hashLen]...)
		offset += hashLen

		depth := int(data[offset])
		offset++
		if offset+depth*proofNodeSize+4 > len(data) {
			return nil, ErrBatchMalformed
		}
		var proof [][]byte
		if depth > 0 {
			proof = make([][]byte, depth)
			for j := range proof {
				proof[j] = append([]byte(nil), data[offset:offset+proofNodeSize]...)
				offset += proofNodeSize
			}
		}

		dataLen := int(binary.BigEndian.Uint32(data[offset:]))
		offset += 4
		if dataLen > len(data)-offset {
			return nil, ErrBatchMalformed
		}
		chunkData := append([]byte(nil), data[offset:offset+dataLen]...)
		offset += dataLen

		b.Chunks = append(b.Chunks, CompressedChunk{
			Index:      index,
			Compressed: flag == 1,
			Data:       chunkData,
			OrigHash:   hash,
			Proof:      proof,
		})
	}
	if offset != len(data) {
		return nil, ErrBatchMalformed
	}
	return b, nil
}

// WriteBatch writes a batch with a 4-byte length prefix.
func WriteBatch(w io.Writer, b *Batch) error {
	data, err := b.Encode()
	if err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadBatch reads one length-prefixed batch.
func ReadBatch(r io.Reader) (*Batch, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	dataLen := binary.BigEndian.Uint32(lenBuf[:])
	if dataLen > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}
	data := make([]byte, dataLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return DecodeBatch(data)
}
