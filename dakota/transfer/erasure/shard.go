package erasure

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cryft-labs/dakota/dakota/crypto/keccak"
)

// Errors returned by ParseShard.
var (
	ErrShardMalformed = errors.New("erasure: malformed shard")
	ErrShardCorrupt   = errors.New("erasure: shard checksum mismatch")
)

// ShardMagic identifies a shard file ("DKS1").
const ShardMagic = uint32(0x444b5331)

// maxNameLen bounds the bundle name stored in a shard header.
const maxNameLen = 255

// Shard is one Reed-Solomon shard of a named payload.
type Shard struct {
	Name         string
	Index        int
	DataShards   int
	ParityShards int
	Size         int64    // original payload size
	SetID        [32]byte // Keccak-256 of the original payload
	Data         []byte
}

// MarshalBinary encodes the shard. Integers are big-endian:
//
//	4 bytes:  magic
//	1 byte:   index
//	1 byte:   data shards
//	1 byte:   parity shards
//	1 byte:   name length, then the name
//	8 bytes:  payload size
//	32 bytes: set id
//	4 bytes:  shard length
//	32 bytes: Keccak-256 of the shard data
//	N bytes:  shard data
func (s *Shard) MarshalBinary() ([]byte, error) {
	if len(s.Name) == 0 || len(s.Name) > maxNameLen {
		return nil, fmt.Errorf("%w: name length %d", ErrShardMalformed, len(s.Name))
	}
	if s.DataShards <= 0 || s.ParityShards <= 0 || s.DataShards+s.ParityShards > MaxShards ||
		s.Index < 0 || s.Index >= s.DataShards+s.ParityShards || s.Size < 0 {
		return nil, fmt.Errorf("%w: geometry %d/%d+%d", ErrShardMalformed, s.Index, s.DataShards, s.ParityShards)
	}

	var buf bytes.Buffer
	buf.Grow(4 + 4 + len(s.Name) + 8 + 32 + 4 + 32 + len(s.Data))
	_ = binary.Write(&buf, binary.BigEndian, ShardMagic)
	buf.WriteByte(byte(s.Index))
	buf.WriteByte(byte(s.DataShards))
	buf.WriteByte(byte(s.ParityShards))
	buf.WriteByte(byte(len(s.Name)))
	buf.WriteString(s.Name)
	_ = binary.Write(&buf, binary.BigEndian, uint64(s.Size))
	buf.Write(s.SetID[:])
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(s.Data)))
	sum := keccak.Sum256(s.Data)
	buf.Write(sum[:])
	buf.Write(s.Data)
	return buf.Bytes(), nil
}

// ParseShard decodes and checks one shard.
func ParseShard(b []byte) (*Shard, error) {
	const fixed = 4 + 4
	if len(b) < fixed || binary.BigEndian.Uint32(b) != ShardMagic {
		return nil, ErrShardMalformed
	}
	s := &Shard{
		Index:        int(b[4]),
		DataShards:   int(b[5]),
		ParityShards: int(b[6]),
	}
	nameLen := int(b[7])
	off := fixed
	if nameLen == 0 || len(b) < off+nameLen+8+32+4+32 {
		return nil, ErrShardMalformed
	}
	s.Name = string(b[off : off+nameLen])
	off += nameLen
	size := binary.BigEndian.Uint64(b[off:])
	off += 8
	if size > 1<<40 {
		return nil, ErrShardMalformed
	}
	s.Size = int64(size)
	copy(s.SetID[:], b[off:])
	off += 32
	dataLen := int(binary.BigEndian.Uint32(b[off:]))
	off += 4
	var sum [32]byte
	copy(sum[:], b[off:])
	off += 32
	if len(b)-off != dataLen {
		return nil, ErrShardMalformed
	}
	s.Data = append([]byte(nil), b[off:]...)

	if s.DataShards <= 0 || s.ParityShards <= 0 || s.Index >= s.DataShards+s.ParityShards {
		return nil, ErrShardMalformed
	}
	if keccak.Sum256(s.Data) != sum {
		return nil, fmt.Errorf("%w: %s shard %d", ErrShardCorrupt, s.Name, s.Index)
	}
	return s, nil
}
