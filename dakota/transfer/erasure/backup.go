package erasure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cryft-labs/dakota/dakota/crypto/keccak"
)

// Errors returned by Restore.
var (
	ErrNoShards    = errors.New("erasure: no shards given")
	ErrMixedShards = errors.New("erasure: shards belong to different backups")
	ErrSetMismatch = errors.New("erasure: restored payload does not match its backup id")
)

// shardFileMode matches the key files the shards are made from.
const shardFileMode = 0o600

// Split encodes payload into data+parity shards named after the bundle.
func Split(name string, payload []byte, dataShards, parityShards int) ([]*Shard, error) {
	codec, err := NewCodec(dataShards, parityShards)
	if err != nil {
		return nil, err
	}
	setID := keccak.Sum256(payload)
	parts, err := codec.EncodeData(payload)
	if err != nil {
		return nil, err
	}
	shards := make([]*Shard, len(parts))
	for i, p := range parts {
		shards[i] = &Shard{
			Name:         name,
			Index:        i,
			DataShards:   dataShards,
			ParityShards: parityShards,
			Size:         int64(len(payload)),
			SetID:        setID,
			Data:         p,
		}
	}
	return shards, nil
}

// Restore rebuilds the payload from any DataShards of the shards. Order does
// not matter and duplicates are ignored. When more than DataShards are given,
// the extras must agree with the rest or Restore fails with
// ErrParityMismatch.
func Restore(shards []*Shard) (name string, payload []byte, err error) {
	if len(shards) == 0 {
		return "", nil, ErrNoShards
	}
	first := shards[0]
	for _, s := range shards[1:] {
		if s.SetID != first.SetID || s.Name != first.Name || s.Size != first.Size ||
			s.DataShards != first.DataShards || s.ParityShards != first.ParityShards {
			return "", nil, ErrMixedShards
		}
	}

	codec, err := NewCodec(first.DataShards, first.ParityShards)
	if err != nil {
		return "", nil, err
	}
	parts := make([][]byte, codec.TotalShards())
	for _, s := range shards {
		if s.Index < 0 || s.Index >= len(parts) {
			return "", nil, ErrShardMalformed
		}
		parts[s.Index] = s.Data
	}
	if err := codec.Reconstruct(parts); err != nil {
		return "", nil, err
	}
	if ok, err := codec.Verify(parts); err != nil {
		return "", nil, err
	} else if !ok {
		return "", nil, ErrParityMismatch
	}
	payload, err = codec.Join(parts, int(first.Size))
	if err != nil {
		return "", nil, err
	}
	if keccak.Sum256(payload) != first.SetID {
		return "", nil, ErrSetMismatch
	}
	return first.Name, payload, nil
}

// FileName is the conventional file name for a shard, e.g. "eoa-01.shard-2-of-5".
func FileName(s *Shard) string {
	return fmt.Sprintf("%s.shard-%d-of-%d", s.Name, s.Index+1, s.DataShards+s.ParityShards)
}

// WriteShards writes each shard to dir and returns the file paths.
func WriteShards(dir string, shards []*Shard) ([]string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(shards))
	for _, s := range shards {
		b, err := s.MarshalBinary()
		if err != nil {
			return nil, err
		}
		p := filepath.Join(dir, FileName(s))
		if err := os.WriteFile(p, b, shardFileMode); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// ReadShards loads shard files. Unreadable or corrupt files are skipped and
// reported in skipped, so a restore can proceed with what survived.
func ReadShards(paths []string) (shards []*Shard, skipped map[string]error) {
	skipped = make(map[string]error)
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			skipped[p] = err
			continue
		}
		s, err := ParseShard(b)
		if err != nil {
			skipped[p] = err
			continue
		}
		shards = append(shards, s)
	}
	return shards, skipped
}
