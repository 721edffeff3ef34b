package erasure

import (
	"errors"
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// Errors returned by Codec.
var (
	ErrTooManyLost       = errors.New("erasure: too many shards lost, cannot recover")
	ErrInvalidConfig     = errors.New("erasure: invalid data/parity configuration")
	ErrShardSizeMismatch = errors.New("erasure: shard sizes do not match")
	ErrParityMismatch    = errors.New("erasure: parity does not match data shards")
)

// MaxShards bounds data+parity; shard indexes are stored in one byte.
const MaxShards = 255

// Codec wraps a Reed-Solomon encoder with fixed geometry.
type Codec struct {
	enc          reedsolomon.Encoder
	dataShards   int
	parityShards int
}

// NewCodec creates a codec that tolerates the loss of up to parityShards shards.
func NewCodec(dataShards, parityShards int) (*Codec, error) {
	if dataShards <= 0 || parityShards <= 0 || dataShards+parityShards > MaxShards {
		return nil, fmt.Errorf("%w: %d+%d", ErrInvalidConfig, dataShards, parityShards)
	}
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return &Codec{
		enc:          enc,
		dataShards:   dataShards,
		parityShards: parityShards,
	}, nil
}

// DataShards returns the number of data shards.
func (c *Codec) DataShards() int { return c.dataShards }

// ParityShards returns the number of parity shards.
func (c *Codec) ParityShards() int { return c.parityShards }

// TotalShards returns data + parity.
func (c *Codec) TotalShards() int { return c.dataShards + c.parityShards }

// EncodeData splits data into data shards, padding the last, and computes parity.
func (c *Codec) EncodeData(data []byte) ([][]byte, error) {
	shards, err := c.enc.Split(data)
	if err != nil {
		return nil, err
	}
	if err := c.enc.Encode(shards); err != nil {
		return nil, err
	}
	return shards, nil
}

// Verify reports whether the parity shards match the data shards.
func (c *Codec) Verify(shards [][]byte) (bool, error) {
	return c.enc.Verify(shards)
}

// Reconstruct fills in nil entries of shards.
func (c *Codec) Reconstruct(shards [][]byte) error {
	if err := c.enc.Reconstruct(shards); err != nil {
		if errors.Is(err, reedsolomon.ErrTooFewShards) {
			return ErrTooManyLost
		}
		if errors.Is(err, reedsolomon.ErrShardSize) {
			return ErrShardSizeMismatch
		}
		return err
	}
	return nil
}

// Join concatenates the data shards and trims the padding to outSize bytes.
func (c *Codec) Join(shards [][]byte, outSize int) ([]byte, error) {
	if len(shards) < c.dataShards {
		return nil, ErrTooManyLost
	}
	data := make([]byte, 0, outSize)
	for i := 0; i < c.dataShards && len(data) < outSize; i++ {
		if shards[i] == nil {
			return nil, ErrTooManyLost
		}
		remaining := outSize - len(data)
		if remaining >= len(shards[i]) {
			data = append(data, shards[i]...)
		} else {
			data = append(data, shards[i][:remaining]...)
		}
	}
	if len(data) != outSize {
		return nil, ErrShardSizeMismatch
	}
	return data, nil
}

// ShardSize returns the size of each shard for dataSize bytes of input.
func (c *Codec) ShardSize(dataSize int) int {
	shardSize := dataSize / c.dataShards
	if dataSize%c.dataShards != 0 {
		shardSize++
	}
	return shardSize
}

// Overhead returns the storage overhead ratio, e.g. 5/3 for 3+2.
func (c *Codec) Overhead() float64 {
	return float64(c.TotalShards()) / float64(c.dataShards)
}
