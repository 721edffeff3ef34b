package dist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cryft-labs/dakota/dakota/protocol"
	"github.com/cryft-labs/dakota/dakota/transfer"
	"github.com/cryft-labs/dakota/dakota/transport/quic"
)

// Errors returned by Sender.Send. All are wrapped with Permanent.
var (
	ErrRejected    = errors.New("dist: receiver rejected the bundle")
	ErrAckMismatch = errors.New("dist: receiver acknowledged a different root")
	ErrNoToken     = errors.New("dist: receiver token is required")
)

// Target identifies a receiver: where it listens, the certificate to pin and
// the session token it printed.
type Target struct {
	Addr        string
	Fingerprint string
	Token       string
}

// Result describes one completed transfer.
type Result struct {
	Name   string
	Root   string
	Path   string // where the receiver stored the key set
	Size   int64
	Chunks int
}

// Sender pushes bundles to receivers.
type Sender struct {
	Logger      *zap.Logger
	ChunkSize   int
	Compression transfer.CompressionLevel
	// AckTimeout bounds the wait for the receiver's verdict after the last DATA frame.
	AckTimeout time.Duration
}

func (s *Sender) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Send delivers b to the receiver at to.Addr whose certificate matches
// to.Fingerprint, quoting to.Token in the offer. Rejections by the receiver
// are Permanent.
func (s *Sender) Send(ctx context.Context, to Target, b *transfer.Bundle) (*Result, error) {
	if to.Token == "" {
		return nil, Permanent(ErrNoToken)
	}
	addr := to.Addr
	prep, err := transfer.Prepare(b.Data, s.ChunkSize, s.Compression)
	if err != nil {
		return nil, Permanent(err)
	}
	offer := protocol.Offer{
		Version: protocol.Version,
		Name:    b.Name,
		Size:    prep.Size,
		Chunks:  len(prep.Chunks),
		Root:    prep.Tree.RootHex(),
		Token:   to.Token,
	}
	log := s.logger().With(zap.String("name", b.Name), zap.String("addr", addr))

	conn, err := quic.Dial(ctx, addr, to.Fingerprint)
	if err != nil {
		if errors.Is(err, quic.ErrNoFingerprint) {
			return nil, Permanent(err)
		}
		return nil, fmt.Errorf("dist: dial %s: %w", addr, err)
	}
	defer conn.CloseWithError(quic.CodeOK, "")

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("dist: open stream: %w", err)
	}

	f, err := protocol.EncodeMessage(protocol.MessageTypeOffer, offer)
	if err != nil {
		return nil, err
	}
	if err := protocol.WriteFrame(stream, f); err != nil {
		return nil, fmt.Errorf("dist: send offer: %w", err)
	}
	var writeErr error
	for _, batch := range prep.Batches() {
		payload, err := batch.Encode()
		if err != nil {
			return nil, Permanent(err)
		}
		if writeErr = protocol.WriteFrame(stream, protocol.Frame{Type: protocol.MessageTypeData, Payload: payload}); writeErr != nil {
			break
		}
	}
	if writeErr == nil {
		writeErr = stream.Close()
		log.Debug("bundle sent, waiting for receiver",
			zap.Int("chunks", offer.Chunks),
			zap.Float64("compression_ratio", prep.Stats.CompressionRatio()))
	}

	// A receiver that refuses early stops reading, so a failed write may
	// still be followed by its CLOSE.
	timeout := s.AckTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if writeErr != nil {
		timeout = 2 * time.Second
	}
	_ = stream.SetReadDeadline(time.Now().Add(timeout))
	reply, err := protocol.ReadFrame(stream)
	if err != nil {
		if writeErr != nil {
			return nil, fmt.Errorf("dist: send data: %w", writeErr)
		}
		return nil, fmt.Errorf("dist: read verdict: %w", err)
	}

	switch reply.Type {
	case protocol.MessageTypeAck:
		var ack protocol.Ack
		if err := protocol.DecodeMessage(reply, protocol.MessageTypeAck, &ack); err != nil {
			return nil, err
		}
		if ack.Root != offer.Root {
			return nil, Permanent(fmt.Errorf("%w: %s", ErrAckMismatch, ack.Root))
		}
		log.Info("bundle delivered", zap.String("root", offer.Root), zap.String("path", ack.Path))
		return &Result{Name: b.Name, Root: offer.Root, Path: ack.Path, Size: offer.Size, Chunks: offer.Chunks}, nil
	case protocol.MessageTypeClose:
		var c protocol.Close
		if err := protocol.DecodeMessage(reply, protocol.MessageTypeClose, &c); err != nil {
			return nil, err
		}
		log.Warn("bundle rejected", zap.String("reason", c.Reason))
		return nil, Permanent(fmt.Errorf("%w: %s", ErrRejected, c.Reason))
	default:
		return nil, fmt.Errorf("%w: %s", protocol.ErrUnexpected, reply.Type)
	}
}
