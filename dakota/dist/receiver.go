package dist

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cryft-labs/dakota/dakota/protocol"
	"github.com/cryft-labs/dakota/dakota/transfer"
	"github.com/cryft-labs/dakota/dakota/transport/quic"
)

// ErrUnauthorized is returned by the receiver for an offer that does not
// carry its session token.
var ErrUnauthorized = errors.New("dist: sender did not present the session token")

// Receiver accepts bundles on a QUIC listener.
type Receiver struct {
	Logger *zap.Logger
	// MaxSize caps an offered bundle; zero means transfer.MaxBundleSize.
	MaxSize int64

	ln    *quic.Listener
	token string
}

// NewReceiver listens on addr with a fresh certificate and session token.
func NewReceiver(addr string, logger *zap.Logger) (*Receiver, error) {
	token, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	ln, err := quic.Listen(addr, nil)
	if err != nil {
		return nil, err
	}
	return &Receiver{Logger: logger, ln: ln, token: token.String()}, nil
}

func (r *Receiver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// Addr returns the bound UDP address.
func (r *Receiver) Addr() string { return r.ln.Addr().String() }

// Fingerprint is what senders must pin.
func (r *Receiver) Fingerprint() string { return r.ln.Fingerprint() }

// Token is what senders must quote in their offer. It changes with every
// NewReceiver.
func (r *Receiver) Token() string { return r.token }

// Target returns what a sender needs to reach this receiver.
func (r *Receiver) Target() Target {
	return Target{Addr: r.Addr(), Fingerprint: r.Fingerprint(), Token: r.token}
}

// Close stops the listener.
func (r *Receiver) Close() error { return r.ln.Close() }

// Receive accepts one connection and stores its bundle under dst.
func (r *Receiver) Receive(ctx context.Context, dst string) (*Result, error) {
	conn, err := r.ln.Accept(ctx)
	if err != nil {
		return nil, err
	}
	return r.handle(ctx, conn, dst)
}

// Serve receives bundles until ctx is done. A failed transfer is logged and
// does not stop the loop; onResult, if set, is called for every success.
func (r *Receiver) Serve(ctx context.Context, dst string, onResult func(*Result)) error {
	for {
		conn, err := r.ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		res, err := r.handle(ctx, conn, dst)
		if err != nil {
			r.logger().Warn("transfer failed", zap.String("peer", conn.RemoteAddr().String()), zap.Error(err))
			continue
		}
		if onResult != nil {
			onResult(res)
		}
	}
}

func (r *Receiver) handle(ctx context.Context, conn quic.Conn, dst string) (*Result, error) {
	log := r.logger().With(zap.String("peer", conn.RemoteAddr().String()))
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		conn.CloseWithError(quic.CodeRejected, "no stream")
		return nil, err
	}

	res, recvErr := r.receive(stream, dst, log)
	var reply protocol.Frame
	if recvErr != nil {
		stream.CancelRead(quic.StreamRejected)
		reply, err = protocol.EncodeMessage(protocol.MessageTypeClose, protocol.Close{Reason: recvErr.Error()})
	} else {
		reply, err = protocol.EncodeMessage(protocol.MessageTypeAck, protocol.Ack{Root: res.Root, Path: res.Path})
	}
	if err == nil {
		err = protocol.WriteFrame(stream, reply)
	}
	_ = stream.Close()

	// The sender closes the connection once it has read the verdict.
	select {
	case <-conn.Context().Done():
	case <-time.After(5 * time.Second):
		conn.CloseWithError(quic.CodeOK, "")
	case <-ctx.Done():
		conn.CloseWithError(quic.CodeOK, "")
	}

	if recvErr != nil {
		return nil, recvErr
	}
	if err != nil {
		return nil, fmt.Errorf("dist: send ack: %w", err)
	}
	return res, nil
}

func (r *Receiver) receive(stream quic.Stream, dst string, log *zap.Logger) (*Result, error) {
	maxSize := r.MaxSize
	if maxSize <= 0 {
		maxSize = transfer.MaxBundleSize
	}

	f, err := protocol.ReadFrame(stream)
	if err != nil {
		return nil, fmt.Errorf("dist: read offer: %w", err)
	}
	var offer protocol.Offer
	if err := protocol.DecodeMessage(f, protocol.MessageTypeOffer, &offer); err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(offer.Token), []byte(r.token)) != 1 {
		log.Warn("offer without a valid token", zap.String("name", offer.Name))
		return nil, ErrUnauthorized
	}
	if err := offer.Validate(maxSize); err != nil {
		return nil, err
	}
	root, _ := offer.RootBytes()
	log = log.With(zap.String("name", offer.Name), zap.String("root", offer.Root))
	log.Info("incoming bundle", zap.Int64("size", offer.Size), zap.Int("chunks", offer.Chunks))

	asm := transfer.NewAssembler(offer.Chunks, offer.Size, root)
	for !asm.Complete() {
		f, err := protocol.ReadFrame(stream)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dist: read data: %w", err)
		}
		if f.Type != protocol.MessageTypeData {
			return nil, fmt.Errorf("%w: %s", protocol.ErrUnexpected, f.Type)
		}
		batch, err := transfer.DecodeBatch(f.Payload)
		if err != nil {
			return nil, err
		}
		if err := asm.AddBatch(batch); err != nil {
			return nil, err
		}
	}

	data, err := asm.Assemble()
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != offer.Size {
		return nil, fmt.Errorf("dist: bundle is %d bytes, offer said %d", len(data), offer.Size)
	}
	b, err := transfer.NewBundle(offer.Name, data)
	if err != nil {
		return nil, err
	}
	path, err := b.Unpack(dst)
	if err != nil {
		return nil, err
	}

	log.Info("bundle stored", zap.String("path", path))
	return &Result{Name: offer.Name, Root: offer.Root, Path: path, Size: offer.Size, Chunks: offer.Chunks}, nil
}
