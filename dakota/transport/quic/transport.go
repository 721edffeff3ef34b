package quic

import (
	"context"
	"net"
	"time"

	q "github.com/quic-go/quic-go"
)

// Conn and Stream are the quic-go types handed to callers.
type (
	Conn   = q.Connection
	Stream = q.Stream
)

// Application error codes sent when a connection is closed.
const (
	CodeOK       q.ApplicationErrorCode = 0
	CodeRejected q.ApplicationErrorCode = 1
)

// StreamRejected cancels the unread remainder of a stream that was refused.
const StreamRejected q.StreamErrorCode = 1

func config() *q.Config {
	return &q.Config{
		HandshakeIdleTimeout: 10 * time.Second,
		MaxIdleTimeout:       60 * time.Second,
		KeepAlivePeriod:      15 * time.Second,
	}
}

// Listener accepts QUIC connections for one receiver identity.
type Listener struct {
	inner *q.Listener
	id    *Identity
}

// Listen binds addr. A nil id generates a fresh certificate.
func Listen(addr string, id *Identity) (*Listener, error) {
	if id == nil {
		var err error
		if id, err = NewIdentity(0); err != nil {
			return nil, err
		}
	}
	ln, err := q.ListenAddr(addr, ServerTLSConfig(id), config())
	if err != nil {
		return nil, err
	}
	return &Listener{inner: ln, id: id}, nil
}

// Accept waits for the next connection.
func (l *Listener) Accept(ctx context.Context) (Conn, error) {
	return l.inner.Accept(ctx)
}

// Addr returns the bound UDP address.
func (l *Listener) Addr() net.Addr { return l.inner.Addr() }

// Fingerprint is the value senders must pin.
func (l *Listener) Fingerprint() string { return l.id.Fingerprint }

// Close stops accepting connections.
func (l *Listener) Close() error { return l.inner.Close() }

// Dial connects to addr and verifies the receiver against the pinned fingerprint.
func Dial(ctx context.Context, addr, fingerprint string) (Conn, error) {
	tlsConf, err := ClientTLSConfig(fingerprint)
	if err != nil {
		return nil, err
	}
	return q.DialAddr(ctx, addr, tlsConf, config())
}
