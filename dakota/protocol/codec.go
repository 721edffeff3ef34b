package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFramePayload limits a single frame payload (8 MiB), enough for one
// full transfer batch.
const MaxFramePayload = 8 << 20

// Errors returned by ReadFrame and WriteFrame.
var (
	ErrFrameTooLarge = errors.New("protocol: frame payload too large")
	ErrInvalidType   = errors.New("protocol: invalid message type")
)

// Frame is the wire container:
//
//	1 byte:  type
//	4 bytes: payload length (big endian)
//	N bytes: payload
type Frame struct {
	Type    MessageType
	Payload []byte
}

// WriteFrame writes f with a single Write call.
func WriteFrame(w io.Writer, f Frame) error {
	if !f.Type.valid() {
		return ErrInvalidType
	}
	if len(f.Payload) > MaxFramePayload {
		return ErrFrameTooLarge
	}
	buf := make([]byte, 5+len(f.Payload))
	buf[0] = byte(f.Type)
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(f.Payload)))
	copy(buf[5:], f.Payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads exactly one frame and nothing past it.
func ReadFrame(r io.Reader) (Frame, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, err
	}
	mt := MessageType(hdr[0])
	if !mt.valid() {
		return Frame{}, fmt.Errorf("%w: %d", ErrInvalidType, hdr[0])
	}
	payloadLen := binary.BigEndian.Uint32(hdr[1:])
	if payloadLen > MaxFramePayload {
		return Frame{}, fmt.Errorf("%w: %d", ErrFrameTooLarge, payloadLen)
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, err
	}
	return Frame{Type: mt, Payload: payload}, nil
}
