package protocol

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Version is carried in every offer; receivers reject other versions.
const Version = 1

// Errors returned when decoding and validating messages.
var (
	ErrMalformedMessage = errors.New("protocol: malformed message")
	ErrVersion          = errors.New("protocol: unsupported version")
	ErrUnexpected       = errors.New("protocol: unexpected message")
)

// Offer announces a bundle before any DATA frame. Root is the hex Merkle
// root over the chunk hashes. Token is the receiver's one-time session
// token, shown to the operator next to its fingerprint.
type Offer struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Chunks  int    `json:"chunks"`
	Root    string `json:"root"`
	Token   string `json:"token"`
}

// RootBytes decodes Root.
func (o Offer) RootBytes() ([]byte, error) {
	b, err := hex.DecodeString(o.Root)
	if err != nil || len(b) != 32 {
		return nil, fmt.Errorf("%w: root %q", ErrMalformedMessage, o.Root)
	}
	return b, nil
}

// Validate checks an offer against a receiver's size limit.
func (o Offer) Validate(maxSize int64) error {
	if o.Version != Version {
		return fmt.Errorf("%w: %d", ErrVersion, o.Version)
	}
	if o.Name == "" || o.Size <= 0 || o.Chunks <= 0 || int64(o.Chunks) > o.Size {
		return fmt.Errorf("%w: offer %+v", ErrMalformedMessage, o)
	}
	if maxSize > 0 && o.Size > maxSize {
		return fmt.Errorf("%w: offer of %d bytes exceeds %d", ErrMalformedMessage, o.Size, maxSize)
	}
	_, err := o.RootBytes()
	return err
}

// Ack confirms a bundle was verified and stored.
type Ack struct {
	Root string `json:"root"`
	Path string `json:"path"`
}

// Close aborts a transfer. Nothing was written on the receiving side.
type Close struct {
	Reason string `json:"reason"`
}

func (c Close) Error() string { return "protocol: peer closed transfer: " + c.Reason }

// EncodeMessage wraps v as a frame of type t.
func EncodeMessage(t MessageType, v any) (Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: t, Payload: b}, nil
}

// DecodeMessage unmarshals f into v after checking its type.
func DecodeMessage(f Frame, want MessageType, v any) error {
	if f.Type != want {
		return fmt.Errorf("%w: got %s, want %s", ErrUnexpected, f.Type, want)
	}
	if err := json.Unmarshal(f.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedMessage, want, err)
	}
	return nil
}
