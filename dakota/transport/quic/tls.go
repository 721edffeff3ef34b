package quic

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cryft-labs/dakota/dakota/crypto/keccak"
)

// ALPN is the TLS application protocol both ends negotiate.
const ALPN = "dakota/1"

// Errors returned while pinning a receiver certificate.
var (
	ErrNoFingerprint       = errors.New("quic: receiver fingerprint is required")
	ErrFingerprintMismatch = errors.New("quic: receiver certificate does not match fingerprint")
)

// Identity is a receiver's throwaway TLS certificate. Senders pin it by
// Fingerprint, which the receiver shows out of band.
type Identity struct {
	Certificate tls.Certificate
	Fingerprint string
}

// NewIdentity creates a self-signed Ed25519 certificate valid for validFor.
func NewIdentity(validFor time.Duration) (*Identity, error) {
	if validFor <= 0 {
		validFor = 24 * time.Hour
	}
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tpl := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "dakota-receiver"},
		NotBefore:    now.Add(-1 * time.Hour),
		NotAfter:     now.Add(validFor),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{
			x509.ExtKeyUsageServerAuth,
		},
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &tpl, &tpl, pub, priv)
	if err != nil {
		return nil, err
	}

	return &Identity{
		Certificate: tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv},
		Fingerprint: Fingerprint(der),
	}, nil
}

// Fingerprint returns the hex Keccak-256 of a DER certificate.
func Fingerprint(der []byte) string {
	sum := keccak.Sum256(der)
	return hex.EncodeToString(sum[:])
}

// ServerTLSConfig serves id over TLS 1.3 with the dakota ALPN.
func ServerTLSConfig(id *Identity) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{id.Certificate},
		MinVersion:   tls.VersionTLS13,
		NextProtos:   []string{ALPN},
	}
}

// ClientTLSConfig accepts only a server whose leaf certificate hashes to pin.
// There is no PKI: the pin replaces chain and host name verification.
func ClientTLSConfig(pin string) (*tls.Config, error) {
	pin = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(pin), "0x"))
	if pin == "" {
		return nil, ErrNoFingerprint
	}
	if b, err := hex.DecodeString(pin); err != nil || len(b) != keccak.Size {
		return nil, fmt.Errorf("quic: fingerprint must be %d hex bytes", keccak.Size)
	}
	return &tls.Config{
		MinVersion:         tls.VersionTLS13,
		NextProtos:         []string{ALPN},
		InsecureSkipVerify: true,
		VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			if len(rawCerts) == 0 {
				return ErrFingerprintMismatch
			}
			got := Fingerprint(rawCerts[0])
			if subtle.ConstantTimeCompare([]byte(got), []byte(pin)) != 1 {
				return fmt.Errorf("%w: got %s", ErrFingerprintMismatch, got)
			}
			return nil
		},
	}, nil
}
