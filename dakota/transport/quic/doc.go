// Package quic carries key bundles over QUIC (github.com/quic-go/quic-go).
//
// Receivers present a short-lived self-signed certificate. Senders do not
// use a CA; they pin the certificate by its Keccak-256 fingerprint, which
// the receiver prints for the operator to pass along.
package quic
