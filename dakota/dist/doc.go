// Package dist sends generated key set directories to the machines that
// will use them.
//
// A Receiver listens on QUIC and prints its certificate fingerprint and a
// session token. A Sender packs a key directory into a transfer.Bundle, pins
// the receiver by that fingerprint, and streams the bundle as protocol
// frames, quoting the token in its offer. The receiver refuses offers with
// the wrong token before reading any data, checks every chunk and the Merkle
// root before writing anything, then answers ACK, or CLOSE with a reason.
package dist
